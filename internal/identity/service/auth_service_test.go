package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/clayman083/passport/internal/security"
	sessiondomain "github.com/clayman083/passport/internal/session/domain"
	userdomain "github.com/clayman083/passport/internal/user/domain"
	userrepo "github.com/clayman083/passport/internal/user/repository"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[int64]*userdomain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byKey: map[int64]*userdomain.User{}}
}

func (r *memUserRepo) GetByKey(ctx context.Context, key int64) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byKey[key]
	if !ok || !u.IsActive {
		return nil, nil
	}
	u2 := *u
	return &u2, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byKey {
		if u.Email == email && u.IsActive {
			u2 := *u
			return &u2, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Exists(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byKey {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Create(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byKey {
		if existing.Email == u.Email {
			return userrepo.ErrEmailTaken
		}
	}
	r.nextID++
	u.Key = r.nextID
	u2 := *u
	r.byKey[u.Key] = &u2
	return nil
}

func (r *memUserRepo) UpdateLastLogin(ctx context.Context, key int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byKey[key]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (r *memUserRepo) deactivate(key int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byKey[key]; ok {
		u.IsActive = false
	}
}

type memSessionRepo struct {
	mu sync.Mutex
	m  map[string]*sessiondomain.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{m: map[string]*sessiondomain.Session{}}
}

func (r *memSessionRepo) Fetch(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[key]
	if !ok || s.Expired(time.Now().UTC()) {
		return 0, nil
	}
	return s.UserKey, nil
}

func (r *memSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s2 := *s
	r.m[s.Key] = &s2
	return nil
}

func (r *memSessionRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

func newTestService(t *testing.T) (*AuthService, *memUserRepo, *memSessionRepo) {
	t.Helper()
	codec, err := security.NewTestCodec()
	if err != nil {
		t.Fatalf("NewTestCodec: %v", err)
	}
	users := newMemUserRepo()
	sessions := newMemSessionRepo()
	svc := NewAuthService(users, sessions, security.NewHasher(security.MinHashRounds), codec, time.Hour)
	return svc, users, sessions
}

func TestRegister(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Key == 0 {
		t.Error("Register should assign a key")
	}
	if !user.IsActive {
		t.Error("new users should be active")
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Error("password should be stored hashed")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Register(ctx, "user@example.com", "other")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("duplicate register: want ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestRegister_DuplicateOfInactiveEmail(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	users.deactivate(user.Key)

	_, err = svc.Register(ctx, "user@example.com", "other")
	if !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Errorf("register over inactive user: want ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	user, err := svc.Login(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("Login: got email %q", user.Email)
	}
	if user.LastLogin == nil {
		t.Error("Login should record last login")
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Login(context.Background(), "nobody@example.com", "secret123")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown email: want ErrUserNotFound, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "secret123"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := svc.Login(ctx, "user@example.com", "wrong")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("wrong password: want ErrForbidden, got %v", err)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	users.deactivate(user.Key)

	_, err = svc.Login(ctx, "user@example.com", "secret123")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("inactive user login: want ErrUserNotFound, got %v", err)
	}
}

func TestRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	refresh, err := svc.Codec().Generate(user.Key, user.Email, security.TokenRefresh, time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got, err := svc.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got.Key != user.Key {
		t.Errorf("Refresh: got key %d, want %d", got.Key, user.Key)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	access, err := svc.Codec().Generate(user.Key, user.Email, security.TokenAccess, time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_, err = svc.Refresh(ctx, access)
	if !errors.Is(err, security.ErrBadToken) {
		t.Errorf("access token on refresh: want ErrBadToken, got %v", err)
	}
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	refresh, err := svc.Codec().Generate(user.Key, user.Email, security.TokenRefresh, time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	users.deactivate(user.Key)

	_, err = svc.Refresh(ctx, refresh)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("refresh for deactivated user: want ErrUserNotFound, got %v", err)
	}
}

func TestRefresh_Expired(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	refresh, err := svc.Codec().Generate(user.Key, user.Email, security.TokenRefresh, -time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	_, err = svc.Refresh(ctx, refresh)
	if !errors.Is(err, security.ErrTokenExpired) {
		t.Errorf("expired refresh: want ErrTokenExpired, got %v", err)
	}
}

func TestIdentify(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	access, err := svc.Codec().Generate(7, "user@example.com", security.TokenAccess, time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	user, err := svc.Identify(ctx, access)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if user.Key != 7 || user.Email != "user@example.com" {
		t.Errorf("Identify: got key=%d email=%q", user.Key, user.Email)
	}
}

func TestIdentify_BadToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Identify(context.Background(), "garbage")
	if !errors.Is(err, security.ErrBadToken) {
		t.Errorf("garbage token: want ErrBadToken, got %v", err)
	}
}

func TestStartSessionAndIdentifyBySession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.StartSession(ctx, user)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.Key == "" || sess.UserKey != user.Key {
		t.Fatalf("StartSession: got key=%q user=%d", sess.Key, sess.UserKey)
	}
	if !sess.Expires.After(time.Now()) {
		t.Error("session should expire in the future")
	}

	got, err := svc.IdentifyBySession(ctx, sess.Key)
	if err != nil {
		t.Fatalf("IdentifyBySession: %v", err)
	}
	if got.Key != user.Key {
		t.Errorf("IdentifyBySession: got key %d, want %d", got.Key, user.Key)
	}
}

func TestIdentifyBySession_Unknown(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.IdentifyBySession(context.Background(), "no-such-session")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("unknown session: want ErrForbidden, got %v", err)
	}
}

func TestIdentifyBySession_DeactivatedUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.StartSession(ctx, user)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	users.deactivate(user.Key)

	_, err = svc.IdentifyBySession(ctx, sess.Key)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("session for deactivated user: want ErrForbidden, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := svc.StartSession(ctx, user)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if err := svc.Logout(ctx, sess.Key); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.IdentifyBySession(ctx, sess.Key); !errors.Is(err, ErrForbidden) {
		t.Errorf("session after logout: want ErrForbidden, got %v", err)
	}
	// Logging out twice is a no-op.
	if err := svc.Logout(ctx, sess.Key); err != nil {
		t.Errorf("repeat Logout: %v", err)
	}
}

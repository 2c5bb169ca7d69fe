// Package service implements the authentication flows: registration, login,
// token refresh, and identity checks. All state lives in the stores; the
// service itself holds only fixed dependencies and is safe for concurrent use.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/clayman083/passport/internal/security"
	sessiondomain "github.com/clayman083/passport/internal/session/domain"
	sessionrepo "github.com/clayman083/passport/internal/session/repository"
	userdomain "github.com/clayman083/passport/internal/user/domain"
	userrepo "github.com/clayman083/passport/internal/user/repository"
)

// Sentinel errors for auth flows; handlers map them to HTTP statuses.
var (
	// ErrEmailAlreadyRegistered means the email is already in use (422/409).
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrUserNotFound means no matching active user (404). Inactive users are
	// reported the same way so account state never leaks to an
	// unauthenticated caller.
	ErrUserNotFound = errors.New("user not found")
	// ErrForbidden means credentials were present but invalid (403).
	ErrForbidden = errors.New("forbidden")
)

// AuthService orchestrates registration, login, refresh, and identity checks
// over the credential and session stores. Issuing tokens versus creating a
// session is a per-endpoint policy choice made by the caller, not here.
type AuthService struct {
	users      userrepo.Repository
	sessions   sessionrepo.Repository
	hasher     *security.Hasher
	codec      *security.Codec
	sessionTTL time.Duration
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	users userrepo.Repository,
	sessions sessionrepo.Repository,
	hasher *security.Hasher,
	codec *security.Codec,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		codec:      codec,
		sessionTTL: sessionTTL,
	}
}

// Codec exposes the token codec for callers that mint tokens after a
// successful login or refresh.
func (s *AuthService) Codec() *security.Codec {
	return s.codec
}

// Register creates a user with the given email and password. The plaintext
// password is discarded right after hashing; it is never stored or returned.
// The in-service exists check is advisory: the storage-level uniqueness
// constraint is what decides a race between concurrent registrations, and a
// losing insert comes back as ErrEmailAlreadyRegistered too.
func (s *AuthService) Register(ctx context.Context, email, password string) (*userdomain.User, error) {
	exists, err := s.users.Exists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user := &userdomain.User{
		Email:        email,
		PasswordHash: hashed,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrEmailTaken) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return user, nil
}

// Login verifies the email/password pair and returns the user. Unknown and
// inactive emails both yield ErrUserNotFound; a wrong password for an
// existing user yields ErrForbidden. On success the last-login timestamp is
// updated best effort.
func (s *AuthService) Login(ctx context.Context, email, password string) (*userdomain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrForbidden
	}
	now := time.Now().UTC()
	_ = s.users.UpdateLastLogin(ctx, user.Key, now)
	user.LastLogin = &now
	return user, nil
}

// Refresh validates the refresh token and re-fetches the user so a newly
// issued access token reflects current account state: deactivation since the
// refresh token was minted is honored even though the token itself is valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*userdomain.User, error) {
	ident, err := s.codec.Decode(refreshToken, security.TokenRefresh)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByKey(ctx, ident.Key)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Identify validates an access token and returns the claim-derived user stub.
// Only key and email are restorable from a token; every other field is zero.
func (s *AuthService) Identify(ctx context.Context, accessToken string) (*userdomain.User, error) {
	ident, err := s.codec.Decode(accessToken, security.TokenAccess)
	if err != nil {
		return nil, err
	}
	return &userdomain.User{Key: ident.Key, Email: ident.Email}, nil
}

// IdentifyBySession resolves a session key to its user. A missing or expired
// session, or a user that has gone missing or inactive since login, yields
// ErrForbidden.
func (s *AuthService) IdentifyBySession(ctx context.Context, sessionKey string) (*userdomain.User, error) {
	userKey, err := s.sessions.Fetch(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if userKey == 0 {
		return nil, ErrForbidden
	}
	user, err := s.users.GetByKey(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrForbidden
	}
	return user, nil
}

// StartSession creates a server-side session for the user and returns it.
// Session keys come from a 256-bit random space, so no uniqueness check is
// needed before insert.
func (s *AuthService) StartSession(ctx context.Context, user *userdomain.User) (*sessiondomain.Session, error) {
	key, err := security.NewSessionKey()
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		Key:     key,
		UserKey: user.Key,
		Expires: time.Now().UTC().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout deletes the session. Unknown keys are a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	return s.sessions.Delete(ctx, sessionKey)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clayman083/passport/internal/user/domain"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implements Repository on PostgreSQL.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository returns a user repository backed by db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password, is_active, is_superuser, last_login`

// GetByKey returns the active user for key, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByKey(ctx context.Context, key int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = TRUE`, key)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by key: %w", err)
	}
	if err := r.loadPermissions(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail returns the active user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active = TRUE`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if err := r.loadPermissions(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Exists reports whether any user, active or inactive, holds the email.
func (r *PostgresRepository) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(id) FROM users WHERE email = $1`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return count > 0, nil
}

// Create inserts the user; the store assigns the key. A unique-violation on
// users.email comes back as ErrEmailTaken so a losing concurrent insert fails
// atomically instead of producing a duplicate.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (email, password, is_active, is_superuser, created_on)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		u.Email, u.PasswordHash, u.IsActive, u.IsSuperuser, time.Now().UTC(),
	).Scan(&u.Key)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdateLastLogin records the time of a successful login.
func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, key int64, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_login = $2 WHERE id = $1`, key, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

func (r *PostgresRepository) loadPermissions(ctx context.Context, u *domain.User) error {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.name, p.enabled
		 FROM permissions p
		 JOIN user_permissions up ON up.permission_id = p.id
		 WHERE up.user_id = $1
		 ORDER BY p.id`, u.Key)
	if err != nil {
		return fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.Key, &p.Name, &p.Enabled); err != nil {
			return fmt.Errorf("scan permission: %w", err)
		}
		u.Permissions = append(u.Permissions, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate permissions: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.Key, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsSuperuser, &u.LastLogin); err != nil {
		return nil, err
	}
	return &u, nil
}

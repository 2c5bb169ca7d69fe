package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clayman083/passport/internal/session/domain"
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

// NewPostgresRepository returns a session repository backed by db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Fetch returns the user key for the session, or 0 when the session is
// missing or expired. Expired rows are deleted on lookup, best effort.
func (r *PostgresRepository) Fetch(ctx context.Context, key string) (int64, error) {
	var userKey int64
	var expires time.Time
	err := r.db.QueryRow(ctx,
		`SELECT "user", expires FROM sessions WHERE key = $1`, key).Scan(&userKey, &expires)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("fetch session: %w", err)
	}
	if !expires.After(time.Now().UTC()) {
		_, _ = r.db.Exec(ctx, `DELETE FROM sessions WHERE key = $1`, key)
		return 0, nil
	}
	return userKey, nil
}

// Create persists the session.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (key, "user", expires) VALUES ($1, $2, $3)`,
		s.Key, s.UserKey, s.Expires)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Delete removes the session. Deleting an absent key is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

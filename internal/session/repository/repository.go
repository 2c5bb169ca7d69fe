// Package repository persists sessions. It is the Session Store adapter the
// auth service talks through.
package repository

import (
	"context"

	"github.com/clayman083/passport/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	// Fetch returns the user key bound to the session, or 0 when the session
	// is missing or past its expiry. Expired rows may be lazily deleted.
	Fetch(ctx context.Context, key string) (int64, error)
	// Create persists the session.
	Create(ctx context.Context, s *domain.Session) error
	// Delete removes the session; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Package repository persists users. It is the Credential Store adapter the
// auth service talks through; swapping the Postgres implementation for an
// in-memory fake is how the service is unit tested.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/clayman083/passport/internal/user/domain"
)

// ErrEmailTaken is returned by Create when the email uniqueness constraint
// rejects the insert. The storage-level constraint, not the in-service exists
// check, is what makes concurrent registrations with the same email safe.
var ErrEmailTaken = errors.New("email already taken")

// Repository defines persistence for users.
type Repository interface {
	// GetByKey returns the active user with the given key, or nil if there is
	// no such user or the user is inactive.
	GetByKey(ctx context.Context, key int64) (*domain.User, error)
	// GetByEmail returns the active user with the given email, or nil if there
	// is no such user or the user is inactive.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Exists reports whether any user, active or not, holds the email.
	Exists(ctx context.Context, email string) (bool, error)
	// Create inserts the user and assigns its Key. Returns ErrEmailTaken when
	// the email is already registered.
	Create(ctx context.Context, u *domain.User) error
	// UpdateLastLogin records the time of a successful login.
	UpdateLastLogin(ctx context.Context, key int64, at time.Time) error
}

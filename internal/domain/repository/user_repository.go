package repository

import (
	"context"
	"errors"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint (email, username)
	// rejects a write. The database constraint is the source of truth; any
	// pre-check in the flows is a fast-path optimization only.
	ErrDuplicate = errors.New("duplicate value")
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// Update persists profile fields (username, password hash, bio, avatar,
	// full name).
	Update(ctx context.Context, u *entity.User) error
	// UpdateAuthState persists only auxiliary auth fields (verification token
	// and expiry, verified flag, 2FA secret/flag, current refresh token)
	// without touching profile data.
	UpdateAuthState(ctx context.Context, u *entity.User) error
}

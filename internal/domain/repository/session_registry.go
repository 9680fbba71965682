package repository

import (
	"context"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
)

// SessionRegistry tracks one record per logged-in device per user. Records are
// immutable once created and expire 30 days after creation; implementations
// must treat expired records as absent on every read even before reaping.
type SessionRegistry interface {
	Create(ctx context.Context, userID string, device entity.Device, refreshToken string) (*entity.Session, error)
	GetByID(ctx context.Context, sessionID string) (*entity.Session, error)
	FindByUserAndRefreshToken(ctx context.Context, userID, refreshToken string) (*entity.Session, error)
	// ListByUser returns the user's live sessions with refresh tokens blanked.
	ListByUser(ctx context.Context, userID string) ([]entity.Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteAllForUser(ctx context.Context, userID string) error
}

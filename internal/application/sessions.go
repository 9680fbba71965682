package application

import (
	"context"
	"errors"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
)

// ListSessions returns the caller's active device sessions with refresh
// tokens excluded.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]entity.Session, *FlowError) {
	sessions, err := s.Sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, internalErr("session listing failed", err)
	}
	return sessions, nil
}

// RemoveSession deletes one device session after verifying ownership. A
// session owned by another user is reported as not found, never as forbidden,
// to avoid leaking session existence.
func (s *Service) RemoveSession(ctx context.Context, userID, sessionID string) *FlowError {
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return flowErr(KindNotFound, "device not found")
		}
		return internalErr("session lookup failed", err)
	}
	if sess.UserID != userID {
		return flowErr(KindNotFound, "device not found")
	}
	if err := s.Sessions.Delete(ctx, sessionID); err != nil {
		return internalErr("session deletion failed", err)
	}
	return nil
}

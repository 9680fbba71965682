package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
	"github.com/radityabs/huddle-backend/pkg/helpers"
)

// SessionRegistry keeps one JSON record per device session under
// session:{id} with the session TTL, plus a user:sessions:{userID} set as the
// per-user index. Redis expiry reaps the records; the set index is pruned
// lazily on reads and by the Sweeper.
type SessionRegistry struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRegistry(rdb *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string    { return "session:" + id }
func userIndexKey(uid string) string { return "user:sessions:" + uid }

func (r *SessionRegistry) Create(ctx context.Context, userID string, device entity.Device, refreshToken string) (*entity.Session, error) {
	now := time.Now().UTC()
	s := &entity.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		Device:       device,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(r.ttl),
	}
	if err := helpers.RedisSetJSON(ctx, r.rdb, sessionKey(s.ID), s, r.ttl); err != nil {
		return nil, err
	}
	if err := r.rdb.SAdd(ctx, userIndexKey(userID), s.ID).Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID returns the session or repository.ErrNotFound. A record past its
// ExpiresAt is reported as not found even if redis has not reaped it yet.
func (r *SessionRegistry) GetByID(ctx context.Context, sessionID string) (*entity.Session, error) {
	var s entity.Session
	ok, err := helpers.RedisGetJSON(ctx, r.rdb, sessionKey(sessionID), &s)
	if err != nil {
		return nil, err
	}
	if !ok || s.Expired(time.Now()) {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *SessionRegistry) FindByUserAndRefreshToken(ctx context.Context, userID, refreshToken string) (*entity.Session, error) {
	sessions, err := r.liveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].RefreshToken == refreshToken {
			return &sessions[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SessionRegistry) ListByUser(ctx context.Context, userID string) ([]entity.Session, error) {
	sessions, err := r.liveSessions(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.Session, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].Sanitized())
	}
	return out, nil
}

func (r *SessionRegistry) Delete(ctx context.Context, sessionID string) error {
	var s entity.Session
	ok, err := helpers.RedisGetJSON(ctx, r.rdb, sessionKey(sessionID), &s)
	if err != nil {
		return err
	}
	if ok {
		if err := r.rdb.SRem(ctx, userIndexKey(s.UserID), sessionID).Err(); err != nil {
			return err
		}
	}
	return r.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (r *SessionRegistry) DeleteAllForUser(ctx context.Context, userID string) error {
	ids, err := r.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	for _, id := range ids {
		if err := r.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
			return err
		}
	}
	return r.rdb.Del(ctx, userIndexKey(userID)).Err()
}

// liveSessions loads the user's sessions, dropping and pruning entries whose
// record is gone or past its TTL.
func (r *SessionRegistry) liveSessions(ctx context.Context, userID string) ([]entity.Session, error) {
	ids, err := r.rdb.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	now := time.Now()
	out := make([]entity.Session, 0, len(ids))
	for _, id := range ids {
		var s entity.Session
		ok, err := helpers.RedisGetJSON(ctx, r.rdb, sessionKey(id), &s)
		if err != nil {
			return nil, err
		}
		if !ok || s.Expired(now) {
			_ = r.rdb.SRem(ctx, userIndexKey(userID), id).Err()
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

var _ repository.SessionRegistry = (*SessionRegistry)(nil)

package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Sweeper prunes user session indexes whose session records were already
// reaped by redis expiry. Housekeeping only: request-path reads never wait on
// it because lookups drop dead entries themselves.
type Sweeper struct {
	rdb      *redis.Client
	logger   *logrus.Logger
	interval time.Duration
}

func NewSweeper(rdb *redis.Client, logger *logrus.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{rdb: rdb, logger: logger, interval: interval}
}

// Run blocks until ctx is done, sweeping once per interval. Call in its own
// goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil && s.logger != nil {
				s.logger.WithError(err).Warn("session sweep failed")
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, "user:sessions:*", 100).Result()
		if err != nil {
			return err
		}
		for _, indexKey := range keys {
			ids, err := s.rdb.SMembers(ctx, indexKey).Result()
			if err != nil {
				return err
			}
			for _, id := range ids {
				exists, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
				if err != nil {
					return err
				}
				if exists == 0 {
					if err := s.rdb.SRem(ctx, indexKey, id).Err(); err != nil {
						return err
					}
					removed++
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if removed > 0 && s.logger != nil {
		s.logger.WithField("removed", removed).Debug("session sweep pruned stale index entries")
	}
	return nil
}

package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/radityabs/huddle-backend/internal/domain/entity"
	"github.com/radityabs/huddle-backend/internal/domain/repository"
)

func newTestRegistry(t *testing.T) (*SessionRegistry, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionRegistry(rdb, 30*24*time.Hour), mr, rdb
}

func testDevice() entity.Device {
	return entity.Device{IP: "203.0.113.7", UserAgent: "Mozilla/5.0", Fingerprint: "fp-1"}
}

func TestSessionRegistry_CreateAndGet(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	s, err := reg.Create(ctx, "u1", testDevice(), "refresh-1")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)
	require.Equal(t, "u1", s.UserID)
	require.True(t, s.ExpiresAt.After(s.CreatedAt))

	got, err := reg.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, "refresh-1", got.RefreshToken)
	require.Equal(t, testDevice(), got.Device)
}

func TestSessionRegistry_GetByID_Missing(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRegistry_FindByUserAndRefreshToken(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	a, err := reg.Create(ctx, "u1", testDevice(), "refresh-a")
	require.NoError(t, err)
	_, err = reg.Create(ctx, "u1", testDevice(), "refresh-b")
	require.NoError(t, err)

	got, err := reg.FindByUserAndRefreshToken(ctx, "u1", "refresh-a")
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	_, err = reg.FindByUserAndRefreshToken(ctx, "u1", "refresh-c")
	require.ErrorIs(t, err, repository.ErrNotFound)

	// Another user's token does not match.
	_, err = reg.FindByUserAndRefreshToken(ctx, "u2", "refresh-a")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRegistry_ListByUser_BlanksTokens(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Create(ctx, "u1", testDevice(), "refresh-a")
	require.NoError(t, err)
	_, err = reg.Create(ctx, "u1", testDevice(), "refresh-b")
	require.NoError(t, err)

	list, err := reg.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		require.Empty(t, s.RefreshToken)
		require.NotEmpty(t, s.Device.Fingerprint)
	}
}

func TestSessionRegistry_LazyExpiry(t *testing.T) {
	reg, mr, rdb := newTestRegistry(t)
	ctx := context.Background()

	s, err := reg.Create(ctx, "u1", testDevice(), "refresh-a")
	require.NoError(t, err)

	// Redis reaps the record but the index entry survives.
	mr.FastForward(31 * 24 * time.Hour)

	_, err = reg.GetByID(ctx, s.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := reg.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)

	// The dead index entry was pruned by the read.
	members, err := rdb.SMembers(ctx, userIndexKey("u1")).Result()
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestSessionRegistry_Delete(t *testing.T) {
	reg, _, rdb := newTestRegistry(t)
	ctx := context.Background()

	s, err := reg.Create(ctx, "u1", testDevice(), "refresh-a")
	require.NoError(t, err)

	require.NoError(t, reg.Delete(ctx, s.ID))
	_, err = reg.GetByID(ctx, s.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	members, err := rdb.SMembers(ctx, userIndexKey("u1")).Result()
	require.NoError(t, err)
	require.Empty(t, members)

	// Deleting again is a no-op.
	require.NoError(t, reg.Delete(ctx, s.ID))
}

func TestSessionRegistry_DeleteAllForUser(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	_, err := reg.Create(ctx, "u1", testDevice(), "refresh-a")
	require.NoError(t, err)
	_, err = reg.Create(ctx, "u1", testDevice(), "refresh-b")
	require.NoError(t, err)
	keep, err := reg.Create(ctx, "u2", testDevice(), "refresh-c")
	require.NoError(t, err)

	require.NoError(t, reg.DeleteAllForUser(ctx, "u1"))

	list, err := reg.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, list)

	// Other users are untouched.
	_, err = reg.GetByID(ctx, keep.ID)
	require.NoError(t, err)
}

func TestSweeper_PrunesDanglingIndexEntries(t *testing.T) {
	reg, mr, rdb := newTestRegistry(t)
	ctx := context.Background()

	s, err := reg.Create(ctx, "u1", testDevice(), "refresh-a")
	require.NoError(t, err)

	mr.FastForward(31 * 24 * time.Hour)

	sw := NewSweeper(rdb, nil, time.Hour)
	require.NoError(t, sw.sweep(ctx))

	members, err := rdb.SMembers(ctx, userIndexKey("u1")).Result()
	require.NoError(t, err)
	require.NotContains(t, members, s.ID)
}

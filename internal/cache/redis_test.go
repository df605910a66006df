package cache

import (
	"context"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"
	"github.com/irakliskhirtladze/Library-management-system/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAvailabilityCache(t *testing.T) {
	addr := testutil.SetupTestRedis(t)
	ctx := context.Background()

	rdb, err := NewRedisClient(ctx, addr, "", 0, zap.NewNop())
	require.NoError(t, err)

	c := NewAvailabilityCache(rdb, time.Minute, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	book := uuid.New()

	_, ok, err := c.GetAvailable(ctx, book)
	require.NoError(t, err)
	assert.False(t, ok, "miss on empty cache")

	require.NoError(t, c.SetAvailable(ctx, book, 4))
	n, ok, err := c.GetAvailable(ctx, book)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), n)

	ttl, err := rdb.TTL(ctx, key(book)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	c.Handle(ctx, events.AvailabilityChanged{BookID: book, Released: false})
	_, ok, err = c.GetAvailable(ctx, book)
	require.NoError(t, err)
	assert.False(t, ok, "any availability change drops the entry")
}

func TestNewRedisClientFailsFast(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	_, err := NewRedisClient(context.Background(), "127.0.0.1:1", "", 0, zap.NewNop())
	assert.Error(t, err)
}

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"
	"github.com/irakliskhirtladze/Library-management-system/internal/service"
	"github.com/irakliskhirtladze/Library-management-system/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCache struct {
	mu   sync.Mutex
	vals map[uuid.UUID]int64
	hits int
}

func (c *memCache) GetAvailable(_ context.Context, id uuid.UUID) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, ok := c.vals[id]
	if ok {
		c.hits++
	}
	return n, ok, nil
}

func (c *memCache) SetAvailable(_ context.Context, id uuid.UUID, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[id] = n
	return nil
}

func (c *memCache) handle(_ context.Context, ev events.AvailabilityChanged) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.vals, ev.BookID)
}

func TestAvailableCopiesReadsThroughCache(t *testing.T) {
	repo := repository.New(testutil.SetupTestSQLite(t))
	mc := &memCache{vals: map[uuid.UUID]int64{}}

	bus := events.NewBus(zap.NewNop())
	bus.Subscribe("cache", mc.handle)

	svc := service.NewCirculationService(repo, bus, zap.NewNop(), service.DefaultConfig(),
		service.WithCache(mc),
		service.WithClock(func() time.Time { return t0 }),
	)
	lib := service.WithActor(context.Background(), uuid.New(), service.RoleLibrarian)

	book, err := svc.AddBook(lib, "Cached", 2)
	require.NoError(t, err)

	n, err := svc.AvailableCopies(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := svc.IsAvailable(context.Background(), book.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, mc.hits)

	_, err = svc.Reserve(reader(uuid.New()), book.ID)
	require.NoError(t, err)

	n, err = svc.AvailableCopies(context.Background(), book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "reservation invalidated the cached value")
}

package main

import (
	"context"
	"testing"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/cache"
	"github.com/irakliskhirtladze/Library-management-system/internal/housekeeping"
	"github.com/irakliskhirtladze/Library-management-system/internal/notifier"
	"github.com/irakliskhirtladze/Library-management-system/internal/repository"
	"github.com/irakliskhirtladze/Library-management-system/internal/service"
	"github.com/irakliskhirtladze/Library-management-system/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExpireInvalidatesAvailabilityCache(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	rdb, err := cache.NewRedisClient(ctx, testutil.SetupTestRedis(t), "", 0, log)
	require.NoError(t, err)
	availability := cache.NewAvailabilityCache(rdb, time.Hour, log)
	t.Cleanup(func() { _ = availability.Close() })

	repos := repository.New(testutil.SetupTestSQLite(t))
	sender := notifier.NewLogSender(log)
	bus := newBus(log, repos, sender, availability)

	// сервис с кэшем наполняет его, одноразовый запуск должен сбросить
	circ := service.NewCirculationService(repos, bus, log, service.DefaultConfig(), service.WithCache(availability))
	jobs := housekeeping.NewJobs(circ, sender, log)

	lib := service.WithActor(ctx, uuid.New(), service.RoleLibrarian)
	book, err := circ.AddBook(lib, "Cached", 1)
	require.NoError(t, err)
	_, err = circ.Reserve(service.WithActor(ctx, uuid.New(), service.RoleReader), book.ID)
	require.NoError(t, err)

	n, err := circ.AvailableCopies(ctx, book.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)
	_, cached, err := availability.GetAvailable(ctx, book.ID)
	require.NoError(t, err)
	require.True(t, cached)

	expired, err := jobs.ExpireReservations(ctx, time.Now().Add(25*time.Hour))
	require.NoError(t, err)
	require.Equal(t, int64(1), expired)

	_, cached, err = availability.GetAvailable(ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, cached, "expiry must drop the cached count")

	n, err = circ.AvailableCopies(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

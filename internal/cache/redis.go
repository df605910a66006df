package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "circulation:available:"

// AvailabilityCache хранит число свободных экземпляров для отображения.
// Ключ сбрасывается на каждое AvailabilityChanged, TTL ограничивает
// устаревание, если событие потерялось.
type AvailabilityCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisClient(ctx context.Context, addr, password string, db int, log *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", addr))
	return rdb, nil
}

func NewAvailabilityCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *AvailabilityCache {
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func key(bookID uuid.UUID) string {
	return keyPrefix + bookID.String()
}

func (c *AvailabilityCache) GetAvailable(ctx context.Context, bookID uuid.UUID) (int64, bool, error) {
	v, err := c.client.Get(ctx, key(bookID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad cached value %q: %w", v, err)
	}
	return n, true, nil
}

func (c *AvailabilityCache) SetAvailable(ctx context.Context, bookID uuid.UUID, n int64) error {
	return c.client.Set(ctx, key(bookID), n, c.ttl).Err()
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, bookID uuid.UUID) error {
	return c.client.Del(ctx, key(bookID)).Err()
}

// Handle: подписчик шины событий.
func (c *AvailabilityCache) Handle(ctx context.Context, ev events.AvailabilityChanged) {
	if err := c.Invalidate(ctx, ev.BookID); err != nil {
		c.log.Warn("availability cache invalidate failed", zap.String("book_id", ev.BookID.String()), zap.Error(err))
	}
}

func (c *AvailabilityCache) Close() error {
	return c.client.Close()
}

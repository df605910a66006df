package service

import (
	"context"

	"github.com/irakliskhirtladze/Library-management-system/internal/events"

	"github.com/google/uuid"
)

type EventPublisher interface {
	Publish(ctx context.Context, ev events.AvailabilityChanged)
}

// AvailabilityCache: кэш для отображения. Решения о брони и выдаче
// никогда не читают из него.
type AvailabilityCache interface {
	GetAvailable(ctx context.Context, bookID uuid.UUID) (int64, bool, error)
	SetAvailable(ctx context.Context, bookID uuid.UUID, n int64) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.AvailabilityChanged) {}

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityChanged публикуется после commit любой операции, меняющей
// число свободных экземпляров книги. Released=true, если экземпляры могли
// освободиться (отмена, истечение брони, возврат).
type AvailabilityChanged struct {
	BookID   uuid.UUID
	Released bool
	At       time.Time
}

type Handler func(ctx context.Context, ev AvailabilityChanged)

// Bus: синхронная in-process шина. Обработчики вызываются по порядку
// подписки, паника одного не мешает остальным.
type Bus struct {
	mu       sync.RWMutex
	handlers []namedHandler
	log      *zap.Logger
}

type namedHandler struct {
	name string
	fn   Handler
}

func NewBus(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, namedHandler{name: name, fn: h})
}

func (b *Bus) Publish(ctx context.Context, ev AvailabilityChanged) {
	b.mu.RLock()
	hs := make([]namedHandler, len(b.handlers))
	copy(hs, b.handlers)
	b.mu.RUnlock()

	for _, h := range hs {
		b.dispatch(ctx, h, ev)
	}
}

func (b *Bus) dispatch(ctx context.Context, h namedHandler, ev AvailabilityChanged) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("handler", h.name),
				zap.String("book_id", ev.BookID.String()),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	h.fn(ctx, ev)
}

package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var order []string
	bus.Subscribe("first", func(context.Context, AvailabilityChanged) { order = append(order, "first") })
	bus.Subscribe("second", func(context.Context, AvailabilityChanged) { order = append(order, "second") })

	bus.Publish(context.Background(), AvailabilityChanged{BookID: uuid.New(), Released: true})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewBus(zap.NewNop())

	called := false
	bus.Subscribe("broken", func(context.Context, AvailabilityChanged) { panic("boom") })
	bus.Subscribe("healthy", func(context.Context, AvailabilityChanged) { called = true })

	bus.Publish(context.Background(), AvailabilityChanged{BookID: uuid.New()})

	if !called {
		t.Fatal("handler after a panicking one was not called")
	}
}

func TestBusPassesEvent(t *testing.T) {
	bus := NewBus(nil)
	id := uuid.New()

	var got AvailabilityChanged
	bus.Subscribe("rec", func(_ context.Context, ev AvailabilityChanged) { got = ev })
	bus.Publish(context.Background(), AvailabilityChanged{BookID: id, Released: true})

	if got.BookID != id || !got.Released {
		t.Fatalf("got %+v", got)
	}
}

package capture

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/loopback/internal/shared"
)

func TestSubscriptions(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("every subscriber receives every event", func(t *testing.T) {
		registry := NewRegistry(logger)
		defer registry.Shutdown(context.Background())

		first := registry.Subscribe(0)
		defer first.Cancel()
		second := registry.Subscribe(0)
		defer second.Cancel()

		port, err := registry.Start(Config{})
		if err != nil {
			t.Fatal(err)
		}

		get(t, port, "/?code=abc")

		for _, sub := range []*Subscription{first, second} {
			ev := waitEvent(t, sub)
			if ev.Kind != EventCaptured {
				t.Errorf("expected EventCaptured for subscriber %s, got %v", sub.ID(), ev.Kind)
			}
		}
	})

	t.Run("canceling one subscription leaves others delivering", func(t *testing.T) {
		registry := NewRegistry(logger)
		defer registry.Shutdown(context.Background())

		canceled := registry.Subscribe(0)
		kept := registry.Subscribe(0)
		defer kept.Cancel()

		canceled.Cancel()

		port, err := registry.Start(Config{})
		if err != nil {
			t.Fatal(err)
		}
		get(t, port, "/?code=abc")

		if ev := waitEvent(t, kept); ev.Kind != EventCaptured {
			t.Errorf("expected EventCaptured, got %v", ev.Kind)
		}

		select {
		case _, ok := <-canceled.Events():
			if ok {
				t.Error("expected no delivery to a canceled subscription")
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("expected the canceled subscription's channel to be closed")
		}
	})

	t.Run("cancel is safe to repeat", func(t *testing.T) {
		registry := NewRegistry(logger)
		defer registry.Shutdown(context.Background())

		sub := registry.Subscribe(0)
		sub.Cancel()
		sub.Cancel()
	})

	t.Run("distinct subscriptions get distinct handles", func(t *testing.T) {
		registry := NewRegistry(logger)
		defer registry.Shutdown(context.Background())

		first := registry.Subscribe(0)
		defer first.Cancel()
		second := registry.Subscribe(0)
		defer second.Cancel()

		if first.ID() == second.ID() {
			t.Errorf("expected unique subscription IDs, both were %s", first.ID())
		}
	})
}

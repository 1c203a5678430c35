// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package events

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var order []int
	for i := 1; i <= 3; i++ {
		bus.Subscribe(func(_ context.Context, _ models.ProjectUpdate) {
			order = append(order, i)
		})
	}

	bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

func TestPublishPassesNotification(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var got models.ProjectUpdate
	bus.Subscribe(func(_ context.Context, u models.ProjectUpdate) { got = u })

	want := models.ProjectUpdate{ProjectID: "p1", Kind: models.KindCamera, OriginUserID: "alice"}
	bus.Publish(context.Background(), want)

	if got != want {
		t.Errorf("handler got %+v, want %+v", got, want)
	}
}

func TestLateSubscriberSeesNothing(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})

	calls := 0
	bus.Subscribe(func(context.Context, models.ProjectUpdate) { calls++ })
	if calls != 0 {
		t.Errorf("late subscriber received %d replayed notifications", calls)
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	a, b := 0, 0
	unsubA := bus.Subscribe(func(context.Context, models.ProjectUpdate) { a++ })
	bus.Subscribe(func(context.Context, models.ProjectUpdate) { b++ })

	unsubA()
	unsubA()

	bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})

	if a != 0 || b != 1 {
		t.Errorf("a=%d b=%d, want a=0 b=1", a, b)
	}
	if bus.Len() != 1 {
		t.Errorf("Len() = %d, want 1", bus.Len())
	}
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	bus := NewBus()
	panics0 := testutil.ToFloat64(metrics.BusHandlerPanics)

	after := 0
	bus.Subscribe(func(context.Context, models.ProjectUpdate) { panic("boom") })
	bus.Subscribe(func(context.Context, models.ProjectUpdate) { after++ })

	bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindAnnotation})

	if after != 1 {
		t.Errorf("handler after the panicking one ran %d times, want 1", after)
	}
	if got := testutil.ToFloat64(metrics.BusHandlerPanics) - panics0; got != 1 {
		t.Errorf("panic counter delta = %v, want 1", got)
	}
}

func TestUnsubscribeDuringPublish(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	second := 0
	var unsub func()
	bus.Subscribe(func(context.Context, models.ProjectUpdate) { unsub() })
	unsub = bus.Subscribe(func(context.Context, models.ProjectUpdate) { second++ })

	bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})
	if second != 1 {
		t.Errorf("handler registered at publish time ran %d times, want 1", second)
	}

	bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})
	if second != 1 {
		t.Errorf("removed handler ran again")
	}
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(func(context.Context, models.ProjectUpdate) {
				mu.Lock()
				total++
				mu.Unlock()
			})
			unsub()
		}()
		go func() {
			defer wg.Done()
			bus.Publish(context.Background(), models.ProjectUpdate{ProjectID: "p", Kind: models.KindChat})
		}()
	}
	wg.Wait()

	if bus.Len() != 0 {
		t.Errorf("Len() = %d after all unsubscribed, want 0", bus.Len())
	}
}

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
)

// Handler receives one change notification.
type Handler func(ctx context.Context, update models.ProjectUpdate)

// Publisher is the publishing half of the bus.
type Publisher interface {
	Publish(ctx context.Context, update models.ProjectUpdate)
}

// Subscriber is the subscribing half of the bus.
type Subscriber interface {
	Subscribe(h Handler) (unsubscribe func())
}

type subscription struct {
	id uint64
	h  Handler
}

// Bus is a synchronous in-process dispatcher. The zero value is not usable;
// construct with NewBus.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers h and returns a function that removes it. The returned
// function is idempotent.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			// copy-on-write so in-progress publishes keep their snapshot
			next := make([]subscription, 0, len(b.subs)-1)
			next = append(next, b.subs[:i]...)
			next = append(next, b.subs[i+1:]...)
			b.subs = next
			return
		}
	}
}

// Len returns the number of registered handlers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers update to every handler registered at call time, in
// registration order. Handlers run on the caller's goroutine.
func (b *Bus) Publish(ctx context.Context, update models.ProjectUpdate) {
	b.mu.RLock()
	snapshot := b.subs
	b.mu.RUnlock()

	metrics.BusPublishes.WithLabelValues(string(update.Kind)).Inc()

	for _, s := range snapshot {
		b.deliver(ctx, s, update)
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, update models.ProjectUpdate) {
	defer func() {
		if r := recover(); r != nil {
			metrics.BusHandlerPanics.Inc()
			logging.Ctx(ctx).Error().
				Str("project_id", update.ProjectID).
				Str("kind", string(update.Kind)).
				Uint64("subscription", s.id).
				Str("panic", fmt.Sprint(r)).
				Msg("Event bus handler panicked")
		}
	}()
	s.h(ctx, update)
}

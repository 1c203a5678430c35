// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package services

import (
	"context"
	"time"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
)

// ValueLogCollector is satisfied by *store.BadgerStore.
type ValueLogCollector interface {
	RunGC(discardRatio float64) error
}

// ValueLogGCService periodically reclaims badger value-log space. Model
// uploads replace large values, so the log grows without it.
type ValueLogGCService struct {
	store        ValueLogCollector
	interval     time.Duration
	discardRatio float64
}

// NewValueLogGCService creates the GC loop. Non-positive arguments fall
// back to 10 minutes and 0.5.
func NewValueLogGCService(store ValueLogCollector, interval time.Duration, discardRatio float64) *ValueLogGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &ValueLogGCService{store: store, interval: interval, discardRatio: discardRatio}
}

// Serve implements suture.Service. A GC error is logged and counted but
// does not crash the service; the next tick retries.
func (s *ValueLogGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			err := s.store.RunGC(s.discardRatio)
			metrics.RecordStoreOp("badger", "value_log_gc", time.Since(start), err)
			if err != nil {
				logging.Warn().Err(err).Msg("Value log GC failed")
				continue
			}
			logging.Debug().Dur("took", time.Since(start)).Msg("Value log GC complete")
		}
	}
}

func (s *ValueLogGCService) String() string {
	return "badger-value-log-gc"
}

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package pipeline

import (
	"context"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
)

// fieldChannel debounces one continuous-edit field. V is the edit value,
// S the stored field value used for rollback. Batch state is guarded by
// the owning Editor's mu.
type fieldChannel[V, S any] struct {
	field string
	deb   *Debouncer

	batching bool
	pending  V
	snapshot S

	merge   func(prev, next V) V
	reduce  func(*models.Project, V) *models.Project
	read    func(*models.Project) S
	restore func(*models.Project, S) *models.Project
	send    func(ctx context.Context, projectID, userID string, v V) (bool, error)
}

// push applies v optimistically and restarts the quiet period.
func (ch *fieldChannel[V, S]) push(e *Editor, v V) error {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return ErrNoDocument
	}
	if !ch.batching {
		ch.snapshot = ch.read(e.doc)
		ch.pending = v
		ch.batching = true
	} else {
		ch.pending = ch.merge(ch.pending, v)
	}
	e.doc = ch.reduce(e.doc, v)
	doc := e.doc
	e.mu.Unlock()

	if ch.deb.Trigger() {
		metrics.PipelineCoalesced.WithLabelValues(ch.field).Inc()
	}
	e.changed(doc)
	return nil
}

// reapply re-lays a not-yet-sent value over a freshly fetched document.
// Callers hold e.mu.
func (ch *fieldChannel[V, S]) reapply(doc *models.Project) *models.Project {
	if !ch.batching {
		return doc
	}
	return ch.reduce(doc, ch.pending)
}

// flush is the debouncer callback: it sends the batch's latest value.
func (ch *fieldChannel[V, S]) flush(e *Editor) {
	e.mu.Lock()
	if !ch.batching {
		e.mu.Unlock()
		return
	}
	v, snap := ch.pending, ch.snapshot
	var zero V
	ch.pending, ch.batching = zero, false
	userID := e.userID
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(e.ctx, e.writeTimeout)
	defer cancel()

	_, err := ch.send(ctx, e.projectID, userID, v)
	metrics.RecordPipelineWrite(ch.field, err)
	if err != nil {
		e.mu.Lock()
		var doc *models.Project
		if ch.batching {
			// A newer batch already moved the field; its baseline becomes
			// the last value the server is known to hold.
			ch.snapshot = snap
		} else if e.doc != nil {
			e.doc = ch.restore(e.doc, snap)
			doc = e.doc
		}
		e.mu.Unlock()

		logging.Warn().Err(err).Str("project_id", e.projectID).Str("field", ch.field).Msg("Continuous edit failed, rolled back")
		if doc != nil {
			e.changed(doc)
		}
		e.fail(ch.field, err)
	}

	e.settle()
}

func (ch *fieldChannel[V, S]) stop() {
	ch.deb.Stop()
}

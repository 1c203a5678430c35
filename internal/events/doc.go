// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package events is the in-process publish/subscribe seam between the
// project service (publisher) and the session gateway (subscriber).
//
// Publish delivers synchronously to the handlers registered at the moment
// of the call, in registration order. There is no buffering, replay, or
// cross-process delivery. A handler that panics is recovered and logged and
// does not stop delivery to the handlers after it.
//
//	bus := events.NewBus()
//	unsubscribe := bus.Subscribe(hub.HandleProjectUpdate)
//	defer unsubscribe()
//
//	bus.Publish(ctx, models.ProjectUpdate{ProjectID: id, Kind: models.KindChat})
package events

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package pipeline is the client-side mutation pipeline: it keeps an
optimistic copy of one project document and turns local edits into RPC
writes.

# Edit classes

Continuous edits (camera pose, model transform) arrive once per drag or
orbit frame. Each one is applied to the local copy immediately and
restarts that field's quiet-period timer (500ms by default); only when
the timer fires is the latest value written, once. Camera and transform
are independent channels with their own timers. The value of the field
from before the first edit of a batch is kept; if the write fails the
field is restored to it. Either way the document is refetched when the
write settles.

Discrete edits (chat, annotation add/edit/delete) are written
immediately. The affected element is updated locally before the call
returns, reverted alone if the call fails, and the document is refetched
once the call settles.

All local state changes go through the pure reducers in reducers.go.

# Remote notifications

HandleUpdate matches client.UpdateHandler, so an Editor can be driven by
client.Follow: every projectUpdate for the edited project triggers a
refetch, and camera updates are passed to the OnCameraUpdate callback.

# Timing

Timers come from an AfterFunc, time.AfterFunc by default. Tests inject a
manual scheduler to drive quiet periods deterministically.
*/
package pipeline

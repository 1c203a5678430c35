// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package client

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/modelview/internal/models"
)

// UpdateHandler receives each notification for a followed project.
type UpdateHandler func(ctx context.Context, u models.ProjectUpdate)

// Follow joins projectID's room and calls onUpdate for every notification
// about that project until ctx is done or the socket closes. Notifications
// for other rooms the socket has joined are ignored. The room is left on
// return if the socket is still open.
func Follow(ctx context.Context, sock *Socket, projectID string, onUpdate UpdateHandler) error {
	if err := sock.Subscribe(ctx, projectID); err != nil {
		return err
	}
	defer func() {
		leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = sock.Unsubscribe(leaveCtx, projectID)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-sock.Updates():
			if !ok {
				if err := sock.Err(); err != nil && !errors.Is(err, ErrSocketClosed) {
					return err
				}
				return ErrSocketClosed
			}
			if u.ProjectID != projectID {
				continue
			}
			onUpdate(ctx, u)
		}
	}
}

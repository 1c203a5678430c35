// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package services

import "context"

// ContextHub matches (*websocket.Hub).RunWithContext without importing
// the websocket package.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService runs the room gateway's broadcast loop under supervision.
type HubService struct {
	hub ContextHub
}

func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

func (s *HubService) String() string {
	return "websocket-hub"
}

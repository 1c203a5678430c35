// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package api

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// HealthStatus is the body of the health endpoints.
type HealthStatus struct {
	Status  string            `json:"status"`
	Uptime  float64           `json:"uptime_seconds"`
	Clients int               `json:"websocket_clients"`
	Rooms   int               `json:"rooms"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthLive reports that the process is serving HTTP.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, HealthStatus{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady runs every readiness check and answers 503 if any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.ready))
	for name := range h.ready {
		names = append(names, name)
	}
	sort.Strings(names)

	status := HealthStatus{
		Status: "ready",
		Uptime: time.Since(h.startTime).Seconds(),
		Checks: make(map[string]string, len(names)),
	}
	if h.hub != nil {
		status.Clients = h.hub.ClientCount()
		status.Rooms = h.hub.RoomCount()
	}

	code := http.StatusOK
	for _, name := range names {
		if err := h.ready[name](ctx); err != nil {
			status.Checks[name] = err.Error()
			status.Status = "not_ready"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Checks[name] = "ok"
	}
	respondSuccess(w, r, code, status, start)
}

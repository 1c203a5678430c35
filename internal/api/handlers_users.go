// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CreateUser handles POST /users.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req CreateUserRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, u, start)
}

// GetUser handles GET /users/{userId}.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	u, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, u, start)
}

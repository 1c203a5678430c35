// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/modelview/internal/models"
)

// ListProjects handles GET /projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	list, err := h.svc.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, list, start)
}

// CreateProject handles POST /projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req CreateProjectRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	id, err := h.svc.Create(r.Context(), req.Title)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, models.CreateProjectResult{ProjectID: id}, start)
}

// GetProject handles GET /projects/{projectId}.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "projectId"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, p, start)
}

// UpdateTitle handles PUT /projects/{projectId}/title.
func (h *Handler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req UpdateTitleRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	changed, err := h.svc.UpdateTitle(r.Context(), chi.URLParam(r, "projectId"), callerID(r, req.UserID), req.Title)
	h.respondMutation(w, r, changed, err, start)
}

// UploadModel handles PUT /projects/{projectId}/model. The body is either
// raw STL bytes or JSON {"stlFile": "<base64>", "userId": "..."}.
func (h *Handler) UploadModel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	// base64 inflates by 4/3; leave headroom for the JSON envelope.
	limit := h.maxModelBytes()*4/3 + 4096
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Model too large", nil)
			return
		}
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read request body", err)
		return
	}

	userID := callerID(r, "")
	data := body
	if isJSON(r) {
		var req UploadModelRequest
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if apiErr := validateRequest(&req); apiErr != nil {
			respondAPIError(w, http.StatusBadRequest, apiErr, nil)
			return
		}
		userID = callerID(r, req.UserID)
		data = req.STLFile
	}

	changed, err := h.svc.UploadModel(r.Context(), chi.URLParam(r, "projectId"), userID, data)
	h.respondMutation(w, r, changed, err, start)
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

// AppendChat handles POST /projects/{projectId}/chat.
func (h *Handler) AppendChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req AppendChatRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireCaller(w, r, req.UserID)
	if !ok {
		return
	}
	changed, err := h.svc.AppendChat(r.Context(), chi.URLParam(r, "projectId"), userID, req.Message)
	h.respondMutation(w, r, changed, err, start)
}

// AddAnnotation handles POST /projects/{projectId}/annotations and returns
// the created annotation.
func (h *Handler) AddAnnotation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req AddAnnotationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireCaller(w, r, req.UserID)
	if !ok {
		return
	}
	ann, err := h.svc.AddAnnotation(r.Context(), chi.URLParam(r, "projectId"), userID, req.Text, req.Vertex)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, ann, start)
}

// EditAnnotation handles PUT /projects/{projectId}/annotations/{annotationId}.
func (h *Handler) EditAnnotation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req EditAnnotationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	changed, err := h.svc.EditAnnotation(r.Context(),
		chi.URLParam(r, "projectId"), callerID(r, req.UserID), chi.URLParam(r, "annotationId"), req.Text)
	h.respondMutation(w, r, changed, err, start)
}

// DeleteAnnotation handles DELETE /projects/{projectId}/annotations/{annotationId}.
func (h *Handler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req DeleteAnnotationRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	changed, err := h.svc.DeleteAnnotation(r.Context(),
		chi.URLParam(r, "projectId"), callerID(r, req.UserID), chi.URLParam(r, "annotationId"))
	h.respondMutation(w, r, changed, err, start)
}

// UpdateCamera handles PUT /projects/{projectId}/camera.
func (h *Handler) UpdateCamera(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req UpdateCameraRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	changed, err := h.svc.UpdateCamera(r.Context(), chi.URLParam(r, "projectId"), callerID(r, req.UserID), req.Camera)
	h.respondMutation(w, r, changed, err, start)
}

// UpdateModelTransform handles PATCH /projects/{projectId}/transform.
// Fields missing from modelTransform are left unchanged.
func (h *Handler) UpdateModelTransform(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req UpdateTransformRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	changed, err := h.svc.UpdateModelTransform(r.Context(), chi.URLParam(r, "projectId"), callerID(r, req.UserID), req.Transform)
	h.respondMutation(w, r, changed, err, start)
}

func requireCaller(w http.ResponseWriter, r *http.Request, bodyUserID string) (string, bool) {
	userID := callerID(r, bodyUserID)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId is required", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) respondMutation(w http.ResponseWriter, r *http.Request, changed bool, err error, start time.Time) {
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, r, http.StatusOK, models.MutationResult{Success: changed}, start)
}

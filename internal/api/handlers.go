// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package api

import (
	"context"
	"time"

	"github.com/tomtom215/modelview/internal/models"
	ws "github.com/tomtom215/modelview/internal/websocket"
)

// ProjectService is the persistence surface the handlers call.
type ProjectService interface {
	List(ctx context.Context) ([]models.ProjectSummary, error)
	Get(ctx context.Context, projectID string) (*models.Project, error)
	Create(ctx context.Context, title string) (string, error)
	UpdateTitle(ctx context.Context, projectID, userID, title string) (bool, error)
	UploadModel(ctx context.Context, projectID, userID string, data []byte) (bool, error)
	AppendChat(ctx context.Context, projectID, userID, message string) (bool, error)
	AddAnnotation(ctx context.Context, projectID, userID, text string, vertex models.Vector3) (models.Annotation, error)
	EditAnnotation(ctx context.Context, projectID, userID, annotationID, text string) (bool, error)
	DeleteAnnotation(ctx context.Context, projectID, userID, annotationID string) (bool, error)
	UpdateCamera(ctx context.Context, projectID, userID string, cam models.Camera) (bool, error)
	UpdateModelTransform(ctx context.Context, projectID, userID string, patch models.TransformPatch) (bool, error)

	CreateUser(ctx context.Context, name string) (models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// HandlerConfig tunes request handling.
type HandlerConfig struct {
	// MaxModelBytes bounds model uploads; other bodies are capped at 1 MiB.
	MaxModelBytes int64
	// AllowedOrigins for the WebSocket handshake. Empty or "*" allows any.
	AllowedOrigins []string
}

const defaultMaxBodyBytes = 1 << 20

// Handler serves the HTTP API.
type Handler struct {
	svc       ProjectService
	hub       *ws.Hub
	cfg       HandlerConfig
	ready     map[string]ReadinessCheck
	startTime time.Time
}

// NewHandler creates a handler. hub may be nil, in which case /ws answers
// 503.
func NewHandler(svc ProjectService, hub *ws.Hub, cfg HandlerConfig) *Handler {
	return &Handler{
		svc:       svc,
		hub:       hub,
		cfg:       cfg,
		ready:     make(map[string]ReadinessCheck),
		startTime: time.Now(),
	}
}

// AddReadinessCheck registers a named check for /health/ready.
func (h *Handler) AddReadinessCheck(name string, check ReadinessCheck) {
	h.ready[name] = check
}

func (h *Handler) maxBodyBytes() int64 {
	return defaultMaxBodyBytes
}

func (h *Handler) maxModelBytes() int64 {
	if h.cfg.MaxModelBytes > 0 {
		return h.cfg.MaxModelBytes
	}
	return 8 << 20
}

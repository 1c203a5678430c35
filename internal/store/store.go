// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package store

import (
	"context"
	"errors"

	"github.com/tomtom215/modelview/internal/models"
)

var (
	// ErrProjectNotFound is returned when no project has the requested id.
	ErrProjectNotFound = errors.New("project not found")

	// ErrProjectExists is returned by Create for a duplicate id.
	ErrProjectExists = errors.New("project already exists")

	// ErrAnnotationNotFound is returned by mutations addressing a missing
	// annotation id.
	ErrAnnotationNotFound = errors.New("annotation not found")

	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store is closed")
)

// Mutator edits p in place and reports whether it changed anything. When it
// returns false or an error, nothing is written.
type Mutator func(p *models.Project) (changed bool, err error)

// ProjectStore persists project documents.
type ProjectStore interface {
	List(ctx context.Context) ([]models.ProjectSummary, error)
	Get(ctx context.Context, projectID string) (*models.Project, error)
	Create(ctx context.Context, p *models.Project) error
	// Update applies fn atomically to the stored document. UpdatedAt is
	// bumped only when fn reports a change.
	Update(ctx context.Context, projectID string, fn Mutator) (changed bool, err error)
}

// UserStore persists the user directory.
type UserStore interface {
	UpsertUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// GetUsers returns userID -> name for every id that exists.
	GetUsers(ctx context.Context, userIDs []string) (map[string]string, error)
}

// Store is the full persistence surface.
type Store interface {
	ProjectStore
	UserStore
	Backend() string
	// Ping reports whether the store can serve requests.
	Ping(ctx context.Context) error
	Close() error
}

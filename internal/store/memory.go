// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
)

const backendMemory = "memory"

// MemoryStore keeps everything in process memory. Documents are cloned on
// the way in and out so callers never alias stored state.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	users    map[string]models.User
	closed   bool
	now      func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*models.Project),
		users:    make(map[string]models.User),
		now:      time.Now,
	}
}

// Backend implements Store.
func (s *MemoryStore) Backend() string { return backendMemory }

// List implements ProjectStore. Results are ordered by creation time.
func (s *MemoryStore) List(_ context.Context) (out []models.ProjectSummary, err error) {
	defer observe(backendMemory, "list", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out = make([]models.ProjectSummary, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Get implements ProjectStore.
func (s *MemoryStore) Get(_ context.Context, projectID string) (p *models.Project, err error) {
	defer observe(backendMemory, "get", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	stored, ok := s.projects[projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	return stored.Clone(), nil
}

// Create implements ProjectStore.
func (s *MemoryStore) Create(_ context.Context, p *models.Project) (err error) {
	defer observe(backendMemory, "create", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.projects[p.ProjectID]; ok {
		return ErrProjectExists
	}
	s.projects[p.ProjectID] = p.Clone()
	return nil
}

// Update implements ProjectStore.
func (s *MemoryStore) Update(_ context.Context, projectID string, fn Mutator) (changed bool, err error) {
	defer observe(backendMemory, "update", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	stored, ok := s.projects[projectID]
	if !ok {
		return false, ErrProjectNotFound
	}
	work := stored.Clone()
	changed, err = fn(work)
	if err != nil || !changed {
		return false, err
	}
	work.UpdatedAt = s.now()
	s.projects[projectID] = work
	return true, nil
}

// UpsertUser implements UserStore.
func (s *MemoryStore) UpsertUser(_ context.Context, u models.User) (err error) {
	defer observe(backendMemory, "upsert_user", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = s.now()
	}
	s.users[u.UserID] = u
	return nil
}

// GetUser implements UserStore.
func (s *MemoryStore) GetUser(_ context.Context, userID string) (u *models.User, err error) {
	defer observe(backendMemory, "get_user", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	stored, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &stored, nil
}

// GetUsers implements UserStore.
func (s *MemoryStore) GetUsers(_ context.Context, userIDs []string) (out map[string]string, err error) {
	defer observe(backendMemory, "get_users", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out = make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		if u, ok := s.users[id]; ok {
			out[id] = u.Name
		}
	}
	return out, nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func sortSummaries(out []models.ProjectSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProjectID < out[j].ProjectID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
}

func observe(backend, op string, start time.Time, err *error) {
	metrics.RecordStoreOp(backend, op, time.Since(start), *err, ErrProjectNotFound, ErrUserNotFound, ErrAnnotationNotFound)
}

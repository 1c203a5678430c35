// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/modelview/internal/cache"
	"github.com/tomtom215/modelview/internal/events"
	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/models"
	"github.com/tomtom215/modelview/internal/spatial"
	"github.com/tomtom215/modelview/internal/store"
)

var (
	// ErrInvalidModel is returned when an uploaded payload is not STL.
	ErrInvalidModel = errors.New("model is not a valid STL file")

	// ErrModelTooLarge is returned when an upload exceeds the size limit.
	ErrModelTooLarge = errors.New("model exceeds size limit")
)

const (
	createAttempts = 3

	defaultNameCacheSize = 4096
	defaultNameCacheTTL  = 5 * time.Minute
)

// Service implements the project RPC surface on top of a store.
type Service struct {
	store         store.Store
	bus           events.Publisher
	now           func() time.Time
	newID         func() string
	maxModelBytes int64
	names         *cache.LRU[string]
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides NewID.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithMaxModelBytes limits uploaded model size. Zero disables the limit.
func WithMaxModelBytes(n int64) Option {
	return func(s *Service) { s.maxModelBytes = n }
}

// WithNameCache sizes the display-name cache used to enrich reads.
func WithNameCache(capacity int, ttl time.Duration) Option {
	return func(s *Service) { s.names = cache.NewLRU[string](capacity, ttl) }
}

// NewService returns a service writing to st and publishing on bus.
func NewService(st store.Store, bus events.Publisher, opts ...Option) *Service {
	s := &Service{
		store: st,
		bus:   bus,
		now:   time.Now,
		newID: NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.names == nil {
		s.names = cache.NewLRU[string](defaultNameCacheSize, defaultNameCacheTTL)
	}
	return s
}

// List returns every project, oldest first.
func (s *Service) List(ctx context.Context) ([]models.ProjectSummary, error) {
	return s.store.List(ctx)
}

// Get returns the project with author names filled in.
func (s *Service) Get(ctx context.Context, projectID string) (*models.Project, error) {
	p, err := s.store.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.enrich(ctx, p)
	return p, nil
}

// enrich fills UserName on chat messages and annotations. A directory
// failure leaves names blank rather than failing the read.
func (s *Service) enrich(ctx context.Context, p *models.Project) {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if _, ok := seen[id]; !ok && id != "" {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, m := range p.ChatLog {
		add(m.UserID)
	}
	for _, a := range p.Annotations {
		add(a.UserID)
	}
	if len(ids) == 0 {
		return
	}

	names := make(map[string]string, len(ids))
	var missing []string
	for _, id := range ids {
		if name, ok := s.names.Get(id); ok {
			names[id] = name
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		found, err := s.store.GetUsers(ctx, missing)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("project_id", p.ProjectID).Msg("User name lookup failed")
			return
		}
		for id, name := range found {
			names[id] = name
			s.names.Add(id, name)
		}
	}
	for i := range p.ChatLog {
		p.ChatLog[i].UserName = names[p.ChatLog[i].UserID]
	}
	for i := range p.Annotations {
		p.Annotations[i].UserName = names[p.Annotations[i].UserID]
	}
}

// Create stores a new project and returns its id. A blank title becomes
// models.DefaultProjectTitle.
func (s *Service) Create(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	var lastErr error
	for i := 0; i < createAttempts; i++ {
		id := s.newID()
		err := s.store.Create(ctx, models.NewProject(id, title, s.now()))
		if err == nil {
			logging.Ctx(ctx).Info().Str("project_id", id).Msg("Project created")
			return id, nil
		}
		if !errors.Is(err, store.ErrProjectExists) {
			return "", fmt.Errorf("create project: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("create project: %w", lastErr)
}

// UpdateTitle renames a project.
func (s *Service) UpdateTitle(ctx context.Context, projectID, userID, title string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultProjectTitle
	}
	return s.mutate(ctx, projectID, userID, models.KindTitle, func(p *models.Project) (bool, error) {
		if p.Title == title {
			return false, nil
		}
		p.Title = title
		return true, nil
	})
}

// UploadModel replaces the project's mesh after checking it decodes as STL.
func (s *Service) UploadModel(ctx context.Context, projectID, userID string, data []byte) (bool, error) {
	if s.maxModelBytes > 0 && int64(len(data)) > s.maxModelBytes {
		return false, ErrModelTooLarge
	}
	if _, err := spatial.ParseSTL(data); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return s.mutate(ctx, projectID, userID, models.KindSTL, func(p *models.Project) (bool, error) {
		if string(p.Model) == string(data) {
			return false, nil
		}
		p.Model = data
		return true, nil
	})
}

// AppendChat adds a message to the end of the chat log.
func (s *Service) AppendChat(ctx context.Context, projectID, userID, message string) (bool, error) {
	msg := models.ChatMessage{UserID: userID, Message: message, Timestamp: s.now()}
	return s.mutate(ctx, projectID, userID, models.KindChat, func(p *models.Project) (bool, error) {
		p.ChatLog = append(p.ChatLog, msg)
		return true, nil
	})
}

// AddAnnotation anchors a new note at vertex and returns it. The id is
// derived from the author and creation time; a same-millisecond collision
// moves the timestamp forward until the id is unique.
func (s *Service) AddAnnotation(ctx context.Context, projectID, userID, text string, vertex models.Vector3) (models.Annotation, error) {
	ann := models.Annotation{Text: text, UserID: userID, Vertex: vertex, Timestamp: s.now()}
	_, err := s.mutate(ctx, projectID, userID, models.KindAnnotation, func(p *models.Project) (bool, error) {
		ann.ID = models.AnnotationID(userID, ann.Timestamp)
		for p.AnnotationIndex(ann.ID) >= 0 {
			ann.Timestamp = ann.Timestamp.Add(time.Millisecond)
			ann.ID = models.AnnotationID(userID, ann.Timestamp)
		}
		p.Annotations = append(p.Annotations, ann)
		return true, nil
	})
	if err != nil {
		return models.Annotation{}, err
	}
	return ann, nil
}

// EditAnnotation replaces the text of an annotation.
func (s *Service) EditAnnotation(ctx context.Context, projectID, userID, annotationID, text string) (bool, error) {
	return s.mutate(ctx, projectID, userID, models.KindAnnotation, func(p *models.Project) (bool, error) {
		i := p.AnnotationIndex(annotationID)
		if i < 0 {
			return false, store.ErrAnnotationNotFound
		}
		if p.Annotations[i].Text == text {
			return false, nil
		}
		p.Annotations[i].Text = text
		return true, nil
	})
}

// DeleteAnnotation removes an annotation.
func (s *Service) DeleteAnnotation(ctx context.Context, projectID, userID, annotationID string) (bool, error) {
	return s.mutate(ctx, projectID, userID, models.KindAnnotation, func(p *models.Project) (bool, error) {
		i := p.AnnotationIndex(annotationID)
		if i < 0 {
			return false, store.ErrAnnotationNotFound
		}
		p.Annotations = append(p.Annotations[:i], p.Annotations[i+1:]...)
		return true, nil
	})
}

// UpdateCamera overwrites the shared camera.
func (s *Service) UpdateCamera(ctx context.Context, projectID, userID string, cam models.Camera) (bool, error) {
	return s.mutate(ctx, projectID, userID, models.KindCamera, func(p *models.Project) (bool, error) {
		if p.Camera == cam {
			return false, nil
		}
		p.Camera = cam
		return true, nil
	})
}

// UpdateModelTransform writes the fields present in patch.
func (s *Service) UpdateModelTransform(ctx context.Context, projectID, userID string, patch models.TransformPatch) (bool, error) {
	if patch.Empty() {
		return false, nil
	}
	return s.mutate(ctx, projectID, userID, models.KindModelTransform, func(p *models.Project) (bool, error) {
		next := patch.Apply(p.ModelTransform)
		if next == p.ModelTransform {
			return false, nil
		}
		p.ModelTransform = next
		return true, nil
	})
}

// mutate runs fn in the store and publishes one update when it changed the
// document.
func (s *Service) mutate(ctx context.Context, projectID, userID string, kind models.ChangeKind, fn store.Mutator) (bool, error) {
	changed, err := s.store.Update(ctx, projectID, fn)
	if err != nil {
		return false, err
	}
	if !changed {
		logging.Ctx(ctx).Debug().
			Str("project_id", projectID).
			Str("kind", string(kind)).
			Msg("Mutation left project unchanged")
		return false, nil
	}

	s.bus.Publish(ctx, models.ProjectUpdate{
		ProjectID:    projectID,
		Kind:         kind,
		Timestamp:    s.now(),
		OriginUserID: userID,
	})
	return true, nil
}

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
	"github.com/tomtom215/modelview/internal/spatial"
)

const (
	// DefaultQuietPeriod is the idle time before a continuous edit is sent.
	DefaultQuietPeriod = 500 * time.Millisecond
	// DefaultMarkerDelay debounces vertex-marker rescaling.
	DefaultMarkerDelay  = 150 * time.Millisecond
	defaultWriteTimeout = 15 * time.Second
)

var (
	// ErrNoIdentity is returned for discrete edits before a user id is known.
	ErrNoIdentity = errors.New("pipeline: no user identity")
	// ErrNoDocument is returned for edits before the document is loaded, or
	// when the server no longer has it.
	ErrNoDocument = errors.New("pipeline: document not loaded")
	// ErrUnknownAnnotation is returned when editing an id not in the local copy.
	ErrUnknownAnnotation = errors.New("pipeline: unknown annotation")
)

// Remote is the RPC surface the pipeline writes through. *client.Client
// satisfies it.
type Remote interface {
	Get(ctx context.Context, projectID string) (*models.Project, error)
	AppendChat(ctx context.Context, projectID, userID, message string) (bool, error)
	AddAnnotation(ctx context.Context, projectID, userID, text string, vertex models.Vector3) (*models.Annotation, error)
	EditAnnotation(ctx context.Context, projectID, userID, annotationID, text string) (bool, error)
	DeleteAnnotation(ctx context.Context, projectID, userID, annotationID string) (bool, error)
	UpdateCamera(ctx context.Context, projectID, userID string, cam models.Camera) (bool, error)
	UpdateModelTransform(ctx context.Context, projectID, userID string, patch models.TransformPatch) (bool, error)
}

// Editor owns the optimistic copy of one project document.
type Editor struct {
	remote    Remote
	projectID string
	ctx       context.Context

	quiet        time.Duration
	markerDelay  time.Duration
	writeTimeout time.Duration
	after        AfterFunc
	now          func() time.Time

	onChange       func(*models.Project)
	onError        func(field string, err error)
	onCameraUpdate func(models.Camera)
	onMarkerScale  func(float64)

	mu        sync.Mutex
	doc       *models.Project
	userID    string
	camera    *fieldChannel[models.Camera, models.Camera]
	transform *fieldChannel[models.TransformPatch, models.ModelTransform]

	marker       *Debouncer
	markerCamera models.Camera
}

// Option configures an Editor.
type Option func(*Editor)

func WithQuietPeriod(d time.Duration) Option { return func(e *Editor) { e.quiet = d } }

func WithMarkerDelay(d time.Duration) Option { return func(e *Editor) { e.markerDelay = d } }

func WithWriteTimeout(d time.Duration) Option { return func(e *Editor) { e.writeTimeout = d } }

// WithAfterFunc replaces time.AfterFunc for every timer the Editor starts.
func WithAfterFunc(f AfterFunc) Option { return func(e *Editor) { e.after = f } }

func WithClock(now func() time.Time) Option { return func(e *Editor) { e.now = now } }

func WithUserID(id string) Option { return func(e *Editor) { e.userID = id } }

// OnChange is called with a copy of the document after every local change.
func OnChange(fn func(*models.Project)) Option { return func(e *Editor) { e.onChange = fn } }

// OnError is called when a write fails, after its rollback. Field is
// camera, modelTransform, chat or annotation.
func OnError(fn func(field string, err error)) Option { return func(e *Editor) { e.onError = fn } }

// OnCameraUpdate is called with the refreshed camera after another session
// moved it.
func OnCameraUpdate(fn func(models.Camera)) Option {
	return func(e *Editor) { e.onCameraUpdate = fn }
}

// OnMarkerScale receives the vertex marker scale once the camera settles.
func OnMarkerScale(fn func(float64)) Option { return func(e *Editor) { e.onMarkerScale = fn } }

// NewEditor creates an Editor for projectID. ctx bounds the writes the
// Editor issues from its timers.
func NewEditor(ctx context.Context, remote Remote, projectID string, opts ...Option) *Editor {
	e := &Editor{
		remote:       remote,
		projectID:    projectID,
		ctx:          ctx,
		quiet:        DefaultQuietPeriod,
		markerDelay:  DefaultMarkerDelay,
		writeTimeout: defaultWriteTimeout,
		after:        realAfterFunc,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.camera = &fieldChannel[models.Camera, models.Camera]{
		field:   string(models.KindCamera),
		merge:   func(_, next models.Camera) models.Camera { return next },
		reduce:  ReduceCamera,
		read:    func(p *models.Project) models.Camera { return p.Camera },
		restore: ReduceCamera,
		send:    remote.UpdateCamera,
	}
	e.camera.deb = NewDebouncer(e.quiet, e.after, func() { e.camera.flush(e) })

	e.transform = &fieldChannel[models.TransformPatch, models.ModelTransform]{
		field:   string(models.KindModelTransform),
		merge:   mergePatch,
		reduce:  ReduceTransform,
		read:    func(p *models.Project) models.ModelTransform { return p.ModelTransform },
		restore: ReduceSetTransform,
		send:    remote.UpdateModelTransform,
	}
	e.transform.deb = NewDebouncer(e.quiet, e.after, func() { e.transform.flush(e) })

	e.marker = NewDebouncer(e.markerDelay, e.after, e.emitMarkerScale)
	return e
}

// mergePatch overlays next on prev so a batch sends every field it touched.
func mergePatch(prev, next models.TransformPatch) models.TransformPatch {
	if next.Origin != nil {
		prev.Origin = next.Origin
	}
	if next.Scale != nil {
		prev.Scale = next.Scale
	}
	if next.Rotation != nil {
		prev.Rotation = next.Rotation
	}
	return prev
}

// ProjectID returns the edited project's id.
func (e *Editor) ProjectID() string { return e.projectID }

// SetUserID binds the identity writes are tagged with.
func (e *Editor) SetUserID(id string) {
	e.mu.Lock()
	e.userID = id
	e.mu.Unlock()
}

// Document returns a copy of the local document, or nil before Load.
func (e *Editor) Document() *models.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Load fetches the document. It returns ErrNoDocument if the project
// does not exist.
func (e *Editor) Load(ctx context.Context) error {
	return e.Refresh(ctx)
}

// Refresh replaces the local copy with the server's, keeping continuous
// edits that have not been sent yet.
func (e *Editor) Refresh(ctx context.Context) error {
	doc, err := e.remote.Get(ctx, e.projectID)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", e.projectID, err)
	}
	if doc == nil {
		return ErrNoDocument
	}

	e.mu.Lock()
	doc = e.camera.reapply(doc)
	doc = e.transform.reapply(doc)
	e.doc = doc
	out := doc.Clone()
	e.mu.Unlock()

	e.changed(out)
	return nil
}

// settle refetches after a write, independent of the caller's context.
func (e *Editor) settle() {
	ctx, cancel := context.WithTimeout(e.ctx, e.writeTimeout)
	defer cancel()
	if err := e.Refresh(ctx); err != nil {
		logging.Debug().Err(err).Str("project_id", e.projectID).Msg("Refresh after write failed")
	}
}

// SetCamera applies cam locally and schedules its write.
func (e *Editor) SetCamera(cam models.Camera) error {
	return e.camera.push(e, cam)
}

// SetTransform applies the fields in patch locally and schedules their write.
func (e *Editor) SetTransform(patch models.TransformPatch) error {
	if patch.Empty() {
		return nil
	}
	return e.transform.push(e, patch)
}

// AppendChat commits a chat message.
func (e *Editor) AppendChat(ctx context.Context, message string) error {
	userID, err := e.identity()
	if err != nil {
		return err
	}
	msg := models.ChatMessage{UserID: userID, Message: message, Timestamp: e.now()}
	if err := e.apply(func(p *models.Project) *models.Project { return ReduceAppendChat(p, msg) }); err != nil {
		return err
	}

	_, err = e.remote.AppendChat(ctx, e.projectID, userID, message)
	e.commit(string(models.KindChat), err, func(p *models.Project) *models.Project { return ReduceRemoveChat(p, msg) })
	return err
}

// AddAnnotation commits a note anchored at vertex and returns the stored
// annotation.
func (e *Editor) AddAnnotation(ctx context.Context, text string, vertex models.Vector3) (models.Annotation, error) {
	userID, err := e.identity()
	if err != nil {
		return models.Annotation{}, err
	}
	now := e.now()
	ann := models.Annotation{
		ID:        models.AnnotationID(userID, now),
		Text:      text,
		UserID:    userID,
		Vertex:    vertex,
		Timestamp: now,
	}
	if err := e.apply(func(p *models.Project) *models.Project { return ReduceAddAnnotation(p, ann) }); err != nil {
		return models.Annotation{}, err
	}

	stored, err := e.remote.AddAnnotation(ctx, e.projectID, userID, text, vertex)
	e.commit(string(models.KindAnnotation), err, func(p *models.Project) *models.Project { return ReduceDeleteAnnotation(p, ann.ID) })
	if err != nil {
		return models.Annotation{}, err
	}
	if stored == nil {
		return ann, nil
	}
	return *stored, nil
}

// EditAnnotation commits new text for an annotation.
func (e *Editor) EditAnnotation(ctx context.Context, annotationID, text string) error {
	userID, err := e.identity()
	if err != nil {
		return err
	}
	prev, _, err := e.annotation(annotationID)
	if err != nil {
		return err
	}
	if err := e.apply(func(p *models.Project) *models.Project { return ReduceEditAnnotation(p, annotationID, text) }); err != nil {
		return err
	}

	_, err = e.remote.EditAnnotation(ctx, e.projectID, userID, annotationID, text)
	e.commit(string(models.KindAnnotation), err, func(p *models.Project) *models.Project { return ReduceReplaceAnnotation(p, prev) })
	return err
}

// DeleteAnnotation commits removal of an annotation.
func (e *Editor) DeleteAnnotation(ctx context.Context, annotationID string) error {
	userID, err := e.identity()
	if err != nil {
		return err
	}
	prev, idx, err := e.annotation(annotationID)
	if err != nil {
		return err
	}
	if err := e.apply(func(p *models.Project) *models.Project { return ReduceDeleteAnnotation(p, annotationID) }); err != nil {
		return err
	}

	_, err = e.remote.DeleteAnnotation(ctx, e.projectID, userID, annotationID)
	e.commit(string(models.KindAnnotation), err, func(p *models.Project) *models.Project { return ReduceInsertAnnotation(p, idx, prev) })
	return err
}

// HandleUpdate reacts to a projectUpdate from the room gateway. It has the
// shape of client.UpdateHandler.
func (e *Editor) HandleUpdate(ctx context.Context, u models.ProjectUpdate) {
	if u.ProjectID != e.projectID {
		return
	}
	if err := e.Refresh(ctx); err != nil {
		logging.Warn().Err(err).Str("project_id", e.projectID).Str("kind", string(u.Kind)).Msg("Refresh after remote update failed")
		return
	}
	if u.Kind == models.KindCamera && e.onCameraUpdate != nil {
		e.mu.Lock()
		cam := e.doc.Camera
		e.mu.Unlock()
		e.onCameraUpdate(cam)
	}
}

// Close cancels pending continuous writes and marker updates. Unsent edits
// are dropped.
func (e *Editor) Close() {
	e.camera.stop()
	e.transform.stop()
	e.marker.Stop()
}

func (e *Editor) identity() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.userID == "" {
		return "", ErrNoIdentity
	}
	return e.userID, nil
}

func (e *Editor) annotation(id string) (models.Annotation, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc == nil {
		return models.Annotation{}, -1, ErrNoDocument
	}
	i := e.doc.AnnotationIndex(id)
	if i < 0 {
		return models.Annotation{}, -1, ErrUnknownAnnotation
	}
	return e.doc.Annotations[i], i, nil
}

// apply runs an optimistic reducer over the loaded document.
func (e *Editor) apply(r func(*models.Project) *models.Project) error {
	e.mu.Lock()
	if e.doc == nil {
		e.mu.Unlock()
		return ErrNoDocument
	}
	e.doc = r(e.doc)
	out := e.doc.Clone()
	e.mu.Unlock()
	e.changed(out)
	return nil
}

// commit finishes a discrete edit: revert on failure, then refetch.
func (e *Editor) commit(field string, err error, revert func(*models.Project) *models.Project) {
	metrics.RecordPipelineWrite(field, err)
	if err != nil {
		logging.Warn().Err(err).Str("project_id", e.projectID).Str("field", field).Msg("Edit failed, reverted")
		_ = e.apply(revert)
		e.fail(field, err)
	}
	e.settle()
}

func (e *Editor) fail(field string, err error) {
	if e.onError != nil {
		e.onError(field, err)
	}
}

// changed notifies listeners and reschedules the marker rescale when the
// camera moved.
func (e *Editor) changed(doc *models.Project) {
	if doc == nil {
		return
	}
	if e.onMarkerScale != nil {
		e.mu.Lock()
		moved := e.markerCamera != doc.Camera
		e.markerCamera = doc.Camera
		e.mu.Unlock()
		if moved {
			e.marker.Trigger()
		}
	}
	if e.onChange != nil {
		e.onChange(doc.Clone())
	}
}

func (e *Editor) emitMarkerScale() {
	e.mu.Lock()
	pos := e.markerCamera.Position
	e.mu.Unlock()
	e.onMarkerScale(spatial.MarkerScale(pos))
}

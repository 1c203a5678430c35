// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package spatial

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
)

// Pick is a resolved vertex.
type Pick struct {
	Index int        // position in the candidate set
	Local mgl64.Vec3 // model-local coordinates, stored on annotations
	World mgl64.Vec3 // after the model transform
}

// Vertex returns the local position in wire form.
func (p Pick) Vertex() models.Vector3 { return FromVec(p.Local) }

// Resolver tracks the vertex under the pointer while Note mode is active.
//
// It recomputes when the pointer moves, the geometry or model transform
// changes, or Note mode is entered. On mode entry it reuses the last pointer
// position, or the canvas center if the pointer has not moved yet. Outside
// Note mode it reports nothing and never scans.
type Resolver struct {
	mu         sync.Mutex
	modes      *ModeState
	mesh       *Mesh
	vertices   []mgl64.Vec3
	model      mgl64.Mat4
	camera     models.Camera
	lens       Lens
	pointer    Pointer
	hasPointer bool
	pick       *Pick
	scans      int
	onChange   func(*Pick)
	unsub      func()
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLens sets the camera projection used to build pointer rays.
func WithLens(l Lens) ResolverOption {
	return func(r *Resolver) { r.lens = l }
}

// WithOnChange registers a callback run after every recomputation with the
// new result (nil for no vertex). It runs without the resolver lock held.
func WithOnChange(fn func(*Pick)) ResolverOption {
	return func(r *Resolver) { r.onChange = fn }
}

// NewResolver returns a resolver gated by modes.
func NewResolver(modes *ModeState, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		modes:  modes,
		model:  mgl64.Ident4(),
		camera: models.DefaultCamera(),
		lens:   DefaultLens(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.unsub = modes.Subscribe(r.modeChanged)
	return r
}

// Close detaches the resolver from its mode state.
func (r *Resolver) Close() {
	r.unsub()
}

func (r *Resolver) modeChanged(_, next Mode) {
	if next == ModeNote {
		r.recompute()
		return
	}
	r.mu.Lock()
	r.pick = nil
	cb := r.onChange
	r.mu.Unlock()
	if cb != nil {
		cb(nil)
	}
}

// SetGeometry replaces the candidate set. A nil mesh clears it.
func (r *Resolver) SetGeometry(m *Mesh) {
	r.mu.Lock()
	r.mesh = m
	r.vertices = m.Vertices()
	r.mu.Unlock()
	r.recompute()
}

// SetTransform updates where the mesh sits in world space.
func (r *Resolver) SetTransform(t models.ModelTransform) {
	r.mu.Lock()
	r.model = ModelMatrix(t)
	r.mu.Unlock()
	r.recompute()
}

// SetCamera updates the viewpoint used for pointer rays. It does not trigger
// a recomputation; the next pointer event will.
func (r *Resolver) SetCamera(cam models.Camera) {
	r.mu.Lock()
	r.camera = cam
	r.mu.Unlock()
}

// PointerMove records a new pointer position and recomputes.
func (r *Resolver) PointerMove(p Pointer) {
	r.mu.Lock()
	r.pointer = p
	r.hasPointer = true
	r.mu.Unlock()
	r.recompute()
}

// Current returns the vertex under the pointer, or nil.
func (r *Resolver) Current() *Pick {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pick == nil {
		return nil
	}
	p := *r.pick
	return &p
}

// Scans returns how many nearest-vertex scans have run.
func (r *Resolver) Scans() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scans
}

// recompute reads the mode under r.mu. A concurrent switch out of Note
// mode then either sees the stored pick and clears it, or runs first and
// makes this call store nothing.
func (r *Resolver) recompute() {
	r.mu.Lock()
	if !r.modes.PickingActive() {
		r.pick = nil
		r.mu.Unlock()
		return
	}
	r.pick = r.resolveLocked()
	var out *Pick
	if r.pick != nil {
		p := *r.pick
		out = &p
	}
	cb := r.onChange
	r.mu.Unlock()

	if cb != nil {
		cb(out)
	}
}

// resolveLocked must be called with r.mu held.
func (r *Resolver) resolveLocked() *Pick {
	if len(r.vertices) == 0 {
		return nil
	}
	p := r.pointer
	if !r.hasPointer {
		p = Pointer{}
	}
	hit, ok := r.mesh.Intersect(CameraRay(r.camera, r.lens, p), r.model)
	if !ok {
		return nil
	}

	r.scans++
	metrics.RecordResolverScan(len(r.vertices))

	i := NearestVertex(r.vertices, r.model, hit)
	if i < 0 {
		return nil
	}
	return &Pick{Index: i, Local: r.vertices[i], World: TransformPoint(r.model, r.vertices[i])}
}

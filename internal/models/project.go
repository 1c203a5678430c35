// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package models

import (
	"strconv"
	"time"
)

// DefaultProjectTitle is stored when a project is created with a blank title.
const DefaultProjectTitle = "Untitled Project"

// Vector3 is a point, Euler rotation (radians, XYZ order) or scale.
type Vector3 struct {
	X float64 `json:"x" validate:"finite"`
	Y float64 `json:"y" validate:"finite"`
	Z float64 `json:"z" validate:"finite"`
}

// ChatMessage is one entry of the append-only chat log.
type ChatMessage struct {
	UserID    string    `json:"userId" validate:"required"`
	UserName  string    `json:"userName,omitempty"`
	Message   string    `json:"message" validate:"required,max=4000"`
	Timestamp time.Time `json:"timestamp"`
}

// Annotation anchors a note to a mesh vertex in model-local space.
type Annotation struct {
	ID        string    `json:"id"`
	Text      string    `json:"text" validate:"max=4000"`
	UserID    string    `json:"userId" validate:"required"`
	UserName  string    `json:"userName,omitempty"`
	Vertex    Vector3   `json:"vertex"`
	Timestamp time.Time `json:"timestamp"`
}

// AnnotationID derives the stable id of an annotation from its author and
// creation time.
func AnnotationID(userID string, ts time.Time) string {
	return userID + "-" + strconv.FormatInt(ts.UnixMilli(), 10)
}

// Camera is the shared viewpoint singleton.
type Camera struct {
	Position Vector3 `json:"position"`
	Rotation Vector3 `json:"rotation"`
}

// DefaultCamera looks down -Z from five units out.
func DefaultCamera() Camera {
	return Camera{Position: Vector3{Z: 5}}
}

// ModelTransform places the model in world space.
type ModelTransform struct {
	Origin   Vector3 `json:"origin"`
	Scale    Vector3 `json:"scale"`
	Rotation Vector3 `json:"rotation"`
}

// IdentityTransform is the transform assigned to new projects.
func IdentityTransform() ModelTransform {
	return ModelTransform{Scale: Vector3{X: 1, Y: 1, Z: 1}}
}

// TransformPatch is a partial ModelTransform; nil fields are left untouched.
type TransformPatch struct {
	Origin   *Vector3 `json:"origin,omitempty"`
	Scale    *Vector3 `json:"scale,omitempty"`
	Rotation *Vector3 `json:"rotation,omitempty"`
}

// Empty reports whether the patch names no field.
func (p TransformPatch) Empty() bool {
	return p.Origin == nil && p.Scale == nil && p.Rotation == nil
}

// Apply returns t with the patch's non-nil fields written over it.
func (p TransformPatch) Apply(t ModelTransform) ModelTransform {
	if p.Origin != nil {
		t.Origin = *p.Origin
	}
	if p.Scale != nil {
		t.Scale = *p.Scale
	}
	if p.Rotation != nil {
		t.Rotation = *p.Rotation
	}
	return t
}

// FullPatch returns a patch that writes every field of t.
func FullPatch(t ModelTransform) TransformPatch {
	o, s, r := t.Origin, t.Scale, t.Rotation
	return TransformPatch{Origin: &o, Scale: &s, Rotation: &r}
}

// Project is the shared document every session in a room views.
type Project struct {
	ProjectID      string         `json:"projectId"`
	Title          string         `json:"title"`
	Model          []byte         `json:"stlFile,omitempty"`
	ChatLog        []ChatMessage  `json:"chatLog"`
	Annotations    []Annotation   `json:"annotations"`
	Camera         Camera         `json:"camera"`
	ModelTransform ModelTransform `json:"modelTransform"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// NewProject returns a project with creation defaults applied.
func NewProject(id, title string, now time.Time) *Project {
	if title == "" {
		title = DefaultProjectTitle
	}
	return &Project{
		ProjectID:      id,
		Title:          title,
		ChatLog:        []ChatMessage{},
		Annotations:    []Annotation{},
		Camera:         DefaultCamera(),
		ModelTransform: IdentityTransform(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Clone returns a deep copy. The model payload is shared because it is never
// mutated in place.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	c := *p
	c.ChatLog = append([]ChatMessage(nil), p.ChatLog...)
	c.Annotations = append([]Annotation(nil), p.Annotations...)
	if c.ChatLog == nil {
		c.ChatLog = []ChatMessage{}
	}
	if c.Annotations == nil {
		c.Annotations = []Annotation{}
	}
	return &c
}

// AnnotationIndex returns the position of the annotation with id, or -1.
func (p *Project) AnnotationIndex(id string) int {
	for i := range p.Annotations {
		if p.Annotations[i].ID == id {
			return i
		}
	}
	return -1
}

// Summary returns the listing view of the project.
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ProjectID: p.ProjectID,
		Title:     p.Title,
		HasModel:  len(p.Model) > 0,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// ProjectSummary is one row of the project list.
type ProjectSummary struct {
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	HasModel  bool      `json:"hasModel"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

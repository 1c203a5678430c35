// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package models

import "time"

// ChangeKind names the part of a project a mutation touched.
type ChangeKind string

const (
	KindChat           ChangeKind = "chat"
	KindAnnotation     ChangeKind = "annotation"
	KindCamera         ChangeKind = "camera"
	KindSTL            ChangeKind = "stl"
	KindModelTransform ChangeKind = "modelTransform"
	KindTitle          ChangeKind = "title"
)

// Valid reports whether k is a known kind.
func (k ChangeKind) Valid() bool {
	switch k {
	case KindChat, KindAnnotation, KindCamera, KindSTL, KindModelTransform, KindTitle:
		return true
	}
	return false
}

// ProjectUpdate is the change notification published on the event bus and
// sent to room members as a projectUpdate message. It is never persisted.
type ProjectUpdate struct {
	ProjectID    string     `json:"projectId"`
	Kind         ChangeKind `json:"kind"`
	Timestamp    time.Time  `json:"timestamp"`
	OriginUserID string     `json:"originUserId,omitempty"`
}

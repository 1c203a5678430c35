// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package api

import "github.com/tomtom215/modelview/internal/models"

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Title string `json:"title" validate:"max=200"`
}

// UpdateTitleRequest is the body of PUT /projects/{id}/title.
type UpdateTitleRequest struct {
	UserID string `json:"userId,omitempty" validate:"omitempty,identity"`
	Title  string `json:"title" validate:"max=200"`
}

// UploadModelRequest is the JSON form of PUT /projects/{id}/model. Raw
// STL bodies are accepted too.
type UploadModelRequest struct {
	UserID  string `json:"userId,omitempty" validate:"omitempty,identity"`
	STLFile []byte `json:"stlFile" validate:"required"`
}

// AppendChatRequest is the body of POST /projects/{id}/chat.
type AppendChatRequest struct {
	UserID  string `json:"userId,omitempty" validate:"omitempty,identity"`
	Message string `json:"message" validate:"required,max=4000"`
}

// AddAnnotationRequest is the body of POST /projects/{id}/annotations.
type AddAnnotationRequest struct {
	UserID string         `json:"userId,omitempty" validate:"omitempty,identity"`
	Text   string         `json:"text" validate:"max=4000"`
	Vertex models.Vector3 `json:"vertex"`
}

// EditAnnotationRequest is the body of PUT /projects/{id}/annotations/{aid}.
type EditAnnotationRequest struct {
	UserID string `json:"userId,omitempty" validate:"omitempty,identity"`
	Text   string `json:"text" validate:"max=4000"`
}

// DeleteAnnotationRequest is the optional body of DELETE.
type DeleteAnnotationRequest struct {
	UserID string `json:"userId,omitempty" validate:"omitempty,identity"`
}

// UpdateCameraRequest is the body of PUT /projects/{id}/camera.
type UpdateCameraRequest struct {
	UserID string        `json:"userId,omitempty" validate:"omitempty,identity"`
	Camera models.Camera `json:"camera"`
}

// UpdateTransformRequest is the body of PATCH /projects/{id}/transform.
type UpdateTransformRequest struct {
	UserID    string                `json:"userId,omitempty" validate:"omitempty,identity"`
	Transform models.TransformPatch `json:"modelTransform"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

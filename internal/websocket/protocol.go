// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package websocket

import (
	"errors"
	"strings"

	"github.com/goccy/go-json"
)

// Message types for WebSocket communication
const (
	// server -> client
	MessageTypeUserID        = "userId"
	MessageTypeProjectUpdate = "projectUpdate"
	MessageTypeAck           = "ack"
	MessageTypePong          = "pong"
	MessageTypeError         = "error"

	// client -> server
	MessageTypeSubscribe   = "subscribeToProject"
	MessageTypeUnsubscribe = "unsubscribeFromProject"
	MessageTypeSetUserName = "setUserName"
	MessageTypePing        = "ping"
)

// Message is an outbound frame.
type Message struct {
	Type string      `json:"type"`
	ID   string      `json:"id,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// Envelope is an inbound frame; Data is decoded per Type.
type Envelope struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SubscribePayload joins a project room and optionally binds an identity.
type SubscribePayload struct {
	ProjectID string `json:"projectId" validate:"required,max=128"`
	UserID    string `json:"userId,omitempty" validate:"omitempty,identity"`
}

// SetUserNamePayload records a display name in the user directory.
type SetUserNamePayload struct {
	UserID   string `json:"userId" validate:"required,identity"`
	UserName string `json:"userName" validate:"required,max=64"`
}

// AckPayload answers a request frame carrying an id.
type AckPayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ErrorPayload is sent for frames that could not be processed.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes sent in error frames.
const (
	ErrCodeBadMessage  = "bad_message"
	ErrCodeUnknownType = "unknown_type"
	ErrCodeRateLimited = "rate_limited"
)

var (
	errEmptyProjectID = errors.New("projectId is required")
	errNoDirectory    = errors.New("user directory unavailable")
)

// parseUnsubscribe accepts either a bare project id string or
// {"projectId": "..."}.
func parseUnsubscribe(raw json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		var obj struct {
			ProjectID string `json:"projectId"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", err
		}
		id = obj.ProjectID
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errEmptyProjectID
	}
	return id, nil
}

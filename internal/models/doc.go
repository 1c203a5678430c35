// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package models defines the shared project document, the change
// notification fanned out to project rooms, the user record, and the
// JSON envelope returned by every HTTP endpoint.
//
// JSON field names follow the browser client's camelCase wire format
// (projectId, chatLog, modelTransform, originUserId) rather than the
// snake_case used for configuration.
package models

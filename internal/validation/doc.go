// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package validation wraps a go-playground/validator singleton for RPC
// request bodies and gateway handshakes.
//
// Field names in errors come from json tags, so a failure on
// ChatRequest.UserID reports "userId", matching what the client sent.
//
// Custom tags:
//
//   - identity: non-empty printable ASCII, at most 128 bytes. Used for user
//     ids presented on connect and in RPC bodies.
//   - finite: a float64 that is neither NaN nor infinite.
//
// Usage:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
package validation

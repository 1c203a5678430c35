// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package middleware

import (
	"context"
	"net/http"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/validation"
)

// Header names.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-Id"
)

// RequestID reuses a well-formed upstream X-Request-ID or generates one,
// echoes it on the response, and stores it on the request context. A
// well-formed X-User-Id is stored too so log lines carry the caller.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if !validation.ValidIdentity(requestID) {
			requestID = logging.GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		if uid := r.Header.Get(HeaderUserID); validation.ValidIdentity(uid) {
			ctx = logging.ContextWithUserID(ctx, uid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	return logging.RequestIDFromContext(ctx)
}

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package middleware provides HTTP middleware for the chi router.

Key Components:

  - RequestID: honors or generates X-Request-ID and attaches it, plus the
    caller's X-User-Id, to the request context for logging
  - PrometheusMetrics: request count, duration and in-flight gauge, labelled
    by chi route pattern
  - Compression: gzip for clients that accept it; WebSocket upgrades pass
    through untouched

All three are func(http.Handler) http.Handler and compose with r.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.Compression)

Response writer wrappers implement http.Hijacker and Unwrap so the
WebSocket handshake can take over the connection.
*/
package middleware

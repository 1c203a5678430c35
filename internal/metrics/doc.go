// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package metrics holds the Prometheus collectors for Modelview.
//
// Collectors are registered on the default registry through promauto and
// served at /metrics. Server-side packages (api, websocket, events, store)
// and the client SDK (client, pipeline, spatial) share this package so a
// single process embedding both sides reports one coherent set.
//
// Metric families:
//
//   - modelview_api_*: HTTP request count, latency, in-flight requests
//   - modelview_ws_*: connections, room memberships, messages, fan-out results
//   - modelview_bus_*: publishes by change kind, recovered handler panics
//   - modelview_store_*: persistence operation latency and errors
//   - modelview_circuit_breaker_*: SDK breaker state and transitions
//   - modelview_pipeline_*: debounced writes and coalesced edits
//   - modelview_resolver_*: nearest-vertex scans
package metrics

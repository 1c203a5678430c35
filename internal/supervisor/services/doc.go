// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package services adapts Modelview's long-running components to
// suture.Service so the supervisor tree can run and restart them:
//
//   - HTTPServerService: the chi router behind an *http.Server
//   - HubService: the WebSocket hub's broadcast loop
//   - ValueLogGCService: periodic badger value-log GC
//
// Wrappers depend on small interfaces rather than the concrete packages,
// which keeps this package free of import cycles and easy to test.
package services

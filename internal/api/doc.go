// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package api exposes the project RPC surface over JSON/HTTP using the chi
router, plus the WebSocket endpoint, health checks and Prometheus metrics.

Routes:

	GET    /api/v1/health/live
	GET    /api/v1/health/ready
	GET    /metrics
	GET    /ws?userId=<id>

	GET    /api/v1/projects
	POST   /api/v1/projects
	GET    /api/v1/projects/{projectId}
	PUT    /api/v1/projects/{projectId}/title
	PUT    /api/v1/projects/{projectId}/model
	POST   /api/v1/projects/{projectId}/chat
	POST   /api/v1/projects/{projectId}/annotations
	PUT    /api/v1/projects/{projectId}/annotations/{annotationId}
	DELETE /api/v1/projects/{projectId}/annotations/{annotationId}
	PUT    /api/v1/projects/{projectId}/camera
	PATCH  /api/v1/projects/{projectId}/transform

	POST   /api/v1/users
	GET    /api/v1/users/{userId}

Every body is wrapped in models.APIResponse. Mutations answer
{"success": bool}; false means the stored document did not change and no
projectUpdate was broadcast.

The caller's identity comes from the body's userId or the X-User-Id
header and becomes the originUserId of the resulting notification, which
is how the gateway knows not to echo a change back to its author.
*/
package api

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package supervisor provides process supervision for Modelview using suture v4.

Long-running services are organized into a three-layer tree:

	RootSupervisor ("modelview")
	├── StorageSupervisor ("storage-layer")
	│   └── ValueLogGCService (badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── HubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's decaying failure counter;
context cancellation triggers an orderly shutdown bounded by
TreeConfig.ShutdownTimeout. Supervisor events are logged through
sutureslog into the process logger.

Service wrappers live in internal/supervisor/services.

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning nil stops the service permanently; returning an error restarts
it. On shutdown, return promptly once ctx is done.
*/
package supervisor

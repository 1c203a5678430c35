// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

/*
Package main is the entry point for the Modelview server.

Modelview lets several people open the same 3D model, move a shared camera,
and leave chat messages and vertex-anchored annotations. Every committed
change is announced to the other sessions viewing the project.

# Application Architecture

	RootSupervisor ("modelview")
	├── StorageSupervisor ("storage-layer")
	│   └── Badger value-log GC (badger backend only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocket Hub (project rooms, fan-out)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (Chi router, REST + /ws)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Store: BadgerDB (default) or in-memory
 4. Event bus and project service
 5. WebSocket hub, subscribed to the event bus
 6. HTTP handler and Chi router
 7. Supervisor tree: Suture v4 process supervision

# Configuration

	HTTP_PORT=3001
	STORAGE_BACKEND=badger|memory
	STORAGE_PATH=/data/modelview
	LOG_LEVEL=info
	LOG_FORMAT=json|console
	CONFIG_PATH=/etc/modelview/config.yaml

When a config file is in use it is watched; changes to the logging section
are applied without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server (draining in-flight requests up to server.shutdown_timeout), closes
every WebSocket client and the store, then exits.
*/
package main

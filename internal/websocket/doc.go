// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package websocket is the session and room gateway.
//
// Each browser holds one duplex connection (a Client). On connect the
// gateway assigns or recognizes a user id and sends it back as a userId
// message. Clients join and leave project rooms with subscribeToProject and
// unsubscribeFromProject. The Hub subscribes to the event bus; for every
// models.ProjectUpdate it sends a projectUpdate message to each session in
// that project's room except sessions bound to the update's origin user.
// Updates without an origin user go to the whole room.
//
// # Architecture
//
//	┌──────────────┐  Publish   ┌───────────┐  HandleProjectUpdate  ┌─────────┐
//	│ project.Svc  │──────────▶│ events.Bus │─────────────────────▶│   Hub   │
//	└──────────────┘            └───────────┘                        └────┬────┘
//	                                                                      │ fan-out
//	                                                   ┌──────────────────┼─────────────┐
//	                                                   ▼                  ▼             ▼
//	                                             Client (room p1)   Client (p1)    Client (p2)
//	                                             readPump/writePump
//
// # Registry
//
// The hub owns one registry guarded by a single mutex: the set of live
// clients, each client's bound user id and joined rooms, and room id to
// member clients. Critical sections only touch maps and do non-blocking
// channel sends; socket I/O happens in each client's writePump.
//
// Every message queued for a client goes through the hub under the
// registry lock, so a send can never race the close of the client's send
// channel on disconnect.
//
// # Wire Format
//
//	{"type": "subscribeToProject", "id": "1", "data": {"projectId": "p1", "userId": "user_x"}}
//	{"type": "ack", "id": "1", "data": {"success": true}}
//	{"type": "projectUpdate", "data": {"projectId": "p1", "kind": "camera", "timestamp": "...", "originUserId": "user_y"}}
//
// # Keepalive
//
// The server pings every 54 seconds and drops connections that do not
// answer within 60. Clients may also send an application-level ping and
// receive a pong message.
package websocket

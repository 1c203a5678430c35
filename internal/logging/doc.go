// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package logging wraps a process-wide zerolog logger for Modelview.
//
// Every package logs through this one logger so that gateway, bus, store and
// pipeline output share a format and a level.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("project_id", id).Msg("Project created")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Broadcast dropped")
//
//	gw := logging.WithComponent("gateway")
//	gw.Debug().Str("user_id", uid).Msg("Session registered")
//
// # Request Context
//
// The API layer stores a request ID and the acting user ID on the request
// context. Ctx picks both up so handler logs can be correlated with the
// projectUpdate fan-out they trigger.
//
// # Suture
//
// NewSlogLogger adapts the zerolog logger to log/slog so the supervisor tree
// can hand it to sutureslog.
package logging

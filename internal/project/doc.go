// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package project applies RPC mutations to stored project documents and
// announces them on the event bus.
//
// Every mutating method takes the calling user's id. When the mutation
// changes stored state, exactly one models.ProjectUpdate tagged with that
// id is published; a mutation that leaves the document as it was reports
// false and publishes nothing. Reads enrich chat messages and annotations
// with the author's current display name from the user directory.
package project

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package store persists project documents and the user directory.
//
// Two backends implement the same interfaces: an in-memory map for tests and
// single-process development, and BadgerDB for durable storage. Each project
// mutation is an atomic read-modify-write of one document, which makes the
// store the single serialization point for concurrent writers. Singleton
// fields (camera, model transform) are last-write-wins.
package store

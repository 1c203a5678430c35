// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

// Package spatial resolves the mesh vertex under a pointer so annotations
// can be anchored to model geometry.
//
// The pieces, leaves first:
//
//   - ParseSTL decodes binary or ASCII STL into a Mesh whose candidate
//     vertices are the triangle corners in file order.
//   - ModelMatrix composes a models.ModelTransform into a local-to-world
//     matrix (translate, Euler XYZ rotate, scale).
//   - CameraRay and Mesh.Intersect turn a pointer position in normalized
//     device coordinates into a world-space hit point.
//   - NearestVertex scans candidates for the one closest to a world point.
//   - ModeState tracks the Transform/Note interaction mode.
//   - Resolver ties these together and only scans while Note mode is active.
//
// Vector and matrix math uses github.com/go-gl/mathgl/mgl64.
package spatial

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package spatial

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomtom215/modelview/internal/models"
)

// Vec converts a wire vector to mgl64.
func Vec(v models.Vector3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromVec converts an mgl64 vector to the wire type.
func FromVec(v mgl64.Vec3) models.Vector3 {
	return models.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// EulerXYZ returns the rotation matrix for Euler angles applied in XYZ
// order, i.e. Rx * Ry * Rz.
func EulerXYZ(r models.Vector3) mgl64.Mat4 {
	return mgl64.HomogRotate3DX(r.X).
		Mul4(mgl64.HomogRotate3DY(r.Y)).
		Mul4(mgl64.HomogRotate3DZ(r.Z))
}

// ModelMatrix composes T(origin) * R(rotation) * S(scale).
func ModelMatrix(t models.ModelTransform) mgl64.Mat4 {
	return mgl64.Translate3D(t.Origin.X, t.Origin.Y, t.Origin.Z).
		Mul4(EulerXYZ(t.Rotation)).
		Mul4(mgl64.Scale3D(t.Scale.X, t.Scale.Y, t.Scale.Z))
}

// TransformPoint applies m to p as a position (w = 1).
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// MarkerScale is the on-screen size factor for vertex markers: proportional
// to the camera's distance from the world origin.
func MarkerScale(cameraPosition models.Vector3) float64 {
	return 0.003 * Vec(cameraPosition).Len()
}

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomtom215/modelview/internal/models"
)

// DefaultFOV is the vertical field of view in degrees of the viewer camera.
const DefaultFOV = 75.0

const rayEpsilon = 1e-9

// Ray is a half-line in world space. Dir is unit length.
type Ray struct {
	Origin mgl64.Vec3
	Dir    mgl64.Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Pointer is a position on the canvas in normalized device coordinates:
// x and y in [-1, 1], +y up, (0,0) at the canvas center.
type Pointer struct {
	X, Y float64
}

// PointerFromPixels converts a pixel position inside a w x h canvas to NDC.
func PointerFromPixels(px, py, w, h float64) Pointer {
	return Pointer{
		X: px/w*2 - 1,
		Y: -(py/h*2 - 1),
	}
}

// Lens describes a perspective projection.
type Lens struct {
	FOV    float64 // vertical, degrees
	Aspect float64 // width / height
}

// DefaultLens is a 75 degree lens on a square canvas.
func DefaultLens() Lens {
	return Lens{FOV: DefaultFOV, Aspect: 1}
}

// CameraRay returns the world ray through pointer p for a perspective camera
// at cam looking down its local -Z axis.
func CameraRay(cam models.Camera, lens Lens, p Pointer) Ray {
	fov := lens.FOV
	if fov <= 0 {
		fov = DefaultFOV
	}
	aspect := lens.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	h := math.Tan(mgl64.DegToRad(fov) / 2)
	local := mgl64.Vec3{p.X * h * aspect, p.Y * h, -1}
	dir := EulerXYZ(cam.Rotation).Mul4x1(local.Vec4(0)).Vec3().Normalize()
	return Ray{Origin: Vec(cam.Position), Dir: dir}
}

// IntersectTriangle returns the distance along r to triangle (a, b, c), using
// the Moller-Trumbore test. Both faces count as hits.
func IntersectTriangle(r Ray, a, b, c mgl64.Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < rayEpsilon {
		return 0, false
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * inv
	if t <= rayEpsilon {
		return 0, false
	}
	return t, true
}

// Intersect returns the nearest world-space point where r hits m placed by
// model, or false when it misses.
func (m *Mesh) Intersect(r Ray, model mgl64.Mat4) (mgl64.Vec3, bool) {
	if m == nil {
		return mgl64.Vec3{}, false
	}
	best := math.Inf(1)
	for _, tri := range m.Triangles {
		a := TransformPoint(model, tri[0])
		b := TransformPoint(model, tri[1])
		c := TransformPoint(model, tri[2])
		if t, ok := IntersectTriangle(r, a, b, c); ok && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return mgl64.Vec3{}, false
	}
	return r.At(best), true
}

// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/tomtom215/modelview/internal/models"
)

func TestCameraRayCenter(t *testing.T) {
	t.Parallel()

	r := CameraRay(models.DefaultCamera(), DefaultLens(), Pointer{})
	if !near(r.Origin, mgl64.Vec3{0, 0, 5}) {
		t.Errorf("origin = %v, want (0,0,5)", r.Origin)
	}
	if !near(r.Dir, mgl64.Vec3{0, 0, -1}) {
		t.Errorf("dir = %v, want (0,0,-1)", r.Dir)
	}
}

func TestCameraRayRotated(t *testing.T) {
	t.Parallel()

	// Yaw a quarter turn left: the camera looks down -X.
	cam := models.Camera{Rotation: models.Vector3{Y: math.Pi / 2}}
	r := CameraRay(cam, DefaultLens(), Pointer{})
	if !near(r.Dir, mgl64.Vec3{-1, 0, 0}) {
		t.Errorf("dir = %v, want (-1,0,0)", r.Dir)
	}
}

func TestCameraRayEdgeOfFrustum(t *testing.T) {
	t.Parallel()

	// At the top edge the ray makes half the vertical FOV with the view axis.
	r := CameraRay(models.DefaultCamera(), Lens{FOV: 90, Aspect: 1}, Pointer{Y: 1})
	angle := math.Atan2(r.Dir.Y(), -r.Dir.Z())
	if math.Abs(angle-math.Pi/4) > 1e-9 {
		t.Errorf("edge angle = %v, want pi/4", angle)
	}
}

func TestPointerFromPixels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		px, py float64
		want   Pointer
	}{
		{400, 300, Pointer{0, 0}},
		{0, 0, Pointer{-1, 1}},
		{800, 600, Pointer{1, -1}},
	}
	for _, tt := range tests {
		if got := PointerFromPixels(tt.px, tt.py, 800, 600); got != tt.want {
			t.Errorf("PointerFromPixels(%v,%v) = %v, want %v", tt.px, tt.py, got, tt.want)
		}
	}
}

func TestIntersectTriangle(t *testing.T) {
	t.Parallel()

	a, b, c := mgl64.Vec3{-1, -1, 0}, mgl64.Vec3{1, -1, 0}, mgl64.Vec3{0, 1, 0}

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float64
	}{
		{"front face", Ray{mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}}, true, 5},
		{"back face", Ray{mgl64.Vec3{0, 0, -2}, mgl64.Vec3{0, 0, 1}}, true, 2},
		{"miss outside", Ray{mgl64.Vec3{3, 3, 5}, mgl64.Vec3{0, 0, -1}}, false, 0},
		{"behind origin", Ray{mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 1}}, false, 0},
		{"parallel", Ray{mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 0}}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := IntersectTriangle(tt.ray, a, b, c)
			if ok != tt.hit {
				t.Fatalf("hit = %v, want %v", ok, tt.hit)
			}
			if ok && math.Abs(got-tt.wantT) > eps {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}

func TestMeshIntersectNearestHit(t *testing.T) {
	t.Parallel()

	// Two parallel quads; the ray must stop at the closer one.
	m := &Mesh{Triangles: append(unitQuad().Triangles,
		Triangle{{-1, -1, 2}, {1, -1, 2}, {1, 1, 2}},
		Triangle{{-1, -1, 2}, {1, 1, 2}, {-1, 1, 2}},
	)}
	r := Ray{mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, -1}}

	p, ok := m.Intersect(r, mgl64.Ident4())
	if !ok {
		t.Fatal("expected a hit")
	}
	if !near(p, mgl64.Vec3{0, 0, 2}) {
		t.Errorf("hit = %v, want (0,0,2)", p)
	}

	shifted := ModelMatrix(models.ModelTransform{Origin: models.Vector3{X: 10}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}})
	if _, ok := m.Intersect(r, shifted); ok {
		t.Error("ray should miss the translated mesh")
	}
}

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

const eps = 1e-9

// near compares vectors by absolute distance. mgl64's threshold helpers
// switch to a relative test when either side is zero.
func near(got, want mgl64.Vec3) bool {
	return got.Sub(want).Len() < eps
}

func TestModelMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tf   models.ModelTransform
		in   mgl64.Vec3
		want mgl64.Vec3
	}{
		{"identity", models.IdentityTransform(), mgl64.Vec3{1, 2, 3}, mgl64.Vec3{1, 2, 3}},
		{
			"translate",
			models.ModelTransform{Origin: models.Vector3{X: 10}, Scale: models.Vector3{X: 1, Y: 1, Z: 1}},
			mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{11, 0, 0},
		},
		{
			"scale then translate",
			models.ModelTransform{Origin: models.Vector3{Y: 1}, Scale: models.Vector3{X: 2, Y: 2, Z: 2}},
			mgl64.Vec3{1, 1, 1},
			mgl64.Vec3{2, 3, 2},
		},
		{
			"rotate z quarter turn",
			models.ModelTransform{Scale: models.Vector3{X: 1, Y: 1, Z: 1}, Rotation: models.Vector3{Z: math.Pi / 2}},
			mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{0, 1, 0},
		},
		{
			// XYZ order: Rz applies to the point first, then Rx.
			"euler xyz order",
			models.ModelTransform{Scale: models.Vector3{X: 1, Y: 1, Z: 1}, Rotation: models.Vector3{X: math.Pi / 2, Z: math.Pi / 2}},
			mgl64.Vec3{1, 0, 0},
			mgl64.Vec3{0, 0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TransformPoint(ModelMatrix(tt.tf), tt.in)
			if !near(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkerScale(t *testing.T) {
	t.Parallel()

	if got := MarkerScale(models.Vector3{Z: 5}); math.Abs(got-0.015) > eps {
		t.Errorf("MarkerScale((0,0,5)) = %v, want 0.015", got)
	}
	if got := MarkerScale(models.Vector3{X: 3, Y: 4}); math.Abs(got-0.015) > eps {
		t.Errorf("MarkerScale((3,4,0)) = %v, want 0.015", got)
	}
}

func TestVecRoundTrip(t *testing.T) {
	t.Parallel()

	v := models.Vector3{X: 1.5, Y: -2, Z: 3}
	if FromVec(Vec(v)) != v {
		t.Errorf("round trip changed %v", v)
	}
}

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

// NearestVertex returns the index of the vertex in local whose image under
// model is closest to the world point q. Ties go to the lowest index. It
// returns -1 for an empty candidate set.
func NearestVertex(local []mgl64.Vec3, model mgl64.Mat4, q mgl64.Vec3) int {
	best := -1
	bestDist := math.Inf(1)
	for i, v := range local {
		d := TransformPoint(model, v).Sub(q)
		dist := d.Dot(d)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

// ResolveNearest is NearestVertex over wire types. It returns false when
// vertices is empty.
func ResolveNearest(vertices []models.Vector3, t models.ModelTransform, q models.Vector3) (models.Vector3, bool) {
	local := make([]mgl64.Vec3, len(vertices))
	for i, v := range vertices {
		local[i] = Vec(v)
	}
	i := NearestVertex(local, ModelMatrix(t), Vec(q))
	if i < 0 {
		return models.Vector3{}, false
	}
	return vertices[i], true
}

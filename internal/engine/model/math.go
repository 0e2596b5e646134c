package model

import (
	gomath "math"
)

// Cross computes the cross product of two 3D vectors.
func Cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Normalize returns a unit vector in the same direction as v.
// Degenerate vectors map to +Y.
func Normalize(v [3]float32) [3]float32 {
	length := sqrtf(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if length < 0.0001 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}

// ComputeNormals fills smooth per-vertex normals by accumulating the face
// normals of every indexed triangle. Used for assets shipped without normals.
func ComputeNormals(vertices []Vertex, indices []uint32) {
	acc := make([][3]float32, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		p0, p1, p2 := vertices[i0].Position, vertices[i1].Position, vertices[i2].Position
		e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
		e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
		n := Cross(e1, e2)
		for _, idx := range [3]uint32{i0, i1, i2} {
			acc[idx][0] += n[0]
			acc[idx][1] += n[1]
			acc[idx][2] += n[2]
		}
	}
	for i := range vertices {
		vertices[i].Normal = Normalize(acc[i])
	}
}

func sqrtf(x float32) float32 {
	return float32(gomath.Sqrt(float64(x)))
}

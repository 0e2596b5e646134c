// Package model holds decoded mesh data and the placement rules for loaded models.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/material"
)

// Vertex represents a mesh vertex with position and normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// Mesh is a leaf geometry node ready for GPU upload.
type Mesh struct {
	Name          string
	Vertices      []Vertex
	Indices       []uint32
	Material      material.Physical
	CastShadow    bool
	ReceiveShadow bool
}

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// EmptyBounds returns an inverted box that any point will grow.
func EmptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

// IsEmpty reports whether no point was ever added.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0]
}

// Extend grows the box to contain p.
func (b Bounds) Extend(p [3]float32) Bounds {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
	return b
}

// Union returns the box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	return b.Extend(o.Min).Extend(o.Max)
}

// Transform returns the bounds of the eight transformed corners.
func (b Bounds) Transform(m mgl32.Mat4) Bounds {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBounds()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(mgl32.TransformCoordinate(corner, m))
	}
	return out
}

// MeshBounds computes the local-space bounds of a mesh.
func MeshBounds(m Mesh) Bounds {
	b := EmptyBounds()
	for _, v := range m.Vertices {
		b = b.Extend(v.Position)
	}
	return b
}

// Transform holds the per-model scale and position.
type Transform struct {
	Scale    mgl32.Vec3
	Position mgl32.Vec3
}

// Matrix returns translate * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/material"
)

// SlotSpacing is the distance between neighbouring model slots on X.
const SlotSpacing = 20

// slotOrigin is the X offset of slot 0.
const slotOrigin = -30

// Model is a decoded asset placed in its load slot.
type Model struct {
	SourcePath string
	LoadIndex  int
	Transform  Transform
	Meshes     []Mesh
}

// SlotPosition returns the world position for a load index. It depends only
// on the index, never on when the load completed.
func SlotPosition(loadIndex int) mgl32.Vec3 {
	return mgl32.Vec3{float32(loadIndex*SlotSpacing + slotOrigin), 0, 0}
}

// ApplyMaterial returns copies of meshes with mat assigned and shadow casting
// and receiving enabled. The input slice and its meshes are left untouched.
func ApplyMaterial(meshes []Mesh, mat material.Physical) []Mesh {
	out := make([]Mesh, len(meshes))
	for i, m := range meshes {
		m.Material = mat
		m.CastShadow = true
		m.ReceiveShadow = true
		out[i] = m
	}
	return out
}

// New builds a model in its slot with unit scale and mat on every mesh.
func New(sourcePath string, loadIndex int, meshes []Mesh, mat material.Physical) *Model {
	return &Model{
		SourcePath: sourcePath,
		LoadIndex:  loadIndex,
		Transform: Transform{
			Scale:    mgl32.Vec3{1, 1, 1},
			Position: SlotPosition(loadIndex),
		},
		Meshes: ApplyMaterial(meshes, mat),
	}
}

// Matrix returns the model's world matrix.
func (m *Model) Matrix() mgl32.Mat4 {
	return m.Transform.Matrix()
}

// Bounds returns the world-space bounds of every mesh.
func (m *Model) Bounds() Bounds {
	b := EmptyBounds()
	for _, mesh := range m.Meshes {
		b = b.Union(MeshBounds(mesh))
	}
	return b.Transform(m.Matrix())
}

// TriangleCount returns the total number of indexed triangles.
func (m *Model) TriangleCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += len(mesh.Indices) / 3
	}
	return n
}

package model

import "github.com/Faultbox/modelviewer/internal/engine/material"

// GroundSize is the edge length of the square floor.
const GroundSize = 200

// Ground returns the floor plane lying in XZ at y=0, facing up. It receives
// shadows but never casts them.
func Ground() Mesh {
	h := float32(GroundSize) / 2
	up := [3]float32{0, 1, 0}
	return Mesh{
		Name: "ground",
		Vertices: []Vertex{
			{Position: [3]float32{-h, 0, -h}, Normal: up},
			{Position: [3]float32{-h, 0, h}, Normal: up},
			{Position: [3]float32{h, 0, h}, Normal: up},
			{Position: [3]float32{h, 0, -h}, Normal: up},
		},
		Indices:       []uint32{0, 1, 2, 0, 2, 3},
		Material:      material.Ground(),
		CastShadow:    false,
		ReceiveShadow: true,
	}
}

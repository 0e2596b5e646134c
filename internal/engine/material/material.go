// Package material describes surface parameters for the forward shader.
package material

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/lighting"
)

// Physical is a metalness/roughness material with a clearcoat layer.
// A Standard material is a Physical with no clearcoat.
type Physical struct {
	BaseColor          mgl32.Vec3
	Metalness          float32
	Roughness          float32
	Clearcoat          float32
	ClearcoatRoughness float32
}

// Showcase is the polished grey metal applied to every loaded mesh.
func Showcase() Physical {
	return Physical{
		BaseColor:          lighting.RGB(0x808080),
		Metalness:          0.9,
		Roughness:          0.1,
		Clearcoat:          1.0,
		ClearcoatRoughness: 0.1,
	}
}

// Standard returns a material without clearcoat.
func Standard(color uint32, metalness, roughness float32) Physical {
	return Physical{
		BaseColor: lighting.RGB(color),
		Metalness: metalness,
		Roughness: roughness,
	}
}

// Ground is the dull dark floor material.
func Ground() Physical {
	return Standard(0x333333, 0.2, 0.8)
}

// Uniforms packs the material as two vec4s: (rgb, metalness) and
// (roughness, clearcoat, clearcoatRoughness, 0).
func (m Physical) Uniforms() (mgl32.Vec4, mgl32.Vec4) {
	return m.BaseColor.Vec4(m.Metalness),
		mgl32.Vec4{m.Roughness, m.Clearcoat, m.ClearcoatRoughness, 0}
}

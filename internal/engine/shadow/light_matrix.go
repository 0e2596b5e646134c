package shadow

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/model"
)

// minRadius keeps the shadow frustum usable for an empty or flat scene.
const minRadius = 1

// LightMatrix computes the view-projection for a directional shadow map.
// lightDir is the normalized direction TO the light. The orthographic
// frustum is fitted around the bounding sphere of bounds.
func LightMatrix(lightDir mgl32.Vec3, bounds model.Bounds) mgl32.Mat4 {
	center, radius := sphere(bounds)

	// Position light far enough to encompass entire scene
	lightDistance := radius * 2
	lightPos := center.Add(lightDir.Mul(lightDistance))

	// Avoid an up vector parallel to the light direction
	up := mgl32.Vec3{0, 1, 0}
	if abs32(lightDir[1]) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}
	view := mgl32.LookAtV(lightPos, center, up)

	padding := radius * 0.1
	halfSize := radius + padding
	near := float32(0.1)
	far := lightDistance + radius + padding
	proj := mgl32.Ortho(-halfSize, halfSize, -halfSize, halfSize, near, far)

	return proj.Mul4(view)
}

func sphere(b model.Bounds) (mgl32.Vec3, float32) {
	if b.IsEmpty() {
		return mgl32.Vec3{}, minRadius
	}
	lo, hi := mgl32.Vec3(b.Min), mgl32.Vec3(b.Max)
	center := lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius < minRadius {
		radius = minRadius
	}
	return center, radius
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

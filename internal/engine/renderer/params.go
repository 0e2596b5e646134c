package renderer

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/modelviewer/internal/engine/compositor"
)

// bloomKernelRadii is the blur kernel radius per mip level.
var bloomKernelRadii = [compositor.BloomMips]int{3, 5, 7, 9, 11}

// bloomFactors weight the mips from sharpest to widest.
var bloomFactors = [compositor.BloomMips]float32{1.0, 0.8, 0.6, 0.4, 0.2}

// brightSmoothWidth softens the threshold edge of the bright pass.
const brightSmoothWidth = 0.01

// gaussianWeights returns normalized one-sided weights for a kernel of the
// given radius with sigma equal to the radius. weights[0] is the centre tap.
func gaussianWeights(radius int) []float32 {
	if radius < 1 {
		return []float32{1}
	}
	sigma := float64(radius)
	w := make([]float32, radius+1)
	var sum float64
	for i := 0; i <= radius; i++ {
		g := 0.39894 * gomath.Exp(-0.5*float64(i*i)/(sigma*sigma)) / sigma
		w[i] = float32(g)
		if i == 0 {
			sum += g
		} else {
			sum += 2 * g
		}
	}
	for i := range w {
		w[i] = float32(float64(w[i]) / sum)
	}
	return w
}

// mipFactors blends each mip weight towards its mirror as radius grows,
// so a larger radius favours the wider mips.
func mipFactors(radius float32) [compositor.BloomMips]float32 {
	var out [compositor.BloomMips]float32
	for i, f := range bloomFactors {
		mirror := 1.2 - f
		out[i] = f + (mirror-f)*radius
	}
	return out
}

// srgbToLinear converts an sRGB colour to linear light.
func srgbToLinear(c mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i, v := range c {
		if v <= 0.04045 {
			out[i] = v / 12.92
		} else {
			out[i] = float32(gomath.Pow((float64(v)+0.055)/1.055, 2.4))
		}
	}
	return out
}

func drawableSize(width, height int, ratio float32) (int, int) {
	if ratio < 1 {
		ratio = 1
	}
	return int(gomath.Round(float64(float32(width) * ratio))), int(gomath.Round(float64(float32(height) * ratio)))
}

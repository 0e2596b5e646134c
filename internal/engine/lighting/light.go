// Package lighting defines the fixed light set of the showcase scene.
package lighting

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights is the maximum number of point lights supported in shaders.
const MaxPointLights = 32

// Kind tags a light variant.
type Kind int

const (
	KindAmbient Kind = iota
	KindDirectional
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindAmbient:
		return "ambient"
	case KindDirectional:
		return "directional"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Light is one of Ambient, Directional or Point.
type Light interface {
	Kind() Kind
}

// Ambient lights every surface uniformly.
type Ambient struct {
	Color     mgl32.Vec3
	Intensity float32
}

// Directional is a sun-style light. Position is where the light sits; it
// shines towards the origin.
type Directional struct {
	Color         mgl32.Vec3
	Intensity     float32
	Position      mgl32.Vec3
	CastShadow    bool
	ShadowMapSize int32
}

// Point radiates from Position with linear falloff to zero at Range.
type Point struct {
	Color     mgl32.Vec3
	Intensity float32
	Position  mgl32.Vec3
	Range     float32
}

func (Ambient) Kind() Kind     { return KindAmbient }
func (Directional) Kind() Kind { return KindDirectional }
func (Point) Kind() Kind       { return KindPoint }

// Direction returns the normalized direction towards the light.
func (d Directional) Direction() mgl32.Vec3 {
	if d.Position.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return d.Position.Normalize()
}

// RGB converts a 0xRRGGBB colour to linear 0-1 components.
func RGB(hex uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32((hex>>16)&0xff) / 255,
		float32((hex>>8)&0xff) / 255,
		float32(hex&0xff) / 255,
	}
}

// Set is an immutable collection of lights created once at scene setup.
type Set struct {
	lights []Light
}

// NewSet copies lights into a new Set.
func NewSet(lights ...Light) Set {
	return Set{lights: append([]Light(nil), lights...)}
}

// DefaultSet returns the showcase lighting: a soft white fill, a shadow
// casting key light and a blue point light above the models.
func DefaultSet() Set {
	return NewSet(
		Ambient{Color: RGB(0xffffff), Intensity: 0.5},
		Directional{
			Color:         RGB(0xffffff),
			Intensity:     1,
			Position:      mgl32.Vec3{5, 10, 5},
			CastShadow:    true,
			ShadowMapSize: 2048,
		},
		Point{
			Color:     RGB(0x2196f3),
			Intensity: 2,
			Position:  mgl32.Vec3{0, 50, 0},
			Range:     100,
		},
	)
}

// All returns a copy of the lights in creation order.
func (s Set) All() []Light {
	return append([]Light(nil), s.lights...)
}

// Len returns the number of lights.
func (s Set) Len() int {
	return len(s.lights)
}

// Ambient sums all ambient lights into one colour.
func (s Set) Ambient() mgl32.Vec3 {
	var sum mgl32.Vec3
	for _, l := range s.lights {
		if a, ok := l.(Ambient); ok {
			sum = sum.Add(a.Color.Mul(a.Intensity))
		}
	}
	return sum
}

// Directional returns the first directional light, if any.
func (s Set) Directional() (Directional, bool) {
	for _, l := range s.lights {
		if d, ok := l.(Directional); ok {
			return d, true
		}
	}
	return Directional{}, false
}

// Points returns all point lights, truncated to MaxPointLights.
func (s Set) Points() []Point {
	var out []Point
	for _, l := range s.lights {
		if p, ok := l.(Point); ok {
			out = append(out, p)
			if len(out) == MaxPointLights {
				break
			}
		}
	}
	return out
}

// PointBuffer holds point light data flattened for uniform upload.
type PointBuffer struct {
	Positions []float32 // [x0, y0, z0, x1, ...], MaxPointLights*3
	Colors    []float32 // premultiplied by intensity
	Ranges    []float32
	Count     int32
}

// PackPoints flattens the set's point lights for GPU upload.
func PackPoints(s Set) PointBuffer {
	buf := PointBuffer{
		Positions: make([]float32, MaxPointLights*3),
		Colors:    make([]float32, MaxPointLights*3),
		Ranges:    make([]float32, MaxPointLights),
	}
	for i, p := range s.Points() {
		c := p.Color.Mul(p.Intensity)
		copy(buf.Positions[i*3:], p.Position[:])
		copy(buf.Colors[i*3:], c[:])
		buf.Ranges[i] = p.Range
		buf.Count++
	}
	return buf
}

package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// polarEpsilon keeps the camera off the exact poles where LookAt degenerates.
const polarEpsilon = 1e-6

// OrbitConfig holds orbit control tuning.
type OrbitConfig struct {
	DampingFactor float32
	MinPolar      float32 // radians from +Y
	MaxPolar      float32
	MinDistance   float32
	MaxDistance   float32
	RotateSpeed   float32
	ZoomSpeed     float32
}

// DefaultOrbitConfig keeps the camera above the ground plane with gentle inertia.
func DefaultOrbitConfig() OrbitConfig {
	return OrbitConfig{
		DampingFactor: 0.05,
		MinPolar:      0,
		MaxPolar:      gomath.Pi / 2,
		MinDistance:   5,
		MaxDistance:   500,
		RotateSpeed:   1,
		ZoomSpeed:     1,
	}
}

// OrbitControls rotates a camera around its target with damped inertia.
// Input accumulates deltas; Update applies them once per frame.
type OrbitControls struct {
	Camera *Perspective
	Config OrbitConfig

	// Spherical coordinates relative to the target
	radius float32
	theta  float32 // azimuth around +Y, from +Z
	phi    float32 // polar angle from +Y

	deltaTheta float32
	deltaPhi   float32
	scale      float32
}

// NewOrbitControls attaches controls to cam, starting from its current position.
func NewOrbitControls(cam *Perspective, cfg OrbitConfig) *OrbitControls {
	o := &OrbitControls{Camera: cam, Config: cfg, scale: 1}
	o.syncFromCamera()
	o.apply()
	return o
}

func (o *OrbitControls) syncFromCamera() {
	off := o.Camera.Position.Sub(o.Camera.Target)
	o.radius = off.Len()
	if o.radius == 0 {
		o.theta, o.phi = 0, 0
		return
	}
	o.theta = float32(gomath.Atan2(float64(off[0]), float64(off[2])))
	o.phi = float32(gomath.Acos(float64(mgl32.Clamp(off[1]/o.radius, -1, 1))))
}

// Rotate queues an azimuth and polar change in radians. Positive dTheta
// orbits left, positive dPhi lowers the camera towards the ground.
func (o *OrbitControls) Rotate(dTheta, dPhi float32) {
	o.deltaTheta += dTheta
	o.deltaPhi += dPhi
}

// Zoom queues a radius multiplier. Values below 1 move closer.
func (o *OrbitControls) Zoom(factor float32) {
	if factor > 0 {
		o.scale *= factor
	}
}

// HandleDrag converts a pointer drag in pixels into rotation. A drag across
// the full viewport height turns the camera one full revolution.
func (o *OrbitControls) HandleDrag(dx, dy float32, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	h := float32(viewportHeight)
	o.Rotate(-2*gomath.Pi*dx/h*o.Config.RotateSpeed, -2*gomath.Pi*dy/h*o.Config.RotateSpeed)
}

// HandleWheel zooms in for positive dy (wheel away from the user).
func (o *OrbitControls) HandleWheel(dy float32) {
	step := float32(gomath.Pow(0.95, float64(o.Config.ZoomSpeed)))
	switch {
	case dy > 0:
		o.Zoom(step)
	case dy < 0:
		o.Zoom(1 / step)
	}
}

// Update applies a damped fraction of the queued rotation, clamps the polar
// angle and distance, and writes the camera position. dt is unused: damping
// is applied per tick. It reports whether the camera moved.
func (o *OrbitControls) Update(dt float32) bool {
	_ = dt
	before := o.Camera.Position

	d := o.Config.DampingFactor
	if d > 0 && d < 1 {
		o.theta += o.deltaTheta * d
		o.phi += o.deltaPhi * d
	} else {
		o.theta += o.deltaTheta
		o.phi += o.deltaPhi
	}
	o.radius *= o.scale
	o.apply()

	if d > 0 && d < 1 {
		o.deltaTheta *= 1 - d
		o.deltaPhi *= 1 - d
	} else {
		o.deltaTheta, o.deltaPhi = 0, 0
	}
	o.scale = 1

	return o.Camera.Position.Sub(before).Len() > 1e-6
}

// apply clamps the spherical state and writes it to the camera.
func (o *OrbitControls) apply() {
	o.phi = mgl32.Clamp(o.phi, o.Config.MinPolar, o.Config.MaxPolar)
	o.phi = mgl32.Clamp(o.phi, polarEpsilon, gomath.Pi-polarEpsilon)
	if o.Config.MaxDistance > 0 {
		o.radius = mgl32.Clamp(o.radius, o.Config.MinDistance, o.Config.MaxDistance)
	} else if o.radius < o.Config.MinDistance {
		o.radius = o.Config.MinDistance
	}

	sinPhi := float32(gomath.Sin(float64(o.phi)))
	off := mgl32.Vec3{
		o.radius * sinPhi * float32(gomath.Sin(float64(o.theta))),
		o.radius * float32(gomath.Cos(float64(o.phi))),
		o.radius * sinPhi * float32(gomath.Cos(float64(o.theta))),
	}
	o.Camera.Position = o.Camera.Target.Add(off)
}

// Polar returns the current polar angle in radians.
func (o *OrbitControls) Polar() float32 { return o.phi }

// Azimuth returns the current azimuth in radians.
func (o *OrbitControls) Azimuth() float32 { return o.theta }

// Distance returns the current distance from the target.
func (o *OrbitControls) Distance() float32 { return o.radius }

// OnViewportResize implements viewport.ResizeListener.
func (o *OrbitControls) OnViewportResize(width, height int, ratio float32) {
	o.Camera.OnViewportResize(width, height, ratio)
}

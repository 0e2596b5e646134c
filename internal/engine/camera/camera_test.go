package camera

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestControls() (*Perspective, *OrbitControls) {
	cam := NewPerspective(DefaultFOV, 800.0/600.0, DefaultNear, DefaultFar)
	return cam, NewOrbitControls(cam, DefaultOrbitConfig())
}

func TestNewPerspectiveDefaults(t *testing.T) {
	cam := NewPerspective(DefaultFOV, 4.0/3.0, DefaultNear, DefaultFar)
	if cam.Position != (mgl32.Vec3{50, 80, 80}) {
		t.Errorf("expected start at (50,80,80), got %v", cam.Position)
	}
	want := mgl32.Perspective(mgl32.DegToRad(75), 4.0/3.0, 0.1, 1000)
	if !cam.Projection().ApproxEqual(want) {
		t.Errorf("unexpected projection %v", cam.Projection())
	}
}

func TestAspectFollowsResize(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{800, 600},
		{1920, 1080},
		{600, 800},
		{1, 1},
	}

	cam, controls := newTestControls()
	for _, tt := range tests {
		controls.OnViewportResize(tt.w, tt.h, 1)
		want := float32(tt.w) / float32(tt.h)
		if cam.Aspect != want {
			t.Errorf("%dx%d: expected aspect %v, got %v", tt.w, tt.h, want, cam.Aspect)
		}
		proj := mgl32.Perspective(mgl32.DegToRad(75), want, 0.1, 1000)
		if !cam.Projection().ApproxEqual(proj) {
			t.Errorf("%dx%d: projection not recomputed", tt.w, tt.h)
		}
	}
}

func TestSetAspectIgnoresInvalid(t *testing.T) {
	cam := NewPerspective(DefaultFOV, 2, DefaultNear, DefaultFar)
	for _, a := range []float32{0, -1, float32(gomath.NaN()), float32(gomath.Inf(1))} {
		cam.SetAspect(a)
	}
	if cam.Aspect != 2 {
		t.Errorf("expected aspect to stay 2, got %v", cam.Aspect)
	}
}

func TestOrbitPreservesStartPosition(t *testing.T) {
	cam, controls := newTestControls()
	if !cam.Position.ApproxEqualThreshold(mgl32.Vec3{50, 80, 80}, 1e-3) {
		t.Errorf("expected controls to keep (50,80,80), got %v", cam.Position)
	}
	if controls.Update(1.0 / 60) {
		t.Error("expected no movement without input")
	}
}

func TestDampedRotation(t *testing.T) {
	_, controls := newTestControls()
	start := controls.Azimuth()

	controls.Rotate(1, 0)
	controls.Update(1.0 / 60)
	first := controls.Azimuth() - start
	if !mgl32.FloatEqualThreshold(first, 0.05, 1e-5) {
		t.Errorf("expected first step 0.05, got %v", first)
	}

	controls.Update(1.0 / 60)
	second := controls.Azimuth() - start - first
	if !mgl32.FloatEqualThreshold(second, 0.0475, 1e-5) {
		t.Errorf("expected second step 0.0475, got %v", second)
	}

	for i := 0; i < 1000; i++ {
		controls.Update(1.0 / 60)
	}
	total := controls.Azimuth() - start
	if !mgl32.FloatEqualThreshold(total, 1, 1e-3) {
		t.Errorf("expected inertia to converge to 1 rad, got %v", total)
	}
}

func TestPolarClamp(t *testing.T) {
	cam, controls := newTestControls()

	controls.Rotate(0, 100)
	for i := 0; i < 500; i++ {
		controls.Update(1.0 / 60)
		if controls.Polar() > gomath.Pi/2+1e-6 {
			t.Fatalf("polar angle %v exceeded 90 degrees", controls.Polar())
		}
	}
	if cam.Position[1] < -1e-3 {
		t.Errorf("camera went below the ground: %v", cam.Position)
	}

	controls.Rotate(0, -100)
	for i := 0; i < 500; i++ {
		controls.Update(1.0 / 60)
	}
	if controls.Polar() <= 0 {
		t.Errorf("polar angle must stay off the pole, got %v", controls.Polar())
	}
}

func TestZoomClamp(t *testing.T) {
	_, controls := newTestControls()
	start := controls.Distance()

	controls.HandleWheel(1)
	controls.Update(0)
	if controls.Distance() >= start {
		t.Errorf("expected wheel up to zoom in: %v -> %v", start, controls.Distance())
	}

	for i := 0; i < 200; i++ {
		controls.HandleWheel(-1)
		controls.Update(0)
	}
	if controls.Distance() != 500 {
		t.Errorf("expected distance clamped to 500, got %v", controls.Distance())
	}

	for i := 0; i < 500; i++ {
		controls.HandleWheel(1)
		controls.Update(0)
	}
	if controls.Distance() != 5 {
		t.Errorf("expected distance clamped to 5, got %v", controls.Distance())
	}
}

func TestHandleDrag(t *testing.T) {
	_, controls := newTestControls()
	controls.Config.DampingFactor = 0
	start := controls.Azimuth()

	controls.HandleDrag(300, 0, 600)
	controls.Update(0)
	if !mgl32.FloatEqualThreshold(controls.Azimuth()-start, -gomath.Pi, 1e-4) {
		t.Errorf("expected half-height drag to turn -pi, got %v", controls.Azimuth()-start)
	}

	controls.HandleDrag(10, 10, 0)
	if controls.Update(0) {
		t.Error("drag with zero viewport height must be ignored")
	}
}

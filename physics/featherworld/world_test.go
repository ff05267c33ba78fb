package featherworld

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/feather/actor"
	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
)

const dt = 1.0 / 60.0

func newScene(t *testing.T) (*World, physics.BodyHandle) {
	t.Helper()

	w := New(physics.DefaultConfig())
	if _, err := w.CreateBody(physics.BodyDesc{
		Shape:      physics.Plane{Normal: mgl64.Vec3{0, 1, 0}},
		Pose:       physics.IdentityPose(),
		MotionType: physics.MotionStatic,
	}); err != nil {
		t.Fatalf("CreateBody(ground) error = %v", err)
	}

	cube, err := w.CreateBody(physics.BodyDesc{
		Shape:      physics.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
		Pose:       physics.Pose{Position: mgl64.Vec3{0, 5, 0}, Orientation: mgl64.QuatIdent()},
		Mass:       1,
		MotionType: physics.MotionDynamic,
	})
	if err != nil {
		t.Fatalf("CreateBody(cube) error = %v", err)
	}
	return w, cube
}

// =============================================================================
// CreateBody Tests
// =============================================================================

func TestCreateBody_MassToDensity(t *testing.T) {
	w := New(physics.DefaultConfig())
	h, err := w.CreateBody(physics.BodyDesc{
		Shape:      physics.Box{HalfExtents: mgl64.Vec3{0.5, 1, 2}},
		Pose:       physics.IdentityPose(),
		Mass:       3,
		MotionType: physics.MotionDynamic,
	})
	if err != nil {
		t.Fatal(err)
	}

	rb := w.bodies[h]
	if got := rb.Material.GetMass(); math.Abs(got-3) > 1e-12 {
		t.Errorf("mass = %v, want 3", got)
	}
	if rb.BodyType != actor.BodyTypeDynamic {
		t.Errorf("BodyType = %v, want dynamic", rb.BodyType)
	}
}

func TestCreateBody_PlaneBecomesSlab(t *testing.T) {
	w := New(physics.DefaultConfig())
	h, err := w.CreateBody(physics.BodyDesc{
		Shape:      physics.Plane{Normal: mgl64.Vec3{0, 1, 0}, Offset: 2},
		Pose:       physics.IdentityPose(),
		MotionType: physics.MotionStatic,
	})
	if err != nil {
		t.Fatal(err)
	}

	rb := w.bodies[h]
	if rb.BodyType != actor.BodyTypeStatic {
		t.Errorf("BodyType = %v, want static", rb.BodyType)
	}
	// top face at y = 2
	top := rb.Transform.Position.Y() + PlaneHalfDepth
	if math.Abs(top-2) > 1e-12 {
		t.Errorf("slab top = %v, want 2", top)
	}
}

func TestCreateBody_Invalid(t *testing.T) {
	tests := []struct {
		name string
		desc physics.BodyDesc
	}{
		{"nil shape", physics.BodyDesc{Mass: 1, Pose: physics.IdentityPose()}},
		{"degenerate box", physics.BodyDesc{Shape: physics.Box{}, Mass: 1, Pose: physics.IdentityPose()}},
		{"massless dynamic", physics.BodyDesc{Shape: physics.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, Pose: physics.IdentityPose()}},
		{"dynamic plane", physics.BodyDesc{Shape: physics.Plane{Normal: mgl64.Vec3{0, 1, 0}}, Mass: 1, Pose: physics.IdentityPose()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(physics.DefaultConfig())
			if _, err := w.CreateBody(tt.desc); !errors.Is(err, physics.ErrInvalidHandle) {
				t.Errorf("CreateBody() error = %v, want ErrInvalidHandle", err)
			}
			if len(w.engine.Bodies) != 0 {
				t.Errorf("engine holds %d bodies after a failed create", len(w.engine.Bodies))
			}
		})
	}
}

func TestCreateBody_Capacity(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.MaxBodies = 1
	w := New(cfg)

	desc := physics.BodyDesc{
		Shape: physics.Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
		Pose:  physics.IdentityPose(),
		Mass:  1,
	}
	if _, err := w.CreateBody(desc); err != nil {
		t.Fatal(err)
	}
	if _, err := w.CreateBody(desc); !errors.Is(err, physics.ErrInvalidHandle) {
		t.Errorf("CreateBody() past capacity error = %v, want ErrInvalidHandle", err)
	}
}

// =============================================================================
// Step Tests
// =============================================================================

func TestStep_Falls(t *testing.T) {
	w, cube := newScene(t)

	before, _ := w.Pose(cube)
	w.Step(dt, 1)
	after, err := w.Pose(cube)
	if err != nil {
		t.Fatal(err)
	}

	if after.Position.Y() >= before.Position.Y() {
		t.Errorf("y after step = %v, want below %v", after.Position.Y(), before.Position.Y())
	}
	if n := after.Orientation.Len(); math.Abs(n-1) > 1e-5 {
		t.Errorf("|q| = %v, want 1", n)
	}
}

func TestStep_OneEngineStepPerSubstep(t *testing.T) {
	w, _ := newScene(t)

	w.Step(dt, 0)
	if w.engine.Substeps != 1 {
		t.Errorf("Substeps = %d, want 1", w.engine.Substeps)
	}
	w.Step(dt, 8)
	if w.engine.Substeps != 1 {
		t.Errorf("Substeps = %d, want 1, substeps are driven one engine step at a time", w.engine.Substeps)
	}
}

// =============================================================================
// Sleep Tests
// =============================================================================

// floating returns a world without gravity holding one cube at rest
func floating(t *testing.T, sleepTime float64, obs physics.Observer) (*World, physics.BodyHandle) {
	t.Helper()

	cfg := physics.DefaultConfig()
	cfg.Gravity = 0
	cfg.SleepTime = sleepTime
	cfg.Observer = obs
	w := New(cfg)
	cube, err := w.CreateBody(physics.BodyDesc{
		Shape:      physics.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
		Pose:       physics.Pose{Position: mgl64.Vec3{0, 5, 0}, Orientation: mgl64.QuatIdent()},
		Mass:       1,
		MotionType: physics.MotionDynamic,
	})
	if err != nil {
		t.Fatal(err)
	}
	return w, cube
}

func TestSleep_ConfiguredTime(t *testing.T) {
	tests := []struct {
		name       string
		sleepTime  float64
		awakeAfter int
		asleepBy   int
	}{
		// feather alone sleeps a body after 0.1 s
		{"longer than feather", 1.0, 30, 65},
		{"shorter than feather", 0.05, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, cube := floating(t, tt.sleepTime, nil)

			for range tt.awakeAfter {
				w.Step(dt, 1)
			}
			if !w.IsActive(cube) {
				t.Fatalf("asleep after %d steps, want awake with SleepTime %v", tt.awakeAfter, tt.sleepTime)
			}
			for range tt.asleepBy - tt.awakeAfter {
				w.Step(dt, 1)
			}
			if w.IsActive(cube) {
				t.Errorf("awake after %d steps, want asleep with SleepTime %v", tt.asleepBy, tt.sleepTime)
			}
		})
	}
}

func TestSleep_CountsSubsteps(t *testing.T) {
	// 4 substeps of 1/240 s each count a quarter of a frame
	w, cube := floating(t, 0.5, nil)

	for range 20 {
		w.Step(dt, 4)
	}
	if !w.IsActive(cube) {
		t.Error("asleep after 1/3 s, want awake with SleepTime 0.5")
	}
	for range 20 {
		w.Step(dt, 4)
	}
	if w.IsActive(cube) {
		t.Error("awake after 2/3 s, want asleep with SleepTime 0.5")
	}
}

func TestSleep_Observer(t *testing.T) {
	obs := &recordingObserver{}
	w, cube := floating(t, 0.05, obs)

	for range 10 {
		w.Step(dt, 1)
	}
	if len(obs.slept) != 1 || obs.slept[0] != cube {
		t.Fatalf("slept = %v, want [%d]", obs.slept, cube)
	}

	w.Wake(cube)
	if len(obs.woke) != 1 || obs.woke[0] != cube {
		t.Errorf("woke = %v, want [%d]", obs.woke, cube)
	}
}

// =============================================================================
// Pose / Velocity / Wake Tests
// =============================================================================

func TestSetPose_OverwritesPreviousTransform(t *testing.T) {
	w, cube := newScene(t)
	w.Step(dt, 1)

	target := physics.Pose{
		Position:    mgl64.Vec3{1, 7, -2},
		Orientation: mgl64.QuatRotate(1, mgl64.Vec3{0, 0, 1}),
	}
	if err := w.SetPose(cube, target); err != nil {
		t.Fatal(err)
	}

	rb := w.bodies[cube]
	if rb.PreviousTransform.Position != target.Position {
		t.Errorf("PreviousTransform = %v, want %v", rb.PreviousTransform.Position, target.Position)
	}
	got, _ := w.Pose(cube)
	if got.Position != target.Position || !got.Orientation.ApproxEqualThreshold(target.Orientation, 1e-12) {
		t.Errorf("Pose() = %v, want %v", got, target)
	}
}

func TestWake_ReactivatesSleepingBody(t *testing.T) {
	w, cube := newScene(t)
	w.bodies[cube].Sleep()
	if w.IsActive(cube) {
		t.Fatal("IsActive() = true on a sleeping body")
	}

	if err := w.Wake(cube); err != nil {
		t.Fatal(err)
	}
	if !w.IsActive(cube) {
		t.Error("IsActive() = false after Wake")
	}
}

func TestVelocities(t *testing.T) {
	w, cube := newScene(t)

	w.SetLinearVelocity(cube, mgl64.Vec3{1, 2, 3})
	w.SetAngularVelocity(cube, mgl64.Vec3{0, 4, 0})

	if v, _ := w.LinearVelocity(cube); v != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("LinearVelocity() = %v, want (1, 2, 3)", v)
	}
	if v, _ := w.AngularVelocity(cube); v != (mgl64.Vec3{0, 4, 0}) {
		t.Errorf("AngularVelocity() = %v, want (0, 4, 0)", v)
	}
}

func TestObserver_Wake(t *testing.T) {
	obs := &recordingObserver{}
	cfg := physics.DefaultConfig()
	cfg.Observer = obs
	w := New(cfg)
	cube, _ := w.CreateBody(physics.BodyDesc{
		Shape:      physics.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
		Pose:       physics.Pose{Position: mgl64.Vec3{0, 50, 0}, Orientation: mgl64.QuatIdent()},
		Mass:       1,
		MotionType: physics.MotionDynamic,
	})

	// a body put to sleep by the engine side is reported after the step, Wake reports at once
	w.bodies[cube].Sleep()
	w.Step(dt, 1)
	if len(obs.slept) != 1 || obs.slept[0] != cube {
		t.Errorf("slept = %v, want [%d]", obs.slept, cube)
	}
	w.Wake(cube)
	w.Step(dt, 1)

	if len(obs.woke) != 1 || obs.woke[0] != cube {
		t.Errorf("woke = %v, want [%d]", obs.woke, cube)
	}
}

type recordingObserver struct {
	slept []physics.BodyHandle
	woke  []physics.BodyHandle
}

func (o *recordingObserver) BodySlept(h physics.BodyHandle) { o.slept = append(o.slept, h) }
func (o *recordingObserver) BodyWoke(h physics.BodyHandle)  { o.woke = append(o.woke, h) }

func TestDestroyAndClose(t *testing.T) {
	w, cube := newScene(t)

	if err := w.DestroyBody(cube); err != nil {
		t.Fatal(err)
	}
	if w.IsValid(cube) {
		t.Error("IsValid() = true after DestroyBody")
	}
	if len(w.engine.Bodies) != 1 {
		t.Errorf("engine bodies = %d, want 1 (ground)", len(w.engine.Bodies))
	}

	w.Close()
	if len(w.engine.Bodies) != 0 {
		t.Errorf("engine bodies after Close = %d, want 0", len(w.engine.Bodies))
	}
	if _, err := w.Pose(cube); !errors.Is(err, physics.ErrInvalidHandle) {
		t.Errorf("Pose() after Close error = %v, want ErrInvalidHandle", err)
	}
}

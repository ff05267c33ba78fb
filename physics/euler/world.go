// Package euler is a minimal fall-and-bounce integrator. It knows gravity, ground contact along
// the up axis and nothing else: bodies never collide with each other and boxes never tip over.
// It exists as a deterministic backend for the frame controller, not as a dynamics engine.
package euler

import (
	"math"

	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

const Name = "euler"

const (
	// BounceCutoff is the rebound speed (m/s) under which an impact stops the body dead
	BounceCutoff = 0.5
	// ContactFriction is the exponential decay rate (1/s) of tangential and angular velocity
	// while a body touches the ground
	ContactFriction = 5.0
)

func init() {
	physics.Register(Name, func(cfg physics.Config) (physics.World, error) {
		return New(cfg), nil
	})
}

type body struct {
	desc        physics.BodyDesc
	position    mgl64.Vec3
	orientation quat.Number // w,x,y,z
	velocity    mgl64.Vec3
	angular     mgl64.Vec3
	sleeping    bool
	idle        float64
}

// World integrates every awake dynamic body with exact constant-gravity kinematics per substep.
type World struct {
	cfg     physics.Config
	gravity mgl64.Vec3
	up      int

	bodies map[physics.BodyHandle]*body
	// creation order, so stepping is deterministic
	order  []physics.BodyHandle
	next   physics.BodyHandle
	closed bool
}

// New creates an empty world. Zero fields of cfg keep their zero meaning; use physics.Open to
// get defaults applied.
func New(cfg physics.Config) *World {
	return &World{
		cfg:     cfg,
		gravity: cfg.GravityVector(),
		up:      cfg.Up.Index(),
		bodies:  make(map[physics.BodyHandle]*body),
	}
}

func (w *World) CreateBody(desc physics.BodyDesc) (physics.BodyHandle, error) {
	if w.closed {
		return physics.InvalidHandle, errors.Wrap(physics.ErrInvalidHandle, "world is closed")
	}
	if w.cfg.MaxBodies > 0 && len(w.bodies) >= w.cfg.MaxBodies {
		return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "capacity of %d bodies reached", w.cfg.MaxBodies)
	}
	if desc.Shape == nil || !desc.Shape.Valid() {
		return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "invalid shape %#v", desc.Shape)
	}
	if _, isPlane := desc.Shape.(physics.Plane); isPlane && desc.MotionType != physics.MotionStatic {
		return physics.InvalidHandle, errors.Wrap(physics.ErrInvalidHandle, "planes must be static")
	}
	if desc.MotionType == physics.MotionDynamic && !(desc.Mass > 0) {
		return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "dynamic body mass %v", desc.Mass)
	}

	orientation, _, ok := physics.Renormalize(desc.Pose.Orientation)
	if !ok {
		return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "orientation %v", desc.Pose.Orientation)
	}

	w.next++
	h := w.next
	w.bodies[h] = &body{
		desc:        desc,
		position:    desc.Pose.Position,
		orientation: physics.ToWXYZ(orientation),
	}
	w.order = append(w.order, h)

	return h, nil
}

func (w *World) DestroyBody(h physics.BodyHandle) error {
	if _, err := w.get(h); err != nil {
		return err
	}
	delete(w.bodies, h)
	for i, o := range w.order {
		if o == h {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return nil
}

func (w *World) IsValid(h physics.BodyHandle) bool {
	_, err := w.get(h)
	return err == nil
}

func (w *World) get(h physics.BodyHandle) (*body, error) {
	b, ok := w.bodies[h]
	if !ok || w.closed {
		return nil, errors.Wrapf(physics.ErrInvalidHandle, "handle %d", h)
	}
	return b, nil
}

// Step advances the world by dt, split into substeps of equal length
func (w *World) Step(dt float64, substeps int) {
	substeps = max(1, substeps)
	h := dt / float64(substeps)

	for range substeps {
		for _, handle := range w.order {
			b := w.bodies[handle]
			if b.desc.MotionType == physics.MotionStatic || b.sleeping {
				continue
			}

			w.integrate(b, h)
			w.collideGround(b, h)
			w.trySleep(handle, b, h)
		}
	}
}

func (w *World) integrate(b *body, h float64) {
	b.position = b.position.Add(b.velocity.Mul(h)).Add(w.gravity.Mul(0.5 * h * h))
	b.velocity = b.velocity.Add(w.gravity.Mul(h))
	b.orientation = physics.IntegrateOrientation(b.orientation, b.angular, h)
}

// collideGround clamps b onto the highest static surface under its centre and resolves the
// impact with the body's restitution.
func (w *World) collideGround(b *body, h float64) {
	floor, ok := w.groundBelow(b)
	if !ok {
		return
	}

	extent := w.extentAlongUp(b)
	if b.position[w.up]-extent >= floor {
		return
	}

	b.position[w.up] = floor + extent
	if vn := b.velocity[w.up]; vn < 0 {
		bounce := -vn * b.desc.Restitution
		if bounce < BounceCutoff {
			bounce = 0
		}
		b.velocity[w.up] = bounce
	}

	decay := math.Exp(-ContactFriction * h)
	for i := range 3 {
		if i != w.up {
			b.velocity[i] *= decay
		}
	}
	b.angular = b.angular.Mul(decay)
}

// extentAlongUp is the distance from the centre of b to its lowest point
func (w *World) extentAlongUp(b *body) float64 {
	box, ok := b.desc.Shape.(physics.Box)
	if !ok {
		return 0
	}

	up := w.cfg.Up.Vector()
	q := physics.FromWXYZ(b.orientation)
	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	extent := 0.0
	for i, axis := range axes {
		extent += math.Abs(q.Rotate(axis).Dot(up)) * box.HalfExtents[i]
	}
	return extent
}

func (w *World) groundBelow(b *body) (float64, bool) {
	up := w.cfg.Up.Vector()
	best, found := math.Inf(-1), false

	for _, handle := range w.order {
		s := w.bodies[handle]
		if s.desc.MotionType != physics.MotionStatic {
			continue
		}

		var top float64
		switch shape := s.desc.Shape.(type) {
		case physics.Plane:
			if shape.Normal.Dot(up) < 0.999 {
				continue
			}
			top = shape.Offset
		case physics.Box:
			if !w.overFootprint(b.position, s.position, shape.HalfExtents) {
				continue
			}
			top = s.position[w.up] + w.extentAlongUp(s)
		default:
			continue
		}

		if top <= b.position[w.up] && top > best {
			best, found = top, true
		}
	}
	return best, found
}

// overFootprint reports whether p lies above the axis-aligned footprint of a static box
func (w *World) overFootprint(p, center, half mgl64.Vec3) bool {
	for i := range 3 {
		if i == w.up {
			continue
		}
		if math.Abs(p[i]-center[i]) > half[i] {
			return false
		}
	}
	return true
}

func (w *World) trySleep(h physics.BodyHandle, b *body, dt float64) {
	if b.velocity.Len() >= w.cfg.SleepVelocity || b.angular.Len() >= w.cfg.SleepVelocity {
		b.idle = 0
		return
	}

	b.idle += dt
	if b.idle >= w.cfg.SleepTime {
		b.sleeping = true
		b.idle = 0
		b.velocity = mgl64.Vec3{}
		b.angular = mgl64.Vec3{}
		if w.cfg.Observer != nil {
			w.cfg.Observer.BodySlept(h)
		}
	}
}

func (w *World) Pose(h physics.BodyHandle) (physics.Pose, error) {
	b, err := w.get(h)
	if err != nil {
		return physics.Pose{}, err
	}
	return physics.Pose{Position: b.position, Orientation: physics.FromWXYZ(b.orientation)}, nil
}

// SetPose teleports the body. It does not wake it.
func (w *World) SetPose(h physics.BodyHandle, pose physics.Pose) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	orientation, _, ok := physics.Renormalize(pose.Orientation)
	if !ok {
		return errors.Errorf("euler: cannot set orientation %v", pose.Orientation)
	}
	b.position = pose.Position
	b.orientation = physics.ToWXYZ(orientation)
	return nil
}

func (w *World) LinearVelocity(h physics.BodyHandle) (mgl64.Vec3, error) {
	b, err := w.get(h)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return b.velocity, nil
}

func (w *World) SetLinearVelocity(h physics.BodyHandle, v mgl64.Vec3) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if b.desc.MotionType == physics.MotionDynamic {
		b.velocity = v
	}
	return nil
}

func (w *World) AngularVelocity(h physics.BodyHandle) (mgl64.Vec3, error) {
	b, err := w.get(h)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return b.angular, nil
}

func (w *World) SetAngularVelocity(h physics.BodyHandle, v mgl64.Vec3) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if b.desc.MotionType == physics.MotionDynamic {
		b.angular = v
	}
	return nil
}

func (w *World) Wake(h physics.BodyHandle) error {
	b, err := w.get(h)
	if err != nil {
		return err
	}
	if b.desc.MotionType == physics.MotionStatic {
		return nil
	}

	b.idle = 0
	if b.sleeping {
		b.sleeping = false
		if w.cfg.Observer != nil {
			w.cfg.Observer.BodyWoke(h)
		}
	}
	return nil
}

func (w *World) IsActive(h physics.BodyHandle) bool {
	b, err := w.get(h)
	if err != nil {
		return false
	}
	return b.desc.MotionType == physics.MotionDynamic && !b.sleeping
}

func (w *World) Close() error {
	w.closed = true
	clear(w.bodies)
	w.order = nil
	return nil
}

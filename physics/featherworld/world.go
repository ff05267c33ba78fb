// Package featherworld adapts a feather.World to physics.World.
package featherworld

import (
	"math"

	"github.com/akmonengine/feather"
	"github.com/akmonengine/feather/actor"
	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const Name = "feather"

const (
	// Broad phase grid. Cells are hashed, so NumCells bounds memory, not world size.
	CellSize = 2.0
	NumCells = 4096

	// Planes are unbounded and the broad phase walks every cell an AABB covers, so a plane is
	// stood in for by a static slab of this half-size, with its top face on the plane.
	PlaneHalfExtent = 50.0
	PlaneHalfDepth  = 0.5
)

func init() {
	physics.Register(Name, func(cfg physics.Config) (physics.World, error) {
		return New(cfg), nil
	})
}

// World owns one feather.World and the handle table for its bodies.
type World struct {
	cfg    physics.Config
	engine *feather.World

	bodies  map[physics.BodyHandle]*actor.RigidBody
	handles map[*actor.RigidBody]physics.BodyHandle
	next    physics.BodyHandle
	closed  bool

	// sleep bookkeeping under the configured thresholds, feather's own are held off
	idle   map[*actor.RigidBody]float64
	asleep map[*actor.RigidBody]bool
}

func New(cfg physics.Config) *World {
	return &World{
		cfg: cfg,
		engine: &feather.World{
			Gravity:     cfg.GravityVector(),
			Substeps:    1,
			SpatialGrid: feather.NewSpatialGrid(CellSize, NumCells),
			Workers:     cfg.Workers,
			Events:      feather.NewEvents(),
		},
		bodies:  make(map[physics.BodyHandle]*actor.RigidBody),
		handles: make(map[*actor.RigidBody]physics.BodyHandle),
		idle:    make(map[*actor.RigidBody]float64),
		asleep:  make(map[*actor.RigidBody]bool),
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

	orientation, _, ok := physics.Renormalize(desc.Pose.Orientation)
	if !ok {
		return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "orientation %v", desc.Pose.Orientation)
	}
	transform := actor.Transform{
		Position:        desc.Pose.Position,
		Rotation:        orientation,
		InverseRotation: orientation.Inverse(),
	}

	var box *actor.Box
	switch shape := desc.Shape.(type) {
	case physics.Box:
		box = &actor.Box{HalfExtents: shape.HalfExtents}
	case physics.Plane:
		if desc.MotionType != physics.MotionStatic {
			return physics.InvalidHandle, errors.Wrap(physics.ErrInvalidHandle, "planes must be static")
		}
		box = &actor.Box{HalfExtents: mgl64.Vec3{PlaneHalfExtent, PlaneHalfDepth, PlaneHalfExtent}}
		transform = planeTransform(shape)
	default:
		return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "unsupported shape %T", desc.Shape)
	}

	bodyType, density := actor.BodyTypeStatic, 0.0
	if desc.MotionType == physics.MotionDynamic {
		if !(desc.Mass > 0) {
			return physics.InvalidHandle, errors.Wrapf(physics.ErrInvalidHandle, "dynamic body mass %v", desc.Mass)
		}
		bodyType = actor.BodyTypeDynamic
		h := box.HalfExtents
		density = desc.Mass / (8 * h.X() * h.Y() * h.Z())
	}

	rb := actor.NewRigidBody(transform, box, bodyType, density)
	rb.Material.Restitution = desc.Restitution
	w.engine.AddBody(rb)

	w.next++
	handle := w.next
	w.bodies[handle] = rb
	w.handles[rb] = handle

	return handle, nil
}

// planeTransform places the slab standing in for p so that its top face lies on the plane
func planeTransform(p physics.Plane) actor.Transform {
	rotation := mgl64.QuatBetweenVectors(mgl64.Vec3{0, 1, 0}, p.Normal)
	return actor.Transform{
		Position:        p.Normal.Mul(p.Offset - PlaneHalfDepth),
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

func (w *World) DestroyBody(h physics.BodyHandle) error {
	rb, err := w.get(h)
	if err != nil {
		return err
	}
	w.engine.RemoveBody(rb)
	delete(w.bodies, h)
	delete(w.handles, rb)
	delete(w.idle, rb)
	delete(w.asleep, rb)
	return nil
}

func (w *World) IsValid(h physics.BodyHandle) bool {
	_, err := w.get(h)
	return err == nil
}

func (w *World) get(h physics.BodyHandle) (*actor.RigidBody, error) {
	rb, ok := w.bodies[h]
	if !ok || w.closed {
		return nil, errors.Wrapf(physics.ErrInvalidHandle, "handle %d", h)
	}
	return rb, nil
}

// Step runs feather's XPBD loop one substep at a time, so that sleep follows
// cfg.SleepVelocity and cfg.SleepTime instead of feather's fixed thresholds. feather's own
// worker goroutines are joined before each engine step returns.
func (w *World) Step(dt float64, substeps int) {
	substeps = max(1, substeps)
	h := dt / float64(substeps)

	w.engine.Substeps = 1
	for range substeps {
		w.holdSleep()
		w.engine.Step(h)
		w.trySleep(h)
	}
}

// holdSleep keeps feather from putting awake bodies to sleep during the next engine step:
// its timer only grows by the step duration, and -Inf stays below any threshold.
func (w *World) holdSleep() {
	for rb := range w.handles {
		if !rb.IsSleeping {
			rb.SleepTimer = math.Inf(-1)
		}
	}
}

func (w *World) trySleep(dt float64) {
	for _, rb := range w.engine.Bodies {
		handle, ok := w.handles[rb]
		if !ok || rb.BodyType != actor.BodyTypeDynamic {
			continue
		}

		if !rb.IsSleeping {
			if rb.Velocity.Len() >= w.cfg.SleepVelocity || rb.AngularVelocity.Len() >= w.cfg.SleepVelocity {
				w.idle[rb] = 0
			} else {
				w.idle[rb] += dt
				if w.idle[rb] >= w.cfg.SleepTime {
					w.idle[rb] = 0
					rb.Sleep()
				}
			}
		}
		w.setAsleep(rb, handle, rb.IsSleeping)
	}
}

// setAsleep records a sleep state change and reports it to the observer
func (w *World) setAsleep(rb *actor.RigidBody, h physics.BodyHandle, sleeping bool) {
	if w.asleep[rb] == sleeping {
		return
	}
	w.asleep[rb] = sleeping

	if w.cfg.Observer == nil {
		return
	}
	if sleeping {
		w.cfg.Observer.BodySlept(h)
	} else {
		w.cfg.Observer.BodyWoke(h)
	}
}

func (w *World) Pose(h physics.BodyHandle) (physics.Pose, error) {
	rb, err := w.get(h)
	if err != nil {
		return physics.Pose{}, err
	}
	return physics.Pose{Position: rb.Transform.Position, Orientation: rb.Transform.Rotation}, nil
}

// SetPose teleports the body. The previous transform is overwritten too, otherwise feather
// derives a velocity from the jump on the next substep.
func (w *World) SetPose(h physics.BodyHandle, pose physics.Pose) error {
	rb, err := w.get(h)
	if err != nil {
		return err
	}
	orientation, _, ok := physics.Renormalize(pose.Orientation)
	if !ok {
		return errors.Errorf("feather: cannot set orientation %v", pose.Orientation)
	}

	rb.Transform = actor.Transform{
		Position:        pose.Position,
		Rotation:        orientation,
		InverseRotation: orientation.Inverse(),
	}
	rb.PreviousTransform = rb.Transform
	rb.Shape.ComputeAABB(rb.Transform)
	return nil
}

func (w *World) LinearVelocity(h physics.BodyHandle) (mgl64.Vec3, error) {
	rb, err := w.get(h)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return rb.Velocity, nil
}

func (w *World) SetLinearVelocity(h physics.BodyHandle, v mgl64.Vec3) error {
	rb, err := w.get(h)
	if err != nil {
		return err
	}
	if rb.BodyType == actor.BodyTypeDynamic {
		rb.Velocity = v
		rb.PresolveVelocity = v
	}
	return nil
}

func (w *World) AngularVelocity(h physics.BodyHandle) (mgl64.Vec3, error) {
	rb, err := w.get(h)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return rb.AngularVelocity, nil
}

func (w *World) SetAngularVelocity(h physics.BodyHandle, v mgl64.Vec3) error {
	rb, err := w.get(h)
	if err != nil {
		return err
	}
	if rb.BodyType == actor.BodyTypeDynamic {
		rb.AngularVelocity = v
		rb.PresolveAngularVelocity = v
	}
	return nil
}

func (w *World) Wake(h physics.BodyHandle) error {
	rb, err := w.get(h)
	if err != nil {
		return err
	}
	if rb.BodyType == actor.BodyTypeDynamic {
		rb.Awake()
		w.idle[rb] = 0
		w.setAsleep(rb, h, false)
	}
	return nil
}

func (w *World) IsActive(h physics.BodyHandle) bool {
	rb, err := w.get(h)
	if err != nil {
		return false
	}
	return rb.BodyType == actor.BodyTypeDynamic && !rb.IsSleeping
}

func (w *World) Close() error {
	for rb := range w.handles {
		w.engine.RemoveBody(rb)
	}
	clear(w.bodies)
	clear(w.handles)
	clear(w.idle)
	clear(w.asleep)
	w.closed = true
	return nil
}

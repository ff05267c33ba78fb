package framesync

import (
	"math"
	"math/rand/v2"

	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Command mutates the synchronised body between input sampling and the step.
// Apply must leave the body awake so the following step integrates the change.
type Command interface {
	Apply(world physics.World, body physics.BodyHandle) error
	// Event describes the applied command to listeners
	Event(body physics.BodyHandle) Event
}

// =============================================================================
// ResetCommand
// =============================================================================

// ResetCommand teleports the body to Target and zeroes both velocities
type ResetCommand struct {
	Target physics.Pose
}

func (c ResetCommand) Apply(world physics.World, body physics.BodyHandle) error {
	q, _, ok := physics.Renormalize(c.Target.Orientation)
	if !ok {
		return errors.Wrapf(ErrInvalidCommand, "reset orientation %v", c.Target.Orientation)
	}

	if err := world.SetPose(body, physics.Pose{Position: c.Target.Position, Orientation: q}); err != nil {
		return errors.Wrap(err, "reset pose")
	}
	if err := world.SetLinearVelocity(body, mgl64.Vec3{}); err != nil {
		return errors.Wrap(err, "reset linear velocity")
	}
	if err := world.SetAngularVelocity(body, mgl64.Vec3{}); err != nil {
		return errors.Wrap(err, "reset angular velocity")
	}
	return wake(world, body)
}

func (c ResetCommand) Event(body physics.BodyHandle) Event {
	return ResetEvent{Body: body, Target: c.Target}
}

// =============================================================================
// SpinCommand
// =============================================================================

// SpinCommand sets the angular velocity directly; the engine integrates the rotation.
type SpinCommand struct {
	AngularVelocity mgl64.Vec3 // rad/s, world frame
}

func (c SpinCommand) Apply(world physics.World, body physics.BodyHandle) error {
	if err := world.SetAngularVelocity(body, c.AngularVelocity); err != nil {
		return errors.Wrap(err, "spin")
	}
	return wake(world, body)
}

func (c SpinCommand) Event(body physics.BodyHandle) Event {
	return SpinEvent{Body: body, AngularVelocity: c.AngularVelocity}
}

// =============================================================================
// OrientCommand
// =============================================================================

// OrientCommand overwrites the orientation and keeps position and velocities.
type OrientCommand struct {
	Orientation mgl64.Quat
}

func (c OrientCommand) Apply(world physics.World, body physics.BodyHandle) error {
	q, _, ok := physics.Renormalize(c.Orientation)
	if !ok {
		return errors.Wrapf(ErrInvalidCommand, "orientation %v", c.Orientation)
	}

	pose, err := world.Pose(body)
	if err != nil {
		return errors.Wrap(err, "orient")
	}
	if err := world.SetPose(body, physics.Pose{Position: pose.Position, Orientation: q}); err != nil {
		return errors.Wrap(err, "orient")
	}
	return wake(world, body)
}

func (c OrientCommand) Event(body physics.BodyHandle) Event {
	return OrientEvent{Body: body, Orientation: c.Orientation}
}

// wake forces the body active. A body the engine keeps asleep would make the next step a no-op
// and the render would show the old pose.
func wake(world physics.World, body physics.BodyHandle) error {
	if err := world.Wake(body); err != nil {
		return errors.Wrap(err, "wake")
	}
	if !world.IsActive(body) {
		return errors.Wrapf(ErrStaleState, "body %d still inactive after wake", body)
	}
	return nil
}

// =============================================================================
// Command sources
// =============================================================================

// CommandSource produces the command bound to an input action, once per trigger.
type CommandSource interface {
	Next() Command
}

// Fixed always produces the same command
type Fixed struct {
	Command Command
}

func (f Fixed) Next() Command { return f.Command }

// RandomReset produces ResetCommands with a position drawn uniformly in [Min, Max] and, when
// RandomRotation is set, Euler angles drawn uniformly in [-π, π). A RandomReset built without
// NewRandomReset draws from a randomly seeded generator.
type RandomReset struct {
	Min, Max       mgl64.Vec3
	RandomRotation bool

	rng *rand.Rand
}

// NewRandomReset seeds its own generator so runs are reproducible
func NewRandomReset(lo, hi mgl64.Vec3, randomRotation bool, seed uint64) *RandomReset {
	return &RandomReset{
		Min:            lo,
		Max:            hi,
		RandomRotation: randomRotation,
		rng:            rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *RandomReset) Next() Command {
	var p mgl64.Vec3
	for i := range p {
		p[i] = r.Min[i] + ensure(&r.rng).Float64()*(r.Max[i]-r.Min[i])
	}

	q := mgl64.QuatIdent()
	if r.RandomRotation {
		q = randomRotation(ensure(&r.rng))
	}
	return ResetCommand{Target: physics.Pose{Position: p, Orientation: q}}
}

// RandomSpin produces SpinCommands with each component of the angular velocity drawn in
// [-MaxRate, MaxRate].
type RandomSpin struct {
	MaxRate float64 // rad/s

	rng *rand.Rand
}

func NewRandomSpin(maxRate float64, seed uint64) *RandomSpin {
	return &RandomSpin{MaxRate: maxRate, rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (r *RandomSpin) Next() Command {
	var w mgl64.Vec3
	for i := range w {
		w[i] = (ensure(&r.rng).Float64()*2 - 1) * r.MaxRate
	}
	return SpinCommand{AngularVelocity: w}
}

// RandomOrient produces OrientCommands with a random rotation
type RandomOrient struct {
	rng *rand.Rand
}

func NewRandomOrient(seed uint64) *RandomOrient {
	return &RandomOrient{rng: rand.New(rand.NewPCG(seed, seed+2))}
}

func (r *RandomOrient) Next() Command {
	return OrientCommand{Orientation: randomRotation(ensure(&r.rng))}
}

// ensure seeds *rng from the global source on first use of a zero value
func ensure(rng **rand.Rand) *rand.Rand {
	if *rng == nil {
		*rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return *rng
}

func randomRotation(rng *rand.Rand) mgl64.Quat {
	angle := func() float64 { return (rng.Float64()*2 - 1) * math.Pi }
	return mgl64.AnglesToQuat(angle(), angle(), angle(), mgl64.ZYX).Normalize()
}

// Package framesync keeps a rigid body simulated by a physics engine and its rendered transform
// in lockstep, one fixed step per frame, and interleaves keyboard commands with the simulation.
package framesync

import (
	"image/color"

	"github.com/akmonengine/framesync/convention"
	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultTint is the colour meshes are drawn with unless WithMesh says otherwise
var DefaultTint = color.RGBA{R: 230, G: 41, B: 55, A: 255}

// FrameResult is what a frame produced, for overlays and scripted callers
type FrameResult struct {
	Snapshot  Snapshot
	Transform convention.Transform
	Drawable  convention.Drawable
	// Commands lists the commands applied during the frame, in order
	Commands []Command
}

// Controller is the per-frame physics-to-render synchroniser of one body.
// It is not safe for concurrent use: call Frame from the render thread only.
type Controller struct {
	world      physics.World
	body       physics.BodyHandle
	clock      *Clock
	convention convention.Convention

	input    Input
	renderer Renderer
	bindings []Binding
	events   *Events
	logger   *zap.Logger

	mesh  Mesh
	scale mgl32.Vec3
	tint  color.RGBA
}

type Option func(c *Controller)

func WithInput(input Input) Option {
	return func(c *Controller) { c.input = input }
}

func WithRenderer(renderer Renderer) Option {
	return func(c *Controller) { c.renderer = renderer }
}

// WithBinding triggers source each frame key is pressed. Bindings are sampled in the order given.
func WithBinding(b Binding) Option {
	return func(c *Controller) { c.bindings = append(c.bindings, b) }
}

// WithEvents routes command events to events. Use the same Events as the physics.Config
// Observer to also get sleep/wake events delivered in frame order.
func WithEvents(events *Events) Option {
	return func(c *Controller) { c.events = events }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMesh sets what the renderer draws for the body
func WithMesh(mesh Mesh, scale mgl32.Vec3, tint color.RGBA) Option {
	return func(c *Controller) {
		c.mesh = mesh
		c.scale = scale
		c.tint = tint
	}
}

// NewController binds the controller to body, which must already exist in world.
func NewController(world physics.World, body physics.BodyHandle, clock *Clock, conv convention.Convention, opts ...Option) (*Controller, error) {
	if world == nil || clock == nil || conv == nil {
		return nil, errors.Wrap(ErrInitialization, "controller needs a world, a clock and a convention")
	}
	if body == physics.InvalidHandle || !world.IsValid(body) {
		return nil, errors.Wrapf(ErrInvalidHandle, "body %d", body)
	}

	c := &Controller{
		world:      world,
		body:       body,
		clock:      clock,
		convention: conv,
		logger:     zap.NewNop(),
		mesh:       MeshCube,
		scale:      mgl32.Vec3{1, 1, 1},
		tint:       DefaultTint,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.events == nil {
		c.events = NewEvents()
	}
	for _, b := range c.bindings {
		if b.Source == nil {
			return nil, errors.Wrapf(ErrInitialization, "binding %q has no command source", b.Name)
		}
	}

	c.logger.Info("frame controller ready",
		zap.Uint32("body", uint32(body)),
		zap.Float64("timestep", clock.Timestep),
		zap.Int("substeps", clock.Substeps),
		zap.String("convention", conv.Name()),
		zap.Int("bindings", len(c.bindings)),
	)
	return c, nil
}

// Frame runs one frame: sample input, apply commands, step, read the pose back, convert it and
// draw it. Any error is fatal: the world may hold a half-applied command and the drawn
// transform would not match the simulation.
func (c *Controller) Frame() (FrameResult, error) {
	// Input sample
	var commands []Command
	if c.input != nil {
		for _, b := range c.bindings {
			if c.input.KeyPressed(b.Key) {
				commands = append(commands, b.Source.Next())
			}
		}
	}

	// Command application
	for _, cmd := range commands {
		if err := c.Apply(cmd); err != nil {
			return FrameResult{}, err
		}
	}

	// Step
	c.world.Step(c.clock.Timestep, c.clock.Substeps)
	frame := c.clock.Advance()

	// Pose read-back
	snapshot, err := readSnapshot(c.world, c.body, frame)
	if err != nil {
		return FrameResult{}, errors.Wrapf(err, "frame %d", frame)
	}

	// Convention conversion
	transform := c.convention.ToRender(snapshot.Pose())
	representation := convention.RepMatrix
	if c.renderer != nil {
		representation = c.renderer.Representation()
	}
	drawable := transform.Encode(representation)

	// Render
	if c.renderer != nil {
		c.renderer.DrawTransformedMesh(c.mesh, drawable, c.scale, c.tint)
	}

	c.events.flush()

	return FrameResult{
		Snapshot:  snapshot,
		Transform: transform,
		Drawable:  drawable,
		Commands:  commands,
	}, nil
}

// Apply applies cmd to the body now. Frame calls it for every triggered binding; scripted
// callers use it between frames, which is equivalent to a key press sampled by the next Frame.
func (c *Controller) Apply(cmd Command) error {
	if cmd == nil {
		return errors.Wrap(ErrInvalidCommand, "nil command")
	}
	if err := cmd.Apply(c.world, c.body); err != nil {
		return errors.Wrapf(err, "apply %T to body %d", cmd, c.body)
	}

	event := cmd.Event(c.body)
	c.logger.Debug("command applied",
		zap.Stringer("event", event.Type()),
		zap.Uint32("body", uint32(c.body)),
		zap.Uint64("frame", c.clock.Steps()),
	)
	c.events.emit(event)
	return nil
}

// Snapshot reads the current pose of the body. It fails with ErrStaleState before the first
// Frame since no step has produced a pose yet.
func (c *Controller) Snapshot() (Snapshot, error) {
	if c.clock.Steps() == 0 {
		return Snapshot{}, errors.Wrap(ErrStaleState, "no step taken yet")
	}
	return readSnapshot(c.world, c.body, c.clock.Steps())
}

func (c *Controller) Body() physics.BodyHandle {
	return c.body
}

func (c *Controller) Clock() *Clock {
	return c.clock
}

func (c *Controller) Convention() convention.Convention {
	return c.convention
}

func (c *Controller) Events() *Events {
	return c.events
}

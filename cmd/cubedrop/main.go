// Command cubedrop drops a cube on a ground plane and keeps its rendered transform in sync with
// the physics engine. R resets the cube, S spins it, T rotates it in place, 1 resets the camera.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/akmonengine/framesync"
	"github.com/akmonengine/framesync/config"
	"github.com/akmonengine/framesync/physics"
	_ "github.com/akmonengine/framesync/physics/euler"
	_ "github.com/akmonengine/framesync/physics/featherworld"
	"github.com/akmonengine/framesync/view"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "YAML configuration file")
	backend := flag.String("backend", "", fmt.Sprintf("physics backend %v, overrides the config", physics.Backends()))
	headless := flag.Int("headless", 0, "run this many frames without a window, then exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) && *configPath == config.DefaultPath {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubedrop:", err)
		os.Exit(1)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cubedrop:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *headless, logger); err != nil {
		logger.Fatal("cubedrop stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, headless int, logger *zap.Logger) error {
	events := framesync.NewEvents()
	subscribe(events, logger)

	world, err := physics.Open(cfg.Backend, cfg.Physics.World(events))
	if err != nil {
		return initFailure(err)
	}
	defer func() {
		if err := world.Close(); err != nil {
			logger.Error("close physics world", zap.Error(err))
		}
	}()

	cube, err := createScene(world, cfg)
	if err != nil {
		return err
	}

	clock, err := framesync.NewClock(cfg.Physics.Timestep, cfg.Physics.Substeps)
	if err != nil {
		return err
	}
	conv, err := cfg.ConventionValue()
	if err != nil {
		return initFailure(err)
	}

	size := float32(2 * cfg.Cube.HalfExtent)
	opts := []framesync.Option{
		framesync.WithEvents(events),
		framesync.WithLogger(logger),
		framesync.WithMesh(framesync.MeshCube, mgl32.Vec3{size, size, size}, framesync.DefaultTint),
	}
	binds, err := bindings(cfg)
	if err != nil {
		return err
	}
	for _, b := range binds {
		opts = append(opts, framesync.WithBinding(b))
	}

	logger.Info("scene ready",
		zap.String("backend", cfg.Backend),
		zap.String("convention", conv.Name()),
		zap.Uint32("cube", uint32(cube)),
	)

	if headless > 0 {
		ctrl, err := framesync.NewController(world, cube, clock, conv, opts...)
		if err != nil {
			return err
		}
		return runHeadless(ctrl, headless, logger)
	}

	rep, err := cfg.Window.RepresentationValue()
	if err != nil {
		return err
	}
	cameraKey, _ := config.KeyCode(cfg.Keys.CameraReset)
	window, err := view.Open(view.Options{
		Width:          cfg.Window.Width,
		Height:         cfg.Window.Height,
		Title:          cfg.Window.Title,
		TargetFPS:      cfg.Window.TargetFPS,
		Representation: rep,
		OrbitCamera:    cfg.Window.OrbitCamera,
		Wireframe:      cfg.Window.Wireframe,
		HUD:            cfg.Window.HUD,
		CameraResetKey: cameraKey,
		Help:           view.HelpLines(cfg.Keys.Reset, cfg.Keys.Spin, cfg.Keys.Orient, cfg.Keys.CameraReset),
	}, logger)
	if err != nil {
		return err
	}
	defer window.Close()

	opts = append(opts, framesync.WithInput(window), framesync.WithRenderer(window))
	ctrl, err := framesync.NewController(world, cube, clock, conv, opts...)
	if err != nil {
		return err
	}

	for !window.ShouldClose() {
		window.BeginFrame()
		res, err := ctrl.Frame()
		if err != nil {
			return err
		}
		window.EndFrame(view.Status{
			Backend:    cfg.Backend,
			Convention: ctrl.Convention().Name(),
			Frame:      res,
			Active:     world.IsActive(cube),
		})
	}
	return nil
}

// initFailure marks err as a startup failure and keeps err matchable
func initFailure(err error) error {
	return fmt.Errorf("%w: %w", framesync.ErrInitialization, err)
}

// createScene adds the static ground and the dynamic cube, and returns the cube
func createScene(world physics.World, cfg *config.Config) (physics.BodyHandle, error) {
	up, err := cfg.Physics.UpAxis()
	if err != nil {
		return physics.InvalidHandle, err
	}

	if _, err := world.CreateBody(physics.BodyDesc{
		Shape:      physics.Plane{Normal: up.Vector(), Offset: cfg.Ground.Offset},
		Pose:       physics.IdentityPose(),
		MotionType: physics.MotionStatic,
	}); err != nil {
		return physics.InvalidHandle, errors.Wrap(err, "create ground")
	}

	h := cfg.Cube.HalfExtent
	cube, err := world.CreateBody(physics.BodyDesc{
		Shape:       physics.Box{HalfExtents: mgl64.Vec3{h, h, h}},
		Pose:        physics.Pose{Position: mgl64.Vec3(cfg.Cube.Start), Orientation: mgl64.QuatIdent()},
		Mass:        cfg.Cube.Mass,
		MotionType:  physics.MotionDynamic,
		Restitution: cfg.Cube.Restitution,
	})
	if err != nil {
		return physics.InvalidHandle, errors.Wrap(err, "create cube")
	}
	return cube, nil
}

func bindings(cfg *config.Config) ([]framesync.Binding, error) {
	seed := cfg.Reset.Seed
	actions := []struct {
		name   string
		key    string
		source framesync.CommandSource
	}{
		{"reset", cfg.Keys.Reset, cfg.ResetSource()},
		{"spin", cfg.Keys.Spin, framesync.NewRandomSpin(cfg.Spin.MaxRate, seed+1)},
		{"orient", cfg.Keys.Orient, framesync.NewRandomOrient(seed + 2)},
	}

	var out []framesync.Binding
	for _, a := range actions {
		key, err := config.KeyCode(a.key)
		if err != nil {
			return nil, errors.Wrapf(framesync.ErrInitialization, "%s key: %v", a.name, err)
		}
		if key == 0 {
			continue
		}
		out = append(out, framesync.Binding{Name: a.name, Key: key, Source: a.source})
	}
	return out, nil
}

func subscribe(events *framesync.Events, logger *zap.Logger) {
	log := func(e framesync.Event) {
		logger.Debug("event", zap.Stringer("type", e.Type()), zap.Any("payload", e))
	}
	for _, et := range []framesync.EventType{
		framesync.ON_RESET,
		framesync.ON_SPIN,
		framesync.ON_ORIENT,
		framesync.ON_SLEEP,
		framesync.ON_WAKE,
	} {
		events.Subscribe(et, log)
	}
}

func runHeadless(ctrl *framesync.Controller, frames int, logger *zap.Logger) error {
	var last framesync.FrameResult
	for range frames {
		res, err := ctrl.Frame()
		if err != nil {
			return err
		}
		last = res
	}

	s := last.Snapshot
	logger.Info("headless run done",
		zap.Uint64("frames", s.Frame),
		zap.Float64s("position", s.Position[:]),
		zap.Float64s("orientation_wxyz", []float64{s.Orientation.W, s.Orientation.V[0], s.Orientation.V[1], s.Orientation.V[2]}),
	)
	return nil
}

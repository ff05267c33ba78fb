// Package config loads the cube-drop demo settings from YAML.
package config

import (
	"io"
	"math"
	"os"
	"strings"

	"github.com/akmonengine/framesync"
	"github.com/akmonengine/framesync/convention"
	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where cmd/cubedrop looks when no -config flag is given
const DefaultPath = "configs/cubedrop.yaml"

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	ResetFixed  = "fixed"
	ResetRandom = "random"
)

type Config struct {
	Backend string `yaml:"backend"`
	// Convention overrides the convention derived from physics.up
	Convention string        `yaml:"convention,omitempty"`
	Log        LogConfig     `yaml:"log"`
	Physics    PhysicsConfig `yaml:"physics"`
	Cube       CubeConfig    `yaml:"cube"`
	Ground     GroundConfig  `yaml:"ground"`
	Reset      ResetConfig   `yaml:"reset"`
	Spin       SpinConfig    `yaml:"spin"`
	Keys       KeysConfig    `yaml:"keys"`
	Window     WindowConfig  `yaml:"window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // json or console
}

type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity"`
	Up            string  `yaml:"up"` // y or z
	Timestep      float64 `yaml:"timestep"`
	Substeps      int     `yaml:"substeps"`
	Workers       int     `yaml:"workers"`
	MaxBodies     int     `yaml:"max_bodies"`
	SleepVelocity float64 `yaml:"sleep_velocity"`
	SleepTime     float64 `yaml:"sleep_time"`
}

type CubeConfig struct {
	HalfExtent  float64    `yaml:"half_extent"`
	Mass        float64    `yaml:"mass"`
	Restitution float64    `yaml:"restitution"`
	Start       [3]float64 `yaml:"start"`
}

type GroundConfig struct {
	Offset float64 `yaml:"offset"`
}

type ResetConfig struct {
	Mode           string     `yaml:"mode"`
	Target         [3]float64 `yaml:"target"`
	Min            [3]float64 `yaml:"min"`
	Max            [3]float64 `yaml:"max"`
	RandomRotation bool       `yaml:"random_rotation"`
	Seed           uint64     `yaml:"seed"`
}

type SpinConfig struct {
	MaxRate float64 `yaml:"max_rate"` // rad/s
}

// KeysConfig names the keys of each action: a letter, a digit or one of SPACE, ENTER, TAB.
// An empty name disables the action.
type KeysConfig struct {
	Reset       string `yaml:"reset"`
	Spin        string `yaml:"spin"`
	Orient      string `yaml:"orient"`
	CameraReset string `yaml:"camera_reset"`
}

type WindowConfig struct {
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	Title          string `yaml:"title"`
	TargetFPS      int    `yaml:"target_fps"`
	Representation string `yaml:"representation"` // matrix or axis_angle
	OrbitCamera    bool   `yaml:"orbit_camera"`
	Wireframe      bool   `yaml:"wireframe"`
	HUD            bool   `yaml:"hud"`
}

// Default is a unit cube dropped from (0, 5, 0) at 60 Hz, R to reset it with a random rotation.
func Default() *Config {
	return &Config{
		Backend: "feather",
		Log:     LogConfig{Level: "info", Encoding: "console"},
		Physics: PhysicsConfig{
			Gravity:       physics.DefaultGravity,
			Up:            "y",
			Timestep:      framesync.DefaultTimestep,
			Substeps:      10,
			Workers:       1,
			MaxBodies:     physics.DefaultMaxBodies,
			SleepVelocity: physics.DefaultSleepVelocity,
			SleepTime:     physics.DefaultSleepTime,
		},
		Cube: CubeConfig{
			HalfExtent: 0.5,
			Mass:       1,
			Start:      [3]float64{0, 5, 0},
		},
		Reset: ResetConfig{
			Mode:           ResetRandom,
			Target:         [3]float64{0, 5, 0},
			Min:            [3]float64{0, 5, 0},
			Max:            [3]float64{0, 5, 0},
			RandomRotation: true,
			Seed:           1,
		},
		Spin: SpinConfig{MaxRate: 4},
		Keys: KeysConfig{Reset: "R", Spin: "S", Orient: "T", CameraReset: "1"},
		Window: WindowConfig{
			Width:          800,
			Height:         600,
			Title:          "framesync - cube drop",
			TargetFPS:      60,
			Representation: convention.RepMatrix.String(),
			Wireframe:      true,
			HUD:            true,
		},
	}
}

// Load reads the YAML file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML from r over Default. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.Wrapf(ErrInvalidConfig, format, args...)
	}

	if c.Backend == "" {
		return invalid("backend is empty")
	}
	if c.Convention != "" {
		if _, err := convention.ByName(c.Convention); err != nil {
			return invalid("%v", err)
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log level: %v", err)
	}
	if c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		return invalid("log encoding %q", c.Log.Encoding)
	}

	p := c.Physics
	if !finitePositive(p.Gravity) {
		return invalid("gravity %v", p.Gravity)
	}
	if _, err := p.UpAxis(); err != nil {
		return err
	}
	if _, err := framesync.NewClock(p.Timestep, p.Substeps); err != nil {
		return invalid("%v", err)
	}
	if p.Workers < 1 || p.MaxBodies < 2 {
		return invalid("workers %d, max_bodies %d", p.Workers, p.MaxBodies)
	}
	if !finitePositive(p.SleepVelocity) || !finitePositive(p.SleepTime) {
		return invalid("sleep thresholds %v m/s, %v s", p.SleepVelocity, p.SleepTime)
	}

	if !finitePositive(c.Cube.HalfExtent) || !finitePositive(c.Cube.Mass) {
		return invalid("cube half_extent %v, mass %v", c.Cube.HalfExtent, c.Cube.Mass)
	}
	if !(c.Cube.Restitution >= 0 && c.Cube.Restitution <= 1) {
		return invalid("cube restitution %v not in [0, 1]", c.Cube.Restitution)
	}
	if math.IsNaN(c.Ground.Offset) || math.IsInf(c.Ground.Offset, 0) {
		return invalid("ground offset %v", c.Ground.Offset)
	}
	for _, v := range []struct {
		name string
		v    [3]float64
	}{
		{"cube start", c.Cube.Start},
		{"reset target", c.Reset.Target},
		{"reset min", c.Reset.Min},
		{"reset max", c.Reset.Max},
	} {
		if !finiteVec(v.v) {
			return invalid("%s %v", v.name, v.v)
		}
	}

	switch c.Reset.Mode {
	case ResetFixed:
	case ResetRandom:
		for i := range 3 {
			if c.Reset.Min[i] > c.Reset.Max[i] {
				return invalid("reset min %v above max %v", c.Reset.Min, c.Reset.Max)
			}
		}
	default:
		return invalid("reset mode %q", c.Reset.Mode)
	}
	if !(c.Spin.MaxRate >= 0) || math.IsInf(c.Spin.MaxRate, 1) {
		return invalid("spin max_rate %v", c.Spin.MaxRate)
	}

	bound := make(map[framesync.Key]string)
	for _, k := range []struct{ name, key string }{
		{"reset", c.Keys.Reset},
		{"spin", c.Keys.Spin},
		{"orient", c.Keys.Orient},
		{"camera_reset", c.Keys.CameraReset},
	} {
		code, err := KeyCode(k.key)
		if err != nil {
			return invalid("key %s: %v", k.name, err)
		}
		if code == 0 {
			continue
		}
		if other, ok := bound[code]; ok {
			return invalid("key %q bound to both %s and %s", k.key, other, k.name)
		}
		bound[code] = k.name
	}

	w := c.Window
	if w.Width <= 0 || w.Height <= 0 || w.TargetFPS <= 0 {
		return invalid("window %dx%d at %d fps", w.Width, w.Height, w.TargetFPS)
	}
	if _, err := w.RepresentationValue(); err != nil {
		return err
	}
	return nil
}

// UpAxis parses the up axis name
func (p PhysicsConfig) UpAxis() (physics.UpAxis, error) {
	switch strings.ToLower(p.Up) {
	case "y":
		return physics.UpY, nil
	case "z":
		return physics.UpZ, nil
	}
	return physics.UpY, errors.Wrapf(ErrInvalidConfig, "up axis %q", p.Up)
}

// World returns the physics engine settings. Call it on a validated config.
func (p PhysicsConfig) World(observer physics.Observer) physics.Config {
	up, _ := p.UpAxis()
	return physics.Config{
		Gravity:       p.Gravity,
		Up:            up,
		MaxBodies:     p.MaxBodies,
		Workers:       p.Workers,
		SleepVelocity: p.SleepVelocity,
		SleepTime:     p.SleepTime,
		Observer:      observer,
	}
}

// ConventionValue returns the configured convention, or the one matching the up axis
func (c *Config) ConventionValue() (convention.Convention, error) {
	if c.Convention != "" {
		return convention.ByName(c.Convention)
	}
	up, err := c.Physics.UpAxis()
	if err != nil {
		return nil, err
	}
	return convention.ForUpAxis(up), nil
}

// ResetSource builds the command source of the reset key
func (c *Config) ResetSource() framesync.CommandSource {
	r := c.Reset
	if r.Mode == ResetFixed {
		return framesync.Fixed{Command: framesync.ResetCommand{Target: physics.Pose{
			Position:    mgl64.Vec3(r.Target),
			Orientation: mgl64.QuatIdent(),
		}}}
	}
	return framesync.NewRandomReset(mgl64.Vec3(r.Min), mgl64.Vec3(r.Max), r.RandomRotation, r.Seed)
}

func (w WindowConfig) RepresentationValue() (convention.Representation, error) {
	switch w.Representation {
	case convention.RepMatrix.String():
		return convention.RepMatrix, nil
	case convention.RepAxisAngle.String():
		return convention.RepAxisAngle, nil
	}
	return convention.RepMatrix, errors.Wrapf(ErrInvalidConfig, "representation %q", w.Representation)
}

// Build creates the zap logger described by the config
func (l LogConfig) Build() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	if l.Encoding == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         l.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}

var namedKeys = map[string]framesync.Key{
	"SPACE": 32,
	"ENTER": 257,
	"TAB":   258,
}

// KeyCode maps a key name to its raylib key code. Letters and digits use their ASCII code,
// like raylib's KEY_A..KEY_Z and KEY_ZERO..KEY_NINE. The empty name maps to 0 (unbound).
func KeyCode(name string) (framesync.Key, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return 0, nil
	}
	if k, ok := namedKeys[name]; ok {
		return k, nil
	}
	if len(name) == 1 && (name[0] >= 'A' && name[0] <= 'Z' || name[0] >= '0' && name[0] <= '9') {
		return framesync.Key(name[0]), nil
	}
	return 0, errors.Errorf("unknown key %q", name)
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func finiteVec(v [3]float64) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

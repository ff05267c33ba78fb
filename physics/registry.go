package physics

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// UpAxis selects which world axis points away from the ground
type UpAxis int

const (
	UpY UpAxis = iota
	UpZ
)

// Vector returns the unit vector of the axis
func (a UpAxis) Vector() mgl64.Vec3 {
	if a == UpZ {
		return mgl64.Vec3{0, 0, 1}
	}
	return mgl64.Vec3{0, 1, 0}
}

// Index returns the component index of the axis in a Vec3
func (a UpAxis) Index() int {
	if a == UpZ {
		return 2
	}
	return 1
}

// Config holds the engine-wide settings shared by every backend.
type Config struct {
	// Gravity magnitude in m/s², applied against the up axis
	Gravity float64
	Up      UpAxis
	// MaxBodies bounds CreateBody; 0 means DefaultMaxBodies
	MaxBodies int
	// Workers is handed to engines with an internal job system
	Workers int
	// Sleep thresholds: a body slower than SleepVelocity for SleepTime seconds goes to sleep
	SleepVelocity float64
	SleepTime     float64
	Observer      Observer
}

const (
	DefaultGravity       = 9.81
	DefaultMaxBodies     = 1024
	DefaultSleepVelocity = 0.05
	DefaultSleepTime     = 0.5
)

// DefaultConfig returns Earth gravity along -Y
func DefaultConfig() Config {
	return Config{
		Gravity:       DefaultGravity,
		Up:            UpY,
		MaxBodies:     DefaultMaxBodies,
		Workers:       1,
		SleepVelocity: DefaultSleepVelocity,
		SleepTime:     DefaultSleepTime,
	}
}

// GravityVector returns the gravity acceleration vector
func (c Config) GravityVector() mgl64.Vec3 {
	return c.Up.Vector().Mul(-c.Gravity)
}

func (c Config) withDefaults() Config {
	if c.MaxBodies <= 0 {
		c.MaxBodies = DefaultMaxBodies
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.SleepVelocity <= 0 {
		c.SleepVelocity = DefaultSleepVelocity
	}
	if c.SleepTime <= 0 {
		c.SleepTime = DefaultSleepTime
	}
	return c
}

// Factory opens a World. Engine-global state (allocators, type registries) must be set up
// inside the factory and torn down by World.Close.
type Factory func(cfg Config) (World, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available by name. It panics on duplicate names, backends call it
// from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("physics: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("physics: Register called twice for backend " + name)
	}
	registry[name] = factory
}

// Backends returns the sorted names of registered backends
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates a World from the named backend
func Open(name string, cfg Config) (World, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownBackend, "backend %q (registered: %v)", name, Backends())
	}

	world, err := factory(cfg.withDefaults())
	if err != nil {
		return nil, errors.Wrapf(err, "open backend %q", name)
	}
	return world, nil
}

package physics

import (
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// stubWorld satisfies World for registry tests only
type stubWorld struct {
	World
	cfg Config
}

func TestRegistry_OpenUnknown(t *testing.T) {
	_, err := Open("does-not-exist", DefaultConfig())
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestRegistry_RegisterAndOpen(t *testing.T) {
	Register("registry-test", func(cfg Config) (World, error) {
		return &stubWorld{cfg: cfg}, nil
	})

	if !slices.Contains(Backends(), "registry-test") {
		t.Fatalf("Backends() = %v, want it to contain registry-test", Backends())
	}

	w, err := Open("registry-test", Config{Gravity: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	// zero fields are defaulted before the factory sees them
	cfg := w.(*stubWorld).cfg
	if cfg.MaxBodies != DefaultMaxBodies {
		t.Errorf("MaxBodies = %d, want %d", cfg.MaxBodies, DefaultMaxBodies)
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if cfg.Gravity != 1 {
		t.Errorf("Gravity = %v, want 1", cfg.Gravity)
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	boom := errors.New("boom")
	Register("registry-test-fail", func(cfg Config) (World, error) {
		return nil, boom
	})

	_, err := Open("registry-test-fail", DefaultConfig())
	if !errors.Is(err, boom) {
		t.Errorf("Open() error = %v, want wrapped boom", err)
	}
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	Register("registry-test-dup", func(cfg Config) (World, error) { return nil, nil })

	defer func() {
		if recover() == nil {
			t.Error("second Register did not panic")
		}
	}()
	Register("registry-test-dup", func(cfg Config) (World, error) { return nil, nil })
}

// =============================================================================
// Config / Shape Tests
// =============================================================================

func TestConfig_GravityVector(t *testing.T) {
	tests := []struct {
		name string
		up   UpAxis
		want mgl64.Vec3
	}{
		{"y up", UpY, mgl64.Vec3{0, -9.81, 0}},
		{"z up", UpZ, mgl64.Vec3{0, 0, -9.81}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Up = tt.up
			if got := cfg.GravityVector(); got != tt.want {
				t.Errorf("GravityVector() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShape_Valid(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  bool
	}{
		{"unit box", Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}, true},
		{"flat box", Box{HalfExtents: mgl64.Vec3{0.5, 0, 0.5}}, false},
		{"negative box", Box{HalfExtents: mgl64.Vec3{-1, 1, 1}}, false},
		{"ground plane", Plane{Normal: mgl64.Vec3{0, 1, 0}}, true},
		{"unnormalized plane", Plane{Normal: mgl64.Vec3{0, 2, 0}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

package framesync

import (
	"math"

	"github.com/pkg/errors"
)

const (
	DefaultTimestep = 1.0 / 60.0
	DefaultSubsteps = 1
)

// Clock is the fixed-timestep simulation clock. The controller advances it exactly once per
// frame; substeps are handed to the engine and never surface here.
type Clock struct {
	Timestep float64
	Substeps int

	steps uint64
}

// NewClock validates the timestep and substep count
func NewClock(timestep float64, substeps int) (*Clock, error) {
	if !(timestep > 0) || math.IsInf(timestep, 1) {
		return nil, errors.Wrapf(ErrInitialization, "timestep %v must be positive and finite", timestep)
	}
	if substeps < 1 {
		return nil, errors.Wrapf(ErrInitialization, "substeps %d must be at least 1", substeps)
	}
	return &Clock{Timestep: timestep, Substeps: substeps}, nil
}

// Advance records one consumed step and returns the new step count
func (c *Clock) Advance() uint64 {
	c.steps++
	return c.steps
}

// Steps returns how many steps were consumed so far
func (c *Clock) Steps() uint64 {
	return c.steps
}

// Elapsed returns the simulated time in seconds
func (c *Clock) Elapsed() float64 {
	return float64(c.steps) * c.Timestep
}

package framesync

import (
	"github.com/akmonengine/framesync/physics"
	"github.com/pkg/errors"
)

// None of these are recoverable: a caller receiving one from Frame must stop the loop.
var (
	// ErrInitialization reports an engine, window or controller setup failure
	ErrInitialization = errors.New("initialization failed")
	// ErrInvalidHandle reports a body that could not be created or no longer exists.
	// It is the same value the physics backends return.
	ErrInvalidHandle = physics.ErrInvalidHandle
	// ErrStaleState reports a pose read before the first step, a pose read on a body that
	// disappeared, or a body that stayed asleep after being woken.
	ErrStaleState = errors.New("stale simulation state")
	// ErrInvalidCommand reports a command carrying a degenerate orientation
	ErrInvalidCommand = errors.New("invalid command")
)

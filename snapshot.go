package framesync

import (
	"math"

	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Snapshot is the pose of the synchronised body captured right after a step.
// It is a value: each frame builds a new one and nothing keeps it once the frame is drawn.
type Snapshot struct {
	// Frame is the clock step the pose belongs to, starting at 1
	Frame       uint64
	Position    mgl64.Vec3
	Orientation mgl64.Quat // unit, W >= 0
}

// Pose returns the snapshot as a physics pose
func (s Snapshot) Pose() physics.Pose {
	return physics.Pose{Position: s.Position, Orientation: s.Orientation}
}

func readSnapshot(world physics.World, body physics.BodyHandle, frame uint64) (Snapshot, error) {
	pose, err := world.Pose(body)
	if err != nil {
		return Snapshot{}, errors.Wrapf(ErrStaleState, "read pose of body %d: %v", body, err)
	}

	for _, c := range pose.Position {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Snapshot{}, errors.Wrapf(ErrStaleState, "body %d position %v is not finite", body, pose.Position)
		}
	}

	q, norm, ok := physics.Renormalize(pose.Orientation)
	if !ok {
		return Snapshot{}, errors.Wrapf(ErrStaleState, "body %d orientation %v has norm %v", body, pose.Orientation, norm)
	}

	return Snapshot{Frame: frame, Position: pose.Position, Orientation: q}, nil
}

package view

import (
	"fmt"

	"github.com/akmonengine/framesync"
	"github.com/akmonengine/framesync/convention"
	"github.com/akmonengine/framesync/physics"
)

// Status is what the overlay prints about the current frame
type Status struct {
	Backend    string
	Convention string
	Frame      framesync.FrameResult
	Active     bool
}

// Lines formats the overlay: position, yaw/pitch/roll and the quaternion in raylib's x,y,z,w
// order, all in the engine's frame.
func (s Status) Lines() []string {
	snap := s.Frame.Snapshot
	angles := convention.YawPitchRoll(snap.Orientation)
	q := physics.ToXYZW(snap.Orientation)

	state := "sleeping"
	if s.Active {
		state = "active"
	}

	return []string{
		fmt.Sprintf("%s (%s)  frame %d  %s", s.Backend, s.Convention, snap.Frame, state),
		fmt.Sprintf("Pos: [%.2f, %.2f, %.2f]", snap.Position[0], snap.Position[1], snap.Position[2]),
		fmt.Sprintf("Yaw: %.1f  Pitch: %.1f  Roll: %.1f", angles.Yaw, angles.Pitch, angles.Roll),
		fmt.Sprintf("Quat: [%.3f, %.3f, %.3f, %.3f]", q[0], q[1], q[2], q[3]),
	}
}

// HelpLines describes the bound keys; empty names are skipped
func HelpLines(reset, spin, orient, camera string) []string {
	var lines []string
	for _, k := range []struct{ key, text string }{
		{reset, "reset and randomize cube"},
		{spin, "spin cube"},
		{orient, "randomize rotation in place"},
		{camera, "reset camera"},
	} {
		if k.key != "" {
			lines = append(lines, fmt.Sprintf("Press %s to %s", k.key, k.text))
		}
	}
	return lines
}

package view

import (
	"strings"
	"testing"

	"github.com/akmonengine/framesync"
	"github.com/akmonengine/framesync/convention"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func TestToMatrix_Translation(t *testing.T) {
	tr := convention.Transform{Position: mgl32.Vec3{1, 2, 3}, Rotation: mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})}
	m := toMatrix(tr.Matrix())

	if m.M12 != 1 || m.M13 != 2 || m.M14 != 3 || m.M15 != 1 {
		t.Errorf("translation = (%v, %v, %v, %v), want (1, 2, 3, 1)", m.M12, m.M13, m.M14, m.M15)
	}
	// rotation about Y: the first column is (cos, 0, -sin)
	if m.M1 != 0 || m.M0 != tr.Matrix()[0] || m.M2 != tr.Matrix()[2] {
		t.Errorf("first column = (%v, %v, %v)", m.M0, m.M1, m.M2)
	}
}

func TestStatus_Lines(t *testing.T) {
	s := Status{
		Backend:    "euler",
		Convention: "yup",
		Active:     true,
		Frame: framesync.FrameResult{Snapshot: framesync.Snapshot{
			Frame:       12,
			Position:    mgl64.Vec3{0, 4.5, -1},
			Orientation: mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1}),
		}},
	}

	lines := s.Lines()
	if len(lines) != 4 {
		t.Fatalf("Lines() = %d lines, want 4", len(lines))
	}

	tests := []struct {
		line int
		want string
	}{
		{0, "frame 12"},
		{0, "active"},
		{1, "Pos: [0.00, 4.50, -1.00]"},
		{2, "Yaw: 30.0"},
		{3, "Quat: [0.000, 0.000, 0.259, 0.966]"},
	}
	for _, tt := range tests {
		if !strings.Contains(lines[tt.line], tt.want) {
			t.Errorf("line %d = %q, want it to contain %q", tt.line, lines[tt.line], tt.want)
		}
	}
}

func TestHelpLines(t *testing.T) {
	lines := HelpLines("R", "", "T", "1")
	if len(lines) != 3 {
		t.Fatalf("HelpLines() = %v, want 3 lines", lines)
	}
	if !strings.HasPrefix(lines[0], "Press R") {
		t.Errorf("first line = %q", lines[0])
	}
}

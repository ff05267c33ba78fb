// Package view is the raylib front end of the cube-drop demo: window, camera, keyboard and the
// drawing of the synchronised body.
package view

import (
	"image/color"

	"github.com/akmonengine/framesync"
	"github.com/akmonengine/framesync/convention"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	groundSize   = 20
	gridSlices   = 20
	gridSpacing  = 1.0
	cameraFovy   = 45
	hudFontSize  = 20
	hudLineSpace = 22
)

var (
	cameraHome   = rl.NewVector3(0, 10, 10)
	cameraTarget = rl.NewVector3(0, 0, 0)
)

type Options struct {
	Width, Height  int
	Title          string
	TargetFPS      int
	Representation convention.Representation
	OrbitCamera    bool
	Wireframe      bool
	HUD            bool
	// CameraResetKey puts the camera back at its start position; 0 disables it
	CameraResetKey framesync.Key
	// Help lines printed under the HUD
	Help []string
}

// Window owns the raylib context. It implements framesync.Input and framesync.Renderer.
// All methods must be called from the thread that called Open.
type Window struct {
	opts   Options
	camera rl.Camera3D
	cube   rl.Model
	logger *zap.Logger
}

var (
	_ framesync.Input    = (*Window)(nil)
	_ framesync.Renderer = (*Window)(nil)
)

// Open creates the window and the GPU resources of the cube
func Open(opts Options, logger *zap.Logger) (*Window, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if !rl.IsWindowReady() {
		return nil, errors.Wrapf(framesync.ErrInitialization, "raylib window %dx%d", opts.Width, opts.Height)
	}
	rl.SetTargetFPS(int32(opts.TargetFPS))

	w := &Window{
		opts:   opts,
		cube:   rl.LoadModelFromMesh(rl.GenMeshCube(1, 1, 1)),
		logger: logger,
	}
	w.resetCamera()

	logger.Info("window open",
		zap.Int("width", opts.Width),
		zap.Int("height", opts.Height),
		zap.Stringer("representation", opts.Representation),
	)
	return w, nil
}

func (w *Window) resetCamera() {
	w.camera = rl.Camera3D{
		Position:   cameraHome,
		Target:     cameraTarget,
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       cameraFovy,
		Projection: rl.CameraPerspective,
	}
}

// ShouldClose reports whether the user asked to quit (close button or ESC)
func (w *Window) ShouldClose() bool {
	return rl.WindowShouldClose()
}

// KeyPressed is raylib's edge-triggered key state for the current frame
func (w *Window) KeyPressed(key framesync.Key) bool {
	return rl.IsKeyPressed(int32(key))
}

func (w *Window) Representation() convention.Representation {
	return w.opts.Representation
}

// BeginFrame handles the camera keys and opens the 3D pass with the ground drawn.
func (w *Window) BeginFrame() {
	if w.opts.CameraResetKey != 0 && rl.IsKeyPressed(int32(w.opts.CameraResetKey)) {
		w.resetCamera()
	}
	if w.opts.OrbitCamera {
		rl.UpdateCamera(&w.camera, rl.CameraOrbital)
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)
	rl.BeginMode3D(w.camera)

	rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(groundSize, groundSize), rl.LightGray)
	rl.DrawGrid(gridSlices, gridSpacing)
}

// DrawTransformedMesh draws the cube with the encoding the window was opened with
func (w *Window) DrawTransformedMesh(mesh framesync.Mesh, d convention.Drawable, scale mgl32.Vec3, tint color.RGBA) {
	if mesh != framesync.MeshCube {
		w.logger.Warn("unknown mesh", zap.Uint8("mesh", uint8(mesh)))
		return
	}

	switch d.Representation {
	case convention.RepAxisAngle:
		w.cube.Transform = rl.MatrixIdentity()
		position := vector3(d.Position)
		axis := vector3(d.Axis)
		rl.DrawModelEx(w.cube, position, axis, d.Angle, vector3(scale), tint)
		if w.opts.Wireframe {
			rl.DrawModelWiresEx(w.cube, position, axis, d.Angle, vector3(scale), rl.Maroon)
		}
	default:
		w.cube.Transform = toMatrix(d.Matrix.Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2])))
		rl.DrawModel(w.cube, rl.NewVector3(0, 0, 0), 1, tint)
		if w.opts.Wireframe {
			rl.DrawModelWires(w.cube, rl.NewVector3(0, 0, 0), 1, rl.Maroon)
		}
	}
}

// EndFrame closes the 3D pass, draws the overlay and presents the frame
func (w *Window) EndFrame(status Status) {
	rl.EndMode3D()

	if w.opts.HUD {
		rl.DrawFPS(10, 10)
		y := int32(10 + hudLineSpace)
		for _, line := range append(status.Lines(), w.opts.Help...) {
			rl.DrawText(line, 10, y, hudFontSize, rl.DarkGray)
			y += hudLineSpace
		}
	}

	rl.EndDrawing()
}

// Close releases the cube model and the window
func (w *Window) Close() {
	rl.UnloadModel(w.cube)
	rl.CloseWindow()
	w.logger.Info("window closed")
}

func vector3(v mgl32.Vec3) rl.Vector3 {
	return rl.NewVector3(v[0], v[1], v[2])
}

// toMatrix copies a column-major mgl32 matrix into raylib's Matrix (Mn is element n in
// column-major order for both).
func toMatrix(m mgl32.Mat4) rl.Matrix {
	return rl.Matrix{
		M0: m[0], M4: m[4], M8: m[8], M12: m[12],
		M1: m[1], M5: m[5], M9: m[9], M13: m[13],
		M2: m[2], M6: m[6], M10: m[10], M14: m[14],
		M3: m[3], M7: m[7], M11: m[11], M15: m[15],
	}
}

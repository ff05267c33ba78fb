package convention

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a pose in the renderer's frame and precision.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// Matrix returns the model matrix: rotate first, then translate.
// mgl32 matrices are column-major, the same memory layout as raylib's Matrix.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).Mul4(t.Rotation.Mat4())
}

// AxisAngle returns the rotation as a unit axis and an angle in degrees within [0, 180].
// The identity rotation yields the +Y axis and 0°.
func (t Transform) AxisAngle() (axis mgl32.Vec3, degrees float32) {
	q := t.Rotation
	if q.W < 0 {
		q = mgl32.Quat{W: -q.W, V: q.V.Mul(-1)}
	}

	w := float64(q.W)
	if w > 1 {
		w = 1
	}
	s := math.Sqrt(1 - w*w)
	if s < 1e-6 {
		return mgl32.Vec3{0, 1, 0}, 0
	}

	axis = q.V.Mul(float32(1 / s))
	return axis, float32(mgl64.RadToDeg(2 * math.Acos(w)))
}

// Representation is the rotation encoding a drawing primitive consumes
type Representation uint8

const (
	// RepMatrix feeds a full model matrix (raylib Model.Transform)
	RepMatrix Representation = iota
	// RepAxisAngle feeds position + axis + degrees (raylib DrawModelEx)
	RepAxisAngle
)

func (r Representation) String() string {
	switch r {
	case RepMatrix:
		return "matrix"
	case RepAxisAngle:
		return "axis_angle"
	}
	return "unknown"
}

// Drawable is a Transform encoded for one drawing primitive. Only the fields of its
// Representation are set.
type Drawable struct {
	Representation Representation
	Position       mgl32.Vec3
	Matrix         mgl32.Mat4
	Axis           mgl32.Vec3
	Angle          float32 // degrees
}

// Encode converts t into the given representation
func (t Transform) Encode(r Representation) Drawable {
	d := Drawable{Representation: r, Position: t.Position}
	switch r {
	case RepAxisAngle:
		d.Axis, d.Angle = t.AxisAngle()
	default:
		d.Representation = RepMatrix
		d.Matrix = t.Matrix()
	}
	return d
}

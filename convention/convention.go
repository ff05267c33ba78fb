// Package convention maps poses between a physics engine's axis frame and the renderer's.
//
// The renderer (raylib) is right-handed with +Y up and stores float32 quaternions as x,y,z,w.
// Every Convention is a pure function pair: ToPhysics(ToRender(p)) == p up to float32 rounding.
package convention

import (
	"math"
	"sort"

	"github.com/akmonengine/framesync/physics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var ErrUnknownConvention = errors.New("unknown coordinate convention")

// Convention converts between physics and render frames
type Convention interface {
	Name() string
	ToRender(pose physics.Pose) Transform
	ToPhysics(t Transform) physics.Pose
}

const (
	NameYUp        = "yup"
	NameZUp        = "zup"
	NameLeftHanded = "lefthanded"
)

var conventions = map[string]Convention{
	NameYUp:        YUp{},
	NameZUp:        ZUp{},
	NameLeftHanded: LeftHanded{},
}

// ByName returns the convention registered under name
func ByName(name string) (Convention, error) {
	c, ok := conventions[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownConvention, "%q (known: %v)", name, Names())
	}
	return c, nil
}

// Names returns the sorted list of known conventions
func Names() []string {
	names := make([]string, 0, len(conventions))
	for name := range conventions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForUpAxis returns the convention matching a right-handed engine with the given up axis
func ForUpAxis(up physics.UpAxis) Convention {
	if up == physics.UpZ {
		return ZUp{}
	}
	return YUp{}
}

// =============================================================================
// YUp
// =============================================================================

// YUp is the identity: right-handed, +Y up. feather, the euler backend and the default setup of
// Bullet, Jolt, ODE and ReactPhysics3D all match the renderer.
type YUp struct{}

func (YUp) Name() string { return NameYUp }

func (YUp) ToRender(pose physics.Pose) Transform {
	return Transform{Position: vec32(pose.Position), Rotation: quat32(pose.Orientation)}
}

func (YUp) ToPhysics(t Transform) physics.Pose {
	return physics.Pose{Position: vec64(t.Position), Orientation: quat64(t.Rotation)}
}

// =============================================================================
// ZUp
// =============================================================================

// zUpToYUp rotates the Z-up frame onto the Y-up one: (x, y, z) -> (x, z, -y)
var zUpToYUp = mgl64.QuatRotate(-math.Pi/2, mgl64.Vec3{1, 0, 0})

// ZUp serves right-handed engines configured with +Z up.
type ZUp struct{}

func (ZUp) Name() string { return NameZUp }

func (ZUp) ToRender(pose physics.Pose) Transform {
	return Transform{
		Position: vec32(zUpToYUp.Rotate(pose.Position)),
		Rotation: quat32(zUpToYUp.Mul(pose.Orientation).Mul(zUpToYUp.Conjugate())),
	}
}

func (ZUp) ToPhysics(t Transform) physics.Pose {
	back := zUpToYUp.Conjugate()
	return physics.Pose{
		Position:    back.Rotate(vec64(t.Position)),
		Orientation: back.Mul(quat64(t.Rotation)).Mul(zUpToYUp),
	}
}

// =============================================================================
// LeftHanded
// =============================================================================

// LeftHanded serves +Y up engines with a left-handed frame. Mirroring Z maps a rotation
// (w, x, y, z) to (w, -x, -y, z). The mapping is its own inverse.
type LeftHanded struct{}

func (LeftHanded) Name() string { return NameLeftHanded }

func (LeftHanded) ToRender(pose physics.Pose) Transform {
	return YUp{}.ToRender(mirrorZ(pose))
}

func (LeftHanded) ToPhysics(t Transform) physics.Pose {
	return mirrorZ(YUp{}.ToPhysics(t))
}

func mirrorZ(pose physics.Pose) physics.Pose {
	p, q := pose.Position, pose.Orientation
	return physics.Pose{
		Position:    mgl64.Vec3{p[0], p[1], -p[2]},
		Orientation: mgl64.Quat{W: q.W, V: mgl64.Vec3{-q.V[0], -q.V[1], q.V[2]}},
	}
}

// =============================================================================
// Precision
// =============================================================================

func vec32(v mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func vec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}

func quat32(q mgl64.Quat) mgl32.Quat {
	return mgl32.Quat{W: float32(q.W), V: vec32(q.V)}
}

func quat64(q mgl32.Quat) mgl64.Quat {
	return mgl64.Quat{W: float64(q.W), V: vec64(q.V)}
}

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidHandle is returned when a body could not be created or a handle does not refer
	// to a live body.
	ErrInvalidHandle = errors.New("invalid body handle")
	// ErrUnknownBackend is returned by Open for a name nobody registered.
	ErrUnknownBackend = errors.New("unknown physics backend")
)

// BodyHandle identifies a body inside one World. The zero handle is never issued.
type BodyHandle uint32

// InvalidHandle is what a failed CreateBody returns alongside its error.
const InvalidHandle BodyHandle = 0

// MotionType represents how the engine treats a body
type MotionType int

const (
	// MotionDynamic bodies are integrated and respond to collisions
	MotionDynamic MotionType = iota
	// MotionStatic bodies never move (ground, walls)
	MotionStatic
)

func (m MotionType) String() string {
	switch m {
	case MotionDynamic:
		return "dynamic"
	case MotionStatic:
		return "static"
	}
	return "unknown"
}

// Shape is a collision shape description. Backends translate it into their own types.
type Shape interface {
	// Valid reports whether the shape has positive, finite dimensions
	Valid() bool
}

// Box is an oriented box defined by its half-extents
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b Box) Valid() bool {
	for _, h := range b.HalfExtents {
		if !(h > 0) || math.IsInf(h, 1) {
			return false
		}
	}
	return true
}

// Plane is an infinite plane Normal·p = Offset. Normal must be normalized.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

func (p Plane) Valid() bool {
	l := p.Normal.Len()
	return l > 0.999 && l < 1.001
}

// Pose is the position and orientation of a body, in the engine's own axis frame.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// IdentityPose returns a pose at the origin with no rotation
func IdentityPose() Pose {
	return Pose{Orientation: mgl64.QuatIdent()}
}

// BodyDesc is everything CreateBody needs
type BodyDesc struct {
	Shape      Shape
	Pose       Pose
	Mass       float64 // ignored for static bodies
	MotionType MotionType
	// Restitution in [0, 1], 0 = no rebound
	Restitution float64
}

// Observer receives sleep/wake transitions reported by the engine.
type Observer interface {
	BodySlept(h BodyHandle)
	BodyWoke(h BodyHandle)
}

// World is the physics-world collaborator consumed by the frame controller.
// Implementations are not safe for concurrent use; Step blocks until the engine, including any
// internal worker pool, has finished.
type World interface {
	CreateBody(desc BodyDesc) (BodyHandle, error)
	DestroyBody(h BodyHandle) error
	// IsValid reports whether h refers to a live body
	IsValid(h BodyHandle) bool

	Step(dt float64, substeps int)

	Pose(h BodyHandle) (Pose, error)
	SetPose(h BodyHandle, pose Pose) error
	LinearVelocity(h BodyHandle) (mgl64.Vec3, error)
	SetLinearVelocity(h BodyHandle, v mgl64.Vec3) error
	AngularVelocity(h BodyHandle) (mgl64.Vec3, error)
	SetAngularVelocity(h BodyHandle, w mgl64.Vec3) error

	// Wake marks the body active so the next Step integrates it
	Wake(h BodyHandle) error
	// IsActive is false for sleeping, static or destroyed bodies
	IsActive(h BodyHandle) bool

	// Close releases the engine. The World must not be used afterwards.
	Close() error
}

package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// Engines disagree on where the scalar part of a quaternion lives: Bullet, Jolt, ReactPhysics3D
// and raylib store x,y,z,w; ODE and gonum store w,x,y,z.

// ToXYZW flattens q with the scalar last
func ToXYZW(q mgl64.Quat) [4]float64 {
	return [4]float64{q.V[0], q.V[1], q.V[2], q.W}
}

// ToWXYZ converts q into a gonum quaternion (scalar first)
func ToWXYZ(q mgl64.Quat) quat.Number {
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// FromWXYZ is the inverse of ToWXYZ
func FromWXYZ(n quat.Number) mgl64.Quat {
	return mgl64.Quat{W: n.Real, V: mgl64.Vec3{n.Imag, n.Jmag, n.Kmag}}
}

// MinQuatNorm is the norm below which an orientation is treated as corrupt rather than drifted
const MinQuatNorm = 1e-6

// Renormalize returns q scaled to unit length and its norm before scaling. The scalar part is
// kept non-negative so q and -q, which encode the same rotation, come out identical.
// ok is false when the norm is too small or not finite to recover a rotation.
func Renormalize(q mgl64.Quat) (unit mgl64.Quat, norm float64, ok bool) {
	n := ToWXYZ(q)
	norm = quat.Abs(n)
	if !(norm >= MinQuatNorm) || quat.IsInf(n) {
		return mgl64.Quat{}, norm, false
	}
	n = quat.Scale(1/norm, n)
	if n.Real < 0 {
		n = quat.Scale(-1, n)
	}
	return FromWXYZ(n), norm, true
}

// IntegrateOrientation advances q by angular velocity w (rad/s, world frame) over dt using
// q' = q + ½·ω·q·dt, then renormalizes.
func IntegrateOrientation(q quat.Number, w mgl64.Vec3, dt float64) quat.Number {
	omega := quat.Number{Imag: w[0], Jmag: w[1], Kmag: w[2]}
	dq := quat.Scale(0.5*dt, quat.Mul(omega, q))
	q = quat.Add(q, dq)
	if abs := quat.Abs(q); abs > 0 {
		q = quat.Scale(1/abs, q)
	}
	return q
}

package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// =============================================================================
// Layout Tests
// =============================================================================

func TestLayout_XYZW(t *testing.T) {
	q := mgl64.Quat{W: 0.5, V: mgl64.Vec3{0.1, 0.2, 0.3}}

	c := ToXYZW(q)
	if c != [4]float64{0.1, 0.2, 0.3, 0.5} {
		t.Errorf("ToXYZW() = %v, want [0.1 0.2 0.3 0.5]", c)
	}
}

func TestLayout_WXYZ(t *testing.T) {
	q := mgl64.Quat{W: 0.5, V: mgl64.Vec3{0.1, 0.2, 0.3}}

	n := ToWXYZ(q)
	if n.Real != 0.5 || n.Imag != 0.1 || n.Jmag != 0.2 || n.Kmag != 0.3 {
		t.Errorf("ToWXYZ() = %v, want (0.5+0.1i+0.2j+0.3k)", n)
	}
	if back := FromWXYZ(n); back != q {
		t.Errorf("FromWXYZ(ToWXYZ(q)) = %v, want %v", back, q)
	}
}

// =============================================================================
// Renormalize Tests
// =============================================================================

func TestRenormalize(t *testing.T) {
	tests := []struct {
		name   string
		q      mgl64.Quat
		wantOK bool
	}{
		{"identity", mgl64.QuatIdent(), true},
		{"drifted", mgl64.Quat{W: 1.0001, V: mgl64.Vec3{0.0002, -0.0001, 0}}, true},
		{"scaled", mgl64.Quat{W: 2, V: mgl64.Vec3{2, 2, 2}}, true},
		{"negative scalar", mgl64.Quat{W: -0.7, V: mgl64.Vec3{0, 0.7, 0}}, true},
		{"zero", mgl64.Quat{}, false},
		{"nan", mgl64.Quat{W: math.NaN()}, false},
		{"inf", mgl64.Quat{W: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, _, ok := Renormalize(tt.q)
			if ok != tt.wantOK {
				t.Fatalf("Renormalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if n := unit.Len(); math.Abs(n-1) > 1e-12 {
				t.Errorf("|unit| = %v, want 1", n)
			}
			if unit.W < 0 {
				t.Errorf("unit.W = %v, want >= 0", unit.W)
			}
		})
	}
}

func TestRenormalize_SameRotation(t *testing.T) {
	q := mgl64.QuatRotate(2.5, mgl64.Vec3{1, 2, 3}.Normalize())
	neg := mgl64.Quat{W: -q.W, V: q.V.Mul(-1)}

	a, _, _ := Renormalize(q.Scale(3))
	b, _, _ := Renormalize(neg)

	if !a.ApproxEqualThreshold(b, 1e-12) {
		t.Errorf("Renormalize(q) = %v, Renormalize(-q) = %v, want equal", a, b)
	}

	v := mgl64.Vec3{0.3, -1, 2}
	if got, want := a.Rotate(v), q.Rotate(v); !got.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("rotation changed: got %v, want %v", got, want)
	}
}

// =============================================================================
// IntegrateOrientation Tests
// =============================================================================

func TestIntegrateOrientation_ZeroVelocity(t *testing.T) {
	q := ToWXYZ(mgl64.QuatRotate(0.4, mgl64.Vec3{0, 1, 0}))

	got := IntegrateOrientation(q, mgl64.Vec3{}, 1.0/60.0)
	if !FromWXYZ(got).ApproxEqualThreshold(FromWXYZ(q), 1e-12) {
		t.Errorf("IntegrateOrientation() = %v, want unchanged %v", got, q)
	}
}

func TestIntegrateOrientation_SpinAboutY(t *testing.T) {
	const dt = 1.0 / 600.0
	w := mgl64.Vec3{0, math.Pi, 0} // half a turn per second

	q := ToWXYZ(mgl64.QuatIdent())
	for range 600 {
		q = IntegrateOrientation(q, w, dt)
	}

	if n := quat.Abs(q); math.Abs(n-1) > 1e-9 {
		t.Errorf("|q| = %v, want 1", n)
	}

	// After one second the body has turned ~180° about Y: X maps to -X
	x := FromWXYZ(q).Rotate(mgl64.Vec3{1, 0, 0})
	if x.X() > -0.98 {
		t.Errorf("rotated X axis = %v, want close to (-1, 0, 0)", x)
	}
}

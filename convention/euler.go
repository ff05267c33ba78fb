package convention

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// EulerAngles in degrees, Z-Y-X (yaw about Z, pitch about Y, roll about X)
type EulerAngles struct {
	Yaw, Pitch, Roll float64
}

// YawPitchRoll decomposes q for display. Near pitch ±90° yaw and roll are not unique.
func YawPitchRoll(q mgl64.Quat) EulerAngles {
	m := q.Normalize().Mat4()
	r11, r21, r31 := m.At(0, 0), m.At(1, 0), m.At(2, 0)
	r32, r33 := m.At(2, 1), m.At(2, 2)

	return EulerAngles{
		Yaw:   mgl64.RadToDeg(math.Atan2(r21, r11)),
		Pitch: mgl64.RadToDeg(math.Atan2(-r31, math.Sqrt(r11*r11+r21*r21))),
		Roll:  mgl64.RadToDeg(math.Atan2(r32, r33)),
	}
}

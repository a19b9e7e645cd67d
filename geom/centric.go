package geom

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// CameraCentric is the pose of the target seen from a fixed eye.
type CameraCentric struct {
	Dolly float64 // eye-to-target distance
	Pan   float64 // degrees in (-180, 180], yaw of the view about the frame's up
	Tilt  float64 // degrees in [-90, 90], pitch of the view above the horizon
}

// CameraCentricToCartesian places the target by yawing the frame's forward axis
// by c.Pan about up, pitching the result by c.Tilt about its right axis and
// scaling by c.Dolly from eye.
func CameraCentricToCartesian(eye r3.Vec, c CameraCentric, f Frame) r3.Vec {
	fwd := r3.NewRotation(Radians(c.Pan), f.Up).Rotate(f.Forward)
	right := r3.Cross(fwd, f.Up)
	dir := r3.NewRotation(Radians(Clamp(c.Tilt, -90, 90)), right).Rotate(fwd)
	return r3.Add(eye, r3.Scale(c.Dolly, r3.Unit(dir)))
}

// CartesianToCameraCentric recovers dolly, pan and tilt of target seen from eye.
// When the view is vertical pan is undefined and prevPan is returned unchanged.
func CartesianToCameraCentric(eye, target r3.Vec, f Frame, prevPan float64) (CameraCentric, error) {
	off := r3.Sub(target, eye)
	d := r3.Norm(off)
	if !IsFinite(d) || d < MinDistance {
		return CameraCentric{}, fmt.Errorf("%w: eye-to-target distance %g", ErrInvalidGeometry, d)
	}

	pan, tilt, ok := f.angles(r3.Scale(1/d, off))
	if !ok {
		pan = NormalizeDegrees(prevPan)
	}
	return CameraCentric{Dolly: d, Pan: pan, Tilt: tilt}, nil
}

// ToCameraCentric expresses a spherical pose as the equivalent eye-centric one.
func (s Spherical) ToCameraCentric() CameraCentric {
	return CameraCentric{
		Dolly: s.Distance,
		Pan:   NormalizeDegrees(s.Azimuth + 180),
		Tilt:  -s.Inclination,
	}
}

// ToSpherical expresses an eye-centric pose as the equivalent spherical one.
func (c CameraCentric) ToSpherical() Spherical {
	return Spherical{
		Distance:    c.Dolly,
		Azimuth:     NormalizeDegrees(c.Pan + 180),
		Inclination: -c.Tilt,
	}
}

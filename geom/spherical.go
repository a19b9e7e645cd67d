package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Spherical is the pose of the eye around the target.
type Spherical struct {
	Distance    float64 // eye-to-target distance
	Azimuth     float64 // degrees in (-180, 180], about world-up
	Inclination float64 // degrees in [-90, 90], elevation of the eye above the target
}

// SphericalToCartesian places the eye on a sphere of radius s.Distance around
// target and returns it with a re-levelled up vector.
func SphericalToCartesian(target r3.Vec, s Spherical, f Frame) (eye, up r3.Vec) {
	inc := Clamp(s.Inclination, -90, 90)
	sin, cos := sincosDeg(inc)
	h := f.horizontal(s.Azimuth)
	dir := r3.Add(r3.Scale(cos, h), r3.Scale(sin, f.Up))

	eye = r3.Add(target, r3.Scale(s.Distance, dir))
	up = f.levelUp(s.Azimuth, inc)
	return eye, up
}

// CartesianToSpherical recovers the spherical pose of eye about target.
// At the poles azimuth is undefined and prevAzimuth is returned unchanged.
func CartesianToSpherical(eye, target r3.Vec, f Frame, prevAzimuth float64) (Spherical, error) {
	off := r3.Sub(eye, target)
	d := r3.Norm(off)
	if !IsFinite(d) || d < MinDistance {
		return Spherical{}, fmt.Errorf("%w: eye-to-target distance %g", ErrInvalidGeometry, d)
	}

	az, inc, ok := f.angles(r3.Scale(1/d, off))
	if !ok {
		az = NormalizeDegrees(prevAzimuth)
	}
	return Spherical{Distance: d, Azimuth: az, Inclination: inc}, nil
}

// LevelUp returns the up vector for the current eye/target pair, orthogonal to
// the view direction and aligned with world-up. prevAzimuth orients the result
// when the view is vertical.
func LevelUp(eye, target r3.Vec, f Frame, prevAzimuth float64) (r3.Vec, error) {
	s, err := CartesianToSpherical(eye, target, f, prevAzimuth)
	if err != nil {
		return r3.Vec{}, err
	}
	return f.levelUp(s.Azimuth, s.Inclination), nil
}

func sincosDeg(deg float64) (sin, cos float64) {
	return math.Sincos(Radians(deg))
}

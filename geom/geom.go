// Package geom converts between the pose representations used to drive a camera:
// target-centric spherical coordinates, eye-centric dolly/pan/tilt and raw
// eye/target/up vectors.
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidGeometry reports a degenerate pose (eye on top of target) or a
// transform input that would produce non-finite output.
var ErrInvalidGeometry = errors.New("invalid geometry")

const (
	// MinDistance is the smallest eye-to-target separation a pose may have.
	MinDistance = 1e-6

	// poleEpsilon is the relative horizontal length below which a direction is
	// treated as pointing straight along world-up.
	poleEpsilon = 1e-9
)

// Frame is an orthonormal reference frame built around a world-up direction.
// Azimuth and pan are measured from Forward towards Side.
type Frame struct {
	Forward r3.Vec
	Side    r3.Vec
	Up      r3.Vec
}

// NewFrame builds the reference frame for the given world-up vector.
// For a Z-up world the frame is (X, Y, Z).
func NewFrame(worldUp r3.Vec) (Frame, error) {
	n := r3.Norm(worldUp)
	if n < MinDistance || !Finite(worldUp) {
		return Frame{}, fmt.Errorf("%w: world-up %v", ErrInvalidGeometry, worldUp)
	}
	up := r3.Scale(1/n, worldUp)

	// Pick the world axis least aligned with up as the azimuth reference
	ref := r3.Vec{X: 1}
	if math.Abs(r3.Dot(ref, up)) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	fwd := r3.Unit(r3.Sub(ref, r3.Scale(r3.Dot(ref, up), up)))

	return Frame{
		Forward: fwd,
		Side:    r3.Cross(up, fwd),
		Up:      up,
	}, nil
}

// MustFrame is like NewFrame but panics on a degenerate world-up.
func MustFrame(worldUp r3.Vec) Frame {
	f, err := NewFrame(worldUp)
	if err != nil {
		panic(err)
	}
	return f
}

// Height returns the component of p along the frame's up axis.
func (f Frame) Height(p r3.Vec) float64 {
	return r3.Dot(p, f.Up)
}

// WithHeight returns p moved along the up axis so that its height is h.
func (f Frame) WithHeight(p r3.Vec, h float64) r3.Vec {
	return r3.Add(p, r3.Scale(h-f.Height(p), f.Up))
}

// horizontal returns the unit horizontal direction at angle deg.
func (f Frame) horizontal(deg float64) r3.Vec {
	s, c := math.Sincos(Radians(deg))
	return r3.Add(r3.Scale(c, f.Forward), r3.Scale(s, f.Side))
}

// angles decomposes a unit direction into heading and elevation (degrees).
// ok is false when the direction lies along the up axis and heading is undefined.
func (f Frame) angles(dir r3.Vec) (heading, elevation float64, ok bool) {
	elevation = Degrees(math.Asin(Clamp(r3.Dot(dir, f.Up), -1, 1)))
	x := r3.Dot(dir, f.Forward)
	y := r3.Dot(dir, f.Side)
	if math.Hypot(x, y) < poleEpsilon {
		return 0, elevation, false
	}
	return NormalizeDegrees(Degrees(math.Atan2(y, x))), elevation, true
}

// levelUp returns the up vector for a view whose horizontal heading is deg and
// whose direction has the given elevation. It is orthogonal to the direction and
// as close to world-up as possible, including at the poles.
func (f Frame) levelUp(deg, elevation float64) r3.Vec {
	s, c := math.Sincos(Radians(elevation))
	return r3.Unit(r3.Add(r3.Scale(-s, f.horizontal(deg)), r3.Scale(c, f.Up)))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDegrees wraps an angle into (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r <= -180 {
		r += 360
	} else if r > 180 {
		r -= 360
	}
	return r
}

// Clamp restricts x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Finite reports whether every component of v is a finite number.
func Finite(v r3.Vec) bool {
	return IsFinite(v.X) && IsFinite(v.Y) && IsFinite(v.Z)
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Distance returns |a-b|.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// CorrectedUp re-levels up against the view direction by Gram-Schmidt so the
// result is a unit vector orthogonal to view. It fails when up is parallel to
// view or either input is degenerate.
func CorrectedUp(view, up r3.Vec) (r3.Vec, error) {
	vn := r3.Norm(view)
	if vn < MinDistance || !Finite(view) || !Finite(up) {
		return r3.Vec{}, fmt.Errorf("%w: view %v", ErrInvalidGeometry, view)
	}
	v := r3.Scale(1/vn, view)
	u := r3.Sub(up, r3.Scale(r3.Dot(up, v), v))
	n := r3.Norm(u)
	if n < poleEpsilon*r3.Norm(up) || n == 0 {
		return r3.Vec{}, fmt.Errorf("%w: up %v parallel to view", ErrInvalidGeometry, up)
	}
	return r3.Scale(1/n, u), nil
}

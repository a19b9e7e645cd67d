// Package camera defines the authoritative camera state and the snapshot
// published to the UI.
package camera

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/geom"
)

// Projection is the camera's projection type.
type Projection uint8

const (
	Perspective Projection = iota
	Orthographic
)

// String returns the projection name used in scripts, views and CSV output.
func (p Projection) String() string {
	switch p {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	default:
		return fmt.Sprintf("projection(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Projection) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Projection) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "perspective", "persp":
		*p = Perspective
	case "orthographic", "ortho":
		*p = Orthographic
	default:
		return fmt.Errorf("unknown projection %q", b)
	}
	return nil
}

// State is a complete camera description. FOV is the horizontal field of view
// in radians. Extents is an optional orthographic width hint (0 = unset).
type State struct {
	Eye        r3.Vec
	Target     r3.Vec
	Up         r3.Vec
	FOV        float64
	Projection Projection
	Extents    float64
}

// Distance returns the eye-to-target distance.
func (s State) Distance() float64 {
	return geom.Distance(s.Eye, s.Target)
}

// View returns the unnormalized view direction.
func (s State) View() r3.Vec {
	return r3.Sub(s.Target, s.Eye)
}

// Validate reports ErrInvalidGeometry for a state that must never reach a host:
// any non-finite component, a degenerate eye/target pair or a non-positive fov.
func (s State) Validate() error {
	if !geom.Finite(s.Eye) || !geom.Finite(s.Target) || !geom.Finite(s.Up) ||
		!geom.IsFinite(s.FOV) || !geom.IsFinite(s.Extents) {
		return fmt.Errorf("%w: non-finite camera state", geom.ErrInvalidGeometry)
	}
	if d := s.Distance(); d <= geom.MinDistance {
		return fmt.Errorf("%w: eye-to-target distance %g", geom.ErrInvalidGeometry, d)
	}
	if s.FOV <= 0 {
		return fmt.Errorf("%w: fov %g", geom.ErrInvalidGeometry, s.FOV)
	}
	return nil
}

// Level returns s with Up re-levelled against the view direction.
func (s State) Level() (State, error) {
	up, err := geom.CorrectedUp(s.View(), s.Up)
	if err != nil {
		return s, err
	}
	s.Up = up
	return s, nil
}

// Equal reports whether two states match within eps on every component.
func (s State) Equal(o State, eps float64) bool {
	near := func(a, b r3.Vec) bool { return geom.Distance(a, b) <= eps }
	return s.Projection == o.Projection &&
		near(s.Eye, o.Eye) && near(s.Target, o.Target) && near(s.Up, o.Up) &&
		math.Abs(s.FOV-o.FOV) <= eps
}

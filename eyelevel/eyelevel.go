// Package eyelevel keeps the camera's eye at a fixed height above the ground
// plane while the user edits the view, and decides whether a lens edit zooms
// or dollies.
package eyelevel

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/geom"
	"github.com/pthm-cable/camrig/lens"
)

// Lock is the eye-level lock. Height is measured along world-up.
type Lock struct {
	Enabled bool    `yaml:"enabled"`
	Height  float64 `yaml:"height"`
}

// Constraint rewrites camera poses so they honour a Lock.
type Constraint struct {
	frame geom.Frame
	lock  Lock
}

// New returns a disabled constraint for the given world frame.
func New(f geom.Frame) *Constraint {
	return &Constraint{frame: f}
}

// Lock returns the current lock.
func (c *Constraint) Lock() Lock { return c.lock }

// Height returns the height of p along world-up.
func (c *Constraint) Height(p r3.Vec) float64 { return c.frame.Height(p) }

// SetEnabled turns the lock on or off. Enabling captures the height of eye.
func (c *Constraint) SetEnabled(enabled bool, eye r3.Vec) {
	if enabled && !c.lock.Enabled {
		c.lock.Height = c.frame.Height(eye)
	}
	c.lock.Enabled = enabled
}

// SetHeight changes the locked height without changing whether the lock is on.
func (c *Constraint) SetHeight(h float64) { c.lock.Height = h }

// Restore replaces the lock wholesale.
func (c *Constraint) Restore(l Lock) { c.lock = l }

// Shift moves eye and target together along world-up so the eye sits at the
// locked height. The view direction and distance are unchanged. It is a no-op
// when the lock is off.
func (c *Constraint) Shift(eye, target r3.Vec) (r3.Vec, r3.Vec) {
	if !c.lock.Enabled {
		return eye, target
	}
	return Snap(c.frame, eye, target, c.lock.Height)
}

// Eye moves only the eye onto the locked height.
func (c *Constraint) Eye(eye r3.Vec) r3.Vec {
	if !c.lock.Enabled {
		return eye
	}
	return c.frame.WithHeight(eye, c.lock.Height)
}

// Level places the eye at height eyeH and the target at height targetH,
// keeping both horizontal positions. When the two would meet, as for a camera
// looking straight down, eye and target are shifted together instead.
func Level(f geom.Frame, eye, target r3.Vec, eyeH, targetH float64) (r3.Vec, r3.Vec) {
	e, t := f.WithHeight(eye, eyeH), f.WithHeight(target, targetH)
	if geom.Distance(e, t) < geom.MinDistance {
		return Snap(f, eye, target, eyeH)
	}
	return e, t
}

// Snap moves eye and target by the same offset along the frame's up axis so the
// eye ends at height h.
func Snap(f geom.Frame, eye, target r3.Vec, h float64) (r3.Vec, r3.Vec) {
	delta := r3.Scale(h-f.Height(eye), f.Up)
	return r3.Add(eye, delta), r3.Add(target, delta)
}

// Lens applies a field-of-view change to s. While the lock is on the change is a
// pure zoom. Otherwise the eye moves along the view axis so the framing at the
// target is kept, limited to bounds.
func (c *Constraint) Lens(s camera.State, fov float64, m lens.Model, bounds camera.DistanceBounds) camera.State {
	fov = m.ClampFOV(fov)
	if c.lock.Enabled || s.Projection == camera.Orthographic {
		s.FOV = fov
		return s
	}

	d := s.Distance()
	nd := bounds.Clamp(m.DollyCompensation(d, s.FOV, fov))
	if !(nd > geom.MinDistance) || math.IsInf(nd, 0) {
		s.FOV = fov
		return s
	}
	back := r3.Scale(nd/d, r3.Sub(s.Eye, s.Target))
	s.Eye = r3.Add(s.Target, back)
	s.FOV = fov
	return s
}

package host

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/geom"
)

// Sim is an in-memory host camera that reproduces the assignment quirks of a
// real CAD host:
//
//   - changing the field of view in perspective reframes the view by moving the
//     eye along the view axis;
//   - switching to orthographic without first fitting the view in perspective
//     leaves the orthographic extents stuck at their previous value;
//   - every setter takes effect immediately and independently.
//
// Every call is recorded so callers can check write ordering.
type Sim struct {
	cam    camera.State
	scene  r3.Box
	frame  geom.Frame
	fitted bool // FitToView ran since the last switch to orthographic
	live   bool // orthographic extents follow the eye distance
	stale  float64

	calls     []string
	reject    map[string]int
	refreshes int
}

// NewSim returns a simulated host showing initial over the given scene.
func NewSim(initial camera.State, scene r3.Box, worldUp r3.Vec) *Sim {
	s := &Sim{
		cam:    initial,
		scene:  scene,
		frame:  geom.MustFrame(worldUp),
		reject: make(map[string]int),
		live:   true,
	}
	s.stale = s.liveExtents()
	return s
}

// State returns the camera as the host currently has it.
func (s *Sim) State() camera.State {
	st := s.cam
	if st.Projection == camera.Orthographic {
		st.Extents = s.stale
		if s.live {
			st.Extents = s.liveExtents()
		}
	}
	return st
}

// SceneBounds returns the scene box.
func (s *Sim) SceneBounds() (r3.Box, bool) {
	return s.scene, s.scene.Size() != (r3.Vec{})
}

// RejectNext makes the next n calls to op fail with ErrRejected.
// op is a method name such as "SetEye".
func (s *Sim) RejectNext(op string, n int) {
	s.reject[op] += n
}

// Calls returns the recorded call log.
func (s *Sim) Calls() []string {
	return append([]string(nil), s.calls...)
}

// ResetCalls clears the call log.
func (s *Sim) ResetCalls() { s.calls = s.calls[:0] }

// Navigate moves the camera as interactive navigation inside the host would,
// bypassing the controller.
func (s *Sim) Navigate(eye, target r3.Vec) {
	s.cam.Eye, s.cam.Target = eye, target
	if up, err := geom.CorrectedUp(r3.Sub(target, eye), s.frame.Up); err == nil {
		s.cam.Up = up
	}
}

func (s *Sim) call(op, format string, args ...any) error {
	s.calls = append(s.calls, op+fmt.Sprintf(format, args...))
	if s.reject[op] > 0 {
		s.reject[op]--
		return fmt.Errorf("%s: %w", op, ErrRejected)
	}
	return nil
}

// SetProjection switches projection. Orthographic extents are only recomputed
// when the view was fitted in perspective beforehand.
func (s *Sim) SetProjection(p camera.Projection) error {
	if err := s.call("SetProjection", "(%v)", p); err != nil {
		return err
	}
	if p == camera.Orthographic && s.cam.Projection != camera.Orthographic {
		s.live = s.fitted
		s.fitted = false
	}
	if p == camera.Perspective && s.cam.Projection == camera.Orthographic && s.live {
		s.stale = s.liveExtents()
	}
	s.cam.Projection = p
	return nil
}

// SetFOV changes the field of view. In perspective the host reframes by
// dollying so the framed width at the target is unchanged.
func (s *Sim) SetFOV(fov float64) error {
	if err := s.call("SetFOV", "(%.4f)", fov); err != nil {
		return err
	}
	if !(fov > 0) || fov >= math.Pi {
		return fmt.Errorf("SetFOV %g: %w", fov, ErrRejected)
	}
	if s.cam.Projection == camera.Perspective && s.cam.FOV > 0 {
		k := math.Tan(s.cam.FOV/2) / math.Tan(fov/2)
		s.cam.Eye = r3.Add(s.cam.Target, r3.Scale(k, r3.Sub(s.cam.Eye, s.cam.Target)))
	}
	s.cam.FOV = fov
	return nil
}

// SetEye moves the eye.
func (s *Sim) SetEye(eye r3.Vec) error {
	if err := s.call("SetEye", "(%.3f, %.3f, %.3f)", eye.X, eye.Y, eye.Z); err != nil {
		return err
	}
	if !geom.Finite(eye) {
		return fmt.Errorf("SetEye %v: %w", eye, ErrRejected)
	}
	s.cam.Eye = eye
	return nil
}

// SetTarget moves the target.
func (s *Sim) SetTarget(target r3.Vec) error {
	if err := s.call("SetTarget", "(%.3f, %.3f, %.3f)", target.X, target.Y, target.Z); err != nil {
		return err
	}
	if !geom.Finite(target) {
		return fmt.Errorf("SetTarget %v: %w", target, ErrRejected)
	}
	s.cam.Target = target
	return nil
}

// SetUp sets the up vector.
func (s *Sim) SetUp(up r3.Vec) error {
	if err := s.call("SetUp", "(%.3f, %.3f, %.3f)", up.X, up.Y, up.Z); err != nil {
		return err
	}
	if !geom.Finite(up) || r3.Norm(up) < geom.MinDistance {
		return fmt.Errorf("SetUp %v: %w", up, ErrRejected)
	}
	s.cam.Up = up
	return nil
}

// FitToView centres the target on the scene and moves the eye back along the
// current view direction until the scene fills the field of view.
func (s *Sim) FitToView() error {
	if err := s.call("FitToView", ""); err != nil {
		return err
	}
	s.fitted = true
	if s.scene.Size() == (r3.Vec{}) {
		return nil
	}

	center := s.scene.Center()
	radius := r3.Norm(s.scene.Size()) / 2
	dist := radius / math.Sin(s.cam.FOV/2)
	dir := r3.Unit(r3.Sub(s.cam.Eye, s.cam.Target))
	s.cam.Target = center
	s.cam.Eye = r3.Add(center, r3.Scale(dist, dir))
	if s.cam.Projection == camera.Orthographic {
		s.stale = 2 * radius
	}
	return nil
}

// Refresh counts redraws.
func (s *Sim) Refresh() error {
	if err := s.call("Refresh", ""); err != nil {
		return err
	}
	s.refreshes++
	return nil
}

// Refreshes returns how many times the viewport was redrawn.
func (s *Sim) Refreshes() int { return s.refreshes }

func (s *Sim) liveExtents() float64 {
	return 2 * s.cam.Distance() * math.Tan(s.cam.FOV/2)
}

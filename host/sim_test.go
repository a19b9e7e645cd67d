package host

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
)

func newTestSim() *Sim {
	initial := camera.State{
		Eye:    r3.Vec{X: 100},
		Target: r3.Vec{},
		Up:     r3.Vec{Z: 1},
		FOV:    math.Pi / 4,
	}
	return NewSim(initial, r3.NewBox(-10, -10, -10, 10, 10, 10), r3.Vec{Z: 1})
}

func TestSimFOVReframes(t *testing.T) {
	s := newTestSim()
	before := s.State().Distance()

	if err := s.SetFOV(math.Pi / 8); err != nil {
		t.Fatal(err)
	}
	after := s.State().Distance()
	if math.Abs(after-before) < 1 {
		t.Errorf("expected host to reframe on fov change, distance %g -> %g", before, after)
	}
}

func TestSimStuckOrthoExtents(t *testing.T) {
	s := newTestSim()

	// Direct toggle: extents stay at the stale value however far the eye moves
	if err := s.SetProjection(camera.Orthographic); err != nil {
		t.Fatal(err)
	}
	stuck := s.State().Extents
	_ = s.SetEye(r3.Vec{X: 400})
	if got := s.State().Extents; got != stuck {
		t.Errorf("extents followed the eye without a fit: %g -> %g", stuck, got)
	}

	// Fit in perspective first: extents follow the view
	_ = s.SetProjection(camera.Perspective)
	_ = s.FitToView()
	_ = s.SetProjection(camera.Orthographic)
	_ = s.SetEye(r3.Vec{X: 50})
	_ = s.SetTarget(r3.Vec{})
	want := 2 * 50 * math.Tan(math.Pi/8)
	if got := s.State().Extents; math.Abs(got-want) > 1e-9 {
		t.Errorf("extents = %g, want %g", got, want)
	}
}

func TestSimRejectNext(t *testing.T) {
	s := newTestSim()
	s.RejectNext("SetEye", 1)

	if err := s.SetEye(r3.Vec{X: 5}); !errors.Is(err, ErrRejected) {
		t.Errorf("err = %v, want ErrRejected", err)
	}
	if s.State().Eye != (r3.Vec{X: 100}) {
		t.Error("rejected call changed the eye")
	}
	if err := s.SetEye(r3.Vec{X: 5}); err != nil {
		t.Errorf("second call rejected: %v", err)
	}
}

func TestSimCallLog(t *testing.T) {
	s := newTestSim()
	_ = s.SetFOV(0.5)
	_ = s.Refresh()

	calls := s.Calls()
	if len(calls) != 2 || calls[0] != "SetFOV(0.5000)" || calls[1] != "Refresh" {
		t.Errorf("calls = %q", calls)
	}
	if s.Refreshes() != 1 {
		t.Errorf("refreshes = %d, want 1", s.Refreshes())
	}

	s.ResetCalls()
	if len(s.Calls()) != 0 {
		t.Error("call log not cleared")
	}
}

func TestSimFitToView(t *testing.T) {
	s := newTestSim()
	_ = s.SetTarget(r3.Vec{X: 3})

	if err := s.FitToView(); err != nil {
		t.Fatal(err)
	}
	st := s.State()
	if st.Target != (r3.Vec{}) {
		t.Errorf("target = %v, want scene centre", st.Target)
	}
	radius := math.Sqrt(3*20*20) / 2
	if want := radius / math.Sin(math.Pi/8); math.Abs(st.Distance()-want) > 1e-9 {
		t.Errorf("distance = %g, want %g", st.Distance(), want)
	}
}

package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/geom"
	"github.com/pthm-cable/camrig/host"
	"github.com/pthm-cable/camrig/lens"
	"github.com/pthm-cable/camrig/payload"
	"github.com/pthm-cable/camrig/pipeline"
)

var (
	t0  = time.Unix(5000, 0)
	zUp = geom.MustFrame(r3.Vec{Z: 1})
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, eye r3.Vec, opts ...Option) (*Controller, *host.Sim) {
	t.Helper()
	initial := camera.State{
		Eye:    eye,
		Target: r3.Vec{},
		Up:     r3.Vec{Z: 1},
		FOV:    lens.Radians(40),
	}
	sim := host.NewSim(initial, r3.NewBox(-50, -50, -50, 50, 50, 50), r3.Vec{Z: 1})
	b := &payload.Builder{Frame: zUp, Lens: lens.Default()}
	p, err := pipeline.New(sim, b, pipeline.WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	c := New(p, sim, lens.Default(), append([]Option{WithLogger(quiet())}, opts...)...)
	return c, sim
}

// settle ticks past the coalescing window so staged edits commit.
func settle(t *testing.T, c *Controller, now time.Time) time.Time {
	t.Helper()
	now = now.Add(pipeline.DefaultWindow)
	if err := c.Tick(now); err != nil {
		t.Fatalf("tick: %v", err)
	}
	return now
}

func TestBoundsFromScene(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})

	diag := math.Sqrt(3) * 100
	b := c.Bounds()
	if math.Abs(b.Min-diag/4) > 1e-9 || math.Abs(b.Max-diag*4) > 1e-9 {
		t.Errorf("bounds = %+v, want [%g, %g]", b, diag/4, diag*4)
	}
	snap := c.Snapshot()
	if snap.MinDistance != b.Min || snap.MaxDistance != b.Max {
		t.Errorf("snapshot bounds = [%g, %g]", snap.MinDistance, snap.MaxDistance)
	}
}

func TestSliderIntentsCommit(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})
	now := t0

	if err := c.Handle(Intent{Kind: AzimuthChanged, Value: 90}, now); err != nil {
		t.Fatal(err)
	}
	if err := c.Handle(Intent{Kind: DistanceChanged, Value: 200}, now); err != nil {
		t.Fatal(err)
	}
	settle(t, c, now)

	s := c.Snapshot()
	if math.Abs(s.Azimuth-90) > 1e-9 || math.Abs(s.Distance-200) > 1e-9 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestFocalLengthIntent(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})
	m := lens.Default()

	if err := c.Handle(Intent{Kind: FocalLengthChanged, Value: 50}, t0); err != nil {
		t.Fatal(err)
	}
	settle(t, c, t0)

	if got := c.Committed().State.FOV; math.Abs(got-m.FocalLengthToFOV(50)) > 1e-12 {
		t.Errorf("fov = %g, want %g", got, m.FocalLengthToFOV(50))
	}
	if s := c.Snapshot(); math.Abs(s.FocalLength-50) > 1e-9 {
		t.Errorf("snapshot focal length = %g, want 50", s.FocalLength)
	}

	if err := c.Handle(Intent{Kind: FocalLengthChanged, Value: -5}, t0); err == nil {
		t.Error("expected error for negative focal length")
	}
}

func TestDefaultLens(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})

	_ = c.Handle(Intent{Kind: DefaultLens}, t0)
	settle(t, c, t0)

	if s := c.Snapshot(); math.Abs(s.FOV-22.62) > 1e-9 {
		t.Errorf("fov = %g°, want 22.62°", s.FOV)
	}
}

func TestEditTokenSuppression(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})

	tok := c.BeginEdit(camera.FieldDistance)
	other := c.BeginEdit(camera.FieldDistance)
	_ = c.Handle(Intent{Kind: DistanceChanged, Value: 150}, t0)
	now := settle(t, c, t0)

	snap := <-c.Snapshots()
	if !snap.Omits(camera.FieldDistance) {
		t.Error("snapshot includes a field under edit")
	}
	if snap.Omits(camera.FieldAzimuth) {
		t.Error("snapshot omits a field not under edit")
	}

	tok.Release()
	tok.Release()
	if c.Editing() != camera.FieldDistance {
		t.Errorf("editing = %v after one of two releases", c.Editing())
	}
	other.Release()
	if c.Editing() != camera.FieldNone {
		t.Errorf("editing = %v after all releases", c.Editing())
	}

	// Releasing publishes a fresh snapshot carrying the field again
	_ = c.Tick(now.Add(DefaultThrottle))
	snap = <-c.Snapshots()
	if snap.Omits(camera.FieldDistance) || math.Abs(snap.Distance-150) > 1e-9 {
		t.Errorf("snapshot after release = %+v", snap)
	}
}

func TestSnapshotThrottle(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})

	_ = c.Tick(t0)
	<-c.Snapshots()

	_ = c.Handle(Intent{Kind: DistanceChanged, Value: 120}, t0.Add(time.Millisecond))
	_ = c.Tick(t0.Add(10 * time.Millisecond))
	select {
	case s := <-c.Snapshots():
		t.Fatalf("published inside the throttle interval: %+v", s)
	default:
	}

	_ = c.Handle(Intent{Kind: DistanceChanged, Value: 130}, t0.Add(20*time.Millisecond))
	_ = c.Tick(t0.Add(30 * time.Millisecond))
	_ = c.Tick(t0.Add(50 * time.Millisecond))

	s := <-c.Snapshots()
	if math.Abs(s.Distance-130) > 1e-9 {
		t.Errorf("distance = %g, want latest 130", s.Distance)
	}
	select {
	case s := <-c.Snapshots():
		t.Errorf("unexpected second snapshot %+v", s)
	default:
	}
}

func TestEyeLevelLockHoldsHeight(t *testing.T) {
	c, sim := setup(t, r3.Vec{X: 80, Z: 20})

	// The toggle captures the current height, not the one it carries
	_ = c.Handle(Intent{Kind: ToggleEyeLevelLock, Enabled: true, EyeLevel: 99}, t0)
	if l := c.Committed().Lock; !l.Enabled || math.Abs(l.Height-20) > 1e-12 {
		t.Fatalf("lock = %+v, want enabled at 20", l)
	}

	intents := []Intent{
		{Kind: DistanceChanged, Value: 60},
		{Kind: InclinationChanged, Value: 25},
		{Kind: AzimuthChanged, Value: -70},
		{Kind: PanChanged, Value: 30},
		{Kind: DollyChanged, Value: 40},
		{Kind: TiltChanged, Value: -35},
		{Kind: FOVChanged, Value: 15},
		{Kind: CameraTypeChanged, Projection: camera.Orthographic},
		{Kind: CameraTypeChanged, Projection: camera.Perspective},
	}

	now := t0
	for _, in := range intents {
		now = now.Add(time.Second)
		if err := c.Handle(in, now); err != nil {
			t.Fatalf("%v: %v", in.Kind, err)
		}
		settle(t, c, now)

		if h := zUp.Height(c.Committed().State.Eye); math.Abs(h-20) > 1e-6 {
			t.Errorf("after %v eye height = %g, want 20", in.Kind, h)
		}
		if h := zUp.Height(sim.State().Eye); math.Abs(h-20) > 1e-6 {
			t.Errorf("after %v host eye height = %g, want 20", in.Kind, h)
		}
	}
}

func TestSetEyeLevelLevelsView(t *testing.T) {
	c, sim := setup(t, r3.Vec{X: 80, Z: 20})

	_ = c.Handle(Intent{Kind: SetEyeLevel, EyeLevel: 5, Locked: true}, t0)
	settle(t, c, t0)

	after := c.Committed()
	if h := zUp.Height(after.State.Eye); math.Abs(h-5) > 1e-9 {
		t.Errorf("eye height = %g, want 5", h)
	}
	if h := zUp.Height(after.State.Target); math.Abs(h-5) > 1e-9 {
		t.Errorf("target height = %g, want 5", h)
	}
	if inc := c.Snapshot().Inclination; math.Abs(inc) > 1e-9 {
		t.Errorf("inclination = %g, want a level view", inc)
	}
	if !after.Lock.Enabled || after.Lock.Height != 5 {
		t.Errorf("lock = %+v", after.Lock)
	}
	if !sim.State().Equal(after.State, 1e-9) {
		t.Errorf("host = %+v, want %+v", sim.State(), after.State)
	}
}

func TestEyeLevelSnapEases(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 80, Z: 20}, WithSnapDuration(100*time.Millisecond))

	_ = c.Handle(Intent{Kind: SetEyeLevel, EyeLevel: 40, Locked: true}, t0)

	now := t0
	var heights, targets []float64
	for i := 0; i < 30; i++ {
		now = now.Add(16 * time.Millisecond)
		if err := c.Tick(now); err != nil {
			t.Fatal(err)
		}
		st := c.Committed().State
		heights = append(heights, zUp.Height(st.Eye))
		targets = append(targets, zUp.Height(st.Target))
	}

	last := heights[len(heights)-1]
	if math.Abs(last-40) > 1e-9 {
		t.Errorf("final eye height = %g, want 40", last)
	}
	if last := targets[len(targets)-1]; math.Abs(last-40) > 1e-9 {
		t.Errorf("final target height = %g, want 40", last)
	}
	for i := range targets {
		if targets[i] < -1e-9 || targets[i] > 40+1e-9 {
			t.Errorf("target height %g at frame %d left the range [0, 40]", targets[i], i)
		}
	}
	intermediate := false
	for _, h := range heights {
		if h > 20 && h < 40 {
			intermediate = true
		}
	}
	if !intermediate {
		t.Errorf("no intermediate heights: %v", heights)
	}
	if l := c.Committed().Lock; !l.Enabled || l.Height != 40 {
		t.Errorf("lock = %+v, want enabled at 40", l)
	}
}

func TestStaleSelection(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})
	if err := c.Handle(Intent{Kind: SetTarget}, t0); !errors.Is(err, ErrStaleSelection) {
		t.Errorf("no picker: err = %v, want ErrStaleSelection", err)
	}

	none := PickerFunc(func() (r3.Vec, bool) { return r3.Vec{}, false })
	c, _ = setup(t, r3.Vec{X: 100}, WithPicker(none))
	if err := c.Handle(Intent{Kind: SetEye}, t0); !errors.Is(err, ErrStaleSelection) {
		t.Errorf("empty pick: err = %v, want ErrStaleSelection", err)
	}
}

func TestHostRejectionNotice(t *testing.T) {
	c, sim := setup(t, r3.Vec{X: 100})
	before := c.Committed().State

	sim.RejectNext("SetEye", 1)
	_ = c.Handle(Intent{Kind: DistanceChanged, Value: 30}, t0)
	now := t0.Add(pipeline.DefaultWindow)
	if err := c.Tick(now); !errors.Is(err, host.ErrRejected) {
		t.Fatalf("tick err = %v, want ErrRejected", err)
	}

	select {
	case n := <-c.Notices():
		if !n.Rejected() || n.Intent != 0 || !n.Time.Equal(now) {
			t.Errorf("notice = %+v", n)
		}
		if n.String() == "" {
			t.Error("empty notice message")
		}
	default:
		t.Fatal("no notice for the rejected commit")
	}
	if !c.Committed().State.Equal(before, 1e-9) {
		t.Errorf("committed = %+v, want %+v", c.Committed().State, before)
	}
}

func TestStaleSelectionNotice(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})
	_ = c.Handle(Intent{Kind: SetEye}, t0)

	select {
	case n := <-c.Notices():
		if n.Intent != SetEye || !errors.Is(n.Err, ErrStaleSelection) {
			t.Errorf("notice = %+v", n)
		}
	default:
		t.Fatal("no notice for a placement without a pick")
	}
}

func TestNoticesKeepNewest(t *testing.T) {
	c, _ := setup(t, r3.Vec{X: 100})
	for i := 0; i < noticeBuffer+3; i++ {
		_ = c.Handle(Intent{Kind: SetTarget}, t0.Add(time.Duration(i)*time.Millisecond))
	}

	var got []Notice
	for drained := false; !drained; {
		select {
		case n := <-c.Notices():
			got = append(got, n)
		default:
			drained = true
		}
	}
	if len(got) != noticeBuffer {
		t.Fatalf("got %d notices, want %d", len(got), noticeBuffer)
	}
	if want := t0.Add(time.Duration(noticeBuffer+2) * time.Millisecond); !got[len(got)-1].Time.Equal(want) {
		t.Errorf("last notice at %v, want %v", got[len(got)-1].Time, want)
	}
}

func TestSetTargetFromPicker(t *testing.T) {
	pick := PickerFunc(func() (r3.Vec, bool) { return r3.Vec{X: 10, Y: 5}, true })
	c, sim := setup(t, r3.Vec{X: 100}, WithPicker(pick))

	if err := c.Handle(Intent{Kind: SetTarget}, t0); err != nil {
		t.Fatal(err)
	}
	settle(t, c, t0)

	if got := sim.State().Target; got != (r3.Vec{X: 10, Y: 5}) {
		t.Errorf("host target = %v", got)
	}
}

func TestResetView(t *testing.T) {
	c, sim := setup(t, r3.Vec{X: 100, Z: 10})
	initial := c.Committed().State

	_ = c.Handle(Intent{Kind: DistanceChanged, Value: 30}, t0)
	_ = c.Handle(Intent{Kind: CameraTypeChanged, Projection: camera.Orthographic}, t0)
	settle(t, c, t0)

	if err := c.Handle(Intent{Kind: ResetView}, t0.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if !sim.State().Equal(initial, 1e-9) {
		t.Errorf("host = %+v, want %+v", sim.State(), initial)
	}
}

func TestPassiveEyeLevelCorrection(t *testing.T) {
	c, sim := setup(t, r3.Vec{X: 100}, WithDrift(0.1, 100*time.Millisecond))
	_ = c.Handle(Intent{Kind: ToggleEyeLevelLock, Enabled: true}, t0)

	sim.Navigate(r3.Vec{X: 100, Z: 30}, r3.Vec{})
	now := t0
	for i := 0; i < 20; i++ {
		now = now.Add(10 * time.Millisecond)
		if err := c.Tick(now); err != nil {
			t.Fatal(err)
		}
	}

	if h := zUp.Height(sim.State().Eye); math.Abs(h) > 1e-9 {
		t.Errorf("host eye height = %g, want corrected to 0", h)
	}
}

func TestRun(t *testing.T) {
	c, sim := setup(t, r3.Vec{X: 100})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	intents := make(chan Intent)
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, intents) }()

	intents <- Intent{Kind: AzimuthChanged, Value: 45}
	intents <- Intent{Kind: DistanceChanged, Value: 75}
	close(intents)

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	st := sim.State()
	if math.Abs(st.Distance()-75) > 1e-9 {
		t.Errorf("host distance = %g, want 75", st.Distance())
	}
	var last camera.Snapshot
	select {
	case last = <-c.Snapshots():
	default:
		t.Fatal("no final snapshot")
	}
	if math.Abs(last.Azimuth-45) > 1e-9 {
		t.Errorf("final snapshot azimuth = %g, want 45", last.Azimuth)
	}
}

func TestIntentKindText(t *testing.T) {
	var k IntentKind
	if err := k.UnmarshalText([]byte("toggleEyeLevelLock")); err != nil || k != ToggleEyeLevelLock {
		t.Errorf("got %v, %v", k, err)
	}
	if err := k.UnmarshalText([]byte("zoomIn")); err == nil {
		t.Error("expected error for unknown intent")
	}
	if PanChanged.Field() != camera.FieldPan || ResetView.Field() != camera.FieldNone {
		t.Error("unexpected intent field mapping")
	}
}

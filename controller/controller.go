// Package controller turns UI intents into staged camera edits and publishes
// the committed camera back to the UI.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/eyelevel"
	"github.com/pthm-cable/camrig/host"
	"github.com/pthm-cable/camrig/lens"
	"github.com/pthm-cable/camrig/payload"
	"github.com/pthm-cable/camrig/pipeline"
)

// ErrStaleSelection is returned by absolute placement intents when the picker
// has no valid point.
var ErrStaleSelection = errors.New("no valid selection")

// DefaultThrottle is the minimum interval between published snapshots.
const DefaultThrottle = 50 * time.Millisecond

// snapFrame is the step used to advance an eased eye-level snap.
const snapFrame = 16 * time.Millisecond

// hostTolerance is how far the host camera may differ from Committed before it
// is treated as navigated. Hosts that store single precision round by more
// than 1e-6 at scene scale.
const hostTolerance = 1e-4

// pollInterval bounds how long Run sleeps when nothing is scheduled.
const pollInterval = 100 * time.Millisecond

// Picker supplies a world point chosen by the user.
type Picker interface {
	Pick() (r3.Vec, bool)
}

// PickerFunc adapts a function to Picker.
type PickerFunc func() (r3.Vec, bool)

// Pick calls f.
func (f PickerFunc) Pick() (r3.Vec, bool) { return f() }

// Controller classifies UI intents, feeds the pipeline and publishes
// throttled snapshots. All methods except BeginEdit and Token.Release must be
// called from the goroutine that drives the controller.
type Controller struct {
	pipe   *pipeline.Pipeline
	host   host.Camera
	lens   lens.Model
	picker Picker
	logger *slog.Logger

	rule    camera.BoundsRule
	bounds  camera.DistanceBounds
	initial camera.State

	mu      sync.Mutex
	editing map[camera.Field]int

	throttle time.Duration
	lastSent time.Time
	dirty    bool
	out      chan camera.Snapshot
	notices  chan Notice

	drift      *eyelevel.Drift
	snapDur    time.Duration
	snap       *eyelevel.Transition // eye height
	snapTarget *eyelevel.Transition // target height, same duration
	snapLock   bool
	lastFrame  time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPicker sets the source of points for setEye and setTarget.
func WithPicker(p Picker) Option {
	return func(c *Controller) { c.picker = p }
}

// WithThrottle sets the minimum interval between published snapshots.
func WithThrottle(d time.Duration) Option {
	return func(c *Controller) { c.throttle = d }
}

// WithBoundsRule sets how distance bounds are derived from the scene.
func WithBoundsRule(r camera.BoundsRule) Option {
	return func(c *Controller) { c.rule = r }
}

// WithDrift enables passive eye-level correction after host navigation.
func WithDrift(tolerance float64, settle time.Duration) Option {
	return func(c *Controller) { c.drift = eyelevel.NewDrift(tolerance, settle) }
}

// WithSnapDuration eases eye-level moves over d instead of jumping.
func WithSnapDuration(d time.Duration) Option {
	return func(c *Controller) { c.snapDur = d }
}

// New creates a controller over a pipeline and the host it writes to. The
// pipeline's committed camera is recorded as the reset view.
func New(p *pipeline.Pipeline, h host.Camera, m lens.Model, opts ...Option) *Controller {
	c := &Controller{
		pipe:     p,
		host:     h,
		lens:     m,
		logger:   slog.Default(),
		rule:     camera.BoundsRule{Multiplier: 4, MinFloor: 1, FallbackMin: 10, FallbackMax: 10000},
		editing:  make(map[camera.Field]int),
		throttle: DefaultThrottle,
		out:      make(chan camera.Snapshot, 1),
		notices:  make(chan Notice, noticeBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initial = p.Committed().State
	c.UpdateBounds()
	c.markDirty()
	return c
}

// UpdateBounds recomputes the distance bounds from the host's scene.
func (c *Controller) UpdateBounds() {
	var box r3.Box
	if sb, ok := c.host.(host.SceneBounder); ok {
		if b, ok := sb.SceneBounds(); ok {
			box = b
		}
	}
	c.bounds = c.rule.FromScene(box)
	c.pipe.Builder().Bounds = c.bounds
	c.markDirty()
}

// Bounds returns the current distance bounds.
func (c *Controller) Bounds() camera.DistanceBounds { return c.bounds }

// Snapshots returns the channel snapshots are published on. Only the most
// recent unread snapshot is kept.
func (c *Controller) Snapshots() <-chan camera.Snapshot { return c.out }

// Handle applies one intent received at now.
func (c *Controller) Handle(in Intent, now time.Time) error {
	err := c.handle(in, now)
	if err != nil {
		c.logger.Warn("intent rejected", "intent", in.Kind.String(), "error", err)
		c.notify(in.Kind, err, now)
	}
	c.markDirty()
	return err
}

func (c *Controller) handle(in Intent, now time.Time) error {
	if f, ok := scalarFields[in.Kind]; ok {
		e, err := payload.NewScalar(f, in.Value, in.Source)
		if err != nil {
			return err
		}
		c.pipe.Submit(e, now)
		return nil
	}

	switch in.Kind {
	case FOVChanged:
		return c.lensEdit(lens.Radians(in.Value), in.Source, now)
	case FocalLengthChanged:
		if !(in.Value > 0) {
			return fmt.Errorf("focal length %g: %w", in.Value, errNonPositive)
		}
		return c.lensEdit(c.lens.FocalLengthToFOV(in.Value), in.Source, now)
	case SliderChanged:
		return c.lensEdit(c.lens.FocalLengthToFOV(c.lens.SliderToFocalLength(in.Value)), in.Source, now)
	case DefaultLens:
		return c.lensEdit(c.lens.DefaultFOV, in.Source, now)

	case CameraTypeChanged:
		c.pipe.Submit(payload.NewProjection(in.Projection, in.Source), now)
		return nil

	case ToggleEyeLevelLock:
		com := c.pipe.Committed()
		lc := eyelevel.New(c.pipe.Builder().Frame)
		lc.Restore(com.Lock)
		lc.SetEnabled(in.Enabled, com.State.Eye)
		c.pipe.SetLock(lc.Lock())
		if c.drift != nil {
			c.drift.Reset()
		}
		return nil

	case SetEyeLevel:
		return c.moveEyeLevel(in.EyeLevel, in.Locked, in.Source, now)

	case SetEye, SetTarget:
		if c.picker == nil {
			return ErrStaleSelection
		}
		p, ok := c.picker.Pick()
		if !ok {
			return ErrStaleSelection
		}
		e, err := payload.NewPoint(in.Kind.Field(), p, in.Source)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStaleSelection, err)
		}
		c.pipe.Submit(e, now)
		return nil

	case FitToView:
		c.snap = nil
		return c.pipe.FitToView(now)

	case ResetView:
		c.snap = nil
		_, err := c.pipe.Restore(c.initial, now)
		return err
	}
	return fmt.Errorf("unhandled intent %v", in.Kind)
}

var errNonPositive = errors.New("must be positive")

func (c *Controller) lensEdit(fov float64, src payload.Source, now time.Time) error {
	e, err := payload.NewScalar(camera.FieldFOV, c.lens.ClampFOV(fov), src)
	if err != nil {
		return err
	}
	c.pipe.Submit(e, now)
	return nil
}

// moveEyeLevel brings eye and target to height h so the view ends level,
// easing if a snap duration is set.
func (c *Controller) moveEyeLevel(h float64, locked bool, src payload.Source, now time.Time) error {
	e, err := payload.NewEyeLevel(h, h, locked, src)
	if err != nil {
		return err
	}
	if c.snapDur <= 0 {
		c.pipe.Submit(e, now)
		return nil
	}
	st := c.pipe.Committed().State
	f := c.pipe.Builder().Frame
	c.snap = eyelevel.NewTransition(f.Height(st.Eye), h, c.snapDur)
	c.snapTarget = eyelevel.NewTransition(f.Height(st.Target), h, c.snapDur)
	c.snapLock = locked
	c.lastFrame = now
	return nil
}

// Recall commits a stored camera state, as for a named view.
func (c *Controller) Recall(s camera.State, now time.Time) error {
	c.snap = nil
	_, err := c.pipe.Restore(s, now)
	c.markDirty()
	if err != nil {
		c.logger.Warn("recall failed", "error", err)
		c.notify(0, err, now)
	}
	return err
}

// Committed returns the pipeline's committed state.
func (c *Controller) Committed() pipeline.Committed { return c.pipe.Committed() }

// Tick advances timers: the eye-level snap, the coalescing window, detection
// of navigation done inside the host and the snapshot throttle.
func (c *Controller) Tick(now time.Time) error {
	var errs []error

	if c.snap != nil {
		dt := now.Sub(c.lastFrame)
		h, done := c.snap.Step(dt)
		th, _ := c.snapTarget.Step(dt)
		c.lastFrame = now
		e, err := payload.NewEyeLevel(h, th, done && c.snapLock, payload.Control)
		if err == nil {
			c.pipe.Submit(e, now)
		}
		if done {
			c.snap, c.snapTarget = nil, nil
		}
	}

	committed, err := c.pipe.Tick(now)
	if err != nil {
		c.notify(0, err, now)
		errs = append(errs, err)
	}
	if committed {
		c.markDirty()
	}

	if c.pipe.Phase() == pipeline.Idle && c.snap == nil {
		if err := c.observeHost(now); err != nil {
			errs = append(errs, err)
		}
	}

	c.maybePublish(now)
	return errors.Join(errs...)
}

// observeHost adopts navigation performed inside the host and, when the
// eye-level lock is on, snaps the eye back once the navigation settles.
func (c *Controller) observeHost(now time.Time) error {
	com := c.pipe.Committed()
	if !c.host.State().Equal(com.State, hostTolerance) {
		if err := c.pipe.Adopt(); err != nil {
			return fmt.Errorf("adopting host camera: %w", err)
		}
		c.markDirty()
		com = c.pipe.Committed()
	}

	if c.drift == nil {
		return nil
	}
	if c.drift.Observe(com.Lock, com.Derived.EyeHeight, now) {
		c.logger.Info("correcting eye level", "from", com.Derived.EyeHeight, "to", com.Lock.Height)
		return c.moveEyeLevel(com.Lock.Height, true, payload.Control, now)
	}
	return nil
}

// NextWake returns the earliest time Tick has work to do. With nothing
// pending the host is still polled for outside navigation.
func (c *Controller) NextWake(now time.Time) time.Time {
	next := now.Add(pollInterval)
	if d, ok := c.pipe.Deadline(); ok && d.Before(next) {
		next = d
	}
	if c.isDirty() {
		if t := c.lastSent.Add(c.throttle); t.Before(next) {
			next = t
		}
	}
	if c.snap != nil || (c.drift != nil && c.drift.Pending()) {
		if t := now.Add(snapFrame); t.Before(next) {
			next = t
		}
	}
	if next.Before(now) {
		next = now
	}
	return next
}

// Run drives the controller from an intent channel until ctx is cancelled or
// intents is closed. Staged edits are flushed and a final snapshot published
// when intents closes.
func (c *Controller) Run(ctx context.Context, intents <-chan Intent) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case in, ok := <-intents:
			now := time.Now()
			if !ok {
				return c.Close(now)
			}
			_ = c.Handle(in, now)
			timer.Reset(time.Until(c.NextWake(now)))

		case now := <-timer.C:
			if err := c.Tick(now); err != nil {
				c.logger.Warn("tick", "error", err)
			}
			timer.Reset(time.Until(c.NextWake(now)))
		}
	}
}

// Close flushes staged edits and publishes a final snapshot.
func (c *Controller) Close(now time.Time) error {
	// Play out any eased move
	for c.snap != nil {
		now = now.Add(snapFrame)
		_ = c.Tick(now)
	}
	_, err := c.pipe.Flush(now)
	if err != nil {
		c.notify(0, err, now)
	}
	c.markDirty()
	c.publish(now)
	return err
}

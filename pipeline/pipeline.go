// Package pipeline commits merged camera edits to the host camera.
//
// Edits are staged for a short coalescing window, merged into one payload and
// written in two phases: projection and field of view first, then eye, target
// and up re-applied, so any reframing the host performs on lens or projection
// changes is overwritten before the single refresh.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/eyelevel"
	"github.com/pthm-cable/camrig/host"
	"github.com/pthm-cable/camrig/payload"
)

// DefaultWindow is the default coalescing window.
const DefaultWindow = 8 * time.Millisecond

// Phase is the pipeline's lifecycle state.
type Phase uint8

const (
	Idle Phase = iota
	Staging
	Committing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Staging:
		return "staging"
	case Committing:
		return "committing"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Committed is the last camera state the host accepted, with its derived poses
// and the eye-level lock in force.
type Committed struct {
	State   camera.State
	Derived camera.Derived
	Lock    eyelevel.Lock
}

// Result describes a successful commit.
type Result struct {
	Committed Committed
	Fields    camera.Field
	Restored  bool
	Sanitized bool          // a projection switch went through the fit sequence
	Latency   time.Duration // first staged edit to commit
	Elapsed   time.Duration // wall time spent writing to the host
}

// Pipeline owns Committed and is its only writer.
type Pipeline struct {
	host    host.Camera
	builder *payload.Builder
	logger  *slog.Logger
	window  time.Duration
	observe func(Result)
	failed  func(error)

	phase     Phase
	committed Committed
	pending   *payload.Pending
	queued    []payload.Edit
	firstEdit time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWindow sets the coalescing window.
func WithWindow(d time.Duration) Option {
	return func(p *Pipeline) { p.window = d }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithObserver registers fn to be called after every successful commit.
func WithObserver(fn func(Result)) Option {
	return func(p *Pipeline) { p.observe = fn }
}

// WithFailureObserver registers fn to be called with the error of every
// commit that was skipped.
func WithFailureObserver(fn func(error)) Option {
	return func(p *Pipeline) { p.failed = fn }
}

// New creates a pipeline whose Committed state is read from h.
func New(h host.Camera, b *payload.Builder, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		host:    h,
		builder: b,
		logger:  slog.Default(),
		window:  DefaultWindow,
		pending: payload.NewPending(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Adopt(); err != nil {
		return nil, fmt.Errorf("reading initial host camera: %w", err)
	}
	return p, nil
}

// Phase returns the current lifecycle state.
func (p *Pipeline) Phase() Phase { return p.phase }

// Committed returns the last committed state.
func (p *Pipeline) Committed() Committed { return p.committed }

// Builder returns the payload builder, whose bounds the controller updates.
func (p *Pipeline) Builder() *payload.Builder { return p.builder }

// Pending reports the fields waiting for the next commit.
func (p *Pipeline) Pending() camera.Field {
	f := p.pending.Fields()
	for _, e := range p.queued {
		f |= e.Field
	}
	return f
}

// Submit stages e. The first edit of a cycle opens the coalescing window.
// Edits submitted while a commit is in progress are queued and start a new
// cycle once it finishes.
func (p *Pipeline) Submit(e payload.Edit, now time.Time) {
	switch p.phase {
	case Committing:
		p.queued = append(p.queued, e)
	case Idle:
		p.phase = Staging
		p.firstEdit = now
		fallthrough
	default:
		p.pending.Add(e)
	}
}

// Deadline returns when the current staging window closes.
func (p *Pipeline) Deadline() (time.Time, bool) {
	if p.phase != Staging {
		return time.Time{}, false
	}
	return p.firstEdit.Add(p.window), true
}

// Tick commits the staged edits if the coalescing window has closed.
// It reports whether a commit was attempted.
func (p *Pipeline) Tick(now time.Time) (bool, error) {
	d, ok := p.Deadline()
	if !ok || now.Before(d) {
		return false, nil
	}
	_, err := p.commit(now)
	return true, err
}

// Flush commits any staged edits immediately.
func (p *Pipeline) Flush(now time.Time) (Result, error) {
	if p.phase != Staging {
		return Result{}, nil
	}
	return p.commit(now)
}

// Restore replaces the whole camera, as for reset or view recall, through the
// same two-phase path as any other commit.
func (p *Pipeline) Restore(s camera.State, now time.Time) (Result, error) {
	e, err := payload.NewRestore(s, payload.Control)
	if err != nil {
		return Result{}, err
	}
	p.Submit(e, now)
	return p.Flush(now)
}

// FitToView commits staged edits, asks the host to frame the scene and adopts
// the result as the new Committed state.
func (p *Pipeline) FitToView(now time.Time) error {
	if _, err := p.Flush(now); err != nil {
		return err
	}
	if err := p.host.FitToView(); err != nil {
		return rejected("fit to view", err)
	}
	if err := p.host.Refresh(); err != nil {
		return rejected("refresh", err)
	}
	return p.Adopt()
}

// Adopt accepts the host's current camera as Committed. It is used at start-up
// and after navigation that happened inside the host.
func (p *Pipeline) Adopt() error {
	st := p.host.State()
	lv, err := st.Level()
	if err != nil {
		return err
	}
	d, err := camera.Derive(lv, p.builder.Frame, p.committed.Derived)
	if err != nil {
		return err
	}
	p.committed.State = lv
	p.committed.Derived = d
	return nil
}

// SetLock replaces the eye-level lock without touching the camera.
func (p *Pipeline) SetLock(l eyelevel.Lock) { p.committed.Lock = l }

func (p *Pipeline) commit(now time.Time) (Result, error) {
	p.phase = Committing
	defer p.finish(now)

	res := Result{Latency: now.Sub(p.firstEdit)}
	start := time.Now()

	pl, err := p.builder.Build(p.committed.State, p.committed.Derived, p.committed.Lock, p.pending)
	p.pending.Reset()
	if err != nil {
		p.logger.Warn("commit aborted", "stage", "build", "error", err)
		p.fail(err)
		return Result{}, err
	}

	prev := p.committed.State
	res.Sanitized = pl.ProjectionChanged(prev)
	if err := p.write(pl.State, res.Sanitized); err != nil {
		p.logger.Warn("commit aborted", "stage", "host", "fields", pl.Fields.String(), "error", err)
		p.rollback(prev)
		p.fail(err)
		return Result{}, err
	}

	p.committed = Committed{State: pl.State, Derived: pl.Derived, Lock: pl.Lock}
	res.Committed = p.committed
	res.Fields = pl.Fields
	res.Restored = pl.Restored
	res.Elapsed = time.Since(start)
	if p.observe != nil {
		p.observe(res)
	}
	return res, nil
}

func (p *Pipeline) fail(err error) {
	if p.failed != nil {
		p.failed(err)
	}
}

// finish leaves Committing, opening a new staging cycle for queued edits.
func (p *Pipeline) finish(now time.Time) {
	p.phase = Idle
	if len(p.queued) == 0 {
		return
	}
	queued := p.queued
	p.queued = nil
	for _, e := range queued {
		p.Submit(e, now)
	}
}

// write assigns s to the host. A projection switch is first sanitized by going
// through a fitted perspective view so the host recomputes its extents.
func (p *Pipeline) write(s camera.State, sanitize bool) error {
	h := p.host
	if sanitize {
		if err := h.SetProjection(camera.Perspective); err != nil {
			return rejected("sanitize projection", err)
		}
		if err := h.FitToView(); err != nil {
			return rejected("sanitize fit", err)
		}
	}

	// Phase 1: projection and lens
	if err := h.SetProjection(s.Projection); err != nil {
		return rejected("set projection", err)
	}
	if err := h.SetFOV(s.FOV); err != nil {
		return rejected("set fov", err)
	}

	// Phase 2: pose, overwriting any reframing from phase 1
	if err := h.SetEye(s.Eye); err != nil {
		return rejected("set eye", err)
	}
	if err := h.SetTarget(s.Target); err != nil {
		return rejected("set target", err)
	}
	if err := h.SetUp(s.Up); err != nil {
		return rejected("set up", err)
	}
	if err := h.Refresh(); err != nil {
		return rejected("refresh", err)
	}
	return nil
}

// rollback re-applies the committed state so the host view matches it again.
func (p *Pipeline) rollback(prev camera.State) {
	cur := p.host.State()
	if err := p.write(prev, cur.Projection != prev.Projection); err != nil {
		p.logger.Error("rollback failed", "error", err)
	}
}

func rejected(step string, err error) error {
	if errors.Is(err, host.ErrRejected) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%s: %w: %w", step, host.ErrRejected, err)
}

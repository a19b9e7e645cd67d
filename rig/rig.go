// Package rig assembles a camera rig from configuration: host camera, commit
// pipeline, controller, named views and telemetry output.
package rig

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/config"
	"github.com/pthm-cable/camrig/controller"
	"github.com/pthm-cable/camrig/geom"
	"github.com/pthm-cable/camrig/host"
	"github.com/pthm-cable/camrig/payload"
	"github.com/pthm-cable/camrig/pipeline"
	"github.com/pthm-cable/camrig/telemetry"
	"github.com/pthm-cable/camrig/views"
)

// Rig owns one camera session.
type Rig struct {
	cfg  *config.Config
	opts Options

	host  host.Camera
	pipe  *pipeline.Pipeline
	ctrl  *controller.Controller
	views *views.Store

	collector *telemetry.Collector
	output    *telemetry.OutputManager
	start     time.Time

	viewIndex int

	mu     sync.Mutex
	picked *r3.Vec // last point chosen for setEye / setTarget
}

// NewHeadless builds a rig over the simulated host described by the scene
// section of cfg.
func NewHeadless(cfg *config.Config, opts Options) (*Rig, *host.Sim, error) {
	d := cfg.Derived
	sim := host.NewSim(d.InitialCamera, d.SceneBox, d.WorldUp)
	r, err := newRig(cfg, opts, sim)
	if err != nil {
		return nil, nil, err
	}
	return r, sim, nil
}

func newRig(cfg *config.Config, opts Options, h host.Camera) (*Rig, error) {
	d := cfg.Derived
	frame, err := geom.NewFrame(d.WorldUp)
	if err != nil {
		return nil, fmt.Errorf("world up: %w", err)
	}

	r := &Rig{
		cfg:       cfg,
		opts:      opts,
		host:      h,
		start:     time.Now(),
		collector: telemetry.NewCollector(d.StatsWindow, time.Now()),
	}

	if r.output, err = telemetry.NewOutputManager(opts.OutputDir); err != nil {
		return nil, err
	}
	if err := r.output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	b := &payload.Builder{Frame: frame, Lens: d.Lens}
	r.pipe, err = pipeline.New(h, b,
		pipeline.WithWindow(d.Coalesce),
		pipeline.WithObserver(r.onCommit),
		pipeline.WithFailureObserver(r.onFailure),
	)
	if err != nil {
		r.output.Close()
		return nil, err
	}

	copts := []controller.Option{
		controller.WithThrottle(d.Throttle),
		controller.WithBoundsRule(d.Bounds),
		controller.WithDrift(cfg.EyeLevel.Tolerance, d.Settle),
		controller.WithSnapDuration(d.Snap),
		controller.WithPicker(controller.PickerFunc(r.pick)),
	}
	r.ctrl = controller.New(r.pipe, h, d.Lens, copts...)

	if r.views, err = views.New(d.WorldUp); err != nil {
		r.output.Close()
		return nil, err
	}
	if opts.ViewsPath != "" {
		err := r.views.Load(opts.ViewsPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			slog.Warn("ignoring views file", "path", opts.ViewsPath, "error", err)
		default:
			slog.Info("views loaded", "path", opts.ViewsPath, "count", len(r.views.Names()))
		}
	}
	return r, nil
}

// Pick records p as the point used by the next setEye or setTarget.
func (r *Rig) Pick(p r3.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.picked = &p
}

// pick hands the chosen point to the controller once.
func (r *Rig) pick() (r3.Vec, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.picked == nil {
		return r3.Vec{}, false
	}
	p := *r.picked
	r.picked = nil
	return p, true
}

// Controller returns the rig's controller.
func (r *Rig) Controller() *controller.Controller { return r.ctrl }

// Views returns the named view store.
func (r *Rig) Views() *views.Store { return r.views }

// Unload flushes telemetry, saves views and closes output files.
func (r *Rig) Unload() error {
	r.flushTelemetry(time.Now(), true)

	var errs []error
	if r.opts.ViewsPath != "" && len(r.views.Names()) > 0 {
		if err := r.views.WriteYAML(r.opts.ViewsPath); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.output.Close(); err != nil {
		errs = append(errs, err)
	} else if dir := r.output.Dir(); dir != "" {
		slog.Info("session output written", "dir", dir)
	}
	return errors.Join(errs...)
}

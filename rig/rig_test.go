package rig

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/config"
	"github.com/pthm-cable/camrig/controller"
	"github.com/pthm-cable/camrig/views"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	// Skip the eased snap so scripts settle quickly
	cfg.Derived.Snap = 0
	return cfg
}

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(`
steps:
  - wait_ms: 10
    intent: {kind: cameraTypeChanged, projection: ortho}
  - pick: [1, 2, 3]
    intent: {kind: setEye}
  - wait_ms: 5
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Steps) != 3 {
		t.Fatalf("got %d steps", len(s.Steps))
	}
	if in := s.Steps[0].Intent; in.Kind != controller.CameraTypeChanged || in.Projection != camera.Orthographic {
		t.Errorf("step 0 intent = %+v", in)
	}
	if p := s.Steps[1].Pick; p == nil || *p != [3]float64{1, 2, 3} {
		t.Errorf("step 1 pick = %v", p)
	}
	if s.Steps[2].Intent != nil {
		t.Error("step 2 should have no intent")
	}

	if _, err := ParseScript([]byte("steps:\n  - intent: {kind: zoomIn}\n")); err == nil {
		t.Error("expected error for unknown intent")
	}
	if _, err := ParseScript([]byte("steps:\n  - wait_ms: -1\n")); err == nil {
		t.Error("expected error for negative wait")
	}
}

func TestDemoScriptParses(t *testing.T) {
	s, err := LoadScript("")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Steps) == 0 {
		t.Fatal("empty demo script")
	}
}

func TestHeadlessScript(t *testing.T) {
	cfg := loadConfig(t)
	out := t.TempDir()
	r, sim, err := NewHeadless(cfg, Options{OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}

	script := Script{Steps: []Step{
		{WaitMS: 5, Intent: &controller.Intent{Kind: controller.AzimuthChanged, Value: 90}},
		{WaitMS: 1, Intent: &controller.Intent{Kind: controller.DistanceChanged, Value: 30}},
		{WaitMS: 30, Pick: &[3]float64{1, 1, 1}, Intent: &controller.Intent{Kind: controller.SetTarget}},
		{WaitMS: 30, Intent: &controller.Intent{Kind: controller.CameraTypeChanged, Projection: camera.Orthographic}},
	}}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.RunScript(ctx, script); err != nil {
		t.Fatal(err)
	}
	if err := r.Unload(); err != nil {
		t.Fatal(err)
	}

	st := sim.State()
	if st.Target != (r3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("target = %v", st.Target)
	}
	if st.Projection != camera.Orthographic {
		t.Errorf("projection = %v", st.Projection)
	}

	commits, err := os.ReadFile(filepath.Join(out, "commits.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(commits), "\n"); lines < 4 {
		t.Errorf("commits.csv has %d lines, want header and at least 3 commits", lines)
	}
	for _, name := range []string{"snapshots.csv", "commit_stats.csv", "config.yaml"} {
		if fi, err := os.Stat(filepath.Join(out, name)); err != nil || fi.Size() == 0 {
			t.Errorf("%s missing or empty: %v", name, err)
		}
	}
}

func TestScriptCancelled(t *testing.T) {
	r, _, err := NewHeadless(loadConfig(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.RunScript(ctx, Script{Steps: []Step{{WaitMS: 1000}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestViewsPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "views.yaml")
	cfg := loadConfig(t)

	r, sim, err := NewHeadless(cfg, Options{ViewsPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.NextView(time.Now()); !errors.Is(err, views.ErrNotFound) {
		t.Errorf("empty store err = %v", err)
	}
	start := sim.State()
	if _, err := r.Views().Save("", start); err != nil {
		t.Fatal(err)
	}
	if err := r.Unload(); err != nil {
		t.Fatal(err)
	}

	r2, sim2, err := NewHeadless(cfg, Options{ViewsPath: path})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	_ = r2.Controller().Handle(controller.Intent{Kind: controller.DistanceChanged, Value: 30}, now)
	if err := r2.Controller().Close(now); err != nil {
		t.Fatal(err)
	}
	if err := r2.NextView(now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if !sim2.State().Equal(start, 1e-9) {
		t.Errorf("recalled %+v, want %+v", sim2.State(), start)
	}
}

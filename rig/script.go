package rig

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/camrig/controller"
)

//go:embed demo.yaml
var demoYAML []byte

// Step is one entry of an intent script: wait, optionally pick a point, then
// send an intent.
type Step struct {
	WaitMS int                `yaml:"wait_ms"`
	Pick   *[3]float64        `yaml:"pick,omitempty"`
	Intent *controller.Intent `yaml:"intent,omitempty"`
}

// Script is a sequence of timed intents replayed against a headless rig.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// ParseScript decodes a YAML intent script.
func ParseScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("parsing script: %w", err)
	}
	for i, st := range s.Steps {
		if st.WaitMS < 0 {
			return Script{}, fmt.Errorf("step %d: negative wait", i)
		}
	}
	return s, nil
}

// LoadScript reads a script from path, or the built-in demo if path is empty.
func LoadScript(path string) (Script, error) {
	if path == "" {
		return ParseScript(demoYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("reading script: %w", err)
	}
	return ParseScript(data)
}

// RunScript drives the controller with the script's intents in real time and
// records every published snapshot. It returns once the last step has been
// committed and the final snapshot published.
func (r *Rig) RunScript(ctx context.Context, s Script) error {
	intents := make(chan controller.Intent)
	done := make(chan error, 1)
	go func() { done <- r.ctrl.Run(ctx, intents) }()

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	feed := func() error {
		defer close(intents)
		for i, st := range s.Steps {
			timer.Reset(time.Duration(st.WaitMS) * time.Millisecond)
		wait:
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case snap := <-r.ctrl.Snapshots():
					r.recordSnapshot(snap)
				case <-timer.C:
					break wait
				}
			}

			if st.Pick != nil {
				r.Pick(r3.Vec{X: st.Pick[0], Y: st.Pick[1], Z: st.Pick[2]})
			}
			if st.Intent == nil {
				continue
			}
			slog.Debug("script step", "step", i, "intent", st.Intent.Kind.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case intents <- *st.Intent:
			}
		}
		return nil
	}

	feedErr := feed()
	runErr := <-done
	// Close published the final snapshot
	select {
	case snap := <-r.ctrl.Snapshots():
		r.recordSnapshot(snap)
	default:
	}

	if feedErr != nil {
		return feedErr
	}
	return runErr
}

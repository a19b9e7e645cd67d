package rig

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/pipeline"
	"github.com/pthm-cable/camrig/telemetry"
)

// onCommit is the pipeline observer. It runs on the goroutine driving the
// controller.
func (r *Rig) onCommit(res pipeline.Result) {
	r.collector.Record(res)
	if err := r.output.WriteCommit(telemetry.NewCommitRecord(time.Since(r.start), res)); err != nil {
		slog.Error("failed to write commit", "error", err)
	}
	r.flushTelemetry(time.Now(), false)
}

func (r *Rig) onFailure(err error) {
	r.collector.RecordFailure()
}

// recordSnapshot writes a snapshot the controller published.
func (r *Rig) recordSnapshot(s camera.Snapshot) {
	if err := r.output.WriteSnapshot(time.Since(r.start), s); err != nil {
		slog.Error("failed to write snapshot", "error", err)
	}
}

// flushTelemetry writes the commit stats window once it has elapsed, or
// unconditionally when force is set.
func (r *Rig) flushTelemetry(now time.Time, force bool) {
	if !force && !r.collector.ShouldFlush(now) {
		return
	}
	stats := r.collector.Flush(now)
	if stats.Commits == 0 && stats.Failures == 0 {
		return
	}

	if r.opts.LogStats {
		stats.LogStats()
	}
	if err := r.output.WriteStats(stats, now.Sub(r.start)); err != nil {
		slog.Error("failed to write commit stats", "error", err)
	}
}

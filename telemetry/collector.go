package telemetry

import (
	"time"

	"github.com/pthm-cable/camrig/pipeline"
)

// Collector accumulates commit results within time windows and produces
// CommitStats.
type Collector struct {
	window      time.Duration
	windowStart time.Time

	latencies []time.Duration
	writes    []time.Duration
	failures  int
	sanitized int
	restores  int
	stats     CommitStats
}

// NewCollector creates a collector that flushes every window.
func NewCollector(window time.Duration, start time.Time) *Collector {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &Collector{window: window, windowStart: start}
}

// Record adds a successful commit. It has the signature of a pipeline
// observer.
func (c *Collector) Record(r pipeline.Result) {
	c.latencies = append(c.latencies, r.Latency)
	c.writes = append(c.writes, r.Elapsed)
	if r.Sanitized {
		c.sanitized++
	}
	if r.Restored {
		c.restores++
	}
	c.stats.Fields |= r.Fields
}

// RecordFailure counts a commit the host rejected or that failed to build.
func (c *Collector) RecordFailure() {
	c.failures++
}

// ShouldFlush returns true once the current window has elapsed.
func (c *Collector) ShouldFlush(now time.Time) bool {
	return now.Sub(c.windowStart) >= c.window
}

// Flush produces the stats for the window ending at now and starts a new one.
func (c *Collector) Flush(now time.Time) CommitStats {
	s := c.stats
	s.Commits = len(c.latencies)
	s.Failures = c.failures
	s.Sanitized = c.sanitized
	s.Restores = c.restores
	s.LatencyMean, s.LatencyP50, s.LatencyP90, s.LatencyMax = durationStats(c.latencies)
	s.WriteMean, _, _, s.WriteMax = durationStats(c.writes)

	c.latencies = c.latencies[:0]
	c.writes = c.writes[:0]
	c.failures, c.sanitized, c.restores = 0, 0, 0
	c.stats = CommitStats{}
	c.windowStart = now
	return s
}

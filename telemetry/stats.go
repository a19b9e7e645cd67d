package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/camrig/camera"
)

// CommitStats summarises commits over one reporting window.
type CommitStats struct {
	Commits   int
	Failures  int
	Sanitized int // projection switches that went through the fit sequence
	Restores  int

	LatencyMean time.Duration // first staged edit to commit
	LatencyP50  time.Duration
	LatencyP90  time.Duration
	LatencyMax  time.Duration

	WriteMean time.Duration // time spent writing to the host
	WriteMax  time.Duration

	Fields camera.Field // union of fields committed in the window
}

// durationStats returns mean, p50, p90 and max of ds. Quantiles are taken
// from the empirical distribution, so each is one of the observed durations.
func durationStats(ds []time.Duration) (mean, p50, p90, max time.Duration) {
	if len(ds) == 0 {
		return 0, 0, 0, 0
	}
	x := make([]float64, len(ds))
	for i, d := range ds {
		x[i] = float64(d)
	}
	slices.Sort(x)

	mean = time.Duration(stat.Mean(x, nil))
	p50 = time.Duration(stat.Quantile(0.5, stat.Empirical, x, nil))
	p90 = time.Duration(stat.Quantile(0.9, stat.Empirical, x, nil))
	max = time.Duration(x[len(x)-1])
	return mean, p50, p90, max
}

// LogValue implements slog.LogValuer for structured logging.
func (s CommitStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("commits", s.Commits),
		slog.Int("failures", s.Failures),
		slog.Int64("latency_mean_us", s.LatencyMean.Microseconds()),
		slog.Int64("latency_p90_us", s.LatencyP90.Microseconds()),
		slog.Int64("latency_max_us", s.LatencyMax.Microseconds()),
		slog.Int64("write_mean_us", s.WriteMean.Microseconds()),
	}
	if s.Sanitized > 0 {
		attrs = append(attrs, slog.Int("sanitized", s.Sanitized))
	}
	if s.Restores > 0 {
		attrs = append(attrs, slog.Int("restores", s.Restores))
	}
	if s.Fields != camera.FieldNone {
		attrs = append(attrs, slog.String("fields", s.Fields.String()))
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the window summary.
func (s CommitStats) LogStats() {
	slog.Info("commits", "stats", s)
}

// CommitStatsCSV is a flat struct for CSV export of commit stats.
type CommitStatsCSV struct {
	WindowEndMS   int64  `csv:"window_end_ms"`
	Commits       int    `csv:"commits"`
	Failures      int    `csv:"failures"`
	Sanitized     int    `csv:"sanitized"`
	Restores      int    `csv:"restores"`
	LatencyMeanUS int64  `csv:"latency_mean_us"`
	LatencyP50US  int64  `csv:"latency_p50_us"`
	LatencyP90US  int64  `csv:"latency_p90_us"`
	LatencyMaxUS  int64  `csv:"latency_max_us"`
	WriteMeanUS   int64  `csv:"write_mean_us"`
	WriteMaxUS    int64  `csv:"write_max_us"`
	Fields        string `csv:"fields"`
}

// ToCSV converts CommitStats to a flat CSV-friendly struct. windowEnd is the
// time since the session started.
func (s CommitStats) ToCSV(windowEnd time.Duration) CommitStatsCSV {
	return CommitStatsCSV{
		WindowEndMS:   windowEnd.Milliseconds(),
		Commits:       s.Commits,
		Failures:      s.Failures,
		Sanitized:     s.Sanitized,
		Restores:      s.Restores,
		LatencyMeanUS: s.LatencyMean.Microseconds(),
		LatencyP50US:  s.LatencyP50.Microseconds(),
		LatencyP90US:  s.LatencyP90.Microseconds(),
		LatencyMaxUS:  s.LatencyMax.Microseconds(),
		WriteMeanUS:   s.WriteMean.Microseconds(),
		WriteMaxUS:    s.WriteMax.Microseconds(),
		Fields:        s.Fields.String(),
	}
}

// Package telemetry records what the camera rig did: published snapshots,
// individual commits and windowed commit statistics, written as CSV.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/config"
	"github.com/pthm-cable/camrig/pipeline"
)

// SnapshotRecord is one published snapshot.
type SnapshotRecord struct {
	ElapsedMS int64 `csv:"t_ms"`
	camera.Snapshot
}

// CommitRecord is one successful commit.
type CommitRecord struct {
	ElapsedMS  int64             `csv:"t_ms"`
	Fields     string            `csv:"fields"`
	Restored   bool              `csv:"restored"`
	Sanitized  bool              `csv:"sanitized"`
	LatencyUS  int64             `csv:"latency_us"`
	WriteUS    int64             `csv:"write_us"`
	Projection camera.Projection `csv:"projection"`
	EyeX       float64           `csv:"eye_x"`
	EyeY       float64           `csv:"eye_y"`
	EyeZ       float64           `csv:"eye_z"`
	TargetX    float64           `csv:"target_x"`
	TargetY    float64           `csv:"target_y"`
	TargetZ    float64           `csv:"target_z"`
	FOV        float64           `csv:"fov_rad"`
	Locked     bool              `csv:"locked"`
	LockHeight float64           `csv:"lock_height"`
}

// NewCommitRecord flattens a pipeline result.
func NewCommitRecord(elapsed time.Duration, r pipeline.Result) CommitRecord {
	st := r.Committed.State
	return CommitRecord{
		ElapsedMS:  elapsed.Milliseconds(),
		Fields:     r.Fields.String(),
		Restored:   r.Restored,
		Sanitized:  r.Sanitized,
		LatencyUS:  r.Latency.Microseconds(),
		WriteUS:    r.Elapsed.Microseconds(),
		Projection: st.Projection,
		EyeX:       st.Eye.X,
		EyeY:       st.Eye.Y,
		EyeZ:       st.Eye.Z,
		TargetX:    st.Target.X,
		TargetY:    st.Target.Y,
		TargetZ:    st.Target.Z,
		FOV:        st.FOV,
		Locked:     r.Committed.Lock.Enabled,
		LockHeight: r.Committed.Lock.Height,
	}
}

// csvFile appends records to one CSV file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured session output with CSV logging.
type OutputManager struct {
	dir       string
	snapshots csvFile
	commits   csvFile
	stats     csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		dst  *csvFile
	}{
		{"snapshots.csv", &om.snapshots},
		{"commits.csv", &om.commits},
		{"commit_stats.csv", &om.stats},
	}
	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", file.name, err)
		}
		file.dst.f = f
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteSnapshot writes a published snapshot to snapshots.csv.
func (om *OutputManager) WriteSnapshot(elapsed time.Duration, s camera.Snapshot) error {
	if om == nil {
		return nil
	}
	records := []SnapshotRecord{{ElapsedMS: elapsed.Milliseconds(), Snapshot: s}}
	if err := om.snapshots.write(records); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// WriteCommit writes a commit record to commits.csv.
func (om *OutputManager) WriteCommit(r CommitRecord) error {
	if om == nil {
		return nil
	}
	if err := om.commits.write([]CommitRecord{r}); err != nil {
		return fmt.Errorf("writing commit: %w", err)
	}
	return nil
}

// WriteStats writes a window summary to commit_stats.csv.
func (om *OutputManager) WriteStats(s CommitStats, windowEnd time.Duration) error {
	if om == nil {
		return nil
	}
	if err := om.stats.write([]CommitStatsCSV{s.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.snapshots.f, om.commits.f, om.stats.f} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package eyelevel

import (
	"math"
	"time"
)

// Drift detects when navigation outside the controller has moved a locked eye
// off its level. A correction is due once the eye has stayed off level and
// stopped moving for the settle delay.
type Drift struct {
	Tolerance float64
	Settle    time.Duration

	pending bool
	since   time.Time
	last    float64
}

// NewDrift returns a detector with the given tolerance and settle delay.
func NewDrift(tolerance float64, settle time.Duration) *Drift {
	return &Drift{Tolerance: tolerance, Settle: settle}
}

// Observe records the eye height seen at now and reports whether it should be
// snapped back to the lock.
func (d *Drift) Observe(l Lock, height float64, now time.Time) bool {
	if !l.Enabled || math.Abs(height-l.Height) <= d.Tolerance {
		d.Reset()
		return false
	}

	// Restart the settle timer while the eye is still moving
	if !d.pending || math.Abs(height-d.last) > 1e-9 {
		d.pending = true
		d.since = now
		d.last = height
		return false
	}

	if now.Sub(d.since) < d.Settle {
		return false
	}
	d.Reset()
	return true
}

// Pending reports whether an off-level eye is waiting to settle.
func (d *Drift) Pending() bool { return d.pending }

// Reset clears any pending correction.
func (d *Drift) Reset() {
	d.pending = false
	d.since = time.Time{}
}

package eyelevel

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Transition eases the eye height from one level to another over a fixed
// duration. The tween runs on normalized progress so heights keep full
// precision and the final step lands exactly on the destination.
type Transition struct {
	from, to float64
	tween    *gween.Tween
	done     bool
}

// NewTransition starts an eased move from height from to height to.
func NewTransition(from, to float64, d time.Duration) *Transition {
	return &Transition{
		from:  from,
		to:    to,
		tween: gween.New(0, 1, float32(d.Seconds()), ease.InOutCubic),
		done:  d <= 0,
	}
}

// Done reports whether the transition has reached its destination.
func (t *Transition) Done() bool { return t.done }

// Step advances the transition by dt and returns the height for this frame.
func (t *Transition) Step(dt time.Duration) (float64, bool) {
	if t.done {
		return t.to, true
	}
	p, finished := t.tween.Update(float32(dt.Seconds()))
	if finished {
		t.done = true
		return t.to, true
	}
	return t.from + float64(p)*(t.to-t.from), false
}

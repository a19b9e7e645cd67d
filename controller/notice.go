package controller

import (
	"errors"
	"time"

	"github.com/pthm-cable/camrig/host"
)

// noticeBuffer is how many unread notices are kept. Older ones are dropped.
const noticeBuffer = 8

// Notice reports a failure the UI should show without interrupting the user:
// a commit the host refused, an intent that could not be applied, or a
// placement with nothing picked.
type Notice struct {
	Time   time.Time
	Intent IntentKind // zero for failures of a timed commit
	Err    error
}

// Rejected reports whether the host refused the commit.
func (n Notice) Rejected() bool { return errors.Is(n.Err, host.ErrRejected) }

// String returns a one-line message for a status bar.
func (n Notice) String() string {
	switch {
	case errors.Is(n.Err, ErrStaleSelection):
		return "pick a point in the scene first"
	case n.Rejected():
		return "camera change refused, previous view kept"
	case n.Intent != 0:
		return n.Intent.String() + ": " + n.Err.Error()
	}
	return n.Err.Error()
}

// Notices returns the channel failures are reported on.
func (c *Controller) Notices() <-chan Notice { return c.notices }

// notify queues a notice, dropping the oldest unread one when full.
func (c *Controller) notify(kind IntentKind, err error, now time.Time) {
	n := Notice{Time: now, Intent: kind, Err: err}
	for {
		select {
		case c.notices <- n:
			return
		default:
		}
		select {
		case <-c.notices:
		default:
		}
	}
}

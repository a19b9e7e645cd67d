package rig

import (
	"time"

	"github.com/pthm-cable/camrig/views"
)

// NextView recalls the next stored view, wrapping around.
func (r *Rig) NextView(now time.Time) error {
	names := r.views.Names()
	if len(names) == 0 {
		return views.ErrNotFound
	}
	r.viewIndex %= len(names)
	name := names[r.viewIndex]
	r.viewIndex++

	st, err := r.views.Get(name)
	if err != nil {
		return err
	}
	return r.ctrl.Recall(st, now)
}

package controller

import (
	"time"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/lens"
)

// Token marks a field as under active edit until released.
type Token struct {
	c     *Controller
	field camera.Field
	done  bool
}

// BeginEdit marks f as being edited. Snapshots omit f until every token for it
// has been released. It is safe to call from any goroutine.
func (c *Controller) BeginEdit(f camera.Field) *Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing[f]++
	return &Token{c: c, field: f}
}

// Release ends the edit. Releasing more than once has no effect.
func (t *Token) Release() {
	c := t.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.done {
		return
	}
	t.done = true
	if c.editing[t.field]--; c.editing[t.field] <= 0 {
		delete(c.editing, t.field)
	}
	c.dirty = true
}

// Field returns the field the token holds.
func (t *Token) Field() camera.Field { return t.field }

// Editing returns the mask of fields currently under edit.
func (c *Controller) Editing() camera.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	var m camera.Field
	for f := range c.editing {
		m |= f
	}
	return m
}

// Snapshot builds the outbound snapshot for the committed camera.
func (c *Controller) Snapshot() camera.Snapshot {
	com := c.pipe.Committed()
	st, d := com.State, com.Derived
	ls := c.lens.State(st.FOV)

	eyeLevel := d.EyeHeight
	if com.Lock.Enabled {
		eyeLevel = com.Lock.Height
	}

	return camera.Snapshot{
		Distance:    d.Spherical.Distance,
		Azimuth:     d.Spherical.Azimuth,
		Inclination: d.Spherical.Inclination,
		Dolly:       d.CameraCentric.Dolly,
		Pan:         d.CameraCentric.Pan,
		Tilt:        d.CameraCentric.Tilt,
		FOV:         lens.Degrees(ls.FOV),
		FocalLength: ls.FocalLength,
		Slider:      ls.Slider,
		Projection:  st.Projection,
		EyeLevel:    eyeLevel,
		Locked:      com.Lock.Enabled,
		MinDistance: c.bounds.Min,
		MaxDistance: c.bounds.Max,
		Omit:        c.Editing(),
	}
}

func (c *Controller) markDirty() {
	c.mu.Lock()
	c.dirty = true
	c.mu.Unlock()
}

func (c *Controller) isDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *Controller) maybePublish(now time.Time) {
	if !c.isDirty() || now.Sub(c.lastSent) < c.throttle {
		return
	}
	c.publish(now)
}

// publish sends the current snapshot, replacing an unread one.
func (c *Controller) publish(now time.Time) {
	s := c.Snapshot()
	for {
		select {
		case c.out <- s:
			c.mu.Lock()
			c.dirty = false
			c.mu.Unlock()
			c.lastSent = now
			return
		default:
		}
		select {
		case <-c.out:
		default:
		}
	}
}

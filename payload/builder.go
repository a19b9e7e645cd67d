package payload

import (
	"fmt"
	"math"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/eyelevel"
	"github.com/pthm-cable/camrig/geom"
	"github.com/pthm-cable/camrig/lens"
)

// Payload is a complete camera state ready to be committed.
type Payload struct {
	State   camera.State
	Derived camera.Derived
	Lock    eyelevel.Lock

	Fields   camera.Field // every field touched by the merged edits
	Sources  []Source
	Restored bool // a restore edit replaced the base state
}

// ProjectionChanged reports whether committing p switches projection away from prev.
func (p Payload) ProjectionChanged(prev camera.State) bool {
	return p.State.Projection != prev.Projection
}

// Builder merges pending edits over the committed camera.
type Builder struct {
	Frame  geom.Frame
	Lens   lens.Model
	Bounds camera.DistanceBounds
}

// Build applies every pending edit to committed and returns the resulting
// payload. Edits of one kind are merged into a single recomputation; kinds are
// applied in the order of their latest edit, each against the result of the
// previous one. lock is the eye-level lock in force; the payload carries the
// lock as modified by any eye-level edit.
func (b *Builder) Build(committed camera.State, prev camera.Derived, lock eyelevel.Lock, p *Pending) (Payload, error) {
	c := eyelevel.New(b.Frame)
	c.Restore(lock)

	out := Payload{Fields: p.Fields()}
	st := committed
	der := prev

	if p.restore != nil {
		// A restored pose keeps its view but sits at the locked height
		st = p.restore.edit.State
		st.Eye, st.Target = c.Shift(st.Eye, st.Target)
		out.Restored = true
		out.Sources = append(out.Sources, p.restore.edit.Source)
		d, err := camera.Derive(st, b.Frame, der)
		if err != nil {
			return Payload{}, err
		}
		der = d
	}

	for _, g := range p.groups() {
		var err error
		switch g.kind {
		case KindSpherical:
			st, der, err = b.spherical(st, der, c, g.edits)
		case KindCameraCentric:
			st, der, err = b.cameraCentric(st, der, c, g.edits)
		case KindAbsolute:
			st, err = b.absolute(st, der, c, g.edits)
		case KindEyeLevel:
			st, err = b.eyeLevel(st, der, c, g.edits)
		case KindLens:
			for _, e := range g.edits {
				st = c.Lens(st, e.Value, b.Lens, b.Bounds)
			}
		case KindProjection:
			for _, e := range g.edits {
				st.Projection = e.Projection
			}
		}
		if err != nil {
			return Payload{}, fmt.Errorf("applying %v edits: %w", g.kind, err)
		}
		for _, e := range g.edits {
			out.Sources = append(out.Sources, e.Source)
		}

		if der, err = camera.Derive(st, b.Frame, der); err != nil {
			return Payload{}, fmt.Errorf("applying %v edits: %w", g.kind, err)
		}
	}

	if st.Projection == camera.Orthographic {
		st.Extents = 2 * st.Distance() * math.Tan(st.FOV/2)
	}
	if err := st.Validate(); err != nil {
		return Payload{}, err
	}

	out.State = st
	out.Derived = der
	out.Lock = c.Lock()
	return out, nil
}

func (b *Builder) spherical(st camera.State, der camera.Derived, c *eyelevel.Constraint, edits []Edit) (camera.State, camera.Derived, error) {
	s := der.Spherical
	for _, e := range edits {
		switch e.Field {
		case camera.FieldDistance:
			s.Distance = b.Bounds.Clamp(e.Value)
		case camera.FieldAzimuth:
			s.Azimuth = geom.NormalizeDegrees(e.Value)
		case camera.FieldInclination:
			s.Inclination = geom.Clamp(e.Value, -90, 90)
		}
	}
	if !(s.Distance > geom.MinDistance) {
		return st, der, fmt.Errorf("%w: distance %g", geom.ErrInvalidGeometry, s.Distance)
	}

	eye, up := geom.SphericalToCartesian(st.Target, s, b.Frame)
	st.Eye, st.Target = c.Shift(eye, st.Target)
	st.Up = up

	der.Spherical = s
	return st, der, nil
}

func (b *Builder) cameraCentric(st camera.State, der camera.Derived, c *eyelevel.Constraint, edits []Edit) (camera.State, camera.Derived, error) {
	cc := der.CameraCentric
	for _, e := range edits {
		switch e.Field {
		case camera.FieldDolly:
			cc.Dolly = b.Bounds.Clamp(e.Value)
		case camera.FieldPan:
			cc.Pan = geom.NormalizeDegrees(e.Value)
		case camera.FieldTilt:
			cc.Tilt = geom.Clamp(e.Value, -90, 90)
		}
	}
	if !(cc.Dolly > geom.MinDistance) {
		return st, der, fmt.Errorf("%w: dolly %g", geom.ErrInvalidGeometry, cc.Dolly)
	}

	target := geom.CameraCentricToCartesian(st.Eye, cc, b.Frame)
	st.Eye, st.Target = c.Shift(st.Eye, target)

	up, err := geom.LevelUp(st.Eye, st.Target, b.Frame, cc.ToSpherical().Azimuth)
	if err != nil {
		return st, der, err
	}
	st.Up = up

	der.CameraCentric = cc
	return st, der, nil
}

func (b *Builder) absolute(st camera.State, der camera.Derived, c *eyelevel.Constraint, edits []Edit) (camera.State, error) {
	for _, e := range edits {
		switch e.Field {
		case camera.FieldEye:
			st.Eye = c.Eye(e.Point)
		case camera.FieldTarget:
			st.Target = e.Point
		}
	}

	up, err := geom.LevelUp(st.Eye, st.Target, b.Frame, der.Spherical.Azimuth)
	if err != nil {
		return st, err
	}
	st.Up = up
	return st, nil
}

func (b *Builder) eyeLevel(st camera.State, der camera.Derived, c *eyelevel.Constraint, edits []Edit) (camera.State, error) {
	for _, e := range edits {
		st.Eye, st.Target = eyelevel.Level(b.Frame, st.Eye, st.Target, e.Value, e.TargetLevel)
		switch {
		case e.Locked:
			c.Restore(eyelevel.Lock{Enabled: true, Height: e.Value})
		case c.Lock().Enabled:
			c.SetHeight(e.Value)
		}
	}

	up, err := geom.LevelUp(st.Eye, st.Target, b.Frame, der.Spherical.Azimuth)
	if err != nil {
		return st, err
	}
	st.Up = up
	return st, nil
}

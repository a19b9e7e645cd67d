package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// canonicalUp is the up axis of the canonical space used for exchanging poses.
var canonicalUp = r3.Vec{Y: 1}

// Canonical maps between world space and a Y-up canonical space so poses can be
// exchanged between scenes with different up conventions.
type Canonical struct {
	to   r3.Rotation
	from r3.Rotation
}

// NewCanonical builds the mapping for a world whose up axis is worldUp.
func NewCanonical(worldUp r3.Vec) (Canonical, error) {
	f, err := NewFrame(worldUp)
	if err != nil {
		return Canonical{}, err
	}

	axis := r3.Cross(f.Up, canonicalUp)
	angle := math.Acos(Clamp(r3.Dot(f.Up, canonicalUp), -1, 1))
	if r3.Norm(axis) < poleEpsilon {
		// Parallel or anti-parallel: any axis orthogonal to Y works
		axis = r3.Vec{X: 1}
	}

	return Canonical{
		to:   r3.NewRotation(angle, axis),
		from: r3.NewRotation(-angle, axis),
	}, nil
}

// ToCanonical rotates a world-space point or direction into canonical space.
func (c Canonical) ToCanonical(v r3.Vec) r3.Vec { return c.to.Rotate(v) }

// FromCanonical rotates a canonical-space point or direction back into world space.
func (c Canonical) FromCanonical(v r3.Vec) r3.Vec { return c.from.Rotate(v) }

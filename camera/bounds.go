package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DistanceBounds limits the eye-to-target distance the UI may request.
type DistanceBounds struct {
	Min, Max float64
}

// Clamp restricts d to the bounds.
func (b DistanceBounds) Clamp(d float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, d))
}

// BoundsRule derives DistanceBounds from the size of the scene.
type BoundsRule struct {
	Multiplier  float64 // max = diagonal * Multiplier, min = diagonal / Multiplier
	MinFloor    float64 // min is never below this
	FallbackMin float64 // used when the scene is empty
	FallbackMax float64
}

// FromScene returns bounds scaled to the diagonal of box. An inverted or
// zero-size box yields the fallback range. Flat boxes are accepted.
func (r BoundsRule) FromScene(box r3.Box) DistanceBounds {
	size := box.Size()
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return DistanceBounds{Min: r.FallbackMin, Max: r.FallbackMax}
	}
	diag := r3.Norm(size)
	if !(diag > 0) || math.IsInf(diag, 0) {
		return DistanceBounds{Min: r.FallbackMin, Max: r.FallbackMax}
	}

	return DistanceBounds{
		Min: math.Max(diag/r.Multiplier, r.MinFloor),
		Max: diag * r.Multiplier,
	}
}

// Package lens converts between field of view, focal length and the logarithmic
// slider position used to edit a lens.
package lens

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidModel is returned when a Model has non-positive or inverted ranges.
var ErrInvalidModel = errors.New("invalid lens model")

// Model holds the constants of the lens mapping. FOV values are horizontal
// angles in radians; focal lengths and sensor width in millimetres.
type Model struct {
	SensorWidth float64

	FocalMin, FocalMax   float64
	SliderMin, SliderMax float64

	FOVMin, FOVMax float64
	DefaultFOV     float64
}

// State is the lens as presented to the user.
type State struct {
	FOV         float64 // radians
	FocalLength float64 // millimetres
	Slider      float64
}

// Default returns a 36 mm full-frame model with a 12-800 mm slider over 0-1000.
func Default() Model {
	return Model{
		SensorWidth: 36,
		FocalMin:    12,
		FocalMax:    800,
		SliderMin:   0,
		SliderMax:   1000,
		FOVMin:      Radians(2),
		FOVMax:      Radians(115),
		DefaultFOV:  Radians(22.62),
	}
}

// Validate checks that the ranges are usable.
func (m Model) Validate() error {
	switch {
	case !(m.SensorWidth > 0):
		return fmt.Errorf("%w: sensor width %g", ErrInvalidModel, m.SensorWidth)
	case !(m.FocalMin > 0) || !(m.FocalMax > m.FocalMin):
		return fmt.Errorf("%w: focal range [%g, %g]", ErrInvalidModel, m.FocalMin, m.FocalMax)
	case !(m.SliderMax > m.SliderMin):
		return fmt.Errorf("%w: slider range [%g, %g]", ErrInvalidModel, m.SliderMin, m.SliderMax)
	case !(m.FOVMin > 0) || !(m.FOVMax > m.FOVMin) || m.FOVMax >= math.Pi:
		return fmt.Errorf("%w: fov range [%g, %g]", ErrInvalidModel, m.FOVMin, m.FOVMax)
	}
	return nil
}

// FOVToFocalLength returns sensorWidth / (2·tan(fov/2)).
func (m Model) FOVToFocalLength(fov float64) float64 {
	return m.SensorWidth / (2 * math.Tan(fov/2))
}

// FocalLengthToFOV is the inverse of FOVToFocalLength.
func (m Model) FocalLengthToFOV(focal float64) float64 {
	return 2 * math.Atan(m.SensorWidth/(2*focal))
}

// SliderToFocalLength maps a slider position onto [FocalMin, FocalMax] on a
// logarithmic scale. Positions outside the slider range are clamped.
func (m Model) SliderToFocalLength(s float64) float64 {
	t := (clamp(s, m.SliderMin, m.SliderMax) - m.SliderMin) / (m.SliderMax - m.SliderMin)
	return m.FocalMin * math.Pow(m.FocalMax/m.FocalMin, t)
}

// FocalLengthToSlider is the inverse of SliderToFocalLength.
func (m Model) FocalLengthToSlider(focal float64) float64 {
	f := clamp(focal, m.FocalMin, m.FocalMax)
	t := math.Log(f/m.FocalMin) / math.Log(m.FocalMax/m.FocalMin)
	return m.SliderMin + t*(m.SliderMax-m.SliderMin)
}

// ClampFOV restricts fov to the model's range.
func (m Model) ClampFOV(fov float64) float64 {
	return clamp(fov, m.FOVMin, m.FOVMax)
}

// State derives the full lens state for a field of view.
func (m Model) State(fov float64) State {
	f := m.FOVToFocalLength(fov)
	return State{
		FOV:         fov,
		FocalLength: f,
		Slider:      m.FocalLengthToSlider(f),
	}
}

// DollyCompensation returns the eye-to-target distance that keeps the width
// framed at the target unchanged when the field of view goes from fromFOV to toFOV.
func (m Model) DollyCompensation(distance, fromFOV, toFOV float64) float64 {
	return distance * math.Tan(fromFOV/2) / math.Tan(toFOV/2)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

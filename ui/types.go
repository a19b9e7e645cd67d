// Package ui draws the camera palette with raygui and turns widget changes
// into controller intents. Sliders are described by metadata so the palette
// layout follows the snapshot fields rather than being hard-coded.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/controller"
	"github.com/pthm-cable/camrig/lens"
)

// SliderDescriptor defines one slider bound to a snapshot field.
type SliderDescriptor struct {
	Field  camera.Field
	Label  string
	Format string                // Printf format for the value readout
	Intent controller.IntentKind // sent when the slider moves
	Range  func(camera.Snapshot) (float64, float64)
	Get    func(camera.Snapshot) float64
}

func fixed(lo, hi float64) func(camera.Snapshot) (float64, float64) {
	return func(camera.Snapshot) (float64, float64) { return lo, hi }
}

func distanceRange(s camera.Snapshot) (float64, float64) { return s.MinDistance, s.MaxDistance }

// eyeLevelRange lets the eye travel half the far bound either side of the ground.
func eyeLevelRange(s camera.Snapshot) (float64, float64) { return -s.MaxDistance / 2, s.MaxDistance / 2 }

// CameraSliders returns the palette's sliders in display order. The lens
// slider spans the slider range of m.
func CameraSliders(m lens.Model) []SliderDescriptor {
	return []SliderDescriptor{
		{camera.FieldDistance, "Distance", "%.2f", controller.DistanceChanged, distanceRange,
			func(s camera.Snapshot) float64 { return s.Distance }},
		{camera.FieldAzimuth, "Azimuth", "%.1f°", controller.AzimuthChanged, fixed(-180, 180),
			func(s camera.Snapshot) float64 { return s.Azimuth }},
		{camera.FieldInclination, "Inclination", "%.1f°", controller.InclinationChanged, fixed(-90, 90),
			func(s camera.Snapshot) float64 { return s.Inclination }},
		{camera.FieldDolly, "Dolly", "%.2f", controller.DollyChanged, distanceRange,
			func(s camera.Snapshot) float64 { return s.Dolly }},
		{camera.FieldPan, "Pan", "%.1f°", controller.PanChanged, fixed(-180, 180),
			func(s camera.Snapshot) float64 { return s.Pan }},
		{camera.FieldTilt, "Tilt", "%.1f°", controller.TiltChanged, fixed(-90, 90),
			func(s camera.Snapshot) float64 { return s.Tilt }},
		{camera.FieldFOV, "Lens", "%.0f", controller.SliderChanged, fixed(m.SliderMin, m.SliderMax),
			func(s camera.Snapshot) float64 { return s.Slider }},
		{camera.FieldEyeLevel, "Eye level", "%.2f", controller.SetEyeLevel, eyeLevelRange,
			func(s camera.Snapshot) float64 { return s.EyeLevel }},
	}
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	SliderHeight   int32
	ButtonHeight   int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 240},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     80,
		SliderHeight:   16,
		ButtonHeight:   24,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

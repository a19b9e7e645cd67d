package camera

import (
	"fmt"

	"github.com/pthm-cable/camrig/geom"
)

// Derived holds the pose representations recomputed from a State.
type Derived struct {
	Spherical     geom.Spherical
	CameraCentric geom.CameraCentric
	EyeHeight     float64
}

// Derive recomputes the spherical and camera-centric poses of s in frame f.
// prev supplies the azimuth and pan kept when the view is vertical.
func Derive(s State, f geom.Frame, prev Derived) (Derived, error) {
	sph, err := geom.CartesianToSpherical(s.Eye, s.Target, f, prev.Spherical.Azimuth)
	if err != nil {
		return Derived{}, fmt.Errorf("deriving spherical pose: %w", err)
	}
	cc, err := geom.CartesianToCameraCentric(s.Eye, s.Target, f, prev.CameraCentric.Pan)
	if err != nil {
		return Derived{}, fmt.Errorf("deriving camera-centric pose: %w", err)
	}
	return Derived{
		Spherical:     sph,
		CameraCentric: cc,
		EyeHeight:     f.Height(s.Eye),
	}, nil
}

// Snapshot is the camera as published to the UI. Angles are in degrees.
// Fields set in Omit are under active edit and must not be written back into
// their controls.
type Snapshot struct {
	Distance    float64    `csv:"distance" yaml:"distance"`
	Azimuth     float64    `csv:"azimuth" yaml:"azimuth"`
	Inclination float64    `csv:"inclination" yaml:"inclination"`
	Dolly       float64    `csv:"dolly" yaml:"dolly"`
	Pan         float64    `csv:"pan" yaml:"pan"`
	Tilt        float64    `csv:"tilt" yaml:"tilt"`
	FOV         float64    `csv:"fov" yaml:"fov"`
	FocalLength float64    `csv:"focal_length" yaml:"focal_length"`
	Slider      float64    `csv:"slider" yaml:"slider"`
	Projection  Projection `csv:"projection" yaml:"projection"`
	EyeLevel    float64    `csv:"eye_level" yaml:"eye_level"`
	Locked      bool       `csv:"locked" yaml:"locked"`
	MinDistance float64    `csv:"min_distance" yaml:"min_distance"`
	MaxDistance float64    `csv:"max_distance" yaml:"max_distance"`

	Omit Field `csv:"-" yaml:"-"`
}

// Omits reports whether f is excluded from this snapshot.
func (s Snapshot) Omits(f Field) bool { return s.Omit.Any(f) }

package controller

import (
	"fmt"
	"strings"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/payload"
)

// IntentKind names a UI request.
type IntentKind uint8

const (
	DistanceChanged IntentKind = iota + 1
	AzimuthChanged
	InclinationChanged
	DollyChanged
	PanChanged
	TiltChanged
	FOVChanged
	FocalLengthChanged
	SliderChanged
	CameraTypeChanged
	ToggleEyeLevelLock
	SetEyeLevel
	SetEye
	SetTarget
	FitToView
	ResetView
	DefaultLens
)

var intentNames = map[IntentKind]string{
	DistanceChanged:    "distanceChanged",
	AzimuthChanged:     "azimuthChanged",
	InclinationChanged: "inclinationChanged",
	DollyChanged:       "dollyChanged",
	PanChanged:         "panChanged",
	TiltChanged:        "tiltChanged",
	FOVChanged:         "fovChanged",
	FocalLengthChanged: "focalLengthChanged",
	SliderChanged:      "sliderChanged",
	CameraTypeChanged:  "cameraTypeChanged",
	ToggleEyeLevelLock: "toggleEyeLevelLock",
	SetEyeLevel:        "setEyeLevel",
	SetEye:             "setEye",
	SetTarget:          "setTarget",
	FitToView:          "fitToView",
	ResetView:          "resetView",
	DefaultLens:        "defaultLens",
}

func (k IntentKind) String() string {
	if n, ok := intentNames[k]; ok {
		return n
	}
	return fmt.Sprintf("intent(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k IntentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *IntentKind) UnmarshalText(b []byte) error {
	for kind, name := range intentNames {
		if strings.EqualFold(name, string(b)) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown intent %q", b)
}

// scalarFields maps slider intents onto the camera field they edit.
var scalarFields = map[IntentKind]camera.Field{
	DistanceChanged:    camera.FieldDistance,
	AzimuthChanged:     camera.FieldAzimuth,
	InclinationChanged: camera.FieldInclination,
	DollyChanged:       camera.FieldDolly,
	PanChanged:         camera.FieldPan,
	TiltChanged:        camera.FieldTilt,
}

// Field returns the camera field an intent edits, or FieldNone.
func (k IntentKind) Field() camera.Field {
	if f, ok := scalarFields[k]; ok {
		return f
	}
	switch k {
	case FOVChanged, FocalLengthChanged, SliderChanged, DefaultLens:
		return camera.FieldFOV
	case CameraTypeChanged:
		return camera.FieldProjection
	case SetEyeLevel:
		return camera.FieldEyeLevel
	case SetEye:
		return camera.FieldEye
	case SetTarget:
		return camera.FieldTarget
	}
	return camera.FieldNone
}

// Intent is one request from the UI. Angles and fov are in degrees and focal
// length in millimetres. Only the members relevant to Kind are read.
//
// EyeLevel is read by SetEyeLevel alone. ToggleEyeLevelLock locks at the
// eye's height when the lock is enabled; a height carried with the toggle is
// ignored, so a stale value from the UI cannot move the camera.
type Intent struct {
	Kind       IntentKind        `yaml:"kind"`
	Value      float64           `yaml:"value,omitempty"`
	Projection camera.Projection `yaml:"projection,omitempty"`
	Enabled    bool              `yaml:"enabled,omitempty"`
	EyeLevel   float64           `yaml:"eye_level,omitempty"`
	Locked     bool              `yaml:"locked,omitempty"`

	Source payload.Source `yaml:"-"`
}

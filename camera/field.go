package camera

import "strings"

// Field identifies one user-editable camera field. Fields combine as a bitmask.
type Field uint16

const (
	FieldDistance Field = 1 << iota
	FieldAzimuth
	FieldInclination
	FieldDolly
	FieldPan
	FieldTilt
	FieldFOV
	FieldProjection
	FieldEye
	FieldTarget
	FieldEyeLevel

	// FieldNone is the empty mask.
	FieldNone Field = 0
)

// Group masks.
const (
	SphericalFields     = FieldDistance | FieldAzimuth | FieldInclination
	CameraCentricFields = FieldDolly | FieldPan | FieldTilt
	AbsoluteFields      = FieldEye | FieldTarget
)

var fieldNames = [...]string{
	"distance",
	"azimuth",
	"inclination",
	"dolly",
	"pan",
	"tilt",
	"fov",
	"projection",
	"eye",
	"target",
	"eyeLevel",
}

// Has reports whether every bit of g is set in f.
func (f Field) Has(g Field) bool { return f&g == g && g != 0 }

// Any reports whether any bit of g is set in f.
func (f Field) Any(g Field) bool { return f&g != 0 }

// Each calls fn for every single field set in f, lowest bit first.
func (f Field) Each(fn func(Field)) {
	for i := range fieldNames {
		if b := Field(1) << i; f&b != 0 {
			fn(b)
		}
	}
}

func (f Field) String() string {
	if f == FieldNone {
		return "none"
	}
	var parts []string
	f.Each(func(b Field) {
		for i := range fieldNames {
			if Field(1)<<i == b {
				parts = append(parts, fieldNames[i])
			}
		}
	})
	return strings.Join(parts, "|")
}

// ParseField returns the field with the given name, or FieldNone.
func ParseField(name string) Field {
	for i, n := range fieldNames {
		if strings.EqualFold(n, name) {
			return Field(1) << i
		}
	}
	return FieldNone
}

// Package payload turns a burst of partial camera edits into one complete,
// validated camera state.
package payload

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/geom"
)

// Source records where an edit came from.
type Source uint8

const (
	// UserInitiated edits come from direct manipulation of a control.
	UserInitiated Source = iota
	// Control edits are issued by the controller itself (reset, recall, correction).
	Control
)

func (s Source) String() string {
	if s == Control {
		return "control"
	}
	return "user"
}

// Kind is the variant tag of an Edit.
type Kind uint8

const (
	KindSpherical Kind = iota + 1
	KindCameraCentric
	KindLens
	KindProjection
	KindAbsolute
	KindEyeLevel
	KindRestore
)

var kindNames = map[Kind]string{
	KindSpherical:     "spherical",
	KindCameraCentric: "camera-centric",
	KindLens:          "lens",
	KindProjection:    "projection",
	KindAbsolute:      "absolute",
	KindEyeLevel:      "eye-level",
	KindRestore:       "restore",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Edit is one requested change. Only the members relevant to Kind are set.
// Edits are built with the New* constructors, which validate their input.
type Edit struct {
	Kind   Kind
	Field  camera.Field
	Source Source

	Value       float64           // scalar fields, eye-level height; degrees for angles, radians for fov
	Point       r3.Vec            // absolute eye or target
	Projection  camera.Projection // projection
	Locked      bool              // eye-level: enable the lock at Value
	TargetLevel float64           // eye-level: height the target moves to
	State       camera.State      // restore
}

// NewScalar builds an edit for one of the spherical, camera-centric or fov
// fields. Angles are degrees; fov is radians.
func NewScalar(f camera.Field, v float64, src Source) (Edit, error) {
	if !geom.IsFinite(v) {
		return Edit{}, fmt.Errorf("%w: %v = %g", geom.ErrInvalidGeometry, f, v)
	}

	var k Kind
	switch f {
	case camera.FieldDistance, camera.FieldDolly, camera.FieldFOV:
		if v <= 0 {
			return Edit{}, fmt.Errorf("%w: %v must be positive, got %g", geom.ErrInvalidGeometry, f, v)
		}
		k = KindSpherical
		if f == camera.FieldDolly {
			k = KindCameraCentric
		}
		if f == camera.FieldFOV {
			k = KindLens
		}
	case camera.FieldAzimuth, camera.FieldInclination:
		k = KindSpherical
	case camera.FieldPan, camera.FieldTilt:
		k = KindCameraCentric
	default:
		return Edit{}, fmt.Errorf("%v is not a scalar field", f)
	}

	return Edit{Kind: k, Field: f, Value: v, Source: src}, nil
}

// NewProjection builds a projection change.
func NewProjection(p camera.Projection, src Source) Edit {
	return Edit{Kind: KindProjection, Field: camera.FieldProjection, Projection: p, Source: src}
}

// NewPoint builds an absolute eye or target placement.
func NewPoint(f camera.Field, p r3.Vec, src Source) (Edit, error) {
	if f != camera.FieldEye && f != camera.FieldTarget {
		return Edit{}, fmt.Errorf("%v is not a point field", f)
	}
	if !geom.Finite(p) {
		return Edit{}, fmt.Errorf("%w: %v = %v", geom.ErrInvalidGeometry, f, p)
	}
	return Edit{Kind: KindAbsolute, Field: f, Point: p, Source: src}, nil
}

// NewEyeLevel moves the eye to height eye and the target to height target.
// When locked is set the eye-level lock is enabled at eye.
func NewEyeLevel(eye, target float64, locked bool, src Source) (Edit, error) {
	if !geom.IsFinite(eye) || !geom.IsFinite(target) {
		return Edit{}, fmt.Errorf("%w: eye level %g, target level %g", geom.ErrInvalidGeometry, eye, target)
	}
	return Edit{
		Kind:        KindEyeLevel,
		Field:       camera.FieldEyeLevel,
		Value:       eye,
		TargetLevel: target,
		Locked:      locked,
		Source:      src,
	}, nil
}

// NewRestore replaces the whole camera state, as for reset or view recall.
func NewRestore(s camera.State, src Source) (Edit, error) {
	if err := s.Validate(); err != nil {
		return Edit{}, err
	}
	return Edit{
		Kind:   KindRestore,
		Field:  camera.FieldEye | camera.FieldTarget | camera.FieldFOV | camera.FieldProjection,
		State:  s,
		Source: src,
	}, nil
}

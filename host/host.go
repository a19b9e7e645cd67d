// Package host describes the camera object owned by the host application and
// provides implementations for a simulated host and a raylib viewport.
//
// Host cameras have no atomic multi-field update. Each setter takes effect on
// its own and may trigger side effects (reframing, projection extent changes)
// that callers must neutralize by ordering their writes.
package host

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
)

// ErrRejected is returned when the host refuses a camera update.
var ErrRejected = errors.New("host rejected camera update")

// Camera is the host-owned camera.
type Camera interface {
	// State returns the host's current camera.
	State() camera.State

	SetProjection(p camera.Projection) error
	SetFOV(fov float64) error
	SetEye(eye r3.Vec) error
	SetTarget(target r3.Vec) error
	SetUp(up r3.Vec) error

	// FitToView frames the whole scene.
	FitToView() error
	// Refresh redraws the viewport with the camera as currently assigned.
	Refresh() error
}

// SceneBounder is implemented by hosts that know the extents of their scene.
type SceneBounder interface {
	SceneBounds() (r3.Box, bool)
}

package host

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/geom"
)

// Raylib adapts a raylib Camera3D. raylib stores a vertical field of view in
// degrees for perspective and the view height for orthographic; the adapter
// converts from the horizontal radians used everywhere else using the
// viewport aspect ratio.
type Raylib struct {
	Cam    *rl.Camera3D
	Aspect float64
	Scene  r3.Box

	fov     float64 // horizontal, radians; kept across projection switches
	extents float64 // orthographic width
	dirty   bool
}

// NewRaylib wraps cam. fov is the initial horizontal field of view in radians.
func NewRaylib(cam *rl.Camera3D, aspect, fov float64, scene r3.Box) *Raylib {
	r := &Raylib{Cam: cam, Aspect: aspect, Scene: scene, fov: fov}
	if cam.Projection == rl.CameraOrthographic {
		r.extents = float64(cam.Fovy) * aspect
	}
	return r
}

// State reads the camera back.
func (r *Raylib) State() camera.State {
	st := camera.State{
		Eye:    fromRL(r.Cam.Position),
		Target: fromRL(r.Cam.Target),
		Up:     fromRL(r.Cam.Up),
		FOV:    r.fov,
	}
	if r.Cam.Projection == rl.CameraOrthographic {
		st.Projection = camera.Orthographic
		st.Extents = float64(r.Cam.Fovy) * r.Aspect
	}
	return st
}

// SceneBounds returns the scene box.
func (r *Raylib) SceneBounds() (r3.Box, bool) {
	return r.Scene, r.Scene.Size() != (r3.Vec{})
}

// SetProjection switches projection type.
func (r *Raylib) SetProjection(p camera.Projection) error {
	switch p {
	case camera.Perspective:
		r.Cam.Projection = rl.CameraPerspective
	case camera.Orthographic:
		r.Cam.Projection = rl.CameraOrthographic
		if r.extents <= 0 {
			r.extents = 2 * geom.Distance(fromRL(r.Cam.Position), fromRL(r.Cam.Target)) * math.Tan(r.fov/2)
		}
	default:
		return fmt.Errorf("projection %v: %w", p, ErrRejected)
	}
	r.sync()
	return nil
}

// SetFOV sets the horizontal field of view.
func (r *Raylib) SetFOV(fov float64) error {
	if !(fov > 0) || fov >= math.Pi {
		return fmt.Errorf("fov %g: %w", fov, ErrRejected)
	}
	r.fov = fov
	if r.Cam.Projection == rl.CameraOrthographic {
		r.extents = 2 * geom.Distance(fromRL(r.Cam.Position), fromRL(r.Cam.Target)) * math.Tan(fov/2)
	}
	r.sync()
	return nil
}

// SetEye moves the camera position.
func (r *Raylib) SetEye(eye r3.Vec) error {
	if !geom.Finite(eye) {
		return fmt.Errorf("eye %v: %w", eye, ErrRejected)
	}
	r.Cam.Position = toRL(eye)
	r.dirty = true
	return nil
}

// SetTarget moves the look-at point.
func (r *Raylib) SetTarget(target r3.Vec) error {
	if !geom.Finite(target) {
		return fmt.Errorf("target %v: %w", target, ErrRejected)
	}
	r.Cam.Target = toRL(target)
	r.dirty = true
	return nil
}

// SetUp sets the up vector.
func (r *Raylib) SetUp(up r3.Vec) error {
	if !geom.Finite(up) || r3.Norm(up) < geom.MinDistance {
		return fmt.Errorf("up %v: %w", up, ErrRejected)
	}
	r.Cam.Up = toRL(up)
	return nil
}

// FitToView frames the scene box along the current view direction.
func (r *Raylib) FitToView() error {
	if r.Scene.Size() == (r3.Vec{}) {
		return nil
	}
	eye, target := fromRL(r.Cam.Position), fromRL(r.Cam.Target)
	dir := r3.Unit(r3.Sub(eye, target))
	if !geom.Finite(dir) {
		return fmt.Errorf("fit with degenerate view: %w", ErrRejected)
	}

	radius := r3.Norm(r.Scene.Size()) / 2
	center := r.Scene.Center()
	r.Cam.Target = toRL(center)
	r.Cam.Position = toRL(r3.Add(center, r3.Scale(radius/math.Sin(r.fov/2), dir)))
	r.extents = 2 * radius
	r.sync()
	return nil
}

// Refresh recomputes raylib's Fovy for the assigned camera. Drawing happens in
// the caller's frame loop.
func (r *Raylib) Refresh() error {
	if r.dirty && r.Cam.Projection == rl.CameraOrthographic {
		r.extents = 2 * geom.Distance(fromRL(r.Cam.Position), fromRL(r.Cam.Target)) * math.Tan(r.fov/2)
	}
	r.dirty = false
	r.sync()
	return nil
}

func (r *Raylib) sync() {
	if r.Cam.Projection == rl.CameraOrthographic {
		r.Cam.Fovy = float32(r.extents / r.Aspect)
		return
	}
	vfov := 2 * math.Atan(math.Tan(r.fov/2)/r.Aspect)
	r.Cam.Fovy = float32(geom.Degrees(vfov))
}

func toRL(v r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(v.X), float32(v.Y), float32(v.Z))
}

func fromRL(v rl.Vector3) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

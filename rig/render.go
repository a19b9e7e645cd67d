package rig

import (
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/config"
	"github.com/pthm-cable/camrig/controller"
	"github.com/pthm-cable/camrig/host"
	"github.com/pthm-cable/camrig/ui"
)

// Viewer is an interactive rig drawn with raylib. It must be created after
// rl.InitWindow and driven from the window's thread.
type Viewer struct {
	*Rig

	cam     *rl.Camera3D
	rlhost  *host.Raylib
	palette *ui.Palette

	intents  []controller.Intent
	actions  []ui.Action
	freeNav  bool
	lastSnap camera.Snapshot

	now         time.Time
	notice      string
	noticeUntil time.Time
}

// noticeTTL is how long a failure message stays in the status line.
const noticeTTL = 4 * time.Second

// NewViewer builds an interactive rig over a raylib camera.
func NewViewer(cfg *config.Config, opts Options) (*Viewer, error) {
	d := cfg.Derived
	aspect := float64(cfg.Screen.Width) / float64(cfg.Screen.Height)

	cam := &rl.Camera3D{Projection: rl.CameraPerspective}
	if d.InitialCamera.Projection == camera.Orthographic {
		cam.Projection = rl.CameraOrthographic
	}
	h := host.NewRaylib(cam, aspect, d.InitialCamera.FOV, d.SceneBox)
	start := d.InitialCamera
	for _, set := range []func() error{
		func() error { return h.SetEye(start.Eye) },
		func() error { return h.SetTarget(start.Target) },
		func() error { return h.SetUp(start.Up) },
		h.Refresh,
	} {
		if err := set(); err != nil {
			return nil, fmt.Errorf("initial camera: %w", err)
		}
	}

	r, err := newRig(cfg, opts, h)
	if err != nil {
		return nil, err
	}

	v := &Viewer{Rig: r, cam: cam, rlhost: h}
	renderer := ui.NewRenderer()
	v.palette = ui.NewPalette(renderer, r.ctrl, d.Lens, 10, 10, 340)
	v.palette.Apply(r.ctrl.Snapshot())
	return v, nil
}

// Update handles input from the last frame and advances the controller.
func (v *Viewer) Update(now time.Time) {
	v.now = now
	v.handleInput()

	for _, in := range v.intents {
		_ = v.ctrl.Handle(in, now)
	}
	v.intents = v.intents[:0]
	for _, a := range v.actions {
		v.handleAction(a, now)
	}
	v.actions = v.actions[:0]

	if v.freeNav {
		rl.UpdateCamera(v.cam, rl.CameraFree)
	}

	if err := v.ctrl.Tick(now); err != nil {
		slog.Warn("tick", "error", err)
	}

	select {
	case snap := <-v.ctrl.Snapshots():
		v.lastSnap = snap
		v.palette.Apply(snap)
		v.recordSnapshot(snap)
	default:
	}

	for drained := false; !drained; {
		select {
		case n := <-v.ctrl.Notices():
			v.showNotice(n.String())
		default:
			drained = true
		}
	}
}

func (v *Viewer) showNotice(msg string) {
	v.notice = msg
	v.noticeUntil = v.now.Add(noticeTTL)
}

func (v *Viewer) handleInput() {
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	// N toggles raylib's own navigation; the controller adopts the result
	if rl.IsKeyPressed(rl.KeyN) {
		v.freeNav = !v.freeNav
	}
	if rl.IsKeyPressed(rl.KeyF) {
		v.intents = append(v.intents, controller.Intent{Kind: controller.FitToView})
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.intents = append(v.intents, controller.Intent{Kind: controller.ResetView})
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		if p, ok := v.pickScene(rl.GetMousePosition()); ok {
			v.Pick(p)
		}
	}
}

// pickScene casts a ray through the screen position onto the scene box, or
// the ground plane when the box is missed.
func (v *Viewer) pickScene(pos rl.Vector2) (r3.Vec, bool) {
	ray := rl.GetScreenToWorldRay(pos, *v.cam)
	box := v.cfg.Derived.SceneBox
	hit := rl.GetRayCollisionBox(ray, rl.BoundingBox{Min: vector3(box.Min), Max: vector3(box.Max)})
	if hit.Hit {
		return r3.Vec{X: float64(hit.Point.X), Y: float64(hit.Point.Y), Z: float64(hit.Point.Z)}, true
	}

	origin := r3.Vec{X: float64(ray.Position.X), Y: float64(ray.Position.Y), Z: float64(ray.Position.Z)}
	dir := r3.Vec{X: float64(ray.Direction.X), Y: float64(ray.Direction.Y), Z: float64(ray.Direction.Z)}
	up := r3.Unit(v.cfg.Derived.WorldUp)
	den := r3.Dot(dir, up)
	if den > -1e-9 {
		return r3.Vec{}, false
	}
	t := -r3.Dot(origin, up) / den
	return r3.Add(origin, r3.Scale(t, dir)), true
}

func (v *Viewer) handleAction(a ui.Action, now time.Time) {
	var err error
	switch a {
	case ui.ActionSaveView:
		var name string
		if name, err = v.views.Save("", v.ctrl.Committed().State); err == nil {
			v.palette.ViewName = name
			slog.Info("view saved", "name", name)
		}
	case ui.ActionNextView:
		err = v.NextView(now)
	case ui.ActionCopyView:
		err = v.views.Copy(v.ctrl.Committed().State)
	case ui.ActionPasteView:
		var st camera.State
		if st, err = v.views.Paste(); err == nil {
			err = v.ctrl.Recall(st, now)
		}
	}
	if err != nil {
		slog.Warn("view action failed", "error", err)
		v.showNotice(err.Error())
	}
}

// Draw renders the scene and the palette. Widget changes are applied on the
// next Update.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.RayWhite)

	rl.BeginMode3D(*v.cam)
	v.drawScene()
	rl.EndMode3D()

	intents, actions := v.palette.Draw()
	v.intents = append(v.intents, intents...)
	v.actions = append(v.actions, actions...)

	s := v.lastSnap
	status := fmt.Sprintf("%s  fov %.1f°  eye %.2f", s.Projection, s.FOV, s.EyeLevel)
	if v.freeNav {
		status += "  [free navigation]"
	}
	rl.DrawText(status, 10, int32(rl.GetScreenHeight())-24, 16, rl.DarkGray)
	if v.notice != "" && v.now.Before(v.noticeUntil) {
		rl.DrawText(v.notice, 10, int32(rl.GetScreenHeight())-46, 16, rl.Maroon)
	}
	rl.EndDrawing()
}

func (v *Viewer) drawScene() {
	box := v.cfg.Derived.SceneBox
	size := box.Size()
	rl.DrawCubeWires(vector3(box.Center()), float32(size.X), float32(size.Y), float32(size.Z), rl.DarkBlue)

	// Ground grid in the plane through the origin
	up := v.cfg.Derived.WorldUp
	extent := float32(r3.Norm(size))
	if extent == 0 {
		extent = 10
	}
	if up.Y != 0 && up.X == 0 && up.Z == 0 {
		rl.DrawGrid(int32(extent), 1)
	} else {
		rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(extent, extent), rl.Fade(rl.LightGray, 0.3))
	}

	rl.DrawSphere(vector3(v.ctrl.Committed().State.Target), 0.1, rl.Red)
	v.mu.Lock()
	picked := v.picked
	v.mu.Unlock()
	if picked != nil {
		rl.DrawSphere(vector3(*picked), 0.08, rl.Orange)
	}
}

func vector3(p r3.Vec) rl.Vector3 {
	return rl.NewVector3(float32(p.X), float32(p.Y), float32(p.Z))
}

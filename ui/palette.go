package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/camrig/camera"
	"github.com/pthm-cable/camrig/controller"
	"github.com/pthm-cable/camrig/lens"
)

// Action is a palette request handled outside the controller.
type Action uint8

const (
	ActionSaveView Action = iota + 1
	ActionNextView
	ActionCopyView
	ActionPasteView
)

// Editor hands out edit tokens for fields being dragged.
type Editor interface {
	BeginEdit(f camera.Field) *controller.Token
}

// Palette is the camera control panel.
type Palette struct {
	X, Y, Width int32
	ViewName    string // shown under the view buttons

	r       *Renderer
	editor  Editor
	sliders []SliderDescriptor
	snap    camera.Snapshot
	values  map[camera.Field]float64

	drag *controller.Token
}

// NewPalette creates a palette at x, y for a camera with lens model m.
func NewPalette(r *Renderer, editor Editor, m lens.Model, x, y, width int32) *Palette {
	return &Palette{
		X: x, Y: y, Width: width,
		r:       r,
		editor:  editor,
		sliders: CameraSliders(m),
		values:  make(map[camera.Field]float64),
	}
}

// Apply shows a published snapshot. Fields the snapshot omits keep the value
// the user is dragging.
func (p *Palette) Apply(s camera.Snapshot) {
	for _, d := range p.sliders {
		if s.Omits(d.Field) {
			continue
		}
		p.values[d.Field] = d.Get(s)
	}
	p.snap = s
}

// Value returns the displayed value of a slider.
func (p *Palette) Value(f camera.Field) float64 { return p.values[f] }

// Dragging reports which field is held by the current drag, if any.
func (p *Palette) Dragging() camera.Field {
	if p.drag == nil {
		return camera.FieldNone
	}
	return p.drag.Field()
}

func (p *Palette) beginDrag(f camera.Field) {
	p.endDrag()
	p.drag = p.editor.BeginEdit(f)
}

func (p *Palette) endDrag() {
	if p.drag != nil {
		p.drag.Release()
		p.drag = nil
	}
}

// move records a slider change and returns the intent it produces.
func (p *Palette) move(d SliderDescriptor, v float64) controller.Intent {
	p.values[d.Field] = v
	if d.Intent == controller.SetEyeLevel {
		return controller.Intent{Kind: d.Intent, EyeLevel: v, Locked: p.snap.Locked}
	}
	return controller.Intent{Kind: d.Intent, Value: v}
}

// Height returns the palette height in pixels.
func (p *Palette) Height() int32 {
	t := p.r.Theme
	rows := int32(len(p.sliders))
	return t.Padding*2 + t.LineHeight*2 + rows*(t.SliderHeight+6) + t.Padding/2 + 5*(t.ButtonHeight+6) + t.LineHeight
}

// Draw draws the palette and returns what the user asked for this frame.
func (p *Palette) Draw() ([]controller.Intent, []Action) {
	var intents []controller.Intent
	var actions []Action

	t := p.r.Theme
	p.r.DrawPanel(p.X, p.Y, p.Width, p.Height())

	x := p.X + t.Padding
	y := p.r.DrawSectionHeader(x, p.Y+t.Padding, "Camera")
	sliderW := float32(p.Width - t.Padding*2 - t.LabelWidth - 60)

	mouse := rl.GetMousePosition()
	for _, d := range p.sliders {
		rect := rl.Rectangle{X: float32(x + t.LabelWidth), Y: float32(y), Width: sliderW, Height: float32(t.SliderHeight)}
		p.r.DrawLabel(x, y+2, d.Label)

		if rl.IsMouseButtonPressed(rl.MouseButtonLeft) && rl.CheckCollisionPointRec(mouse, rect) {
			p.beginDrag(d.Field)
		}

		cur := p.values[d.Field]
		lo, hi := d.Range(p.snap)
		v := gui.SliderBar(rect, "", "", float32(cur), float32(lo), float32(hi))
		if v != float32(cur) {
			intents = append(intents, p.move(d, float64(v)))
		}

		readout := fmt.Sprintf(d.Format, p.values[d.Field])
		if d.Field == camera.FieldFOV {
			readout = fmt.Sprintf("%.0fmm", p.snap.FocalLength)
		}
		rl.DrawText(readout, int32(rect.X+rect.Width)+6, y+2, t.FontSize, t.ValueColor)
		y += t.SliderHeight + 6
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		p.endDrag()
	}
	y = p.r.DrawSpacer(y, t.Padding/2)

	bw := float32(p.Width-t.Padding*3) / 2
	bh := float32(t.ButtonHeight)
	button := func(col int, label string) bool {
		r := rl.Rectangle{X: float32(x) + float32(col)*(bw+float32(t.Padding)), Y: float32(y), Width: bw, Height: bh}
		return gui.Button(r, label)
	}
	row := func() { y += t.ButtonHeight + 6 }

	next := camera.Orthographic
	if p.snap.Projection == camera.Orthographic {
		next = camera.Perspective
	}
	if button(0, "Switch to "+next.String()) {
		intents = append(intents, controller.Intent{Kind: controller.CameraTypeChanged, Projection: next})
	}
	locked := gui.CheckBox(rl.Rectangle{X: float32(x) + bw + float32(t.Padding), Y: float32(y + 4), Width: 16, Height: 16}, "Lock eye level", p.snap.Locked)
	if locked != p.snap.Locked {
		intents = append(intents, controller.Intent{Kind: controller.ToggleEyeLevelLock, Enabled: locked})
	}
	row()

	simple := []struct {
		label string
		kind  controller.IntentKind
	}{
		{"Fit to view", controller.FitToView},
		{"Reset view", controller.ResetView},
		{"Default lens", controller.DefaultLens},
		{"Set eye", controller.SetEye},
		{"Set target", controller.SetTarget},
	}
	for i, b := range simple {
		if button(i%2, b.label) {
			intents = append(intents, controller.Intent{Kind: b.kind})
		}
		if i%2 == 1 {
			row()
		}
	}
	if button(1, "Save view") {
		actions = append(actions, ActionSaveView)
	}
	row()
	if button(0, "Next view") {
		actions = append(actions, ActionNextView)
	}
	if button(1, "Copy view") {
		actions = append(actions, ActionCopyView)
	}
	row()
	if button(0, "Paste view") {
		actions = append(actions, ActionPasteView)
	}
	row()

	if p.ViewName != "" {
		p.r.DrawLabelValue(x, y, "View", p.ViewName)
	}
	return intents, actions
}

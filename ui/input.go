package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/camera"
)

// Legend lists the keyboard and mouse bindings.
const Legend = "SPACE: Pause | N: Step day | Right drag/Arrows: Orbit | Wheel/+/-: Zoom | HOME: Reset view | F11: Fullscreen"

// Keyboard orbit speed in radians per second.
const orbitSpeed = 1.5

// Actions collects what the user asked of the simulation this frame.
type Actions struct {
	TogglePause bool
	StepDay     bool

	// SecondsPerDay is the requested day length, or zero when unchanged.
	SecondsPerDay float64
}

// Merge combines two sets of actions. A pause toggled from both sources
// cancels out.
func (a Actions) Merge(b Actions) Actions {
	out := Actions{
		TogglePause:   a.TogglePause != b.TogglePause,
		StepDay:       a.StepDay || b.StepDay,
		SecondsPerDay: a.SecondsPerDay,
	}
	if b.SecondsPerDay > 0 {
		out.SecondsPerDay = b.SecondsPerDay
	}
	return out
}

// HandleInput processes keyboard and mouse input. Camera movement is applied
// directly; simulation changes are returned.
func HandleInput(cam *camera.Orbit) Actions {
	var act Actions

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		act.TogglePause = true
	}
	if rl.IsKeyPressed(rl.KeyN) {
		act.StepDay = true
	}

	handleCameraInput(cam)
	return act
}

func handleCameraInput(cam *camera.Orbit) {
	step := float32(orbitSpeed) * rl.GetFrameTime()

	if rl.IsKeyDown(rl.KeyRight) {
		cam.Rotate(step, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Rotate(-step, 0)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Rotate(0, step)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Rotate(0, -step)
	}

	// Right button so left clicks stay with the panel widgets.
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		cam.Drag(d.X, d.Y, float32(rl.GetScreenWidth()))
	}

	// Zoom controls: mouse wheel or +/- keys
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
	}
}

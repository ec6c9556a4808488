package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/telemetry"
)

// Day length bounds offered by the speed slider, in seconds.
const (
	MinSecondsPerDay = 0.1
	MaxSecondsPerDay = 5.0
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Report        telemetry.DayReport
	Paused        bool
	SecondsPerDay float64
	DayProgress   float64
	FPS           int32
	ScreenWidth   int32
	ScreenHeight  int32
}

// Status returns the one-word simulation state shown under the counts.
func (d HUDData) Status() string {
	switch {
	case d.Report.Collapsed:
		return "Stopped"
	case d.Paused:
		return "PAUSED"
	default:
		return "Running"
	}
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer   *Renderer
	panelWidth int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer:   NewRenderer(),
		panelWidth: 260,
	}
}

// Draw renders the day report in the top-left corner and the control panel
// on the right, returning any actions taken through the panel widgets.
func (h *HUD) Draw(data HUDData) Actions {
	h.drawReport(data)
	h.DrawControls(data.ScreenHeight, Legend)
	return h.drawPanel(data)
}

func (h *HUD) drawReport(data HUDData) {
	r := h.renderer
	x := r.Theme.Padding
	y := r.Theme.Padding

	y = r.DrawTitle(x, y, data.Report.Header())
	if banner := data.Report.Banner(); banner != nil {
		y = r.DrawLines(x, y, banner, r.Theme.AlertColor)
		y = r.DrawSpacer(y, r.Theme.Padding)
	}
	y = r.DrawLines(x, y, data.Report.Counts(), r.Theme.ValueColor)
	y = r.DrawSpacer(y, r.Theme.Padding)

	rl.DrawText(data.Status(), x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
}

func (h *HUD) drawPanel(data HUDData) Actions {
	var act Actions
	r := h.renderer
	pad := r.Theme.Padding
	x := data.ScreenWidth - h.panelWidth - pad
	y := pad

	r.DrawPanel(x, y, h.panelWidth, 190)
	x += pad
	y += pad
	inner := h.panelWidth - 2*pad

	y = r.DrawSectionHeader(x, y, "Simulation")
	y = r.DrawBar(x, y, "Day", float32(data.DayProgress), inner)
	y = r.DrawLabelValue(x, y, "Day length", fmt.Sprintf("%.2fs", data.SecondsPerDay))
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))
	y = r.DrawSpacer(y, 4)

	fx, fy := float32(x), float32(y)
	half := float32(inner-pad) / 2
	if gui.Button(rl.Rectangle{X: fx, Y: fy, Width: half, Height: 28}, toggleText(data.Paused, "Resume", "Pause")) {
		act.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: fx + half + float32(pad), Y: fy, Width: half, Height: 28}, "Step Day") {
		act.StepDay = true
	}
	fy += 40

	spd := gui.SliderBar(
		rl.Rectangle{X: fx + 30, Y: fy, Width: float32(inner) - 70, Height: 20},
		"Fast", "Slow",
		float32(data.SecondsPerDay), MinSecondsPerDay, MaxSecondsPerDay,
	)
	if spd != float32(data.SecondsPerDay) {
		act.SecondsPerDay = float64(spd)
	}

	return act
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, h.renderer.Theme.Padding, screenHeight-25, 14, h.renderer.Theme.MutedColor)
}

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawTitle draws large text and returns the new Y position.
func (r *Renderer) DrawTitle(x, y int32, text string) int32 {
	rl.DrawText(text, x, y, r.Theme.TitleFontSize, r.Theme.ValueColor)
	return y + r.Theme.TitleFontSize + r.Theme.Padding
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.HeaderFontSize + 4
}

// DrawLines draws one line of text per entry in color and returns the new Y position.
func (r *Renderer) DrawLines(x, y int32, lines []string, color rl.Color) int32 {
	for _, line := range lines {
		rl.DrawText(line, x, y, r.Theme.FontSize, color)
		y += r.Theme.LineHeight
	}
	return y
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	size := r.Theme.HeaderFontSize
	rl.DrawText(label+":", x, y, size, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, size, r.Theme.ValueColor)
	return y + size + 4
}

// DrawBar draws a progress bar for [0, 1] values.
func (r *Renderer) DrawBar(x, y int32, label string, value float32, width int32) int32 {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}

	size := r.Theme.HeaderFontSize
	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 50

	rl.DrawText(label+":", x, y, size, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*value), r.Theme.BarHeight, r.Theme.BarFill)
	rl.DrawText(fmt.Sprintf("%.0f%%", value*100), barX+barWidth+5, y, size, r.Theme.ValueColor)

	return y + size + 4
}

// DrawSpacer returns y advanced by amount.
func (r *Renderer) DrawSpacer(y int32, amount int32) int32 {
	return y + amount
}

package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// BackgroundRenderer fills the screen with a vertical sky gradient.
type BackgroundRenderer struct {
	Top    rl.Color
	Bottom rl.Color
}

// NewBackgroundRenderer creates a background with the default sky colors.
func NewBackgroundRenderer() *BackgroundRenderer {
	return &BackgroundRenderer{
		Top:    rl.Color{R: 110, G: 160, B: 215, A: 255},
		Bottom: rl.Color{R: 200, G: 225, B: 240, A: 255},
	}
}

// Draw renders the gradient across the current screen size.
func (b *BackgroundRenderer) Draw() {
	rl.DrawRectangleGradientV(0, 0, int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()), b.Top, b.Bottom)
}

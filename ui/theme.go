// Package ui draws the heads-up display and maps keyboard and mouse input
// to simulation actions.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color
	MutedColor    rl.Color
	AlertColor    rl.Color
	BarBg         rl.Color
	BarFill       rl.Color

	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
	TitleFontSize  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:       rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:   rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader: rl.Yellow,
		LabelColor:    rl.LightGray,
		ValueColor:    rl.RayWhite,
		MutedColor:    rl.Gray,
		AlertColor:    rl.Red,
		BarBg:         rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:       rl.Color{R: 100, G: 150, B: 200, A: 255},

		Padding:        10,
		LineHeight:     24,
		LabelWidth:     110,
		BarHeight:      12,
		FontSize:       20,
		HeaderFontSize: 16,
		TitleFontSize:  28,
	}
}

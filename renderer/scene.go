// Package renderer draws the simulated instances in 3D with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/camera"
	"github.com/pthm-cable/ecosim/components"
)

// InstanceSource enumerates live instances per kind.
type InstanceSource interface {
	ForEachInstance(kind components.Kind, fn func(pos components.Position, body components.Body))
}

// Palette holds the scene colors.
type Palette struct {
	Ground   rl.Color
	Grid     rl.Color
	Shadow   rl.Color
	Prey     rl.Color
	Predator rl.Color
	Outline  rl.Color
}

// DefaultPalette returns the default scene colors: white prey on a green
// field, orange predators.
func DefaultPalette() Palette {
	return Palette{
		Ground:   rl.Color{R: 86, G: 130, B: 70, A: 255},
		Grid:     rl.Color{R: 70, G: 110, B: 58, A: 255},
		Shadow:   rl.Color{R: 0, G: 0, B: 0, A: 70},
		Prey:     rl.RayWhite,
		Predator: rl.Orange,
		Outline:  rl.Color{R: 120, G: 60, B: 10, A: 255},
	}
}

// SceneRenderer draws the ground and every instance from an orbit camera.
type SceneRenderer struct {
	cam        *camera.Orbit
	palette    Palette
	background *BackgroundRenderer
	groundSize float32
	gridSlices int32
}

// NewSceneRenderer creates a scene renderer viewing a square ground of the
// given edge length.
func NewSceneRenderer(cam *camera.Orbit, groundSize float32) *SceneRenderer {
	return &SceneRenderer{
		cam:        cam,
		palette:    DefaultPalette(),
		background: NewBackgroundRenderer(),
		groundSize: groundSize,
		gridSlices: int32(groundSize),
	}
}

// Camera3D converts the orbit camera into a raylib perspective camera.
func Camera3D(o *camera.Orbit) rl.Camera3D {
	return rl.Camera3D{
		Position:   toVector3(o.Position()),
		Target:     toVector3(o.Target),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       camera.DefaultFovY,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the full scene. Call between BeginDrawing and EndDrawing.
func (s *SceneRenderer) Draw(src InstanceSource) {
	s.background.Draw()

	rl.BeginMode3D(Camera3D(s.cam))
	rl.DrawPlane(rl.NewVector3(0, 0, 0), rl.NewVector2(s.groundSize, s.groundSize), s.palette.Ground)
	rl.DrawGrid(s.gridSlices, 1)

	src.ForEachInstance(components.KindPrey, func(pos components.Position, body components.Body) {
		s.drawShadow(pos, body.Radius)
		rl.DrawSphere(toVector3(camera.Vec3(pos)), body.Radius, s.palette.Prey)
	})
	src.ForEachInstance(components.KindPredator, func(pos components.Position, body components.Body) {
		edge := body.Radius * 2
		center := toVector3(camera.Vec3(pos))
		s.drawShadow(pos, body.Radius)
		rl.DrawCube(center, edge, edge, edge, s.palette.Predator)
		rl.DrawCubeWires(center, edge, edge, edge, s.palette.Outline)
	})
	rl.EndMode3D()
}

// drawShadow draws a flat disc under an instance that shrinks as it rises.
func (s *SceneRenderer) drawShadow(pos components.Position, radius float32) {
	r := ShadowRadius(radius, pos.Y)
	if r <= 0 {
		return
	}
	rl.DrawCylinder(rl.NewVector3(pos.X, 0.01, pos.Z), r, r, 0.001, 16, s.palette.Shadow)
}

// ShadowRadius scales a shadow by height above the ground. Instances resting
// on the ground (y == radius) cast a full-size shadow; the shadow vanishes at
// four radii of clearance.
func ShadowRadius(radius, y float32) float32 {
	clearance := y - radius
	if clearance < 0 {
		clearance = 0
	}
	scale := 1 - clearance/(4*radius)
	if scale < 0 {
		return 0
	}
	return radius * scale
}

func toVector3(v camera.Vec3) rl.Vector3 {
	return rl.NewVector3(v.X, v.Y, v.Z)
}

// Package camera provides an orbit camera for viewing the scene.
package camera

import "math"

// Default view: slightly above and to the side of the spawn area.
const (
	DefaultYaw      = 0.6  // radians around Y
	DefaultPitch    = 0.55 // radians above the ground plane
	DefaultDistance = 14.0
	DefaultFovY     = 45.0 // degrees
)

// Vec3 is a point in scene coordinates (Y up).
type Vec3 struct {
	X, Y, Z float32
}

// Orbit circles a target point at a fixed distance.
// Yaw rotates around the vertical axis, pitch tilts above the ground.
type Orbit struct {
	Target   Vec3
	Yaw      float32
	Pitch    float32
	Distance float32

	// Constraints
	MinDistance, MaxDistance float32
	MinPitch, MaxPitch       float32
}

// New creates an orbit camera looking at target from the default angle.
func New(target Vec3) *Orbit {
	return &Orbit{
		Target:      target,
		Yaw:         DefaultYaw,
		Pitch:       DefaultPitch,
		Distance:    DefaultDistance,
		MinDistance: 3,
		MaxDistance: 60,
		MinPitch:    0.05,
		MaxPitch:    math.Pi/2 - 0.05, // straight down has no valid up vector
	}
}

// Position returns the camera eye position.
func (o *Orbit) Position() Vec3 {
	cosP := float32(math.Cos(float64(o.Pitch)))
	sinP := float32(math.Sin(float64(o.Pitch)))
	sinY := float32(math.Sin(float64(o.Yaw)))
	cosY := float32(math.Cos(float64(o.Yaw)))

	return Vec3{
		X: o.Target.X + o.Distance*cosP*sinY,
		Y: o.Target.Y + o.Distance*sinP,
		Z: o.Target.Z + o.Distance*cosP*cosY,
	}
}

// Rotate orbits by the given yaw and pitch deltas in radians.
// Yaw wraps to [0, 2π); pitch is clamped.
func (o *Orbit) Rotate(dYaw, dPitch float32) {
	o.Yaw = mod(o.Yaw+dYaw, 2*math.Pi)
	o.Pitch = clamp(o.Pitch+dPitch, o.MinPitch, o.MaxPitch)
}

// Drag converts a mouse drag in screen pixels into a rotation.
// A full-width drag turns the camera once around.
func (o *Orbit) Drag(dx, dy, viewportW float32) {
	if viewportW <= 0 {
		return
	}
	perPixel := 2 * math.Pi / viewportW
	o.Rotate(-dx*perPixel, dy*perPixel)
}

// SetDistance sets the orbit radius, clamped to min/max.
func (o *Orbit) SetDistance(d float32) {
	o.Distance = clamp(d, o.MinDistance, o.MaxDistance)
}

// ZoomBy multiplies the magnification by factor (>1 moves closer).
func (o *Orbit) ZoomBy(factor float32) {
	if factor <= 0 {
		return
	}
	o.SetDistance(o.Distance / factor)
}

// Reset returns the camera to the default angle and distance.
func (o *Orbit) Reset() {
	o.Yaw = DefaultYaw
	o.Pitch = DefaultPitch
	o.Distance = DefaultDistance
}

// mod computes the positive modulo (Go's % can return negative).
func mod(x, m float32) float32 {
	r := float32(math.Mod(float64(x), float64(m)))
	if r < 0 {
		r += m
	}
	return r
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// PhysicsSystem integrates instance velocities under gravity and keeps
// instances resting on the ground plane (Y = 0). Instances never interact.
type PhysicsSystem struct {
	filter  *ecs.Filter3[components.Position, components.Velocity, components.Body]
	gravity float32
}

// NewPhysicsSystem creates a physics system. gravity is the downward
// acceleration in scene units per second squared.
func NewPhysicsSystem(w *ecs.World, gravity float32) *PhysicsSystem {
	return &PhysicsSystem{
		filter:  ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		gravity: gravity,
	}
}

// Update advances every instance by dt seconds.
func (s *PhysicsSystem) Update(dt float32) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()

		vel.Y -= s.gravity * dt

		pos.X += vel.X * dt
		pos.Y += vel.Y * dt
		pos.Z += vel.Z * dt

		// Ground contact
		if pos.Y < body.Radius {
			pos.Y = body.Radius
			if vel.Y < 0 {
				vel.Y = 0
			}
		}
	}
}

// Grounded reports whether the position rests on the ground for the body.
func Grounded(pos components.Position, body components.Body) bool {
	return pos.Y <= body.Radius
}

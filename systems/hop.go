package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// Hop gives surviving instances a small upward impulse at the end of a day.
// It is purely cosmetic and reads no population state.
type Hop struct {
	world   *ecs.World
	velMap  *ecs.Map[components.Velocity]
	rng     *rand.Rand
	lo, hi  float32
	enabled bool
}

// NewHop creates the effect. Impulses are drawn uniformly from [lo, hi)
// and applied to a unit mass, so they add directly to vertical velocity.
func NewHop(w *ecs.World, rng *rand.Rand, lo, hi float32, enabled bool) *Hop {
	return &Hop{
		world:   w,
		velMap:  ecs.NewMap[components.Velocity](w),
		rng:     rng,
		lo:      lo,
		hi:      hi,
		enabled: enabled,
	}
}

// Apply adds one impulse to e. Dead entities are ignored.
func (h *Hop) Apply(e ecs.Entity) {
	if !h.enabled || !h.world.Alive(e) || !h.velMap.Has(e) {
		return
	}
	vel := h.velMap.Get(e)
	vel.Y += h.lo + h.rng.Float32()*(h.hi-h.lo)
}

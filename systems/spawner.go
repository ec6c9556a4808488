// Package systems contains the ECS systems that host instance handles.
package systems

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ecosim/components"
)

// ErrStaleHandle is returned when destroying an entity that is no longer
// alive or belongs to another species.
var ErrStaleHandle = errors.New("stale instance handle")

// SpawnArea is the square region new instances are dropped into.
type SpawnArea struct {
	HalfExtent float32 // X and Z are drawn from [-HalfExtent, HalfExtent]
	Height     float32 // Y at spawn time
}

// Spawner creates and removes the instances of one species.
// Create and Destroy are the factory/disposer pair handed to the reconciler.
type Spawner struct {
	world      *ecs.World
	mapper     *ecs.Map4[components.Position, components.Velocity, components.Body, components.Species]
	speciesMap *ecs.Map[components.Species]
	rng        *rand.Rand

	kind components.Kind
	body components.Body
	area SpawnArea

	created   int
	destroyed int
}

// NewSpawner creates a spawner for kind. The rng is only used for placement.
func NewSpawner(w *ecs.World, kind components.Kind, radius float32, area SpawnArea, rng *rand.Rand) *Spawner {
	return &Spawner{
		world:      w,
		mapper:     ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Species](w),
		speciesMap: ecs.NewMap[components.Species](w),
		rng:        rng,
		kind:       kind,
		body:       components.Body{Radius: radius},
		area:       area,
	}
}

// Kind returns the species this spawner manages.
func (s *Spawner) Kind() components.Kind {
	return s.kind
}

// Create spawns one instance at a random point in the spawn area, at rest.
func (s *Spawner) Create() (ecs.Entity, error) {
	pos := components.Position{
		X: s.randomCoord(),
		Y: s.area.Height,
		Z: s.randomCoord(),
	}
	vel := components.Velocity{}
	body := s.body
	species := components.Species{Kind: s.kind}

	e := s.mapper.NewEntity(&pos, &vel, &body, &species)
	s.created++
	return e, nil
}

// Destroy removes an instance created by this spawner.
func (s *Spawner) Destroy(e ecs.Entity) error {
	if e.IsZero() || !s.world.Alive(e) {
		return fmt.Errorf("%w: %s entity %d", ErrStaleHandle, s.kind, e.ID())
	}
	if !s.speciesMap.Has(e) || s.speciesMap.Get(e).Kind != s.kind {
		return fmt.Errorf("%w: entity %d is not %s", ErrStaleHandle, e.ID(), s.kind)
	}
	s.world.RemoveEntity(e)
	s.destroyed++
	return nil
}

// Counts returns the lifetime number of creations and destructions.
func (s *Spawner) Counts() (created, destroyed int) {
	return s.created, s.destroyed
}

func (s *Spawner) randomCoord() float32 {
	return (s.rng.Float32()*2 - 1) * s.area.HalfExtent
}

// Package components defines ECS components for the instance world.
package components

// Kind identifies which species an instance represents.
type Kind uint8

const (
	KindPrey Kind = iota
	KindPredator
)

// Kinds lists every species in reconciliation order.
var Kinds = [...]Kind{KindPrey, KindPredator}

// String returns the species name used in logs and CSV columns.
func (k Kind) String() string {
	switch k {
	case KindPrey:
		return "prey"
	case KindPredator:
		return "predator"
	default:
		return "unknown"
	}
}

// Position is an instance's location in scene units. Y is up.
type Position struct {
	X, Y, Z float32
}

// Velocity is an instance's velocity in scene units per second.
type Velocity struct {
	X, Y, Z float32
}

// Body holds the collision half-height used for ground contact.
type Body struct {
	Radius float32
}

// Species tags an instance with its kind.
type Species struct {
	Kind Kind
}

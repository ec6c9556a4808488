// Package reconcile converges an ordered collection of instance handles
// to a target size through injected create and destroy operations.
package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeTarget is returned when the target count is below zero.
	ErrNegativeTarget = errors.New("negative target count")
	// ErrCollaborator wraps a failure from the injected create or destroy function.
	ErrCollaborator = errors.New("collaborator failure")
)

// Delta reports the operations that were applied by one call.
type Delta struct {
	Created   int
	Destroyed int
}

// Empty reports whether nothing was created or destroyed.
func (d Delta) Empty() bool {
	return d.Created == 0 && d.Destroyed == 0
}

// Reconcile grows or shrinks *collection until its length equals target.
//
// New handles are appended at the end. When shrinking, the oldest handles
// (front of the slice) are destroyed first, in insertion order. Surviving
// handles keep their relative order.
//
// A failing create or destroy stops the call without retry or rollback: the
// collection reflects exactly the operations that succeeded, and a handle
// whose destroy failed stays at the front.
func Reconcile[H any](collection *[]H, target int, create func() (H, error), destroy func(H) error) (Delta, error) {
	var d Delta
	if target < 0 {
		return d, fmt.Errorf("%w: %d", ErrNegativeTarget, target)
	}

	items := *collection

	for len(items) < target {
		h, err := create()
		if err != nil {
			*collection = items
			return d, fmt.Errorf("%w: create instance %d of %d: %w", ErrCollaborator, len(items)+1, target, err)
		}
		items = append(items, h)
		d.Created++
	}

	if excess := len(items) - target; excess > 0 {
		for i := 0; i < excess; i++ {
			if err := destroy(items[i]); err != nil {
				*collection = compact(items, i)
				return d, fmt.Errorf("%w: destroy instance: %w", ErrCollaborator, err)
			}
			d.Destroyed++
		}
		items = compact(items, excess)
	}

	*collection = items
	return d, nil
}

// compact drops the first n handles, shifting the survivors to the front of
// the backing array so it does not keep destroyed handles reachable.
func compact[H any](items []H, n int) []H {
	if n == 0 {
		return items
	}
	kept := copy(items, items[n:])
	var zero H
	for i := kept; i < len(items); i++ {
		items[i] = zero
	}
	return items[:kept]
}

package reconcile

// Pool bundles one species' instance collection with its factory and disposer.
// It has a single writer: Sync must not run concurrently with any other method.
type Pool[H any] struct {
	items   []H
	create  func() (H, error)
	destroy func(H) error
}

// NewPool creates an empty pool.
func NewPool[H any](create func() (H, error), destroy func(H) error) *Pool[H] {
	return &Pool[H]{create: create, destroy: destroy}
}

// Sync reconciles the pool to target instances.
func (p *Pool[H]) Sync(target int) (Delta, error) {
	return Reconcile(&p.items, target, p.create, p.destroy)
}

// Len returns the number of live instances.
func (p *Pool[H]) Len() int {
	return len(p.items)
}

// Items returns a copy of the handles, oldest first.
func (p *Pool[H]) Items() []H {
	out := make([]H, len(p.items))
	copy(out, p.items)
	return out
}

// Each calls fn for every handle, oldest first.
func (p *Pool[H]) Each(fn func(H)) {
	for _, h := range p.items {
		fn(h)
	}
}

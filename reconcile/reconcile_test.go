package reconcile

import (
	"errors"
	"slices"
	"testing"
)

// fakeHost hands out increasing integer handles and records disposals.
type fakeHost struct {
	next      int
	created   []int
	destroyed []int

	failCreateAt  int // fail the Nth create (1-based), 0 = never
	failDestroyAt int // fail the Nth destroy (1-based), 0 = never
	creates       int
	destroys      int
}

var errBoom = errors.New("boom")

func (f *fakeHost) create() (int, error) {
	f.creates++
	if f.failCreateAt > 0 && f.creates == f.failCreateAt {
		return 0, errBoom
	}
	f.next++
	f.created = append(f.created, f.next)
	return f.next, nil
}

func (f *fakeHost) destroy(h int) error {
	f.destroys++
	if f.failDestroyAt > 0 && f.destroys == f.failDestroyAt {
		return errBoom
	}
	f.destroyed = append(f.destroyed, h)
	return nil
}

func seeded(f *fakeHost, n int) []int {
	var items []int
	for i := 0; i < n; i++ {
		h, _ := f.create()
		items = append(items, h)
	}
	f.created = nil
	f.creates = 0
	return items
}

func TestReconcile_Grow(t *testing.T) {
	f := &fakeHost{}
	items := seeded(f, 3)
	original := slices.Clone(items)

	d, err := Reconcile(&items, 6, f.create, f.destroy)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if d.Created != 3 || d.Destroyed != 0 {
		t.Errorf("delta = %+v, want 3 created", d)
	}
	if len(items) != 6 {
		t.Fatalf("len = %d, want 6", len(items))
	}
	if !slices.Equal(items[:3], original) {
		t.Errorf("front = %v, want original %v", items[:3], original)
	}
	if !slices.Equal(items[3:], f.created) {
		t.Errorf("tail = %v, want new handles %v", items[3:], f.created)
	}
}

func TestReconcile_ShrinkDestroysOldestFirst(t *testing.T) {
	f := &fakeHost{}
	items := seeded(f, 5) // [1 2 3 4 5]

	d, err := Reconcile(&items, 2, f.create, f.destroy)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if d.Destroyed != 3 || d.Created != 0 {
		t.Errorf("delta = %+v, want 3 destroyed", d)
	}
	if want := []int{1, 2, 3}; !slices.Equal(f.destroyed, want) {
		t.Errorf("destroyed = %v, want %v", f.destroyed, want)
	}
	if want := []int{4, 5}; !slices.Equal(items, want) {
		t.Errorf("survivors = %v, want %v", items, want)
	}
}

func TestReconcile_ToZeroAndBack(t *testing.T) {
	f := &fakeHost{}
	items := seeded(f, 4)

	if _, err := Reconcile(&items, 0, f.create, f.destroy); err != nil {
		t.Fatalf("Reconcile to 0: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("len = %d, want 0", len(items))
	}
	if _, err := Reconcile(&items, 2, f.create, f.destroy); err != nil {
		t.Fatalf("Reconcile to 2: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
}

func TestReconcile_LengthMatchesTarget(t *testing.T) {
	f := &fakeHost{}
	var items []int

	targets := []int{0, 7, 7, 3, 12, 1, 0, 0, 5}
	for _, target := range targets {
		before := len(items)
		d, err := Reconcile(&items, target, f.create, f.destroy)
		if err != nil {
			t.Fatalf("Reconcile(%d): %v", target, err)
		}
		if len(items) != target {
			t.Errorf("len = %d, want %d", len(items), target)
		}
		if d.Created != max(0, target-before) || d.Destroyed != max(0, before-target) {
			t.Errorf("%d -> %d: delta = %+v", before, target, d)
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	f := &fakeHost{}
	var items []int

	if _, err := Reconcile(&items, 4, f.create, f.destroy); err != nil {
		t.Fatalf("first Reconcile: %v", err)
	}
	calls := f.creates + f.destroys

	d, err := Reconcile(&items, 4, f.create, f.destroy)
	if err != nil {
		t.Fatalf("second Reconcile: %v", err)
	}
	if !d.Empty() {
		t.Errorf("second call delta = %+v, want empty", d)
	}
	if f.creates+f.destroys != calls {
		t.Error("second call invoked the collaborators")
	}
}

func TestReconcile_NegativeTarget(t *testing.T) {
	f := &fakeHost{}
	items := seeded(f, 2)

	_, err := Reconcile(&items, -1, f.create, f.destroy)
	if !errors.Is(err, ErrNegativeTarget) {
		t.Errorf("error = %v, want ErrNegativeTarget", err)
	}
	if len(items) != 2 || f.destroys != 0 {
		t.Error("negative target must not touch the collection")
	}
}

func TestReconcile_CreateFailureKeepsPartialGrowth(t *testing.T) {
	f := &fakeHost{failCreateAt: 3}
	var items []int

	d, err := Reconcile(&items, 5, f.create, f.destroy)
	if !errors.Is(err, ErrCollaborator) || !errors.Is(err, errBoom) {
		t.Fatalf("error = %v, want ErrCollaborator wrapping errBoom", err)
	}
	if d.Created != 2 || len(items) != 2 {
		t.Errorf("delta = %+v len = %d, want 2 applied creations", d, len(items))
	}
	if f.creates != 3 {
		t.Errorf("create called %d times, want 3 (no retry)", f.creates)
	}
}

func TestReconcile_DestroyFailureKeepsHandle(t *testing.T) {
	f := &fakeHost{}
	items := seeded(f, 5) // [1 2 3 4 5]
	f.failDestroyAt = 2

	d, err := Reconcile(&items, 1, f.create, f.destroy)
	if !errors.Is(err, ErrCollaborator) {
		t.Fatalf("error = %v, want ErrCollaborator", err)
	}
	if d.Destroyed != 1 {
		t.Errorf("destroyed = %d, want 1", d.Destroyed)
	}
	if want := []int{2, 3, 4, 5}; !slices.Equal(items, want) {
		t.Errorf("collection = %v, want %v", items, want)
	}

	// A later call picks up where the failed one stopped.
	f.failDestroyAt = 0
	f.destroys = 0
	if _, err := Reconcile(&items, 1, f.create, f.destroy); err != nil {
		t.Fatalf("retry Reconcile: %v", err)
	}
	if want := []int{5}; !slices.Equal(items, want) {
		t.Errorf("collection after retry = %v, want %v", items, want)
	}
}

func TestPool(t *testing.T) {
	f := &fakeHost{}
	p := NewPool(f.create, f.destroy)

	if _, err := p.Sync(3); err != nil {
		t.Fatalf("Sync(3): %v", err)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}

	if _, err := p.Sync(1); err != nil {
		t.Fatalf("Sync(1): %v", err)
	}
	if want := []int{3}; !slices.Equal(p.Items(), want) {
		t.Errorf("Items() = %v, want %v", p.Items(), want)
	}

	// Items is a copy.
	items := p.Items()
	items[0] = 99
	if p.Items()[0] != 3 {
		t.Error("mutating Items() result changed the pool")
	}

	var seen []int
	p.Each(func(h int) { seen = append(seen, h) })
	if !slices.Equal(seen, []int{3}) {
		t.Errorf("Each visited %v", seen)
	}
}

package ecs

import "testing"

type testComponent struct {
	Base
	Value int
}

func newTestStore() *Store[*testComponent] {
	return NewStore(func() *testComponent { return &testComponent{} })
}

func TestActorsLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actors := NewActors()
			ids := make([]ActorID, 0, c.create)
			for i := 0; i < c.create; i++ {
				ids = append(ids, actors.Create())
			}
			if actors.Len() != c.create {
				t.Fatalf("expected %d actors, got %d", c.create, actors.Len())
			}
			if c.destroyIndex < 0 {
				return
			}
			dead := ids[c.destroyIndex]
			if !actors.Destroy(dead) {
				t.Fatalf("Destroy should return true for alive actor")
			}
			if actors.Alive(dead) {
				t.Fatalf("actor should not be alive after destruction")
			}
			if actors.Destroy(dead) {
				t.Fatalf("second Destroy should return false")
			}
			want := append(append([]ActorID(nil), ids[:c.destroyIndex]...), ids[c.destroyIndex+1:]...)
			for i, a := range want {
				if got := actors.Index(i); got != a {
					t.Fatalf("index %d: expected %v, got %v", i, a, got)
				}
			}
		})
	}
}

func TestActorsRecycleBumpsGeneration(t *testing.T) {
	actors := NewActors()
	a := actors.Create()
	actors.Destroy(a)
	b := actors.Create()
	if a == b {
		t.Fatalf("recycled slot must produce a new id")
	}
	if a.index() != b.index() {
		t.Fatalf("expected slot reuse, got %d and %d", a.index(), b.index())
	}
	if actors.Alive(a) || !actors.Alive(b) {
		t.Fatalf("stale id must not be alive")
	}
	if actors.Alive(NullActor) {
		t.Fatalf("NullActor must never be alive")
	}
}

func TestSparseSetSwapRemove(t *testing.T) {
	actors := NewActors()
	var set SparseSet[string]
	a, b, c := actors.Create(), actors.Create(), actors.Create()
	set.Set(a, "a")
	set.Set(b, "b")
	set.Set(c, "c")

	if v, ok := set.Remove(a); !ok || v != "a" {
		t.Fatalf("remove returned %q %v", v, ok)
	}
	if set.Has(a) || set.Len() != 2 {
		t.Fatalf("a should be gone, len=%d", set.Len())
	}
	if v, _ := set.Get(c); v != "c" {
		t.Fatalf("swapped entry lost its value: %q", v)
	}

	visited := 0
	set.Each(func(id ActorID, _ string) {
		visited++
		set.Remove(id)
	})
	if visited != 2 || set.Len() != 0 {
		t.Fatalf("expected to visit and remove 2 entries, visited %d len %d", visited, set.Len())
	}
}

func TestStoreAddIsIdempotent(t *testing.T) {
	actors := NewActors()
	s := newTestStore()
	a := actors.Create()

	c, created := s.Add(a)
	if !created || c == nil {
		t.Fatalf("first add should create")
	}
	if c.Enabled() {
		t.Fatalf("new components start disabled")
	}
	c.Value = 7

	again, created := s.Add(a)
	if created {
		t.Fatalf("second add must not report creation")
	}
	if again != c || again.Value != 7 {
		t.Fatalf("second add must return the existing component untouched")
	}
}

func TestStoreEnableDisableEdges(t *testing.T) {
	actors := NewActors()
	s := newTestStore()
	a := actors.Create()
	s.Add(a)

	steps := []struct {
		name    string
		op      func() bool
		changed bool
		enabled bool
	}{
		{"enable", func() bool { _, ch := s.Enable(a); return ch }, true, true},
		{"enable_again", func() bool { _, ch := s.Enable(a); return ch }, false, true},
		{"disable", func() bool { _, ch := s.Disable(a); return ch }, true, false},
		{"disable_again", func() bool { _, ch := s.Disable(a); return ch }, false, false},
	}
	for _, st := range steps {
		if got := st.op(); got != st.changed {
			t.Fatalf("%s: changed=%v, want %v", st.name, got, st.changed)
		}
		if s.IsEnabled(a) != st.enabled {
			t.Fatalf("%s: enabled=%v, want %v", st.name, s.IsEnabled(a), st.enabled)
		}
	}

	missing := actors.Create()
	if _, ch := s.Enable(missing); ch {
		t.Fatalf("enabling a missing component must be a no-op")
	}
}

func TestStoreEachEnabled(t *testing.T) {
	actors := NewActors()
	s := newTestStore()
	ids := []ActorID{actors.Create(), actors.Create(), actors.Create()}
	for _, a := range ids {
		s.Add(a)
	}
	if s.HasAnyEnabled() {
		t.Fatalf("no component enabled yet")
	}
	s.Enable(ids[0])
	s.Enable(ids[2])
	if !s.HasAnyEnabled() {
		t.Fatalf("expected an enabled component")
	}

	seen := map[ActorID]bool{}
	s.EachEnabled(func(a ActorID, _ *testComponent) { seen[a] = true })
	if len(seen) != 2 || !seen[ids[0]] || !seen[ids[2]] {
		t.Fatalf("unexpected enabled set %v", seen)
	}
	if s.GetEnabled(ids[1]) != nil {
		t.Fatalf("GetEnabled must return nil for disabled component")
	}
}

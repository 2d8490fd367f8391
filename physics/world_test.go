package physics

import (
	"testing"

	"github.com/milk9111/rulesplayer/ecs"
)

type recordingListener struct {
	begins int
	ends   int
	pairs  map[[2]ecs.ActorID]int
}

func (r *recordingListener) BeginContact(a, b ecs.ActorID) {
	r.begins++
	if r.pairs == nil {
		r.pairs = make(map[[2]ecs.ActorID]int)
	}
	r.pairs[[2]ecs.ActorID{a, b}]++
}

func (r *recordingListener) EndContact(a, b ecs.ActorID) {
	r.ends++
}

func box(w, h float64) FixtureDef {
	return FixtureDef{Kind: ShapeBox, Width: w, Height: h, Friction: 0.5}
}

func TestAddFixtureSkipsDegenerateShapes(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{Iterations: 10})
	body := w.CreateBody(actors.Create(), true, 0, 0, 0)

	cases := []struct {
		name string
		def  FixtureDef
		ok   bool
	}{
		{"box", box(1, 1), true},
		{"zero_box", box(0, 1), false},
		{"circle", FixtureDef{Kind: ShapeCircle, Radius: 0.5}, true},
		{"zero_circle", FixtureDef{Kind: ShapeCircle}, false},
		{"triangle", FixtureDef{Kind: ShapePolygon, Points: []Point{{0, 0}, {1, 0}, {0, 1}}}, true},
		{"welded_triangle", FixtureDef{Kind: ShapePolygon, Points: []Point{{0, 0}, {0.001, 0}, {0, 1}}}, false},
		{"collinear", FixtureDef{Kind: ShapePolygon, Points: []Point{{0, 0}, {1, 0}, {2, 0}}}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			shape, ok := w.AddFixture(body, c.def)
			if ok != c.ok {
				t.Fatalf("ok=%v, want %v", ok, c.ok)
			}
			if ok && shape == nil {
				t.Fatalf("expected a shape")
			}
		})
	}
}

func TestDynamicContactsReachListener(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{Iterations: 10})
	l := &recordingListener{}
	w.SetContactListener(l)

	a, b := actors.Create(), actors.Create()
	ba := w.CreateBody(a, true, 0, 0, 0)
	bb := w.CreateBody(b, true, 0.5, 0, 0)
	w.AddFixture(ba, box(1, 1))
	w.AddFixture(bb, box(1, 1))
	w.UpdateMass(ba)
	w.UpdateMass(bb)

	w.Step(1.0 / 120)
	if l.begins == 0 {
		t.Fatalf("expected a begin contact for overlapping dynamic bodies")
	}

	w.DestroyBody(bb)
	if l.ends != l.begins {
		t.Fatalf("removing a body should end its contacts: begins=%d ends=%d", l.begins, l.ends)
	}
}

func TestKinematicOverlapQuery(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{})
	l := &recordingListener{}
	w.SetContactListener(l)

	a, b, c := actors.Create(), actors.Create(), actors.Create()
	ba := w.CreateBody(a, false, 0, 0, 0)
	bb := w.CreateBody(b, false, 0.5, 0, 0)
	bc := w.CreateBody(c, false, 10, 0, 0)
	w.AddFixture(ba, box(1, 1))
	w.AddFixture(bb, box(1, 1))
	w.AddFixture(bc, box(1, 1))
	w.Step(1.0 / 120)

	if l.begins != 0 {
		t.Fatalf("kinematic pairs should not produce contact events")
	}

	var overlaps []ecs.ActorID
	w.EachOverlap(ba, func(other ecs.ActorID) { overlaps = append(overlaps, other) })
	if len(overlaps) != 1 || overlaps[0] != b {
		t.Fatalf("expected overlap with %v only, got %v", b, overlaps)
	}

	w.SetTransform(bb, 5, 0, 0)
	overlaps = overlaps[:0]
	w.EachOverlap(ba, func(other ecs.ActorID) { overlaps = append(overlaps, other) })
	if len(overlaps) != 0 {
		t.Fatalf("expected no overlap after moving apart, got %v", overlaps)
	}
}

func TestActorsAt(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{})
	a := actors.Create()
	body := w.CreateBody(a, false, 2, 2, 0)
	w.AddFixture(body, box(1, 1))
	w.AddFixture(body, FixtureDef{Kind: ShapeCircle, Radius: 0.4})

	if got := w.ActorsAt(2, 2); len(got) != 1 || got[0] != a {
		t.Fatalf("expected a single hit on %v, got %v", a, got)
	}
	if got := w.ActorsAt(5, 5); len(got) != 0 {
		t.Fatalf("expected no hits, got %v", got)
	}
}

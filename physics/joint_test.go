package physics

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
)

func dynamicBox(w *World, actors *ecs.Actors, x, y float64) *cp.Body {
	body := w.CreateBody(actors.Create(), true, x, y, 0)
	w.AddFixture(body, box(1, 1))
	w.UpdateMass(body)
	return body
}

func steps(w *World, n int) {
	for i := 0; i < n; i++ {
		w.Step(1.0 / 60)
	}
}

func TestDragJointFollowsAnchor(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{Iterations: 10})
	body := dynamicBox(w, actors, 0, 0)

	j := w.AddDragJoint(body, 0, 0)
	if !w.Attached(j) {
		t.Fatalf("expected joint in the space")
	}
	j.MoveAnchor(2, 0)
	steps(w, 120)

	if x := body.Position().X; math.Abs(x-2) > 0.2 {
		t.Fatalf("body x = %v, want near 2", x)
	}

	w.RemoveJoint(j)
	if w.Attached(j) {
		t.Fatalf("joint still attached after remove")
	}
}

func TestDragJointNeedsDynamicBody(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{})
	body := w.CreateBody(actors.Create(), false, 0, 0, 0)
	w.AddFixture(body, box(1, 1))
	if j := w.AddDragJoint(body, 0, 0); j != nil {
		t.Fatalf("expected no joint on a kinematic body")
	}
}

func TestAxisAndPinJoints(t *testing.T) {
	tests := []struct {
		name  string
		join  func(w *World, body *cp.Body) *Joint
		wantX bool
	}{
		{name: "horizontal", join: func(w *World, body *cp.Body) *Joint {
			return w.AddAxisJoint(body, cp.Vector{X: 1})
		}, wantX: true},
		{name: "pinned", join: func(w *World, body *cp.Body) *Joint {
			return w.AddPinJoint(body)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actors := ecs.NewActors()
			w := NewWorld(Options{Iterations: 10})
			body := dynamicBox(w, actors, 1, 1)
			tt.join(w, body)
			body.SetVelocity(1, 1)
			steps(w, 60)

			p := body.Position()
			if math.Abs(p.Y-1) > 0.05 {
				t.Fatalf("y drifted to %v", p.Y)
			}
			if moved := p.X-1 > 0.5; moved != tt.wantX {
				t.Fatalf("x = %v, moved=%v want %v", p.X, moved, tt.wantX)
			}
		})
	}
}

func TestDestroyBodyDropsJoints(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{})
	body := dynamicBox(w, actors, 0, 0)
	j := w.AddPinJoint(body)

	w.DestroyBody(body)
	if w.Attached(j) {
		t.Fatalf("joint outlived its body")
	}
	w.RemoveJoint(j)
	steps(w, 2)
}

func TestFixedRotation(t *testing.T) {
	actors := ecs.NewActors()
	w := NewWorld(Options{})
	body := dynamicBox(w, actors, 0, 0)
	body.SetAngularVelocity(3)

	w.SetFixedRotation(body, true)
	body.ApplyImpulseAtWorldPoint(cp.Vector{Y: 5}, cp.Vector{X: 0.5})
	if body.AngularVelocity() != 0 {
		t.Fatalf("fixed body spun: %v", body.AngularVelocity())
	}

	w.SetFixedRotation(body, false)
	body.ApplyImpulseAtWorldPoint(cp.Vector{Y: 5}, cp.Vector{X: 0.5})
	if body.AngularVelocity() == 0 {
		t.Fatalf("released body did not spin")
	}
}

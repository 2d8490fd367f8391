package scene

import (
	"math"
	"testing"
)

func TestDragMovesActorWithTouch(t *testing.T) {
	tests := []struct {
		name       string
		components string
		frames     int
		tolerance  float64
	}{
		{name: "simulated", components: `"Body":{"x":0,"y":0},"Moving":{},"Drag":{}`, frames: 120, tolerance: 0.2},
		{name: "kinematic", components: `"Body":{"x":0,"y":0},"Drag":{}`, frames: 1, tolerance: 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t, actorsDoc(nil, actor(tt.components)))
			a := s.IndexActor(0)
			drag := s.Behaviors().Drag

			s.Gesture().Press(1, 0, 0)
			step(s, 1, frameDt)
			if !drag.Dragging(a) {
				t.Fatalf("press on the actor did not start a drag")
			}

			s.Gesture().Move(1, 2, 1)
			step(s, tt.frames, frameDt)
			p := s.Behaviors().Body.BodyOf(a).Position()
			if math.Abs(p.X-2) > tt.tolerance || math.Abs(p.Y-1) > tt.tolerance {
				t.Fatalf("actor at %v, want near (2, 1)", p)
			}

			s.Gesture().Release(1, 2, 1)
			step(s, 2, frameDt)
			if drag.Dragging(a) {
				t.Fatalf("drag outlived the touch")
			}
		})
	}
}

func TestDragIgnoresTouchesElsewhere(t *testing.T) {
	s := newTestScene(t, actorsDoc(nil, actor(`"Body":{"x":0,"y":0},"Drag":{}`)))
	s.Gesture().Press(1, 5, 5)
	step(s, 1, frameDt)
	if s.Behaviors().Drag.Dragging(s.IndexActor(0)) {
		t.Fatalf("drag started away from the actor")
	}
}

func TestSlidingLimitsMovement(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		moveX     bool
		moveY     bool
	}{
		{name: "horizontal", direction: SlideHorizontal, moveX: true},
		{name: "vertical", direction: SlideVertical, moveY: true},
		{name: "none", direction: SlideNone},
		{name: "both", direction: SlideBoth, moveX: true, moveY: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := actorsDoc(nil, actor(`"Body":{"x":0,"y":0},"Moving":{"vx":1,"vy":1},"Sliding":{"direction":"`+tt.direction+`"}`))
			s := newTestScene(t, doc)
			step(s, 60, frameDt)

			p := s.Behaviors().Body.BodyOf(s.IndexActor(0)).Position()
			if moved := math.Abs(p.X) > 0.5; moved != tt.moveX {
				t.Fatalf("x = %v, moved=%v want %v", p.X, moved, tt.moveX)
			}
			if moved := math.Abs(p.Y) > 0.5; moved != tt.moveY {
				t.Fatalf("y = %v, moved=%v want %v", p.Y, moved, tt.moveY)
			}
		})
	}
}

func TestSlidingFollowsDirectPlacement(t *testing.T) {
	doc := actorsDoc(nil, actor(`"Body":{"x":0,"y":0},"Moving":{"vx":1},"Sliding":{"direction":"horizontal"}`))
	s := newTestScene(t, doc)
	a := s.IndexActor(0)
	step(s, 2, frameDt)

	s.Behaviors().Body.SetPosition(a, 0, 3)
	step(s, 30, frameDt)
	if y := s.Behaviors().Body.BodyOf(a).Position().Y; math.Abs(y-3) > 0.05 {
		t.Fatalf("y = %v, want the new track at 3", y)
	}
}

func TestSlingLaunchesOnRelease(t *testing.T) {
	s := newTestScene(t, actorsDoc(nil, actor(`"Body":{"x":0,"y":0},"Moving":{},"Sling":{"speed":2}`)))
	a := s.IndexActor(0)
	g := s.Gesture()

	g.Press(1, 4, 4)
	step(s, 1, frameDt)
	g.Move(1, 3, 4)
	step(s, 1, frameDt)
	if v := s.Behaviors().Body.BodyOf(a).Velocity(); v.X != 0 || v.Y != 0 {
		t.Fatalf("launched before release: %v", v)
	}

	g.Release(1, 3, 4)
	step(s, 1, frameDt)
	v := s.Behaviors().Body.BodyOf(a).Velocity()
	if math.Abs(v.X-2) > 1e-9 || math.Abs(v.Y) > 1e-9 {
		t.Fatalf("velocity = %v, want (2, 0)", v)
	}
}

func TestSlingIgnoresTaps(t *testing.T) {
	s := newTestScene(t, actorsDoc(nil, actor(`"Body":{"x":0,"y":0},"Moving":{},"Sling":{}`)))
	g := s.Gesture()
	g.Press(1, 4, 4)
	step(s, 1, frameDt)
	g.Release(1, 4, 4)
	step(s, 1, frameDt)
	if v := s.Behaviors().Body.BodyOf(s.IndexActor(0)).Velocity(); v.X != 0 || v.Y != 0 {
		t.Fatalf("tap launched the actor: %v", v)
	}
}

func TestAnalogStickPushesAndFiresTriggers(t *testing.T) {
	stick := actor(`"Body":{"x":0,"y":0},"Moving":{},"AnalogStick":{"axes":"x"},` + rulesComponent(
		rule("analog stick begins", AnalogStickID, "", incrementVar("began")),
		rule("analog stick ends", AnalogStickID, "", incrementVar("ended")),
	))
	s := newTestScene(t, actorsDoc([]string{"began", "ended"}, stick))
	a := s.IndexActor(0)
	g := s.Gesture()

	g.Press(1, 5, 5)
	step(s, 1, frameDt)
	if got := varNumber(s, "began"); got != 0 {
		t.Fatalf("began before the touch moved: %v", got)
	}

	g.Move(1, 6, 5)
	step(s, 1, frameDt)
	if got := varNumber(s, "began"); got != 1 {
		t.Fatalf("began = %v, want 1", got)
	}

	g.Move(1, 7, 6)
	step(s, 5, frameDt)
	v := s.Behaviors().Body.BodyOf(a).Velocity()
	if v.X <= 0 || v.Y != 0 {
		t.Fatalf("velocity = %v, want pushed along x only", v)
	}

	g.Release(1, 7, 6)
	step(s, 2, frameDt)
	if got := varNumber(s, "ended"); got != 1 {
		t.Fatalf("ended = %v, want 1", got)
	}
	if got := varNumber(s, "began"); got != 1 {
		t.Fatalf("began = %v after release, want 1", got)
	}
}

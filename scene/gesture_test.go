package scene

import "testing"

func TestGestureTouchLifecycle(t *testing.T) {
	g := &Gesture{}

	g.Press(1, 0, 0)
	g.update()
	touch := g.Touch(1)
	if touch == nil || !touch.Pressed || touch.Released {
		t.Fatalf("after press: %+v", touch)
	}
	if g.SingleTouch() != touch {
		t.Fatalf("expected the only touch to be single")
	}

	g.Move(1, 0.1, 0)
	g.update()
	if touch.Pressed || touch.MovedNear {
		t.Fatalf("small move: pressed=%v movedNear=%v", touch.Pressed, touch.MovedNear)
	}

	g.Move(1, 0.5, 0)
	g.update()
	if !touch.MovedNear || touch.X != 0.5 {
		t.Fatalf("far move: %+v", touch)
	}
	g.Move(1, 0, 0)
	g.update()
	if !touch.MovedNear {
		t.Fatalf("moved near reset after returning to the start")
	}

	g.Release(1, 0, 0)
	g.update()
	if !touch.Released || g.Touch(1) != touch {
		t.Fatalf("released touch should stay visible for one frame")
	}
	g.update()
	if g.Touch(1) != nil || len(g.Touches()) != 0 {
		t.Fatalf("released touch still tracked")
	}
}

func TestGestureSeveralTouches(t *testing.T) {
	g := &Gesture{}
	g.Press(1, 0, 0)
	g.Press(2, 1, 1)
	g.update()

	if got := len(g.Touches()); got != 2 {
		t.Fatalf("touches = %d, want 2", got)
	}
	if g.Touches()[0].ID != 1 {
		t.Fatalf("touches not in press order")
	}
	if g.SingleTouch() != nil {
		t.Fatalf("single touch with two pointers down")
	}

	// a second press of a held pointer is ignored
	g.Press(1, 5, 5)
	g.update()
	if got := len(g.Touches()); got != 2 {
		t.Fatalf("touches = %d after repeated press, want 2", got)
	}
}

func TestTouchTokens(t *testing.T) {
	g := &Gesture{}
	g.Press(1, 0, 0)
	g.update()
	touch := g.Touch(1)

	if touch.IsUsed() {
		t.Fatalf("fresh touch is used")
	}
	if !touch.use(dragToken) || !touch.use(dragToken) {
		t.Fatalf("owner could not claim its own touch")
	}
	if touch.use(slingToken) {
		t.Fatalf("second control claimed a used touch")
	}
	if !touch.usedBy(dragToken) || touch.usedBy(slingToken) {
		t.Fatalf("wrong owner")
	}
}

func TestGestureTapsLastOneFrame(t *testing.T) {
	g := &Gesture{}
	g.Tap(Touch{X: 1, Y: 2})
	g.update()
	if got := len(g.Taps()); got != 1 {
		t.Fatalf("taps = %d, want 1", got)
	}
	g.update()
	if got := len(g.Taps()); got != 0 {
		t.Fatalf("taps = %d on next frame, want 0", got)
	}
}

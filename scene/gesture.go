package scene

import "math"

// Touch is one tap in both world and screen coordinates.
type Touch struct {
	X, Y             float64
	ScreenX, ScreenY float64
}

// TouchID names one pointer for as long as it is held.
type TouchID int

// A touch counts as moved once it strays this far (world units) from where
// it was pressed.
const movedNearDistance = 0.2

// touchToken marks which control consumed a touch.
type touchToken struct{ name string }

// TouchState is a held pointer. Pressed and Released are each true for
// exactly one frame.
type TouchState struct {
	ID                 TouchID
	X, Y               float64
	InitialX, InitialY float64
	Pressed            bool
	Released           bool
	MovedNear          bool

	used *touchToken
}

// IsUsed reports whether any control claimed the touch.
func (t *TouchState) IsUsed() bool { return t.used != nil }

func (t *TouchState) usedBy(tok *touchToken) bool { return t.used == tok }

// use claims the touch for tok. It fails if another control holds it.
func (t *TouchState) use(tok *touchToken) bool {
	if t.used != nil && t.used != tok {
		return false
	}
	t.used = tok
	return true
}

type touchEventKind int

const (
	touchPress touchEventKind = iota
	touchMove
	touchRelease
)

type touchEvent struct {
	kind touchEventKind
	id   TouchID
	x, y float64
}

// Gesture collects taps and held touches from the host and exposes them
// for one frame.
type Gesture struct {
	pending []Touch
	current []Touch

	events  []touchEvent
	touches []*TouchState
}

// Tap records a tap to be seen on the next update.
func (g *Gesture) Tap(t Touch) {
	g.pending = append(g.pending, t)
}

// Press starts tracking a pointer at world position x, y.
func (g *Gesture) Press(id TouchID, x, y float64) {
	g.events = append(g.events, touchEvent{kind: touchPress, id: id, x: x, y: y})
}

// Move updates a held pointer.
func (g *Gesture) Move(id TouchID, x, y float64) {
	g.events = append(g.events, touchEvent{kind: touchMove, id: id, x: x, y: y})
}

// Release ends a pointer. It stays visible, with Released set, for one frame.
func (g *Gesture) Release(id TouchID, x, y float64) {
	g.events = append(g.events, touchEvent{kind: touchRelease, id: id, x: x, y: y})
}

func (g *Gesture) update() {
	g.current = append(g.current[:0], g.pending...)
	g.pending = g.pending[:0]

	kept := g.touches[:0]
	for _, t := range g.touches {
		if t.Released {
			continue
		}
		t.Pressed = false
		kept = append(kept, t)
	}
	for i := len(kept); i < len(g.touches); i++ {
		g.touches[i] = nil
	}
	g.touches = kept

	for _, ev := range g.events {
		g.apply(ev)
	}
	g.events = g.events[:0]
}

func (g *Gesture) apply(ev touchEvent) {
	t := g.Touch(ev.id)
	switch ev.kind {
	case touchPress:
		if t != nil && !t.Released {
			return
		}
		g.touches = append(g.touches, &TouchState{
			ID: ev.id, X: ev.x, Y: ev.y, InitialX: ev.x, InitialY: ev.y, Pressed: true,
		})
		return
	case touchRelease:
		if t != nil {
			t.Released = true
		}
	}
	if t == nil {
		return
	}
	t.X, t.Y = ev.x, ev.y
	if math.Hypot(t.X-t.InitialX, t.Y-t.InitialY) > movedNearDistance {
		t.MovedNear = true
	}
}

// Taps lists this frame's taps.
func (g *Gesture) Taps() []Touch { return g.current }

// Touches lists held pointers in press order.
func (g *Gesture) Touches() []*TouchState { return g.touches }

// Touch returns the pointer with id, or nil.
func (g *Gesture) Touch(id TouchID) *TouchState {
	for i := len(g.touches) - 1; i >= 0; i-- {
		if g.touches[i].ID == id {
			return g.touches[i]
		}
	}
	return nil
}

// SingleTouch returns the only held pointer, or nil when there are none or
// several.
func (g *Gesture) SingleTouch() *TouchState {
	if len(g.touches) != 1 {
		return nil
	}
	return g.touches[0]
}

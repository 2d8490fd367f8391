package scene

import (
	"image/color"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/rules"
)

var (
	dragToken        = &touchToken{name: "drag"}
	analogStickToken = &touchToken{name: "analog stick"}
	slingToken       = &touchToken{name: "sling"}

	overlayLine = color.NRGBA{0xff, 0xff, 0xff, 0xcc}
	overlayFill = color.NRGBA{0xff, 0xff, 0xff, 0x4d}
)

const (
	handleRadius = 0.18
	overlayWidth = 0.025
)

// Sliding directions.
const (
	SlideBoth       = "both"
	SlideHorizontal = "horizontal"
	SlideVertical   = "vertical"
	SlideNone       = "none"
)

// SlidingComponent limits which way a simulated body may move.
type SlidingComponent struct {
	ecs.Base
	Direction         string `prop:"direction"`
	IsRotationAllowed bool   `prop:"isRotationAllowed"`

	joint *physics.Joint
}

type SlidingBehavior struct {
	motion[*SlidingComponent]
}

func newSlidingBehavior(s *Scene) *SlidingBehavior {
	b := &SlidingBehavior{}
	b.apply = func(_ ecs.ActorID, c *SlidingComponent, body *cp.Body) {
		w := s.physics
		w.RemoveJoint(c.joint)
		c.joint = nil
		if physics.IsDynamic(body) {
			switch c.Direction {
			case SlideNone:
				c.joint = w.AddPinJoint(body)
			case SlideHorizontal:
				c.joint = w.AddAxisJoint(body, cp.Vector{X: 1})
			case SlideVertical:
				c.joint = w.AddAxisJoint(body, cp.Vector{Y: 1})
			}
		}
		w.SetFixedRotation(body, !c.IsRotationAllowed)
	}
	b.reset = func(_ ecs.ActorID, c *SlidingComponent, body *cp.Body) {
		s.physics.RemoveJoint(c.joint)
		c.joint = nil
		s.physics.SetFixedRotation(body, false)
	}
	b.init(s, "Sliding", SlidingID, func() *SlidingComponent {
		return &SlidingComponent{Direction: SlideBoth, IsRotationAllowed: true}
	}, b)
	return b
}

func (c *SlidingComponent) constrained() bool {
	return c.Direction == SlideNone || c.Direction == SlideHorizontal || c.Direction == SlideVertical
}

// bodyMoved re-anchors the constraint after the body is placed directly.
func (b *SlidingBehavior) bodyMoved(a ecs.ActorID, x, y float64) {
	if c := b.GetEnabled(a); c != nil {
		c.joint.MoveAnchor(x, y)
	}
}

// HandlePerform restores joints the world dropped, which happens when the
// body stops being simulated for a while.
func (b *SlidingBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	w := b.scene.physics
	b.store.EachEnabled(func(a ecs.ActorID, c *SlidingComponent) {
		body := b.body(a)
		if !physics.IsDynamic(body) || !c.constrained() || w.Attached(c.joint) {
			return
		}
		b.apply(a, c, body)
	})
}

type dragHandle struct {
	touch      TouchID
	joint      *physics.Joint
	local      cp.Vector
	offX, offY float64
}

// DragComponent lets touches pick the actor up.
type DragComponent struct {
	ecs.Base

	handles []dragHandle
}

// DragBehavior pulls simulated bodies toward the touch through a joint and
// moves other bodies with it directly.
type DragBehavior struct {
	base[*DragComponent]
}

func newDragBehavior(s *Scene) *DragBehavior {
	b := &DragBehavior{}
	b.init(s, "Drag", DragID, func() *DragComponent { return &DragComponent{} }, b)
	return b
}

func (b *DragBehavior) handleDisableComponent(a ecs.ActorID, c *DragComponent, removeActor bool) {
	for _, h := range c.handles {
		b.scene.physics.RemoveJoint(h.joint)
	}
	c.handles = nil
}

func (b *DragBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	s := b.scene
	for _, t := range s.gesture.Touches() {
		if !t.Pressed || t.IsUsed() {
			continue
		}
		if hit := b.topmostAt(t.X, t.Y); hit.Valid() && t.use(dragToken) {
			b.grab(hit, t)
		}
	}
	b.store.EachEnabled(b.follow)
}

// topmostAt returns the front-most draggable actor under x, y.
func (b *DragBehavior) topmostAt(x, y float64) ecs.ActorID {
	hit := ecs.NullActor
	best := math.Inf(-1)
	for _, a := range b.scene.physics.ActorsAt(x, y) {
		if !b.IsComponentEnabled(a) {
			continue
		}
		if order, ok := b.scene.DrawOrder(a); ok && order > best {
			hit, best = a, order
		}
	}
	return hit
}

func (b *DragBehavior) grab(a ecs.ActorID, t *TouchState) {
	body := b.scene.behaviors.Body.BodyOf(a)
	if body == nil {
		return
	}
	p := body.Position()
	c := b.Get(a)
	c.handles = append(c.handles, dragHandle{
		touch: t.ID,
		joint: b.scene.physics.AddDragJoint(body, t.X, t.Y),
		local: body.WorldToLocal(cp.Vector{X: t.X, Y: t.Y}),
		offX:  p.X - t.X,
		offY:  p.Y - t.Y,
	})
}

func (b *DragBehavior) follow(a ecs.ActorID, c *DragComponent) {
	if len(c.handles) == 0 {
		return
	}
	s := b.scene
	bodies := s.behaviors.Body
	kept := c.handles[:0]
	for _, h := range c.handles {
		t := s.gesture.Touch(h.touch)
		if bodies.BodyOf(a) == nil || t == nil || t.Released {
			s.physics.RemoveJoint(h.joint)
			continue
		}
		if h.joint != nil {
			if !s.physics.Attached(h.joint) {
				continue
			}
			h.joint.MoveAnchor(t.X, t.Y)
		} else {
			bodies.SetPosition(a, t.X+h.offX, t.Y+h.offY)
		}
		kept = append(kept, h)
	}
	c.handles = kept
}

// Dragging reports whether a touch currently holds the actor.
func (b *DragBehavior) Dragging(a ecs.ActorID) bool {
	c := b.GetEnabled(a)
	return c != nil && len(c.handles) > 0
}

func (b *DragBehavior) HandleDrawOverlay(canvas Canvas) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	s := b.scene
	b.store.EachEnabled(func(a ecs.ActorID, c *DragComponent) {
		body := s.behaviors.Body.BodyOf(a)
		if body == nil {
			return
		}
		for _, h := range c.handles {
			t := s.gesture.Touch(h.touch)
			if t == nil || t.Released {
				continue
			}
			hp := body.LocalToWorld(h.local)
			drawHandle(canvas, hp.X, hp.Y, handleRadius)
			drawHandle(canvas, t.X, t.Y, handleRadius)
			fillSegment(canvas, hp.X, hp.Y, t.X, t.Y, overlayWidth, overlayLine)
		}
	})
}

// Analog stick axes.
const (
	AxesBoth = "x and y"
	AxesX    = "x"
	AxesY    = "y"
)

const (
	maxStickLength = 2
	maxSlingLength = 3
)

// AnalogStickComponent pushes the actor in the direction a touch is held.
type AnalogStickComponent struct {
	ecs.Base
	Speed        float64 `prop:"speed"`
	TurnFriction float64 `prop:"turnFriction"`
	Axes         string  `prop:"axes"`
}

// AnalogStickBehavior tracks one moving touch as a virtual stick shared by
// every enabled component.
type AnalogStickBehavior struct {
	base[*AnalogStickComponent]
	centerX, centerY float64
}

func newAnalogStickBehavior(s *Scene) *AnalogStickBehavior {
	b := &AnalogStickBehavior{}
	b.init(s, "AnalogStick", AnalogStickID, func() *AnalogStickComponent {
		return &AnalogStickComponent{Speed: 6, TurnFriction: 3, Axes: AxesBoth}
	}, b)
	return b
}

var (
	analogStickBeginsTrigger = rules.NewTriggerKind[AnalogStickTrigger]("analog stick begins")
	analogStickEndsTrigger   = rules.NewTriggerKind[AnalogStickTrigger]("analog stick ends")
)

type AnalogStickTrigger struct{}

func (*AnalogStickTrigger) Fields(rules.Fields) {}

func (b *AnalogStickBehavior) registerRules(c *rules.Catalog) {
	rules.RegisterTrigger(c, analogStickBeginsTrigger, AnalogStickID)
	rules.RegisterTrigger(c, analogStickEndsTrigger, AnalogStickID)
}

// stickTouch returns the first moved touch that is free or already the
// stick's, and whether it is new this frame.
func (b *AnalogStickBehavior) stickTouch() (*TouchState, bool) {
	for _, t := range b.scene.gesture.Touches() {
		if !t.MovedNear {
			continue
		}
		fresh := !t.usedBy(analogStickToken)
		if t.use(analogStickToken) {
			return t, fresh
		}
	}
	return nil, false
}

// drag returns the stick offset clamped to its maximum length.
func (b *AnalogStickBehavior) drag(t *TouchState, limit float64) cp.Vector {
	d := cp.Vector{X: t.X - b.centerX, Y: t.Y - b.centerY}
	return d.Clamp(limit)
}

func (b *AnalogStickBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	t, fresh := b.stickTouch()
	if t == nil {
		return
	}
	if fresh {
		b.centerX, b.centerY = t.X, t.Y
	}

	// The center trails the touch, faster once the touch is out of reach.
	pull := cp.Vector{X: t.X - b.centerX, Y: t.Y - b.centerY}
	k := 0.02
	if pull.Length() > maxStickLength {
		k = 0.06
	}
	b.centerX += pull.X * k
	b.centerY += pull.Y * k

	drag := b.drag(t, maxStickLength)
	bodies := b.scene.behaviors.Body
	b.store.EachEnabled(func(a ecs.ActorID, c *AnalogStickComponent) {
		body := bodies.BodyOf(a)
		if !physics.IsDynamic(body) {
			return
		}
		speed := c.Speed * dt
		if c.TurnFriction > 0 {
			v := body.Velocity()
			turn := math.Atan2(v.Y, v.X) - math.Atan2(drag.Y, drag.X) + math.Pi
			turn = turn - math.Floor(turn/(2*math.Pi))*2*math.Pi - math.Pi
			speed *= 1 + c.TurnFriction*math.Abs(turn/math.Pi)
		}
		// A central impulse of drag*speed*mass is a velocity change of drag*speed.
		dv := drag.Mult(speed)
		switch c.Axes {
		case AxesX:
			dv.Y = 0
		case AxesY:
			dv.X = 0
		}
		body.SetVelocityVector(body.Velocity().Add(dv))
	})

	e := b.scene.Engine()
	rb := b.scene.behaviors.Rules
	switch {
	case fresh && !t.Released:
		rules.FireAllEnabled(e, analogStickBeginsTrigger, rules.Extras{}, rb, b)
	case !fresh && t.Released:
		rules.FireAllEnabled(e, analogStickEndsTrigger, rules.Extras{}, rb, b)
	}
}

func (b *AnalogStickBehavior) HandleDrawOverlay(canvas Canvas) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	const maxDraw = 0.8 * maxStickLength
	const touchRadius = 0.38
	for _, t := range b.scene.gesture.Touches() {
		if !t.usedBy(analogStickToken) {
			continue
		}
		d := b.drag(t, maxDraw)
		if d.Length() == 0 {
			continue
		}
		drawHandle(canvas, b.centerX, b.centerY, maxDraw+touchRadius)
		drawHandle(canvas, b.centerX+d.X, b.centerY+d.Y, touchRadius)
	}
}

// SlingComponent launches the actor opposite to a released drag.
type SlingComponent struct {
	ecs.Base
	Speed float64 `prop:"speed"`
}

type SlingBehavior struct {
	base[*SlingComponent]
}

func newSlingBehavior(s *Scene) *SlingBehavior {
	b := &SlingBehavior{}
	b.init(s, "Sling", SlingID, func() *SlingComponent { return &SlingComponent{Speed: 3.5} }, b)
	return b
}

// slingPull is the launch vector of t, from its current position back to where
// it was pressed.
func slingPull(t *TouchState) cp.Vector {
	return cp.Vector{X: t.InitialX - t.X, Y: t.InitialY - t.Y}.Clamp(maxSlingLength)
}

func (b *SlingBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	t := b.scene.gesture.SingleTouch()
	if t == nil || !t.Released || !t.MovedNear || !t.use(slingToken) {
		return
	}
	pull := slingPull(t)
	bodies := b.scene.behaviors.Body
	b.store.EachEnabled(func(a ecs.ActorID, c *SlingComponent) {
		if body := bodies.BodyOf(a); physics.IsDynamic(body) {
			body.SetVelocityVector(pull.Mult(c.Speed))
		}
	})
}

func (b *SlingBehavior) HandleDrawOverlay(canvas Canvas) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	t := b.scene.gesture.SingleTouch()
	if t == nil || t.IsUsed() && !t.usedBy(slingToken) {
		return
	}
	pull := slingPull(t)
	n := pull.Length()
	if n == 0 {
		return
	}
	drawHandle(canvas, t.InitialX, t.InitialY, handleRadius)

	const headLength, headWidth = 0.25, 0.1
	dir := pull.Mult(1 / n)
	end := cp.Vector{X: t.InitialX, Y: t.InitialY}.Add(pull.Mult(0.8))
	neck := end.Sub(dir.Mult(headLength))
	fillSegment(canvas, t.InitialX, t.InitialY, neck.X, neck.Y, overlayWidth, overlayLine)
	side := dir.Perp().Mult(headWidth)
	canvas.FillPolygon([]physics.Point{
		{X: end.X, Y: end.Y},
		{X: neck.X - side.X, Y: neck.Y - side.Y},
		{X: neck.X + side.X, Y: neck.Y + side.Y},
	}, overlayLine)
}

func drawHandle(canvas Canvas, x, y, r float64) {
	canvas.FillCircle(x, y, r, overlayFill)
	canvas.FillCircle(x, y, r*0.2, overlayLine)
}

// fillSegment draws a line as a thin quad.
func fillSegment(canvas Canvas, x1, y1, x2, y2, width float64, c color.Color) {
	d := cp.Vector{X: x2 - x1, Y: y2 - y1}
	n := d.Length()
	if n == 0 {
		return
	}
	o := d.Perp().Mult(width / 2 / n)
	canvas.FillPolygon([]physics.Point{
		{X: x1 - o.X, Y: y1 - o.Y},
		{X: x2 - o.X, Y: y2 - o.Y},
		{X: x2 + o.X, Y: y2 + o.Y},
		{X: x1 + o.X, Y: y1 + o.Y},
	}, c)
}

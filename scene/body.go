package scene

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
)

// BodyComponent places an actor in the physics world. Angle is in degrees.
type BodyComponent struct {
	ecs.Base
	X           float64 `prop:"x"`
	Y           float64 `prop:"y"`
	Angle       float64 `prop:"angle"`
	WidthScale  float64 `prop:"widthScale"`
	HeightScale float64 `prop:"heightScale"`
	Visible     bool    `prop:"visible"`

	fixtures []physics.FixtureDef
	body     *cp.Body

	// contacts counts touching fixture pairs per other actor; overlaps
	// holds the frame each static overlap was last seen.
	contacts map[ecs.ActorID]int
	overlaps map[ecs.ActorID]int
}

// Body returns the physics body, or nil while disabled.
func (c *BodyComponent) Body() *cp.Body { return c.body }

var defaultFixture = physics.FixtureDef{Kind: physics.ShapeBox, Width: 1, Height: 1}

type BodyBehavior struct {
	base[*BodyComponent]
}

func newBodyBehavior(s *Scene) *BodyBehavior {
	b := &BodyBehavior{}
	b.init(s, "Body", BodyID, func() *BodyComponent {
		return &BodyComponent{WidthScale: 1, HeightScale: 1, Visible: true}
	}, b)
	return b
}

// BodyOf returns the actor's physics body, or nil.
func (b *BodyBehavior) BodyOf(a ecs.ActorID) *cp.Body {
	if c := b.Get(a); c != nil {
		return c.body
	}
	return nil
}

func (b *BodyBehavior) transform(a ecs.ActorID) (x, y, angle float64, ok bool) {
	c := b.Get(a)
	if c == nil {
		return 0, 0, 0, false
	}
	if c.body != nil {
		p := c.body.Position()
		return p.X, p.Y, c.body.Angle(), true
	}
	return c.X, c.Y, c.Angle * math.Pi / 180, true
}

// Fixtures returns the actor's fixtures with scale applied.
func (b *BodyBehavior) Fixtures(a ecs.ActorID) []physics.FixtureDef {
	c := b.Get(a)
	if c == nil {
		return nil
	}
	return scaledFixtures(c)
}

func scaledFixtures(c *BodyComponent) []physics.FixtureDef {
	defs := c.fixtures
	if len(defs) == 0 {
		defs = []physics.FixtureDef{defaultFixture}
	}
	sx, sy := c.WidthScale, c.HeightScale
	out := make([]physics.FixtureDef, len(defs))
	for i, d := range defs {
		d.Width *= sx
		d.Height *= sy
		d.Radius *= math.Max(math.Abs(sx), math.Abs(sy))
		if len(d.Points) > 0 {
			pts := make([]physics.Point, len(d.Points))
			for j, p := range d.Points {
				pts[j] = physics.Point{X: p.X * sx, Y: p.Y * sy}
			}
			d.Points = pts
		}
		d.Width, d.Height = math.Abs(d.Width), math.Abs(d.Height)
		out[i] = d
	}
	return out
}

func (b *BodyBehavior) handleReadComponent(a ecs.ActorID, c *BodyComponent, r *serial.Reader) {
	c.fixtures = c.fixtures[:0]
	r.Each("fixtures", func(_ int, f *serial.Reader) {
		def := physics.FixtureDef{
			Kind:   physics.ParseShapeKind(f.Str("shapeType", "box")),
			Width:  f.Num("width", 1),
			Height: f.Num("height", 1),
			Radius: f.Num("radius", 0.5),
		}
		var coords []float64
		f.Each("points", func(_ int, p *serial.Reader) {
			if n, ok := p.AsNumber(); ok {
				coords = append(coords, n)
			}
		})
		for i := 0; i+1 < len(coords); i += 2 {
			def.Points = append(def.Points, physics.Point{X: coords[i], Y: coords[i+1]})
		}
		c.fixtures = append(c.fixtures, def)
	})
}

func (b *BodyBehavior) handleWriteComponent(a ecs.ActorID, c *BodyComponent, w *serial.Writer) {
	if len(c.fixtures) == 0 {
		return
	}
	w.Arr("fixtures", func(arr *serial.Writer) {
		for _, d := range c.fixtures {
			arr.PushObj(func(o *serial.Writer) {
				o.Str("shapeType", d.Kind.String())
				switch d.Kind {
				case physics.ShapeCircle:
					o.Num("radius", d.Radius)
				case physics.ShapePolygon:
					o.Arr("points", func(pts *serial.Writer) {
						for _, p := range d.Points {
							pts.PushNum(p.X)
							pts.PushNum(p.Y)
						}
					})
				default:
					o.Num("width", d.Width)
					o.Num("height", d.Height)
				}
			})
		}
	})
}

func (b *BodyBehavior) handleEnableComponent(a ecs.ActorID, c *BodyComponent) {
	w := b.scene.physics
	c.body = w.CreateBody(a, false, c.X, c.Y, c.Angle*math.Pi/180)
	c.contacts = make(map[ecs.ActorID]int)
	c.overlaps = make(map[ecs.ActorID]int)
	b.rebuildFixtures(a, c)
}

func (b *BodyBehavior) handleDisableComponent(a ecs.ActorID, c *BodyComponent, removeActor bool) {
	if c.body == nil {
		return
	}
	b.sync(c)
	b.scene.physics.DestroyBody(c.body)
	c.body = nil
	c.contacts = nil
	c.overlaps = nil
}

// rebuildFixtures recreates the shapes and lets the motion behaviors
// reapply their settings.
func (b *BodyBehavior) rebuildFixtures(a ecs.ActorID, c *BodyComponent) {
	if c.body == nil {
		return
	}
	w := b.scene.physics
	w.ClearFixtures(c.body)
	for _, d := range scaledFixtures(c) {
		d.Sensor = true
		w.AddFixture(c.body, d)
	}
	b.scene.behaviors.updateFixtures(a, c.body)
	w.UpdateMass(c.body)
}

func (b *BodyBehavior) sync(c *BodyComponent) {
	if c.body == nil {
		return
	}
	p := c.body.Position()
	c.X, c.Y = p.X, p.Y
	c.Angle = c.body.Angle() * 180 / math.Pi
}

func (b *BodyBehavior) handleGetProperty(a ecs.ActorID, c *BodyComponent, prop string) (rules.Value, bool) {
	b.sync(c)
	return rules.Nil, false
}

func (b *BodyBehavior) handleSetProperty(a ecs.ActorID, c *BodyComponent, prop string, v rules.Value, relative bool) bool {
	switch prop {
	case "x", "y", "angle":
		b.sync(c)
		b.props.set(c, prop, v, relative)
		b.scene.physics.SetTransform(c.body, c.X, c.Y, c.Angle*math.Pi/180)
		b.scene.behaviors.Sliding.bodyMoved(a, c.X, c.Y)
		return true
	case "widthScale", "heightScale":
		b.props.set(c, prop, v, relative)
		b.rebuildFixtures(a, c)
		return true
	}
	return false
}

// SetPosition moves the actor's body.
func (b *BodyBehavior) SetPosition(a ecs.ActorID, x, y float64) {
	c := b.Get(a)
	if c == nil {
		return
	}
	c.X, c.Y = x, y
	if c.body != nil {
		b.scene.physics.SetTransform(c.body, x, y, c.body.Angle())
		b.scene.behaviors.Sliding.bodyMoved(a, x, y)
	}
}

func (b *BodyBehavior) isDynamic(a ecs.ActorID) bool {
	return physics.IsDynamic(b.BodyOf(a))
}

func (b *BodyBehavior) HandleBeginPhysicsContact(x, y ecs.ActorID) {
	b.beginContact(x, y)
	b.beginContact(y, x)
}

func (b *BodyBehavior) HandleEndPhysicsContact(x, y ecs.ActorID) {
	b.endContact(x, y)
	b.endContact(y, x)
}

func (b *BodyBehavior) beginContact(a, other ecs.ActorID) {
	c := b.GetEnabled(a)
	if c == nil || c.contacts == nil {
		return
	}
	c.contacts[other]++
	if c.contacts[other] == 1 {
		b.fireCollide(a, other)
	}
}

func (b *BodyBehavior) endContact(a, other ecs.ActorID) {
	c := b.GetEnabled(a)
	if c == nil || c.contacts == nil {
		return
	}
	if n := c.contacts[other]; n > 1 {
		c.contacts[other] = n - 1
	} else {
		delete(c.contacts, other)
	}
}

func (b *BodyBehavior) fireCollide(a, other ecs.ActorID) {
	tags := b.scene.behaviors.Tags
	rules.FireIf(b.scene.Engine(), collideTrigger, a, rules.Extras{Other: other}, func(t *CollideTrigger) bool {
		return tags.HasTag(other, t.Tag)
	})
}

// IsColliding reports whether a touches any actor with tag.
func (b *BodyBehavior) IsColliding(a ecs.ActorID, tag string) bool {
	c := b.GetEnabled(a)
	if c == nil || c.body == nil {
		return false
	}
	tags := b.scene.behaviors.Tags
	for other := range c.contacts {
		if tags.HasTag(other, tag) {
			return true
		}
	}
	found := false
	b.scene.physics.EachOverlap(c.body, func(other ecs.ActorID) {
		if !found && tags.HasTag(other, tag) {
			found = true
		}
	})
	return found
}

func (b *BodyBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	s := b.scene
	e := s.Engine()
	b.store.EachEnabled(func(a ecs.ActorID, c *BodyComponent) {
		b.sync(c)
		if c.body == nil || physics.IsDynamic(c.body) || !rules.HasTrigger(e, collideTrigger, a) {
			return
		}
		b.trackOverlaps(a, c)
	})

	if taps := s.gesture.Taps(); len(taps) > 0 {
		for _, t := range taps {
			for _, a := range s.physics.ActorsAt(t.X, t.Y) {
				if b.IsComponentEnabled(a) {
					rules.Fire(e, tapTrigger, a, rules.Extras{})
				}
			}
		}
	}
}

// trackOverlaps fires collide for non-dynamic pairs, which get no contact
// callbacks.
func (b *BodyBehavior) trackOverlaps(a ecs.ActorID, c *BodyComponent) {
	frame := b.scene.frame
	b.scene.physics.EachOverlap(c.body, func(other ecs.ActorID) {
		if b.isDynamic(other) {
			return
		}
		_, seen := c.overlaps[other]
		c.overlaps[other] = frame
		if !seen {
			b.fireCollide(a, other)
		}
	})
	for other, last := range c.overlaps {
		if last != frame {
			delete(c.overlaps, other)
		}
	}
}

var (
	collideTrigger = rules.NewTriggerKind[CollideTrigger]("collide")
	tapTrigger     = rules.NewTriggerKind[TapTrigger]("tap")
)

// CollideTrigger fires when the actor starts touching an actor with Tag.
type CollideTrigger struct {
	Tag string
}

func (t *CollideTrigger) Fields(f rules.Fields) { f.String("tag", &t.Tag) }

type TapTrigger struct{}

func (*TapTrigger) Fields(rules.Fields) {}

func (b *BodyBehavior) registerRules(c *rules.Catalog) {
	rules.RegisterTrigger(c, collideTrigger, BodyID)
	rules.RegisterTrigger(c, tapTrigger, BodyID)
}

package scene

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/rules"
)

// motion is the shared shape of the behaviors that configure an actor's
// physics body. apply runs whenever the body or its fixtures change while
// the component is enabled; reset undoes it on disable.
type motion[T ecs.Component] struct {
	base[T]
	apply func(a ecs.ActorID, c T, body *cp.Body)
	reset func(a ecs.ActorID, c T, body *cp.Body)
}

func (m *motion[T]) body(a ecs.ActorID) *cp.Body {
	return m.scene.behaviors.Body.BodyOf(a)
}

func (m *motion[T]) reapply(a ecs.ActorID, c T) {
	if !m.IsComponentEnabled(a) {
		return
	}
	if body := m.body(a); body != nil {
		m.apply(a, c, body)
	}
}

func (m *motion[T]) handleEnableComponent(a ecs.ActorID, c T) {
	m.reapply(a, c)
}

func (m *motion[T]) handleDisableComponent(a ecs.ActorID, c T, removeActor bool) {
	if removeActor || m.reset == nil {
		return
	}
	if body := m.body(a); body != nil {
		m.reset(a, c, body)
	}
}

func (m *motion[T]) handleSetProperty(a ecs.ActorID, c T, prop string, v rules.Value, relative bool) bool {
	if !m.props.set(c, prop, v, relative) {
		return false
	}
	m.reapply(a, c)
	return true
}

func (m *motion[T]) HandleUpdateComponentFixtures(a ecs.ActorID, body *cp.Body) {
	if m.IsComponentEnabled(a) {
		m.apply(a, m.Get(a), body)
	}
}

// Solid makes an actor's fixtures collide instead of only overlapping.
type SolidComponent struct {
	ecs.Base
}

type SolidBehavior struct {
	motion[*SolidComponent]
}

func newSolidBehavior(s *Scene) *SolidBehavior {
	b := &SolidBehavior{}
	b.apply = func(_ ecs.ActorID, _ *SolidComponent, body *cp.Body) {
		physics.EachFixture(body, func(shape *cp.Shape) {
			shape.SetSensor(false)
			shape.SetDensity(1)
		})
		s.physics.UpdateMass(body)
	}
	b.reset = func(_ ecs.ActorID, _ *SolidComponent, body *cp.Body) {
		physics.SetSensor(body, true)
	}
	b.init(s, "Solid", SolidID, func() *SolidComponent { return &SolidComponent{} }, b)
	return b
}

type MovingComponent struct {
	ecs.Base
	VX              float64 `prop:"vx"`
	VY              float64 `prop:"vy"`
	AngularVelocity float64 `prop:"angularVelocity"`
	Density         float64 `prop:"density"`

	moving bool
}

// MovingBehavior hands the body to the simulation.
type MovingBehavior struct {
	motion[*MovingComponent]
}

// Below this speed an actor counts as stopped.
const stoppedSpeed = 0.01

func newMovingBehavior(s *Scene) *MovingBehavior {
	b := &MovingBehavior{}
	b.apply = func(_ ecs.ActorID, c *MovingComponent, body *cp.Body) {
		density := c.Density
		if density <= 0 {
			density = 1
		}
		physics.EachFixture(body, func(shape *cp.Shape) {
			if !shape.Sensor() {
				shape.SetDensity(density)
			}
		})
		s.physics.SetDynamic(body, true)
		s.physics.UpdateMass(body)
		body.SetVelocity(c.VX, c.VY)
		body.SetAngularVelocity(c.AngularVelocity * math.Pi / 180)
		c.moving = math.Hypot(c.VX, c.VY) > stoppedSpeed
	}
	b.reset = func(_ ecs.ActorID, c *MovingComponent, body *cp.Body) {
		s.physics.SetDynamic(body, false)
	}
	b.init(s, "Moving", MovingID, func() *MovingComponent { return &MovingComponent{Density: 1} }, b)
	return b
}

func (b *MovingBehavior) sync(a ecs.ActorID, c *MovingComponent) {
	body := b.body(a)
	if body == nil || !physics.IsDynamic(body) {
		return
	}
	v := body.Velocity()
	c.VX, c.VY = v.X, v.Y
	c.AngularVelocity = body.AngularVelocity() * 180 / math.Pi
}

func (b *MovingBehavior) handleGetProperty(a ecs.ActorID, c *MovingComponent, prop string) (rules.Value, bool) {
	b.sync(a, c)
	return rules.Nil, false
}

func (b *MovingBehavior) handleSetProperty(a ecs.ActorID, c *MovingComponent, prop string, v rules.Value, relative bool) bool {
	b.sync(a, c)
	return b.motion.handleSetProperty(a, c, prop, v, relative)
}

func (b *MovingBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	e := b.scene.Engine()
	b.store.EachEnabled(func(a ecs.ActorID, c *MovingComponent) {
		b.sync(a, c)
		if !rules.HasTrigger(e, stopsMovingTrigger, a) {
			return
		}
		moving := math.Hypot(c.VX, c.VY) > stoppedSpeed
		if c.moving && !moving {
			rules.Fire(e, stopsMovingTrigger, a, rules.Extras{})
		}
		c.moving = moving
	})
}

var stopsMovingTrigger = rules.NewTriggerKind[StopsMovingTrigger]("stops moving")

type StopsMovingTrigger struct{}

func (*StopsMovingTrigger) Fields(rules.Fields) {}

func (b *MovingBehavior) registerRules(c *rules.Catalog) {
	rules.RegisterTrigger(c, stopsMovingTrigger, MovingID)
}

// FallingComponent scales the scene gravity for one actor.
type FallingComponent struct {
	ecs.Base
	Gravity float64 `prop:"gravity"`
}

type FallingBehavior struct {
	motion[*FallingComponent]
}

func newFallingBehavior(s *Scene) *FallingBehavior {
	b := &FallingBehavior{}
	b.apply = func(_ ecs.ActorID, c *FallingComponent, body *cp.Body) {
		s.physics.SetBodyGravity(body, 0, c.Gravity*s.gravityY)
	}
	b.reset = func(_ ecs.ActorID, _ *FallingComponent, body *cp.Body) {
		s.physics.ClearBodyGravity(body)
	}
	b.init(s, "Falling", FallingID, func() *FallingComponent { return &FallingComponent{Gravity: 1} }, b)
	return b
}

type BouncyComponent struct {
	ecs.Base
	Bounciness float64 `prop:"bounciness"`
}

type BouncyBehavior struct {
	motion[*BouncyComponent]
}

func newBouncyBehavior(s *Scene) *BouncyBehavior {
	b := &BouncyBehavior{}
	b.apply = func(_ ecs.ActorID, c *BouncyComponent, body *cp.Body) {
		physics.SetElasticity(body, c.Bounciness)
	}
	b.reset = func(_ ecs.ActorID, _ *BouncyComponent, body *cp.Body) {
		physics.SetElasticity(body, 0)
	}
	b.init(s, "Bouncy", BouncyID, func() *BouncyComponent { return &BouncyComponent{Bounciness: 0.8} }, b)
	return b
}

type FrictionComponent struct {
	ecs.Base
	Friction float64 `prop:"friction"`
}

type FrictionBehavior struct {
	motion[*FrictionComponent]
}

func newFrictionBehavior(s *Scene) *FrictionBehavior {
	b := &FrictionBehavior{}
	b.apply = func(_ ecs.ActorID, c *FrictionComponent, body *cp.Body) {
		physics.SetFriction(body, c.Friction)
	}
	b.reset = func(_ ecs.ActorID, _ *FrictionComponent, body *cp.Body) {
		physics.SetFriction(body, 0)
	}
	b.init(s, "Friction", FrictionID, func() *FrictionComponent { return &FrictionComponent{Friction: 0.2} }, b)
	return b
}

// RotatingMotionComponent drives a non-simulated body at a fixed velocity.
type RotatingMotionComponent struct {
	ecs.Base
	VX                 float64 `prop:"vx"`
	VY                 float64 `prop:"vy"`
	RotationsPerSecond float64 `prop:"rotationsPerSecond"`
}

type RotatingMotionBehavior struct {
	motion[*RotatingMotionComponent]
}

func newRotatingMotionBehavior(s *Scene) *RotatingMotionBehavior {
	b := &RotatingMotionBehavior{}
	b.apply = func(_ ecs.ActorID, c *RotatingMotionComponent, body *cp.Body) {
		if physics.IsDynamic(body) {
			return
		}
		body.SetVelocity(c.VX, c.VY)
		body.SetAngularVelocity(c.RotationsPerSecond * 2 * math.Pi)
	}
	b.reset = func(_ ecs.ActorID, _ *RotatingMotionComponent, body *cp.Body) {
		if !physics.IsDynamic(body) {
			body.SetVelocity(0, 0)
			body.SetAngularVelocity(0)
		}
	}
	b.init(s, "RotatingMotion", RotatingMotionID, func() *RotatingMotionComponent {
		return &RotatingMotionComponent{}
	}, b)
	return b
}

// SlowdownComponent damps a simulated body's velocity every frame.
type SlowdownComponent struct {
	ecs.Base
	Damping float64 `prop:"damping"`
}

type SlowdownBehavior struct {
	motion[*SlowdownComponent]
}

func newSlowdownBehavior(s *Scene) *SlowdownBehavior {
	b := &SlowdownBehavior{}
	b.apply = func(ecs.ActorID, *SlowdownComponent, *cp.Body) {}
	b.init(s, "Slowdown", SlowdownID, func() *SlowdownComponent { return &SlowdownComponent{Damping: 0.5} }, b)
	return b
}

func (b *SlowdownBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	b.store.EachEnabled(func(a ecs.ActorID, c *SlowdownComponent) {
		body := b.body(a)
		if !physics.IsDynamic(body) {
			return
		}
		k := math.Exp(-math.Max(c.Damping, 0) * dt)
		body.SetVelocityVector(body.Velocity().Mult(k))
		body.SetAngularVelocity(body.AngularVelocity() * k)
	})
}

type SpeedLimitComponent struct {
	ecs.Base
	MaximumSpeed float64 `prop:"maximumSpeed"`
}

type SpeedLimitBehavior struct {
	motion[*SpeedLimitComponent]
}

func newSpeedLimitBehavior(s *Scene) *SpeedLimitBehavior {
	b := &SpeedLimitBehavior{}
	b.apply = func(ecs.ActorID, *SpeedLimitComponent, *cp.Body) {}
	b.init(s, "SpeedLimit", SpeedLimitID, func() *SpeedLimitComponent {
		return &SpeedLimitComponent{MaximumSpeed: 10}
	}, b)
	return b
}

func (b *SpeedLimitBehavior) HandlePerform(dt float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	b.store.EachEnabled(func(a ecs.ActorID, c *SpeedLimitComponent) {
		body := b.body(a)
		if !physics.IsDynamic(body) {
			return
		}
		if v := body.Velocity(); v.Length() > c.MaximumSpeed {
			body.SetVelocityVector(v.Clamp(math.Max(c.MaximumSpeed, 0)))
		}
	})
}

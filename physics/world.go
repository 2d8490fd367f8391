package physics

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
)

const collisionTypeActor cp.CollisionType = 1

// ContactListener receives one call per shape pair contact transition.
type ContactListener interface {
	BeginContact(a, b ecs.ActorID)
	EndContact(a, b ecs.ActorID)
}

type Options struct {
	Iterations uint
}

// World owns the Chipmunk space and maps shapes back to actors.
type World struct {
	space    *cp.Space
	listener ContactListener

	shapeToActor map[*cp.Shape]ecs.ActorID
	bodyToActor  map[*cp.Body]ecs.ActorID
	fixed        map[*cp.Body]struct{}
}

func NewWorld(opts Options) *World {
	space := cp.NewSpace()
	if opts.Iterations > 0 {
		space.Iterations = opts.Iterations
	}
	// gravity is applied per body by SetBodyGravity
	space.SetGravity(cp.Vector{})

	w := &World{
		space:        space,
		shapeToActor: make(map[*cp.Shape]ecs.ActorID),
		bodyToActor:  make(map[*cp.Body]ecs.ActorID),
		fixed:        make(map[*cp.Body]struct{}),
	}
	w.setupHandlers()
	return w
}

func (w *World) Space() *cp.Space {
	if w == nil {
		return nil
	}
	return w.space
}

func (w *World) SetContactListener(l ContactListener) {
	if w == nil {
		return
	}
	w.listener = l
}

// CreateBody adds a body for actor. Non-dynamic bodies are kinematic with
// zero velocity so they can be moved by property writes and still take part
// in spatial queries.
func (w *World) CreateBody(actor ecs.ActorID, dynamic bool, x, y, angle float64) *cp.Body {
	if w == nil || w.space == nil {
		return nil
	}
	var body *cp.Body
	if dynamic {
		body = cp.NewBody(1, cp.MomentForBox(1, 1, 1))
	} else {
		body = cp.NewKinematicBody()
	}
	body.UserData = actor
	body.SetPosition(cp.Vector{X: x, Y: y})
	body.SetAngle(angleOrZero(angle))
	w.space.AddBody(body)
	w.bodyToActor[body] = actor
	return body
}

func (w *World) DestroyBody(body *cp.Body) {
	if w == nil || w.space == nil || body == nil {
		return
	}
	w.removeConstraints(body)
	w.ClearFixtures(body)
	w.space.RemoveBody(body)
	delete(w.bodyToActor, body)
	delete(w.fixed, body)
}

// SetDynamic switches a body between dynamic and kinematic simulation.
func (w *World) SetDynamic(body *cp.Body, dynamic bool) {
	if body == nil {
		return
	}
	if dynamic {
		if body.GetType() != cp.BODY_DYNAMIC {
			body.SetType(cp.BODY_DYNAMIC)
			w.UpdateMass(body)
		}
		return
	}
	if body.GetType() != cp.BODY_KINEMATIC {
		// joints between two unsimulated bodies cannot be solved
		w.removeConstraints(body)
		body.SetType(cp.BODY_KINEMATIC)
		body.SetVelocity(0, 0)
		body.SetAngularVelocity(0)
	}
}

// SetTransform moves body and refreshes its cached shape bounds.
func (w *World) SetTransform(body *cp.Body, x, y, angle float64) {
	if body == nil {
		return
	}
	body.SetTransform(cp.Vector{X: x, Y: y}, angleOrZero(angle))
	body.EachShape(func(s *cp.Shape) { s.CacheBB() })
	body.Activate()
}

func IsDynamic(body *cp.Body) bool {
	return body != nil && body.GetType() == cp.BODY_DYNAMIC
}

// UpdateMass keeps a dynamic body simulable when it has no massive fixtures.
// Bodies with fixed rotation keep an infinite moment.
func (w *World) UpdateMass(body *cp.Body) {
	if body == nil || body.GetType() != cp.BODY_DYNAMIC {
		return
	}
	body.AccumulateMassFromShapes()
	if m := body.Mass(); m <= 0 || math.IsInf(m, 0) {
		body.SetMass(1)
		body.SetMoment(cp.MomentForBox(1, 1, 1))
	}
	if _, ok := w.fixed[body]; ok {
		body.SetMoment(math.Inf(1))
	}
}

// SetBodyGravity installs a per-body gravity vector.
func (w *World) SetBodyGravity(body *cp.Body, gx, gy float64) {
	if body == nil {
		return
	}
	g := cp.Vector{X: gx, Y: gy}
	body.SetVelocityUpdateFunc(func(b *cp.Body, _ cp.Vector, damping float64, dt float64) {
		cp.BodyUpdateVelocity(b, g, damping, dt)
	})
}

func (w *World) ClearBodyGravity(body *cp.Body) {
	if body == nil {
		return
	}
	body.SetVelocityUpdateFunc(cp.BodyUpdateVelocity)
}

// ActorForBody returns the actor that owns body, or NullActor.
func (w *World) ActorForBody(body *cp.Body) ecs.ActorID {
	if w == nil || body == nil {
		return ecs.NullActor
	}
	return w.bodyToActor[body]
}

func (w *World) ActorForShape(shape *cp.Shape) ecs.ActorID {
	if w == nil || shape == nil {
		return ecs.NullActor
	}
	return w.shapeToActor[shape]
}

// Step advances the simulation by dt.
func (w *World) Step(dt float64) {
	if w == nil || w.space == nil || dt <= 0 {
		return
	}
	w.space.Step(dt)
}

// ActorsAt returns actors whose fixtures contain the point, without duplicates.
func (w *World) ActorsAt(x, y float64) []ecs.ActorID {
	if w == nil || w.space == nil {
		return nil
	}
	p := cp.Vector{X: x, Y: y}
	var out []ecs.ActorID
	seen := make(map[ecs.ActorID]struct{})
	w.space.BBQuery(cp.NewBBForCircle(p, 0.01), cp.SHAPE_FILTER_ALL, func(shape *cp.Shape, _ interface{}) {
		if shape.PointQuery(p).Distance > 0 {
			return
		}
		a := w.shapeToActor[shape]
		if !a.Valid() {
			return
		}
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}, nil)
	return out
}

// EachOverlap reports every other actor currently overlapping one of body's
// fixtures. It works for any pair of body types.
func (w *World) EachOverlap(body *cp.Body, fn func(other ecs.ActorID)) {
	if w == nil || w.space == nil || body == nil || fn == nil {
		return
	}
	self := w.bodyToActor[body]
	body.EachShape(func(shape *cp.Shape) {
		w.space.ShapeQuery(shape, func(other *cp.Shape, _ *cp.ContactPointSet) {
			a := w.shapeToActor[other]
			if a.Valid() && a != self {
				fn(a)
			}
		})
	})
}

// EachContact visits actors touching body through active arbiters.
func (w *World) EachContact(body *cp.Body, fn func(other ecs.ActorID)) {
	if w == nil || body == nil || fn == nil {
		return
	}
	body.EachArbiter(func(arb *cp.Arbiter) {
		a, b := arb.Bodies()
		other := b
		if other == body {
			other = a
		}
		if id := w.bodyToActor[other]; id.Valid() {
			fn(id)
		}
	})
}

func (w *World) setupHandlers() {
	handler := w.space.NewCollisionHandler(collisionTypeActor, collisionTypeActor)
	handler.UserData = w
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil || world.listener == nil {
			return true
		}
		a, b := world.arbiterActors(arb)
		if a.Valid() && b.Valid() && a != b {
			world.listener.BeginContact(a, b)
		}
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) {
		world, ok := userData.(*World)
		if !ok || world == nil || world.listener == nil {
			return
		}
		a, b := world.arbiterActors(arb)
		if a.Valid() && b.Valid() && a != b {
			world.listener.EndContact(a, b)
		}
	}
}

func (w *World) arbiterActors(arb *cp.Arbiter) (ecs.ActorID, ecs.ActorID) {
	sa, sb := arb.Shapes()
	return w.shapeToActor[sa], w.shapeToActor[sb]
}

func angleOrZero(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		logger.Log.WithField("angle", a).Debug("physics: non-finite angle replaced with 0")
		return 0
	}
	return a
}

package physics

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
)

type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
	ShapePolygon
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapePolygon:
		return "polygon"
	default:
		return "box"
	}
}

func ParseShapeKind(s string) ShapeKind {
	switch s {
	case "circle":
		return ShapeCircle
	case "polygon":
		return ShapePolygon
	default:
		return ShapeBox
	}
}

type Point struct {
	X, Y float64
}

// FixtureDef describes one collision shape in body local space.
type FixtureDef struct {
	Kind       ShapeKind
	Width      float64
	Height     float64
	Radius     float64
	Points     []Point
	Sensor     bool
	Friction   float64
	Elasticity float64
}

// Points closer than this are merged before building a polygon.
const vertexWeldDistance = 0.0025

// DistinctPoints returns the polygon vertices with near duplicates removed.
func DistinctPoints(points []Point) []cp.Vector {
	out := make([]cp.Vector, 0, len(points))
	for _, p := range points {
		v := cp.Vector{X: p.X, Y: p.Y}
		dup := false
		for _, u := range out {
			if u.DistanceSq(v) < vertexWeldDistance*vertexWeldDistance {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// AddFixture attaches a shape to body. Degenerate shapes are skipped and
// reported with ok=false.
func (w *World) AddFixture(body *cp.Body, def FixtureDef) (shape *cp.Shape, ok bool) {
	if w == nil || w.space == nil || body == nil {
		return nil, false
	}
	actor := w.bodyToActor[body]
	switch def.Kind {
	case ShapeCircle:
		if def.Radius <= 0 {
			return nil, w.skip(actor, def)
		}
		shape = cp.NewCircle(body, def.Radius, cp.Vector{})
	case ShapePolygon:
		verts := DistinctPoints(def.Points)
		if len(verts) < 3 {
			return nil, w.skip(actor, def)
		}
		if math.Abs(cp.AreaForPoly(len(verts), verts, 0)) < vertexWeldDistance*vertexWeldDistance {
			return nil, w.skip(actor, def)
		}
		shape = cp.NewPolyShape(body, len(verts), verts, cp.NewTransformIdentity(), 0)
	default:
		if def.Width <= 0 || def.Height <= 0 {
			return nil, w.skip(actor, def)
		}
		shape = cp.NewBox(body, def.Width, def.Height, 0)
	}
	shape.UserData = actor
	shape.SetSensor(def.Sensor)
	shape.SetFriction(def.Friction)
	shape.SetElasticity(def.Elasticity)
	shape.SetCollisionType(collisionTypeActor)
	if !def.Sensor {
		shape.SetDensity(1)
	}
	w.space.AddShape(shape)
	w.shapeToActor[shape] = actor
	return shape, true
}

func (w *World) skip(actor ecs.ActorID, def FixtureDef) bool {
	logger.Log.WithFields(map[string]interface{}{
		"actor": actor,
		"shape": def.Kind.String(),
	}).Debug("physics: degenerate fixture skipped")
	return false
}

// ClearFixtures removes every shape attached to body.
func (w *World) ClearFixtures(body *cp.Body) {
	if w == nil || w.space == nil || body == nil {
		return
	}
	var shapes []*cp.Shape
	body.EachShape(func(s *cp.Shape) { shapes = append(shapes, s) })
	for _, s := range shapes {
		w.space.RemoveShape(s)
		delete(w.shapeToActor, s)
	}
}

// EachFixture visits body's shapes.
func EachFixture(body *cp.Body, fn func(*cp.Shape)) {
	if body == nil || fn == nil {
		return
	}
	body.EachShape(fn)
}

// SetFriction updates every fixture on body.
func SetFriction(body *cp.Body, friction float64) {
	EachFixture(body, func(s *cp.Shape) { s.SetFriction(friction) })
}

func SetElasticity(body *cp.Body, elasticity float64) {
	EachFixture(body, func(s *cp.Shape) { s.SetElasticity(elasticity) })
}

func SetSensor(body *cp.Body, sensor bool) {
	EachFixture(body, func(s *cp.Shape) { s.SetSensor(sensor) })
}

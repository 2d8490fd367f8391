package render

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
)

// DebugDraw outlines every physics shape over the last frame.
func (c *Canvas) DebugDraw(space *cp.Space) {
	if c == nil || c.dst == nil || space == nil {
		return
	}
	cp.DrawSpace(space, &debugDrawer{c: c})
}

type debugDrawer struct {
	c *Canvas
}

func (d *debugDrawer) line(a, b cp.Vector, clr color.Color) {
	ax, ay := d.c.toScreen(a.X, a.Y)
	bx, by := d.c.toScreen(b.X, b.Y)
	vector.StrokeLine(d.c.dst, ax, ay, bx, by, 1, clr, true)
}

func (d *debugDrawer) DrawCircle(pos cp.Vector, angle, radius float64, outline, fill cp.FColor, data interface{}) {
	clr := toRGBA(outline)
	const steps = 20
	prev := cp.Vector{X: pos.X + radius, Y: pos.Y}
	for i := 1; i <= steps; i++ {
		th := float64(i) * (2 * math.Pi / steps)
		cur := cp.Vector{X: pos.X + math.Cos(th)*radius, Y: pos.Y + math.Sin(th)*radius}
		d.line(prev, cur, clr)
		prev = cur
	}
	d.line(pos, cp.Vector{X: pos.X + math.Cos(angle)*radius, Y: pos.Y + math.Sin(angle)*radius}, clr)
}

func (d *debugDrawer) DrawSegment(a, b cp.Vector, fill cp.FColor, data interface{}) {
	d.line(a, b, toRGBA(fill))
}

func (d *debugDrawer) DrawFatSegment(a, b cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	d.line(a, b, toRGBA(outline))
}

func (d *debugDrawer) DrawPolygon(count int, verts []cp.Vector, radius float64, outline, fill cp.FColor, data interface{}) {
	clr := toRGBA(fill)
	for i := 0; i < count; i++ {
		d.line(verts[i], verts[(i+1)%count], clr)
	}
}

func (d *debugDrawer) DrawDot(size float64, pos cp.Vector, fill cp.FColor, data interface{}) {
	x, y := d.c.toScreen(pos.X, pos.Y)
	vector.FillCircle(d.c.dst, x, y, float32(size/2), toRGBA(fill), false)
}

func (d *debugDrawer) Flags() uint { return cp.DRAW_SHAPES | cp.DRAW_COLLISION_POINTS }

func (d *debugDrawer) OutlineColor() cp.FColor {
	return cp.FColor{R: 0.2, G: 1, B: 0.2, A: 1}
}

// ShapeColor tells sensors, kinematic and dynamic bodies apart.
func (d *debugDrawer) ShapeColor(shape *cp.Shape, data interface{}) cp.FColor {
	switch {
	case shape == nil:
		return cp.FColor{R: 1, G: 1, B: 1, A: 1}
	case shape.Sensor():
		return cp.FColor{R: 1, G: 0.85, B: 0.2, A: 1}
	case shape.Body() != nil && shape.Body().GetType() == cp.BODY_DYNAMIC:
		return cp.FColor{R: 0.9, G: 0.4, B: 0.9, A: 1}
	}
	return cp.FColor{R: 0.4, G: 0.7, B: 1, A: 1}
}

func (d *debugDrawer) ConstraintColor() cp.FColor {
	return cp.FColor{R: 0.7, G: 0.7, B: 0.7, A: 1}
}

func (d *debugDrawer) CollisionPointColor() cp.FColor {
	return cp.FColor{R: 1, G: 0.1, B: 0.1, A: 1}
}

func (d *debugDrawer) Data() interface{} { return nil }

func toRGBA(c cp.FColor) color.RGBA {
	clamp := func(v float32) uint8 {
		return uint8(math.Max(0, math.Min(1, float64(v))) * 255)
	}
	return color.RGBA{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}

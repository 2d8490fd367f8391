package scene

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
	"golang.org/x/image/colornames"
)

// DrawingComponent fills the actor's body fixtures with one color.
type DrawingComponent struct {
	ecs.Base
	FillColor string `prop:"fillColor"`

	fill color.Color
}

type DrawingBehavior struct {
	base[*DrawingComponent]
}

const defaultFillColor = "#808080"

func newDrawingBehavior(s *Scene) *DrawingBehavior {
	b := &DrawingBehavior{}
	b.init(s, "Drawing", DrawingID, func() *DrawingComponent {
		return &DrawingComponent{FillColor: defaultFillColor, fill: color.RGBA{0x80, 0x80, 0x80, 0xff}}
	}, b)
	return b
}

// ParseColor reads "#rgb", "#rrggbb", "#rrggbbaa" or a CSS color name.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return nil, fmt.Errorf("scene: unknown color %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	c := color.RGBA{A: 0xff}
	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("scene: bad color %q", s)
	}
	if err != nil {
		return nil, fmt.Errorf("scene: parse color %q: %w", s, err)
	}
	return c, nil
}

func (b *DrawingBehavior) setFill(a ecs.ActorID, c *DrawingComponent) {
	fill, err := ParseColor(c.FillColor)
	if err != nil {
		b.log(a).WithError(err).Debug("drawing: keeping previous color")
		return
	}
	c.fill = fill
}

func (b *DrawingBehavior) handleReadComponent(a ecs.ActorID, c *DrawingComponent, r *serial.Reader) {
	b.setFill(a, c)
}

func (b *DrawingBehavior) handleSetProperty(a ecs.ActorID, c *DrawingComponent, prop string, v rules.Value, relative bool) bool {
	if prop != "fillColor" {
		return false
	}
	c.FillColor = v.AsString()
	b.setFill(a, c)
	return true
}

func (b *DrawingBehavior) HandleDrawComponent(a ecs.ActorID, canvas Canvas) {
	c := b.GetEnabled(a)
	if c == nil {
		return
	}
	body := b.scene.behaviors.Body
	bc := body.GetEnabled(a)
	if bc == nil || !bc.Visible {
		return
	}
	x, y, angle, _ := body.transform(a)
	sin, cos := math.Sincos(angle)
	place := func(p physics.Point) physics.Point {
		return physics.Point{X: x + p.X*cos - p.Y*sin, Y: y + p.X*sin + p.Y*cos}
	}
	for _, d := range body.Fixtures(a) {
		switch d.Kind {
		case physics.ShapeCircle:
			canvas.FillCircle(x, y, d.Radius, c.fill)
		case physics.ShapePolygon:
			pts := make([]physics.Point, len(d.Points))
			for i, p := range d.Points {
				pts[i] = place(p)
			}
			canvas.FillPolygon(pts, c.fill)
		default:
			hw, hh := d.Width/2, d.Height/2
			canvas.FillPolygon([]physics.Point{
				place(physics.Point{X: -hw, Y: -hh}),
				place(physics.Point{X: hw, Y: -hh}),
				place(physics.Point{X: hw, Y: hh}),
				place(physics.Point{X: -hw, Y: hh}),
			}, c.fill)
		}
	}
}

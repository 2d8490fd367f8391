// Package render draws scenes onto ebiten images.
package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"

	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/scene"
)

// Canvas implements scene.Canvas over an ebiten image.
type Canvas struct {
	dst  *ebiten.Image
	cam  scene.Camera
	face ebtext.Face

	Background color.Color
}

var _ scene.Canvas = (*Canvas)(nil)

func NewCanvas() *Canvas {
	return &Canvas{
		face:       ebtext.NewGoXFace(basicfont.Face7x13),
		Background: colornames.Black,
	}
}

// Begin targets dst for the next frame and clears it.
func (c *Canvas) Begin(dst *ebiten.Image) {
	c.dst = dst
	if dst != nil {
		dst.Fill(c.Background)
	}
}

func (c *Canvas) SetView(cam scene.Camera) { c.cam = cam }

func (c *Canvas) Size() (int, int) {
	if c.dst == nil {
		return 0, 0
	}
	b := c.dst.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Canvas) toScreen(x, y float64) (float32, float32) {
	w, h := c.Size()
	sx, sy := c.cam.WorldToScreen(x, y, w, h)
	return float32(sx), float32(sy)
}

func (c *Canvas) scale() float64 {
	w, _ := c.Size()
	if c.cam.ViewWidth <= 0 {
		return 0
	}
	return float64(w) / c.cam.ViewWidth
}

func (c *Canvas) FillPolygon(points []physics.Point, fill color.Color) {
	if c.dst == nil || len(points) < 3 {
		return
	}
	var path vector.Path
	for i, p := range points {
		x, y := c.toScreen(p.X, p.Y)
		if i == 0 {
			path.MoveTo(x, y)
			continue
		}
		path.LineTo(x, y)
	}
	path.Close()

	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(fill)
	vector.FillPath(c.dst, &path, &vector.FillOptions{}, op)
}

func (c *Canvas) FillCircle(x, y, radius float64, fill color.Color) {
	if c.dst == nil || radius <= 0 {
		return
	}
	sx, sy := c.toScreen(x, y)
	vector.FillCircle(c.dst, sx, sy, float32(radius*c.scale()), fill, true)
}

// DrawText draws s with its top-left corner at screen pixel (x, y).
func (c *Canvas) DrawText(s string, x, y float64, col color.Color) {
	if c.dst == nil || s == "" {
		return
	}
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(col)
	ebtext.Draw(c.dst, s, c.face, op)
}

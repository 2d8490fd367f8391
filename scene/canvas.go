package scene

import (
	"image/color"

	"github.com/milk9111/rulesplayer/physics"
)

// Canvas is the drawing surface a frame is rendered to. World coordinates
// are mapped through the view set with SetView; text is in screen pixels.
type Canvas interface {
	SetView(cam Camera)
	FillPolygon(points []physics.Point, fill color.Color)
	FillCircle(x, y, radius float64, fill color.Color)
	DrawText(s string, x, y float64, c color.Color)
	Size() (width, height int)
}

// Camera is the visible region of the scene.
type Camera struct {
	X, Y      float64
	ViewWidth float64
}

const defaultViewWidth = 10

// ScreenToWorld maps a pixel on a width x height screen into the scene.
func (c Camera) ScreenToWorld(sx, sy float64, width, height int) (float64, float64) {
	if width <= 0 {
		return c.X, c.Y
	}
	scale := c.ViewWidth / float64(width)
	return c.X + (sx-float64(width)/2)*scale, c.Y + (sy-float64(height)/2)*scale
}

// WorldToScreen is the inverse of ScreenToWorld.
func (c Camera) WorldToScreen(x, y float64, width, height int) (float64, float64) {
	if c.ViewWidth <= 0 {
		return 0, 0
	}
	scale := float64(width) / c.ViewWidth
	return (x-c.X)*scale + float64(width)/2, (y-c.Y)*scale + float64(height)/2
}

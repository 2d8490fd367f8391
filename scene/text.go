package scene

import (
	"image/color"
	"sort"

	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/rules"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

type textRect struct {
	x, y, w, h float64
	valid      bool
}

func (r textRect) contains(x, y float64) bool {
	return r.valid && x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// TextComponent shows a line of text. Content may reference variables as
// $name.
type TextComponent struct {
	ecs.Base
	Content        string `prop:"content"`
	Visible        bool   `prop:"visible"`
	Order          int    `prop:"order"`
	AnchorToCamera bool   `prop:"anchorToCamera"`

	rect textRect
}

type TextBehavior struct {
	base[*TextComponent]
}

var textFace = basicfont.Face7x13

const textMargin = 8

func newTextBehavior(s *Scene) *TextBehavior {
	b := &TextBehavior{}
	b.init(s, "Text", TextID, func() *TextComponent { return &TextComponent{Visible: true, Order: -1} }, b)
	return b
}

func (b *TextBehavior) handleEnableComponent(a ecs.ActorID, c *TextComponent) {
	if c.Order >= 0 {
		return
	}
	next := 0
	b.store.EachEnabled(func(other ecs.ActorID, oc *TextComponent) {
		if other != a && oc.Order >= next {
			next = oc.Order + 1
		}
	})
	c.Order = next
}

func (b *TextBehavior) handleDisableComponent(a ecs.ActorID, c *TextComponent, removeActor bool) {
	c.rect = textRect{}
}

// FormattedContent is the text as it is drawn.
func (b *TextBehavior) FormattedContent(a ecs.ActorID) string {
	c := b.Get(a)
	if c == nil {
		return ""
	}
	return b.scene.variables.Format(c.Content)
}

// MeasureText returns the pixel size of s in the text face.
func MeasureText(s string) (w, h float64) {
	adv := font.MeasureString(textFace, s)
	return float64(adv.Ceil()), float64(textFace.Metrics().Height.Ceil())
}

func (b *TextBehavior) SetVisible(a ecs.ActorID, visible bool) {
	if c := b.Get(a); c != nil {
		c.Visible = visible
		if !visible {
			c.rect = textRect{}
		}
	}
}

// HandleUpdateCamera keeps camera anchored text fixed on screen.
func (b *TextBehavior) HandleUpdateCamera(dx, dy float64) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	body := b.scene.behaviors.Body
	b.store.EachEnabled(func(a ecs.ActorID, c *TextComponent) {
		if !c.AnchorToCamera {
			return
		}
		if x, y, _, ok := body.transform(a); ok {
			body.SetPosition(a, x+dx, y+dy)
		}
	})
}

func (b *TextBehavior) HandlePerform(dt float64) {
	taps := b.scene.gesture.Taps()
	if len(taps) == 0 || !b.HasAnyEnabledComponent() {
		return
	}
	e := b.scene.Engine()
	for _, t := range taps {
		b.store.EachEnabled(func(a ecs.ActorID, c *TextComponent) {
			if c.Visible && c.rect.contains(t.ScreenX, t.ScreenY) {
				rules.Fire(e, textTapTrigger, a, rules.Extras{})
			}
		})
	}
}

// HandleDrawComponent draws text at its body, or stacked along the bottom of
// the screen by order when the actor has no body.
func (b *TextBehavior) HandleDrawComponent(a ecs.ActorID, canvas Canvas) {
	c := b.GetEnabled(a)
	if c == nil || !c.Visible {
		return
	}
	s := b.FormattedContent(a)
	w, h := MeasureText(s)
	sw, sh := canvas.Size()

	var x, y float64
	if wx, wy, _, ok := b.scene.behaviors.Body.transform(a); ok {
		x, y = b.scene.camera.WorldToScreen(wx, wy, sw, sh)
		x -= w / 2
		y -= h / 2
	} else {
		x = textMargin
		y = float64(sh) - textMargin - h*float64(b.stackIndex(a)+1)
	}
	c.rect = textRect{x: x, y: y, w: w, h: h, valid: true}
	canvas.DrawText(s, x, y, color.White)
}

// stackIndex counts the visible bodiless texts drawn below a.
func (b *TextBehavior) stackIndex(a ecs.ActorID) int {
	body := b.scene.behaviors.Body
	type entry struct {
		actor ecs.ActorID
		order int
	}
	var list []entry
	b.store.EachEnabled(func(other ecs.ActorID, oc *TextComponent) {
		if oc.Visible && !body.HasComponent(other) {
			list = append(list, entry{other, oc.Order})
		}
	})
	sort.SliceStable(list, func(i, j int) bool { return list[i].order > list[j].order })
	for i, e := range list {
		if e.actor == a {
			return i
		}
	}
	return 0
}

var textTapTrigger = rules.NewTriggerKind[TextTapTrigger]("tap")

type TextTapTrigger struct{}

func (*TextTapTrigger) Fields(rules.Fields) {}

type ShowResponse struct {
	rules.BaseResponse
	b    *TextBehavior
	show bool
}

func (r *ShowResponse) Fields(rules.Fields) {}

func (r *ShowResponse) Run(ctx *rules.Context) { r.b.SetVisible(ctx.ActorID, r.show) }

// SendPlayerToCardResponse asks the host to leave for another card.
type SendPlayerToCardResponse struct {
	rules.BaseResponse
	b *TextBehavior

	CardID    string
	CardTitle string
}

func (r *SendPlayerToCardResponse) Fields(f rules.Fields) {
	f.String("cardId", &r.CardID)
	f.String("cardTitle", &r.CardTitle)
}

func (r *SendPlayerToCardResponse) Run(*rules.Context) {
	r.b.scene.RequestTransition(Transition{CardID: r.CardID, Title: r.CardTitle})
}

func (b *TextBehavior) registerRules(c *rules.Catalog) {
	rules.RegisterTrigger(c, textTapTrigger, TextID)
	c.RegisterResponse("show", TextID, func() rules.Response { return &ShowResponse{b: b, show: true} })
	c.RegisterResponse("hide", TextID, func() rules.Response { return &ShowResponse{b: b} })
	c.RegisterResponse("send player to card", TextID, func() rules.Response { return &SendPlayerToCardResponse{b: b} })
}

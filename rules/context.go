package rules

import (
	"math/rand"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/ecs"
)

type repeatFrame struct {
	ref       ResponseRef
	remaining int
	done      int
	start     float64
}

type actOnFrame struct {
	ref      ResponseRef
	tag      string
	target   ecs.ActorID // single-target forms
	index    int
	returnTo ecs.ActorID
}

// Context is one running chain of responses. It is owned by exactly one
// execution site at a time: the trampoline in Run, or the scheduler after
// Suspend.
type Context struct {
	ActorID ecs.ActorID
	Extras  Extras

	engine *Engine
	next   ResponseRef

	lastX, lastY, lastAngle float64

	repeats []repeatFrame
	actOns  []actOnFrame
}

func (c *Context) Engine() *Engine { return c.engine }
func (c *Context) Host() Host      { return c.engine.host }

func (c *Context) Clock() *clock.Clock { return c.engine.host.Clock() }
func (c *Context) Rand() *rand.Rand    { return c.engine.host.Rand() }

// Next is the response the trampoline runs after the current one.
func (c *Context) Next() ResponseRef { return c.next }

// SetNext redirects the chain. Responses call it from Run to jump.
func (c *Context) SetNext(r ResponseRef) { c.next = r }

// Transform returns the acting actor's position and angle, or the last one
// seen if the actor no longer has a body.
func (c *Context) Transform() (x, y, angle float64) {
	if x, y, angle, ok := c.engine.host.ActorTransform(c.ActorID); ok {
		c.lastX, c.lastY, c.lastAngle = x, y, angle
	}
	return c.lastX, c.lastY, c.lastAngle
}

// Run executes responses until the chain ends or suspends.
func (c *Context) Run() {
	for c.next.Valid() {
		cur := c.engine.Response(c.next)
		if cur == nil {
			c.next = NoResponse
			return
		}
		c.next = cur.base().next
		cur.Run(c)
	}
}

// Suspend detaches the chain from c and returns it. c stops after the
// current response.
func (c *Context) Suspend() *Context {
	moved := *c
	c.next = NoResponse
	c.repeats = nil
	c.actOns = nil
	return &moved
}

func (c *Context) topRepeat(self ResponseRef) *repeatFrame {
	if n := len(c.repeats); n > 0 && c.repeats[n-1].ref == self {
		return &c.repeats[n-1]
	}
	return nil
}

func (c *Context) popRepeat() {
	c.repeats = c.repeats[:len(c.repeats)-1]
}

func (c *Context) topActOn(self ResponseRef) *actOnFrame {
	if n := len(c.actOns); n > 0 && c.actOns[n-1].ref == self {
		return &c.actOns[n-1]
	}
	return nil
}

// popActOn restores the actor that entered the block.
func (c *Context) popActOn() {
	top := c.actOns[len(c.actOns)-1]
	c.actOns = c.actOns[:len(c.actOns)-1]
	c.ActorID = top.returnTo
}

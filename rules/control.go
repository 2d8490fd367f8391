package rules

import (
	"math"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
)

// MaxRepeats caps the count of a bounded repeat.
const MaxRepeats = 5000

const (
	IntervalSeconds = "seconds"
	IntervalBeats   = "beats"
)

// interval is the shared timing parameter block of wait and infinite
// repeat.
type interval struct {
	IntervalType  string
	Quantize      bool
	QuantizeUnits string
}

func defaultInterval() interval {
	return interval{IntervalType: IntervalSeconds, QuantizeUnits: "beat"}
}

func (iv *interval) fields(f Fields) {
	f.String("intervalType", &iv.IntervalType)
	f.Bool("quantize", &iv.Quantize)
	f.String("quantizeUnits", &iv.QuantizeUnits)
}

func (iv *interval) musical() bool { return iv.IntervalType == IntervalBeats }

func (iv *interval) unit() clock.Unit {
	u, _ := clock.ParseUnit(iv.QuantizeUnits)
	if !iv.Quantize {
		return clock.Beat
	}
	return u
}

// steps converts a beat interval into clock steps. Quantized intervals are
// whole multiples of the quantize unit.
func (iv *interval) steps(c *clock.Clock, d float64) float64 {
	if !iv.Quantize {
		return d * float64(c.StepsPerBeat())
	}
	return float64(quantizeCount(d)) * c.UnitSteps(iv.unit())
}

func quantizeCount(d float64) int {
	return max(1, int(math.Round(d)))
}

// Wait suspends the chain for a duration in seconds or beats.
type Wait struct {
	BaseResponse
	interval
	Duration ExprRef
}

func NewWait() Response {
	return &Wait{interval: defaultInterval(), Duration: Const(1)}
}

func (w *Wait) Fields(f Fields) {
	f.Expr("duration", &w.Duration)
	w.interval.fields(f)
}

func (w *Wait) Run(ctx *Context) {
	if !ctx.next.Valid() {
		return
	}
	d := w.Duration.Number(ctx)
	e := ctx.engine
	if w.musical() {
		c := ctx.Clock()
		steps := d * float64(c.StepsPerBeat())
		if w.Quantize {
			steps = c.TimeUntilNext(w.unit(), quantizeCount(d), true)
		}
		e.ScheduleAtClock(ctx.Suspend(), c.Time()+steps)
		return
	}
	e.ScheduleAt(ctx.Suspend(), e.host.PerformTime()+d)
}

type If struct {
	BaseResponse
	Condition CondRef
	Then      ResponseRef
	Else      ResponseRef
}

func NewIf() Response { return &If{} }

func (r *If) Fields(f Fields) {
	f.Condition("condition", &r.Condition)
	f.Response("then", &r.Then)
	f.Response("else", &r.Else)
}

func (r *If) Run(ctx *Context) {
	branch := r.Else
	if r.Condition.Eval(ctx) {
		branch = r.Then
	}
	if branch.Valid() {
		ctx.SetNext(branch)
	}
}

func (r *If) linearizeChildren(e *Engine, _, next ResponseRef) {
	e.linearize(r.Then, next)
	e.linearize(r.Else, next)
}

// Repeat runs its body a bounded number of times.
type Repeat struct {
	BaseResponse
	Count ExprRef
	Body  ResponseRef
}

func NewRepeat() Response { return &Repeat{Count: Const(1)} }

func (r *Repeat) Fields(f Fields) {
	f.Expr("count", &r.Count)
	f.Response("body", &r.Body)
}

func (r *Repeat) Run(ctx *Context) {
	top := ctx.topRepeat(r.self)
	if top == nil {
		n := repeatCount(r.Count.Number(ctx))
		if n <= 0 || !r.Body.Valid() {
			return
		}
		ctx.repeats = append(ctx.repeats, repeatFrame{ref: r.self, remaining: n - 1})
		ctx.SetNext(r.Body)
		return
	}
	if top.remaining > 0 && ctx.engine.host.HasActor(ctx.ActorID) {
		top.remaining--
		top.done++
		ctx.SetNext(r.Body)
		return
	}
	ctx.popRepeat()
}

// repeatCount clamps c before converting it, so huge and infinite counts
// run MaxRepeats times.
func repeatCount(c float64) int {
	if math.IsNaN(c) {
		return 0
	}
	return int(math.Max(math.Min(c, MaxRepeats), 0))
}

func (r *Repeat) linearizeChildren(e *Engine, self, _ ResponseRef) {
	e.linearize(r.Body, self)
}

const (
	repeatStop = iota
	repeatWait
	repeatRun
)

// InfiniteRepeat runs its body every interval until stopped. Each wake-up
// is anchored to the time the loop started.
type InfiniteRepeat struct {
	BaseResponse
	interval
	Interval ExprRef
	Body     ResponseRef
}

func NewInfiniteRepeat() Response {
	return &InfiniteRepeat{interval: defaultInterval(), Interval: Const(1)}
}

func (r *InfiniteRepeat) Fields(f Fields) {
	f.Expr("interval", &r.Interval)
	r.interval.fields(f)
	f.Response("body", &r.Body)
}

func (r *InfiniteRepeat) now(ctx *Context) float64 {
	if !r.musical() {
		return ctx.engine.host.PerformTime()
	}
	c := ctx.Clock()
	t := c.Time()
	if r.Quantize {
		size := c.UnitSteps(r.unit())
		t = math.Floor(t/size) * size
	}
	return t
}

func (r *InfiniteRepeat) Run(ctx *Context) {
	top := ctx.topRepeat(r.self)
	if top == nil {
		if !r.Body.Valid() {
			return
		}
		ctx.repeats = append(ctx.repeats, repeatFrame{ref: r.self, remaining: repeatWait, start: r.now(ctx)})
		ctx.SetNext(r.Body)
		return
	}
	switch {
	case top.remaining == repeatStop || !ctx.engine.host.HasActor(ctx.ActorID):
		ctx.popRepeat()
	case top.remaining == repeatWait:
		top.remaining = repeatRun
		d := r.Interval.Number(ctx)
		e := ctx.engine
		ctx.SetNext(r.self)
		if r.musical() {
			due := top.start + r.steps(ctx.Clock(), d)*float64(top.done+1)
			e.ScheduleAtClock(ctx.Suspend(), due)
			return
		}
		e.ScheduleAt(ctx.Suspend(), top.start+d*float64(top.done+1))
	default:
		top.done++
		top.remaining = repeatWait
		ctx.SetNext(r.Body)
	}
}

func (r *InfiniteRepeat) linearizeChildren(e *Engine, self, _ ResponseRef) {
	e.linearize(r.Body, self)
}

// StopRepeating ends the innermost repeat the next time it is visited.
type StopRepeating struct {
	BaseResponse
}

func NewStopRepeating() Response { return &StopRepeating{} }

func (r *StopRepeating) Fields(Fields) {}

func (r *StopRepeating) Run(ctx *Context) {
	if n := len(ctx.repeats); n > 0 {
		ctx.repeats[n-1].remaining = 0
	}
}

// ActOn runs its body once as each actor carrying a tag.
type ActOn struct {
	BaseResponse
	Tag  string
	Body ResponseRef
}

func NewActOn() Response { return &ActOn{} }

func (r *ActOn) Fields(f Fields) {
	f.String("tag", &r.Tag)
	f.Response("body", &r.Body)
}

func (r *ActOn) Run(ctx *Context) {
	top := ctx.topActOn(r.self)
	if top == nil {
		if !r.Body.Valid() {
			return
		}
		ctx.actOns = append(ctx.actOns, actOnFrame{ref: r.self, tag: r.Tag, returnTo: ctx.ActorID})
		top = &ctx.actOns[len(ctx.actOns)-1]
	}
	host := ctx.engine.host
	if !host.HasActor(top.returnTo) {
		ctx.popActOn()
		ctx.SetNext(NoResponse)
		return
	}
	target := host.IndexActorWithTag(top.tag, top.index)
	if target == ecs.NullActor {
		ctx.popActOn()
		return
	}
	top.index++
	ctx.ActorID = target
	ctx.SetNext(r.Body)
}

func (r *ActOn) linearizeChildren(e *Engine, self, _ ResponseRef) {
	e.linearize(r.Body, self)
}

// actOnOne runs body once as target. It is the shared visit logic of the
// single-target forms.
func actOnOne(ctx *Context, self, body ResponseRef, resolve func() ecs.ActorID) {
	if top := ctx.topActOn(self); top != nil {
		ctx.popActOn()
		if !ctx.engine.host.HasActor(ctx.ActorID) {
			ctx.SetNext(NoResponse)
		}
		return
	}
	if !body.Valid() {
		return
	}
	target := resolve()
	if !ctx.engine.host.HasActor(target) {
		return
	}
	ctx.actOns = append(ctx.actOns, actOnFrame{ref: self, target: target, returnTo: ctx.ActorID})
	ctx.ActorID = target
	ctx.SetNext(body)
}

// ActOnClosest runs its body as the nearest other actor with a tag.
type ActOnClosest struct {
	BaseResponse
	Tag  string
	Body ResponseRef
}

func NewActOnClosest() Response { return &ActOnClosest{} }

func (r *ActOnClosest) Fields(f Fields) {
	f.String("tag", &r.Tag)
	f.Response("body", &r.Body)
}

func (r *ActOnClosest) Run(ctx *Context) {
	actOnOne(ctx, r.self, r.Body, func() ecs.ActorID {
		return ClosestActorWithTag(ctx, r.Tag)
	})
}

func (r *ActOnClosest) linearizeChildren(e *Engine, self, _ ResponseRef) {
	e.linearize(r.Body, self)
}

// ClosestActorWithTag finds the tagged actor nearest the acting actor,
// excluding the acting actor itself.
func ClosestActorWithTag(ctx *Context, tag string) ecs.ActorID {
	x, y, _ := ctx.Transform()
	host := ctx.engine.host
	best := ecs.NullActor
	bestDist := math.Inf(1)
	host.EachActorWithTag(tag, func(a ecs.ActorID) {
		if a == ctx.ActorID {
			return
		}
		ax, ay, _, ok := host.ActorTransform(a)
		if !ok {
			return
		}
		if d := math.Hypot(ax-x, ay-y); d < bestDist {
			best, bestDist = a, d
		}
	})
	return best
}

// ActOnOther runs its body as the other actor of the firing trigger.
type ActOnOther struct {
	BaseResponse
	Body ResponseRef
}

func NewActOnOther() Response { return &ActOnOther{} }

func (r *ActOnOther) Fields(f Fields) {
	f.Response("body", &r.Body)
}

func (r *ActOnOther) Run(ctx *Context) {
	actOnOne(ctx, r.self, r.Body, func() ecs.ActorID { return ctx.Extras.Other })
}

func (r *ActOnOther) linearizeChildren(e *Engine, self, _ ResponseRef) {
	e.linearize(r.Body, self)
}

// Note is a comment left in the rules. It only logs.
type Note struct {
	BaseResponse
	Text string
}

func NewNote() Response { return &Note{} }

func (r *Note) Fields(f Fields) { f.String("note", &r.Text) }

func (r *Note) Run(ctx *Context) {
	logger.Log.Debugf("rules: actor %s note: %s", ctx.ActorID, r.Text)
}

// RegisterControl adds the control-flow responses to c.
func RegisterControl(c *Catalog) {
	c.RegisterResponse("wait", CoreBehaviorID, NewWait)
	c.RegisterResponse("if", CoreBehaviorID, NewIf)
	c.RegisterResponse("repeat", CoreBehaviorID, NewRepeat)
	c.RegisterResponse("infinite repeat", CoreBehaviorID, NewInfiniteRepeat)
	c.RegisterResponse("stop repeating", CoreBehaviorID, NewStopRepeating)
	c.RegisterResponse("act on", CoreBehaviorID, NewActOn)
	c.RegisterResponse("act on closest", CoreBehaviorID, NewActOnClosest)
	c.RegisterResponse("act on other", CoreBehaviorID, NewActOnOther)
	c.RegisterResponse("note", CoreBehaviorID, NewNote)
}

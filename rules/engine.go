package rules

import (
	"math"
	"math/rand"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/serial"
)

// Host is the scene as the engine sees it.
type Host interface {
	HasActor(a ecs.ActorID) bool
	PerformTime() float64
	Clock() *clock.Clock
	Rand() *rand.Rand
	ActorTransform(a ecs.ActorID) (x, y, angle float64, ok bool)
	EachActorWithTag(tag string, fn func(a ecs.ActorID))
	IndexActorWithTag(tag string, i int) ecs.ActorID
}

type scheduled struct {
	ctx     *Context
	due     float64
	musical bool
}

// Engine owns the response arena, the trigger tables and the scheduler of
// one scene.
type Engine struct {
	host    Host
	catalog *Catalog

	responses []Response
	cache     map[serial.NodeKey]ResponseRef

	triggers []triggerStore

	scheduled []scheduled
	current   []scheduled
}

func NewEngine(host Host, catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = NewCatalog()
	}
	return &Engine{
		host:      host,
		catalog:   catalog,
		responses: []Response{nil},
		cache:     make(map[serial.NodeKey]ResponseRef),
	}
}

func (e *Engine) Catalog() *Catalog { return e.catalog }
func (e *Engine) Host() Host        { return e.host }

// Response returns the arena entry for ref, or nil.
func (e *Engine) Response(ref ResponseRef) Response {
	if e == nil || !ref.Valid() || int(ref) >= len(e.responses) {
		return nil
	}
	return e.responses[ref]
}

// NumResponses counts allocated responses.
func (e *Engine) NumResponses() int { return len(e.responses) - 1 }

func (e *Engine) alloc(spec *ResponseSpec) (ResponseRef, Response) {
	r := spec.newFunc()
	ref := ResponseRef(len(e.responses))
	b := r.base()
	b.spec = spec
	b.self = ref
	e.responses = append(e.responses, r)
	return ref, r
}

// linearize sets next on the chain starting at ref; the last response of the
// chain continues at cont.
func (e *Engine) linearize(ref, cont ResponseRef) {
	for ref.Valid() {
		r := e.Response(ref)
		if r == nil {
			return
		}
		b := r.base()
		b.next = b.NextResponse
		if !b.next.Valid() {
			b.next = cont
		}
		if cl, ok := r.(childLinearizer); ok {
			cl.linearizeChildren(e, ref, b.next)
		}
		ref = b.NextResponse
	}
}

func (e *Engine) newContext(actor ecs.ActorID, extras Extras, resp ResponseRef) *Context {
	ctx := &Context{ActorID: actor, Extras: extras, engine: e, next: resp}
	ctx.Transform()
	return ctx
}

func (e *Engine) fire(actor ecs.ActorID, resp ResponseRef, extras Extras) bool {
	if !resp.Valid() {
		return false
	}
	e.Schedule(e.newContext(actor, extras, resp))
	return true
}

// EvalContext returns a context for evaluating expressions and conditions
// on actor outside any chain.
func (e *Engine) EvalContext(actor ecs.ActorID, extras Extras) *Context {
	return e.newContext(actor, extras, NoResponse)
}

// Run starts resp on actor immediately instead of scheduling it.
func (e *Engine) Run(actor ecs.ActorID, resp ResponseRef, extras Extras) {
	if e == nil || !resp.Valid() {
		return
	}
	e.newContext(actor, extras, resp).Run()
}

// Schedule queues ctx for the next drain. Contexts with nothing left to run
// are dropped.
func (e *Engine) Schedule(ctx *Context) {
	e.ScheduleAt(ctx, math.Inf(-1))
}

// ScheduleAt queues ctx to resume once perform time reaches due.
func (e *Engine) ScheduleAt(ctx *Context, due float64) {
	if e == nil || ctx == nil || !ctx.next.Valid() {
		return
	}
	e.scheduled = append(e.scheduled, scheduled{ctx: ctx, due: due})
}

// ScheduleAtClock queues ctx to resume once the clock reaches due steps.
func (e *Engine) ScheduleAtClock(ctx *Context, due float64) {
	if e == nil || ctx == nil || !ctx.next.Valid() {
		return
	}
	e.scheduled = append(e.scheduled, scheduled{ctx: ctx, due: due, musical: true})
}

// NumScheduled counts suspended chains.
func (e *Engine) NumScheduled() int { return len(e.scheduled) }

// Drain resumes every due chain. Chains whose actor is gone are dropped.
// Anything scheduled while draining waits for the next call.
func (e *Engine) Drain() {
	if e == nil || len(e.scheduled) == 0 {
		return
	}
	now := e.host.PerformTime()
	clockNow := e.host.Clock().Time()

	kept := e.scheduled[:0]
	for _, s := range e.scheduled {
		if !e.host.HasActor(s.ctx.ActorID) {
			continue
		}
		due := now >= s.due
		if s.musical {
			due = clockNow >= s.due
		}
		if due {
			e.current = append(e.current, s)
		} else {
			kept = append(kept, s)
		}
	}
	clear(e.scheduled[len(kept):])
	e.scheduled = kept

	for _, s := range e.current {
		s.ctx.Run()
	}
	clear(e.current)
	e.current = e.current[:0]
}

// Reset drops every scheduled chain and trigger entry. Loaded responses stay
// in the arena.
func (e *Engine) Reset() {
	if e == nil {
		return
	}
	clear(e.scheduled)
	e.scheduled = e.scheduled[:0]
	for _, t := range e.triggers {
		if t != nil {
			t.clearAll()
		}
	}
}

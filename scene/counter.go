package scene

import (
	"math"

	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/rules"
)

type CounterComponent struct {
	ecs.Base
	Value    float64 `prop:"value"`
	MinValue float64 `prop:"minValue"`
	MaxValue float64 `prop:"maxValue"`
}

func (c *CounterComponent) clamp(v float64) float64 {
	lo, hi := c.MinValue, c.MaxValue
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

type CounterBehavior struct {
	base[*CounterComponent]
}

func newCounterBehavior(s *Scene) *CounterBehavior {
	b := &CounterBehavior{}
	b.init(s, "Counter", CounterID, func() *CounterComponent {
		return &CounterComponent{MaxValue: 100}
	}, b)
	return b
}

// Value returns the actor's counter, or 0.
func (b *CounterBehavior) Value(a ecs.ActorID) float64 {
	if c := b.Get(a); c != nil {
		return c.Value
	}
	return 0
}

// SetValue clamps v into the counter's range and raises the change
// triggers when the stored value moves.
func (b *CounterBehavior) SetValue(a ecs.ActorID, v float64) {
	c := b.Get(a)
	if c == nil {
		b.log(a).Debug("set counter: no component")
		return
	}
	v = c.clamp(v)
	if v == c.Value {
		return
	}
	c.Value = v
	if !b.IsComponentEnabled(a) {
		return
	}
	e := b.scene.Engine()
	rules.Fire(e, counterChangesTrigger, a, rules.Extras{})
	if rules.HasTrigger(e, counterMeetsConditionTrigger, a) {
		ctx := e.EvalContext(a, rules.Extras{})
		rules.FireIf(e, counterMeetsConditionTrigger, a, rules.Extras{}, func(t *CounterMeetsConditionTrigger) bool {
			return t.Test(ctx, rules.Number(v))
		})
	}
}

func (b *CounterBehavior) handleSetProperty(a ecs.ActorID, c *CounterComponent, prop string, v rules.Value, relative bool) bool {
	if prop != "value" {
		return false
	}
	n := v.AsNumber()
	if relative {
		n += c.Value
	}
	b.SetValue(a, n)
	return true
}

func (b *CounterBehavior) handleEnableComponent(a ecs.ActorID, c *CounterComponent) {
	c.Value = c.clamp(c.Value)
}

var (
	counterChangesTrigger        = rules.NewTriggerKind[CounterChangesTrigger]("counter changes")
	counterMeetsConditionTrigger = rules.NewTriggerKind[CounterMeetsConditionTrigger]("counter meets condition")
)

type CounterChangesTrigger struct{}

func (*CounterChangesTrigger) Fields(rules.Fields) {}

type CounterMeetsConditionTrigger struct {
	rules.Comparison
}

// SetCounterResponse sets or adds to the acting actor's counter.
type SetCounterResponse struct {
	rules.BaseResponse
	b *CounterBehavior

	SetToValue rules.ExprRef
	Relative   bool
}

func (r *SetCounterResponse) Fields(f rules.Fields) {
	f.Expr("setToValue", &r.SetToValue)
	f.Bool("relative", &r.Relative)
}

func (r *SetCounterResponse) Run(ctx *rules.Context) {
	v := r.SetToValue.Number(ctx)
	if r.Relative {
		v += r.b.Value(ctx.ActorID)
	}
	r.b.SetValue(ctx.ActorID, v)
}

type CounterValueExpr struct {
	b *CounterBehavior
}

func (e *CounterValueExpr) Fields(rules.Fields) {}

func (e *CounterValueExpr) Eval(ctx *rules.Context) rules.Value {
	return rules.Number(e.b.Value(ctx.ActorID))
}

type CounterMeetsCondition struct {
	rules.Comparison
	b *CounterBehavior
}

func (c *CounterMeetsCondition) Eval(ctx *rules.Context) bool {
	if !c.b.HasComponent(ctx.ActorID) {
		return false
	}
	return c.Test(ctx, rules.Number(c.b.Value(ctx.ActorID)))
}

func (b *CounterBehavior) registerRules(c *rules.Catalog) {
	rules.RegisterTrigger(c, counterChangesTrigger, CounterID)
	rules.RegisterTrigger(c, counterMeetsConditionTrigger, CounterID)
	c.RegisterResponse("set counter", CounterID, func() rules.Response { return &SetCounterResponse{b: b} })
	c.RegisterExpression("counter value", CounterID, func() rules.Expression { return &CounterValueExpr{b: b} })
	c.RegisterCondition("counter meets condition", CounterID, func() rules.Condition { return &CounterMeetsCondition{b: b} })
}

package scene

import (
	"math"

	"github.com/milk9111/rulesplayer/clock"
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/physics"
	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
	"gopkg.in/yaml.v3"
)

type RulesComponent struct {
	ecs.Base
	loaded  []rules.Rule
	created bool

	// raw holds the rules verbatim while the component is being edited.
	// Nothing is loaded or attached in that mode.
	raw *yaml.Node
}

// Rules returns the loaded rules of the component.
func (c *RulesComponent) Rules() []rules.Rule { return c.loaded }

// Editing reports whether the component keeps its rules as raw data.
func (c *RulesComponent) Editing() bool { return c.raw != nil }

// RulesBehavior owns the scene's rule engine.
type RulesBehavior struct {
	base[*RulesComponent]
	catalog *rules.Catalog
	engine  *rules.Engine

	pendingCreate []ecs.ActorID
	newlyAdded    []ecs.ActorID
}

func newRulesBehavior(s *Scene) *RulesBehavior {
	b := &RulesBehavior{}
	b.init(s, "Rules", RulesID, func() *RulesComponent { return &RulesComponent{} }, b)
	return b
}

// initEngine builds the catalog once every behavior exists.
func (b *RulesBehavior) initEngine() {
	b.catalog = rules.NewCatalog()
	rules.RegisterCore(b.catalog)
	b.scene.behaviors.registerRules(b.catalog)
	b.engine = rules.NewEngine(b.scene, b.catalog)
}

func (b *RulesBehavior) Engine() *rules.Engine   { return b.engine }
func (b *RulesBehavior) Catalog() *rules.Catalog { return b.catalog }

func (b *RulesBehavior) handleReadComponent(a ecs.ActorID, c *RulesComponent, r *serial.Reader) {
	arr, ok := r.Field("rules")
	if !ok {
		return
	}
	if r.Bool("editing", false) {
		c.raw = arr.Node()
		return
	}
	c.loaded = b.engine.LoadRules(arr)
}

func (b *RulesBehavior) handleWriteComponent(a ecs.ActorID, c *RulesComponent, w *serial.Writer) {
	if c.raw != nil {
		w.Bool("editing", true)
		w.Raw("rules", c.raw)
		return
	}
	w.Arr("rules", func(arr *serial.Writer) { b.engine.WriteRules(arr, c.loaded) })
}

func (b *RulesBehavior) handleEnableComponent(a ecs.ActorID, c *RulesComponent) {
	b.engine.Attach(a, c.loaded)
	if !c.created {
		b.pendingCreate = append(b.pendingCreate, a)
	}
	b.newlyAdded = append(b.newlyAdded, a)
}

func (b *RulesBehavior) handleDisableComponent(a ecs.ActorID, c *RulesComponent, removeActor bool) {
	b.engine.RemoveActorTriggers(a)
}

func (b *RulesBehavior) HandlePerform(dt float64) {
	s := b.scene

	if len(b.pendingCreate) > 0 {
		pending := b.pendingCreate
		b.pendingCreate = nil
		for _, a := range pending {
			c := b.GetEnabled(a)
			if c == nil || c.created {
				continue
			}
			c.created = true
			rules.Fire(b.engine, createTrigger, a, rules.Extras{})
		}
	}

	// The first frame is skipped so create rules can set variables first.
	if s.frame > 0 && len(b.newlyAdded) > 0 {
		added := b.newlyAdded
		b.newlyAdded = nil
		for _, a := range added {
			if !b.IsComponentEnabled(a) {
				continue
			}
			rules.FireIf(b.engine, variableReachesValueTrigger, a, rules.Extras{}, func(t *VariableReachesValueTrigger) bool {
				return b.reaches(a, t, nil)
			})
		}
	}

	if b.HasAnyEnabledComponent() {
		rules.FireAllEnabled(b.engine, frameTrigger, rules.Extras{}, b)
	}

	s.EnsureDrawOrderSort()
	b.engine.Drain()
	s.flushDestroyed()
}

func (b *RulesBehavior) reaches(a ecs.ActorID, t *VariableReachesValueTrigger, v *Variable) bool {
	found := b.scene.variables.Lookup(t.VariableID)
	if found == nil || v != nil && found != v {
		return false
	}
	return t.Test(b.engine.EvalContext(a, rules.Extras{}), found.Value())
}

// fireVariableTriggers raises the change triggers of v.
func (b *RulesBehavior) fireVariableTriggers(v *Variable) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	vars := b.scene.variables
	rules.FireAllIf(b.engine, variableChangesTrigger, rules.Extras{}, func(a ecs.ActorID, t *VariableChangesTrigger) bool {
		return b.IsComponentEnabled(a) && vars.Lookup(t.VariableID) == v
	})
	rules.FireAllIf(b.engine, variableReachesValueTrigger, rules.Extras{}, func(a ecs.ActorID, t *VariableReachesValueTrigger) bool {
		return b.IsComponentEnabled(a) && b.reaches(a, t, v)
	})
}

func (b *RulesBehavior) fireBeatTriggers(unit clock.Unit, index int) {
	if !b.HasAnyEnabledComponent() {
		return
	}
	rules.FireAllIf(b.engine, clockBeatTrigger, rules.Extras{}, func(a ecs.ActorID, t *ClockBeatTrigger) bool {
		return b.IsComponentEnabled(a) && t.matches(unit, index)
	})
}

// destroy runs the actor's destroy rules now and removes it at the end of
// the frame.
func (b *RulesBehavior) destroy(a ecs.ActorID) {
	s := b.scene
	if !s.MarkForDestroy(a) {
		return
	}
	if b.IsComponentEnabled(a) {
		rules.FireNow(b.engine, destroyTrigger, a, rules.Extras{})
	}
}

// Triggers.

var (
	createTrigger               = rules.NewTriggerKind[CreateTrigger]("create")
	destroyTrigger              = rules.NewTriggerKind[DestroyTrigger]("destroy")
	frameTrigger                = rules.NewTriggerKind[FrameTrigger]("frame")
	variableChangesTrigger      = rules.NewTriggerKind[VariableChangesTrigger]("variable changes")
	variableReachesValueTrigger = rules.NewTriggerKind[VariableReachesValueTrigger]("variable reaches value")
	clockBeatTrigger            = rules.NewTriggerKind[ClockBeatTrigger]("clock beat")
)

type CreateTrigger struct{}

func (*CreateTrigger) Fields(rules.Fields) {}

type DestroyTrigger struct{}

func (*DestroyTrigger) Fields(rules.Fields) {}

type FrameTrigger struct{}

func (*FrameTrigger) Fields(rules.Fields) {}

type VariableChangesTrigger struct {
	VariableID string
}

func (t *VariableChangesTrigger) Fields(f rules.Fields) { f.String("variableId", &t.VariableID) }

type VariableReachesValueTrigger struct {
	VariableID string
	rules.Comparison
}

func (t *VariableReachesValueTrigger) Fields(f rules.Fields) {
	f.String("variableId", &t.VariableID)
	t.Comparison.Fields(f)
}

// ClockBeatTrigger fires on every Every-th boundary of Units, shifted by
// Offset.
type ClockBeatTrigger struct {
	Units  string
	Every  int
	Offset int
}

func (t *ClockBeatTrigger) Fields(f rules.Fields) {
	f.String("units", &t.Units)
	f.Int("every", &t.Every)
	f.Int("offset", &t.Offset)
}

func (t *ClockBeatTrigger) matches(unit clock.Unit, index int) bool {
	u, ok := clock.ParseUnit(t.Units)
	if !ok {
		u = clock.Beat
	}
	if u != unit {
		return false
	}
	every := max(1, t.Every)
	return ((index-t.Offset)%every+every)%every == 0
}

// Responses.

const (
	depthFront  = "front"
	depthBack   = "back"
	depthAbove  = "in front of actor"
	depthBelow  = "behind actor"
	coordsLocal = "relative position"
)

// CreateResponse adds an actor from a library entry near the acting actor.
type CreateResponse struct {
	rules.BaseResponse
	b *RulesBehavior

	EntryID          string
	CoordinateSystem string
	XOffset          rules.ExprRef
	YOffset          rules.ExprRef
	Depth            string
}

func (r *CreateResponse) Fields(f rules.Fields) {
	f.String("entryId", &r.EntryID)
	f.String("coordinateSystem", &r.CoordinateSystem)
	f.Expr("xOffset", &r.XOffset)
	f.Expr("yOffset", &r.YOffset)
	f.String("depth", &r.Depth)
}

func (r *CreateResponse) Run(ctx *rules.Context) {
	s := r.b.scene
	if s.library.Get(r.EntryID) == nil {
		logger.Log.WithField("entry", r.EntryID).Debug("create: no such library entry")
		return
	}
	x, y := r.XOffset.Number(ctx), r.YOffset.Number(ctx)
	if r.CoordinateSystem == coordsLocal || r.CoordinateSystem == "" {
		px, py, _ := ctx.Transform()
		x, y = px+x, py+y
	}
	created := s.AddActor(ActorDesc{
		ParentEntryID: r.EntryID,
		DrawOrder:     -1,
		Position:      &physics.Point{X: x, Y: y},
	})
	switch r.Depth {
	case depthBack:
		s.MoveActorToBack(created)
	case depthAbove:
		s.MoveActorInFront(created, ctx.ActorID)
	case depthBelow:
		s.MoveActorBehind(created, ctx.ActorID)
	}
}

type DestroyResponse struct {
	rules.BaseResponse
	b *RulesBehavior
}

func (r *DestroyResponse) Fields(rules.Fields) {}

func (r *DestroyResponse) Run(ctx *rules.Context) { r.b.destroy(ctx.ActorID) }

type SetVariableResponse struct {
	rules.BaseResponse
	b *RulesBehavior

	VariableID string
	Value      rules.ExprRef
}

func (r *SetVariableResponse) Fields(f rules.Fields) {
	f.String("variableId", &r.VariableID)
	f.Expr("value", &r.Value)
}

func (r *SetVariableResponse) Run(ctx *rules.Context) {
	r.b.scene.variables.Set(r.VariableID, r.Value.Eval(ctx))
}

type ResetVariableResponse struct {
	rules.BaseResponse
	b *RulesBehavior

	VariableID string
}

func (r *ResetVariableResponse) Fields(f rules.Fields) { f.String("variableId", &r.VariableID) }

func (r *ResetVariableResponse) Run(*rules.Context) { r.b.scene.variables.Reset(r.VariableID) }

type ResetAllVariablesResponse struct {
	rules.BaseResponse
	b *RulesBehavior
}

func (r *ResetAllVariablesResponse) Fields(rules.Fields) {}

func (r *ResetAllVariablesResponse) Run(*rules.Context) { r.b.scene.variables.ResetAll() }

// behaviorRef names a behavior by id in rule parameters.
type behaviorRef struct {
	BehaviorID int
}

func (p *behaviorRef) fields(f rules.Fields) { f.Int("behaviorId", &p.BehaviorID) }

func (p *behaviorRef) resolve(s *Scene) Behavior {
	beh := s.behaviors.ByID(p.BehaviorID)
	if beh == nil {
		logger.Log.WithField("behaviorId", p.BehaviorID).Debug("rules: unknown behavior")
	}
	return beh
}

type SetBehaviorPropertyResponse struct {
	rules.BaseResponse
	b *RulesBehavior
	behaviorRef

	PropertyName string
	Value        rules.ExprRef
	Relative     bool
}

func (r *SetBehaviorPropertyResponse) Fields(f rules.Fields) {
	r.behaviorRef.fields(f)
	f.String("propertyName", &r.PropertyName)
	f.Expr("value", &r.Value)
	f.Bool("relative", &r.Relative)
}

func (r *SetBehaviorPropertyResponse) Run(ctx *rules.Context) {
	if beh := r.resolve(r.b.scene); beh != nil {
		beh.SetProperty(ctx.ActorID, r.PropertyName, r.Value.Eval(ctx), r.Relative)
	}
}

type EnableBehaviorResponse struct {
	rules.BaseResponse
	b *RulesBehavior
	behaviorRef
	enable bool
}

func (r *EnableBehaviorResponse) Fields(f rules.Fields) { r.behaviorRef.fields(f) }

func (r *EnableBehaviorResponse) Run(ctx *rules.Context) {
	beh := r.resolve(r.b.scene)
	if beh == nil {
		return
	}
	if r.enable {
		beh.EnableComponent(ctx.ActorID)
	} else {
		beh.DisableComponent(ctx.ActorID)
	}
}

type MoveResponse struct {
	rules.BaseResponse
	b     *RulesBehavior
	front bool
}

func (r *MoveResponse) Fields(rules.Fields) {}

func (r *MoveResponse) Run(ctx *rules.Context) {
	if r.front {
		r.b.scene.MoveActorToFront(ctx.ActorID)
	} else {
		r.b.scene.MoveActorToBack(ctx.ActorID)
	}
}

type RestartSceneResponse struct {
	rules.BaseResponse
	b *RulesBehavior
}

func (r *RestartSceneResponse) Fields(rules.Fields) {}

func (r *RestartSceneResponse) Run(*rules.Context) {
	r.b.scene.RequestTransition(Transition{Restart: true})
}

type FollowWithCameraResponse struct {
	rules.BaseResponse
	b *RulesBehavior
}

func (r *FollowWithCameraResponse) Fields(rules.Fields) {}

func (r *FollowWithCameraResponse) Run(ctx *rules.Context) { r.b.scene.FollowWithCamera(ctx.ActorID) }

type PlaySoundResponse struct {
	rules.BaseResponse
	b *RulesBehavior

	Frequency rules.ExprRef
	Duration  rules.ExprRef
	Volume    rules.ExprRef
}

func (r *PlaySoundResponse) Fields(f rules.Fields) {
	f.Expr("frequency", &r.Frequency)
	f.Expr("duration", &r.Duration)
	f.Expr("volume", &r.Volume)
}

func (r *PlaySoundResponse) Run(ctx *rules.Context) {
	r.b.scene.playTone(r.Frequency.Number(ctx), r.Duration.Number(ctx), r.Volume.Number(ctx))
}

type SetClockTempoResponse struct {
	rules.BaseResponse
	b *RulesBehavior

	Tempo rules.ExprRef
}

func (r *SetClockTempoResponse) Fields(f rules.Fields) { f.Expr("tempo", &r.Tempo) }

func (r *SetClockTempoResponse) Run(ctx *rules.Context) {
	if t := r.Tempo.Number(ctx); t > 0 {
		r.b.scene.clock.SetTempo(t)
	}
}

// Expressions.

type VariableExpr struct {
	b          *RulesBehavior
	VariableID string
}

func (e *VariableExpr) Fields(f rules.Fields) { f.String("variableId", &e.VariableID) }

func (e *VariableExpr) Eval(*rules.Context) rules.Value { return e.b.scene.variables.Get(e.VariableID) }

type BehaviorPropertyExpr struct {
	b *RulesBehavior
	behaviorRef
	PropertyName string
}

func (e *BehaviorPropertyExpr) Fields(f rules.Fields) {
	e.behaviorRef.fields(f)
	f.String("propertyName", &e.PropertyName)
}

func (e *BehaviorPropertyExpr) Eval(ctx *rules.Context) rules.Value {
	beh := e.resolve(e.b.scene)
	if beh == nil {
		return rules.Number(0)
	}
	return beh.GetProperty(ctx.ActorID, e.PropertyName)
}

// ActorDistanceExpr is the distance to the closest other actor with Tag.
type ActorDistanceExpr struct {
	b   *RulesBehavior
	Tag string
}

func (e *ActorDistanceExpr) Fields(f rules.Fields) { f.String("tag", &e.Tag) }

func (e *ActorDistanceExpr) Eval(ctx *rules.Context) rules.Value {
	other := rules.ClosestActorWithTag(ctx, e.Tag)
	ox, oy, _, ok := e.b.scene.ActorTransform(other)
	if !ok {
		return rules.Number(0)
	}
	x, y, _ := ctx.Transform()
	return rules.Number(math.Hypot(ox-x, oy-y))
}

type NumberOfActorsExpr struct {
	b   *RulesBehavior
	Tag string
}

func (e *NumberOfActorsExpr) Fields(f rules.Fields) { f.String("tag", &e.Tag) }

func (e *NumberOfActorsExpr) Eval(*rules.Context) rules.Value {
	n := 0
	e.b.scene.EachActorWithTag(e.Tag, func(ecs.ActorID) { n++ })
	return rules.Number(float64(n))
}

// Conditions.

type VariableMeetsCondition struct {
	b          *RulesBehavior
	VariableID string
	rules.Comparison
}

func (c *VariableMeetsCondition) Fields(f rules.Fields) {
	f.String("variableId", &c.VariableID)
	c.Comparison.Fields(f)
}

func (c *VariableMeetsCondition) Eval(ctx *rules.Context) bool {
	return c.Test(ctx, c.b.scene.variables.Get(c.VariableID))
}

type IsCollidingCondition struct {
	b   *RulesBehavior
	Tag string
}

func (c *IsCollidingCondition) Fields(f rules.Fields) { f.String("tag", &c.Tag) }

func (c *IsCollidingCondition) Eval(ctx *rules.Context) bool {
	return c.b.scene.behaviors.Body.IsColliding(ctx.ActorID, c.Tag)
}

type HasBehaviorCondition struct {
	b *RulesBehavior
	behaviorRef
}

func (c *HasBehaviorCondition) Fields(f rules.Fields) { c.behaviorRef.fields(f) }

func (c *HasBehaviorCondition) Eval(ctx *rules.Context) bool {
	beh := c.resolve(c.b.scene)
	return beh != nil && beh.IsComponentEnabled(ctx.ActorID)
}

func (b *RulesBehavior) registerRules(c *rules.Catalog) {
	rules.RegisterTrigger(c, createTrigger, RulesID)
	rules.RegisterTrigger(c, destroyTrigger, RulesID)
	rules.RegisterTrigger(c, frameTrigger, RulesID)
	rules.RegisterTrigger(c, variableChangesTrigger, RulesID)
	rules.RegisterTrigger(c, variableReachesValueTrigger, RulesID)
	rules.RegisterTrigger(c, clockBeatTrigger, RulesID)

	c.RegisterResponse("create", RulesID, func() rules.Response { return &CreateResponse{b: b, Depth: depthFront} })
	c.RegisterResponse("destroy", RulesID, func() rules.Response { return &DestroyResponse{b: b} })
	c.RegisterResponse("set variable", RulesID, func() rules.Response { return &SetVariableResponse{b: b} })
	c.RegisterResponse("reset variable", RulesID, func() rules.Response { return &ResetVariableResponse{b: b} })
	c.RegisterResponse("reset all variables", RulesID, func() rules.Response { return &ResetAllVariablesResponse{b: b} })
	c.RegisterResponse("set behavior property", RulesID, func() rules.Response { return &SetBehaviorPropertyResponse{b: b} })
	c.RegisterResponse("enable behavior", RulesID, func() rules.Response { return &EnableBehaviorResponse{b: b, enable: true} })
	c.RegisterResponse("disable behavior", RulesID, func() rules.Response { return &EnableBehaviorResponse{b: b} })
	c.RegisterResponse("move to front", RulesID, func() rules.Response { return &MoveResponse{b: b, front: true} })
	c.RegisterResponse("move to back", RulesID, func() rules.Response { return &MoveResponse{b: b} })
	c.RegisterResponse("restart scene", RulesID, func() rules.Response { return &RestartSceneResponse{b: b} })
	c.RegisterResponse("follow with camera", RulesID, func() rules.Response { return &FollowWithCameraResponse{b: b} })
	c.RegisterResponse("play sound", RulesID, func() rules.Response {
		return &PlaySoundResponse{b: b, Frequency: rules.Const(440), Duration: rules.Const(0.25), Volume: rules.Const(0.5)}
	})
	c.RegisterResponse("set clock tempo", RulesID, func() rules.Response {
		return &SetClockTempoResponse{b: b, Tempo: rules.Const(120)}
	})

	c.RegisterExpression("variable", RulesID, func() rules.Expression { return &VariableExpr{b: b} })
	c.RegisterExpression("behavior property", RulesID, func() rules.Expression { return &BehaviorPropertyExpr{b: b} })
	c.RegisterExpression("actor distance", RulesID, func() rules.Expression { return &ActorDistanceExpr{b: b} })
	c.RegisterExpression("number of actors", RulesID, func() rules.Expression { return &NumberOfActorsExpr{b: b} })

	c.RegisterCondition("variable meets condition", RulesID, func() rules.Condition { return &VariableMeetsCondition{b: b} })
	c.RegisterCondition("is colliding", RulesID, func() rules.Condition { return &IsCollidingCondition{b: b} })
	c.RegisterCondition("has behavior", RulesID, func() rules.Condition { return &HasBehaviorCondition{b: b} })
}

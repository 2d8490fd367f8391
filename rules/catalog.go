package rules

import (
	"sync/atomic"

	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
)

// CoreBehaviorID is the behavior id control-flow nodes and core expressions
// are registered under.
const CoreBehaviorID = 16

type specKey struct {
	name       string
	behaviorID int
}

type ResponseSpec struct {
	Name       string
	BehaviorID int
	newFunc    func() Response
}

type ExpressionSpec struct {
	Name       string
	BehaviorID int
	newFunc    func() Expression
}

type ConditionSpec struct {
	Name       string
	BehaviorID int
	newFunc    func() Condition
}

type TriggerSpec struct {
	Name       string
	BehaviorID int
	kindID     int32
	newParams  func() Node
	attach     func(e *Engine, actor ecs.ActorID, params Node, resp ResponseRef)
}

// Catalog holds the loadable node types of one engine. It is filled by
// explicit registration functions and is never global.
type Catalog struct {
	responses   map[specKey]*ResponseSpec
	expressions map[specKey]*ExpressionSpec
	conditions  map[specKey]*ConditionSpec
	triggers    map[specKey]*TriggerSpec
	kinds       map[int32]*TriggerSpec
}

func NewCatalog() *Catalog {
	return &Catalog{
		responses:   make(map[specKey]*ResponseSpec),
		expressions: make(map[specKey]*ExpressionSpec),
		conditions:  make(map[specKey]*ConditionSpec),
		triggers:    make(map[specKey]*TriggerSpec),
		kinds:       make(map[int32]*TriggerSpec),
	}
}

func (c *Catalog) RegisterResponse(name string, behaviorID int, newFunc func() Response) {
	key := specKey{name, behaviorID}
	if _, dup := c.responses[key]; dup {
		logger.Log.Panicf("rules: response %q for behavior %d registered twice", name, behaviorID)
	}
	c.responses[key] = &ResponseSpec{Name: name, BehaviorID: behaviorID, newFunc: newFunc}
}

func (c *Catalog) RegisterExpression(name string, behaviorID int, newFunc func() Expression) {
	key := specKey{name, behaviorID}
	if _, dup := c.expressions[key]; dup {
		logger.Log.Panicf("rules: expression %q for behavior %d registered twice", name, behaviorID)
	}
	c.expressions[key] = &ExpressionSpec{Name: name, BehaviorID: behaviorID, newFunc: newFunc}
}

func (c *Catalog) RegisterCondition(name string, behaviorID int, newFunc func() Condition) {
	key := specKey{name, behaviorID}
	if _, dup := c.conditions[key]; dup {
		logger.Log.Panicf("rules: condition %q for behavior %d registered twice", name, behaviorID)
	}
	c.conditions[key] = &ConditionSpec{Name: name, BehaviorID: behaviorID, newFunc: newFunc}
}

// RegisterTrigger makes kind loadable under its name for behaviorID. A kind
// may only be registered once per catalog.
func RegisterTrigger[T any, PT interface {
	*T
	Node
}](c *Catalog, kind TriggerKind[T], behaviorID int) {
	key := specKey{kind.name, behaviorID}
	if _, dup := c.triggers[key]; dup {
		logger.Log.Panicf("rules: trigger %q for behavior %d registered twice", kind.name, behaviorID)
	}
	if _, dup := c.kinds[kind.id]; dup {
		logger.Log.Panicf("rules: trigger kind %q registered twice", kind.name)
	}
	spec := &TriggerSpec{
		Name:       kind.name,
		BehaviorID: behaviorID,
		kindID:     kind.id,
		newParams:  func() Node { return PT(new(T)) },
		attach: func(e *Engine, actor ecs.ActorID, params Node, resp ResponseRef) {
			p, ok := params.(PT)
			if !ok {
				return
			}
			AddTrigger(e, kind, actor, *p, resp)
		},
	}
	c.triggers[key] = spec
	c.kinds[kind.id] = spec
}

func (c *Catalog) response(name string, behaviorID int) *ResponseSpec {
	return c.responses[specKey{name, behaviorID}]
}

func (c *Catalog) expression(name string, behaviorID int) *ExpressionSpec {
	return c.expressions[specKey{name, behaviorID}]
}

func (c *Catalog) condition(name string, behaviorID int) *ConditionSpec {
	return c.conditions[specKey{name, behaviorID}]
}

func (c *Catalog) trigger(name string, behaviorID int) *TriggerSpec {
	return c.triggers[specKey{name, behaviorID}]
}

// Names lists registered node names by category, for schema generation.
func (c *Catalog) Names() (triggers, responses, expressions, conditions []string) {
	for k := range c.triggers {
		triggers = append(triggers, k.name)
	}
	for k := range c.responses {
		responses = append(responses, k.name)
	}
	for k := range c.expressions {
		expressions = append(expressions, k.name)
	}
	for k := range c.conditions {
		conditions = append(conditions, k.name)
	}
	return
}

var nextTriggerKindID atomic.Int32

// TriggerKind is a typed handle for one trigger type. T holds the trigger's
// parameters.
type TriggerKind[T any] struct {
	id   int32
	name string
}

func NewTriggerKind[T any](name string) TriggerKind[T] {
	return TriggerKind[T]{id: nextTriggerKindID.Add(1), name: name}
}

func (k TriggerKind[T]) Name() string { return k.name }

func (k TriggerKind[T]) Valid() bool { return k.id != 0 }

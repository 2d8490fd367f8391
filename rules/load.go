package rules

import (
	"github.com/milk9111/rulesplayer/ecs"
	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/serial"
)

// Rule is one loaded trigger and the response chain it starts.
type Rule struct {
	Trigger  *TriggerSpec
	Params   Node
	Response ResponseRef
}

// LoadRules reads a rules array. Rules that fail to load are skipped and
// logged. A rule's response may be an integer naming an earlier rule in the
// same array, in which case both rules share one response chain.
func (e *Engine) LoadRules(arr *serial.Reader) []Rule {
	if e == nil {
		return nil
	}
	var (
		rules []Rule
		roots []ResponseRef
	)
	arr.EachElem(func(i int, elem *serial.Reader) {
		resp := e.loadRuleResponse(elem, roots)
		roots = append(roots, resp)
		if !resp.Valid() {
			logger.Log.Debugf("rules: rule %d has no response, skipping", i)
			return
		}
		trig, ok := elem.Obj("trigger")
		if !ok {
			logger.Log.Debugf("rules: rule %d has no trigger, skipping", i)
			return
		}
		name := trig.Str("name", "")
		behaviorID := trig.Int("behaviorId", CoreBehaviorID)
		spec := e.catalog.trigger(name, behaviorID)
		if spec == nil {
			logger.Log.Warnf("rules: unknown trigger %q (behavior %d)", name, behaviorID)
			return
		}
		params := spec.newParams()
		p, _ := trig.Obj("params")
		params.Fields(&fieldReader{e: e, r: p})
		rules = append(rules, Rule{Trigger: spec, Params: params, Response: resp})
	})
	return rules
}

// Attach registers the triggers of rules on actor.
func (e *Engine) Attach(actor ecs.ActorID, rules []Rule) {
	if e == nil {
		return
	}
	for _, r := range rules {
		r.Trigger.attach(e, actor, r.Params, r.Response)
	}
}

func (e *Engine) loadRuleResponse(elem *serial.Reader, roots []ResponseRef) ResponseRef {
	f, ok := elem.Field("response")
	if !ok {
		return NoResponse
	}
	if n, ok := f.AsNumber(); ok {
		i := int(n)
		if i < 0 || i >= len(roots) {
			logger.Log.Warnf("rules: response index %d out of range", i)
			return NoResponse
		}
		return roots[i]
	}
	return e.LoadRoot(f)
}

// LoadRoot loads a top-level response chain once per document node and
// linearizes it.
func (e *Engine) LoadRoot(r *serial.Reader) ResponseRef {
	if e == nil || !r.IsObject() {
		return NoResponse
	}
	key := r.Key()
	if ref, ok := e.cache[key]; ok {
		return ref
	}
	ref := e.loadResponse(r)
	if ref.Valid() {
		e.linearize(ref, NoResponse)
		e.cache[key] = ref
	}
	return ref
}

func (e *Engine) loadResponse(r *serial.Reader) ResponseRef {
	if !r.IsObject() {
		return NoResponse
	}
	name := r.Str("name", "")
	behaviorID := r.Int("behaviorId", CoreBehaviorID)
	spec := e.catalog.response(name, behaviorID)
	p, _ := r.Obj("params")
	if spec == nil {
		// Drop only this node; the rest of the chain still loads.
		logger.Log.Warnf("rules: unknown response %q (behavior %d)", name, behaviorID)
		next, ok := p.Obj("nextResponse")
		if !ok {
			return NoResponse
		}
		return e.loadResponse(next)
	}
	ref, resp := e.alloc(spec)
	fr := &fieldReader{e: e, r: p}
	resp.Fields(fr)
	fr.Response("nextResponse", &resp.base().NextResponse)
	return ref
}

func (e *Engine) loadExpression(r *serial.Reader) (ExprRef, bool) {
	if n, ok := r.AsNumber(); ok {
		return Const(n), true
	}
	if !r.IsObject() {
		return ExprRef{}, false
	}
	name, ok := r.StrOK("expressionType")
	if !ok {
		name = r.Str("name", "")
	}
	behaviorID := r.Int("behaviorId", CoreBehaviorID)
	spec := e.catalog.expression(name, behaviorID)
	if spec == nil {
		logger.Log.Warnf("rules: unknown expression %q (behavior %d)", name, behaviorID)
		return ExprRef{}, false
	}
	node := spec.newFunc()
	p, _ := r.Obj("params")
	node.Fields(&fieldReader{e: e, r: p})
	return ExprRef{node: node, spec: spec}, true
}

func (e *Engine) loadCondition(r *serial.Reader) (CondRef, bool) {
	if !r.IsObject() {
		return CondRef{}, false
	}
	name := r.Str("name", "")
	behaviorID := r.Int("behaviorId", CoreBehaviorID)
	spec := e.catalog.condition(name, behaviorID)
	if spec == nil {
		logger.Log.Warnf("rules: unknown condition %q (behavior %d)", name, behaviorID)
		return CondRef{}, false
	}
	node := spec.newFunc()
	p, _ := r.Obj("params")
	node.Fields(&fieldReader{e: e, r: p})
	return CondRef{node: node, spec: spec}, true
}

// fieldReader fills node parameters. Absent or mistyped fields keep the
// value the node was constructed with.
type fieldReader struct {
	e *Engine
	r *serial.Reader
}

func (f *fieldReader) Number(name string, v *float64) {
	if n, ok := f.r.NumOK(name); ok {
		*v = n
	}
}

func (f *fieldReader) Int(name string, v *int) {
	if n, ok := f.r.NumOK(name); ok {
		*v = int(n)
	}
}

func (f *fieldReader) Bool(name string, v *bool) {
	if b, ok := f.r.BoolOK(name); ok {
		*v = b
	}
}

func (f *fieldReader) String(name string, v *string) {
	if s, ok := f.r.StrOK(name); ok {
		*v = s
	}
}

func (f *fieldReader) Expr(name string, v *ExprRef) {
	c, ok := f.r.Field(name)
	if !ok {
		return
	}
	if ref, ok := f.e.loadExpression(c); ok {
		*v = ref
	}
}

func (f *fieldReader) Condition(name string, v *CondRef) {
	c, ok := f.r.Obj(name)
	if !ok {
		return
	}
	if ref, ok := f.e.loadCondition(c); ok {
		*v = ref
	}
}

func (f *fieldReader) Response(name string, v *ResponseRef) {
	c, ok := f.r.Obj(name)
	if !ok {
		return
	}
	*v = f.e.loadResponse(c)
}

package rules

import "github.com/milk9111/rulesplayer/serial"

// WriteRules appends rules to w, which must be an array writer. A response
// shared with an earlier rule is written as that rule's index.
func (e *Engine) WriteRules(w *serial.Writer, rules []Rule) {
	if e == nil {
		return
	}
	written := make(map[ResponseRef]int, len(rules))
	for i, rule := range rules {
		w.PushObj(func(o *serial.Writer) {
			o.Obj("trigger", func(t *serial.Writer) {
				t.Str("name", rule.Trigger.Name)
				t.Num("behaviorId", float64(rule.Trigger.BehaviorID))
				t.Obj("params", func(p *serial.Writer) {
					if rule.Params != nil {
						rule.Params.Fields(&fieldWriter{e: e, w: p})
					}
				})
			})
			if j, ok := written[rule.Response]; ok {
				o.Num("response", float64(j))
				return
			}
			written[rule.Response] = i
			o.Obj("response", func(r *serial.Writer) { e.writeResponse(r, rule.Response) })
		})
	}
}

func (e *Engine) writeResponse(w *serial.Writer, ref ResponseRef) {
	resp := e.Response(ref)
	if resp == nil {
		return
	}
	b := resp.base()
	w.Str("name", b.spec.Name)
	w.Num("behaviorId", float64(b.spec.BehaviorID))
	w.Obj("params", func(p *serial.Writer) {
		fw := &fieldWriter{e: e, w: p}
		resp.Fields(fw)
		fw.Response("nextResponse", &b.NextResponse)
	})
}

func (e *Engine) writeExpression(w *serial.Writer, ref ExprRef) {
	w.Str("expressionType", ref.spec.Name)
	w.Num("behaviorId", float64(ref.spec.BehaviorID))
	w.Obj("params", func(p *serial.Writer) { ref.node.Fields(&fieldWriter{e: e, w: p}) })
}

func (e *Engine) writeCondition(w *serial.Writer, ref CondRef) {
	w.Str("name", ref.spec.Name)
	w.Num("behaviorId", float64(ref.spec.BehaviorID))
	w.Obj("params", func(p *serial.Writer) { ref.node.Fields(&fieldWriter{e: e, w: p}) })
}

type fieldWriter struct {
	e *Engine
	w *serial.Writer
}

func (f *fieldWriter) Number(name string, v *float64) { f.w.Num(name, *v) }
func (f *fieldWriter) Int(name string, v *int)        { f.w.Num(name, float64(*v)) }
func (f *fieldWriter) Bool(name string, v *bool)      { f.w.Bool(name, *v) }
func (f *fieldWriter) String(name string, v *string)  { f.w.Str(name, *v) }

func (f *fieldWriter) Expr(name string, v *ExprRef) {
	if v.IsConst() || v.spec == nil {
		f.w.Num(name, v.Const)
		return
	}
	f.w.Obj(name, func(o *serial.Writer) { f.e.writeExpression(o, *v) })
}

func (f *fieldWriter) Condition(name string, v *CondRef) {
	if v.IsEmpty() || v.spec == nil {
		return
	}
	f.w.Obj(name, func(o *serial.Writer) { f.e.writeCondition(o, *v) })
}

func (f *fieldWriter) Response(name string, v *ResponseRef) {
	if !v.Valid() {
		return
	}
	f.w.Obj(name, func(o *serial.Writer) { f.e.writeResponse(o, *v) })
}

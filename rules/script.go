package rules

import (
	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/rulesplayer/logger"
)

// ScriptExpr evaluates a tengo snippet. The inputs a, b and c are bound to
// the node's expressions and the snippet assigns its answer to result.
type ScriptExpr struct {
	Code    string
	A, B, C ExprRef

	compiled *tengo.Compiled
	failed   string
}

func newScriptExpr() Expression { return &ScriptExpr{Code: "result := a"} }

func (e *ScriptExpr) Fields(f Fields) {
	f.String("code", &e.Code)
	f.Expr("a", &e.A)
	f.Expr("b", &e.B)
	f.Expr("c", &e.C)
}

func (e *ScriptExpr) compile() *tengo.Compiled {
	if e.compiled != nil || e.failed == e.Code {
		return e.compiled
	}
	script := tengo.NewScript([]byte(e.Code))
	for _, name := range []string{"a", "b", "c"} {
		_ = script.Add(name, 0.0)
	}
	script.SetImports(stdlib.GetModuleMap("math", "rand"))
	compiled, err := script.Compile()
	if err != nil {
		logger.Log.Warnf("rules: script compile: %v", err)
		e.failed = e.Code
		return nil
	}
	e.compiled = compiled
	return compiled
}

func (e *ScriptExpr) Eval(ctx *Context) Value {
	base := e.compile()
	if base == nil {
		return Number(0)
	}
	run := base.Clone()
	_ = run.Set("a", e.A.Number(ctx))
	_ = run.Set("b", e.B.Number(ctx))
	_ = run.Set("c", e.C.Number(ctx))
	if err := run.Run(); err != nil {
		logger.Log.Warnf("rules: script run: %v", err)
		return Number(0)
	}
	if !run.IsDefined("result") {
		return Number(0)
	}
	v := run.Get("result")
	switch v.ValueType() {
	case "bool":
		return Bool(v.Bool())
	case "string", "char":
		return String(v.String())
	case "int", "float":
		return Number(v.Float())
	}
	return Number(0)
}

package rules

import "math"

// NumberExpr is a literal.
type NumberExpr struct {
	Value float64
}

func newNumberExpr() Expression { return &NumberExpr{} }

func (e *NumberExpr) Fields(f Fields)     { f.Number("value", &e.Value) }
func (e *NumberExpr) Eval(*Context) Value { return Number(e.Value) }

type unaryExpr struct {
	Number ExprRef
	fn     func(float64) float64
}

func unaryOp(fn func(float64) float64) func() Expression {
	return func() Expression { return &unaryExpr{fn: fn} }
}

func (e *unaryExpr) Fields(f Fields) { f.Expr("number", &e.Number) }

func (e *unaryExpr) Eval(ctx *Context) Value {
	return Number(e.fn(e.Number.Number(ctx)))
}

type binaryExpr struct {
	Lhs, Rhs ExprRef
	fn       func(a, b float64) float64
}

func binaryOp(fn func(a, b float64) float64) func() Expression {
	return func() Expression { return &binaryExpr{fn: fn} }
}

func (e *binaryExpr) Fields(f Fields) {
	f.Expr("lhs", &e.Lhs)
	f.Expr("rhs", &e.Rhs)
}

func (e *binaryExpr) Eval(ctx *Context) Value {
	return Number(e.fn(e.Lhs.Number(ctx), e.Rhs.Number(ctx)))
}

func divide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// modulo takes the sign of the divisor.
func modulo(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a - math.Floor(a/b)*b
}

type LogExpr struct {
	Base, Number ExprRef
}

func (e *LogExpr) Fields(f Fields) {
	f.Expr("base", &e.Base)
	f.Expr("number", &e.Number)
}

func (e *LogExpr) Eval(ctx *Context) Value {
	base := math.Log(e.Base.Number(ctx))
	if base == 0 {
		return Number(0)
	}
	return Number(math.Log(e.Number.Number(ctx)) / base)
}

type MixExpr struct {
	Lhs, Rhs, Mix ExprRef
}

func (e *MixExpr) Fields(f Fields) {
	f.Expr("lhs", &e.Lhs)
	f.Expr("rhs", &e.Rhs)
	f.Expr("mix", &e.Mix)
}

func (e *MixExpr) Eval(ctx *Context) Value {
	a, b, t := e.Lhs.Number(ctx), e.Rhs.Number(ctx), e.Mix.Number(ctx)
	return Number(a + (b-a)*t)
}

type ClampExpr struct {
	Number, Min, Max ExprRef
}

func (e *ClampExpr) Fields(f Fields) {
	f.Expr("number", &e.Number)
	f.Expr("min", &e.Min)
	f.Expr("max", &e.Max)
}

func (e *ClampExpr) Eval(ctx *Context) Value {
	lo, hi := e.Min.Number(ctx), e.Max.Number(ctx)
	return Number(math.Max(lo, math.Min(hi, e.Number.Number(ctx))))
}

// RandomExpr draws uniformly from [min, max). Discrete draws include max.
type RandomExpr struct {
	Min, Max ExprRef
	Discrete bool
}

func (e *RandomExpr) Fields(f Fields) {
	f.Expr("min", &e.Min)
	f.Expr("max", &e.Max)
	f.Bool("discrete", &e.Discrete)
}

func (e *RandomExpr) Eval(ctx *Context) Value {
	lo, hi := e.Min.Number(ctx), e.Max.Number(ctx)
	if e.Discrete {
		hi++
	}
	v := lo + ctx.Rand().Float64()*(hi-lo)
	if e.Discrete {
		v = math.Floor(v)
	}
	return Number(v)
}

type GaussExpr struct {
	Mean, Sigma ExprRef
}

func (e *GaussExpr) Fields(f Fields) {
	f.Expr("mean", &e.Mean)
	f.Expr("sigma", &e.Sigma)
}

func (e *GaussExpr) Eval(ctx *Context) Value {
	return Number(e.Mean.Number(ctx) + ctx.Rand().NormFloat64()*e.Sigma.Number(ctx))
}

type ChooseExpr struct {
	Lhs, Rhs ExprRef
}

func (e *ChooseExpr) Fields(f Fields) {
	f.Expr("lhs", &e.Lhs)
	f.Expr("rhs", &e.Rhs)
}

func (e *ChooseExpr) Eval(ctx *Context) Value {
	if ctx.Rand().Float64() < 0.5 {
		return e.Lhs.Eval(ctx)
	}
	return e.Rhs.Eval(ctx)
}

type WeightedChooseExpr struct {
	Lhs, Rhs, Lhw, Rhw ExprRef
}

func (e *WeightedChooseExpr) Fields(f Fields) {
	f.Expr("lhs", &e.Lhs)
	f.Expr("rhs", &e.Rhs)
	f.Expr("lhw", &e.Lhw)
	f.Expr("rhw", &e.Rhw)
}

func (e *WeightedChooseExpr) Eval(ctx *Context) Value {
	lw, rw := e.Lhw.Number(ctx), e.Rhw.Number(ctx)
	switch {
	case lw <= 0:
		return e.Rhs.Eval(ctx)
	case rw <= 0:
		return e.Lhs.Eval(ctx)
	}
	if ctx.Rand().Float64()*(lw+rw) < lw {
		return e.Lhs.Eval(ctx)
	}
	return e.Rhs.Eval(ctx)
}

// clockExpr reads one value off the scene clock.
type clockExpr struct {
	read func(ctx *Context) float64
}

func clockValue(read func(ctx *Context) float64) func() Expression {
	return func() Expression { return &clockExpr{read: read} }
}

func (e *clockExpr) Fields(Fields) {}

func (e *clockExpr) Eval(ctx *Context) Value { return Number(e.read(ctx)) }

// RegisterExpressions adds the core math, random and clock expressions to c.
func RegisterExpressions(c *Catalog) {
	c.RegisterExpression("number", CoreBehaviorID, newNumberExpr)

	c.RegisterExpression("+", CoreBehaviorID, binaryOp(func(a, b float64) float64 { return a + b }))
	c.RegisterExpression("-", CoreBehaviorID, binaryOp(func(a, b float64) float64 { return a - b }))
	c.RegisterExpression("*", CoreBehaviorID, binaryOp(func(a, b float64) float64 { return a * b }))
	c.RegisterExpression("/", CoreBehaviorID, binaryOp(divide))
	c.RegisterExpression("%", CoreBehaviorID, binaryOp(modulo))
	c.RegisterExpression("^", CoreBehaviorID, binaryOp(math.Pow))
	c.RegisterExpression("min", CoreBehaviorID, binaryOp(math.Min))
	c.RegisterExpression("max", CoreBehaviorID, binaryOp(math.Max))

	c.RegisterExpression("abs", CoreBehaviorID, unaryOp(math.Abs))
	c.RegisterExpression("floor", CoreBehaviorID, unaryOp(math.Floor))
	c.RegisterExpression("ceil", CoreBehaviorID, unaryOp(math.Ceil))
	c.RegisterExpression("round", CoreBehaviorID, unaryOp(math.Round))
	c.RegisterExpression("sin", CoreBehaviorID, unaryOp(math.Sin))
	c.RegisterExpression("rad", CoreBehaviorID, unaryOp(func(deg float64) float64 { return deg * math.Pi / 180 }))

	c.RegisterExpression("log", CoreBehaviorID, func() Expression {
		return &LogExpr{Base: Const(2), Number: Const(1)}
	})
	c.RegisterExpression("mix", CoreBehaviorID, func() Expression { return &MixExpr{} })
	c.RegisterExpression("clamp", CoreBehaviorID, func() Expression { return &ClampExpr{Max: Const(1)} })
	c.RegisterExpression("random", CoreBehaviorID, func() Expression { return &RandomExpr{Max: Const(1)} })
	c.RegisterExpression("gauss", CoreBehaviorID, func() Expression { return &GaussExpr{Sigma: Const(1)} })
	c.RegisterExpression("choose", CoreBehaviorID, func() Expression { return &ChooseExpr{} })
	c.RegisterExpression("weighted choose", CoreBehaviorID, func() Expression {
		return &WeightedChooseExpr{Lhw: Const(1), Rhw: Const(1)}
	})

	c.RegisterExpression("beats elapsed", CoreBehaviorID, clockValue(func(ctx *Context) float64 {
		return float64(ctx.Clock().TotalBeatsElapsed() + 1)
	}))
	c.RegisterExpression("current beat in bar", CoreBehaviorID, clockValue(func(ctx *Context) float64 {
		return float64(ctx.Clock().BeatIndexInBar() + 1)
	}))
	c.RegisterExpression("current bar", CoreBehaviorID, clockValue(func(ctx *Context) float64 {
		return float64(ctx.Clock().TotalBarsElapsed() + 1)
	}))
	c.RegisterExpression("time since last beat", CoreBehaviorID, clockValue(func(ctx *Context) float64 {
		return ctx.Clock().PerformTimeSinceBeat()
	}))
	c.RegisterExpression("clock tempo", CoreBehaviorID, clockValue(func(ctx *Context) float64 {
		return ctx.Clock().Tempo()
	}))

	c.RegisterExpression("script", CoreBehaviorID, newScriptExpr)
}

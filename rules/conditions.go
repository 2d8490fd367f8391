package rules

type AndCondition struct {
	Lhs, Rhs CondRef
}

func (c *AndCondition) Fields(f Fields) {
	f.Condition("lhs", &c.Lhs)
	f.Condition("rhs", &c.Rhs)
}

func (c *AndCondition) Eval(ctx *Context) bool { return c.Lhs.Eval(ctx) && c.Rhs.Eval(ctx) }

type OrCondition struct {
	Lhs, Rhs CondRef
}

func (c *OrCondition) Fields(f Fields) {
	f.Condition("lhs", &c.Lhs)
	f.Condition("rhs", &c.Rhs)
}

func (c *OrCondition) Eval(ctx *Context) bool { return c.Lhs.Eval(ctx) || c.Rhs.Eval(ctx) }

type NotCondition struct {
	Condition CondRef
}

func (c *NotCondition) Fields(f Fields) { f.Condition("condition", &c.Condition) }

func (c *NotCondition) Eval(ctx *Context) bool { return !c.Condition.Eval(ctx) }

// CoinFlip is true with the given probability.
type CoinFlip struct {
	Probability ExprRef
}

func (c *CoinFlip) Fields(f Fields) { f.Expr("probability", &c.Probability) }

func (c *CoinFlip) Eval(ctx *Context) bool {
	return ctx.Rand().Float64() < c.Probability.Number(ctx)
}

type ExpressionMeetsCondition struct {
	Lhs ExprRef
	Comparison
}

func (c *ExpressionMeetsCondition) Fields(f Fields) {
	f.Expr("lhs", &c.Lhs)
	c.Comparison.Fields(f)
}

func (c *ExpressionMeetsCondition) Eval(ctx *Context) bool {
	return c.Test(ctx, c.Lhs.Eval(ctx))
}

// RegisterConditions adds the core conditions to c.
func RegisterConditions(c *Catalog) {
	c.RegisterCondition("and", CoreBehaviorID, func() Condition { return &AndCondition{} })
	c.RegisterCondition("or", CoreBehaviorID, func() Condition { return &OrCondition{} })
	c.RegisterCondition("not", CoreBehaviorID, func() Condition { return &NotCondition{} })
	c.RegisterCondition("coin flip", CoreBehaviorID, func() Condition {
		return &CoinFlip{Probability: Const(0.5)}
	})
	c.RegisterCondition("expression meets condition", CoreBehaviorID, func() Condition {
		return &ExpressionMeetsCondition{Comparison: Comparison{Op: CmpEqual}}
	})
}

// RegisterCore adds every node the engine itself implements.
func RegisterCore(c *Catalog) {
	RegisterControl(c)
	RegisterExpressions(c)
	RegisterConditions(c)
}

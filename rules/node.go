package rules

// ResponseRef addresses a response in an Engine's arena. Zero means none.
type ResponseRef int32

const NoResponse ResponseRef = 0

func (r ResponseRef) Valid() bool { return r > 0 }

// Node is any rule element with persisted parameters. Fields visits every
// parameter so the same method drives reading and writing.
type Node interface {
	Fields(f Fields)
}

// Fields is implemented by the readers and writers of node parameters.
type Fields interface {
	Number(name string, v *float64)
	Int(name string, v *int)
	Bool(name string, v *bool)
	String(name string, v *string)
	Expr(name string, v *ExprRef)
	Condition(name string, v *CondRef)
	Response(name string, v *ResponseRef)
}

type Response interface {
	Node
	Run(ctx *Context)
	base() *BaseResponse
}

// BaseResponse is embedded by every response node.
type BaseResponse struct {
	spec *ResponseSpec
	self ResponseRef

	// NextResponse is the explicit continuation from data; next is the
	// continuation after linearization.
	NextResponse ResponseRef
	next         ResponseRef
}

func (b *BaseResponse) base() *BaseResponse { return b }

func (b *BaseResponse) Self() ResponseRef { return b.self }

func (b *BaseResponse) Next() ResponseRef { return b.next }

func (b *BaseResponse) Spec() *ResponseSpec { return b.spec }

// childLinearizer is implemented by control-flow responses whose children
// continue somewhere other than the plain chain.
type childLinearizer interface {
	linearizeChildren(e *Engine, self, next ResponseRef)
}

type Expression interface {
	Node
	Eval(ctx *Context) Value
}

// ExprRef is an expression parameter. A nil node evaluates to Const.
type ExprRef struct {
	Const float64
	node  Expression
	spec  *ExpressionSpec
}

func Const(f float64) ExprRef { return ExprRef{Const: f} }

func (r ExprRef) IsConst() bool { return r.node == nil }

func (r ExprRef) Node() Expression { return r.node }

func (r ExprRef) Eval(ctx *Context) Value {
	if r.node == nil {
		return Number(r.Const)
	}
	return r.node.Eval(ctx)
}

func (r ExprRef) Number(ctx *Context) float64 {
	return r.Eval(ctx).AsNumber()
}

type Condition interface {
	Node
	Eval(ctx *Context) bool
}

// CondRef is a condition parameter. An empty CondRef is false.
type CondRef struct {
	node Condition
	spec *ConditionSpec
}

func (r CondRef) IsEmpty() bool { return r.node == nil }

func (r CondRef) Node() Condition { return r.node }

func (r CondRef) Eval(ctx *Context) bool {
	if r.node == nil {
		return false
	}
	return r.node.Eval(ctx)
}

// Comparison is a comparison operator plus a right-hand side.
type Comparison struct {
	Op    string
	Value ExprRef
}

func (c *Comparison) Fields(f Fields) {
	f.String("comparison", &c.Op)
	f.Expr("value", &c.Value)
}

func (c Comparison) Test(ctx *Context, lhs Value) bool {
	return Compare(c.Op, lhs, c.Value.Eval(ctx))
}

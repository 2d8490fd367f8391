package rules

import (
	"math"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNil Kind = iota
	KindNumber
	KindBool
	KindString
)

// Value is a tagged union of the scalar types rules work with.
type Value struct {
	kind Kind
	num  float64
	str  string
}

var Nil = Value{}

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func String(s string) Value  { return Value{kind: KindString, str: s} }

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsBool() bool   { return v.kind == KindBool }

func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindNumber, KindBool:
		return v.num
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func (v Value) AsBool() bool {
	switch v.kind {
	case KindNumber, KindBool:
		return v.num != 0
	case KindString:
		return v.str != ""
	}
	return false
}

func (v Value) AsString() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.num != 0)
	case KindString:
		return v.str
	}
	return ""
}

func (v Value) String() string { return v.AsString() }

// Equal compares kind and payload. Numbers and booleans compare by value.
func (v Value) Equal(o Value) bool {
	if v.kind == KindString || o.kind == KindString {
		return v.kind == o.kind && v.str == o.str
	}
	if v.kind == KindNil || o.kind == KindNil {
		return v.kind == o.kind
	}
	return v.num == o.num
}

// FormatNumber prints at most five decimals without trailing zeros.
func FormatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', 5, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// Comparison operators accepted in persisted rules.
const (
	CmpEqual          = "equal"
	CmpNotEqual       = "not equal"
	CmpLess           = "less than"
	CmpLessOrEqual    = "less than or equal"
	CmpGreater        = "greater than"
	CmpGreaterOrEqual = "greater than or equal"
)

// Compare applies op to lhs and rhs. Unknown operators compare false.
func Compare(op string, lhs, rhs Value) bool {
	switch op {
	case CmpEqual:
		return lhs.Equal(rhs)
	case CmpNotEqual:
		return !lhs.Equal(rhs)
	}
	a, b := lhs.AsNumber(), rhs.AsNumber()
	switch op {
	case CmpLess:
		return a < b
	case CmpLessOrEqual:
		return a <= b
	case CmpGreater:
		return a > b
	case CmpGreaterOrEqual:
		return a >= b
	}
	return false
}

package scene

import (
	"reflect"
	"sync"

	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
)

// propField is one struct field tagged `prop:"name"`.
type propField struct {
	name  string
	index []int
	kind  reflect.Kind
}

type propTable struct {
	fields map[string]propField
	order  []propField
	names  []string
}

var propTables sync.Map // reflect.Type -> *propTable

// propsFor reflects the prop-tagged fields of a component type once.
func propsFor(c any) *propTable {
	t := reflect.TypeOf(c)
	if cached, ok := propTables.Load(t); ok {
		return cached.(*propTable)
	}
	p := &propTable{fields: make(map[string]propField)}
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(st) {
			name, ok := f.Tag.Lookup("prop")
			if !ok || !f.IsExported() {
				continue
			}
			switch f.Type.Kind() {
			case reflect.Float64, reflect.Int, reflect.Bool, reflect.String:
			default:
				continue
			}
			pf := propField{name: name, index: f.Index, kind: f.Type.Kind()}
			p.fields[name] = pf
			p.order = append(p.order, pf)
			p.names = append(p.names, name)
		}
	}
	actual, _ := propTables.LoadOrStore(t, p)
	return actual.(*propTable)
}

func (p *propTable) field(c any, name string) (reflect.Value, propField, bool) {
	f, ok := p.fields[name]
	if !ok {
		return reflect.Value{}, f, false
	}
	v := reflect.ValueOf(c)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, f, false
		}
		v = v.Elem()
	}
	return v.FieldByIndex(f.index), f, true
}

func (p *propTable) get(c any, name string) (rules.Value, bool) {
	v, f, ok := p.field(c, name)
	if !ok {
		return rules.Nil, false
	}
	switch f.kind {
	case reflect.Float64:
		return rules.Number(v.Float()), true
	case reflect.Int:
		return rules.Number(float64(v.Int())), true
	case reflect.Bool:
		return rules.Bool(v.Bool()), true
	default:
		return rules.String(v.String()), true
	}
}

func (p *propTable) set(c any, name string, val rules.Value, relative bool) bool {
	v, f, ok := p.field(c, name)
	if !ok {
		return false
	}
	switch f.kind {
	case reflect.Float64:
		n := val.AsNumber()
		if relative {
			n += v.Float()
		}
		v.SetFloat(n)
	case reflect.Int:
		n := int64(val.AsNumber())
		if relative {
			n += v.Int()
		}
		v.SetInt(n)
	case reflect.Bool:
		v.SetBool(val.AsBool())
	default:
		v.SetString(val.AsString())
	}
	return true
}

// read fills every tagged field present in r.
func (p *propTable) read(c any, r *serial.Reader) {
	for _, f := range p.order {
		switch f.kind {
		case reflect.Float64, reflect.Int:
			if n, ok := r.NumOK(f.name); ok {
				p.set(c, f.name, rules.Number(n), false)
			}
		case reflect.Bool:
			if b, ok := r.BoolOK(f.name); ok {
				p.set(c, f.name, rules.Bool(b), false)
			}
		default:
			if s, ok := r.StrOK(f.name); ok {
				p.set(c, f.name, rules.String(s), false)
			}
		}
	}
}

func (p *propTable) write(c any, w *serial.Writer) {
	for _, f := range p.order {
		v, _ := p.get(c, f.name)
		switch f.kind {
		case reflect.Float64, reflect.Int:
			w.Num(f.name, v.AsNumber())
		case reflect.Bool:
			w.Bool(f.name, v.AsBool())
		default:
			w.Str(f.name, v.AsString())
		}
	}
}

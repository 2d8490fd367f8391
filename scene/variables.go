package scene

import (
	"strings"
	"unicode"

	"github.com/milk9111/rulesplayer/logger"
	"github.com/milk9111/rulesplayer/rules"
	"github.com/milk9111/rulesplayer/serial"
)

type Variable struct {
	ID           string
	Name         string
	InitialValue rules.Value
	value        rules.Value
}

func (v *Variable) Value() rules.Value { return v.value }

// Variables are scene-wide named values that rules read and write.
type Variables struct {
	scene   *Scene
	vars    []*Variable
	byID    map[string]*Variable
	byName  map[string]*Variable
	changed []*Variable
}

func newVariables(s *Scene) *Variables {
	return &Variables{
		scene:  s,
		byID:   make(map[string]*Variable),
		byName: make(map[string]*Variable),
	}
}

// Add defines a variable at its initial value.
func (vs *Variables) Add(id, name string, initial rules.Value) *Variable {
	if id == "" {
		id = name
	}
	if existing := vs.byID[id]; existing != nil {
		return existing
	}
	v := &Variable{ID: id, Name: name, InitialValue: initial, value: initial}
	vs.vars = append(vs.vars, v)
	vs.byID[id] = v
	if name != "" {
		vs.byName[strings.ToLower(name)] = v
	}
	return v
}

// Lookup finds a variable by id, then by case-insensitive name.
func (vs *Variables) Lookup(idOrName string) *Variable {
	if v := vs.byID[idOrName]; v != nil {
		return v
	}
	return vs.byName[strings.ToLower(idOrName)]
}

func (vs *Variables) Get(id string) rules.Value {
	v := vs.Lookup(id)
	if v == nil {
		logger.Log.WithField("variable", id).Debug("get variable: not found")
		return rules.Number(0)
	}
	return v.value
}

// Set assigns a variable. Change triggers fire only when the value differs.
func (vs *Variables) Set(id string, val rules.Value) {
	v := vs.Lookup(id)
	if v == nil {
		logger.Log.WithField("variable", id).Debug("set variable: not found")
		return
	}
	if v.value.Equal(val) && v.value.Kind() == val.Kind() {
		return
	}
	v.value = val
	vs.markChanged(v)
}

func (vs *Variables) markChanged(v *Variable) {
	for _, c := range vs.changed {
		if c == v {
			return
		}
	}
	vs.changed = append(vs.changed, v)
}

func (vs *Variables) Reset(id string) {
	if v := vs.Lookup(id); v != nil {
		vs.Set(v.ID, v.InitialValue)
	}
}

func (vs *Variables) ResetAll() {
	for _, v := range vs.vars {
		vs.Set(v.ID, v.InitialValue)
	}
}

func (vs *Variables) Len() int { return len(vs.vars) }

func (vs *Variables) Each(fn func(*Variable)) {
	for _, v := range vs.vars {
		fn(v)
	}
}

// perform fires change triggers for variables set since the last frame.
func (vs *Variables) perform() {
	if len(vs.changed) == 0 {
		return
	}
	changed := vs.changed
	vs.changed = nil
	for _, v := range changed {
		vs.scene.behaviors.Rules.fireVariableTriggers(v)
	}
}

// Format replaces $name references in s with variable values.
func (vs *Variables) Format(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && (s[j] == '_' || s[j] < 0x80 && (unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j])))) {
			j++
		}
		if v := vs.Lookup(s[i+1 : j]); j > i+1 && v != nil {
			b.WriteString(v.value.AsString())
		} else {
			b.WriteString(s[i:j])
		}
		i = j
	}
	return b.String()
}

func (vs *Variables) read(arr *serial.Reader) {
	arr.EachElem(func(_ int, r *serial.Reader) {
		id, ok := r.StrOK("id")
		if !ok {
			id = r.Str("variableId", "")
		}
		name := r.Str("name", "")
		initial := rules.Number(0)
		if f, ok := r.Field("initialValue"); ok {
			if n, ok := f.AsNumber(); ok {
				initial = rules.Number(n)
			} else if s, ok := f.AsString(); ok {
				initial = rules.String(s)
			}
		}
		if id == "" && name == "" {
			return
		}
		vs.Add(id, name, initial)
	})
}

func (vs *Variables) write(w *serial.Writer) {
	for _, v := range vs.vars {
		w.PushObj(func(o *serial.Writer) {
			o.Str("id", v.ID)
			o.Str("name", v.Name)
			if v.InitialValue.IsString() {
				o.Str("initialValue", v.InitialValue.AsString())
			} else {
				o.Num("initialValue", v.InitialValue.AsNumber())
			}
		})
	}
}

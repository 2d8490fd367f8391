package serial

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return doc
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"broken_json", `{"a": [1, 2`, ErrParse},
		{"array_root", `[1, 2, 3]`, ErrNotObject},
		{"scalar_root", `42`, ErrNotObject},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse([]byte(c.src))
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestReaderTypedAccess(t *testing.T) {
	r := mustParse(t, `{"name": "wait", "behaviorId": 16, "params": {"duration": 1.5, "quantize": true, "missing": null}}`).Reader()

	if got := r.Str("name", ""); got != "wait" {
		t.Fatalf("name = %q", got)
	}
	if got := r.Int("behaviorId", 0); got != 16 {
		t.Fatalf("behaviorId = %d", got)
	}
	params, ok := r.Obj("params")
	if !ok {
		t.Fatalf("params should be an object")
	}
	if got := params.Num("duration", 0); got != 1.5 {
		t.Fatalf("duration = %v", got)
	}
	if !params.Bool("quantize", false) {
		t.Fatalf("quantize should be true")
	}
	if params.Has("missing") {
		t.Fatalf("null values read as absent")
	}
	if got := params.Num("name", 7); got != 7 {
		t.Fatalf("missing key should return default, got %v", got)
	}
	if _, ok := r.NumOK("name"); ok {
		t.Fatalf("a string must not read as a number")
	}
}

func TestReaderFallback(t *testing.T) {
	blueprint := mustParse(t, `{"Body": {"x": 1, "y": 2, "visible": true}, "Rules": {"rules": [1, 2]}}`).Reader()
	own := mustParse(t, "Body:\n  x: 10\n").Reader()

	r := own.WithFallback(blueprint)
	body, ok := r.Obj("Body")
	if !ok {
		t.Fatalf("Body should exist")
	}
	if body.Num("x", 0) != 10 || body.Num("y", 0) != 2 || !body.Bool("visible", false) {
		t.Fatalf("own fields must win field-by-field over the blueprint")
	}
	if n := r.Each("rules", func(int, *Reader) {}); n != 0 {
		t.Fatalf("rules is nested, got %d", n)
	}
	rules, ok := r.Obj("Rules")
	if !ok {
		t.Fatalf("Rules should come from the blueprint")
	}
	var sum float64
	rules.Each("rules", func(_ int, e *Reader) {
		v, _ := e.AsNumber()
		sum += v
	})
	if sum != 3 {
		t.Fatalf("expected to read blueprint array, sum=%v", sum)
	}
	if got := strings.Join(body.Keys(), ","); got != "x,y,visible" {
		t.Fatalf("keys = %s", got)
	}
}

func TestNodeKeyIdentity(t *testing.T) {
	doc := mustParse(t, `{"rules": [{"response": {"name": "note"}}, {"response": {"name": "note"}}]}`)
	var keys []NodeKey
	doc.Reader().Each("rules", func(_ int, e *Reader) {
		resp, _ := e.Obj("response")
		keys = append(keys, resp.Key())
	})
	if len(keys) != 2 || keys[0] == keys[1] {
		t.Fatalf("distinct nodes must have distinct keys: %v", keys)
	}

	var again []NodeKey
	doc.Reader().Each("rules", func(_ int, e *Reader) {
		resp, _ := e.Obj("response")
		again = append(again, resp.Key())
	})
	if again[0] != keys[0] {
		t.Fatalf("re-reading the same node must give the same key")
	}

	other := mustParse(t, `{"rules": [{"response": {"name": "note"}}]}`)
	other.Reader().Each("rules", func(_ int, e *Reader) {
		resp, _ := e.Obj("response")
		if resp.Key() == keys[0] {
			t.Fatalf("nodes in different documents must not collide")
		}
	})
}

func TestWriterReadsBack(t *testing.T) {
	w := NewWriter()
	w.Str("name", "repeat")
	w.Num("behaviorId", 16)
	w.Obj("params", func(p *Writer) {
		p.Num("count", 3)
		p.Num("scale", 0.25)
		p.Bool("quantize", false)
	})
	w.Arr("tags", func(a *Writer) {
		a.PushStr("enemy")
		a.PushObj(func(o *Writer) { o.Str("k", "v") })
	})

	out, err := w.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	want := `{"name":"repeat","behaviorId":16,"params":{"count":3,"scale":0.25,"quantize":false},"tags":["enemy",{"k":"v"}]}`
	if string(out) != want {
		t.Fatalf("json mismatch\n got %s\nwant %s", out, want)
	}

	r := mustParse(t, string(out)).Reader()
	params, _ := r.Obj("params")
	if params.Num("count", 0) != 3 || params.Num("scale", 0) != 0.25 {
		t.Fatalf("numbers did not survive")
	}

	yml, err := w.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if got := mustParse(t, string(yml)).Reader().Str("name", ""); got != "repeat" {
		t.Fatalf("yaml output did not read back, name=%q", got)
	}
}

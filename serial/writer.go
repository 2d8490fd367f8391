package serial

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Writer builds a tree mirroring the Reader API.
type Writer struct {
	node *yaml.Node
}

func NewWriter() *Writer {
	return &Writer{node: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}}
}

func newArrayWriter() *Writer {
	return &Writer{node: &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}}
}

func (w *Writer) Node() *yaml.Node {
	if w == nil {
		return nil
	}
	return w.node
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func numNode(v float64) *yaml.Node {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(v), 10)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v, 'g', -1, 64)}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func (w *Writer) set(key string, v *yaml.Node) {
	if w == nil || v == nil {
		return
	}
	if w.node.Kind == yaml.SequenceNode {
		w.node.Content = append(w.node.Content, v)
		return
	}
	for i := 0; i+1 < len(w.node.Content); i += 2 {
		if w.node.Content[i].Value == key {
			w.node.Content[i+1] = v
			return
		}
	}
	w.node.Content = append(w.node.Content, strNode(key), v)
}

func (w *Writer) Str(key, v string)         { w.set(key, strNode(v)) }
func (w *Writer) Num(key string, v float64) { w.set(key, numNode(v)) }
func (w *Writer) Bool(key string, v bool)   { w.set(key, boolNode(v)) }

// Raw stores an existing node verbatim.
func (w *Writer) Raw(key string, n *yaml.Node) { w.set(key, n) }

func (w *Writer) Obj(key string, fn func(*Writer)) {
	child := NewWriter()
	if fn != nil {
		fn(child)
	}
	w.set(key, child.node)
}

func (w *Writer) Arr(key string, fn func(*Writer)) {
	child := newArrayWriter()
	if fn != nil {
		fn(child)
	}
	w.set(key, child.node)
}

// PushObj appends an object to an array writer.
func (w *Writer) PushObj(fn func(*Writer)) { w.Obj("", fn) }

func (w *Writer) PushStr(v string)  { w.set("", strNode(v)) }
func (w *Writer) PushNum(v float64) { w.set("", numNode(v)) }

// Document snapshots the written tree for reading.
func (w *Writer) Document() *Document {
	if w == nil {
		return nil
	}
	return FromNode(w.node)
}

func (w *Writer) YAML() ([]byte, error) {
	if w == nil {
		return nil, nil
	}
	out, err := yaml.Marshal(w.node)
	if err != nil {
		return nil, fmt.Errorf("serial: encode yaml: %w", err)
	}
	return out, nil
}

// JSON encodes the tree. Object keys keep their written order.
func (w *Writer) JSON() ([]byte, error) {
	if w == nil {
		return nil, nil
	}
	out, err := json.Marshal(jsonNode{w.node})
	if err != nil {
		return nil, fmt.Errorf("serial: encode json: %w", err)
	}
	return out, nil
}

type jsonNode struct {
	n *yaml.Node
}

func (j jsonNode) MarshalJSON() ([]byte, error) {
	n := resolve(j.n)
	if n == nil {
		return []byte("null"), nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return []byte("null"), nil
		}
		return jsonNode{n.Content[0]}.MarshalJSON()
	case yaml.MappingNode:
		buf := []byte{'{'}
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf = append(buf, ',')
			}
			k, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return nil, err
			}
			v, err := jsonNode{n.Content[i+1]}.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(append(append(buf, k...), ':'), v...)
		}
		return append(buf, '}'), nil
	case yaml.SequenceNode:
		buf := []byte{'['}
		for i, c := range n.Content {
			if i > 0 {
				buf = append(buf, ',')
			}
			v, err := jsonNode{c}.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, v...)
		}
		return append(buf, ']'), nil
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, err
		}
		return json.Marshal(f)
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return json.Marshal(b)
	case "!!null":
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

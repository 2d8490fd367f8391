package serial

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

var (
	ErrParse     = errors.New("serial: parse failed")
	ErrNotObject = errors.New("serial: document root is not an object")
)

var nextDocID atomic.Uint64

// NodeKey identifies a node by its position inside one parsed document. It
// stays stable for as long as the document is alive.
type NodeKey struct {
	Doc    uint64
	Line   int
	Column int
	Kind   yaml.Kind
}

// Document is a parsed JSON or YAML tree.
type Document struct {
	id   uint64
	root *yaml.Node
}

// Parse reads JSON or YAML. The root must be an object.
func Parse(data []byte) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, ErrNotObject
	}
	return &Document{id: nextDocID.Add(1), root: root}, nil
}

// FromNode wraps an existing tree, for instance one built by a Writer.
func FromNode(n *yaml.Node) *Document {
	return &Document{id: nextDocID.Add(1), root: n}
}

func (d *Document) Reader() *Reader {
	if d == nil {
		return nil
	}
	return &Reader{doc: d, node: d.root}
}

func (d *Document) Root() *yaml.Node {
	if d == nil {
		return nil
	}
	return d.root
}

// Reader navigates a tree. Object lookups fall back to a second tree when a
// key is missing, which is how actors inherit from their blueprint.
type Reader struct {
	doc      *Document
	node     *yaml.Node
	fallback *Reader
}

// WithFallback returns a reader over r that consults fb for missing keys.
func (r *Reader) WithFallback(fb *Reader) *Reader {
	if r == nil {
		return fb
	}
	return &Reader{doc: r.doc, node: r.node, fallback: fb}
}

func (r *Reader) Node() *yaml.Node {
	if r == nil {
		return nil
	}
	return r.node
}

// Key identifies the current node.
func (r *Reader) Key() NodeKey {
	if r == nil || r.node == nil {
		return NodeKey{}
	}
	var doc uint64
	if r.doc != nil {
		doc = r.doc.id
	}
	return NodeKey{Doc: doc, Line: r.node.Line, Column: r.node.Column, Kind: r.node.Kind}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

// child returns a reader for key, preferring the own tree.
func (r *Reader) child(key string) *Reader {
	if r == nil {
		return nil
	}
	if n := lookup(r.node, key); n != nil && n.ShortTag() != "!!null" {
		out := &Reader{doc: r.doc, node: n}
		if fb := r.fallback.child(key); fb != nil && n.Kind == yaml.MappingNode {
			out.fallback = fb
		}
		return out
	}
	return r.fallback.child(key)
}

func (r *Reader) Has(key string) bool {
	return r.child(key) != nil
}

// Obj enters an object-valued key.
func (r *Reader) Obj(key string) (*Reader, bool) {
	c := r.child(key)
	if c == nil || c.node.Kind != yaml.MappingNode {
		return nil, false
	}
	return c, true
}

// Field returns a reader over any value at key.
func (r *Reader) Field(key string) (*Reader, bool) {
	c := r.child(key)
	return c, c != nil
}

// Each visits the elements of an array-valued key. Arrays are not merged
// with the fallback; the first tree that has the key wins.
func (r *Reader) Each(key string, fn func(i int, elem *Reader)) int {
	c := r.child(key)
	if c == nil || c.node.Kind != yaml.SequenceNode || fn == nil {
		return 0
	}
	return c.EachElem(fn)
}

// EachElem visits elements when the current node is an array.
func (r *Reader) EachElem(fn func(i int, elem *Reader)) int {
	if r == nil || r.node == nil || r.node.Kind != yaml.SequenceNode {
		return 0
	}
	for i, n := range r.node.Content {
		fn(i, &Reader{doc: r.doc, node: resolve(n)})
	}
	return len(r.node.Content)
}

// Keys lists object keys of the own tree followed by fallback-only keys.
func (r *Reader) Keys() []string {
	if r == nil {
		return nil
	}
	var keys []string
	seen := make(map[string]struct{})
	if n := resolve(r.node); n != nil && n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i].Value
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for _, k := range r.fallback.Keys() {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (r *Reader) IsObject() bool { return r != nil && r.node != nil && r.node.Kind == yaml.MappingNode }
func (r *Reader) IsArray() bool  { return r != nil && r.node != nil && r.node.Kind == yaml.SequenceNode }

// IsNumber reports whether the current node is a numeric scalar.
func (r *Reader) IsNumber() bool {
	if r == nil || r.node == nil || r.node.Kind != yaml.ScalarNode {
		return false
	}
	switch r.node.ShortTag() {
	case "!!int", "!!float":
		return true
	}
	return false
}

// AsNumber reads the current scalar as a number.
func (r *Reader) AsNumber() (float64, bool) {
	if !r.IsNumber() {
		return 0, false
	}
	v, err := strconv.ParseFloat(r.node.Value, 64)
	if err != nil {
		i, ierr := strconv.ParseInt(r.node.Value, 0, 64)
		if ierr != nil {
			return 0, false
		}
		return float64(i), true
	}
	return v, true
}

func (r *Reader) AsString() (string, bool) {
	if r == nil || r.node == nil || r.node.Kind != yaml.ScalarNode || r.node.ShortTag() == "!!null" {
		return "", false
	}
	return r.node.Value, true
}

func (r *Reader) AsBool() (bool, bool) {
	if r == nil || r.node == nil || r.node.Kind != yaml.ScalarNode || r.node.ShortTag() != "!!bool" {
		return false, false
	}
	var b bool
	if err := r.node.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

func (r *Reader) StrOK(key string) (string, bool) {
	return r.child(key).AsString()
}

func (r *Reader) Str(key, def string) string {
	if v, ok := r.StrOK(key); ok {
		return v
	}
	return def
}

func (r *Reader) NumOK(key string) (float64, bool) {
	return r.child(key).AsNumber()
}

func (r *Reader) Num(key string, def float64) float64 {
	if v, ok := r.NumOK(key); ok {
		return v
	}
	return def
}

func (r *Reader) Int(key string, def int) int {
	if v, ok := r.NumOK(key); ok {
		return int(v)
	}
	return def
}

func (r *Reader) BoolOK(key string) (bool, bool) {
	return r.child(key).AsBool()
}

func (r *Reader) Bool(key string, def bool) bool {
	if v, ok := r.BoolOK(key); ok {
		return v
	}
	return def
}

package serialize

import "encoding/json"

// jsonNode is the on-disk shape of one JSONTree node: scalar properties
// live in one map per type (Ints, Floats, Strings) under their key, byte
// blobs live in Bytes and are written as the standard library's base64
// string encoding of []byte values, named children live under Children,
// and unnamed ordered children live under Items.
type jsonNode struct {
	Ints     map[string]int             `json:"ints,omitempty"`
	Floats   map[string]float64         `json:"floats,omitempty"`
	Strings  map[string]string          `json:"strings,omitempty"`
	Bytes    map[string][]byte          `json:"bytes,omitempty"`
	Children map[string]*jsonNode       `json:"children,omitempty"`
	Items    []*jsonNode                `json:"items,omitempty"`
}

// JSONTree is a Context backed by a tree of plain Go maps and slices,
// marshaled through encoding/json; byte blobs go through encoding/json's
// built-in base64 encoding of []byte fields, matching spec.md's
// base64-blob requirement for Commands/Indices/RawMemory without any
// explicit encoding/base64 call in this package.
type JSONTree struct {
	node *jsonNode
}

// NewJSONTree returns an empty root Context.
func NewJSONTree() *JSONTree {
	return &JSONTree{node: &jsonNode{}}
}

func wrap(n *jsonNode) *JSONTree { return &JSONTree{node: n} }

func (t *JSONTree) AddChild(key string) Context {
	if t.node.Children == nil {
		t.node.Children = make(map[string]*jsonNode)
	}
	if child, ok := t.node.Children[key]; ok {
		return wrap(child)
	}
	child := &jsonNode{}
	t.node.Children[key] = child
	return wrap(child)
}

func (t *JSONTree) Child(key string) (Context, bool) {
	child, ok := t.node.Children[key]
	if !ok {
		return nil, false
	}
	return wrap(child), true
}

func (t *JSONTree) AddItem() Context {
	item := &jsonNode{}
	t.node.Items = append(t.node.Items, item)
	return wrap(item)
}

func (t *JSONTree) Items() []Context {
	out := make([]Context, len(t.node.Items))
	for i, item := range t.node.Items {
		out[i] = wrap(item)
	}
	return out
}

func (t *JSONTree) SetInt(key string, value int) {
	if t.node.Ints == nil {
		t.node.Ints = make(map[string]int)
	}
	t.node.Ints[key] = value
}

func (t *JSONTree) SetFloat(key string, value float64) {
	if t.node.Floats == nil {
		t.node.Floats = make(map[string]float64)
	}
	t.node.Floats[key] = value
}

func (t *JSONTree) SetString(key string, value string) {
	if t.node.Strings == nil {
		t.node.Strings = make(map[string]string)
	}
	t.node.Strings[key] = value
}

func (t *JSONTree) SetBytes(key string, value []byte) {
	if t.node.Bytes == nil {
		t.node.Bytes = make(map[string][]byte)
	}
	t.node.Bytes[key] = value
}

func (t *JSONTree) GetInt(key string) (int, bool) {
	v, ok := t.node.Ints[key]
	return v, ok
}

func (t *JSONTree) GetFloat(key string) (float64, bool) {
	v, ok := t.node.Floats[key]
	return v, ok
}

func (t *JSONTree) GetString(key string) (string, bool) {
	v, ok := t.node.Strings[key]
	return v, ok
}

func (t *JSONTree) GetBytes(key string) ([]byte, bool) {
	v, ok := t.node.Bytes[key]
	return v, ok
}

// MarshalJSON renders the tree as JSON text.
func (t *JSONTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.node)
}

// UnmarshalJSON reads the tree back from JSON text previously produced by
// MarshalJSON.
func (t *JSONTree) UnmarshalJSON(data []byte) error {
	n := &jsonNode{}
	if err := json.Unmarshal(data, n); err != nil {
		return err
	}
	t.node = n
	return nil
}

// Package fieldtree implements the nested field-value tree shared by the
// validator, the image store and the renderer: a string-keyed tree whose
// nodes are either leaves carrying parameter maps or groups of named
// children. The tree is the unit of persistence for a poster's editable
// content.
package fieldtree

import "sort"

// Params holds the parameters of a leaf value ("text", "filename", "data",
// "id", "url"). Values are the raw JSON scalars; a key mapped to nil is
// treated as absent by Keys and Has, which lets normalized image leaves
// (filename/data nulled out) re-validate cleanly.
type Params map[string]any

// Keys returns the non-nil parameter names in ascending order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present with a non-nil value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the parameter as a string, or "" if absent or not a string.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Clone returns a shallow copy of the parameter map.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Node is one entry in a field value tree: a leaf (Params set) or a group
// (Children set). A node is never both.
type Node struct {
	Params   Params
	Children Tree
}

// IsGroup reports whether the node is a group of named children.
func (n *Node) IsGroup() bool { return n != nil && n.Children != nil }

// Leaf constructs a leaf node.
func Leaf(params Params) *Node { return &Node{Params: params} }

// Group constructs a group node.
func Group(children Tree) *Node { return &Node{Children: children} }

func (n *Node) clone() *Node {
	if n == nil {
		return nil
	}
	if n.IsGroup() {
		return &Node{Children: n.Children.Clone()}
	}
	return &Node{Params: n.Params.Clone()}
}

// Tree maps field names to nodes. Field names at a given level are unique
// by construction (map semantics).
type Tree map[string]*Node

// Keys returns the field names at this level in ascending order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the node for name, or nil.
func (t Tree) Get(name string) *Node {
	if t == nil {
		return nil
	}
	return t[name]
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = v.clone()
	}
	return out
}

// Merge deep-merges candidate over prior and returns a new tree; neither
// input is modified. Merging recurses through groups and through leaf
// parameters: a key present in candidate wins (including explicit nulls),
// keys only in prior are preserved. A leaf/group mismatch for the same
// field resolves wholesale in candidate's favor.
func Merge(candidate, prior Tree) Tree {
	if prior == nil {
		return candidate.Clone()
	}
	out := prior.Clone()
	if out == nil {
		out = make(Tree)
	}
	for name, cand := range candidate {
		base, ok := out[name]
		if !ok || cand.IsGroup() != base.IsGroup() {
			out[name] = cand.clone()
			continue
		}
		if cand.IsGroup() {
			out[name] = &Node{Children: Merge(cand.Children, base.Children)}
			continue
		}
		merged := base.Params.Clone()
		if merged == nil {
			merged = make(Params)
		}
		for k, v := range cand.Params {
			merged[k] = v
		}
		out[name] = &Node{Params: merged}
	}
	return out
}

package fieldtree

import (
	"encoding/json"
	"fmt"
)

// childrenKey is the JSON key under which a group node nests its sub-tree.
const childrenKey = "children"

// MarshalJSON encodes a group as {"children": {...}} and a leaf as its
// parameter object.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n.IsGroup() {
		return json.Marshal(map[string]Tree{childrenKey: n.Children})
	}
	if n.Params == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(n.Params)
}

// UnmarshalJSON decodes a node object. An object carrying a "children" key
// is a group; anything else is a leaf whose keys are its parameters.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("field value must be an object: %w", err)
	}

	if sub, ok := raw[childrenKey]; ok {
		var children Tree
		if err := json.Unmarshal(sub, &children); err != nil {
			return fmt.Errorf("invalid children: %w", err)
		}
		if len(raw) > 1 {
			return fmt.Errorf("group node cannot carry extra keys besides %q", childrenKey)
		}
		n.Children = children
		n.Params = nil
		return nil
	}

	var params Params
	if err := json.Unmarshal(data, &params); err != nil {
		return err
	}
	n.Params = params
	n.Children = nil
	return nil
}

// Parse decodes a JSON document into a tree.
func Parse(data []byte) (Tree, error) {
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse field tree: %w", err)
	}
	return t, nil
}

// Dump encodes the tree as JSON.
func Dump(t Tree) ([]byte, error) {
	if t == nil {
		t = Tree{}
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode field tree: %w", err)
	}
	return data, nil
}

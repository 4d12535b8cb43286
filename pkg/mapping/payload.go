package mapping

import (
	"encoding/json"
	"sort"
)

// Wire markers of the $attributes / $value representation of a payload tree.
const (
	AttributesKey = "$attributes"
	ValueKey      = "$value"
)

// PayloadNode is one element of an outbound payload tree. The root node
// stands for the operation element itself.
type PayloadNode struct {
	Attrs    map[string]string
	Text     string
	Children map[string]*PayloadNode
}

// NewPayloadNode returns an empty node.
func NewPayloadNode() *PayloadNode {
	return &PayloadNode{}
}

// Child returns the child named name, creating it when absent.
func (n *PayloadNode) Child(name string) *PayloadNode {
	if n.Children == nil {
		n.Children = make(map[string]*PayloadNode)
	}
	c, ok := n.Children[name]
	if !ok {
		c = NewPayloadNode()
		n.Children[name] = c
	}
	return c
}

// SetAttr sets an attribute on n.
func (n *PayloadNode) SetAttr(name, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[name] = value
}

// IsEmpty reports whether n has no attributes, text or children.
func (n *PayloadNode) IsEmpty() bool {
	return n == nil || (len(n.Attrs) == 0 && n.Text == "" && len(n.Children) == 0)
}

// ChildNames returns the child names in sorted order.
func (n *PayloadNode) ChildNames() []string {
	return sortedKeys(n.Children)
}

// AttrNames returns the attribute names in sorted order.
func (n *PayloadNode) AttrNames() []string {
	return sortedKeys(n.Attrs)
}

// Wire returns the tree as nested maps using the $attributes and $value
// markers.
func (n *PayloadNode) Wire() map[string]any {
	out := make(map[string]any, len(n.Children)+2)
	if len(n.Attrs) > 0 {
		attrs := make(map[string]any, len(n.Attrs))
		for k, v := range n.Attrs {
			attrs[k] = v
		}
		out[AttributesKey] = attrs
	}
	if n.Text != "" {
		out[ValueKey] = n.Text
	}
	for name, c := range n.Children {
		out[name] = c.Wire()
	}
	return out
}

// MarshalJSON encodes the wire representation.
func (n *PayloadNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Wire())
}

// Prefixes returns the sorted, de-duplicated namespace prefixes used by
// element and attribute names in the tree.
func (n *PayloadNode) Prefixes() []string {
	seen := make(map[string]bool)
	n.collectPrefixes(seen)
	return sortedKeys(seen)
}

func (n *PayloadNode) collectPrefixes(seen map[string]bool) {
	for name := range n.Attrs {
		if p := (PathToken{Name: name}).Prefix(); p != "" {
			seen[p] = true
		}
	}
	for name, c := range n.Children {
		if p := (PathToken{Name: name}).Prefix(); p != "" {
			seen[p] = true
		}
		c.collectPrefixes(seen)
	}
}

// Payload is the outcome of BuildRequest: either a rendered raw body or a
// payload tree.
type Payload struct {
	// Raw is the rendered body template, sent verbatim when Tree is nil.
	Raw  string
	Tree *PayloadNode
}

// IsRaw reports whether the payload is a rendered template.
func (p Payload) IsRaw() bool {
	return p.Tree == nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

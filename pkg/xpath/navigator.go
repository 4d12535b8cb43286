package xpath

import (
	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// navigator walks an etree document for the XPath engine. Comments,
// processing instructions and namespace declarations are not visible.
type navigator struct {
	root *etree.Element
	// curr is the current element, or the parent of the current text node.
	curr *etree.Element
	text *etree.CharData
	// attr indexes curr.Attr when positioned on an attribute, else -1.
	attr int
}

var _ xpath.NodeNavigator = (*navigator)(nil)

func newNavigator(ctx *etree.Element) *navigator {
	return &navigator{root: documentOf(ctx), curr: ctx, attr: -1}
}

func isDocument(e *etree.Element) bool {
	return e.Parent() == nil && e.Tag == ""
}

func (n *navigator) NodeType() xpath.NodeType {
	switch {
	case n.attr >= 0:
		return xpath.AttributeNode
	case n.text != nil:
		return xpath.TextNode
	case isDocument(n.curr):
		return xpath.RootNode
	}
	return xpath.ElementNode
}

func (n *navigator) LocalName() string {
	switch {
	case n.attr >= 0:
		return n.curr.Attr[n.attr].Key
	case n.text != nil:
		return ""
	}
	return n.curr.Tag
}

func (n *navigator) Prefix() string {
	switch {
	case n.attr >= 0:
		return n.curr.Attr[n.attr].Space
	case n.text != nil:
		return ""
	}
	return n.curr.Space
}

// NamespaceURL lets prefixed name tests match by URI rather than by the
// prefix the document author chose.
func (n *navigator) NamespaceURL() string {
	switch {
	case n.attr >= 0:
		a := n.curr.Attr[n.attr]
		if a.Space == "" {
			return ""
		}
		return namespaceOf(n.curr, a.Space)
	case n.text != nil:
		return ""
	}
	return namespaceOf(n.curr, n.curr.Space)
}

func (n *navigator) Value() string {
	return n.node().String()
}

func (n *navigator) Copy() xpath.NodeNavigator {
	c := *n
	return &c
}

func (n *navigator) MoveToRoot() {
	n.curr, n.text, n.attr = n.root, nil, -1
}

func (n *navigator) MoveToParent() bool {
	switch {
	case n.attr >= 0:
		n.attr = -1
		return true
	case n.text != nil:
		n.text = nil
		return true
	}
	if p := n.curr.Parent(); p != nil {
		n.curr = p
		return true
	}
	return false
}

func (n *navigator) MoveToNextAttribute() bool {
	if n.text != nil {
		return false
	}
	for i := n.attr + 1; i < len(n.curr.Attr); i++ {
		if !isNamespaceDecl(n.curr.Attr[i]) {
			n.attr = i
			return true
		}
	}
	return false
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 || n.text != nil {
		return false
	}
	for _, tok := range n.curr.Child {
		if n.moveToToken(n.curr, tok) {
			return true
		}
	}
	return false
}

func (n *navigator) MoveToFirst() bool {
	if n.attr >= 0 {
		return false
	}
	parent := n.parentElement()
	if parent == nil {
		return false
	}
	for _, tok := range parent.Child {
		if n.moveToToken(parent, tok) {
			return true
		}
	}
	return false
}

func (n *navigator) MoveToNext() bool {
	return n.moveSibling(1)
}

func (n *navigator) MoveToPrevious() bool {
	return n.moveSibling(-1)
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.root != n.root {
		return false
	}
	*n = *o
	return true
}

// parentElement returns the element holding the current text or element
// node as a child.
func (n *navigator) parentElement() *etree.Element {
	if n.text != nil {
		return n.curr
	}
	return n.curr.Parent()
}

func (n *navigator) current() etree.Token {
	if n.text != nil {
		return n.text
	}
	return n.curr
}

func (n *navigator) moveSibling(dir int) bool {
	if n.attr >= 0 {
		return false
	}
	parent := n.parentElement()
	if parent == nil {
		return false
	}
	i := tokenIndex(parent, n.current())
	if i < 0 {
		return false
	}
	for i += dir; i >= 0 && i < len(parent.Child); i += dir {
		if n.moveToToken(parent, parent.Child[i]) {
			return true
		}
	}
	return false
}

func (n *navigator) moveToToken(parent *etree.Element, tok etree.Token) bool {
	switch t := tok.(type) {
	case *etree.Element:
		n.curr, n.text = t, nil
		return true
	case *etree.CharData:
		n.curr, n.text = parent, t
		return true
	}
	return false
}

// node converts the current position to a Node.
func (n *navigator) node() Node {
	switch {
	case n.attr >= 0:
		return Node{Attr: &n.curr.Attr[n.attr], owner: n.curr, attrIndex: n.attr}
	case n.text != nil:
		return Node{Text: n.text, owner: n.curr}
	}
	return Node{Element: n.curr}
}

func tokenIndex(parent *etree.Element, tok etree.Token) int {
	for i, c := range parent.Child {
		if c == tok {
			return i
		}
	}
	return -1
}

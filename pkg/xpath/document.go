package xpath

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// ErrNoRootElement is returned when a document has no root element.
var ErrNoRootElement = errors.New("document has no root element")

// ReadDocument parses an XML document. Non-UTF-8 encodings declared in the
// XML prolog are decoded.
func ReadDocument(data []byte) (*etree.Document, error) {
	if err := checkWellFormed(data); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, ErrNoRootElement
	}
	return doc, nil
}

// checkWellFormed runs the strict decoder over data. etree reads raw tokens
// and does not verify that end tags match their start tags.
func checkWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Node is one member of a node-set. Exactly one exported field is set.
type Node struct {
	Element *etree.Element
	Attr    *etree.Attr
	Text    *etree.CharData

	// owner holds the element of an attribute or the parent of a text node.
	owner     *etree.Element
	attrIndex int
}

// IsElement reports whether the node is an element (or the document node).
func (n Node) IsElement() bool {
	return n.Element != nil
}

// String returns the XPath string-value of the node: attribute value, text
// data, or the concatenated descendant text of an element.
func (n Node) String() string {
	switch {
	case n.Attr != nil:
		return n.Attr.Value
	case n.Text != nil:
		return n.Text.Data
	case n.Element != nil:
		var sb strings.Builder
		writeText(&sb, n.Element)
		return sb.String()
	}
	return ""
}

func writeText(sb *strings.Builder, e *etree.Element) {
	for _, tok := range e.Child {
		switch c := tok.(type) {
		case *etree.CharData:
			sb.WriteString(c.Data)
		case *etree.Element:
			writeText(sb, c)
		}
	}
}

// position returns the path of child indexes from the document to the
// node. An attribute sorts after its element and before the element's
// children.
func (n Node) position() []int {
	switch {
	case n.Attr != nil:
		return append(elementPosition(n.owner), -1, n.attrIndex)
	case n.Text != nil:
		return append(elementPosition(n.owner), tokenIndex(n.owner, n.Text))
	}
	return elementPosition(n.Element)
}

func elementPosition(e *etree.Element) []int {
	var path []int
	for p := e.Parent(); p != nil; e, p = p, p.Parent() {
		path = append(path, tokenIndex(p, e))
	}
	slices.Reverse(path)
	return path
}

// documentOf returns the document node that owns e, or the topmost ancestor
// when e is detached.
func documentOf(e *etree.Element) *etree.Element {
	for e.Parent() != nil {
		e = e.Parent()
	}
	return e
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// namespaceOf resolves prefix in the scope of e. The empty prefix resolves
// the default namespace.
func namespaceOf(e *etree.Element, prefix string) string {
	if prefix == "xml" {
		return xmlNamespace
	}
	for p := e; p != nil; p = p.Parent() {
		for _, a := range p.Attr {
			if prefix == "" {
				if a.Space == "" && a.Key == "xmlns" {
					return a.Value
				}
			} else if a.Space == "xmlns" && a.Key == prefix {
				return a.Value
			}
		}
	}
	return ""
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// LookupNamespace resolves prefix in the scope of e, for QNames that appear
// in attribute values. The empty prefix resolves the default namespace.
func LookupNamespace(e *etree.Element, prefix string) string {
	return namespaceOf(e, prefix)
}

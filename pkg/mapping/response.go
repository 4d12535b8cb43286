package mapping

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/getmockd/soapmap/pkg/xpath"
)

// ParseError reports a response body that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "failed to parse response body: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MapResponse projects a response body into one Record per result node.
//
// The path selector picks the result nodes; without one the root element is
// the single result node. Relative selectors and field paths are evaluated
// from the root element. Each response-table entry is evaluated relative
// to the node and coerced by the type of its field. A selector matching
// nothing yields an empty, non-nil slice.
func MapResponse(fields map[string]FieldDescriptor, action *ActionDescriptor, body []byte) ([]Record, error) {
	doc, err := xpath.ReadDocument(body)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	nodes := []*etree.Element{doc.Root()}
	if action.PathSelector != "" {
		nodes, err = selectNodes(doc.Root(), action)
		if err != nil {
			return nil, err
		}
	}

	table := action.ResponseTable()
	compiled := make(map[string]*xpath.Expr, len(table))
	for key, expr := range table {
		x, err := xpath.Compile(expr, action.Namespaces)
		if err != nil {
			return nil, fmt.Errorf("response mapping %q: %w", key, err)
		}
		compiled[key] = x
	}

	records := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		rec := make(Record, len(compiled))
		for key, x := range compiled {
			fd, ok := fields[key]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingField, key)
			}
			raw, found := "", false
			if m, ok := x.First(n); ok {
				raw, found = m.String(), true
			}
			v, err := Coerce(fd.Type, raw, found)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", key, err)
			}
			rec[key] = v
		}
		records = append(records, rec)
	}
	return records, nil
}

func selectNodes(root *etree.Element, action *ActionDescriptor) ([]*etree.Element, error) {
	x, err := xpath.Compile(action.PathSelector, action.Namespaces)
	if err != nil {
		return nil, fmt.Errorf("path selector: %w", err)
	}
	var out []*etree.Element
	for _, n := range x.Select(root) {
		if !n.IsElement() {
			return nil, fmt.Errorf("path selector %q must select elements", action.PathSelector)
		}
		out = append(out, n.Element)
	}
	return out, nil
}

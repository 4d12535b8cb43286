package xpath

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

// Expression errors.
var (
	ErrEmptyExpression = errors.New("empty path expression")
	ErrSyntax          = errors.New("invalid path expression")
	ErrUndefinedPrefix = errors.New("undefined namespace prefix")
)

// Expr is a compiled path expression.
type Expr struct {
	source string
	expr   *xpath.Expr
}

// String returns the source expression.
func (x *Expr) String() string {
	return x.source
}

var (
	literalPattern = regexp.MustCompile(`'[^']*'|"[^"]*"`)
	// A QName prefix is a name followed by a single colon and a name or "*".
	// Axis separators ("::") do not match.
	prefixPattern = regexp.MustCompile(`(?:^|[^\w.:-])([A-Za-z_][\w.-]*):[A-Za-z_*]`)
)

// Compile parses expr and binds its prefixes to namespaces. Every prefix
// must be bound; "xml" is always available.
func Compile(expr string, namespaces map[string]string) (*Expr, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, ErrEmptyExpression
	}

	bound := map[string]string{"xml": xmlNamespace}
	for prefix, uri := range namespaces {
		bound[prefix] = uri
	}
	for _, m := range prefixPattern.FindAllStringSubmatch(literalPattern.ReplaceAllString(src, "''"), -1) {
		if _, ok := bound[m[1]]; !ok {
			return nil, fmt.Errorf("%w %q in %q", ErrUndefinedPrefix, m[1], expr)
		}
	}

	compiled, err := xpath.CompileWithNS(src, bound)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrSyntax, expr, err)
	}
	return &Expr{source: src, expr: compiled}, nil
}

// Select evaluates the expression with ctx as the context node and returns
// the matching nodes in document order, without duplicates.
func (x *Expr) Select(ctx *etree.Element) []Node {
	if ctx == nil {
		return nil
	}

	type entry struct {
		node Node
		pos  []int
	}
	var (
		out  []entry
		seen = make(map[string]bool)
	)
	iter := x.expr.Select(newNavigator(ctx))
	for iter.MoveNext() {
		nav, ok := iter.Current().(*navigator)
		if !ok {
			continue
		}
		n := nav.node()
		pos := n.position()
		key := fmt.Sprint(pos)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, entry{node: n, pos: pos})
	}

	slices.SortStableFunc(out, func(a, b entry) int {
		return slices.Compare(a.pos, b.pos)
	})
	nodes := make([]Node, len(out))
	for i, e := range out {
		nodes[i] = e.node
	}
	return nodes
}

// First returns the first node, in document order, selected from ctx.
func (x *Expr) First(ctx *etree.Element) (Node, bool) {
	nodes := x.Select(ctx)
	if len(nodes) == 0 {
		return Node{}, false
	}
	return nodes[0], true
}

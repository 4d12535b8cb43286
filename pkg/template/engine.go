package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/soapmap/pkg/util"
)

// ErrUnterminated is returned for a "{{" without a matching "}}".
var ErrUnterminated = errors.New("unterminated template expression")

// Engine renders templates against a context map. Engines hold no state and
// are safe for concurrent use.
type Engine struct {
	escape bool
}

// New creates an engine that escapes {{...}} values.
func New() *Engine {
	return &Engine{escape: true}
}

// NewRaw creates an engine that never escapes values.
func NewRaw() *Engine {
	return &Engine{}
}

var (
	defaultEngine = New()
	rawEngine     = NewRaw()
)

// Render stringifies template and interpolates it against ctx with escaping.
func Render(template any, ctx map[string]any) (string, error) {
	return defaultEngine.Process(source(template), ctx)
}

// RenderRaw is Render without escaping.
func RenderRaw(template any, ctx map[string]any) (string, error) {
	return rawEngine.Process(source(template), ctx)
}

func source(template any) string {
	if s, ok := template.(string); ok {
		return s
	}
	if template == nil || template == false {
		return ""
	}
	return util.Stringify(template)
}

// templateRegex matches {{{expression}}} and {{expression}} with optional
// whitespace.
var templateRegex = regexp.MustCompile(`\{\{\{\s*([^{}]*?)\s*\}\}\}|\{\{\s*([^{}]*?)\s*\}\}`)

// Process evaluates template with the given context.
func (e *Engine) Process(template string, ctx map[string]any) (string, error) {
	if !strings.Contains(template, "{{") {
		return template, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range templateRegex.FindAllStringSubmatchIndex(template, -1) {
		literal := template[last:m[0]]
		if strings.Contains(literal, "{{") {
			return "", fmt.Errorf("%w at offset %d", ErrUnterminated, last+strings.Index(literal, "{{"))
		}
		sb.WriteString(literal)

		raw := m[2] >= 0
		expr := ""
		if raw {
			expr = template[m[2]:m[3]]
		} else {
			expr = template[m[4]:m[5]]
		}
		val, err := e.evaluate(expr, ctx)
		if err != nil {
			return "", err
		}
		if e.escape && !raw {
			val = Escape(val)
		}
		sb.WriteString(val)
		last = m[1]
	}

	rest := template[last:]
	if i := strings.Index(rest, "{{"); i >= 0 {
		return "", fmt.Errorf("%w at offset %d", ErrUnterminated, last+i)
	}
	sb.WriteString(rest)
	return sb.String(), nil
}

// evaluate resolves one expression. Missing values render empty.
func (e *Engine) evaluate(expr string, ctx map[string]any) (string, error) {
	x, err := compilePath(expr)
	if err != nil {
		return "", err
	}
	if x == nil {
		return util.Stringify(ctx), nil
	}
	return formatValue(x.First(ctx)), nil
}

// compilePath turns a handlebars-style path into a JSONPath expression. A
// nil expression refers to the context itself.
func compilePath(expr string) (jp.Expr, error) {
	if expr == "" {
		return nil, fmt.Errorf("empty template expression")
	}
	path := strings.TrimPrefix(expr, "./")
	path = strings.ReplaceAll(path, "/", ".")
	path = strings.TrimPrefix(path, "this.")
	if path == "this" || path == "." {
		return nil, nil
	}

	x := jp.R()
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return nil, fmt.Errorf("invalid template expression %q", expr)
		}
		if strings.ContainsAny(part, " \t\n\"'()") {
			return nil, fmt.Errorf("unsupported template expression %q", expr)
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			x = x.N(n)
			continue
		}
		x = x.C(part)
	}
	return x, nil
}

func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return util.Stringify(val)
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"`", "&#x60;",
	"=", "&#x3D;",
)

// Escape replaces the characters handlebars escapes with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

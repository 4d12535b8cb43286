package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPath is returned by ParsePath for expressions outside the
// path-token grammar.
var ErrMalformedPath = errors.New("malformed request path")

// TokenKind distinguishes element tokens from attribute tokens.
type TokenKind int

const (
	TokenElement TokenKind = iota
	TokenAttribute
)

// PathToken is one step of a request path. Name keeps its namespace prefix,
// if any, and never includes the leading '@' of an attribute.
type PathToken struct {
	Kind TokenKind
	Name string
}

// String renders the token the way it is written in a path.
func (t PathToken) String() string {
	if t.Kind == TokenAttribute {
		return "@" + t.Name
	}
	return t.Name
}

// Prefix returns the namespace prefix of the token name, or "".
func (t PathToken) Prefix() string {
	if p, _, ok := strings.Cut(t.Name, ":"); ok {
		return p
	}
	return ""
}

// ParsePath tokenizes a request path expression:
//
//	path    := head segment*
//	head    := steps
//	segment := "[" steps "]"
//	steps   := step ( ( "." | "-" ) step )*
//	step    := attr | qname
//	attr    := "@" qname
//	qname   := ( ident ":" )? ident
//	ident   := [A-Za-z0-9_]+
//
// "." and "-" separate nested elements, so "a.b" and "a[b]" are the same
// path. An attribute may only be the last token.
func ParsePath(expr string) ([]PathToken, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}

	var tokens []PathToken
	head, rest := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		head, rest = s[:i], s[i:]
	}
	steps, err := parseSteps(head)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrMalformedPath, expr, err)
	}
	tokens = append(tokens, steps...)

	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("%w %q: expected '[' at %q", ErrMalformedPath, expr, rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w %q: unterminated segment", ErrMalformedPath, expr)
		}
		steps, err := parseSteps(rest[1:end])
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrMalformedPath, expr, err)
		}
		tokens = append(tokens, steps...)
		rest = rest[end+1:]
	}

	for _, t := range tokens[:len(tokens)-1] {
		if t.Kind == TokenAttribute {
			return nil, fmt.Errorf("%w %q: attribute %s must be the last token", ErrMalformedPath, expr, t)
		}
	}
	return tokens, nil
}

func parseSteps(s string) ([]PathToken, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '-' })
	if len(parts) == 0 || strings.Count(s, ".")+strings.Count(s, "-") != len(parts)-1 {
		return nil, fmt.Errorf("invalid name %q", s)
	}
	tokens := make([]PathToken, 0, len(parts))
	for _, part := range parts {
		tok, err := parseToken(part)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func parseToken(s string) (PathToken, error) {
	kind := TokenElement
	if strings.HasPrefix(s, "@") {
		kind = TokenAttribute
		s = s[1:]
	}
	if !validQName(s) {
		return PathToken{}, fmt.Errorf("invalid name %q", s)
	}
	return PathToken{Kind: kind, Name: s}, nil
}

func validQName(s string) bool {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return validIdent(s)
	}
	return validIdent(prefix) && validIdent(local)
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// Package template interpolates {{placeholder}} tokens in body templates and
// credential fields.
//
// # Syntax
//
//   - {{name}} - context value, XML/HTML-escaped
//   - {{a.b.c}} or {{a/b/c}} - nested map value; numeric parts index lists
//   - {{{name}}} - context value, unescaped
//   - {{this}} - the context itself
//
// Unknown names render as an empty string. Only variable substitution is
// supported: there are no blocks, helpers or partials. Nested lookups are
// resolved with ojg JSONPath child and index fragments.
//
// A template without "{{" is returned unchanged without being parsed.
//
// # Escaping
//
// Render escapes & < > " ' ` and = the way handlebars does, which keeps
// interpolated values safe inside XML text and attribute values. RenderRaw
// skips escaping; it is meant for values that never end up in markup, such
// as credentials.
package template

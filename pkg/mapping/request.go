package mapping

import (
	"fmt"
	"math"

	"github.com/getmockd/soapmap/pkg/template"
	"github.com/getmockd/soapmap/pkg/util"
)

// BuildRequest turns caller arguments into an outbound payload.
//
// Defaults are merged under args first. A body template, when present, is
// rendered against the merged arguments and the request table is ignored.
// Otherwise every request-table key with a value in the arguments is placed
// into the tree at its path. Terminal text and attributes are only set for
// truthy values; malformed paths are skipped.
func BuildRequest(action *ActionDescriptor, args map[string]any) (Payload, error) {
	effective := args
	if action.DefaultParameters != nil {
		effective = MergeDefaults(action.DefaultParameters, args)
	}

	if action.BodyPayloadTemplate != "" {
		raw, err := template.Render(action.BodyPayloadTemplate, effective)
		if err != nil {
			return Payload{}, fmt.Errorf("failed to render body template: %w", err)
		}
		return Payload{Raw: raw}, nil
	}

	root := NewPayloadNode()
	table := action.RequestTable()
	for _, key := range sortedKeys(table) {
		value, ok := effective[key]
		if !ok {
			continue
		}
		tokens, err := ParsePath(table[key])
		if err != nil {
			continue
		}
		place(root, tokens, value)
	}
	return Payload{Tree: root}, nil
}

func place(root *PayloadNode, tokens []PathToken, value any) {
	cur := root
	for _, t := range tokens[:len(tokens)-1] {
		cur = cur.Child(t.Name)
	}
	if !Truthy(value) {
		return
	}

	last := tokens[len(tokens)-1]
	text := util.Stringify(value)
	if last.Kind == TokenAttribute {
		cur.SetAttr(last.Name, text)
		return
	}
	cur.Child(last.Name).Text = text
}

// Truthy applies JavaScript truthiness to an argument value: nil, false, "",
// zero and NaN are falsy, everything else is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case uint:
		return x != 0
	case uint64:
		return x != 0
	}
	return true
}

// MergeDefaults deep-merges args over a deep copy of defaults. Caller values
// win at every level except nil, which keeps the default. Nested maps are
// merged key by key and slices index by index. Neither input is modified.
func MergeDefaults(defaults, args map[string]any) map[string]any {
	out, _ := deepCopy(defaults).(map[string]any)
	if out == nil {
		out = make(map[string]any, len(args))
	}
	for k, v := range args {
		out[k] = mergeValue(out[k], v)
	}
	return out
}

func mergeValue(dst, src any) any {
	if src == nil {
		return dst
	}
	switch s := src.(type) {
	case map[string]any:
		d, ok := dst.(map[string]any)
		if !ok {
			return deepCopy(s)
		}
		for k, v := range s {
			d[k] = mergeValue(d[k], v)
		}
		return d
	case []any:
		d, ok := dst.([]any)
		if !ok {
			return deepCopy(s)
		}
		for i, v := range s {
			if i < len(d) {
				d[i] = mergeValue(d[i], v)
			} else {
				d = append(d, deepCopy(v))
			}
		}
		return d
	}
	return src
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if x == nil {
			return map[string]any(nil)
		}
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		if x == nil {
			return []any(nil)
		}
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = deepCopy(val)
		}
		return s
	}
	return v
}

package cli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// parseArgs builds request arguments from a JSON object and key=value
// pairs. Pairs override keys of the object.
func parseArgs(data string, pairs []string) (map[string]any, error) {
	args := make(map[string]any)
	if strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), &args); err != nil {
			return nil, fmt.Errorf("--data must be a JSON object: %w", err)
		}
		if args == nil {
			args = make(map[string]any)
		}
	}
	kv, err := parseKeyValues(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range kv {
		args[k] = v
	}
	return args, nil
}

// parseKeyValues parses key=value pairs. The value may be empty or contain
// further '=' characters.
func parseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// placeholders returns the sorted, distinct {{name}} variables of the
// templates. Dotted paths are not reported.
func placeholders(templates ...string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range templates {
		for _, m := range placeholderPattern.FindAllStringSubmatch(t, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				names = append(names, m[1])
			}
		}
	}
	sort.Strings(names)
	return names
}

// missing returns the names that have no value in values.
func missing(names []string, values map[string]any) []string {
	var out []string
	for _, n := range names {
		if _, ok := values[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

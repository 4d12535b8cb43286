package cli

import (
	"io"
	"math"

	"github.com/getmockd/soapmap/pkg/cli/internal/output"
	"github.com/getmockd/soapmap/pkg/mapping"
)

// printResult outputs a single operation result.
//
// Contract: when --json is active, ONLY the JSON encoding of data is written
// to w. Human-readable prose (progress messages, hints) must go to stderr
// or be omitted entirely. textFn is called only in text mode.
func printResult(w io.Writer, data any, textFn func() error) error {
	if jsonOutput {
		return output.JSON(w, data)
	}
	return textFn()
}

// printRecords writes mapped records as a JSON array or a table.
func printRecords(w io.Writer, records []mapping.Record) error {
	rows := make([]map[string]any, len(records))
	for i, r := range records {
		rows[i] = jsonSafe(r)
	}
	return printResult(w, rows, func() error {
		return output.Rows(w, rows)
	})
}

// jsonSafe replaces NaN, which JSON cannot carry, with null.
func jsonSafe(r mapping.Record) map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			v = nil
		}
		out[k] = v
	}
	return out
}

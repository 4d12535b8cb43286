package mapping

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Coerce converts the raw text of a response field into the value for its
// declared type. found is false when the field path matched nothing.
//
//	integer, float   numeric value as float64; NaN when missing or not a number
//	text             the text unchanged; nil when missing
//	date, datetime   UTC timestamp "2006-01-02T15:04:05.000Z"; nil when missing or invalid
//	boolean          true only for the exact text "true"
func Coerce(t FieldType, raw string, found bool) (any, error) {
	switch t {
	case FieldInteger, FieldFloat:
		if !found {
			return math.NaN(), nil
		}
		return ParseNumber(raw), nil
	case FieldText:
		if !found {
			return nil, nil
		}
		return raw, nil
	case FieldDate, FieldDatetime:
		if !found {
			return nil, nil
		}
		ts, ok := ParseTimestamp(raw)
		if !ok {
			return nil, nil
		}
		return FormatTimestamp(ts), nil
	case FieldBoolean:
		return found && raw == "true", nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFieldType, t)
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

// ParseNumber parses s the way a JavaScript Number() conversion does:
// surrounding whitespace is ignored, an empty string is 0, 0x/0o/0b prefixes
// select a radix, "Infinity" is accepted with an optional sign and anything
// else that is not a decimal literal is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsAny(s[2:3], "+-") {
				return math.NaN()
			}
			n, ok := new(big.Int).SetString(s[2:], base)
			if !ok {
				return math.NaN()
			}
			f, _ := new(big.Float).SetInt(n).Float64()
			return f
		}
	}

	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals still carry the correctly signed Inf or zero.
		if errors.Is(err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

// TimestampLayout is the canonical rendering of date and datetime fields.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
}

// ParseTimestamp parses ISO 8601 / RFC 3339 dates and date-times as well as
// the RFC 1123 family. Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders ts in TimestampLayout.
func FormatTimestamp(ts time.Time) string {
	return ts.UTC().Format(TimestampLayout)
}

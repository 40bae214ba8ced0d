// Package normalize turns loosely-typed diet-tracking API payloads into stable
// daily values: numbers, canonical dates, per-day records, per-slot macro
// breakdowns and day totals. Nothing here returns an error for bad input; the
// affected value becomes absent and siblings keep processing.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var numeral = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// Float coerces a decoded JSON value into a float64. The second result is false
// when the value is absent: nil, "", "-", a string without any numeral, or an
// unsupported type. Strings may carry thousands separators and unit suffixes
// ("1,234.5kcal", "2.1 g"); full-width digits are folded to ASCII first.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return FloatString(string(x))
		}
		return finite(f)
	case string:
		return FloatString(x)
	default:
		return 0, false
	}
}

// FloatString is Float for string input.
func FloatString(s string) (float64, bool) {
	s = strings.TrimSpace(width.Narrow.String(s))
	if isPlaceholder(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	m := numeral.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// FloatPtr is Float returning nil for absence.
func FloatPtr(v any) *float64 {
	f, ok := Float(v)
	if !ok {
		return nil
	}
	return &f
}

func isPlaceholder(s string) bool {
	switch s {
	case "", "-", "null", "None":
		return true
	}
	return false
}

// present reports whether a raw field value counts as "supplied" for alias
// lookup: not nil and not one of the placeholder strings.
func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return !isPlaceholder(strings.TrimSpace(s))
	}
	return true
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

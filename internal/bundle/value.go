package bundle

import (
	"math"
	"strconv"
	"strings"
)

// toString coerces a decoded JSON value to a trimmed string. Numbers render
// without a trailing ".0" when integral; NaN and non-scalar values collapse
// to "".
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// toInt coerces a decoded JSON value to an int, tolerating numeric strings.
func toInt(v any) int {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return 0
		}
		return int(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return int(f)
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// toStrings coerces a decoded JSON list to its non-empty string elements.
func toStrings(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s := toString(item); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

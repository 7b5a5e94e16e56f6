package cms

import (
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// CamelizeKeys returns a copy of v with every object key, at any depth,
// converted from snake_case to camelCase. Arrays and scalar values are kept
// as they are. The input is never modified.
//
// When two keys collapse onto the same camelCase key, the one that sorts last
// wins so the output does not depend on map iteration order.
func CamelizeKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			out[Camelize(k)] = CamelizeKeys(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CamelizeKeys(item)
		}
		return out
	default:
		return v
	}
}

// Camelize converts a single key. Numeric keys are returned unchanged.
// Runs of '-', '_' or whitespace are dropped and the character following
// them is upper-cased; the first character is always lower-cased.
func Camelize(key string) string {
	if isNumericKey(key) {
		return key
	}

	var b strings.Builder
	b.Grow(len(key))
	upperNext := false
	for _, r := range key {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			upperNext = true
			continue
		}
		if upperNext {
			r = unicode.ToUpper(r)
			upperNext = false
		}
		b.WriteRune(r)
	}

	out := b.String()
	first, size := utf8.DecodeRuneInString(out)
	if size == 0 {
		return out
	}
	return string(unicode.ToLower(first)) + out[size:]
}

// isNumericKey reports whether key reads as a number, blank keys included.
func isNumericKey(key string) bool {
	s := strings.TrimSpace(key)
	if s == "" {
		return true
	}
	if strings.ContainsRune(s, '_') {
		return false
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		_, err := strconv.ParseUint(s, 0, 64)
		return parsedAsNumber(err)
	}
	if strings.Contains(lower, "nan") {
		return false
	}
	if strings.Contains(lower, "inf") {
		switch s {
		case "Infinity", "+Infinity", "-Infinity":
			return true
		}
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return parsedAsNumber(err)
}

// out-of-range values still read as numbers (they overflow to Infinity)
func parsedAsNumber(err error) bool {
	return err == nil || errors.Is(err, strconv.ErrRange)
}

package hydrate

import (
	"strconv"
	"strings"

	"github.com/open-physiology/lyphgraph/pkg/model"
)

// isEmpty reports whether a field value counts as unset for resolution:
// nil, false, zero, "" or an empty container.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	case *model.Resource:
		return t == nil
	}
	if f, ok := model.ToFloat(v); ok {
		return f == 0
	}
	return false
}

// numericID converts a numeric id to its canonical string form.
func numericID(v any) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	}
	if f, ok := model.ToFloat(v); ok {
		return model.FormatID(f), true
	}
	return "", false
}

// exemptKey reports whether a key is bookkeeping rather than model data and
// so never triggers an unknown-property warning.
func exemptKey(key string) bool {
	return strings.Contains(key, "ByID") || key == "_inactive"
}

// number reads a numeric option, falling back to def when absent.
func number(m map[string]any, key string, def float64) float64 {
	if f, ok := model.ToFloat(m[key]); ok {
		return f
	}
	return def
}

// flatten expands nested arrays into a single sequence.
func flatten(vals []any) []any {
	var out []any
	for _, v := range vals {
		if arr, ok := v.([]any); ok {
			out = append(out, flatten(arr)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

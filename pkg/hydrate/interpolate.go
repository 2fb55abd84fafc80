package hydrate

import (
	"github.com/open-physiology/lyphgraph/pkg/colormap"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/jsonpath"
	"github.com/open-physiology/lyphgraph/pkg/model"
)

// defaultInterpolationPath selects a group's nodes.
const defaultInterpolationPath = "$.nodes"

// applyInterpolations runs res's "interpolate" statements.
func (s *Session) applyInterpolations(res *model.Resource) {
	entries, _ := res.Fields[fieldInterpolate].([]any)
	for i, e := range entries {
		stmt, ok := e.(map[string]any)
		if !ok {
			s.warn(errors.ErrCodeInvalidPath, res, fieldInterpolate, "statement %d is not an object", i)
			continue
		}
		path, _ := stmt["path"].(string)
		if path == "" {
			path = defaultInterpolationPath
		}
		p, err := jsonpath.Compile(path)
		if err != nil {
			s.warn(errors.ErrCodeInvalidPath, res, fieldInterpolate, "%v", err)
			continue
		}
		seq := p.Eval(res)
		if len(seq) == 1 {
			if arr, ok := seq[0].([]any); ok {
				seq = arr
			}
		}
		if spec, ok := stmt["offset"].(map[string]any); ok {
			s.interpolateOffset(res, seq, spec)
		}
		if spec, ok := stmt["color"].(map[string]any); ok {
			s.interpolateColor(res, seq, spec)
		}
	}
}

// interpolateOffset spreads offsets over the interior of [start, end]:
// the i-th of n items gets start + step*(i+1).
func (s *Session) interpolateOffset(res *model.Resource, seq []any, spec map[string]any) {
	n := float64(len(seq))
	start := number(spec, "start", 0)
	end := number(spec, "end", 1)
	step := number(spec, "step", (end-start)/(n+1))
	for i, item := range seq {
		s.setValue(res, item, "offset", start+step*float64(i+1))
	}
}

// interpolateColor assigns colors sampled from a named scale. Nested arrays
// are colored positionally with the same scale.
func (s *Session) interpolateColor(res *model.Resource, seq []any, spec map[string]any) {
	scheme, _ := spec["scheme"].(string)
	scale, ok := colormap.Lookup(scheme)
	if !ok {
		s.warn(errors.ErrCodeUnknownColorScheme, res, fieldInterpolate, "unknown color scheme %q", scheme)
		return
	}
	length := number(spec, "length", 0)
	if length == 0 {
		length = float64(len(seq))
	}
	offset := number(spec, "offset", 0)
	reversed, _ := spec["reversed"].(bool)

	color := func(i int) string {
		t := offset + float64(i)/length
		if reversed {
			t = 1 - offset - float64(i)/length
		}
		return scale(t)
	}
	var paint func(items []any)
	paint = func(items []any) {
		for i, item := range items {
			if isEmpty(item) {
				continue
			}
			if nested, ok := item.([]any); ok {
				paint(nested)
				continue
			}
			s.setValue(res, item, "color", color(i))
		}
	}
	paint(seq)
}

// setValue writes key on a selected item. Only resources and plain objects
// can carry values.
func (s *Session) setValue(owner *model.Resource, item any, key string, v any) bool {
	switch t := item.(type) {
	case *model.Resource:
		t.Set(key, v)
	case map[string]any:
		t[key] = v
	default:
		s.warn(errors.ErrCodeInvalidPath, owner, fieldInterpolate, "cannot set %s on %T", key, item)
		return false
	}
	return true
}

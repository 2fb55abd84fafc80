package jsonpath

import (
	"sort"

	"github.com/open-physiology/lyphgraph/pkg/errors"
)

// Object is a keyed container that is not a plain map. Implementations must
// be comparable (typically pointers) so descent can detect cycles.
type Object interface {
	Field(name string) (any, bool)
	Keys() []string
}

// Path is a compiled selector.
type Path struct {
	src  string
	segs []segment
}

type segment struct {
	descend bool
	sel     selector
}

type selector interface {
	apply(v, root any, out []any) []any
}

// Compile parses a selector.
func Compile(src string) (*Path, error) {
	p := &parser{s: src}
	path, err := p.parse()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "compile %q", src)
	}
	return path, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(src string) *Path {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Eval compiles src and evaluates it against root.
func Eval(src string, root any) ([]any, error) {
	p, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return p.Eval(root), nil
}

// String returns the source text of the selector.
func (p *Path) String() string { return p.src }

// Eval returns every value the selector matches, in document order.
func (p *Path) Eval(root any) []any {
	return evalSegments(p.segs, root, root)
}

func evalSegments(segs []segment, start, root any) []any {
	cur := []any{start}
	for _, seg := range segs {
		var next []any
		for _, v := range cur {
			if !seg.descend {
				next = seg.sel.apply(v, root, next)
				continue
			}
			for _, d := range descendants(v) {
				next = seg.sel.apply(d, root, next)
			}
		}
		cur = next
		if len(cur) == 0 {
			break
		}
	}
	return cur
}

// member looks up a named child.
func member(v any, name string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		c, ok := t[name]
		return c, ok
	case Object:
		return t.Field(name)
	}
	return nil, false
}

// children returns the direct children of a container. Map keys are visited
// in sorted order so results are deterministic.
func children(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = t[k]
		}
		return out
	case Object:
		keys := t.Keys()
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			if c, ok := t.Field(k); ok {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// descendants returns v and everything below it, pre-order.
func descendants(v any) []any {
	var out []any
	seen := make(map[Object]bool)
	var walk func(any)
	walk = func(n any) {
		if o, ok := n.(Object); ok {
			if seen[o] {
				return
			}
			seen[o] = true
		}
		out = append(out, n)
		for _, c := range children(n) {
			walk(c)
		}
	}
	walk(v)
	return out
}

type nameSelector struct{ names []string }

func (s nameSelector) apply(v, _ any, out []any) []any {
	for _, n := range s.names {
		if c, ok := member(v, n); ok {
			out = append(out, c)
		}
	}
	return out
}

type wildcardSelector struct{}

func (wildcardSelector) apply(v, _ any, out []any) []any {
	return append(out, children(v)...)
}

type indexSelector struct{ indices []int }

func (s indexSelector) apply(v, _ any, out []any) []any {
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, i := range s.indices {
		if i < 0 {
			i += len(arr)
		}
		if i >= 0 && i < len(arr) {
			out = append(out, arr[i])
		}
	}
	return out
}

type sliceSelector struct {
	start, end *int
	step       int
}

func (s sliceSelector) apply(v, _ any, out []any) []any {
	arr, ok := v.([]any)
	if !ok || s.step == 0 {
		return out
	}
	n := len(arr)
	norm := func(p *int, def int) int {
		if p == nil {
			return def
		}
		i := *p
		if i < 0 {
			i += n
		}
		return i
	}
	if s.step > 0 {
		lo, hi := clamp(norm(s.start, 0), 0, n), clamp(norm(s.end, n), 0, n)
		for i := lo; i < hi; i += s.step {
			out = append(out, arr[i])
		}
		return out
	}
	lo, hi := clamp(norm(s.end, -1), -1, n-1), clamp(norm(s.start, n-1), -1, n-1)
	for i := hi; i > lo; i += s.step {
		out = append(out, arr[i])
	}
	return out
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}

type filterSelector struct{ cond expr }

func (s filterSelector) apply(v, root any, out []any) []any {
	for _, c := range children(v) {
		if s.cond.test(c, root) {
			out = append(out, c)
		}
	}
	return out
}

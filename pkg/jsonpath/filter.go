package jsonpath

type expr interface {
	test(cur, root any) bool
}

type operand interface {
	value(cur, root any) (any, bool)
}

type orExpr struct{ left, right expr }

func (e orExpr) test(cur, root any) bool { return e.left.test(cur, root) || e.right.test(cur, root) }

type andExpr struct{ left, right expr }

func (e andExpr) test(cur, root any) bool { return e.left.test(cur, root) && e.right.test(cur, root) }

type notExpr struct{ inner expr }

func (e notExpr) test(cur, root any) bool { return !e.inner.test(cur, root) }

// existsExpr is a bare operand: true when it yields a truthy value.
type existsExpr struct{ op operand }

func (e existsExpr) test(cur, root any) bool {
	v, ok := e.op.value(cur, root)
	return ok && truthy(v)
}

type compareExpr struct {
	op          string
	left, right operand
}

func (e compareExpr) test(cur, root any) bool {
	l, lok := e.left.value(cur, root)
	r, rok := e.right.value(cur, root)
	if !lok || !rok {
		// A missing member only satisfies inequality.
		return e.op == "!=" && lok != rok
	}
	switch e.op {
	case "==":
		return equal(l, r)
	case "!=":
		return !equal(l, r)
	}
	c, ok := order(l, r)
	if !ok {
		return false
	}
	switch e.op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

type literal struct{ v any }

func (l literal) value(_, _ any) (any, bool) { return l.v, true }

type pathOperand struct {
	absolute bool
	segs     []segment
}

func (p pathOperand) value(cur, root any) (any, bool) {
	start := cur
	if p.absolute {
		start = root
	}
	res := evalSegments(p.segs, start, root)
	if len(res) == 0 {
		return nil, false
	}
	return res[0], true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case Object:
		bv, ok := b.(Object)
		return ok && av == bv
	}
	return false
}

func order(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	as, ok := a.(string)
	bs, ok2 := b.(string)
	if !ok || !ok2 {
		return 0, false
	}
	switch {
	case as < bs:
		return -1, true
	case as > bs:
		return 1, true
	}
	return 0, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

package model

// ToJSON converts a resource back into a plain JSON object.
//
// Relationship targets are written as ids. With inline set, targets are
// embedded as nested objects down to depth levels; a target already being
// written higher up the same branch is always written as its id, so cyclic
// graphs serialize finitely. Nil values and empty arrays are omitted.
func (r *Resource) ToJSON(depth int, inline bool) map[string]any {
	return r.toJSON(depth, inline, map[*Resource]bool{})
}

func (r *Resource) toJSON(depth int, inline bool, path map[*Resource]bool) map[string]any {
	path[r] = true
	defer delete(path, r)

	out := make(map[string]any, len(r.Fields)+2)
	out[KeyID] = r.ID
	if r.Class != "" {
		out[KeyClass] = r.Class
	}
	for k, v := range r.Fields {
		if ev, ok := exportValue(v, depth, inline, path); ok {
			out[k] = ev
		}
	}
	return out
}

func exportValue(v any, depth int, inline bool, path map[*Resource]bool) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case *Resource:
		if inline && depth > 0 && !path[t] {
			return t.toJSON(depth-1, inline, path), true
		}
		return t.ID, true
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		out := make([]any, 0, len(t))
		for _, e := range t {
			if ev, ok := exportValue(e, depth, inline, path); ok {
				out = append(out, ev)
			}
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if ev, ok := exportValue(e, depth, inline, path); ok {
				out[k] = ev
			}
		}
		return out, true
	}
	return v, true
}

// Export converts every non-stub resource to JSON in insertion order.
func (r *Registry) Export(depth int, inline bool) []map[string]any {
	out := make([]map[string]any, 0, r.Len())
	for _, res := range r.All() {
		if res.Stub {
			continue
		}
		out = append(out, res.ToJSON(depth, inline))
	}
	return out
}

package hydrate

import (
	"fmt"
	"maps"
	"sort"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
)

// newIDPrefix starts ids generated for objects that arrive without one.
const newIDPrefix = "new_"

// materialize builds, registers and resolves one resource from raw JSON.
func (s *Session) materialize(raw map[string]any, defaultClass string) *model.Resource {
	class := defaultClass
	if c, ok := raw[model.KeyClass].(string); ok && c != "" {
		class = c
	}

	id := s.idOf(raw)
	if id == "" {
		id = s.generateID()
		s.report(errors.SeverityInfo, errors.ErrCodeGeneratedID, nil, "",
			"%s object without id registered as %q", class, id)
	}

	// The prepare hook may rewrite members; keep the caller's map intact.
	raw = maps.Clone(raw)
	raw[model.KeyID] = id
	if cls, ok := s.classes.Lookup(class); ok && cls.Prepare != nil {
		cls.Prepare(raw)
	}

	cm, declared := s.meta.Class(class)
	if !declared {
		s.warn(errors.ErrCodeUnknownClass, nil, "", "class %q of %q is not declared in the schema", class, id)
	}
	kind := model.KindUnresolved
	if cls, ok := s.classes.Lookup(class); ok {
		kind = cls.Kind
	}

	fields := make(map[string]any)
	if declared {
		for k, v := range cm.DefaultValues() {
			if k != model.KeyID && k != model.KeyClass {
				fields[k] = v
			}
		}
	}

	res, exists := s.reg.Get(id)
	switch {
	case exists && res.Stub:
		if want, ok := s.expected[id]; ok && declared && !s.allows(want, class) {
			s.warn(errors.ErrCodeTypeMismatch, res, "",
				"defined as %s but referenced earlier as %s", class, want.class)
		}
		// Keep inverse values already mirrored onto the placeholder.
		for k, v := range res.Fields {
			if !isEmpty(v) {
				fields[k] = v
			}
		}
		delete(s.expected, id)
		res.Stub = false
	case exists:
		s.report(errors.SeverityInfo, errors.ErrCodeDuplicateID, res, "",
			"definition replaces an earlier %s with the same id", res.Class)
		if res.Class != class && !s.meta.Extends(class, res.Class) {
			s.warn(errors.ErrCodeTypeMismatch, res, "",
				"redefined as %s, already built as %s", class, res.Class)
		}
	default:
		res = model.NewResource(id, class, kind)
		s.reg.Put(res)
	}
	res.Class, res.Kind, res.Fields = class, kind, fields

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == model.KeyID || k == model.KeyClass {
			continue
		}
		if declared && !exemptKey(k) {
			if _, ok := cm.Field(k); !ok {
				s.warn(errors.ErrCodeUnknownProperty, res, k, "%s has no field %q", class, k)
			}
		}
		v := raw[k]
		if !declared || !cm.IsRelationship(k) {
			v = metamodel.Clone(v)
		}
		fields[k] = v
	}

	if s.visited[res] {
		// Redefined after its first resolution in this pass.
		s.resolveFields(res)
	} else {
		s.resolve(res)
	}
	return res
}

// idOf returns the id member as a string, coercing numbers.
func (s *Session) idOf(raw map[string]any) string {
	id, coerced := rawID(raw)
	if coerced {
		s.report(errors.SeverityInfo, errors.ErrCodeValueCoerced, nil, model.KeyID,
			"numeric id %v converted to %q", raw[model.KeyID], id)
	}
	return id
}

// rawID reads the id member without reporting. coerced is true when the
// member was numeric.
func rawID(raw map[string]any) (id string, coerced bool) {
	switch v := raw[model.KeyID].(type) {
	case nil:
		return "", false
	case string:
		return v, false
	default:
		if id, ok := numericID(v); ok {
			return id, true
		}
		return fmt.Sprint(v), false
	}
}

// generateID returns "new_<n>" for the current registry size, skipping ids
// that are already taken.
func (s *Session) generateID() string {
	for n := s.reg.Len(); ; n++ {
		id := fmt.Sprintf("%s%d", newIDPrefix, n)
		if !s.reg.Has(id) {
			return id
		}
	}
}

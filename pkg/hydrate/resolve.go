package hydrate

import (
	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
)

// resolve resolves res's writable relationship fields once per pass.
func (s *Session) resolve(res *model.Resource) {
	if s.visited[res] {
		return
	}
	s.visited[res] = true
	s.resolved = append(s.resolved, res)
	s.resolveFields(res)
}

func (s *Session) resolveFields(res *model.Resource) {
	cm, ok := s.meta.Class(res.Class)
	if !ok {
		return
	}
	for _, field := range cm.UndeclaredRefNames() {
		if !isEmpty(res.Fields[field]) {
			cls, _ := cm.UndeclaredRef(field)
			s.warn(errors.ErrCodeSchema, res, field, "class %q referenced by %s.%s is not declared; value kept as is", cls, cm.Name, field)
		}
	}
	for _, field := range cm.CUDRelationships() {
		s.resolveField(res, cm, field)
	}
}

// resolveField replaces the raw value of one relationship field with
// registry pointers.
func (s *Session) resolveField(res *model.Resource, cm *metamodel.ClassModel, field string) {
	v := res.Fields[field]
	if isEmpty(v) {
		return
	}
	spec, _ := cm.Field(field)
	target, _ := s.meta.Schema().ClassName(spec)
	ref := refTarget{class: target, accepts: s.meta.Schema().ClassNames(spec)}

	arr, isArr := v.([]any)
	if !isArr {
		obj := s.createObj(v, ref, res, field)
		if spec.IsArray() {
			res.Fields[field] = []any{obj}
		} else {
			res.Fields[field] = obj
		}
		return
	}

	out := make([]any, 0, len(arr))
	seen := make(map[*model.Resource]bool, len(arr))
	for _, e := range arr {
		if isEmpty(e) {
			continue
		}
		obj := s.createObj(e, ref, res, field)
		if r, ok := obj.(*model.Resource); ok {
			if seen[r] {
				continue
			}
			seen[r] = true
		}
		out = append(out, obj)
	}
	res.Fields[field] = out
}

// refTarget is what a relationship field accepts: the class new objects are
// created as, and every class a selector allows.
type refTarget struct {
	class   string
	accepts []string
}

func (s *Session) allows(ref refTarget, class string) bool {
	for _, a := range ref.accepts {
		if s.meta.Extends(class, a) {
			return true
		}
	}
	return false
}

// createObj turns one reference value into a resource, or returns it
// unchanged when it cannot be resolved.
func (s *Session) createObj(v any, ref refTarget, owner *model.Resource, field string) any {
	if id, ok := numericID(v); ok {
		s.report(errors.SeverityInfo, errors.ErrCodeValueCoerced, owner, field, "numeric reference %v converted to %q", v, id)
		v = id
	}
	switch t := v.(type) {
	case *model.Resource:
		s.checkClass(t, ref, owner, field)
		s.resolve(t)
		return t
	case string:
		return s.lookup(t, ref, owner, field)
	case map[string]any:
		return s.createInline(t, ref, owner, field)
	}
	s.warn(errors.ErrCodeSchema, owner, field, "cannot resolve %T as a reference to %s", v, ref.class)
	return v
}

// lookup returns the canonical resource for id, registering a stub when the
// id has not been defined yet.
func (s *Session) lookup(id string, ref refTarget, owner *model.Resource, field string) *model.Resource {
	if res, ok := s.reg.Get(id); ok {
		if res.Stub {
			if _, seen := s.expected[id]; !seen {
				s.expected[id] = ref
			}
		} else {
			s.checkClass(res, ref, owner, field)
		}
		return res
	}
	stub := model.NewStub(id)
	s.reg.Put(stub)
	s.expected[id] = ref
	s.logger.Debug("forward reference", "id", id, "class", ref.class, "from", owner.ID, "field", field)
	return stub
}

// checkClass warns when a resolved resource is not of a class the
// relationship accepts. Resources of undeclared classes are not checked.
func (s *Session) checkClass(res *model.Resource, ref refTarget, owner *model.Resource, field string) {
	if res.Stub || !s.meta.Schema().Has(res.Class) || s.allows(ref, res.Class) {
		return
	}
	s.warn(errors.ErrCodeTypeMismatch, owner, field, "%q is a %s, expected %s", res.ID, res.Class, ref.class)
}

// createInline materializes an object embedded in a relationship field.
func (s *Session) createInline(obj map[string]any, ref refTarget, owner *model.Resource, field string) any {
	own, _ := obj[model.KeyClass].(string)
	class := ref.class
	if own != "" {
		switch {
		case !s.meta.Schema().Has(own):
			s.warn(errors.ErrCodeUnknownClass, owner, field, "inline object declares unknown class %q", own)
		case !s.allows(ref, own):
			s.warn(errors.ErrCodeTypeMismatch, owner, field, "inline %s does not extend %s", own, ref.class)
		default:
			class = own
		}
	}
	if s.meta.Schema().IsAbstract(class) {
		s.warn(errors.ErrCodeSchema, owner, field, "cannot instantiate abstract class %s; value kept as is", class)
		return obj
	}

	// An object whose id is already canonical for an accepted class is a
	// repeated mention, not a redefinition.
	if id, _ := rawID(obj); id != "" {
		if res, ok := s.reg.Get(id); ok && !res.Stub && s.allows(ref, res.Class) {
			s.resolve(res)
			return res
		}
	}
	if own != "" && class != own {
		// Fall back to the field's class; the object's own class is unusable.
		obj = cloneWithClass(obj, class)
	}
	return s.materialize(obj, class)
}

func cloneWithClass(obj map[string]any, class string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	out[model.KeyClass] = class
	return out
}

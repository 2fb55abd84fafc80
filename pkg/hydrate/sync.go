package hydrate

import (
	"slices"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
	"github.com/open-physiology/lyphgraph/pkg/schema"
)

// syncAll mirrors every writable relationship of res onto its inverse.
func (s *Session) syncAll(res *model.Resource) {
	cm, ok := s.meta.Class(res.Class)
	if !ok {
		return
	}
	for _, field := range cm.CUDRelationships() {
		s.syncField(res, cm, field)
	}
}

func (s *Session) syncField(res *model.Resource, cm *metamodel.ClassModel, field string) {
	spec, _ := cm.Field(field)
	if spec == nil || spec.RelatedTo == "" {
		return
	}
	for _, target := range res.Refs(field) {
		s.syncInverse(res, cm, field, spec.RelatedTo, target)
	}
}

// syncInverse records res in target's inverse field key.
func (s *Session) syncInverse(res *model.Resource, cm *metamodel.ClassModel, field, key string, target *model.Resource) {
	other := s.inverseSpec(target, cm, field, key)
	if other == nil {
		s.warn(errors.ErrCodeSchema, res, field, "inverse field %q is not declared on %s", key, s.classOf(target, cm, field))
		return
	}

	cur := target.Fields[key]
	if other.IsArray() {
		arr, isArr := cur.([]any)
		if !isEmpty(cur) && !isArr {
			s.warn(errors.ErrCodeConsistency, target, key, "expected an array, wrapping existing value")
			arr = []any{cur}
		}
		if containsRef(arr, res) {
			return
		}
		target.Set(key, append(slices.Clip(arr), res))
		return
	}

	switch c := cur.(type) {
	case *model.Resource:
		if c != res {
			s.warn(errors.ErrCodeConsistency, target, key,
				"already set to %q, ignoring %q from %s", c.ID, res.ID, field)
		}
	case string:
		switch c {
		case "", res.ID:
			target.Set(key, res)
		default:
			s.warn(errors.ErrCodeConsistency, target, key,
				"already set to %q, ignoring %q from %s", c, res.ID, field)
		}
	default:
		if isEmpty(cur) {
			target.Set(key, res)
			return
		}
		s.warn(errors.ErrCodeConsistency, target, key, "holds an unresolved value, ignoring %q from %s", res.ID, field)
	}
}

// inverseSpec finds the spec of field key on target. Stubs have no class
// yet, so the class the relationship expects stands in for theirs.
func (s *Session) inverseSpec(target *model.Resource, cm *metamodel.ClassModel, field, key string) *schema.PropertySpec {
	tcm, ok := s.meta.Class(s.classOf(target, cm, field))
	if !ok {
		return nil
	}
	spec, _ := tcm.Field(key)
	return spec
}

func (s *Session) classOf(target *model.Resource, cm *metamodel.ClassModel, field string) string {
	if target.Class != "" {
		return target.Class
	}
	cls, _ := cm.RelClassName(field)
	return cls
}

func containsRef(arr []any, res *model.Resource) bool {
	for _, e := range arr {
		switch t := e.(type) {
		case *model.Resource:
			if t == res {
				return true
			}
		case string:
			if t == res.ID {
				return true
			}
		}
	}
	return false
}

package hydrate

import (
	"sort"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/jsonpath"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
)

// Statement fields read by the assignment and interpolation engines.
const (
	fieldAssign      = "assign"
	fieldInterpolate = "interpolate"
	fieldIsTemplate  = "isTemplate"
)

// applyAssignments runs res's "assign" statements: each {path, value}
// shallow-merges value into every resource the path selects.
func (s *Session) applyAssignments(res *model.Resource) {
	if res.Bool(fieldIsTemplate) {
		return
	}
	entries, _ := res.Fields[fieldAssign].([]any)
	for i, e := range entries {
		stmt, ok := e.(map[string]any)
		if !ok {
			s.warn(errors.ErrCodeInvalidPath, res, fieldAssign, "statement %d is not an object", i)
			continue
		}
		path, _ := stmt["path"].(string)
		value, _ := stmt["value"].(map[string]any)
		if path == "" || len(value) == 0 {
			continue
		}
		p, err := jsonpath.Compile(path)
		if err != nil {
			s.warn(errors.ErrCodeInvalidPath, res, fieldAssign, "%v", err)
			continue
		}
		for _, match := range flatten(p.Eval(res)) {
			if target, ok := match.(*model.Resource); ok {
				s.assignTo(target, value)
			}
		}
	}
}

func (s *Session) assignTo(target *model.Resource, value map[string]any) {
	cm, ok := s.meta.Class(target.Class)
	if !ok {
		s.warn(errors.ErrCodeUnknownClass, target, "", "cannot assign to resource of undeclared class %q", target.Class)
		return
	}

	keys := make([]string, 0, len(value))
	for k := range value {
		if k != model.KeyID && k != model.KeyClass {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var rels []string
	for _, k := range keys {
		target.Set(k, metamodel.Clone(value[k]))
		if spec, ok := cm.Field(k); ok && cm.IsRelationship(k) && !spec.ReadOnly {
			rels = append(rels, k)
		}
	}
	if len(rels) > 0 {
		s.reresolve(target, cm, rels)
	}
}

// reresolve resolves freshly assigned relationship fields on target and
// settles everything the resolution touched.
func (s *Session) reresolve(target *model.Resource, cm *metamodel.ClassModel, fields []string) {
	mark := len(s.resolved)
	for _, f := range fields {
		s.resolveField(target, cm, f)
	}
	for _, f := range fields {
		s.syncField(target, cm, f)
	}
	for _, res := range s.resolved[mark:] {
		s.syncAll(res)
	}
}

package metamodel

import (
	"sort"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/schema"
)

// MetaModel holds a [ClassModel] for every schema definition.
type MetaModel struct {
	schema  *schema.Registry
	classes map[string]*ClassModel
}

// Build compiles every definition in reg.
func Build(reg *schema.Registry) (*MetaModel, error) {
	if reg == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "metamodel: nil schema")
	}
	m := &MetaModel{schema: reg, classes: make(map[string]*ClassModel)}
	for _, name := range reg.Names() {
		m.classes[name] = m.compile(name)
	}
	return m, nil
}

// Default compiles the built-in schema.
func Default() (*MetaModel, error) {
	reg, err := schema.Default()
	if err != nil {
		return nil, err
	}
	return Build(reg)
}

func (m *MetaModel) compile(name string) *ClassModel {
	cm := &ClassModel{
		Name:          name,
		Abstract:      m.schema.IsAbstract(name),
		fields:        make(map[string]*schema.PropertySpec),
		relClassNames: make(map[string]string),
		undeclared:    make(map[string]string),
		ancestry:      m.schema.Ancestry(name),
	}

	// Merge root first so derived classes override inherited specs.
	for i := len(cm.ancestry) - 1; i >= 0; i-- {
		def, _ := m.schema.Class(cm.ancestry[i])
		for field, spec := range def.Properties {
			if spec == nil {
				spec = &schema.PropertySpec{}
			}
			cm.fields[field] = spec
		}
	}

	for field, spec := range cm.fields {
		cm.fieldNames = append(cm.fieldNames, field)
		target, ok := m.schema.ClassName(spec)
		if !ok && target != "" {
			cm.undeclared[field] = target
			cm.undeclNames = append(cm.undeclNames, field)
		}
		if ok && m.schema.IsResource(target) {
			cm.relNames = append(cm.relNames, field)
			cm.relClassNames[field] = target
			if !spec.ReadOnly {
				cm.cudRelNames = append(cm.cudRelNames, field)
			}
		} else {
			cm.propNames = append(cm.propNames, field)
		}
	}
	sort.Strings(cm.fieldNames)
	sort.Strings(cm.relNames)
	sort.Strings(cm.cudRelNames)
	sort.Strings(cm.propNames)
	sort.Strings(cm.undeclNames)
	return cm
}

// Schema returns the registry the metamodel was built from.
func (m *MetaModel) Schema() *schema.Registry { return m.schema }

// Class returns the compiled model for name.
func (m *MetaModel) Class(name string) (*ClassModel, bool) {
	cm, ok := m.classes[name]
	return cm, ok
}

// Names returns every class name in sorted order.
func (m *MetaModel) Names() []string { return m.schema.Names() }

// ResourceClasses returns the names of all classes that extend the root
// resource class.
func (m *MetaModel) ResourceClasses() []string {
	return m.schema.Subclasses(schema.RootClass)
}

// Extends reports whether class equals base or inherits from it.
func (m *MetaModel) Extends(class, base string) bool {
	return m.schema.Extends(class, base)
}

// Inverse returns the spec of the field that mirrors relationship field on
// class, together with the class that declares it. It returns false when the
// relationship has no relatedTo or the far side lacks the named field.
func (m *MetaModel) Inverse(class, field string) (string, *schema.PropertySpec, bool) {
	cm, ok := m.classes[class]
	if !ok {
		return "", nil, false
	}
	spec := cm.fields[field]
	target, isRel := cm.relClassNames[field]
	if spec == nil || !isRel || spec.RelatedTo == "" {
		return "", nil, false
	}
	tm, ok := m.classes[target]
	if !ok {
		return target, nil, false
	}
	other := tm.fields[spec.RelatedTo]
	return target, other, other != nil
}

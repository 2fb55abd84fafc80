package metamodel

import (
	"encoding/json"

	"github.com/open-physiology/lyphgraph/pkg/schema"
)

// ClassModel is the flattened view of one class: its own fields merged with
// everything it inherits.
type ClassModel struct {
	Name     string
	Abstract bool

	fields        map[string]*schema.PropertySpec
	fieldNames    []string
	propNames     []string
	relNames      []string
	cudRelNames   []string
	relClassNames map[string]string
	undeclared    map[string]string
	undeclNames   []string
	ancestry      []string
}

// Field returns the merged spec for a field.
func (c *ClassModel) Field(name string) (*schema.PropertySpec, bool) {
	spec, ok := c.fields[name]
	return spec, ok
}

// FieldNames returns every field name, sorted.
func (c *ClassModel) FieldNames() []string { return c.fieldNames }

// PropertyNames returns the fields that hold plain values.
func (c *ClassModel) PropertyNames() []string { return c.propNames }

// RelationshipNames returns the fields that reference other resources.
func (c *ClassModel) RelationshipNames() []string { return c.relNames }

// CUDRelationships returns the relationships hydration may create, update
// or delete: every relationship not marked readOnly.
func (c *ClassModel) CUDRelationships() []string { return c.cudRelNames }

// IsRelationship reports whether field references other resources.
func (c *ClassModel) IsRelationship(field string) bool {
	_, ok := c.relClassNames[field]
	return ok
}

// RelClassName returns the class a relationship field points to.
func (c *ClassModel) RelClassName(field string) (string, bool) {
	name, ok := c.relClassNames[field]
	return name, ok
}

// UndeclaredRefNames returns the fields whose spec references a class the
// schema does not define.
func (c *ClassModel) UndeclaredRefNames() []string { return c.undeclNames }

// UndeclaredRef returns the undefined class a field references.
func (c *ClassModel) UndeclaredRef(field string) (string, bool) {
	name, ok := c.undeclared[field]
	return name, ok
}

// Ancestry returns the class name followed by its ancestors, nearest first.
func (c *ClassModel) Ancestry() []string { return c.ancestry }

// Extends reports whether the class equals base or inherits from it.
func (c *ClassModel) Extends(base string) bool {
	for _, a := range c.ancestry {
		if a == base {
			return true
		}
	}
	return false
}

// SelectedRelNames returns the relationships whose target class is one of
// classes.
func (c *ClassModel) SelectedRelNames(classes ...string) []string {
	want := make(map[string]bool, len(classes))
	for _, cls := range classes {
		want[cls] = true
	}
	var out []string
	for _, field := range c.relNames {
		if want[c.relClassNames[field]] {
			out = append(out, field)
		}
	}
	return out
}

// FilteredRelNames returns the relationships whose target class is none of
// classes.
func (c *ClassModel) FilteredRelNames(classes ...string) []string {
	skip := make(map[string]bool, len(classes))
	for _, cls := range classes {
		skip[cls] = true
	}
	var out []string
	for _, field := range c.relNames {
		if !skip[c.relClassNames[field]] {
			out = append(out, field)
		}
	}
	return out
}

// DefaultValues returns a fresh map with every field set to its declared
// default, or to the zero value of its type when none is declared. Each call
// returns independent copies of structured defaults.
func (c *ClassModel) DefaultValues() map[string]any {
	out := make(map[string]any, len(c.fields))
	for name, spec := range c.fields {
		out[name] = DefaultValue(spec)
	}
	return out
}

// DefaultValue returns the initial value of a single field.
func DefaultValue(spec *schema.PropertySpec) any {
	if spec == nil {
		return nil
	}
	if spec.Default != nil {
		return Clone(normalizeNumber(spec.Default))
	}
	switch spec.Type {
	case schema.TypeString:
		return ""
	case schema.TypeBoolean:
		return false
	case schema.TypeNumber, schema.TypeInteger:
		return float64(0)
	default:
		return nil
	}
}

// normalizeNumber turns json.Number defaults into float64 so that model
// values only ever carry one numeric type.
func normalizeNumber(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

// Clone deep-copies maps and slices of a decoded JSON value. Other values,
// including resource pointers, are returned as is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	case json.Number:
		return normalizeNumber(t)
	default:
		return v
	}
}

package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// JSON schema primitive type names used by property specs.
const (
	TypeArray   = "array"
	TypeObject  = "object"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// RootClass is the class every resource class extends. A property is a
// relationship only if it references a class derived from RootClass.
const RootClass = "Resource"

// schemeSuffix marks value-type definitions (colors, points, assignment
// statements) that never count as class references inside a selector.
const schemeSuffix = "Scheme"

// TypeName is a JSON schema "type". Multi-type declarations such as
// ["string", "null"] collapse to their first non-null member.
type TypeName string

// UnmarshalJSON accepts a string or an array of strings.
func (t *TypeName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return err
		}
		*t = ""
		for _, n := range names {
			if n != "null" {
				*t = TypeName(n)
				break
			}
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = TypeName(s)
	return nil
}

// PropertySpec describes one property of a class definition.
//
// A spec references another class through Ref, or through a selector
// (OneOf, AnyOf, AllOf), possibly nested inside Items for array-valued
// properties. RelatedTo names the inverse field on the referenced class.
type PropertySpec struct {
	Type        TypeName        `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Items       *PropertySpec   `json:"items,omitempty"`
	Ref         string          `json:"$ref,omitempty"`
	OneOf       []*PropertySpec `json:"oneOf,omitempty"`
	AnyOf       []*PropertySpec `json:"anyOf,omitempty"`
	AllOf       []*PropertySpec `json:"allOf,omitempty"`
	RelatedTo   string          `json:"relatedTo,omitempty"`
	ReadOnly    bool            `json:"readOnly,omitempty"`
	Default     any             `json:"default,omitempty"`
	Enum        []any           `json:"enum,omitempty"`
}

// IsArray reports whether the property holds multiple values.
func (p *PropertySpec) IsArray() bool {
	return p != nil && p.Type == TypeArray
}

// selectors returns the first non-empty selector list.
func (p *PropertySpec) selectors() []*PropertySpec {
	switch {
	case len(p.OneOf) > 0:
		return p.OneOf
	case len(p.AnyOf) > 0:
		return p.AnyOf
	default:
		return p.AllOf
	}
}

// ClassRefs returns the class references a spec points to, looking through
// array items and selectors. Selector members that reference value schemes
// are skipped.
func (p *PropertySpec) ClassRefs() []string {
	if p == nil {
		return nil
	}
	if p.Ref != "" {
		return []string{p.Ref}
	}
	if p.Items != nil {
		return p.Items.ClassRefs()
	}
	var refs []string
	for _, s := range p.selectors() {
		if s == nil || s.Ref == "" || strings.HasSuffix(s.Ref, schemeSuffix) {
			continue
		}
		refs = append(refs, s.Ref)
	}
	return refs
}

// RefName strips a JSON pointer such as "#/definitions/Lyph" down to "Lyph".
func RefName(ref string) string {
	return strings.TrimSpace(ref[strings.LastIndex(ref, "/")+1:])
}

// ClassRef is a reference to a parent class. It decodes from a bare class
// name ("Shape") or a JSON reference ({"$ref": "#/definitions/Shape"}).
type ClassRef string

// UnmarshalJSON accepts a string or an object with a "$ref" member.
func (c *ClassRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var ref struct {
			Ref string `json:"$ref"`
		}
		if err := json.Unmarshal(data, &ref); err != nil {
			return err
		}
		*c = ClassRef(RefName(ref.Ref))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ClassRef(RefName(s))
	return nil
}

// ClassDefinition is a named schema definition. Definitions that extend
// [RootClass] (directly or transitively) describe resource classes; the rest
// describe value types.
type ClassDefinition struct {
	Name        string                   `json:"-"`
	Type        TypeName                 `json:"type,omitempty"`
	Description string                   `json:"description,omitempty"`
	Extends     ClassRef                 `json:"extends,omitempty"`
	Abstract    bool                     `json:"abstract,omitempty"`
	Properties  map[string]*PropertySpec `json:"properties,omitempty"`
	Enum        []any                    `json:"enum,omitempty"`
}

// Document is the serialized form of a schema: a set of named definitions.
type Document struct {
	ID          string                      `json:"$id,omitempty"`
	Definitions map[string]*ClassDefinition `json:"definitions"`
}

package model

import (
	"sort"
	"strconv"
)

// Reserved keys that live on the Resource struct rather than in Fields.
const (
	KeyID    = "id"
	KeyClass = "class"
)

// Resource is a materialized domain object.
type Resource struct {
	ID    string
	Class string
	Kind  Kind

	// Stub is set for placeholders created by a forward reference to an id
	// that has no definition yet.
	Stub bool

	// Fields holds every property and relationship value except id and class.
	Fields map[string]any
}

// NewResource returns an empty resource.
func NewResource(id, class string, kind Kind) *Resource {
	return &Resource{ID: id, Class: class, Kind: kind, Fields: make(map[string]any)}
}

// NewStub returns a placeholder for an id referenced before it is defined.
func NewStub(id string) *Resource {
	r := NewResource(id, "", KindUnresolved)
	r.Stub = true
	return r
}

// Get returns a field value. The reserved keys return the ID and Class.
func (r *Resource) Get(name string) any {
	v, _ := r.Field(name)
	return v
}

// Field implements jsonpath.Object.
func (r *Resource) Field(name string) (any, bool) {
	switch name {
	case KeyID:
		return r.ID, true
	case KeyClass:
		return r.Class, true
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Keys implements jsonpath.Object. It lists id, class and then every field
// in sorted order.
func (r *Resource) Keys() []string {
	keys := make([]string, 0, len(r.Fields)+2)
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append([]string{KeyID, KeyClass}, keys...)
}

// Set assigns a field. Setting id or class updates the struct fields.
func (r *Resource) Set(name string, v any) {
	switch name {
	case KeyID:
		if s, ok := v.(string); ok {
			r.ID = s
		}
		return
	case KeyClass:
		if s, ok := v.(string); ok {
			r.Class = s
		}
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[name] = v
}

// Has reports whether a field is present.
func (r *Resource) Has(name string) bool {
	_, ok := r.Field(name)
	return ok
}

// Ref returns a scalar relationship target, or nil.
func (r *Resource) Ref(name string) *Resource {
	res, _ := r.Fields[name].(*Resource)
	return res
}

// Refs returns the resolved targets of a relationship field. Scalar values
// are returned as a one-element slice; unresolved raw entries are skipped.
func (r *Resource) Refs(name string) []*Resource {
	switch v := r.Fields[name].(type) {
	case *Resource:
		return []*Resource{v}
	case []any:
		out := make([]*Resource, 0, len(v))
		for _, e := range v {
			if res, ok := e.(*Resource); ok {
				out = append(out, res)
			}
		}
		return out
	}
	return nil
}

// Str returns a string field, or "".
func (r *Resource) Str(name string) string {
	s, _ := r.Get(name).(string)
	return s
}

// Float returns a numeric field.
func (r *Resource) Float(name string) (float64, bool) {
	return ToFloat(r.Fields[name])
}

// Bool returns a boolean field, false when absent.
func (r *Resource) Bool(name string) bool {
	b, _ := r.Fields[name].(bool)
	return b
}

// Name returns the display name, falling back to the id.
func (r *Resource) Name() string {
	if n := r.Str("name"); n != "" {
		return n
	}
	return r.ID
}

// Color returns the color field.
func (r *Resource) Color() string { return r.Str("color") }

// SetColor sets the color field.
func (r *Resource) SetColor(c string) { r.Set("color", c) }

// ToFloat converts a decoded JSON number to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// FormatID renders a numeric id the way it appears in source documents:
// integers without a decimal point.
func FormatID(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

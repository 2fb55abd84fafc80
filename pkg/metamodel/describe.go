package metamodel

import "github.com/open-physiology/lyphgraph/pkg/schema"

// ClassInfo is a serializable description of a class, used by editors and
// the schema commands.
type ClassInfo struct {
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	Abstract      bool        `json:"abstract"`
	Ancestry      []string    `json:"ancestry"`
	Subclasses    []string    `json:"subclasses,omitempty"`
	Properties    []FieldInfo `json:"properties"`
	Relationships []FieldInfo `json:"relationships"`
}

// FieldInfo describes one field of a class.
type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Class    string `json:"class,omitempty"`
	Array    bool   `json:"array,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Inverse  string `json:"inverse,omitempty"`
	Default  any    `json:"default,omitempty"`
	Enum     []any  `json:"enum,omitempty"`
}

// Describe returns the description of a class.
func (m *MetaModel) Describe(name string) (*ClassInfo, bool) {
	cm, ok := m.classes[name]
	if !ok {
		return nil, false
	}
	info := &ClassInfo{
		Name:          name,
		Abstract:      cm.Abstract,
		Ancestry:      cm.ancestry,
		Subclasses:    m.schema.Subclasses(name),
		Properties:    []FieldInfo{},
		Relationships: []FieldInfo{},
	}
	if def, ok := m.schema.Class(name); ok {
		info.Description = def.Description
	}
	for _, field := range cm.propNames {
		info.Properties = append(info.Properties, fieldInfo(field, cm.fields[field]))
	}
	for _, field := range cm.relNames {
		fi := fieldInfo(field, cm.fields[field])
		fi.Class = cm.relClassNames[field]
		fi.Default = nil
		info.Relationships = append(info.Relationships, fi)
	}
	return info, true
}

func fieldInfo(name string, spec *schema.PropertySpec) FieldInfo {
	fi := FieldInfo{
		Name:     name,
		Type:     string(spec.Type),
		Array:    spec.IsArray(),
		ReadOnly: spec.ReadOnly,
		Inverse:  spec.RelatedTo,
		Enum:     spec.Enum,
	}
	if spec.Default != nil {
		fi.Default = normalizeNumber(spec.Default)
	}
	return fi
}

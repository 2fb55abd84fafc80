package schema

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/open-physiology/lyphgraph/pkg/errors"
)

// Registry is a loaded, validated schema: every class definition keyed by
// name, plus the inheritance edges between them.
//
// A Registry is immutable after [Parse] returns and safe for concurrent use.
type Registry struct {
	id    string
	defs  map[string]*ClassDefinition
	names []string
}

// Parse decodes a JSON schema document and validates its inheritance edges.
func Parse(data []byte) (*Registry, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode schema")
	}
	return New(&doc)
}

// ParseYAML decodes a YAML schema document. The document is normalized
// through JSON so that "$ref" members and multi-type declarations decode
// exactly as they do in [Parse].
func ParseYAML(data []byte) (*Registry, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "decode yaml schema")
	}
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "normalize yaml schema")
	}
	return Parse(buf)
}

// Load reads a schema file, choosing the decoder by extension.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "schema %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read schema %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return Parse(data)
	}
}

// New builds a registry from an already decoded document.
func New(doc *Document) (*Registry, error) {
	if doc == nil || len(doc.Definitions) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidSchema, "schema has no definitions")
	}
	r := &Registry{id: doc.ID, defs: make(map[string]*ClassDefinition, len(doc.Definitions))}
	for name, def := range doc.Definitions {
		if def == nil {
			def = &ClassDefinition{}
		}
		def.Name = name
		r.defs[name] = def
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) validate() error {
	for _, name := range r.names {
		def := r.defs[name]
		if def.Extends != "" {
			if _, ok := r.defs[string(def.Extends)]; !ok {
				return errors.New(errors.ErrCodeInvalidSchema,
					"class %s extends undefined class %s", name, def.Extends)
			}
		}
		seen := map[string]bool{}
		for cur := name; cur != ""; cur = string(r.defs[cur].Extends) {
			if seen[cur] {
				return errors.New(errors.ErrCodeInvalidSchema, "inheritance cycle through %s", name)
			}
			seen[cur] = true
		}
	}
	return nil
}

// ID returns the schema's "$id", if any.
func (r *Registry) ID() string { return r.id }

// Names returns all definition names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Class returns the definition for name.
func (r *Registry) Class(name string) (*ClassDefinition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Has reports whether name is a defined class.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Parent returns the class name extends, or "" for a root definition.
func (r *Registry) Parent(name string) string {
	if def, ok := r.defs[name]; ok {
		return string(def.Extends)
	}
	return ""
}

// Ancestry returns name followed by its ancestors, nearest first.
func (r *Registry) Ancestry(name string) []string {
	var chain []string
	for cur := name; cur != ""; cur = r.Parent(cur) {
		if !r.Has(cur) {
			break
		}
		chain = append(chain, cur)
	}
	return chain
}

// Extends reports whether class equals base or inherits from it.
func (r *Registry) Extends(class, base string) bool {
	for _, c := range r.Ancestry(class) {
		if c == base {
			return true
		}
	}
	return false
}

// IsResource reports whether class is a resource class.
func (r *Registry) IsResource(class string) bool {
	return r.Extends(class, RootClass)
}

// IsAbstract reports whether class is declared abstract.
func (r *Registry) IsAbstract(class string) bool {
	def, ok := r.defs[class]
	return ok && def.Abstract
}

// Subclasses returns every defined class that extends base, base included.
func (r *Registry) Subclasses(base string) []string {
	var out []string
	for _, name := range r.names {
		if r.Extends(name, base) {
			out = append(out, name)
		}
	}
	return out
}

// ClassName returns the name of the first defined class a property spec
// references. It returns false when the spec references nothing, or only
// classes the schema does not define.
func (r *Registry) ClassName(spec *PropertySpec) (string, bool) {
	for _, ref := range spec.ClassRefs() {
		name := RefName(ref)
		if r.Has(name) {
			return name, true
		}
		return name, false
	}
	return "", false
}

// ClassNames returns every class referenced by a spec, in declaration order.
func (r *Registry) ClassNames(spec *PropertySpec) []string {
	refs := spec.ClassRefs()
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, RefName(ref))
	}
	return out
}

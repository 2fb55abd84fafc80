package model

import (
	"sort"
	"sync"
)

// PrepareFunc normalizes a resource's raw JSON before it is materialized.
// The map is owned by the hydrator and may be modified in place.
type PrepareFunc func(raw map[string]any)

// Class is one entry of the factory table.
type Class struct {
	Name    string
	Kind    Kind
	Prepare PrepareFunc
}

// Classes is the factory table mapping class names to resource variants.
// It is safe for concurrent use.
type Classes struct {
	mu     sync.RWMutex
	byName map[string]Class
}

// NewClasses returns a table holding cs.
func NewClasses(cs ...Class) *Classes {
	c := &Classes{byName: make(map[string]Class, len(cs))}
	for _, cls := range cs {
		c.byName[cls.Name] = cls
	}
	return c
}

// Register adds or replaces a class.
func (c *Classes) Register(cls Class) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[cls.Name] = cls
}

// Lookup returns the class registered under name.
func (c *Classes) Lookup(name string) (Class, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cls, ok := c.byName[name]
	return cls, ok
}

// Names returns every registered class name, sorted.
func (c *Classes) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byName))
	for name := range c.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default class names of the built-in schema.
const (
	ClassExternal       = "External"
	ClassReference      = "Reference"
	ClassOntologyTerm   = "OntologyTerm"
	ClassMaterial       = "Material"
	ClassNode           = "Node"
	ClassLink           = "Link"
	ClassLyph           = "Lyph"
	ClassRegion         = "Region"
	ClassBorder         = "Border"
	ClassCoalescence    = "Coalescence"
	ClassChain          = "Chain"
	ClassGroup          = "Group"
	ClassGraph          = "Graph"
	ClassStratification = "Stratification"
)

// BorderSuffix is appended to a shape's id to name its generated border.
const BorderSuffix = "_border"

// DefaultClasses returns the factory table for the built-in schema.
func DefaultClasses() *Classes {
	return NewClasses(
		Class{Name: ClassExternal, Kind: KindExternal},
		Class{Name: ClassReference, Kind: KindExternal},
		Class{Name: ClassOntologyTerm, Kind: KindExternal},
		Class{Name: ClassMaterial, Kind: KindMaterial},
		Class{Name: ClassNode, Kind: KindNode},
		Class{Name: ClassLink, Kind: KindLink},
		Class{Name: ClassLyph, Kind: KindLyph, Prepare: PrepareShape},
		Class{Name: ClassRegion, Kind: KindRegion, Prepare: PrepareShape},
		Class{Name: ClassBorder, Kind: KindBorder},
		Class{Name: ClassCoalescence, Kind: KindCoalescence},
		Class{Name: ClassChain, Kind: KindChain},
		Class{Name: ClassGroup, Kind: KindGroup},
		Class{Name: ClassGraph, Kind: KindGroup},
		Class{Name: ClassStratification, Kind: KindStratification},
	)
}

// PrepareShape gives a shape without a border an inline border object named
// after the shape. The border's host is filled in by inverse sync.
func PrepareShape(raw map[string]any) {
	if b, ok := raw["border"]; ok && b != nil && b != "" {
		return
	}
	id, _ := raw[KeyID].(string)
	if id == "" {
		return
	}
	raw["border"] = map[string]any{
		KeyID:    id + BorderSuffix,
		KeyClass: ClassBorder,
	}
}

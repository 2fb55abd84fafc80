package model

// Registry is the arena of resources for one model load. It maps each id to
// its single canonical *Resource and remembers insertion order.
//
// A Registry is not safe for concurrent use; hydration sessions serialize
// access to it.
type Registry struct {
	byID  map[string]*Resource
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Resource)}
}

// Len returns the number of registered resources, stubs included.
func (r *Registry) Len() int { return len(r.byID) }

// Get returns the resource registered under id.
func (r *Registry) Get(id string) (*Resource, bool) {
	res, ok := r.byID[id]
	return res, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Put registers res under its id, replacing any previous entry. It returns
// the replaced resource, if any. Callers that must preserve identity fill
// existing entries in place instead of replacing them.
func (r *Registry) Put(res *Resource) *Resource {
	prev, ok := r.byID[res.ID]
	if !ok {
		r.order = append(r.order, res.ID)
	}
	r.byID[res.ID] = res
	return prev
}

// All returns every resource in insertion order.
func (r *Registry) All() []*Resource {
	out := make([]*Resource, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every id in insertion order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Stubs returns the placeholders that were never filled by a definition.
func (r *Registry) Stubs() []*Resource {
	var out []*Resource
	for _, res := range r.All() {
		if res.Stub {
			out = append(out, res)
		}
	}
	return out
}

// ByClass returns the resources of exactly the given class.
func (r *Registry) ByClass(class string) []*Resource {
	var out []*Resource
	for _, res := range r.All() {
		if res.Class == class {
			out = append(out, res)
		}
	}
	return out
}

// ByKind returns the resources of the given kind.
func (r *Registry) ByKind(kind Kind) []*Resource {
	var out []*Resource
	for _, res := range r.All() {
		if res.Kind == kind && !res.Stub {
			out = append(out, res)
		}
	}
	return out
}

// CountByClass tallies resources per class. Stubs count under "".
func (r *Registry) CountByClass() map[string]int {
	out := make(map[string]int)
	for _, res := range r.byID {
		out[res.Class]++
	}
	return out
}

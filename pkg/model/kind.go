package model

// Kind is the concrete variant of a resource.
type Kind uint8

// Resource kinds. KindUnresolved marks resources whose class has no entry in
// the factory table.
const (
	KindUnresolved Kind = iota
	KindExternal
	KindMaterial
	KindNode
	KindLink
	KindLyph
	KindRegion
	KindBorder
	KindCoalescence
	KindChain
	KindGroup
	KindStratification
)

var kindNames = [...]string{
	KindUnresolved:     "unresolved",
	KindExternal:       "external",
	KindMaterial:       "material",
	KindNode:           "node",
	KindLink:           "link",
	KindLyph:           "lyph",
	KindRegion:         "region",
	KindBorder:         "border",
	KindCoalescence:    "coalescence",
	KindChain:          "chain",
	KindGroup:          "group",
	KindStratification: "stratification",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Package schema loads the JSON-schema-style class definitions that describe
// a lyph graph model.
//
// A schema is a set of named definitions. Definitions that extend
// [RootClass] describe resource classes (Lyph, Node, Link, ...); the rest
// describe value types such as colors and assignment statements, by
// convention named with a "Scheme" suffix.
//
// # Class references
//
// A property references another class through "$ref", either directly, inside
// "items" for arrays, or inside a "oneOf"/"anyOf"/"allOf" selector:
//
//	"layers":  {"type": "array", "items": {"$ref": "#/definitions/Lyph"}, "relatedTo": "layerIn"}
//	"layerIn": {"$ref": "#/definitions/Lyph", "relatedTo": "layers"}
//
// [Registry.ClassName] resolves such a spec to the first referenced class.
// "relatedTo" names the inverse field on the referenced class; pkg/metamodel
// uses it to pair both directions of a relationship.
//
// # Inheritance
//
// A definition names its parent with "extends", given either as a bare class
// name or as a {"$ref": ...} object. [Registry.Extends] walks the chain; New
// rejects chains that loop or reach an undefined class.
//
// # Usage
//
//	reg, err := schema.Default()             // built-in schema
//	reg, err := schema.Load("model.yaml")    // custom schema, JSON or YAML
//	reg.Extends("Lyph", "Shape")             // true
package schema

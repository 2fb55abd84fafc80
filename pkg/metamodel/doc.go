// Package metamodel compiles a schema into per-class field tables.
//
// For every definition, [Build] merges the properties of the class and all
// its ancestors (derived classes override) and splits them into plain
// properties and relationships. A field is a relationship when its spec
// references a class that extends schema.RootClass.
//
// The resulting [ClassModel] answers the questions hydration asks while
// walking a model document:
//
//   - which fields exist on a class ([ClassModel.Field])
//   - which fields hold references and to which class ([ClassModel.RelClassName])
//   - which references hydration may write ([ClassModel.CUDRelationships])
//   - what a fresh instance looks like ([ClassModel.DefaultValues])
//   - which field on the far side mirrors a relationship ([MetaModel.Inverse])
package metamodel

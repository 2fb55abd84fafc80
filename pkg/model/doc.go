// Package model defines the runtime object graph produced by hydration.
//
// A [Resource] is one materialized domain object: a node, link, lyph,
// material and so on. Its class-specific data lives in Fields; relationship
// fields hold *Resource pointers (or []any of them) once resolved.
//
// # Identity
//
// [Registry] is the arena for a single model load. It owns exactly one
// *Resource per id and hands the same pointer to every referrer, so two
// references to "N1" are always == to each other. A forward reference to an
// id that has not been loaded yet creates a stub (Stub == true); loading the
// full object later fills the stub in place, keeping every existing pointer
// valid.
//
// # Classes
//
// [Classes] is the factory table consulted while hydrating. It maps schema
// class names to a [Kind] and an optional Prepare hook that normalizes raw
// JSON before materialization. Schema classes absent from the table hydrate
// as [KindUnresolved] resources: untyped, but with their relationships still
// resolved.
//
// # Traversal
//
// Consumers such as the renderer walk resources through [Visitor] rather
// than switching on class names.
package model

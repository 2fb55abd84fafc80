// Package hydrate turns loosely-typed model documents into a linked,
// de-duplicated, bidirectionally consistent resource graph.
//
// A [Session] owns one [model.Registry]. [Session.FromJSON] runs a pass in
// two phases:
//
//  1. Materialize. Each JSON object becomes a *model.Resource pre-filled with
//     its class defaults. Every writable relationship field is resolved:
//     string ids become registry pointers (creating stubs for ids not seen
//     yet), inline objects are materialized recursively, and scalars given
//     to array-typed fields are wrapped.
//  2. Settle. Once every handle exists, each resolved resource has its
//     relationships mirrored onto their declared inverses, then its "assign"
//     statements applied, then its "interpolate" statements applied.
//
// Data anomalies never abort a pass. They are recorded as
// [errors.Diagnostic] values and logged; see [Session.Diagnostics].
//
// Each resource's fields are resolved at most once per pass, so cyclic
// references (a link hosting a node that points back at the link)
// terminate regardless of traversal order.
//
// A Session is not reentrant. A second FromJSON while one is running
// returns an error with code SESSION_BUSY. Sessions share nothing mutable,
// so independent sessions may run in parallel over the same metamodel.
package hydrate

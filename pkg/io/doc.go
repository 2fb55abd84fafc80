// Package io reads model documents and writes hydration exports.
//
// # Formats
//
// Model documents are JSON or YAML objects. Both decode to the same value
// types: map[string]any for objects, []any for arrays, float64 for every
// number, string and bool. The hydrator relies on that uniformity, so YAML
// integers and non-string keys are normalized on the way in.
//
//	{
//	  "id": "g1", "class": "Graph",
//	  "nodes": [{"id": "n1"}, {"id": "n2"}],
//	  "links": [{"id": "l1", "source": "n1", "target": "n2"}]
//	}
//
// # Import
//
// Use [ImportFile] to read a document from a path (the format follows the
// extension), or [Read] with an explicit [Format] for any io.Reader:
//
//	doc, err := io.ImportFile("model.yaml")
//
// # Export
//
// [WriteJSON] and [WriteYAML] encode any value, typically the output of
// model.Registry.Export, with stable indentation:
//
//	err := io.ExportFile(reg.Export(1, false), "out.json")
package io

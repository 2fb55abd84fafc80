package pipeline

import (
	"bytes"
	"fmt"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/hydrate"
	lgio "github.com/open-physiology/lyphgraph/pkg/io"
)

// Document is the serialized outcome of a hydration run.
type Document struct {
	Session     string              `json:"session"`
	Schema      string              `json:"schema,omitempty"`
	Root        string              `json:"root"`
	Summary     Summary             `json:"summary"`
	Resources   []map[string]any    `json:"resources"`
	Diagnostics []errors.Diagnostic `json:"diagnostics"`
}

// Summary counts what a run produced.
type Summary struct {
	Resources int            `json:"resources"`
	Stubs     int            `json:"stubs"`
	Classes   map[string]int `json:"classes"`
	Errors    int            `json:"errors"`
	Warnings  int            `json:"warnings"`
	Infos     int            `json:"infos"`
}

// NewDocument builds the export of a hydration result.
func NewDocument(res *hydrate.Result, schemaID string, depth int, inline bool) *Document {
	resources := res.Registry.Export(depth, inline)
	stubs := len(res.Registry.Stubs())
	counts := errors.CountBySeverity(res.Diagnostics)

	diags := res.Diagnostics
	if diags == nil {
		diags = []errors.Diagnostic{}
	}
	root := ""
	if res.Root != nil {
		root = res.Root.ID
	}
	return &Document{
		Session: res.SessionID,
		Schema:  schemaID,
		Root:    root,
		Summary: Summary{
			Resources: len(resources),
			Stubs:     stubs,
			Classes:   classCounts(resources),
			Errors:    counts[errors.SeverityError],
			Warnings:  counts[errors.SeverityWarning],
			Infos:     counts[errors.SeverityInfo],
		},
		Resources:   resources,
		Diagnostics: diags,
	}
}

func classCounts(resources []map[string]any) map[string]int {
	out := make(map[string]int)
	for _, r := range resources {
		if c, ok := r["class"].(string); ok {
			out[c]++
		}
	}
	return out
}

// Encode serializes the document in an export format.
func (d *Document) Encode(format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		if err := lgio.WriteJSON(d, &buf); err != nil {
			return nil, err
		}
	case FormatYAML:
		// Encode through the JSON shape so YAML keys match the JSON tags.
		generic, err := toGeneric(d)
		if err != nil {
			return nil, err
		}
		if err := lgio.WriteYAML(generic, &buf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	return buf.Bytes(), nil
}

func toGeneric(d *Document) (map[string]any, error) {
	var buf bytes.Buffer
	if err := lgio.WriteJSON(d, &buf); err != nil {
		return nil, err
	}
	return lgio.ReadJSON(&buf)
}

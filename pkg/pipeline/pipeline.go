// Package pipeline runs the read → hydrate → export/render flow for lyphgraph.
//
// The CLI and the HTTP server both go through a [Runner], so a model
// document produces the same export, diagnostics and pictures regardless of
// the entry point.
//
// # Stages
//
//  1. Hydrate: materialize the document against the metamodel in a fresh
//     session, collecting diagnostics
//  2. Export: serialize the registry as a [Document] (JSON or YAML)
//  3. Render: draw the resource graph (DOT, SVG, PNG, PDF)
//
// Exports and renders are cached by the hash of the input document and the
// options that shape the output.
//
// # Usage
//
//	runner := pipeline.NewRunner(meta, c, nil, logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{
//	    Formats: []string{"json", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/open-physiology/lyphgraph/pkg/cache"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/model"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultClass is applied to documents without a "class" member.
	DefaultClass = model.ClassGraph

	// DefaultInlineDepth is the nesting depth used when inline export is
	// requested without an explicit depth.
	DefaultInlineDepth = 1
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatYAML: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// IsExportFormat reports whether format serializes the registry rather
// than drawing it.
func IsExportFormat(format string) bool {
	return format == FormatJSON || format == FormatYAML
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the hydration pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Hydrate options
	Source string `json:"source,omitempty"` // label for logs and hooks
	Class  string `json:"class,omitempty"`  // default class of the document root

	// Export options
	Depth  int  `json:"depth,omitempty"`
	Inline bool `json:"inline,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Stubs    bool     `json:"stubs,omitempty"`
	Scale    float64  `json:"scale,omitempty"` // PNG scale factor

	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Session is the hydration session id. On a cache hit it is the id of
	// the session that produced the cached export.
	Session string

	// DocHash is the content hash of the input document.
	DocHash string

	// Registry and Root are set only when hydration ran (not on a cache hit).
	Registry *model.Registry
	Root     *model.Resource

	// Document is the export of the run.
	Document *Document

	// Artifacts contains outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Diagnostics returns the diagnostics of the run.
func (r *Result) Diagnostics() []errors.Diagnostic {
	if r.Document == nil {
		return nil
	}
	return r.Document.Diagnostics
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Resources   int
	Stubs       int
	HydrateTime time.Duration
	ExportTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ExportHit bool // Whether the export came from cache
	RenderHit bool // Whether all rendered artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, yaml, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Class == "" {
		o.Class = DefaultClass
	}
	if o.Source == "" {
		o.Source = "-"
	}
	if o.Depth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "depth must be >= 0, got %d", o.Depth)
	}
	if o.Inline && o.Depth == 0 {
		o.Depth = DefaultInlineDepth
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 {
		o.Scale = 2.0
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// RenderFormats returns the requested formats that draw the graph.
func (o *Options) RenderFormats() []string {
	var out []string
	for _, f := range o.Formats {
		if !IsExportFormat(f) {
			out = append(out, f)
		}
	}
	return out
}

// ExportKeyOpts returns cache key options for the export.
func (o *Options) ExportKeyOpts(schemaID string) cache.ExportKeyOpts {
	return cache.ExportKeyOpts{
		SchemaID: schemaID,
		Class:    o.Class,
		Depth:    o.Depth,
		Inline:   o.Inline,
		Format:   FormatJSON,
	}
}

// RenderKeyOpts returns cache key options for one rendered format.
func (o *Options) RenderKeyOpts(schemaID, format string) cache.RenderKeyOpts {
	layout := "dot"
	if o.Detailed {
		layout = "dot-detailed"
	}
	if o.Stubs {
		layout += "+stubs"
	}
	if format == FormatPNG {
		layout += fmt.Sprintf("@%.2f", o.Scale)
	}
	return cache.RenderKeyOpts{
		SchemaID: schemaID,
		Class:    o.Class,
		Format:   format,
		Layout:   layout,
		Hidden:   o.Hidden,
	}
}

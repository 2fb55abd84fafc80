package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/open-physiology/lyphgraph/pkg/cache"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/hydrate"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
	"github.com/open-physiology/lyphgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner holds no per-run state: every Execute hydrates into a fresh
// session, so multiple goroutines can share one Runner.
type Runner struct {
	Meta    *metamodel.MetaModel
	Classes *model.Classes
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	// ExportTTL is how long exports stay cached; zero means cache.TTLExport.
	ExportTTL time.Duration
}

// NewRunner creates a runner for the given metamodel.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(meta *metamodel.MetaModel, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Meta:    meta,
		Classes: model.DefaultClasses(),
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// Execute runs the complete hydrate → export → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, doc map[string]any, opts Options) (*Result, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "model document is empty")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	docHash, err := cache.HashValue(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "hash document")
	}
	result := &Result{
		DocHash:   docHash,
		Artifacts: make(map[string][]byte),
	}

	if !opts.Refresh && r.fromCache(ctx, result, opts) {
		opts.Logger.Info("loaded from cache", "source", opts.Source, "hash", docHash[:12])
		return result, nil
	}

	// Stage 1: Hydrate
	hydrateStart := time.Now()
	hres, err := r.Hydrate(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("hydrate: %w", err)
	}
	result.Session = hres.SessionID
	result.Registry = hres.Registry
	result.Root = hres.Root
	result.Stats.HydrateTime = time.Since(hydrateStart)
	result.Stats.Resources = hres.Registry.Len()
	result.Stats.Stubs = len(hres.Registry.Stubs())

	// Stage 2: Export
	exportStart := time.Now()
	result.Document = NewDocument(hres, r.schemaID(), opts.Depth, opts.Inline)
	if err := r.encodeExports(ctx, result, opts); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Stats.ExportTime = time.Since(exportStart)
	r.store(ctx, "export", r.exportKey(docHash, opts), result.Document)

	// Stage 3: Render
	if formats := opts.RenderFormats(); len(formats) > 0 {
		renderStart := time.Now()
		observability.Pipeline().OnRenderStart(ctx, formats)
		artifacts, err := Render(hres.Registry, opts)
		result.Stats.RenderTime = time.Since(renderStart)
		observability.Pipeline().OnRenderComplete(ctx, formats, result.Stats.RenderTime, err)
		if err != nil {
			return nil, err
		}
		for format, data := range artifacts {
			result.Artifacts[format] = data
			key := r.Keyer.RenderKey(docHash, opts.RenderKeyOpts(r.schemaID(), format))
			if err := r.Cache.Set(ctx, key, data, cache.TTLRender); err == nil {
				observability.Cache().OnCacheSet(ctx, "render", len(data))
			}
		}
		opts.Logger.Info("rendered outputs",
			"formats", formats,
			"duration", result.Stats.RenderTime)
	}

	return result, nil
}

// Hydrate loads doc into a fresh session without touching the cache.
func (r *Runner) Hydrate(ctx context.Context, doc map[string]any, opts Options) (*hydrate.Result, error) {
	r.applyLogger(&opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Meta == nil {
		return nil, errors.New(errors.ErrCodeInternal, "pipeline: runner has no metamodel")
	}
	class := opts.Class
	if class == "" {
		class = DefaultClass
	}

	observability.Pipeline().OnHydrateStart(ctx, opts.Source)
	res, err := hydrate.Load(r.Meta, r.classes(), doc, class, opts.Logger)
	if err != nil {
		observability.Pipeline().OnHydrateComplete(ctx, opts.Source, observability.HydrateStats{}, 0, err)
		return nil, err
	}

	counts := errors.CountBySeverity(res.Diagnostics)
	stats := observability.HydrateStats{
		Resources:   res.Registry.Len(),
		Stubs:       len(res.Registry.Stubs()),
		Diagnostics: len(res.Diagnostics),
		Warnings:    counts[errors.SeverityWarning],
	}
	observability.Pipeline().OnHydrateComplete(ctx, opts.Source, stats, res.Duration, nil)

	opts.Logger.Info("hydrated model",
		"source", opts.Source,
		"resources", stats.Resources,
		"stubs", stats.Stubs,
		"warnings", stats.Warnings,
		"duration", res.Duration)
	return res, nil
}

// fromCache fills result when the export and every rendered format are
// cached. A partial hit counts as a miss.
func (r *Runner) fromCache(ctx context.Context, result *Result, opts Options) bool {
	var doc Document
	if err := cache.GetJSON(ctx, r.Cache, r.exportKey(result.DocHash, opts), &doc); err != nil {
		observability.Cache().OnCacheMiss(ctx, "export")
		return false
	}
	observability.Cache().OnCacheHit(ctx, "export")

	rendered := make(map[string][]byte)
	for _, format := range opts.RenderFormats() {
		key := r.Keyer.RenderKey(result.DocHash, opts.RenderKeyOpts(r.schemaID(), format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			observability.Cache().OnCacheMiss(ctx, "render")
			return false
		}
		observability.Cache().OnCacheHit(ctx, "render")
		rendered[format] = data
	}

	result.Session = doc.Session
	result.Document = &doc
	result.Stats.Resources = doc.Summary.Resources + doc.Summary.Stubs
	result.Stats.Stubs = doc.Summary.Stubs
	if err := r.encodeExports(ctx, result, opts); err != nil {
		return false
	}
	for format, data := range rendered {
		result.Artifacts[format] = data
	}
	result.CacheInfo.ExportHit = true
	result.CacheInfo.RenderHit = len(rendered) > 0
	return true
}

func (r *Runner) encodeExports(ctx context.Context, result *Result, opts Options) error {
	for _, format := range opts.Formats {
		if !IsExportFormat(format) {
			continue
		}
		start := time.Now()
		data, err := result.Document.Encode(format)
		observability.Pipeline().OnExportComplete(ctx, format, len(data), time.Since(start), err)
		if err != nil {
			return err
		}
		result.Artifacts[format] = data
	}
	return nil
}

func (r *Runner) store(ctx context.Context, keyType, key string, v any) {
	data, err := json.Marshal(v)
	if err == nil {
		err = r.Cache.Set(ctx, key, data, r.exportTTL())
	}
	if err != nil {
		r.Logger.Debug("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) exportKey(docHash string, opts Options) string {
	return r.Keyer.ExportKey(docHash, opts.ExportKeyOpts(r.schemaID()))
}

func (r *Runner) exportTTL() time.Duration {
	if r.ExportTTL > 0 {
		return r.ExportTTL
	}
	return cache.TTLExport
}

func (r *Runner) schemaID() string {
	if r.Meta == nil {
		return ""
	}
	return r.Meta.Schema().ID()
}

func (r *Runner) classes() *model.Classes {
	if r.Classes == nil {
		return model.DefaultClasses()
	}
	return r.Classes
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

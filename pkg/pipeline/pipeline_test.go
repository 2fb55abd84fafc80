package pipeline

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/open-physiology/lyphgraph/pkg/cache"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/observability"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"yaml", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "svg"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"json", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("empty options should pass: %v", err)
	}
	if opts.Class != DefaultClass {
		t.Errorf("Class = %q, want %q", opts.Class, DefaultClass)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatJSON {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	inline := Options{Inline: true}
	if err := inline.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if inline.Depth != DefaultInlineDepth {
		t.Errorf("inline Depth = %d, want %d", inline.Depth, DefaultInlineDepth)
	}

	bad := Options{Depth: -1}
	if err := bad.ValidateAndSetDefaults(); err == nil {
		t.Error("negative depth should fail")
	}
}

func TestRenderFormats(t *testing.T) {
	opts := Options{Formats: []string{"json", "svg", "yaml", "dot"}}
	got := opts.RenderFormats()
	if strings.Join(got, ",") != "svg,dot" {
		t.Errorf("RenderFormats = %v", got)
	}
}

func TestRenderKeyOptsDiffer(t *testing.T) {
	a := Options{Scale: 1}
	b := Options{Scale: 2}
	if a.RenderKeyOpts("s", FormatPNG) == b.RenderKeyOpts("s", FormatPNG) {
		t.Error("PNG scale should change the render key")
	}
	if a.RenderKeyOpts("s", FormatSVG) != b.RenderKeyOpts("s", FormatSVG) {
		t.Error("scale should not change the SVG key")
	}
}

func testDoc() map[string]any {
	return map[string]any{
		"id":    "g",
		"class": "Graph",
		"nodes": []any{
			map[string]any{"id": "n1", "name": "Start"},
			map[string]any{"id": "n2"},
		},
		"links": []any{
			map[string]any{"id": "l1", "source": "n1", "target": "n2"},
			map[string]any{"id": "l2", "source": "n2", "target": "n9"},
		},
	}
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	meta, err := metamodel.Default()
	if err != nil {
		t.Fatalf("metamodel.Default: %v", err)
	}
	return NewRunner(meta, c, nil, nil)
}

func TestExecuteExport(t *testing.T) {
	r := newTestRunner(t, nil)

	res, err := r.Execute(context.Background(), testDoc(), Options{Formats: []string{"json", "yaml"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Registry == nil || res.Root == nil || res.Root.ID != "g" {
		t.Fatalf("expected hydrated root g, got %+v", res.Root)
	}
	doc := res.Document
	if doc.Root != "g" || doc.Session != res.Session {
		t.Errorf("document header = %q/%q", doc.Root, doc.Session)
	}
	if doc.Summary.Classes["Node"] != 2 || doc.Summary.Classes["Link"] != 2 {
		t.Errorf("class counts = %v", doc.Summary.Classes)
	}
	if doc.Summary.Stubs != 1 {
		t.Errorf("stubs = %d, want 1 (n9)", doc.Summary.Stubs)
	}
	if doc.Summary.Warnings == 0 {
		t.Error("dangling n9 should produce a warning")
	}

	if !bytes.Contains(res.Artifacts["json"], []byte(`"root": "g"`)) {
		t.Errorf("json artifact: %s", res.Artifacts["json"])
	}
	if !bytes.Contains(res.Artifacts["yaml"], []byte("root: g")) {
		t.Errorf("yaml artifact: %s", res.Artifacts["yaml"])
	}
	if res.CacheInfo.ExportHit {
		t.Error("NullCache should never hit")
	}
}

func TestExecuteRender(t *testing.T) {
	r := newTestRunner(t, nil)

	res, err := r.Execute(context.Background(), testDoc(), Options{Formats: []string{"dot", "svg"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(string(res.Artifacts["dot"]), `"n1" -> "n2"`) {
		t.Errorf("dot artifact: %s", res.Artifacts["dot"])
	}
	if !bytes.Contains(res.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact missing")
	}
	if _, ok := res.Artifacts["json"]; ok {
		t.Error("json was not requested")
	}
}

func TestExecuteCache(t *testing.T) {
	c, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c)
	ctx := context.Background()
	opts := Options{Formats: []string{"json", "dot"}}

	first, err := r.Execute(ctx, testDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ExportHit {
		t.Error("first run should miss")
	}

	second, err := r.Execute(ctx, testDoc(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ExportHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit, got %+v", second.CacheInfo)
	}
	if second.Registry != nil {
		t.Error("cache hit should not hydrate")
	}
	if second.Session != first.Session {
		t.Errorf("session = %q, want cached %q", second.Session, first.Session)
	}
	if len(second.Diagnostics()) != len(first.Diagnostics()) {
		t.Errorf("diagnostics = %d, want %d", len(second.Diagnostics()), len(first.Diagnostics()))
	}
	if second.Diagnostics()[0].Code != first.Diagnostics()[0].Code {
		t.Error("cached diagnostics differ")
	}
	if !bytes.Equal(second.Artifacts["dot"], first.Artifacts["dot"]) {
		t.Error("cached dot differs")
	}

	refreshed, err := r.Execute(ctx, testDoc(), Options{Formats: opts.Formats, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.ExportHit || refreshed.Registry == nil {
		t.Error("refresh should bypass the cache")
	}

	changed := testDoc()
	changed["name"] = "changed"
	other, err := r.Execute(ctx, changed, opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheInfo.ExportHit {
		t.Error("a changed document should miss")
	}

	// A new render format is a partial hit and re-runs everything.
	partial, err := r.Execute(ctx, testDoc(), Options{Formats: []string{"json", "dot", "svg"}})
	if err != nil {
		t.Fatal(err)
	}
	if partial.CacheInfo.ExportHit {
		t.Error("partial hit should count as a miss")
	}
}

func TestExecuteErrors(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx := context.Background()

	if _, err := r.Execute(ctx, nil, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil doc: %v", err)
	}
	if _, err := r.Execute(ctx, testDoc(), Options{Formats: []string{"gif"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format: %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := r.Execute(cancelled, testDoc(), Options{}); err == nil {
		t.Error("cancelled context should fail")
	}

	empty := NewRunner(nil, nil, nil, nil)
	if _, err := empty.Execute(ctx, testDoc(), Options{}); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("missing metamodel: %v", err)
	}
}

func TestExecuteConcurrent(t *testing.T) {
	r := newTestRunner(t, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Execute(context.Background(), testDoc(), Options{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Execute: %v", err)
		}
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	events  []string
	lastRes int
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnHydrateStart(context.Context, string) { h.record("hydrate.start") }
func (h *recordingHooks) OnHydrateComplete(_ context.Context, _ string, s observability.HydrateStats, _ time.Duration, _ error) {
	h.lastRes = s.Resources
	h.record("hydrate.complete")
}
func (h *recordingHooks) OnExportComplete(_ context.Context, format string, _ int, _ time.Duration, _ error) {
	h.record("export." + format)
}
func (h *recordingHooks) OnRenderStart(context.Context, []string) { h.record("render.start") }
func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.record("render.complete")
}

type countingCacheHooks struct {
	observability.NoopCacheHooks
	mu               sync.Mutex
	hits, miss, sets int
}

func (h *countingCacheHooks) OnCacheHit(context.Context, string) {
	h.mu.Lock()
	h.hits++
	h.mu.Unlock()
}
func (h *countingCacheHooks) OnCacheMiss(context.Context, string) {
	h.mu.Lock()
	h.miss++
	h.mu.Unlock()
}
func (h *countingCacheHooks) OnCacheSet(context.Context, string, int) {
	h.mu.Lock()
	h.sets++
	h.mu.Unlock()
}

func TestExecuteHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	hooks := &recordingHooks{}
	cacheHooks := &countingCacheHooks{}
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(cacheHooks)

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c)
	if _, err := r.Execute(context.Background(), testDoc(), Options{Formats: []string{"json", "dot"}}); err != nil {
		t.Fatal(err)
	}

	want := "hydrate.start,hydrate.complete,export.json,render.start,render.complete"
	if got := strings.Join(hooks.events, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
	if hooks.lastRes != 6 {
		t.Errorf("hydrate stats resources = %d, want 6 (g, n1, n2, l1, l2, n9)", hooks.lastRes)
	}
	if cacheHooks.miss != 1 || cacheHooks.sets != 2 {
		t.Errorf("cache hooks: miss=%d sets=%d", cacheHooks.miss, cacheHooks.sets)
	}

	if _, err := r.Execute(context.Background(), testDoc(), Options{Formats: []string{"json", "dot"}}); err != nil {
		t.Fatal(err)
	}
	if cacheHooks.hits != 2 {
		t.Errorf("cache hits = %d, want 2 (export + dot)", cacheHooks.hits)
	}
}

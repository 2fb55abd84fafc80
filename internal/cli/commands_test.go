package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/open-physiology/lyphgraph/pkg/errors"
)

func TestHydrateToStdout(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	out, stderr, err := runCLI(t, "", "hydrate", "--no-cache", path)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !strings.Contains(out, `"root": "g"`) {
		t.Errorf("stdout should carry the JSON export, got:\n%s", out)
	}
	if !strings.Contains(stderr, "DANGLING_REFERENCE") {
		t.Errorf("stderr should list the dangling n9 reference, got:\n%s", stderr)
	}
	if !strings.Contains(stderr, "1 stubs") {
		t.Errorf("stderr should report one stub, got:\n%s", stderr)
	}
}

func TestHydrateYAMLToFile(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)
	dest := filepath.Join(t.TempDir(), "export.yaml")

	out, stderr, err := runCLI(t, "", "hydrate", "--no-cache", "-f", "yaml", "-o", dest, path)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should stay empty with -o, got %q", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "root: g") {
		t.Errorf("yaml export = %s", data)
	}
	if !strings.Contains(stderr, dest) {
		t.Errorf("stderr should name the output file, got:\n%s", stderr)
	}
}

func TestHydrateStdinYAML(t *testing.T) {
	isolate(t)
	model := "id: g\nclass: Graph\nnodes:\n  - id: a\n  - id: b\n"

	out, _, err := runCLI(t, model, "hydrate", "--no-cache", "--input-format", "yaml", "-")
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !strings.Contains(out, `"id": "a"`) || !strings.Contains(out, `"id": "b"`) {
		t.Errorf("export should list both nodes, got:\n%s", out)
	}
}

func TestHydrateStrict(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	_, _, err := runCLI(t, "", "hydrate", "--no-cache", "--strict", path)
	if !errors.Is(err, errors.ErrCodeConsistency) {
		t.Errorf("err = %v, want strict failure", err)
	}

	clean := writeModel(t, "clean.json", `{"id": "g", "class": "Graph", "nodes": [{"id": "a"}]}`)
	if _, _, err := runCLI(t, "", "hydrate", "--no-cache", "--strict", clean); err != nil {
		t.Errorf("clean model should pass strict mode: %v", err)
	}
}

func TestHydrateCaches(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	if _, stderr, err := runCLI(t, "", "hydrate", path); err != nil || !strings.Contains(stderr, iconFresh) {
		t.Fatalf("first run: err=%v stderr=%s", err, stderr)
	}
	_, stderr, err := runCLI(t, "", "hydrate", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, iconCached) {
		t.Errorf("second run should be served from cache, got:\n%s", stderr)
	}
}

func TestHydrateErrors(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad export format", []string{"hydrate", "-f", "svg", path}, errors.ErrCodeInvalidFormat},
		{"missing file", []string{"hydrate", filepath.Join(t.TempDir(), "missing.json")}, ""},
		{"negative depth", []string{"hydrate", "--no-cache", "--depth", "-1", path}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.code != "" && !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderDOT(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)
	base := filepath.Join(t.TempDir(), "diagram")

	_, _, err := runCLI(t, "", "render", "--no-cache", "-f", "dot,svg", "-o", base, path)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"n1" -> "n2"`) {
		t.Errorf("dot output:\n%s", dot)
	}
	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Errorf("svg output does not look like SVG")
	}
}

func TestRenderRejectsExportFormat(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	_, _, err := runCLI(t, "", "render", "-f", "json", path)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestSchemaList(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "schema", "list")
	if err != nil {
		t.Fatalf("schema list: %v", err)
	}
	for _, want := range []string{"Class", "Lyph", "Shape", "abstract"} {
		if !strings.Contains(out, want) {
			t.Errorf("schema list should mention %q", want)
		}
	}
}

func TestSchemaShow(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "schema", "show", "Link")
	if err != nil {
		t.Fatalf("schema show: %v", err)
	}
	for _, want := range []string{"Link", "source", "sourceOf", "geometry"} {
		if !strings.Contains(out, want) {
			t.Errorf("schema show Link should mention %q:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, "", "schema", "show", "--json", "Link")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"name": "Link"`) {
		t.Errorf("json output:\n%s", out)
	}

	_, _, err = runCLI(t, "", "schema", "show", "Unicorn")
	if !errors.Is(err, errors.ErrCodeClassNotFound) {
		t.Errorf("err = %v, want CLASS_NOT_FOUND", err)
	}
}

func TestCacheClear(t *testing.T) {
	isolate(t)
	path := writeModel(t, "model.json", graphModel)

	if _, _, err := runCLI(t, "", "hydrate", path); err != nil {
		t.Fatal(err)
	}
	dir, _ := cacheDir()
	entries, _ := os.ReadDir(dir)
	if len(entries) == 0 {
		t.Fatalf("expected cache entries in %s", dir)
	}

	_, stderr, err := runCLI(t, "", "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(stderr, "Cache cleared") {
		t.Errorf("stderr = %q", stderr)
	}
	entries, _ = os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("cache dir still holds %d entries", len(entries))
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out, _, err := runCLI(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Error("bash completion should mention the program name")
	}
}

package io

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReadFormats(t *testing.T) {
	want := map[string]any{
		"id":    "g",
		"nodes": []any{map[string]any{"id": "n1", "charge": 10.0}},
		"fixed": true,
	}

	tests := []struct {
		name   string
		format Format
		src    string
	}{
		{"json", FormatJSON, `{"id": "g", "nodes": [{"id": "n1", "charge": 10}], "fixed": true}`},
		{"yaml", FormatYAML, "id: g\nnodes:\n  - id: n1\n    charge: 10\nfixed: true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.src), tt.format)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got %#v, want %#v", got, want)
			}
		})
	}
}

func TestReadYAMLNonStringKeys(t *testing.T) {
	got, err := ReadYAML(strings.NewReader("id: g\nlayout:\n  1: a\n"))
	if err != nil {
		t.Fatalf("ReadYAML: %v", err)
	}
	layout, ok := got["layout"].(map[string]any)
	if !ok || layout["1"] != "a" {
		t.Errorf("layout = %#v", got["layout"])
	}
}

func TestReadRejectsNonObject(t *testing.T) {
	for _, src := range []string{`[1, 2]`, `"x"`, `{`} {
		if _, err := ReadJSON(strings.NewReader(src)); err == nil {
			t.Errorf("ReadJSON(%s): expected error", src)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml): expected error")
	}
	if f, _ := ParseFormat("YML"); f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %q", f)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]any{"id": "g", "lyphs": []any{map[string]any{"id": "K", "angle": 1.5}}}

	for _, name := range []string{"out.json", "out.yaml"} {
		path := filepath.Join(dir, name)
		if err := ExportFile(doc, path); err != nil {
			t.Fatalf("ExportFile(%s): %v", name, err)
		}
		got, err := ImportFile(path)
		if err != nil {
			t.Fatalf("ImportFile(%s): %v", name, err)
		}
		if !reflect.DeepEqual(got, doc) {
			t.Errorf("%s: got %#v, want %#v", name, got, doc)
		}
	}
}

func TestImportFileMissing(t *testing.T) {
	_, err := ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !os.IsNotExist(unwrapAll(err)) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestWriteJSONIndent(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(map[string]any{"id": "a"}, &buf); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "{\n  \"id\": \"a\"\n}\n" {
		t.Errorf("got %q", buf.String())
	}
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok || u.Unwrap() == nil {
			return err
		}
		err = u.Unwrap()
	}
}

package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Read decodes a model document from r.
//
// The document must be a single object. Read does not close r.
func Read(r io.Reader, format Format) (map[string]any, error) {
	if format == FormatYAML {
		return ReadYAML(r)
	}
	return ReadJSON(r)
}

// ReadJSON decodes a JSON model document.
func ReadJSON(r io.Reader) (map[string]any, error) {
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return asDocument(v)
}

// ReadYAML decodes a YAML model document.
func ReadYAML(r io.Reader) (map[string]any, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return asDocument(normalize(v))
}

// Parse decodes a document held in memory.
func Parse(data []byte, format Format) (map[string]any, error) {
	return Read(strings.NewReader(string(data)), format)
}

// ImportFile reads the document at path, choosing the format by extension.
func ImportFile(path string) (map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func asDocument(v any) (map[string]any, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document must be an object, got %T", v)
	}
	return doc, nil
}

// normalize converts YAML-decoded values to the JSON value types.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	}
	return v
}

package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/open-physiology/lyphgraph/pkg/cache"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	lgio "github.com/open-physiology/lyphgraph/pkg/io"
	"github.com/open-physiology/lyphgraph/pkg/source"
)

// readModel reads a model document from a file, an http(s) URL, or from
// c.In when path is "-". Fetched documents are cached in store.
func (c *CLI) readModel(ctx context.Context, store cache.Cache, path, format string, refresh bool) (map[string]any, error) {
	loader := &source.Loader{
		Cache:   store,
		TTL:     c.Config.Cache.TTL.Duration,
		Stdin:   c.In,
		Logger:  c.Logger,
		Refresh: refresh,
	}
	if format != "" {
		f, err := lgio.ParseFormat(format)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "input format")
		}
		loader.Format = f
	}
	return loader.Load(ctx, path)
}

// nopCloser wraps an io.Writer with a no-op Close method.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns c.Out when path is empty, otherwise creates the file
// at path, overwriting if it exists.
func (c *CLI) openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{c.Out}, nil
	}
	return os.Create(path)
}

// basePath derives the base output path from the output and input paths.
// An empty output strips the extension from input; a known format
// extension on output is stripped too.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == stdinPath {
			return "model"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".dot", ".svg", ".png", ".pdf", ".json", ".yaml", ".yml":
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}

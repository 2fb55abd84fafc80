// Package source loads model documents from a file, standard input or an
// http(s) URL.
//
// Remote documents are fetched with retries on network failures and 5xx
// responses, and cached by URL:
//
//	l := &source.Loader{Cache: fileCache, TTL: time.Hour}
//	doc, err := l.Load(ctx, "https://example.org/models/heart.yaml")
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/open-physiology/lyphgraph/pkg/cache"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	lgio "github.com/open-physiology/lyphgraph/pkg/io"
)

// Stdin names standard input as a source.
const Stdin = "-"

// DefaultTTL is how long fetched documents stay cached.
const DefaultTTL = time.Hour

// MaxDocumentBytes caps the size of a fetched document.
const MaxDocumentBytes = 64 << 20

// Loader resolves a source reference to a decoded model document.
// The zero value reads files and stdin and fetches URLs without caching.
type Loader struct {
	HTTP   *http.Client
	Cache  cache.Cache
	TTL    time.Duration
	Stdin  io.Reader
	Logger *log.Logger

	// Format overrides detection by extension.
	Format lgio.Format

	// Refresh bypasses cached documents.
	Refresh bool
}

// IsURL reports whether ref is an http or https URL.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads the document named by ref.
func (l *Loader) Load(ctx context.Context, ref string) (map[string]any, error) {
	switch {
	case ref == Stdin:
		in := l.Stdin
		if in == nil {
			in = os.Stdin
		}
		doc, err := lgio.Read(in, l.format(ref))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return doc, nil
	case IsURL(ref):
		data, err := l.fetch(ctx, ref)
		if err != nil {
			return nil, err
		}
		doc, err := lgio.Parse(data, l.format(ref))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", ref)
		}
		return doc, nil
	default:
		f, err := os.Open(ref)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "model %s", ref)
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", ref)
		}
		defer f.Close()
		doc, err := lgio.Read(f, l.format(ref))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", ref)
		}
		return doc, nil
	}
}

// format picks the decoder: the override, then the extension of ref (or
// of the URL path).
func (l *Loader) format(ref string) lgio.Format {
	if l.Format != "" {
		return l.Format
	}
	if ref == Stdin {
		return lgio.FormatJSON
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return lgio.FormatFromPath(u.Path)
	}
	return lgio.FormatFromPath(ref)
}

// fetch returns the body of url, from the cache when possible.
func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	logger := l.logger()
	key := "source:" + cache.Hash([]byte(rawURL))
	if l.Cache != nil && !l.Refresh {
		if data, ok, err := l.Cache.Get(ctx, key); err == nil && ok {
			logger.Debug("source cache hit", "url", rawURL)
			return data, nil
		}
	}

	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = l.get(ctx, rawURL)
		if err != nil && cache.IsRetryable(err) {
			logger.Debug("fetch failed, retrying", "url", rawURL, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched model", "url", rawURL, "bytes", len(data))

	if l.Cache != nil {
		ttl := l.TTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		if err := l.Cache.Set(ctx, key, data, ttl); err != nil {
			logger.Debug("source cache write failed", "error", err)
		}
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "request %s", rawURL)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.1")

	resp, err := l.client().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp.StatusCode); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %v", cache.ErrNetwork, err))
	}
	if n > MaxDocumentBytes {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s exceeds %d bytes", rawURL, MaxDocumentBytes)
	}
	return buf.Bytes(), nil
}

func checkStatus(rawURL string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "%s: not found", rawURL)
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: %s: status %d", cache.ErrNetwork, rawURL, code))
	default:
		return errors.New(errors.ErrCodeInvalidInput, "%s: status %d", rawURL, code)
	}
}

func (l *Loader) client() *http.Client {
	if l.HTTP != nil {
		return l.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (l *Loader) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}

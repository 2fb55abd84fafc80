package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-physiology/lyphgraph/pkg/cache"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/observability"
	"github.com/open-physiology/lyphgraph/pkg/pipeline"
)

const graphJSON = `{
  "id": "g",
  "class": "Graph",
  "nodes": [{"id": "n1", "name": "Start"}, {"id": "n2"}],
  "links": [
    {"id": "l1", "source": "n1", "target": "n2"},
    {"id": "l2", "source": "n2", "target": "n9"}
  ]
}`

const graphYAML = `id: g
class: Graph
nodes:
  - id: n1
  - id: n2
links:
  - id: l1
    source: n1
    target: n2
`

func newTestServer(t *testing.T, c cache.Cache, opts Options) *Server {
	t.Helper()
	meta, err := metamodel.Default()
	require.NoError(t, err)
	return New(pipeline.NewRunner(meta, c, nil, nil), nil, opts)
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error body, got %v", body)
	code, _ := e["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec, _ := do(t, s, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestClasses(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/classes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["classes"], "Lyph")
	assert.Contains(t, body["resources"], "Link")
}

func TestClass(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	rec, body := do(t, s, httptest.NewRequest(http.MethodGet, "/classes/Lyph", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lyph", body["name"])
	assert.Equal(t, []any{"Lyph", "Shape", "VisualResource", "Resource"}, body["ancestry"])
	assert.NotEmpty(t, body["relationships"])

	rec, body = do(t, s, httptest.NewRequest(http.MethodGet, "/classes/Unicorn", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CLASS_NOT_FOUND", errorCode(t, body))
}

func TestHydrateJSON(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/hydrate?formats=json,dot", strings.NewReader(graphJSON))
	req.Header.Set("Content-Type", "application/json")
	rec, body := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "g", body["root"])
	assert.NotEmpty(t, body["session"])
	assert.Equal(t, rec.Header().Get(HeaderRequestID), body["request_id"])
	assert.Equal(t, false, body["cached"])

	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["stubs"])
	assert.NotZero(t, summary["warnings"])

	artifacts := body["artifacts"].(map[string]any)
	assert.Contains(t, artifacts["dot"], `"n1" -> "n2"`)
	assert.NotContains(t, artifacts, "json")
}

func TestHydrateYAML(t *testing.T) {
	s := newTestServer(t, nil, Options{})

	req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(graphYAML))
	req.Header.Set("Content-Type", "application/yaml")
	rec, body := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "g", body["root"])
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 0, summary["stubs"])
	assert.Nil(t, body["artifacts"])
}

func TestHydrateCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	s := newTestServer(t, c, Options{})

	post := func() map[string]any {
		req := httptest.NewRequest(http.MethodPost, "/hydrate", strings.NewReader(graphJSON))
		rec, body := do(t, s, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return body
	}
	first := post()
	second := post()
	assert.Equal(t, false, first["cached"])
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, first["session"], second["session"])
}

func TestHydrateErrors(t *testing.T) {
	s := newTestServer(t, nil, Options{MaxBodyBytes: 64})

	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   string
	}{
		{"malformed json", "", `{"id":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"not an object", "", `[1, 2]`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad depth", "?depth=-1", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad bool", "?inline=maybe", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown format", "?formats=gif", `{}`, http.StatusBadRequest, "INVALID_FORMAT"},
		{"binary format", "?formats=png", `{}`, http.StatusBadRequest, "UNSUPPORTED"},
		{"too large", "", `{"id": "` + strings.Repeat("x", 128) + `"}`, http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/hydrate"+tt.query, strings.NewReader(tt.body))
			rec, body := do(t, s, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

type recordingHTTPHooks struct {
	observability.NoopHTTPHooks
	routes   []string
	statuses []int
}

func (h *recordingHTTPHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.routes = append(h.routes, method+" "+route)
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooksSeeRoutePattern(t *testing.T) {
	hooks := &recordingHTTPHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	s := newTestServer(t, nil, Options{})
	do(t, s, httptest.NewRequest(http.MethodGet, "/classes/Node", nil))
	do(t, s, httptest.NewRequest(http.MethodGet, "/classes/Nope", nil))

	assert.Equal(t, []string{"GET /classes/{name}", "GET /classes/{name}"}, hooks.routes)
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, hooks.statuses)
}

func TestListenAndServeShutsDown(t *testing.T) {
	s := newTestServer(t, nil, Options{ShutdownTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor("SESSION_BUSY"))
	assert.Equal(t, http.StatusInternalServerError, statusFor(""))
	assert.Equal(t, http.StatusBadRequest, statusFor("INVALID_SCHEMA"))
}

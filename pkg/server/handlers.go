package server

import (
	"encoding/json"
	stderrors "errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/open-physiology/lyphgraph/pkg/buildinfo"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	lgio "github.com/open-physiology/lyphgraph/pkg/io"
	"github.com/open-physiology/lyphgraph/pkg/pipeline"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Schema  string `json:"schema,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Version: buildinfo.Version}
	if s.runner.Meta != nil {
		resp.Schema = s.runner.Meta.Schema().ID()
	}
	writeJSON(w, http.StatusOK, resp)
}

type classesResponse struct {
	Classes   []string `json:"classes"`
	Resources []string `json:"resources"`
}

func (s *Server) handleClasses(w http.ResponseWriter, r *http.Request) {
	if s.runner.Meta == nil {
		writeError(w, errors.New(errors.ErrCodeInternal, "no metamodel loaded"))
		return
	}
	writeJSON(w, http.StatusOK, classesResponse{
		Classes:   s.runner.Meta.Names(),
		Resources: s.runner.Meta.ResourceClasses(),
	})
}

func (s *Server) handleClass(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if s.runner.Meta == nil {
		writeError(w, errors.New(errors.ErrCodeInternal, "no metamodel loaded"))
		return
	}
	info, ok := s.runner.Meta.Describe(name)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeClassNotFound, "class %q is not defined", name))
		return
	}
	writeJSON(w, http.StatusOK, info)
}

type hydrateResponse struct {
	RequestID string `json:"request_id"`
	Cached    bool   `json:"cached"`
	*pipeline.Document
	Artifacts map[string]string `json:"artifacts,omitempty"`
}

func (s *Server) handleHydrate(w http.ResponseWriter, r *http.Request) {
	opts, err := hydrateOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	doc, err := lgio.Read(body, requestFormat(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeErrorStatus(w, http.StatusRequestEntityTooLarge,
				errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "read model document: %v", err))
		return
	}

	opts.Source = "http"
	opts.Logger = s.logger.With("request_id", RequestID(r.Context()))
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := hydrateResponse{
		RequestID: RequestID(r.Context()),
		Cached:    res.CacheInfo.ExportHit,
		Document:  res.Document,
	}
	for format, data := range res.Artifacts {
		if format == pipeline.FormatJSON {
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[format] = string(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

// hydrateOptions reads pipeline options from the query string.
func hydrateOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{Class: q.Get("class")}

	if v := q.Get("depth"); v != "" {
		depth, err := strconv.Atoi(v)
		if err != nil || depth < 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "depth must be a non-negative integer, got %q", v)
		}
		opts.Depth = depth
	}
	for name, dst := range map[string]*bool{
		"inline":   &opts.Inline,
		"detailed": &opts.Detailed,
		"hidden":   &opts.Hidden,
		"stubs":    &opts.Stubs,
		"refresh":  &opts.Refresh,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
		}
		*dst = b
	}

	if v := q.Get("formats"); v != "" {
		for _, f := range strings.Split(v, ",") {
			f = strings.ToLower(strings.TrimSpace(f))
			if f == "" {
				continue
			}
			if err := pipeline.ValidateFormat(f); err != nil {
				return opts, err
			}
			if f == pipeline.FormatPNG || f == pipeline.FormatPDF {
				return opts, errors.New(errors.ErrCodeUnsupported, "binary format %q is not served over HTTP", f)
			}
			opts.Formats = append(opts.Formats, f)
		}
	}
	return opts, nil
}

// requestFormat picks the document decoder from the Content-Type header.
func requestFormat(r *http.Request) lgio.Format {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return lgio.FormatJSON
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return lgio.FormatYAML
	}
	return lgio.FormatJSON
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeErrorStatus(w, statusFor(errors.GetCode(err)), err)
}

func writeErrorStatus(w http.ResponseWriter, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: errors.UserMessage(err)},
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidSchema, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodeClassNotFound:
		return http.StatusNotFound
	case errors.ErrCodeBusy:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

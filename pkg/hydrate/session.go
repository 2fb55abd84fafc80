package hydrate

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
)

// ErrSessionBusy is returned when a session is entered while a pass is
// already running on it.
var ErrSessionBusy = errors.New(errors.ErrCodeBusy, "hydration session is busy")

// Session is an explicit hydration context: the entity registry plus the
// bookkeeping of the current pass.
type Session struct {
	ID string

	meta    *metamodel.MetaModel
	classes *model.Classes
	reg     *model.Registry
	logger  *log.Logger

	busy atomic.Bool

	// Per-pass state.
	visited  map[*model.Resource]bool
	resolved []*model.Resource

	// expected remembers, per stub id, what the first reference accepted.
	expected map[string]refTarget
	diags    []errors.Diagnostic
}

// NewSession returns a session with an empty registry. A nil logger uses
// log.Default().
func NewSession(meta *metamodel.MetaModel, classes *model.Classes, logger *log.Logger) (*Session, error) {
	if meta == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hydrate: nil metamodel")
	}
	if classes == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hydrate: nil class registry")
	}
	if logger == nil {
		logger = log.Default()
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		meta:     meta,
		classes:  classes,
		reg:      model.NewRegistry(),
		logger:   logger.With("session", id[:8]),
		expected: make(map[string]refTarget),
	}, nil
}

// Registry returns the session's entity registry.
func (s *Session) Registry() *model.Registry { return s.reg }

// MetaModel returns the metamodel the session hydrates against.
func (s *Session) MetaModel() *metamodel.MetaModel { return s.meta }

// FromJSON hydrates one model document. The effective class is the
// document's "class" member, or defaultClass when it has none.
//
// The returned resource is registered, resolved and settled. Data problems
// are reported through [Session.Diagnostics]; the error is non-nil only for
// misuse such as a nil document or a busy session.
func (s *Session) FromJSON(raw map[string]any, defaultClass string) (*model.Resource, error) {
	if raw == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "hydrate: nil document")
	}
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}
	defer s.busy.Store(false)

	s.visited = make(map[*model.Resource]bool)
	s.resolved = s.resolved[:0]

	res := s.materialize(raw, defaultClass)
	s.settle()

	if n := len(s.reg.Stubs()); n > 0 {
		s.logger.Warn("unresolved references remain", "stubs", n)
	}
	return res, nil
}

// settle runs the second phase over every resource resolved in this pass.
// Resources materialized while settling are appended to s.resolved and
// picked up by the same loops.
func (s *Session) settle() {
	for i := 0; i < len(s.resolved); i++ {
		s.syncAll(s.resolved[i])
	}
	for i := 0; i < len(s.resolved); i++ {
		s.applyAssignments(s.resolved[i])
	}
	for i := 0; i < len(s.resolved); i++ {
		s.applyInterpolations(s.resolved[i])
	}
}

// Diagnostics returns every anomaly recorded so far, followed by one
// DANGLING_REFERENCE entry per stub that is still unfilled.
func (s *Session) Diagnostics() []errors.Diagnostic {
	out := make([]errors.Diagnostic, len(s.diags), len(s.diags)+8)
	copy(out, s.diags)
	for _, stub := range s.reg.Stubs() {
		msg := fmt.Sprintf("id %q is referenced but never defined", stub.ID)
		if ref, ok := s.expected[stub.ID]; ok {
			msg = fmt.Sprintf("%s %q is referenced but never defined", ref.class, stub.ID)
		}
		out = append(out, errors.Diagnostic{
			Severity: errors.SeverityWarning,
			Code:     errors.ErrCodeDanglingReference,
			Resource: stub.ID,
			Message:  msg,
		})
	}
	return out
}

func (s *Session) report(sev errors.Severity, code errors.Code, res *model.Resource, field, format string, args ...any) {
	d := errors.Diagnostic{Severity: sev, Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
	if res != nil {
		d.Resource = res.ID
	}
	s.diags = append(s.diags, d)

	kv := []any{"code", code}
	if d.Resource != "" {
		kv = append(kv, "id", d.Resource)
	}
	if field != "" {
		kv = append(kv, "field", field)
	}
	switch sev {
	case errors.SeverityInfo:
		s.logger.Debug(d.Message, kv...)
	case errors.SeverityWarning:
		s.logger.Warn(d.Message, kv...)
	default:
		s.logger.Error(d.Message, kv...)
	}
}

func (s *Session) warn(code errors.Code, res *model.Resource, field, format string, args ...any) {
	s.report(errors.SeverityWarning, code, res, field, format, args...)
}

// Result is the outcome of [Load].
type Result struct {
	SessionID   string
	Root        *model.Resource
	Registry    *model.Registry
	Diagnostics []errors.Diagnostic
	Duration    time.Duration
}

// Load hydrates raw in a fresh session.
func Load(meta *metamodel.MetaModel, classes *model.Classes, raw map[string]any, defaultClass string, logger *log.Logger) (*Result, error) {
	start := time.Now()
	s, err := NewSession(meta, classes, logger)
	if err != nil {
		return nil, err
	}
	root, err := s.FromJSON(raw, defaultClass)
	if err != nil {
		return nil, err
	}
	return &Result{
		SessionID:   s.ID,
		Root:        root,
		Registry:    s.reg,
		Diagnostics: s.Diagnostics(),
		Duration:    time.Since(start),
	}, nil
}

package errors

import "fmt"

// Severity grades a [Diagnostic].
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name so JSON reports stay readable.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name produced by MarshalText.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*s = SeverityInfo
	case "warning":
		*s = SeverityWarning
	case "error":
		*s = SeverityError
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// Diagnostic is a non-fatal anomaly found while hydrating a model.
// Resource and Field locate the problem; either may be empty.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Resource string   `json:"resource,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// String formats the diagnostic on a single line.
func (d Diagnostic) String() string {
	loc := d.Resource
	if d.Field != "" {
		loc += "." + d.Field
	}
	if loc == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", d.Severity, d.Code, loc, d.Message)
}

// Err converts the diagnostic into an *Error carrying the same code.
func (d Diagnostic) Err() *Error {
	return &Error{Code: d.Code, Message: d.String()}
}

// CountBySeverity tallies diagnostics per severity.
func CountBySeverity(ds []Diagnostic) map[Severity]int {
	out := make(map[Severity]int, 3)
	for _, d := range ds {
		out[d.Severity]++
	}
	return out
}

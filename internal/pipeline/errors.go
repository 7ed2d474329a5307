package pipeline

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by this package wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrNoJSONFound           = errors.New("no JSON object found in model output")
	ErrInvalidNumericLiteral = errors.New("invalid numeric literal")
	ErrUnrecoverableJSON     = errors.New("unrecoverable JSON")
	ErrSchemaViolation       = errors.New("schema violation")
	ErrSlugConflict          = errors.New("slug conflict")
)

// Error is the typed failure produced by a pipeline stage.
type Error struct {
	// Kind is one of the Err* sentinels above.
	Kind error
	// Path names the offending field for schema violations, e.g. "ingredients[2].name".
	Path string
	// Raw is the upstream text the failing attempt worked on.
	Raw string
	// Attempt is the 1-based attempt number when the error came out of Retry.
	Attempt int
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s at %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns the snake_case name of the failure kind for API payloads.
func (e *Error) KindName() string {
	switch e.Kind {
	case ErrNoJSONFound:
		return "no_json_found"
	case ErrInvalidNumericLiteral:
		return "invalid_numeric_literal"
	case ErrUnrecoverableJSON:
		return "unrecoverable_json"
	case ErrSchemaViolation:
		return "schema_violation"
	case ErrSlugConflict:
		return "slug_conflict"
	default:
		return "unknown"
	}
}

func newError(kind error, raw string, cause error) *Error {
	return &Error{Kind: kind, Raw: raw, Err: cause}
}

func violation(path, format string, args ...any) *Error {
	return &Error{Kind: ErrSchemaViolation, Path: path, Err: fmt.Errorf(format, args...)}
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}

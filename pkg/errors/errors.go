package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Status     int    `json:"status"`
	Err        error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. The synthesis categories mirror the stages of the
// routine search: pool construction, exam screening, slot screening and
// preference screening, plus the bounded-search stop.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCatalogUnavailable = New("CATALOG_UNAVAILABLE", http.StatusBadGateway, "course catalog is unavailable")
	ErrEmptyCandidatePool = New("EMPTY_CANDIDATE_POOL", http.StatusUnprocessableEntity, "no sections available under current filters")
	ErrExamConflicts      = New("EXAM_CONFLICTS", http.StatusConflict, "every combination has exam schedule conflicts")
	ErrTimeConflicts      = New("TIME_CONFLICTS", http.StatusConflict, "every combination has class time conflicts")
	ErrPreferenceMismatch = New("PREFERENCE_MISMATCH", http.StatusConflict, "no combination matches the day and time preferences")
	ErrBudgetExhausted    = New("SEARCH_BUDGET_EXHAUSTED", http.StatusConflict, "search budget exhausted before a valid routine was found")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrAIUnavailable      = New("AI_UNAVAILABLE", http.StatusServiceUnavailable, "AI feedback is not available")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithSuggestion returns a copy carrying a user-facing remediation hint.
func WithSuggestion(err *Error, message, suggestion string) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Suggestion = suggestion
	}
	return clone
}

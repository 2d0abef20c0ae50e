// Package apperr defines the error kinds surfaced by repositories and mapped to
// HTTP responses by the handlers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for callers that need to react differently to
// caller mistakes, denials, absence and backing-store failures.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindStore         Kind = "store"
)

// Error is the single error type returned by the repository layer.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Fields lists offending input fields for validation errors.
	Fields []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Fields, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, apperr.NotFound) works
// against the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	Validation    = &Error{Kind: KindValidation}
	Authorization = &Error{Kind: KindAuthorization}
	NotFound      = &Error{Kind: KindNotFound}
	Conflict      = &Error{Kind: KindConflict}
	Store         = &Error{Kind: KindStore}
)

// NewValidation reports missing or malformed input.
func NewValidation(op, msg string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: msg, Fields: fields}
}

// NewAuthorization reports a permission gate denial.
func NewAuthorization(op, msg string) *Error {
	return &Error{Kind: KindAuthorization, Op: op, Message: msg}
}

// NewNotFound reports a missing entity, usually a required parent.
func NewNotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// NewConflict reports a stale version or an illegal state transition.
func NewConflict(op, msg string) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: msg}
}

// WrapStore wraps an opaque backing-store failure.
func WrapStore(op string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Message: "store failure", Err: err}
}

// KindOf returns the kind of err, or KindStore for foreign errors so that
// unknown failures are treated as opaque.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// FieldsOf returns the validation fields carried by err, if any.
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

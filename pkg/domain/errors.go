// Package domain holds the error taxonomy shared by services and handlers.
package domain

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeConflict     = "CONFLICT"
)

// DomainError carries a code that handlers map to a response. Message is
// safe to show to clients; Err is the underlying cause and is not.
type DomainError struct {
	Code    string
	Message string
	// Fields maps request field names to the rule they failed.
	Fields map[string]string
	Err    error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another *DomainError with the same code, so sentinels such as
// ErrNotFound work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Message == "" && t.Code == e.Code
}

// Code-only sentinels for errors.Is.
var (
	ErrNotFound   = &DomainError{Code: ErrCodeNotFound}
	ErrValidation = &DomainError{Code: ErrCodeValidation}
	ErrConflict   = &DomainError{Code: ErrCodeConflict}
	ErrForbidden  = &DomainError{Code: ErrCodeForbidden}
)

func newError(code, msg string, err error) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// NewNotFoundError reports that resource does not exist in the tenant.
func NewNotFoundError(resource string) error {
	return newError(ErrCodeNotFound, resource+" not found", nil)
}

// NewValidationError rejects a request before any write happens.
func NewValidationError(msg string) error {
	return newError(ErrCodeValidation, msg, nil)
}

// NewFieldsError is a validation error naming each offending field.
func NewFieldsError(fields map[string]string) error {
	return &DomainError{Code: ErrCodeValidation, Message: "invalid request fields", Fields: fields}
}

func NewUnauthorizedError() error {
	return newError(ErrCodeUnauthorized, "Authentication required", nil)
}

func NewForbiddenError(msg string) error {
	return newError(ErrCodeForbidden, msg, nil)
}

// NewInternalError hides err behind a generic message.
func NewInternalError(err error) error {
	return newError(ErrCodeInternal, "An internal error occurred", err)
}

// NewConflictError reports a lost optimistic update.
func NewConflictError(msg string, err error) error {
	return newError(ErrCodeConflict, msg, err)
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool  { return errors.Is(err, ErrForbidden) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }

// GetErrorCode extracts the error code from a domain error anywhere in the chain.
// Errors that are not domain errors are reported as internal.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternal
}

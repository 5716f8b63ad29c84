// Package domain holds the quote model, the caller identity and the errors
// the rest of the service classifies failures by. Nothing here knows about
// HTTP or a particular store.
package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Each typed error below unwraps to one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrUnavailable     = errors.New("unavailable")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// NotFoundError reports a missing entity, such as an unknown quote id.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a write that collides with stored state. Stores
// return it when an insert reuses an existing id.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError reports unusable input. Field, when set, is surfaced to
// clients as the key of the error details.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError reports an authenticated caller acting on a quote owned
// by someone else.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError reports a dependency that could not serve the call,
// such as the quote store timing out.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("service %q unavailable: %s", e.Service, e.Reason)
	}

	return fmt.Sprintf("service %q unavailable", e.Service)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// UnauthenticatedError reports a missing or rejected bearer token.
// Reason is for logs only; responses use a fixed message.
type UnauthenticatedError struct {
	Reason string
}

func (e *UnauthenticatedError) Error() string {
	if e.Reason != "" {
		return "unauthenticated: " + e.Reason
	}

	return "unauthenticated"
}

func (e *UnauthenticatedError) Unwrap() error { return ErrUnauthenticated }

func NewUnauthenticatedError(reason string) error {
	return &UnauthenticatedError{Reason: reason}
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool      { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool     { return errors.Is(err, ErrUnavailable) }
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }

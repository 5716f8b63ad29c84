package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewNotFoundError("quote", "q-1"), `quote with id "q-1" not found`},
		{NewNotFoundError("quote", ""), "quote not found"},
		{NewConflictError("quote", "id q-1 already exists"), "quote conflict: id q-1 already exists"},
		{NewValidationError("identity", "subject is required"), "validation failed for identity: subject is required"},
		{NewValidationError("", "empty body"), "validation failed: empty body"},
		{NewForbiddenError("update", "quote belongs to another user"), `operation "update" forbidden: quote belongs to another user`},
		{NewForbiddenError("delete", ""), `operation "delete" forbidden`},
		{NewUnavailableError("quote-store", "deadline exceeded"), `service "quote-store" unavailable: deadline exceeded`},
		{NewUnavailableError("quote-store", ""), `service "quote-store" unavailable`},
		{NewUnauthenticatedError("token expired"), "unauthenticated: token expired"},
		{NewUnauthenticatedError(""), "unauthenticated"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsHelpers(t *testing.T) {
	helpers := map[string]func(error) bool{
		"not found":       IsNotFound,
		"conflict":        IsConflict,
		"validation":      IsValidation,
		"forbidden":       IsForbidden,
		"unavailable":     IsUnavailable,
		"unauthenticated": IsUnauthenticated,
	}

	errs := map[string]error{
		"not found":       NewNotFoundError("quote", "q-1"),
		"conflict":        NewConflictError("quote", "dup"),
		"validation":      NewValidationError("id", "empty"),
		"forbidden":       NewForbiddenError("update", ""),
		"unavailable":     NewUnavailableError("quote-store", ""),
		"unauthenticated": NewUnauthenticatedError(""),
	}

	for kind, err := range errs {
		wrapped := fmt.Errorf("update quote: %w", err)

		for name, is := range helpers {
			assert.Equal(t, name == kind, is(wrapped), "%s classified by Is%s", kind, name)
		}
	}

	for name, is := range helpers {
		assert.False(t, is(nil), name)
		assert.False(t, is(errors.New("plain")), name)
	}
}

func TestErrorsAs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("archive step: %w", fmt.Errorf("replace: %w", NewUnavailableError("quote-store", "down")))

	var unavailable *UnavailableError
	if assert.ErrorAs(t, err, &unavailable) {
		assert.Equal(t, "quote-store", unavailable.Service)
	}

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNotFound)
}

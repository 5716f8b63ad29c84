package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotes-api/internal/adapters/clients"
	"github.com/jsamuelsen/quotes-api/internal/domain"
)

// oauthError is the RFC 6749 error body returned by authorization servers.
type oauthError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// parseOAuthError decodes an error body. It returns nil when the body
// carries no error code.
func parseOAuthError(body io.Reader) *oauthError {
	if body == nil {
		return nil
	}

	var e oauthError
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&e); err != nil || e.Code == "" {
		return nil
	}

	return &e
}

// MapHTTPError converts a failed exchange with an authorization server into
// a domain error. Exactly one of resp and clientErr is expected.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation string) error {
	if clientErr != nil {
		switch {
		case errors.Is(clientErr, clients.ErrCircuitOpen):
			return domain.NewUnavailableError(serviceName, "circuit breaker open during "+operation)
		default:
			return domain.NewUnavailableError(serviceName, fmt.Sprintf("%s failed: %v", operation, clientErr))
		}
	}

	if resp == nil {
		return domain.NewUnavailableError(serviceName, "no response received")
	}

	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	reason := fmt.Sprintf("%s failed with status %d", operation, resp.StatusCode)
	if e := parseOAuthError(resp.Body); e != nil {
		reason = e.Code
		if e.Description != "" {
			reason += ": " + e.Description
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.NewUnauthenticatedError(reason)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, reason)
	default:
		return domain.NewValidationError("token", reason)
	}
}

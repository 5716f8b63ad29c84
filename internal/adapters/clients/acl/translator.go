// Package acl keeps authorization server payloads out of the domain.
// External DTOs are decoded and validated here and only domain types
// cross the package boundary.
package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jsamuelsen/quotes-api/internal/domain"
)

const maxBodyBytes = 1 << 20

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	var result T
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// introspectionResponse is the RFC 7662 token introspection payload.
// Only the claims this service reads are declared.
type introspectionResponse struct {
	Active   bool   `json:"active"`
	Subject  string `json:"sub"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Expiry   int64  `json:"exp"`
}

// translateIntrospection turns an introspection verdict into an identity.
func translateIntrospection(r *introspectionResponse) (*domain.Identity, error) {
	if !r.Active {
		return nil, domain.NewUnauthenticatedError("token is not active")
	}

	if r.Subject == "" {
		return nil, domain.NewUnauthenticatedError("token has no subject")
	}

	return &domain.Identity{SubjectID: r.Subject, Email: r.Email}, nil
}

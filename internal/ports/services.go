// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrNotFound, ErrUnavailable, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/quotes-api/internal/domain"
)

// QuoteRepository persists quotes in an external document store.
// Each method is a single round trip; nothing spans calls, so a fetch
// followed by Replace or Remove is not isolated from concurrent writers.
//
// Implementations return domain.ErrUnavailable for transport or provider
// failures and never retry.
type QuoteRepository interface {
	// Insert writes a new quote keyed by its ID.
	// Returns domain.ErrConflict if a quote with the same ID already exists.
	Insert(ctx context.Context, q *domain.Quote) error

	// Fetch returns the quote with the given ID.
	// Returns domain.ErrNotFound if it does not exist.
	Fetch(ctx context.Context, id string) (*domain.Quote, error)

	// List returns every quote matching the filter, in no particular order.
	List(ctx context.Context, filter domain.QuoteFilter) ([]*domain.Quote, error)

	// Replace overwrites the stored quote with the same ID.
	// The caller must already have confirmed the quote exists.
	Replace(ctx context.Context, q *domain.Quote) error

	// Remove deletes the quote with the given ID.
	// The caller must already have confirmed the quote exists.
	Remove(ctx context.Context, id string) error
}

// IdentityVerifier resolves a bearer token into a caller identity.
//
// Every call is an independent verification; implementations must not
// cache verdicts. Any rejection by the provider (expired, malformed,
// revoked) is reported as domain.ErrUnauthenticated.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

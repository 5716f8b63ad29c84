// Package app contains application services that orchestrate use cases.
// Services depend on port interfaces and never on HTTP or store specifics.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/platform/logging"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

// QuoteService enforces the ownership policy over the quote store.
// It holds no mutable state and is safe for concurrent use.
type QuoteService struct {
	repo     ports.QuoteRepository
	logger   *slog.Logger
	executor *Executor
	now      func() time.Time
	newID    func() string
}

// QuoteServiceConfig contains the dependencies of the quote service.
// Now and NewID default to the wall clock (UTC) and random UUIDs.
type QuoteServiceConfig struct {
	Repository ports.QuoteRepository
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// NewQuoteService creates a quote service. It panics without a repository.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Repository == nil {
		panic("app: quote service requires a repository")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &QuoteService{
		repo:     cfg.Repository,
		logger:   logger,
		executor: NewExecutor(logger),
		now:      now,
		newID:    newID,
	}
}

// Create stores a new quote owned by the caller.
func (s *QuoteService) Create(ctx context.Context, identity *domain.Identity, in domain.QuoteInput) (*domain.Quote, error) {
	if err := requireSubject(identity); err != nil {
		return nil, err
	}

	now := s.now()
	quote := &domain.Quote{
		ID:         s.newID(),
		Text:       in.Text,
		Author:     in.Author,
		OwnerID:    identity.SubjectID,
		OwnerEmail: identity.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Insert(ctx, quote); err != nil {
		s.log(ctx).ErrorContext(ctx, "failed to create quote", slog.Any("error", err))
		return nil, fmt.Errorf("create quote: %w", err)
	}

	s.log(ctx).InfoContext(ctx, "created quote", slog.String("quote_id", quote.ID))

	return quote, nil
}

// ListMine returns every quote owned by the caller.
func (s *QuoteService) ListMine(ctx context.Context, identity *domain.Identity) ([]*domain.Quote, error) {
	if err := requireSubject(identity); err != nil {
		return nil, err
	}

	quotes, err := s.repo.List(ctx, domain.QuoteFilter{OwnerID: identity.SubjectID})
	if err != nil {
		return nil, fmt.Errorf("list own quotes: %w", err)
	}

	return quotes, nil
}

// ListAll returns every stored quote regardless of owner.
func (s *QuoteService) ListAll(ctx context.Context) ([]*domain.Quote, error) {
	quotes, err := s.repo.List(ctx, domain.QuoteFilter{})
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}

	return quotes, nil
}

type quoteMutation struct {
	identity *domain.Identity
	id       string
	input    domain.QuoteInput
}

func validateMutation(_ context.Context, m quoteMutation) error {
	if m.id == "" {
		return domain.NewValidationError("id", "must not be empty")
	}

	return requireSubject(m.identity)
}

func (s *QuoteService) fetch(ctx context.Context, m quoteMutation) (*domain.Quote, error) {
	return s.repo.Fetch(ctx, m.id)
}

// Update replaces text and author of a quote the caller owns.
// Identity, ownership and created_at are preserved.
func (s *QuoteService) Update(
	ctx context.Context,
	identity *domain.Identity,
	id string,
	in domain.QuoteInput,
) (*domain.Quote, error) {
	op := Operation[quoteMutation, *domain.Quote, *domain.Quote, *domain.Quote]{
		Name:     "update_quote",
		Validate: validateMutation,
		Perform:  s.fetch,
		Verify: func(_ context.Context, m quoteMutation, current *domain.Quote) (*domain.Quote, error) {
			if !current.IsOwnedBy(m.identity) {
				return nil, domain.NewForbiddenError("update", "quote belongs to another user")
			}

			revised := *current
			revised.Revise(m.input, s.now())

			return &revised, nil
		},
		Archive: func(ctx context.Context, _ quoteMutation, revised *domain.Quote) error {
			return s.repo.Replace(ctx, revised)
		},
		Respond: func(_ context.Context, _ quoteMutation, revised *domain.Quote) (*domain.Quote, error) {
			return revised, nil
		},
	}

	return Execute(ctx, s.executor, op, quoteMutation{identity: identity, id: id, input: in})
}

// Delete removes a quote the caller owns.
func (s *QuoteService) Delete(ctx context.Context, identity *domain.Identity, id string) error {
	op := Operation[quoteMutation, *domain.Quote, *domain.Quote, struct{}]{
		Name:     "delete_quote",
		Validate: validateMutation,
		Perform:  s.fetch,
		Verify: func(_ context.Context, m quoteMutation, current *domain.Quote) (*domain.Quote, error) {
			if !current.IsOwnedBy(m.identity) {
				return nil, domain.NewForbiddenError("delete", "quote belongs to another user")
			}

			return current, nil
		},
		Archive: func(ctx context.Context, m quoteMutation, _ *domain.Quote) error {
			return s.repo.Remove(ctx, m.id)
		},
	}

	_, err := Execute(ctx, s.executor, op, quoteMutation{identity: identity, id: id})

	return err
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	if logger, ok := logging.Lookup(ctx); ok {
		return logger
	}

	return s.logger
}

func requireSubject(identity *domain.Identity) error {
	if identity == nil || identity.SubjectID == "" {
		return domain.NewValidationError("identity", "subject is required")
	}

	return nil
}

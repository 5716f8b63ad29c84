package dto

import (
	"time"

	"github.com/jsamuelsen/quotes-api/internal/domain"
)

// QuoteRequest is the body of create and update calls. Both fields must be
// present; empty strings are accepted.
type QuoteRequest struct {
	Text   *string `json:"text"   validate:"required"`
	Author *string `json:"author" validate:"required"`
}

// ToInput converts a validated request to a domain input.
func (r *QuoteRequest) ToInput() domain.QuoteInput {
	var in domain.QuoteInput

	if r.Text != nil {
		in.Text = *r.Text
	}

	if r.Author != nil {
		in.Author = *r.Author
	}

	return in
}

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewQuoteResponse converts a domain quote. Timestamps are rendered in UTC.
func NewQuoteResponse(q *domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		Text:      q.Text,
		Author:    q.Author,
		UserID:    q.OwnerID,
		UserEmail: q.OwnerEmail,
		CreatedAt: q.CreatedAt.UTC(),
		UpdatedAt: q.UpdatedAt.UTC(),
	}
}

// NewQuoteListResponse converts a slice of quotes. The result is never nil,
// so an empty list encodes as [].
func NewQuoteListResponse(quotes []*domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, NewQuoteResponse(q))
	}

	return out
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

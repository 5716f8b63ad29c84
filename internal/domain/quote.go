// Package domain contains core business entities and rules.
package domain

import "time"

// Quote is a quotation owned by the identity that created it.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the unique identifier, assigned at creation and never changed.
	ID string

	// Text is the body of the quote.
	Text string

	// Author is who said or wrote the quote.
	Author string

	// OwnerID is the identity-provider subject of the creator.
	// It is the only key used to authorize updates and deletes.
	OwnerID string

	// OwnerEmail is the creator's email as it was at creation time.
	OwnerEmail string

	// CreatedAt is set once when the quote is created.
	CreatedAt time.Time

	// UpdatedAt is set at creation and refreshed on every update.
	UpdatedAt time.Time
}

// IsOwnedBy reports whether the identity is the quote's owner.
func (q *Quote) IsOwnedBy(id *Identity) bool {
	return id != nil && id.SubjectID != "" && q.OwnerID == id.SubjectID
}

// Revise applies new content to the quote and advances UpdatedAt.
// UpdatedAt never moves backwards, even if the clock does.
func (q *Quote) Revise(in QuoteInput, now time.Time) {
	q.Text = in.Text
	q.Author = in.Author

	if now.After(q.UpdatedAt) {
		q.UpdatedAt = now
	}
}

// QuoteInput carries the caller-editable fields of a quote.
type QuoteInput struct {
	Text   string
	Author string
}

// QuoteFilter restricts a quote listing.
// The zero value matches every quote.
type QuoteFilter struct {
	// OwnerID, when set, limits results to quotes owned by this subject.
	OwnerID string
}

// Matches reports whether q satisfies the filter.
func (f QuoteFilter) Matches(q *Quote) bool {
	return f.OwnerID == "" || q.OwnerID == f.OwnerID
}

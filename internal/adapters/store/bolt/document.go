package bolt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jsamuelsen/quotes-api/internal/domain"
)

// document is the stored layout, shared with the Firestore collection.
type document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDocument(q *domain.Quote) document {
	return document{
		ID:        q.ID,
		Text:      q.Text,
		Author:    q.Author,
		UserID:    q.OwnerID,
		UserEmail: q.OwnerEmail,
		CreatedAt: q.CreatedAt.UTC(),
		UpdatedAt: q.UpdatedAt.UTC(),
	}
}

func decode(raw []byte) (*domain.Quote, error) {
	var d document
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode quote document: %w", err)
	}

	return &domain.Quote{
		ID:         d.ID,
		Text:       d.Text,
		Author:     d.Author,
		OwnerID:    d.UserID,
		OwnerEmail: d.UserEmail,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

// Package firestore implements the quote repository on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

const (
	serviceName = "quote-store"

	// DefaultCollection is the collection quotes live in unless configured otherwise.
	DefaultCollection = "quotes"

	fieldUserID = "user_id"
)

var (
	_ ports.QuoteRepository = (*Store)(nil)
	_ ports.HealthChecker   = (*Store)(nil)
)

// isoLayouts are the string timestamp layouts accepted on read. Zone-less
// values are taken as UTC.
var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"}

// document is the stored layout of a quote. Timestamps are written as
// native Firestore timestamps but may be read back as ISO-8601 strings
// from documents created by other writers.
type document struct {
	ID        string `firestore:"id"`
	Text      string `firestore:"text"`
	Author    string `firestore:"author"`
	UserID    string `firestore:"user_id"`
	UserEmail string `firestore:"user_email"`
	CreatedAt any    `firestore:"created_at"`
	UpdatedAt any    `firestore:"updated_at"`
}

// Store maps repository operations onto one Firestore collection.
// The client is owned by the caller.
type Store struct {
	client     *firestore.Client
	collection string
}

// New creates a store over collection. An empty name selects DefaultCollection.
func New(client *firestore.Client, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}

	return &Store{client: client, collection: collection}
}

func (s *Store) quotes() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Insert creates the document. It fails with a conflict if the id is taken.
func (s *Store) Insert(ctx context.Context, q *domain.Quote) error {
	_, err := s.quotes().Doc(q.ID).Create(ctx, toDocument(q))
	if err != nil {
		return translate(err, q.ID)
	}

	return nil
}

// Fetch loads one quote by id.
func (s *Store) Fetch(ctx context.Context, id string) (*domain.Quote, error) {
	snap, err := s.quotes().Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err, id)
	}

	var d document
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("decode quote %s: %w", id, err)
	}

	return fromDocument(d)
}

// List returns all quotes, or only the owner's when filter.OwnerID is set.
func (s *Store) List(ctx context.Context, filter domain.QuoteFilter) ([]*domain.Quote, error) {
	query := s.quotes().Query
	if filter.OwnerID != "" {
		query = query.Where(fieldUserID, "==", filter.OwnerID)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err, "")
	}

	quotes := make([]*domain.Quote, 0, len(snaps))

	for _, snap := range snaps {
		var d document
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode quote %s: %w", snap.Ref.ID, err)
		}

		q, err := fromDocument(d)
		if err != nil {
			return nil, err
		}

		quotes = append(quotes, q)
	}

	return quotes, nil
}

// Replace overwrites the whole document.
func (s *Store) Replace(ctx context.Context, q *domain.Quote) error {
	_, err := s.quotes().Doc(q.ID).Set(ctx, toDocument(q))
	if err != nil {
		return translate(err, q.ID)
	}

	return nil
}

// Remove deletes the document. Firestore treats a missing document as success.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.quotes().Doc(id).Delete(ctx)
	if err != nil {
		return translate(err, id)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "firestore"
}

// Check reads at most one document from the collection.
func (s *Store) Check(ctx context.Context) error {
	iter := s.quotes().Limit(1).Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firestore probe: %w", err)
	}

	return nil
}

// translate maps Firestore gRPC status codes onto domain errors.
func translate(err error, id string) error {
	switch status.Code(err) {
	case codes.NotFound:
		return domain.NewNotFoundError("quote", id)
	case codes.AlreadyExists:
		return domain.NewConflictError("quote", "id "+id+" already exists")
	default:
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(serviceName, "firestore"), err)
	}
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

func fromDocument(d document) (*domain.Quote, error) {
	created, err := parseTimestamp(d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode quote %s: created_at: %w", d.ID, err)
	}

	updated, err := parseTimestamp(d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode quote %s: updated_at: %w", d.ID, err)
	}

	return &domain.Quote{
		ID:         d.ID,
		Text:       d.Text,
		Author:     d.Author,
		OwnerID:    d.UserID,
		OwnerEmail: d.UserEmail,
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

func parseTimestamp(v any) (time.Time, error) {
	switch ts := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return ts.UTC(), nil
	case string:
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, ts); err == nil {
				return t.UTC(), nil
			}
		}

		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", ts)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

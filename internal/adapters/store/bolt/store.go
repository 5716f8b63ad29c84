// Package bolt implements the quote repository on an embedded bbolt file.
// It backs local runs and the in-process integration suite.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/jsamuelsen/quotes-api/internal/domain"
	"github.com/jsamuelsen/quotes-api/internal/ports"
)

const (
	serviceName    = "quote-store"
	defaultTimeout = time.Second
	fileMode       = 0o600
)

var (
	_ ports.QuoteRepository = (*Store)(nil)
	_ ports.HealthChecker   = (*Store)(nil)
)

// errDuplicateID aborts an insert transaction when the key is taken.
var errDuplicateID = errors.New("duplicate id")

// Config configures the bbolt store.
type Config struct {
	Path string
	// Bucket holds the quote documents. It mirrors the Firestore collection name.
	Bucket string
	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration
}

// Store persists quotes as JSON documents keyed by id.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open opens or creates the database file and its bucket.
func Open(cfg Config) (*Store, error) {
	if _, err := os.Stat(cfg.Path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat bolt file: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	db, err := bolt.Open(cfg.Path, fileMode, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", cfg.Path, err)
	}

	s := &Store{db: db, bucket: []byte(cfg.Bucket)}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
	}

	return s, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert stores a new quote. An existing id yields a conflict.
func (s *Store) Insert(ctx context.Context, q *domain.Quote) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	raw, err := json.Marshal(toDocument(q))
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", q.ID, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(q.ID)) != nil {
			return errDuplicateID
		}

		return b.Put([]byte(q.ID), raw)
	})

	switch {
	case errors.Is(err, errDuplicateID):
		return domain.NewConflictError("quote", "id "+q.ID+" already exists")
	case err != nil:
		return unavailable(err)
	}

	return nil
}

// Fetch loads a quote by id.
func (s *Store) Fetch(ctx context.Context, id string) (*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	var raw []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get([]byte(id)); v != nil {
			// v is only valid inside the transaction.
			raw = append([]byte(nil), v...)
		}

		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	if raw == nil {
		return nil, domain.NewNotFoundError("quote", id)
	}

	return decode(raw)
}

// List returns every quote matching filter, in id order.
func (s *Store) List(ctx context.Context, filter domain.QuoteFilter) ([]*domain.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err)
	}

	quotes := make([]*domain.Quote, 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, v []byte) error {
			q, err := decode(v)
			if err != nil {
				return err
			}

			if filter.Matches(q) {
				quotes = append(quotes, q)
			}

			return nil
		})
	})
	if err != nil {
		return nil, unavailable(err)
	}

	return quotes, nil
}

// Replace overwrites the stored document for q.ID.
func (s *Store) Replace(ctx context.Context, q *domain.Quote) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	raw, err := json.Marshal(toDocument(q))
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", q.ID, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(q.ID), raw)
	})
	if err != nil {
		return unavailable(err)
	}

	return nil
}

// Remove deletes the document for id. Removing a missing id is not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(id))
	})
	if err != nil {
		return unavailable(err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "bolt"
}

// Check implements ports.HealthChecker by opening a read transaction.
func (s *Store) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return fmt.Errorf("bucket %s missing", s.bucket)
		}

		return nil
	})
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.NewUnavailableError(serviceName, "bolt"), err)
}

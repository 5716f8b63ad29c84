package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotes-api/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "quotes.db"), Bucket: "quotes"})
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Close() })

	return s
}

func sampleQuote(id, owner string) *domain.Quote {
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	return &domain.Quote{
		ID:         id,
		Text:       "text " + id,
		Author:     "author " + id,
		OwnerID:    owner,
		OwnerEmail: owner + "@x.com",
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
}

func TestStore_InsertAndFetch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q := sampleQuote("q-1", "u1")

	require.NoError(t, s.Insert(ctx, q))

	got, err := s.Fetch(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, q, got)
}

func TestStore_Insert_DuplicateIDConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, sampleQuote("q-1", "u1")))

	err := s.Insert(ctx, sampleQuote("q-1", "u2"))

	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	got, err := s.Fetch(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
}

func TestStore_Fetch_Missing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Fetch(context.Background(), "nope")

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx, domain.QuoteFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	require.NoError(t, s.Insert(ctx, sampleQuote("a", "u1")))
	require.NoError(t, s.Insert(ctx, sampleQuote("b", "u2")))
	require.NoError(t, s.Insert(ctx, sampleQuote("c", "u1")))

	all, err := s.List(ctx, domain.QuoteFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := s.List(ctx, domain.QuoteFilter{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "a", mine[0].ID)
	assert.Equal(t, "c", mine[1].ID)
}

func TestStore_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q := sampleQuote("q-1", "u1")
	require.NoError(t, s.Insert(ctx, q))

	q.Text = "revised"
	q.UpdatedAt = q.UpdatedAt.Add(time.Minute)
	require.NoError(t, s.Replace(ctx, q))

	got, err := s.Fetch(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "revised", got.Text)
	assert.Equal(t, q.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, q.CreatedAt, got.CreatedAt)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, sampleQuote("q-1", "u1")))

	require.NoError(t, s.Remove(ctx, "q-1"))

	_, err := s.Fetch(ctx, "q-1")
	assert.True(t, domain.IsNotFound(err))

	assert.NoError(t, s.Remove(ctx, "q-1"))
}

func TestStore_CanceledContextIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, domain.QuoteFilter{})

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "quotes.db"), Bucket: "quotes"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Fetch(context.Background(), "q-1")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
}

func TestStore_Check(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, "bolt", s.Name())
	assert.NoError(t, s.Check(context.Background()))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quotes.db")
	ctx := context.Background()

	s, err := Open(Config{Path: path, Bucket: "quotes"})
	require.NoError(t, err)
	require.NoError(t, s.Insert(ctx, sampleQuote("q-1", "u1")))
	require.NoError(t, s.Close())

	reopened, err := Open(Config{Path: path, Bucket: "quotes"})
	require.NoError(t, err)

	defer reopened.Close()

	got, err := reopened.Fetch(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerID)
}

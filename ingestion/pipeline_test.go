package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/exemplar/ai/mock"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/search"
	"github.com/poiesic/exemplar/storage"
	"github.com/poiesic/exemplar/storage/badger"
)

// fakeIndexer implements Indexer with call recording and injectable failures.
type fakeIndexer struct {
	mu   sync.Mutex
	docs []search.Document
	fail func(doc search.Document) error
}

func (f *fakeIndexer) IndexDocument(ctx context.Context, doc search.Document) error {
	if f.fail != nil {
		if err := f.fail(doc); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeIndexer) indexed() []search.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]search.Document, len(f.docs))
	copy(out, f.docs)
	return out
}

func setupTestStore(t *testing.T) storage.CandidateStore {
	t.Helper()
	store, backend, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		backend.Close()
	})
	return store
}

func emailInput(recipient, text string) EmailInput {
	return EmailInput{
		UserID:         "u1",
		RecipientEmail: recipient,
		Subject:        "subject",
		Text:           text,
		SentAt:         time.Now().Add(-time.Hour),
	}
}

func TestNewPipeline(t *testing.T) {
	store := setupTestStore(t)
	provider := mock.NewMockProvider()
	indexer := &fakeIndexer{}

	t.Run("valid pipeline", func(t *testing.T) {
		pipeline, err := NewPipeline(store, provider, indexer)
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.store)
		assert.NotNil(t, pipeline.indexPool)
		assert.NotNil(t, pipeline.indexProc)
		assert.NotNil(t, pipeline.relationships)
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewPipeline(nil, provider, indexer)
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(store, nil, indexer)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("nil indexer", func(t *testing.T) {
		_, err := NewPipeline(store, provider, nil)
		assert.Equal(t, ErrIndexerRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	store := setupTestStore(t)
	provider := mock.NewMockProvider()
	indexer := &fakeIndexer{}

	t.Run("with pool size", func(t *testing.T) {
		pipeline, err := NewPipeline(store, provider, indexer, WithPoolSize(4))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.indexPool)
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		pipeline, err := NewPipeline(store, provider, indexer, WithPoolSize(0))
		require.NoError(t, err)
		defer pipeline.Release()
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.Default()
		pipeline, err := NewPipeline(store, provider, indexer, WithLogger(logger))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.Equal(t, logger, pipeline.logger)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		pipeline, err := NewPipeline(store, provider, indexer, WithLogger(nil))
		require.NoError(t, err)
		defer pipeline.Release()

		assert.NotNil(t, pipeline.logger)
	})
}

func TestPipeline_Ingest(t *testing.T) {
	ctx := context.Background()

	t.Run("single email", func(t *testing.T) {
		store := setupTestStore(t)
		indexer := &fakeIndexer{}
		pipeline, err := NewPipeline(store, mock.NewMockProvider(), indexer, WithPoolSize(1))
		require.NoError(t, err)
		defer pipeline.Release()

		added, err := pipeline.Ingest(ctx, emailInput("pat@acme.com", "thanks for the quick turnaround"))
		require.NoError(t, err)
		require.Len(t, added, 1)

		candidate := added[0]
		assert.NotEmpty(t, candidate.Id, "id should be assigned from content")
		assert.Equal(t, core.CandidateKindSent, candidate.Kind)
		assert.Equal(t, core.RelationshipColleague, candidate.Relationship,
			"mock detector labels corporate domains colleague")
		assert.Equal(t, 5, candidate.WordCount)

		// Async indexing should pick up the stored candidate
		require.Eventually(t, func() bool {
			return len(indexer.indexed()) == 1
		}, 2*time.Second, 10*time.Millisecond)

		doc := indexer.indexed()[0]
		assert.Equal(t, candidate.Id, doc.EmailID)
		assert.Equal(t, candidate.Contents, doc.Text)
	})

	t.Run("multiple emails", func(t *testing.T) {
		store := setupTestStore(t)
		indexer := &fakeIndexer{}
		pipeline, err := NewPipeline(store, mock.NewMockProvider(), indexer, WithPoolSize(1))
		require.NoError(t, err)
		defer pipeline.Release()

		added, err := pipeline.Ingest(ctx,
			emailInput("pat@acme.com", "message one"),
			emailInput("sam@gmail.com", "message two"),
			emailInput("pat@acme.com", "message three"),
		)
		require.NoError(t, err)
		require.Len(t, added, 3)

		assert.Equal(t, core.RelationshipColleague, added[0].Relationship)
		assert.Equal(t, core.RelationshipFriend, added[1].Relationship)

		require.Eventually(t, func() bool {
			return len(indexer.indexed()) == 3
		}, 2*time.Second, 10*time.Millisecond)

		count, err := store.CountCandidates(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("no emails", func(t *testing.T) {
		store := setupTestStore(t)
		pipeline, err := NewPipeline(store, mock.NewMockProvider(), &fakeIndexer{})
		require.NoError(t, err)
		defer pipeline.Release()

		added, err := pipeline.Ingest(ctx)
		require.NoError(t, err)
		assert.Empty(t, added)
	})

	t.Run("defaults applied", func(t *testing.T) {
		store := setupTestStore(t)
		pipeline, err := NewPipeline(store, mock.NewMockProvider(), &fakeIndexer{})
		require.NoError(t, err)
		defer pipeline.Release()

		added, err := pipeline.Ingest(ctx, EmailInput{
			UserID:         "u1",
			RecipientEmail: "pat@acme.com",
			Text:           "no explicit kind or timestamp",
		})
		require.NoError(t, err)
		require.Len(t, added, 1)
		assert.Equal(t, core.CandidateKindSent, added[0].Kind)
		assert.WithinDuration(t, time.Now(), added[0].SentAt, time.Minute)
	})

	t.Run("explicit received kind", func(t *testing.T) {
		store := setupTestStore(t)
		pipeline, err := NewPipeline(store, mock.NewMockProvider(), &fakeIndexer{})
		require.NoError(t, err)
		defer pipeline.Release()

		input := emailInput("pat@acme.com", "their reply")
		input.Kind = core.CandidateKindReceived
		added, err := pipeline.Ingest(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, core.CandidateKindReceived, added[0].Kind)
	})

	t.Run("invalid email fails ingestion", func(t *testing.T) {
		store := setupTestStore(t)
		pipeline, err := NewPipeline(store, mock.NewMockProvider(), &fakeIndexer{})
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Ingest(ctx, emailInput("pat@acme.com", ""))
		assert.ErrorIs(t, err, core.ErrInvalidCandidate)
	})
}

func TestPipeline_RelationshipMemoization(t *testing.T) {
	ctx := context.Background()

	t.Run("recipient detected once", func(t *testing.T) {
		store := setupTestStore(t)
		provider := mock.NewMockProvider().(*mock.MockProvider)
		pipeline, err := NewPipeline(store, provider, &fakeIndexer{})
		require.NoError(t, err)
		defer pipeline.Release()

		_, err = pipeline.Ingest(ctx,
			emailInput("pat@acme.com", "first"),
			emailInput("PAT@acme.com", "second, case differs"),
		)
		require.NoError(t, err)

		_, err = pipeline.Ingest(ctx, emailInput("pat@acme.com", "third"))
		require.NoError(t, err)

		assert.Equal(t, 1, provider.GetMockDetector().CallCount())
	})

	t.Run("detection failure labels unknown without caching", func(t *testing.T) {
		store := setupTestStore(t)
		detector := mock.NewMockRelationshipDetector()
		detector.DetectFunc = func(ctx context.Context, userId, recipientEmail string) (core.Relationship, error) {
			return "", errors.New("model unavailable")
		}
		provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), detector)
		pipeline, err := NewPipeline(store, provider, &fakeIndexer{})
		require.NoError(t, err)
		defer pipeline.Release()

		added, err := pipeline.Ingest(ctx, emailInput("pat@acme.com", "first"))
		require.NoError(t, err, "detector failure must not fail ingestion")
		assert.Equal(t, core.RelationshipUnknown, added[0].Relationship)

		_, err = pipeline.Ingest(ctx, emailInput("pat@acme.com", "second"))
		require.NoError(t, err)
		assert.Equal(t, 2, detector.CallCount(), "failures should not be remembered")
	})
}

func TestPipeline_Release(t *testing.T) {
	store := setupTestStore(t)
	pipeline, err := NewPipeline(store, mock.NewMockProvider(), &fakeIndexer{})
	require.NoError(t, err)

	// Release should not panic
	pipeline.Release()

	// Multiple releases should not panic
	pipeline.Release()
}

func TestPipeline_ReleaseTimeout(t *testing.T) {
	store := setupTestStore(t)
	indexer := &fakeIndexer{}
	pipeline, err := NewPipeline(store, mock.NewMockProvider(), indexer)
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(),
		emailInput("pat@acme.com", "see you at standup"),
		emailInput("pat@acme.com", "notes attached"))
	require.NoError(t, err)

	// Draining guarantees the queued indexing work ran before return.
	require.NoError(t, pipeline.ReleaseTimeout(5*time.Second))
	assert.Len(t, indexer.indexed(), 2)
}

func TestIndexProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("indexes every candidate", func(t *testing.T) {
		indexer := &fakeIndexer{}
		proc, err := newIndexProcessor(indexer, nil)
		require.NoError(t, err)

		err = proc.process(ctx,
			&core.EmailCandidate{Id: "a", Contents: "one"},
			&core.EmailCandidate{Id: "b", Contents: "two"},
		)
		require.NoError(t, err)
		assert.Len(t, indexer.indexed(), 2)
	})

	t.Run("isolates failures", func(t *testing.T) {
		indexer := &fakeIndexer{
			fail: func(doc search.Document) error {
				if doc.EmailID == "bad" {
					return errors.New("embedding offline")
				}
				return nil
			},
		}
		proc, err := newIndexProcessor(indexer, nil)
		require.NoError(t, err)

		err = proc.process(ctx,
			&core.EmailCandidate{Id: "a", Contents: "one"},
			&core.EmailCandidate{Id: "bad", Contents: "two"},
			&core.EmailCandidate{Id: "c", Contents: "three"},
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding offline")
		assert.Len(t, indexer.indexed(), 2, "healthy candidates still index")
	})

	t.Run("requires indexer", func(t *testing.T) {
		_, err := newIndexProcessor(nil, nil)
		assert.Error(t, err)
	})
}

func TestRelationshipResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("requires detector", func(t *testing.T) {
		_, err := newRelationshipResolver(nil, nil)
		assert.Error(t, err)
	})

	t.Run("scopes memoization per user", func(t *testing.T) {
		detector := mock.NewMockRelationshipDetector()
		resolver, err := newRelationshipResolver(detector, nil)
		require.NoError(t, err)

		resolver.resolve(ctx, "u1", "pat@acme.com")
		resolver.resolve(ctx, "u2", "pat@acme.com")
		assert.Equal(t, 2, detector.CallCount(), "same recipient for another user is a fresh detection")
	})
}

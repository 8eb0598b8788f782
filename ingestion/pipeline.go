package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/search"
	"github.com/poiesic/exemplar/storage"
)

// Indexer computes and persists vectors for stored candidates. The
// production implementation is the search engine.
type Indexer interface {
	IndexDocument(ctx context.Context, doc search.Document) error
}

// Pipeline orchestrates ingestion of email candidates. Relationships are
// resolved synchronously so every stored candidate carries a label;
// vector indexing runs asynchronously on a worker pool.
type Pipeline struct {
	store         storage.CandidateStore
	indexPool     *ants.Pool
	indexProc     processor
	relationships *relationshipResolver
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for async indexing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.indexPool != nil {
			p.indexPool.Release()
		}

		indexPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.indexPool = indexPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store storage.CandidateStore,
	provider ai.AIProvider,
	indexer Indexer,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	indexPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:     store,
		indexPool: indexPool,
		logger:    slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create collaborators after options are applied (so they get the final logger)
	indexProc, err := newIndexProcessor(indexer, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	relationships, err := newRelationshipResolver(provider.RelationshipDetector(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.indexProc = indexProc
	p.relationships = relationships

	return p, nil
}

// EmailInput is one email handed to the pipeline.
type EmailInput struct {
	UserID         string
	RecipientEmail string
	Subject        string
	Text           string

	// SentAt defaults to the current time when zero.
	SentAt time.Time

	// Kind defaults to sent mail when zero.
	Kind core.CandidateKind
}

// Ingest stores emails as candidates and queues them for vector indexing.
// Each recipient's relationship is detected once and remembered; a failed
// detection labels the candidate unknown rather than failing the call.
// Indexing errors are logged but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, inputs ...EmailInput) ([]*core.EmailCandidate, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	candidates := make([]*core.EmailCandidate, len(inputs))
	for i, input := range inputs {
		sentAt := input.SentAt
		if sentAt.IsZero() {
			sentAt = time.Now().UTC()
		}
		kind := input.Kind
		if kind == 0 {
			kind = core.CandidateKindSent
		}

		candidates[i] = &core.EmailCandidate{
			UserId:         input.UserID,
			Kind:           kind,
			Subject:        input.Subject,
			Contents:       input.Text,
			RecipientEmail: input.RecipientEmail,
			Relationship:   p.relationships.resolve(ctx, input.UserID, input.RecipientEmail),
			SentAt:         sentAt,
			WordCount:      wordCount(input.Text),
		}
	}

	// Add to storage
	added, err := p.store.AddCandidates(ctx, candidates...)
	if err != nil {
		return nil, err
	}

	if len(added) == 0 {
		return added, nil
	}

	// Submit for async indexing
	batch := make([]*core.EmailCandidate, len(added))
	copy(batch, added)
	p.indexPool.Submit(func() {
		if err := p.indexProc.process(context.Background(), batch...); err != nil {
			p.logger.Error("error indexing candidates", "err", err)
		}
	})

	return added, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.indexPool != nil {
		p.indexPool.Release()
	}
}

// ReleaseTimeout releases the worker pool, waiting up to timeout for queued
// indexing work to drain. Callers that close the store right after ingesting
// should prefer this over Release.
func (p *Pipeline) ReleaseTimeout(timeout time.Duration) error {
	if p.indexPool == nil {
		return nil
	}
	return p.indexPool.ReleaseTimeout(timeout)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

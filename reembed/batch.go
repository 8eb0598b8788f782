package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/storage"
	"github.com/poiesic/exemplar/styleembed"
)

// StyleEmbedder produces style vectors for candidate text. The production
// implementation is styleembed.Service. A nil StyleEmbedder limits the
// run to semantic vectors.
type StyleEmbedder interface {
	EmbedText(ctx context.Context, text string) (*styleembed.Embedding, error)
}

// BatchProcessor regenerates embedding vectors for batches of candidates.
type BatchProcessor struct {
	store          storage.CandidateStore
	semantic       ai.Embedder
	style          StyleEmbedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(store storage.CandidateStore, semantic ai.Embedder, style StyleEmbedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		semantic:       semantic,
		style:          style,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process regenerates vectors for a batch of candidates and persists them.
// Semantic embeddings come from one batched call with retry and are
// normalized so similarity scoring stays a dot product. Style vectors are
// re-embedded per candidate; a style failure leaves that candidate's
// stored style vector untouched rather than failing the batch.
func (bp *BatchProcessor) Process(ctx context.Context, candidates []*core.EmailCandidate) error {
	if len(candidates) == 0 {
		return nil
	}

	// Extract text content
	texts := make([]string, len(candidates))
	for i, candidate := range candidates {
		texts[i] = candidate.Contents
	}

	// Generate semantic embeddings with retry
	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = bp.semantic.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(candidates) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(candidates), len(embeddings))
	}

	for i, candidate := range candidates {
		semantic := core.NormalizeVector(embeddings[i])
		style := bp.styleVector(ctx, candidate)

		if err := bp.store.PersistVectors(ctx, candidate.Id, semantic, style); err != nil {
			return fmt.Errorf("failed to persist vectors for %s: %w", candidate.Id, err)
		}
	}

	return nil
}

// styleVector re-embeds one candidate's style, returning nil whenever a
// usable vector cannot be produced. PersistVectors treats nil as keep.
func (bp *BatchProcessor) styleVector(ctx context.Context, candidate *core.EmailCandidate) []float32 {
	if bp.style == nil {
		return nil
	}

	embedding, err := bp.style.EmbedText(ctx, candidate.Contents)
	if err != nil {
		slog.Warn("style reembedding failed, keeping stored vector", "candidate", candidate.Id, "error", err)
		return nil
	}
	if len(embedding.Vector) != core.StyleVectorDim {
		slog.Warn("style reembedding unusable, keeping stored vector",
			"candidate", candidate.Id, "dimensions", len(embedding.Vector))
		return nil
	}
	return embedding.Vector
}

package ai

import (
	"context"

	"github.com/poiesic/exemplar/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// RelationshipDetector classifies how a user relates to a correspondent.
// Implementations must be thread-safe for concurrent use.
type RelationshipDetector interface {
	// DetectRelationship resolves the relationship between the user and the
	// recipient address into one of the known labels. Callers treat the
	// result as authoritative for relationship-scoped retrieval, so
	// implementations must return an error rather than guess when the
	// classification itself fails.
	DetectRelationship(ctx context.Context, userId, recipientEmail string) (core.Relationship, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and RelationshipDetector instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// RelationshipDetector returns the relationship classification service.
	// The returned RelationshipDetector is safe for concurrent use.
	RelationshipDetector() RelationshipDetector

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

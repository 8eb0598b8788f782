package ingestion

import "errors"

var (
	// ErrStoreRequired is returned when a candidate store is not provided.
	ErrStoreRequired = errors.New("candidate store required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")
)

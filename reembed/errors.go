package reembed

import "errors"

var (
	// ErrStoreRequired is returned when no candidate store is provided
	ErrStoreRequired = errors.New("candidate store required")

	// ErrEmbedderRequired is returned when no semantic embedder is provided
	ErrEmbedderRequired = errors.New("semantic embedder required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)

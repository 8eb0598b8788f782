package storage

import (
	"context"

	"github.com/poiesic/exemplar/core"
)

// CandidateStore provides operations for managing email candidates.
// Implementations must be thread-safe and support concurrent access.
type CandidateStore interface {
	// AddCandidates upserts one or more candidates.
	// Candidates without an Id get a content-derived one. InsertedAt is
	// set on first write and preserved on upsert; UpdatedAt always
	// advances. Returns the candidates with ids and timestamps populated.
	AddCandidates(ctx context.Context, candidates ...*core.EmailCandidate) ([]*core.EmailCandidate, error)

	// GetCandidate retrieves a single candidate by id.
	// Returns ErrNotFound if the candidate doesn't exist.
	GetCandidate(ctx context.Context, id string) (*core.EmailCandidate, error)

	// FetchCandidates retrieves a user's candidates, most recent first.
	// The filter narrows results when non-nil; candidates without a
	// semantic vector are never returned. At most limit candidates come
	// back; limit must be positive.
	FetchCandidates(ctx context.Context, userID string, filter *core.SearchFilter, limit int) ([]*core.EmailCandidate, error)

	// PersistVectors stores embedding vectors for a candidate.
	// Either vector may be nil to leave the stored one untouched.
	// Returns ErrNotFound if the candidate doesn't exist.
	PersistVectors(ctx context.Context, id string, semantic, style []float32) error

	// ListCandidates pages through all candidates in id order.
	// Pass the last id of the previous page as afterID; empty starts
	// from the beginning. Used by offline tools.
	ListCandidates(ctx context.Context, afterID string, limit int) ([]*core.EmailCandidate, error)

	// CountCandidates reports how many candidates a user has.
	CountCandidates(ctx context.Context, userID string) (int, error)

	// Close releases resources held by the store.
	Close() error
}

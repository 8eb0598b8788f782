package badger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/storage"
)

// CandidateStore implements storage.CandidateStore for BadgerDB.
type CandidateStore struct {
	backend *Backend
}

var _ storage.CandidateStore = (*CandidateStore)(nil)

// NewCandidateStore creates a new CandidateStore on the given backend.
func NewCandidateStore(backend *Backend) *CandidateStore {
	return &CandidateStore{backend: backend}
}

// Close releases store resources. The backend owns the database handle
// and is closed separately.
func (s *CandidateStore) Close() error {
	return nil
}

// AddCandidates upserts one or more candidates.
func (s *CandidateStore) AddCandidates(ctx context.Context, candidates ...*core.EmailCandidate) ([]*core.EmailCandidate, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, candidate := range candidates {
			if candidate != nil && candidate.Id == "" {
				candidate.Id = core.CandidateIDFromContent(
					candidate.UserId, candidate.RecipientEmail, candidate.SentAt, candidate.Contents)
			}
			if err := core.ValidateCandidate(candidate); err != nil {
				return err
			}

			key := makeCandidateKey(candidate.Id)
			old, err := readCandidate(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if old != nil {
				candidate.InsertedAt = old.InsertedAt
				// Clean the stale date index entry if the send time moved
				if !old.SentAt.Equal(candidate.SentAt) || old.UserId != candidate.UserId {
					if err := tx.Delete(makeCandidateDateKey(old.UserId, old.SentAt, old.Id)); err != nil {
						return err
					}
				}
			} else {
				candidate.InsertedAt = now
			}
			candidate.UpdatedAt = now

			// Store primary record
			if err := tx.Set(key, storage.MarshalCandidate(candidate)); err != nil {
				return err
			}

			// Update date index
			dateKey := makeCandidateDateKey(candidate.UserId, candidate.SentAt, candidate.Id)
			if err := tx.Set(dateKey, []byte(candidate.Id)); err != nil {
				return err
			}
		}
		return commit(tx)
	}, true)

	return candidates, err
}

// GetCandidate retrieves a single candidate by id.
func (s *CandidateStore) GetCandidate(ctx context.Context, id string) (*core.EmailCandidate, error) {
	var result *core.EmailCandidate
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCandidate(tx, makeCandidateKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FetchCandidates retrieves a user's candidates, most recent first.
// Candidates without a semantic vector are excluded; the filter, when
// non-nil, narrows results further.
func (s *CandidateStore) FetchCandidates(ctx context.Context, userID string, filter *core.SearchFilter, limit int) ([]*core.EmailCandidate, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", storage.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.EmailCandidate
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		// Walk the per-user date index newest-first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makeCandidateUserPrefix(userID)
		startKey := maxCandidateDateKey(userID)

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var id string
			if err := iter.Item().Value(func(val []byte) error {
				id = string(val)
				return nil
			}); err != nil {
				return err
			}

			candidate, err := readCandidate(tx, makeCandidateKey(id))
			if err != nil {
				return err
			}
			if candidate == nil {
				// Dangling index entry
				continue
			}
			if len(candidate.SemanticVector) == 0 {
				continue
			}
			if filter != nil && !filter.Matches(candidate) {
				continue
			}
			results = append(results, candidate)
		}
		return nil
	}, false)

	return results, err
}

// PersistVectors stores embedding vectors for a candidate. Either vector
// may be nil to leave the stored one untouched.
func (s *CandidateStore) PersistVectors(ctx context.Context, id string, semantic, style []float32) error {
	if semantic == nil && style == nil {
		return nil
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCandidateKey(id)
		candidate, err := readCandidate(tx, key)
		if err != nil {
			return err
		}
		if candidate == nil {
			return storage.ErrNotFound
		}

		if semantic != nil {
			if len(semantic) != core.SemanticVectorDim {
				return fmt.Errorf("%w: semantic vector has %d dimensions, expected %d",
					core.ErrInvalidVector, len(semantic), core.SemanticVectorDim)
			}
			candidate.SemanticVector = semantic
		}
		if style != nil {
			if len(style) != core.StyleVectorDim {
				return fmt.Errorf("%w: style vector has %d dimensions, expected %d",
					core.ErrInvalidVector, len(style), core.StyleVectorDim)
			}
			candidate.StyleVector = style
		}
		candidate.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalCandidate(candidate)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// ListCandidates pages through all candidates in id order.
func (s *CandidateStore) ListCandidates(ctx context.Context, afterID string, limit int) ([]*core.EmailCandidate, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.EmailCandidate
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(candidatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := []byte(candidatePrefix + ":")
		if afterID != "" {
			// Position strictly after the given id
			start = append(makeCandidateKey(afterID), 0)
		}

		for iter.Seek(start); iter.Valid() && len(results) < limit; iter.Next() {
			var candidate *core.EmailCandidate
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				candidate, unmarshalErr = storage.UnmarshalCandidate(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			results = append(results, candidate)
		}
		return nil
	}, false)

	return results, err
}

// CountCandidates reports how many candidates a user has.
func (s *CandidateStore) CountCandidates(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("%w: user id required", storage.ErrInvalidQuery)
	}

	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = makeCandidateUserPrefix(userID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// Helper functions

// readCandidate reads a candidate from the transaction.
// Returns nil without error when the key is absent.
func readCandidate(tx *badger.Txn, key []byte) (*core.EmailCandidate, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var candidate *core.EmailCandidate
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		candidate, unmarshalErr = storage.UnmarshalCandidate(val)
		return unmarshalErr
	})
	return candidate, err
}

// commit commits the transaction, wrapping failures.
func commit(tx *badger.Txn) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

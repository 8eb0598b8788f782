// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/storage"
)

const (
	// DefaultBatchSize is the default number of candidates to fetch in each batch
	DefaultBatchSize = 100
)

// CandidateIterator pages over every stored candidate in id order.
// Vectorless candidates are included, so a reembedding run also backfills
// candidates that never received vectors.
type CandidateIterator struct {
	store     storage.CandidateStore
	batchSize int
}

// NewCandidateIterator creates a new candidate iterator.
// batchSize: number of candidates to fetch in each batch (must be > 0)
func NewCandidateIterator(store storage.CandidateStore, batchSize int) *CandidateIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &CandidateIterator{
		store:     store,
		batchSize: batchSize,
	}
}

// Count walks the keyspace and reports how many candidates exist across
// all users.
func (it *CandidateIterator) Count(ctx context.Context) (int, error) {
	count := 0
	err := it.ForEach(ctx, func(candidates []*core.EmailCandidate) error {
		count += len(candidates)
		return nil
	})
	return count, err
}

// ForEach iterates over all candidates, calling fn for each batch.
// Iteration stops on the first error from fn or when all candidates are
// processed. Context cancellation is checked between batches.
func (it *CandidateIterator) ForEach(ctx context.Context, fn func([]*core.EmailCandidate) error) error {
	afterID := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.store.ListCandidates(ctx, afterID, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		// A short batch means the keyspace is exhausted
		afterID = batch[len(batch)-1].Id
		if len(batch) < it.batchSize {
			return nil
		}
	}
}

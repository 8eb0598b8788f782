package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/search"
)

// indexProcessor computes and persists vectors for stored candidates.
type indexProcessor struct {
	indexer Indexer
	logger  *slog.Logger
}

var _ processor = (*indexProcessor)(nil)

// newIndexProcessor creates a new indexing processor.
func newIndexProcessor(indexer Indexer, logger *slog.Logger) (processor, error) {
	if indexer == nil {
		return nil, fmt.Errorf("indexer required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &indexProcessor{
		indexer: indexer,
		logger:  logger.With("processor", "indexing"),
	}, nil
}

// process indexes the given candidates one by one. A failed candidate is
// logged and skipped; the rest of the batch still indexes.
func (ip *indexProcessor) process(ctx context.Context, candidates ...*core.EmailCandidate) error {
	ip.logger.Info("indexing candidates", "candidates", len(candidates))

	var failures []error
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		doc := search.Document{EmailID: candidate.Id, Text: candidate.Contents}
		if err := ip.indexer.IndexDocument(ctx, doc); err != nil {
			ip.logger.Error("error indexing candidate", "candidate", candidate.Id, "err", err)
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

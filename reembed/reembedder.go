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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of candidates to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of candidates)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("report interval must be positive, got %d", c.ReportInterval)
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive, got %d", c.MaxRetries)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %v", c.RetryDelay)
	}
	return nil
}

// Reembedder orchestrates the reembedding of all stored candidates.
type Reembedder struct {
	store     storage.CandidateStore
	semantic  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *CandidateIterator
}

// NewReembedder creates a new reembedder. The style embedder may be nil,
// limiting the run to semantic vectors. A nil progress writer discards
// progress output (the CLI passes os.Stderr).
func NewReembedder(store storage.CandidateStore, semantic ai.Embedder, style StyleEmbedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if semantic == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reembed config: %w", err)
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		store:     store,
		semantic:  semantic,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(store, semantic, style, config.MaxRetries, config.RetryDelay),
		iterator:  NewCandidateIterator(store, config.BatchSize),
	}, nil
}

// Run executes the reembedding operation.
// All candidates in the database are reembedded with the configured
// embedders. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	// First, count total candidates
	total, err := r.iterator.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count candidates: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No candidates found in database (0 candidates)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d candidates (batch size: %d)\n",
		total, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	// Process all candidates in batches
	err = r.iterator.ForEach(ctx, func(candidates []*core.EmailCandidate) error {
		// Process this batch
		if err := r.processor.Process(ctx, candidates); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		// Update progress
		processed += len(candidates)
		tracker.Update(processed)

		return nil
	})

	if err != nil {
		return err
	}

	// Finish progress tracking
	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d candidates in %v (%.1f candidates/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}

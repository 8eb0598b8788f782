// Package ingestion provides pipeline orchestration for storing email candidates.
//
// The Pipeline type manages the ingestion workflow for emails, including:
//   - Detecting each recipient's relationship, memoized per recipient
//   - Adding candidates to storage with content-derived ids
//   - Computing and persisting embedding vectors asynchronously
//
// Indexing is performed concurrently using a worker pool. Errors during
// async indexing are logged but do not fail the ingestion operation.
package ingestion

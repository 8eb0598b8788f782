// Package reembed regenerates embedding vectors for stored email
// candidates after an embedding model changes.
//
// The package pages candidates out of the store in batches, reembeds
// them with retry and exponential backoff, and reports progress while it
// runs. Vectorless candidates are backfilled along the way. This is
// maintenance tooling for offline use, not part of the serving path.
package reembed

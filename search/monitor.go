package search

import "time"

// SearchMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	QueryEmbedded(took time.Duration)
	StyleDegraded(reason string)
	CacheHit(key string)
	CacheMiss(key string, reason string)
	CandidatesFetched(count int)
	Finish(considered, returned int)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                {}
func (n *noopMonitor) QueryEmbedded(_ time.Duration) {}
func (n *noopMonitor) StyleDegraded(_ string)        {}
func (n *noopMonitor) CacheHit(_ string)             {}
func (n *noopMonitor) CacheMiss(_ string, _ string)  {}
func (n *noopMonitor) CandidatesFetched(_ int)       {}
func (n *noopMonitor) Finish(_ int, _ int)           {}

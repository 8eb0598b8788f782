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


package search

import (
	"sync"
	"time"
)

// Cache miss reasons reported through the monitor.
const (
	missCold       = "cold"
	missExpired    = "expired"
	missSetChanged = "candidate set changed"
)

type cachedIndex struct {
	index     *vectorIndex
	expiresAt time.Time
}

// indexCache keeps one vector index per query shape, keyed by user and
// filter. The mutex guards the map only; concurrent misses on the same key
// may each build an index, and the last writer wins. An entry is served only
// while its TTL holds and its fingerprint still matches the stored
// candidate set.
type indexCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*cachedIndex
}

func newIndexCache(ttl time.Duration) *indexCache {
	return &indexCache{
		ttl:     ttl,
		entries: make(map[string]*cachedIndex),
	}
}

// lookup returns the cached index for key when it is still valid for the
// given fingerprint. On a miss it returns nil and the reason. Entries that
// have expired are dropped as they are seen.
func (c *indexCache) lookup(key, fingerprint string, now time.Time) (*vectorIndex, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, missCold
	}
	if now.After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, missExpired
	}
	if entry.index.fingerprint != fingerprint {
		return nil, missSetChanged
	}
	return entry.index, ""
}

// store replaces any entry under key and sweeps out expired entries.
func (c *indexCache) store(key string, index *vectorIndex, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = &cachedIndex{
		index:     index,
		expiresAt: now.Add(c.ttl),
	}
}

// size returns the number of live entries, for tests and diagnostics.
func (c *indexCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

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
	"github.com/poiesic/exemplar/core"
)

// indexEntry pairs a candidate with its unit-normalized vectors. A nil style
// slice marks a candidate without a usable style vector.
type indexEntry struct {
	candidate *core.EmailCandidate
	semantic  []float32
	style     []float32
}

// vectorIndex is a brute-force similarity index over one fetched candidate
// set. Vectors are normalized once at build time so scoring a query reduces
// to dot products. Zero vectors stay zero, so their similarity is 0 rather
// than NaN.
type vectorIndex struct {
	fingerprint string
	entries     []indexEntry
}

// buildIndex constructs an index over the given candidates. The fingerprint
// identifies the candidate set the index was built from. Candidates without
// a semantic vector are skipped.
func buildIndex(fingerprint string, candidates []*core.EmailCandidate) *vectorIndex {
	entries := make([]indexEntry, 0, len(candidates))
	for _, candidate := range candidates {
		if core.IsZeroVector(candidate.SemanticVector) {
			continue
		}
		entry := indexEntry{
			candidate: candidate,
			semantic:  core.NormalizeVector(candidate.SemanticVector),
		}
		if !core.IsZeroVector(candidate.StyleVector) {
			entry.style = core.NormalizeVector(candidate.StyleVector)
		}
		entries = append(entries, entry)
	}
	return &vectorIndex{
		fingerprint: fingerprint,
		entries:     entries,
	}
}

// size returns the number of scorable entries in the index.
func (ix *vectorIndex) size() int {
	return len(ix.entries)
}

// score ranks every entry against the query vectors. querySemantic must be
// unit-normalized; queryStyle may be nil, in which case every combined score
// equals the semantic score. Style similarity contributes only when both the
// query and the candidate carry a style vector.
func (ix *vectorIndex) score(querySemantic, queryStyle []float32, semanticWeight, styleWeight float64) []core.ScoredMatch {
	matches := make([]core.ScoredMatch, 0, len(ix.entries))
	for _, entry := range ix.entries {
		match := core.ScoredMatch{
			Candidate:     entry.candidate,
			SemanticScore: dotProduct(querySemantic, entry.semantic),
		}
		if queryStyle != nil && entry.style != nil {
			match.StyleScore = dotProduct(queryStyle, entry.style)
			match.CombinedScore = semanticWeight*match.SemanticScore + styleWeight*match.StyleScore
		} else {
			match.CombinedScore = match.SemanticScore
		}
		matches = append(matches, match)
	}
	return matches
}

// dotProduct computes the cosine similarity of two unit vectors. Mismatched
// widths score 0; they cannot match meaningfully.
func dotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

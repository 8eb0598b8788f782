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


// Package search provides dual-space similarity retrieval over stored email
// candidates.
//
// The Engine type scores candidates in two vector spaces:
//   - Semantic similarity using external text embeddings
//   - Style similarity using locally computed style embeddings
//
// The two similarities blend into a combined score, which a temporal decay
// then discounts by candidate age for ordering. When style embeddings are
// unavailable the engine degrades to semantic-only scoring rather than
// failing the query. Per-query indexes are cached briefly and invalidated
// when the underlying candidate set changes.
package search

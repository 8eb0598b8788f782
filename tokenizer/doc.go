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


// Package tokenizer implements byte-pair encoding against a vocabulary
// and ranked merge table shipped alongside the style model.
//
// The Tokenizer loads two artifacts:
//   - vocab.json: a JSON object mapping token strings to integer ids
//   - merges.txt: a format header line followed by ranked merge pairs,
//     one space-separated pair per line, earlier lines merging first
//
// Encoding splits text on whitespace, marks every word after the first
// with the word-boundary character, applies the merge table greedily and
// produces fixed-length id sequences with BOS/EOS markers, padding and an
// attention mask. A Tokenizer is safe for concurrent use.
package tokenizer

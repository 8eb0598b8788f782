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


package tokenizer

import "errors"

var (
	// ErrInvalidVocabulary is returned when the vocabulary file cannot be
	// parsed or is missing required special tokens.
	ErrInvalidVocabulary = errors.New("invalid vocabulary")

	// ErrInvalidMerges is returned when the merges file cannot be parsed.
	ErrInvalidMerges = errors.New("invalid merges")

	// ErrWindowTooSmall is returned when an encode window cannot hold the
	// BOS and EOS markers.
	ErrWindowTooSmall = errors.New("window too small")
)

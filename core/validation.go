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


package core

import (
	"fmt"
	"time"
)

// ValidateCandidate validates an EmailCandidate according to domain rules.
//
// Validation rules:
//   - UserId, Contents and RecipientEmail must not be empty
//   - Kind must be valid (sent or received)
//   - SentAt must be set and not in the future
//   - Vectors, when present, must carry a supported width
//
// NOT validated (populated later):
//   - SemanticVector and StyleVector may be nil until indexing runs
//   - Id (assigned from content on insert when empty)
func ValidateCandidate(c *EmailCandidate) error {
	if c == nil {
		return fmt.Errorf("%w: candidate is nil", ErrInvalidCandidate)
	}

	if c.UserId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyUserID)
	}

	if c.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyContents)
	}

	if c.RecipientEmail == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrEmptyRecipient)
	}

	if err := ValidateKind(c.Kind); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, err)
	}

	if c.SentAt.IsZero() || !IsValidTimestamp(c.SentAt) {
		return fmt.Errorf("%w: %w", ErrInvalidCandidate, ErrInvalidTimestamp)
	}

	if len(c.SemanticVector) > 0 && !isSupportedDim(len(c.SemanticVector)) {
		return fmt.Errorf("%w: %w: semantic vector has %d dimensions", ErrInvalidCandidate, ErrInvalidVector, len(c.SemanticVector))
	}

	if len(c.StyleVector) > 0 && !isSupportedDim(len(c.StyleVector)) {
		return fmt.Errorf("%w: %w: style vector has %d dimensions", ErrInvalidCandidate, ErrInvalidVector, len(c.StyleVector))
	}

	return nil
}

// ValidateKind validates that a CandidateKind has a valid value.
func ValidateKind(kind CandidateKind) error {
	if kind != CandidateKindSent && kind != CandidateKindReceived {
		return fmt.Errorf("%w: value %d", ErrInvalidKind, kind)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

func isSupportedDim(n int) bool {
	return n == SemanticVectorDim || n == StyleVectorDim
}

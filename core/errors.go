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

import "errors"

// Domain validation errors
var (
	// ErrInvalidVector indicates a vector has the wrong dimensionality or
	// malformed encoding for the operation.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrInvalidCandidate indicates an EmailCandidate failed validation.
	ErrInvalidCandidate = errors.New("invalid email candidate")

	// ErrInvalidTimestamp indicates a timestamp is missing or in the future.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrEmptyContents indicates the Contents field is empty.
	ErrEmptyContents = errors.New("contents cannot be empty")

	// ErrEmptyUserID indicates the UserId field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrEmptyRecipient indicates the RecipientEmail field is empty.
	ErrEmptyRecipient = errors.New("recipient email cannot be empty")

	// ErrInvalidKind indicates an invalid CandidateKind value.
	ErrInvalidKind = errors.New("invalid candidate kind")
)

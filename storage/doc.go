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


// Package storage provides the storage abstraction layer for exemplar.
//
// It defines the CandidateStore interface that decouples the retrieval
// engine and ingestion pipeline from the storage implementation, plus the
// MUS wire format shared by all backends.
//
// # Constructor Return Type Pattern
//
// Public backend constructors return the storage.CandidateStore interface
// to enforce abstraction and enable alternative implementations:
//
//	store, err := badger.NewCandidateStore(backend) // returns concrete type
//	var cs storage.CandidateStore = store           // consumed as interface
//
// Internal package constructors may return concrete types since they're
// only used within the implementation package.
//
// # Serialization
//
// Candidates are stored in the MUS format via hand-written serializers
// (CandidateMUS). The field order in serialization.go is the wire
// contract; vectors are embedded as little-endian float32 blobs and
// timestamps as Unix microseconds. Decode failures wrap
// ErrSerializationFailed, short reads additionally ErrTruncatedData.
//
// # Thread Safety
//
// All store implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All store methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific
// timeout requirements.
package storage

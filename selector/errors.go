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


package selector

import "errors"

var (
	// ErrEngineRequired is returned when a retrieval engine is not provided.
	ErrEngineRequired = errors.New("retrieval engine required")

	// ErrDetectorRequired is returned when a relationship detector is not provided.
	ErrDetectorRequired = errors.New("relationship detector required")

	// ErrInvalidRequest is returned when a selection request is missing a
	// required field.
	ErrInvalidRequest = errors.New("invalid selection request")
)

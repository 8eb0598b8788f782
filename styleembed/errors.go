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


package styleembed

import "errors"

// ErrEmptyText indicates that an embedding was requested for empty or
// whitespace-only text.
var ErrEmptyText = errors.New("text is empty")

// ErrNotInitialized indicates the inference session is missing even though
// initialization reported success.
var ErrNotInitialized = errors.New("style session not initialized")

// ErrClosed indicates the service has been closed and can no longer embed.
var ErrClosed = errors.New("style service closed")

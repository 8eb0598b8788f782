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


// Package selector picks the sent-mail examples that guide reply drafting.
//
// Selection runs in two phases against the retrieval engine. The first
// phase looks for prior mail to the same recipient, capped at a fraction
// of the desired count so one correspondent never dominates the example
// set. The second phase fills the remainder with mail to the recipient's
// detected relationship category. The result carries the detected
// relationship and per-selection statistics.
package selector

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

import (
	"hash/fnv"
	"math"

	"github.com/poiesic/exemplar/core"
)

// FakeSession is an in-memory Session for tests. Inject it with
// WithSessionLoader; behavior is overridable via RunFunc.
//
// The service serializes session calls, so the counters need no locking.
type FakeSession struct {
	// RunFunc is called by Run if set. If nil, Run produces a
	// deterministic unit vector derived from the input ids.
	RunFunc func(inputIDs, attentionMask []int64) (*ModelOutput, error)

	// Dimensions is the width of default vectors.
	// Defaults to core.StyleVectorDim.
	Dimensions int

	// RunCount and CloseCount record usage for assertions.
	RunCount   int
	CloseCount int
}

// NewFakeSession creates a fake session producing default-width vectors.
func NewFakeSession() *FakeSession {
	return &FakeSession{Dimensions: core.StyleVectorDim}
}

// Loader returns a SessionLoader that always yields this fake.
func (f *FakeSession) Loader() SessionLoader {
	return func(*Config) (Session, error) {
		return f, nil
	}
}

func (f *FakeSession) Run(inputIDs, attentionMask []int64) (*ModelOutput, error) {
	f.RunCount++

	if f.RunFunc != nil {
		return f.RunFunc(inputIDs, attentionMask)
	}

	dim := f.Dimensions
	if dim <= 0 {
		dim = core.StyleVectorDim
	}
	return &ModelOutput{SentenceEmbedding: sequenceVector(inputIDs, dim)}, nil
}

func (f *FakeSession) Close() error {
	f.CloseCount++
	return nil
}

// sequenceVector derives a deterministic unit vector from the token ids,
// so identical texts embed identically and different texts differ.
func sequenceVector(ids []int64, dim int) []float32 {
	h := fnv.New32a()
	for _, id := range ids {
		h.Write([]byte{byte(id), byte(id >> 8), byte(id >> 16), byte(id >> 24)})
	}
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000) / 1000.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] /= norm
		}
	}
	return vector
}

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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/exemplar/core"
)

// candidateMUS serializes core.EmailCandidate in the MUS format.
// The field order below is the wire contract; new fields go at the end.
// Vectors ride as little-endian float32 blobs, times as Unix microseconds.
type candidateMUS struct{}

// CandidateMUS is the MUS serializer for core.EmailCandidate.
var CandidateMUS = candidateMUS{}

func (candidateMUS) Size(c core.EmailCandidate) (size int) {
	size = ord.String.Size(c.Id)
	size += ord.String.Size(c.UserId)
	size += varint.Int.Size(int(c.Kind))
	size += ord.String.Size(c.Subject)
	size += ord.String.Size(c.Contents)
	size += ord.String.Size(c.RecipientEmail)
	size += ord.String.Size(string(c.Relationship))
	size += varint.Int64.Size(c.SentAt.UnixMicro())
	size += varint.Int.Size(c.WordCount)
	size += bytesSize(4 * len(c.SemanticVector))
	size += bytesSize(4 * len(c.StyleVector))
	size += varint.Int64.Size(c.InsertedAt.UnixMicro())
	size += varint.Int64.Size(c.UpdatedAt.UnixMicro())
	return size
}

func (candidateMUS) Marshal(c core.EmailCandidate, bs []byte) (n int) {
	n = ord.String.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.UserId, bs[n:])
	n += varint.Int.Marshal(int(c.Kind), bs[n:])
	n += ord.String.Marshal(c.Subject, bs[n:])
	n += ord.String.Marshal(c.Contents, bs[n:])
	n += ord.String.Marshal(c.RecipientEmail, bs[n:])
	n += ord.String.Marshal(string(c.Relationship), bs[n:])
	n += varint.Int64.Marshal(c.SentAt.UnixMicro(), bs[n:])
	n += varint.Int.Marshal(c.WordCount, bs[n:])
	n += marshalBytes(core.EncodeVector(c.SemanticVector), bs[n:])
	n += marshalBytes(core.EncodeVector(c.StyleVector), bs[n:])
	n += varint.Int64.Marshal(c.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(c.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (candidateMUS) Unmarshal(bs []byte) (c core.EmailCandidate, n int, err error) {
	var k int

	if c.Id, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if c.UserId, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k

	var kind int
	if kind, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	c.Kind = core.CandidateKind(kind)

	if c.Subject, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if c.Contents, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	if c.RecipientEmail, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k

	var relationship string
	if relationship, k, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	c.Relationship = core.Relationship(relationship)

	var micros int64
	if micros, k, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	c.SentAt = time.UnixMicro(micros).UTC()

	if c.WordCount, k, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k

	var blob []byte
	if blob, k, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += k
	if c.SemanticVector, err = core.DecodeVector(blob); err != nil {
		return
	}

	if blob, k, err = unmarshalBytes(bs[n:]); err != nil {
		return
	}
	n += k
	if c.StyleVector, err = core.DecodeVector(blob); err != nil {
		return
	}

	if micros, k, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	c.InsertedAt = time.UnixMicro(micros).UTC()

	if micros, k, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += k
	c.UpdatedAt = time.UnixMicro(micros).UTC()

	return c, n, nil
}

// MarshalCandidate serializes an EmailCandidate to bytes.
func MarshalCandidate(candidate *core.EmailCandidate) []byte {
	buf := make([]byte, CandidateMUS.Size(*candidate))
	CandidateMUS.Marshal(*candidate, buf)
	return buf
}

// UnmarshalCandidate deserializes an EmailCandidate from bytes.
func UnmarshalCandidate(data []byte) (*core.EmailCandidate, error) {
	candidate, _, err := CandidateMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &candidate, nil
}

// bytesSize is the encoded size of a byte slice of length n.
func bytesSize(n int) int {
	return varint.Int.Size(n) + n
}

// marshalBytes writes a length-prefixed byte slice.
func marshalBytes(b []byte, bs []byte) int {
	n := varint.Int.Marshal(len(b), bs)
	return n + copy(bs[n:], b)
}

// unmarshalBytes reads a length-prefixed byte slice.
func unmarshalBytes(bs []byte) ([]byte, int, error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, n, err
	}
	if length < 0 {
		return nil, n, fmt.Errorf("%w: negative length %d", ErrSerializationFailed, length)
	}
	if len(bs)-n < length {
		return nil, n, ErrTruncatedData
	}
	if length == 0 {
		return nil, n, nil
	}
	b := make([]byte, length)
	n += copy(b, bs[n:n+length])
	return b, n, nil
}

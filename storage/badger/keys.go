package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	candidatePrefix     = "cand"
	candidateDatePrefix = "cdate"
)

// makeCandidateKey generates the primary key for a candidate by id.
func makeCandidateKey(id string) []byte {
	buf := make([]byte, 0, len(candidatePrefix)+1+len(id))
	buf = append(buf, candidatePrefix...)
	buf = append(buf, ':')
	buf = append(buf, id...)
	return buf
}

// makeCandidateDateKey generates a composite key for the per-user date
// index. Format: prefix : uvarint(len(userID)) userID bigendian(sentAt) id
//
// The user id is length-framed so ids containing separator bytes cannot
// bleed into a neighbor's key range; the timestamp is written BigEndian
// so lexicographic order is chronological within a user.
func makeCandidateDateKey(userID string, sentAt time.Time, id string) []byte {
	buf := makeCandidateUserPrefix(userID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(sentAt.UnixMicro()))
	buf = append(buf, id...)
	return buf
}

// makeCandidateUserPrefix generates the date-index prefix covering every
// entry of one user.
func makeCandidateUserPrefix(userID string) []byte {
	buf := make([]byte, 0, len(candidateDatePrefix)+1+binary.MaxVarintLen64+len(userID)+8)
	buf = append(buf, candidateDatePrefix...)
	buf = append(buf, ':')
	buf = binary.AppendUvarint(buf, uint64(len(userID)))
	buf = append(buf, userID...)
	return buf
}

// maxCandidateDateKey is the upper seek bound for reverse iteration over
// one user's date index.
func maxCandidateDateKey(userID string) []byte {
	buf := makeCandidateUserPrefix(userID)
	for i := 0; i < 8; i++ {
		buf = append(buf, 0xFF)
	}
	return buf
}

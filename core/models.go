package core

import (
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

const (
	// SemanticVectorDim is the width of topic embeddings produced by the
	// remote embedding provider.
	SemanticVectorDim = 384
	// StyleVectorDim is the width of style embeddings produced by the local
	// style model.
	StyleVectorDim = 768
)

// CandidateKind identifies which side of a correspondence a candidate
// email came from.
type CandidateKind int

const (
	// CandidateKindSent represents mail the user wrote.
	CandidateKindSent CandidateKind = iota + 1
	// CandidateKindReceived represents mail the user received.
	CandidateKindReceived
)

// Relationship is a coarse classification of how the user relates to a
// correspondent.
type Relationship string

const (
	RelationshipColleague Relationship = "colleague"
	RelationshipClient    Relationship = "client"
	RelationshipVendor    Relationship = "vendor"
	RelationshipFriend    Relationship = "friend"
	RelationshipFamily    Relationship = "family"
	RelationshipUnknown   Relationship = "unknown"
)

// KnownRelationships lists every classification a detector may assign.
var KnownRelationships = []Relationship{
	RelationshipColleague,
	RelationshipClient,
	RelationshipVendor,
	RelationshipFriend,
	RelationshipFamily,
	RelationshipUnknown,
}

// ParseRelationship normalizes free-form detector output to a known label.
// Anything unrecognized maps to RelationshipUnknown.
func ParseRelationship(s string) Relationship {
	r := Relationship(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range KnownRelationships {
		if r == known {
			return known
		}
	}
	return RelationshipUnknown
}

// EmailCandidate is a single prior email eligible for example selection.
// It may be enriched with vectors during indexing; a candidate without a
// semantic vector is not searchable.
type EmailCandidate struct {
	Id             string
	UserId         string
	Kind           CandidateKind
	Subject        string
	Contents       string
	RecipientEmail string
	Relationship   Relationship
	SentAt         time.Time // When the email was originally sent
	WordCount      int
	SemanticVector []float32 // Topic embedding (populated by indexing)
	StyleVector    []float32 // Style embedding (populated by indexing, may stay nil)
	InsertedAt     time.Time // When the record was inserted into the database
	UpdatedAt      time.Time // When the record was last updated
}

// CandidateIDFromContent generates a deterministic candidate id from the
// identifying fields using BLAKE2b hashing. Re-ingesting the same email
// produces the same id.
func CandidateIDFromContent(userId, recipientEmail string, sentAt time.Time, contents string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(userId))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.TrimSpace(recipientEmail))))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(sentAt.UnixMicro(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(contents))
	return hex.EncodeToString(h.Sum(nil))
}

// FingerprintIDs computes a stable fingerprint for a set of candidate ids.
// Order does not matter: ids are sorted before hashing, so two fetches of
// the same candidate set always agree.
func FingerprintIDs(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	h, _ := blake2b.New(16, nil)
	for _, id := range sorted {
		h.Write([]byte(id))
		h.Write([]byte{','})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SearchFilter narrows which candidates a search may consider.
// Zero-valued fields match everything.
type SearchFilter struct {
	Relationship   Relationship
	RecipientEmail string
	Kind           CandidateKind
	Since          time.Time
	Until          time.Time
	ExcludeIds     []string
}

// Key renders the filter as a deterministic string used for cache keying.
func (f SearchFilter) Key() string {
	var b strings.Builder
	b.WriteString("rel=")
	b.WriteString(string(f.Relationship))
	b.WriteString("|rcpt=")
	b.WriteString(strings.ToLower(strings.TrimSpace(f.RecipientEmail)))
	b.WriteString("|kind=")
	b.WriteString(strconv.Itoa(int(f.Kind)))
	b.WriteString("|since=")
	if !f.Since.IsZero() {
		b.WriteString(strconv.FormatInt(f.Since.UnixMicro(), 10))
	}
	b.WriteString("|until=")
	if !f.Until.IsZero() {
		b.WriteString(strconv.FormatInt(f.Until.UnixMicro(), 10))
	}
	b.WriteString("|excl=")
	if len(f.ExcludeIds) > 0 {
		sorted := make([]string, len(f.ExcludeIds))
		copy(sorted, f.ExcludeIds)
		sort.Strings(sorted)
		b.WriteString(strings.Join(sorted, ","))
	}
	return b.String()
}

// Matches reports whether a candidate passes every set field of the filter.
func (f SearchFilter) Matches(c *EmailCandidate) bool {
	if c == nil {
		return false
	}
	if f.Relationship != "" && c.Relationship != f.Relationship {
		return false
	}
	if f.RecipientEmail != "" && !strings.EqualFold(strings.TrimSpace(f.RecipientEmail), c.RecipientEmail) {
		return false
	}
	if f.Kind != 0 && c.Kind != f.Kind {
		return false
	}
	if !f.Since.IsZero() && c.SentAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && c.SentAt.After(f.Until) {
		return false
	}
	for _, id := range f.ExcludeIds {
		if c.Id == id {
			return false
		}
	}
	return true
}

// ScoredMatch is a ranked candidate returned from a search.
type ScoredMatch struct {
	Candidate     *EmailCandidate
	SemanticScore float64
	StyleScore    float64
	CombinedScore float64
	TemporalScore float64 // Ordering key: CombinedScore discounted by age
}

// SearchStats summarizes a single search invocation.
type SearchStats struct {
	CandidatesConsidered int
	Matches              int
	CacheHit             bool
	MeanSemanticScore    float64
	MeanStyleScore       float64
	MeanCombinedScore    float64
	Took                 time.Duration
}

// SearchResult bundles ranked matches with their stats.
type SearchResult struct {
	Matches []ScoredMatch
	Stats   SearchStats
}

// SelectionStats summarizes a two-phase example selection.
type SelectionStats struct {
	TotalCandidates     int
	RelationshipMatches int
	DirectMatches       int
	MeanSemanticScore   float64
	MeanStyleScore      float64
	MeanCombinedScore   float64
	MeanAgeDays         float64
}

// SelectionResult is the statistics-annotated example set handed to draft
// generation.
type SelectionResult struct {
	Relationship Relationship
	Examples     []ScoredMatch
	Stats        SelectionStats
}

package core

import (
	"testing"
	"time"
)

func TestCandidateIDFromContent(t *testing.T) {
	sentAt := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name     string
		contents string
	}{
		{
			name:     "same content produces same id",
			contents: "Thanks for the update, let's sync on Thursday.",
		},
		{
			name:     "empty string",
			contents: "",
		},
		{
			name:     "long content",
			contents: "This is a much longer email body that should still hash consistently no matter how many times we compute it.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := CandidateIDFromContent("user-1", "ana@example.com", sentAt, tt.contents)
			id2 := CandidateIDFromContent("user-1", "ana@example.com", sentAt, tt.contents)

			if id1 != id2 {
				t.Errorf("CandidateIDFromContent() produced different ids for same content: %s vs %s", id1, id2)
			}
		})
	}
}

func TestCandidateIDFromContent_Different(t *testing.T) {
	sentAt := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	id1 := CandidateIDFromContent("user-1", "ana@example.com", sentAt, "first body")
	id2 := CandidateIDFromContent("user-1", "ana@example.com", sentAt, "second body")
	if id1 == id2 {
		t.Errorf("CandidateIDFromContent() produced same id for different contents")
	}

	id3 := CandidateIDFromContent("user-2", "ana@example.com", sentAt, "first body")
	if id1 == id3 {
		t.Errorf("CandidateIDFromContent() produced same id for different users")
	}
}

func TestCandidateIDFromContent_RecipientCase(t *testing.T) {
	sentAt := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	id1 := CandidateIDFromContent("user-1", "Ana@Example.com", sentAt, "body")
	id2 := CandidateIDFromContent("user-1", "ana@example.com", sentAt, "body")
	if id1 != id2 {
		t.Errorf("CandidateIDFromContent() should be case-insensitive on the recipient address")
	}
}

func TestFingerprintIDs(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		same bool
	}{
		{
			name: "identical sets agree",
			a:    []string{"x", "y", "z"},
			b:    []string{"x", "y", "z"},
			same: true,
		},
		{
			name: "order does not matter",
			a:    []string{"z", "x", "y"},
			b:    []string{"x", "y", "z"},
			same: true,
		},
		{
			name: "different sets disagree",
			a:    []string{"x", "y"},
			b:    []string{"x", "y", "z"},
			same: false,
		},
		{
			name: "empty sets agree",
			a:    nil,
			b:    []string{},
			same: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fa := FingerprintIDs(tt.a)
			fb := FingerprintIDs(tt.b)
			if (fa == fb) != tt.same {
				t.Errorf("FingerprintIDs() got %s vs %s, want same=%v", fa, fb, tt.same)
			}
		})
	}
}

func TestFingerprintIDs_DoesNotMutateInput(t *testing.T) {
	ids := []string{"c", "a", "b"}
	FingerprintIDs(ids)
	if ids[0] != "c" || ids[1] != "a" || ids[2] != "b" {
		t.Errorf("FingerprintIDs() mutated its input: %v", ids)
	}
}

func TestParseRelationship(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Relationship
	}{
		{name: "exact label", input: "colleague", want: RelationshipColleague},
		{name: "mixed case", input: "Friend", want: RelationshipFriend},
		{name: "surrounding whitespace", input: "  client \n", want: RelationshipClient},
		{name: "unrecognized", input: "archnemesis", want: RelationshipUnknown},
		{name: "empty", input: "", want: RelationshipUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseRelationship(tt.input); got != tt.want {
				t.Errorf("ParseRelationship(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSearchFilter_Key(t *testing.T) {
	since := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	f1 := SearchFilter{Relationship: RelationshipClient, RecipientEmail: "Ana@Example.com", Since: since, ExcludeIds: []string{"b", "a"}}
	f2 := SearchFilter{Relationship: RelationshipClient, RecipientEmail: "ana@example.com", Since: since, ExcludeIds: []string{"a", "b"}}
	if f1.Key() != f2.Key() {
		t.Errorf("SearchFilter.Key() should be insensitive to recipient case and exclude order: %s vs %s", f1.Key(), f2.Key())
	}

	f3 := SearchFilter{Relationship: RelationshipFriend}
	if f1.Key() == f3.Key() {
		t.Errorf("SearchFilter.Key() should differ for different filters")
	}
}

func TestSearchFilter_Matches(t *testing.T) {
	sentAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candidate := &EmailCandidate{
		Id:             "c1",
		UserId:         "user-1",
		Kind:           CandidateKindSent,
		Contents:       "hello",
		RecipientEmail: "ana@example.com",
		Relationship:   RelationshipColleague,
		SentAt:         sentAt,
	}

	tests := []struct {
		name   string
		filter SearchFilter
		want   bool
	}{
		{name: "empty filter matches", filter: SearchFilter{}, want: true},
		{name: "matching relationship", filter: SearchFilter{Relationship: RelationshipColleague}, want: true},
		{name: "wrong relationship", filter: SearchFilter{Relationship: RelationshipFamily}, want: false},
		{name: "recipient case-insensitive", filter: SearchFilter{RecipientEmail: "ANA@example.com"}, want: true},
		{name: "wrong recipient", filter: SearchFilter{RecipientEmail: "bo@example.com"}, want: false},
		{name: "matching kind", filter: SearchFilter{Kind: CandidateKindSent}, want: true},
		{name: "wrong kind", filter: SearchFilter{Kind: CandidateKindReceived}, want: false},
		{name: "inside date range", filter: SearchFilter{Since: sentAt.Add(-time.Hour), Until: sentAt.Add(time.Hour)}, want: true},
		{name: "before since", filter: SearchFilter{Since: sentAt.Add(time.Hour)}, want: false},
		{name: "after until", filter: SearchFilter{Until: sentAt.Add(-time.Hour)}, want: false},
		{name: "excluded id", filter: SearchFilter{ExcludeIds: []string{"c1"}}, want: false},
		{name: "other excluded id", filter: SearchFilter{ExcludeIds: []string{"c2"}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(candidate); got != tt.want {
				t.Errorf("SearchFilter.Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

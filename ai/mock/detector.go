package mock

import (
	"context"
	"strings"

	"github.com/poiesic/exemplar/core"
)

// MockRelationshipDetector is a test double for ai.RelationshipDetector.
// It allows custom behavior injection via function fields.
type MockRelationshipDetector struct {
	// DetectFunc is called by DetectRelationship if set.
	// If nil, uses default domain-based classification.
	DetectFunc func(ctx context.Context, userId, recipientEmail string) (core.Relationship, error)

	callCount int
}

// NewMockRelationshipDetector creates a mock detector with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockDetector().
func NewMockRelationshipDetector() *MockRelationshipDetector {
	return &MockRelationshipDetector{}
}

// DetectRelationship classifies recipients with a cheap domain heuristic.
// Default behavior: free-mail domains are friends, everything else with a
// domain is a colleague, addresses without a domain are unknown.
func (m *MockRelationshipDetector) DetectRelationship(ctx context.Context, userId, recipientEmail string) (core.Relationship, error) {
	m.callCount++

	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, userId, recipientEmail)
	}

	_, domain, found := strings.Cut(strings.ToLower(recipientEmail), "@")
	if !found || domain == "" {
		return core.RelationshipUnknown, nil
	}

	switch domain {
	case "gmail.com", "outlook.com", "yahoo.com":
		return core.RelationshipFriend, nil
	default:
		return core.RelationshipColleague, nil
	}
}

// CallCount returns the number of times DetectRelationship was called.
func (m *MockRelationshipDetector) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockRelationshipDetector) Reset() {
	m.callCount = 0
	m.DetectFunc = nil
}

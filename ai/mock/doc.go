// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.RelationshipDetector, and ai.AIProvider for use in unit tests. The mocks
// allow tests to run without external AI service dependencies and enable
// controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockDetector := mock.NewMockRelationshipDetector()
//	mockDetector.DetectFunc = func(ctx context.Context, userId, recipientEmail string) (core.Relationship, error) {
//	    return core.RelationshipClient, nil
//	}
//
//	// Check call counts
//	count := mockDetector.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockRelationshipDetector: Classifies by recipient domain (free-mail
//     domains are friends, other domains colleagues)
//   - MockProvider: Aggregates mock embedder and detector
package mock

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
)

// relationshipResolver labels recipients, remembering prior answers so each
// recipient is classified at most once per pipeline lifetime. Failed
// detections resolve to unknown and are not remembered, so a transient
// detector outage does not stick.
type relationshipResolver struct {
	detector ai.RelationshipDetector
	logger   *slog.Logger

	mu    sync.Mutex
	known map[string]core.Relationship
}

// newRelationshipResolver creates a new resolver.
func newRelationshipResolver(detector ai.RelationshipDetector, logger *slog.Logger) (*relationshipResolver, error) {
	if detector == nil {
		return nil, fmt.Errorf("relationship detector required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &relationshipResolver{
		detector: detector,
		logger:   logger.With("processor", "relationships"),
		known:    make(map[string]core.Relationship),
	}, nil
}

func (r *relationshipResolver) resolve(ctx context.Context, userID, recipientEmail string) core.Relationship {
	key := userID + "\x00" + strings.ToLower(strings.TrimSpace(recipientEmail))

	r.mu.Lock()
	if relationship, ok := r.known[key]; ok {
		r.mu.Unlock()
		return relationship
	}
	r.mu.Unlock()

	relationship, err := r.detector.DetectRelationship(ctx, userID, recipientEmail)
	if err != nil {
		r.logger.Warn("relationship detection failed, labeling unknown",
			"recipient", recipientEmail, "err", err)
		return core.RelationshipUnknown
	}

	r.mu.Lock()
	r.known[key] = relationship
	r.mu.Unlock()

	return relationship
}

package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/search"
)

// Engine is the slice of the retrieval engine the selector uses.
type Engine interface {
	Search(ctx context.Context, userID, query string, filter core.SearchFilter, opts search.SearchOptions) (*core.SearchResult, error)
}

// Config holds tuning parameters for example selection.
type Config struct {
	// DesiredCount is the number of examples returned when a request does
	// not specify one. Default: 5
	DesiredCount int

	// DirectMaxFraction caps the share of examples taken from prior mail
	// to the same recipient, leaving the rest for the relationship
	// category. Default: 0.4
	DirectMaxFraction float64
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		DesiredCount:      5,
		DirectMaxFraction: 0.4,
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DesiredCount <= 0 {
		return fmt.Errorf("desired count must be positive, got %d", c.DesiredCount)
	}
	if c.DirectMaxFraction < 0 || c.DirectMaxFraction > 1 {
		return fmt.Errorf("direct max fraction must be within [0, 1], got %v", c.DirectMaxFraction)
	}
	return nil
}

// Selector picks writing examples for a drafted reply in two phases:
// prior mail to the same recipient first, then mail to the same
// relationship category.
type Selector struct {
	engine   Engine
	detector ai.RelationshipDetector
	config   *Config
	logger   *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSelector creates an example selector. A nil config uses defaults.
func NewSelector(engine Engine, detector ai.RelationshipDetector, config *Config, opts ...Option) (*Selector, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if detector == nil {
		return nil, ErrDetectorRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector config: %w", err)
	}

	s := &Selector{
		engine:   engine,
		detector: detector,
		config:   config,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Request describes one example selection.
type Request struct {
	// UserID scopes retrieval to one user's mail.
	UserID string

	// MessageText is the incoming message being replied to.
	MessageText string

	// RecipientEmail is the address the reply goes to.
	RecipientEmail string

	// DesiredCount overrides the configured example count when positive.
	DesiredCount int
}

func (r Request) validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.MessageText) == "" {
		return fmt.Errorf("%w: message text required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.RecipientEmail) == "" {
		return fmt.Errorf("%w: recipient email required", ErrInvalidRequest)
	}
	return nil
}

// SelectExamples assembles up to the desired number of sent-mail examples
// for drafting a reply. Phase one pulls prior mail to the recipient, capped
// by DirectMaxFraction; phase two fills the remainder from the recipient's
// relationship category. A failed search leaves its phase empty; a failed
// relationship detection fails the call, since the category anchors both
// the second phase and the result.
func (s *Selector) SelectExamples(ctx context.Context, req Request) (*core.SelectionResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	desired := req.DesiredCount
	if desired <= 0 {
		desired = s.config.DesiredCount
	}
	maxDirect := int(float64(desired) * s.config.DirectMaxFraction)

	relationship, err := s.detector.DetectRelationship(ctx, req.UserID, req.RecipientEmail)
	if err != nil {
		return nil, fmt.Errorf("detecting relationship for %s: %w", req.RecipientEmail, err)
	}

	var stats core.SelectionStats

	// Phase one: prior mail to this recipient
	var direct []core.ScoredMatch
	if maxDirect > 0 {
		filter := core.SearchFilter{
			RecipientEmail: req.RecipientEmail,
			Kind:           core.CandidateKindSent,
		}
		result, err := s.engine.Search(ctx, req.UserID, req.MessageText, filter, search.SearchOptions{Limit: maxDirect})
		if err != nil {
			s.logger.Warn("direct correspondence search failed", "recipient", req.RecipientEmail, "err", err)
		} else {
			direct = result.Matches
			stats.TotalCandidates += result.Stats.CandidatesConsidered
		}
	}

	// Phase two: mail to the same relationship category
	var related []core.ScoredMatch
	if remaining := desired - len(direct); remaining > 0 {
		exclude := make([]string, len(direct))
		for i, match := range direct {
			exclude[i] = match.Candidate.Id
		}
		filter := core.SearchFilter{
			Relationship: relationship,
			Kind:         core.CandidateKindSent,
			ExcludeIds:   exclude,
		}
		result, err := s.engine.Search(ctx, req.UserID, req.MessageText, filter, search.SearchOptions{Limit: remaining})
		if err != nil {
			s.logger.Warn("relationship category search failed", "relationship", relationship, "err", err)
		} else {
			related = result.Matches
			stats.TotalCandidates += result.Stats.CandidatesConsidered
		}
	}

	examples := make([]core.ScoredMatch, 0, len(direct)+len(related))
	examples = append(examples, direct...)
	examples = append(examples, related...)
	if len(examples) > desired {
		examples = examples[:desired]
	}

	stats.DirectMatches = len(direct)
	for _, example := range examples {
		if example.Candidate.Relationship == relationship {
			stats.RelationshipMatches++
		}
	}
	fillMeanScores(&stats, examples)

	s.logger.Debug("selected examples",
		"user", req.UserID,
		"relationship", relationship,
		"direct", len(direct),
		"related", len(related),
		"returned", len(examples))

	return &core.SelectionResult{
		Relationship: relationship,
		Examples:     examples,
		Stats:        stats,
	}, nil
}

func fillMeanScores(stats *core.SelectionStats, examples []core.ScoredMatch) {
	if len(examples) == 0 {
		return
	}
	now := time.Now()
	var semantic, style, combined, ageDays float64
	for _, example := range examples {
		semantic += example.SemanticScore
		style += example.StyleScore
		combined += example.CombinedScore
		ageDays += now.Sub(example.Candidate.SentAt).Hours() / 24
	}
	n := float64(len(examples))
	stats.MeanSemanticScore = semantic / n
	stats.MeanStyleScore = style / n
	stats.MeanCombinedScore = combined / n
	stats.MeanAgeDays = ageDays / n
}

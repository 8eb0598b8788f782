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


package search

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	quarterAge  = 90 * 24 * time.Hour
	halfYearAge = 180 * 24 * time.Hour
	fullYearAge = 365 * 24 * time.Hour
)

// TemporalDecay holds the age-bucket multipliers applied to combined scores
// when ordering results. Weights must be positive and non-increasing from
// newest to oldest bucket.
type TemporalDecay struct {
	// Quarter applies to candidates sent within the last 3 months.
	Quarter float64

	// HalfYear applies to candidates between 3 and 6 months old.
	HalfYear float64

	// Year applies to candidates between 6 and 12 months old.
	Year float64

	// Older applies to candidates more than a year old.
	Older float64
}

// WeightFor returns the decay multiplier for a candidate of the given age.
// Negative ages (clock skew, future-dated mail) fall in the newest bucket.
func (d TemporalDecay) WeightFor(age time.Duration) float64 {
	switch {
	case age <= quarterAge:
		return d.Quarter
	case age <= halfYearAge:
		return d.HalfYear
	case age <= fullYearAge:
		return d.Year
	default:
		return d.Older
	}
}

func (d TemporalDecay) validate() error {
	weights := []float64{d.Quarter, d.HalfYear, d.Year, d.Older}
	prev := math.Inf(1)
	for _, w := range weights {
		if w <= 0 {
			return fmt.Errorf("decay weights must be positive, got %v", w)
		}
		if w > prev {
			return errors.New("decay weights must not increase with age")
		}
		prev = w
	}
	return nil
}

// Config holds tuning parameters for the retrieval engine.
type Config struct {
	// SemanticDimensions is the expected width of semantic vectors. Default: 384
	SemanticDimensions int

	// StyleDimensions is the expected width of style vectors. Default: 768
	StyleDimensions int

	// DefaultLimit is the number of matches returned when a query does not
	// specify one. Default: 10
	DefaultLimit int

	// ScoreThreshold is the minimum combined score a match must reach.
	// Default: 0.35
	ScoreThreshold float64

	// SemanticWeight and StyleWeight blend the two similarity spaces into
	// the combined score. They must sum to 1. Defaults: 0.65 and 0.35
	SemanticWeight float64
	StyleWeight    float64

	// CandidateFloor is the minimum number of candidates fetched per query
	// regardless of the requested limit. Default: 50
	CandidateFloor int

	// CandidateMultiplier scales the requested limit to the candidate fetch
	// bound: fetch = max(CandidateFloor, limit*CandidateMultiplier). Default: 3
	CandidateMultiplier int

	// CacheTTL bounds how long a per-query index is reused before it is
	// rebuilt from storage. Default: 5 minutes
	CacheTTL time.Duration

	// Decay holds the temporal ordering multipliers.
	Decay TemporalDecay

	// IndexWorkers is the size of the worker pool used for batch indexing.
	// Default: 4
	IndexWorkers int
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		SemanticDimensions:  384,
		StyleDimensions:     768,
		DefaultLimit:        10,
		ScoreThreshold:      0.35,
		SemanticWeight:      0.65,
		StyleWeight:         0.35,
		CandidateFloor:      50,
		CandidateMultiplier: 3,
		CacheTTL:            5 * time.Minute,
		Decay: TemporalDecay{
			Quarter:  1.0,
			HalfYear: 0.9,
			Year:     0.75,
			Older:    0.6,
		},
		IndexWorkers: 4,
	}
}

// NewConfig creates a Config with the given options applied over defaults.
func NewConfig(opts ...ConfigOption) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDefaultLimit sets the default number of matches returned per query.
func WithDefaultLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.DefaultLimit = limit
	}
}

// WithScoreThreshold sets the minimum combined score for a match.
func WithScoreThreshold(threshold float64) ConfigOption {
	return func(c *Config) {
		c.ScoreThreshold = threshold
	}
}

// WithWeights sets the semantic and style blend weights.
func WithWeights(semantic, style float64) ConfigOption {
	return func(c *Config) {
		c.SemanticWeight = semantic
		c.StyleWeight = style
	}
}

// WithCacheTTL sets how long per-query indexes are reused.
func WithCacheTTL(ttl time.Duration) ConfigOption {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithDecay sets the temporal ordering multipliers.
func WithDecay(decay TemporalDecay) ConfigOption {
	return func(c *Config) {
		c.Decay = decay
	}
}

// WithIndexWorkers sets the batch indexing pool size.
func WithIndexWorkers(workers int) ConfigOption {
	return func(c *Config) {
		c.IndexWorkers = workers
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.SemanticDimensions <= 0 {
		return fmt.Errorf("semantic dimensions must be positive, got %d", c.SemanticDimensions)
	}
	if c.StyleDimensions <= 0 {
		return fmt.Errorf("style dimensions must be positive, got %d", c.StyleDimensions)
	}
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.SemanticWeight < 0 || c.StyleWeight < 0 {
		return errors.New("blend weights must not be negative")
	}
	if sum := c.SemanticWeight + c.StyleWeight; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("blend weights must sum to 1, got %v", sum)
	}
	if c.CandidateFloor <= 0 {
		return fmt.Errorf("candidate floor must be positive, got %d", c.CandidateFloor)
	}
	if c.CandidateMultiplier <= 0 {
		return fmt.Errorf("candidate multiplier must be positive, got %d", c.CandidateMultiplier)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %v", c.CacheTTL)
	}
	if err := c.Decay.validate(); err != nil {
		return err
	}
	if c.IndexWorkers <= 0 {
		return fmt.Errorf("index workers must be positive, got %d", c.IndexWorkers)
	}
	return nil
}

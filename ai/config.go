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


package ai

import (
	"errors"
	"strings"

	"github.com/poiesic/exemplar/core"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// DetectorHost is the base URL for the relationship classification service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	DetectorHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// DetectorModel is the model identifier to use for relationship detection.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	DetectorModel string

	// EmbeddingDimensions is the expected width of embedding vectors.
	// Must be 384 or 768. Default: 384
	EmbeddingDimensions int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithDetectorHost sets the relationship detector service host URL.
func WithDetectorHost(host string) ConfigOption {
	return func(c *Config) {
		c.DetectorHost = host
	}
}

// WithHost sets both embedding and detector hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.DetectorHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithDetectorModel sets the detector model identifier.
func WithDetectorModel(model string) ConfigOption {
	return func(c *Config) {
		c.DetectorModel = model
	}
}

// WithEmbeddingDimensions sets the expected embedding vector width.
func WithEmbeddingDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dim
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and detector use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:       defaultHost,
		DetectorHost:        defaultHost,
		EmbeddingModel:      "all-minilm",
		DetectorModel:       "qwen2.5:3b",
		EmbeddingDimensions: core.SemanticVectorDim,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//   )
//
// Example with different hosts:
//   cfg := NewConfig(
//       WithEmbeddingHost("http://localhost:11434/v1"),
//       WithDetectorHost("http://localhost:9100/v1"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	// Ensure EmbeddingHost ends with /v1 for OpenAI-compatible APIs
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	// Ensure DetectorHost ends with /v1 for OpenAI-compatible APIs
	if c.DetectorHost != "" && !strings.HasSuffix(c.DetectorHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.DetectorHost = strings.TrimSuffix(c.DetectorHost, "/")
		c.DetectorHost = c.DetectorHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.DetectorHost == "" {
		return errors.New("ai config: DetectorHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.DetectorModel == "" {
		return errors.New("ai config: DetectorModel is required")
	}
	if c.EmbeddingDimensions != core.SemanticVectorDim && c.EmbeddingDimensions != core.StyleVectorDim {
		return errors.New("ai config: EmbeddingDimensions must be 384 or 768")
	}
	return nil
}

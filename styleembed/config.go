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


package styleembed

import (
	"errors"

	"github.com/poiesic/exemplar/core"
)

// Config holds the model artifact paths and inference shape for the style
// embedding service.
type Config struct {
	// ModelPath is the ONNX graph file.
	ModelPath string

	// VocabPath is the tokenizer vocab.json file.
	VocabPath string

	// MergesPath is the tokenizer merges.txt file.
	MergesPath string

	// LibraryPath optionally points at the ONNX Runtime shared library.
	// Empty means the platform default resolution.
	LibraryPath string

	// SequenceLength is the fixed token window fed to the model.
	SequenceLength int

	// Dimensions is the expected width of produced vectors.
	Dimensions int
}

// ConfigOption is a function that modifies a Config.
type ConfigOption func(*Config)

// WithModelPath sets the ONNX graph file path.
func WithModelPath(path string) ConfigOption {
	return func(c *Config) {
		c.ModelPath = path
	}
}

// WithVocabPath sets the tokenizer vocabulary file path.
func WithVocabPath(path string) ConfigOption {
	return func(c *Config) {
		c.VocabPath = path
	}
}

// WithMergesPath sets the tokenizer merges file path.
func WithMergesPath(path string) ConfigOption {
	return func(c *Config) {
		c.MergesPath = path
	}
}

// WithLibraryPath sets the ONNX Runtime shared library path.
func WithLibraryPath(path string) ConfigOption {
	return func(c *Config) {
		c.LibraryPath = path
	}
}

// WithSequenceLength sets the fixed token window.
func WithSequenceLength(n int) ConfigOption {
	return func(c *Config) {
		c.SequenceLength = n
	}
}

// WithDimensions sets the expected embedding width.
func WithDimensions(n int) ConfigOption {
	return func(c *Config) {
		c.Dimensions = n
	}
}

// DefaultConfig returns a configuration with default inference shape.
// The artifact paths have no defaults and must be provided.
func DefaultConfig() *Config {
	return &Config{
		SequenceLength: 128,
		Dimensions:     core.StyleVectorDim,
	}
}

// NewConfig creates a configuration with the given options applied over
// defaults.
func NewConfig(opts ...ConfigOption) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Validate checks that the configuration is complete.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("styleembed config: ModelPath is required")
	}
	if c.VocabPath == "" {
		return errors.New("styleembed config: VocabPath is required")
	}
	if c.MergesPath == "" {
		return errors.New("styleembed config: MergesPath is required")
	}
	if c.SequenceLength < 2 {
		return errors.New("styleembed config: SequenceLength must be at least 2")
	}
	if c.Dimensions <= 0 {
		return errors.New("styleembed config: Dimensions must be positive")
	}
	return nil
}

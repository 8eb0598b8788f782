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


package exemplar

import (
	"io"
	"log/slog"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/ai/openai"
	"github.com/poiesic/exemplar/ingestion"
	"github.com/poiesic/exemplar/reembed"
	"github.com/poiesic/exemplar/search"
	"github.com/poiesic/exemplar/selector"
	"github.com/poiesic/exemplar/storage"
	"github.com/poiesic/exemplar/storage/badger"
	"github.com/poiesic/exemplar/styleembed"
)

// System is an assembled retrieval stack: storage, AI services, the
// search engine, and the example selector, sharing one database.
type System struct {
	backend  *badger.Backend
	store    storage.CandidateStore
	provider ai.AIProvider
	style    *styleembed.Service
	engine   *search.Engine
	selector *selector.Selector
	logger   *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig       *ai.Config
	styleConfig    *styleembed.Config
	searchConfig   *search.Config
	selectorConfig *selector.Config
}

// WithAIConfig sets the embedding and relationship detection configuration.
func WithAIConfig(config *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = config
	}
}

// WithStyleConfig enables the local style embedding service. Without one
// the engine scores semantic-only.
func WithStyleConfig(config *styleembed.Config) SystemOption {
	return func(o *systemOptions) {
		o.styleConfig = config
	}
}

// WithSearchConfig sets the retrieval engine configuration.
func WithSearchConfig(config *search.Config) SystemOption {
	return func(o *systemOptions) {
		o.searchConfig = config
	}
}

// WithSelectorConfig sets the example selector configuration.
func WithSelectorConfig(config *selector.Config) SystemOption {
	return func(o *systemOptions) {
		o.selectorConfig = config
	}
}

// Open assembles a System on the database at filePath, creating it when
// absent.
func Open(filePath string, opts ...SystemOption) (*System, error) {
	// Apply options
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create candidate store
	store := badger.NewCandidateStore(backend)

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		store.Close()
		backend.Close()
		return nil, err
	}

	// Style service is optional; nothing loads until the first embedding
	var style *styleembed.Service
	var styleEmbedder search.StyleEmbedder
	if options.styleConfig != nil {
		style, err = styleembed.NewService(options.styleConfig)
		if err != nil {
			provider.Close()
			store.Close()
			backend.Close()
			return nil, err
		}
		styleEmbedder = style
	}

	// Create retrieval engine
	engine, err := search.NewEngine(store, provider.Embedder(), styleEmbedder, options.searchConfig)
	if err != nil {
		if style != nil {
			style.Close()
		}
		provider.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	// Create example selector
	sel, err := selector.NewSelector(engine, provider.RelationshipDetector(), options.selectorConfig)
	if err != nil {
		engine.Release()
		if style != nil {
			style.Close()
		}
		provider.Close()
		store.Close()
		backend.Close()
		return nil, err
	}

	return &System{
		backend:  backend,
		store:    store,
		provider: provider,
		style:    style,
		engine:   engine,
		selector: sel,
		logger:   slog.Default(),
	}, nil
}

// Close releases system resources in reverse assembly order.
func (s *System) Close() error {
	s.engine.Release()

	if s.style != nil {
		if err := s.style.Close(); err != nil {
			s.logger.Error("error closing style service", "err", err)
		}
	}

	// Close AI provider
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	// Close store and backend
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing candidate store", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// CandidateStore returns the candidate store.
func (s *System) CandidateStore() storage.CandidateStore {
	return s.store
}

// Engine returns the retrieval engine.
func (s *System) Engine() *search.Engine {
	return s.engine
}

// Selector returns the example selector.
func (s *System) Selector() *selector.Selector {
	return s.selector
}

// NewIngestionPipeline creates a pipeline that writes into this system's
// store and indexes through its engine.
func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(s.store, s.provider, s.engine, opts...)
}

// NewReembedder creates a maintenance reembedder over this system's store.
// Progress output goes to progress (typically os.Stderr).
func (s *System) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	var style reembed.StyleEmbedder
	if s.style != nil {
		style = s.style
	}
	return reembed.NewReembedder(s.store, s.provider.Embedder(), style, config, progress)
}

package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/exemplar/ai"
	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/storage"
	"github.com/poiesic/exemplar/styleembed"
)

const defaultBatchSize = 16

// StyleEmbedder produces style vectors for query and document text. The
// production implementation is styleembed.Service. A nil StyleEmbedder puts
// the engine in permanent semantic-only operation.
type StyleEmbedder interface {
	EmbedText(ctx context.Context, text string) (*styleembed.Embedding, error)
}

// Engine answers similarity queries over a user's stored email candidates,
// scoring in two vector spaces and ordering with temporal decay.
type Engine struct {
	store    storage.CandidateStore
	semantic ai.Embedder
	style    StyleEmbedder
	config   *Config
	cache    *indexCache
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a retrieval engine. The style embedder may be nil, in
// which case every query scores semantic-only. A nil config uses defaults.
func NewEngine(
	store storage.CandidateStore,
	semantic ai.Embedder,
	style StyleEmbedder,
	config *Config,
	opts ...Option,
) (*Engine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if semantic == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}

	e := &Engine{
		store:    store,
		semantic: semantic,
		style:    style,
		config:   config,
		cache:    newIndexCache(config.CacheTTL),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(config.IndexWorkers)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexing pool: %w", err)
	}
	e.pool = pool

	return e, nil
}

// Release frees the engine's worker pool. The engine must not be used after.
func (e *Engine) Release() {
	e.pool.Release()
}

// SearchOptions adjusts a single query. Zero values fall back to the
// engine's configured defaults; a negative ScoreThreshold disables
// threshold filtering entirely.
type SearchOptions struct {
	Limit          int
	ScoreThreshold float64
}

// Search finds the user's stored candidates most similar to the query text.
// Results are ranked by temporally discounted combined score, best first.
func (e *Engine) Search(ctx context.Context, userID, query string, filter core.SearchFilter, opts SearchOptions) (*core.SearchResult, error) {
	return e.SearchWithMonitor(ctx, userID, query, filter, opts, nil)
}

// SearchWithMonitor is Search with callbacks at each stage of the retrieval
// process. A nil monitor is allowed.
func (e *Engine) SearchWithMonitor(ctx context.Context, userID, query string, filter core.SearchFilter, opts SearchOptions, monitor SearchMonitor) (*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", ErrQueryFailed)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = e.config.DefaultLimit
	}
	threshold := opts.ScoreThreshold
	if threshold == 0 {
		threshold = e.config.ScoreThreshold
	} else if threshold < 0 {
		threshold = math.Inf(-1)
	}

	monitor.Start(query)
	start := time.Now()

	// 1. Embed the query in both vector spaces
	embedStart := time.Now()
	raw, err := e.semantic.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating query embedding", "err", err)
		return nil, fmt.Errorf("%w: embedding query: %w", ErrQueryFailed, err)
	}
	if len(raw) != e.config.SemanticDimensions {
		return nil, fmt.Errorf("%w: query semantic vector has %d dimensions, expected %d",
			core.ErrInvalidVector, len(raw), e.config.SemanticDimensions)
	}
	querySemantic := core.NormalizeVector(raw)
	monitor.QueryEmbedded(time.Since(embedStart))

	queryStyle := e.styleQueryVector(ctx, query, monitor)

	// 2. Fetch the candidate pool
	fetchBound := e.config.CandidateFloor
	if n := limit * e.config.CandidateMultiplier; n > fetchBound {
		fetchBound = n
	}
	candidates, err := e.store.FetchCandidates(ctx, userID, &filter, fetchBound)
	if err != nil {
		e.logger.Error("error fetching candidates", "user", userID, "err", err)
		return nil, fmt.Errorf("%w: fetching candidates: %w", ErrQueryFailed, err)
	}
	monitor.CandidatesFetched(len(candidates))

	if len(candidates) == 0 {
		monitor.Finish(0, 0)
		return &core.SearchResult{
			Matches: []core.ScoredMatch{},
			Stats:   core.SearchStats{Took: time.Since(start)},
		}, nil
	}

	// 3. Reuse or rebuild the per-query index
	ids := make([]string, len(candidates))
	for i, candidate := range candidates {
		ids[i] = candidate.Id
	}
	fingerprint := core.FingerprintIDs(ids)
	key := userID + "|" + filter.Key()

	now := time.Now()
	index, missReason := e.cache.lookup(key, fingerprint, now)
	cacheHit := index != nil
	if cacheHit {
		monitor.CacheHit(key)
	} else {
		index = buildIndex(fingerprint, candidates)
		e.cache.store(key, index, now)
		monitor.CacheMiss(key, missReason)
		e.logger.Debug("rebuilt query index", "key", key, "reason", missReason, "entries", index.size())
	}

	// 4. Score, filter, and order
	matches := index.score(querySemantic, queryStyle, e.config.SemanticWeight, e.config.StyleWeight)

	kept := make([]core.ScoredMatch, 0, len(matches))
	for _, match := range matches {
		if match.CombinedScore >= threshold {
			kept = append(kept, match)
		}
	}

	for i := range kept {
		age := now.Sub(kept[i].Candidate.SentAt)
		kept[i].TemporalScore = kept[i].CombinedScore * e.config.Decay.WeightFor(age)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].TemporalScore > kept[j].TemporalScore
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}

	monitor.Finish(len(candidates), len(kept))

	return &core.SearchResult{
		Matches: kept,
		Stats:   searchStats(candidates, kept, cacheHit, time.Since(start)),
	}, nil
}

// styleQueryVector embeds the query in style space, returning nil whenever a
// usable vector cannot be produced. Callers treat nil as semantic-only.
func (e *Engine) styleQueryVector(ctx context.Context, query string, monitor SearchMonitor) []float32 {
	if e.style == nil {
		return nil
	}

	embedding, err := e.style.EmbedText(ctx, query)
	if err != nil {
		e.logger.Warn("style embedding unavailable, scoring semantic-only", "err", err)
		monitor.StyleDegraded(err.Error())
		return nil
	}
	vector := embedding.Vector
	if len(vector) != e.config.StyleDimensions {
		reason := fmt.Sprintf("style vector has %d dimensions, expected %d", len(vector), e.config.StyleDimensions)
		e.logger.Warn("style embedding unusable, scoring semantic-only", "reason", reason)
		monitor.StyleDegraded(reason)
		return nil
	}
	if core.IsZeroVector(vector) {
		e.logger.Warn("style embedding is a zero vector, scoring semantic-only")
		monitor.StyleDegraded("zero style vector")
		return nil
	}
	return core.NormalizeVector(vector)
}

func searchStats(candidates []*core.EmailCandidate, matches []core.ScoredMatch, cacheHit bool, took time.Duration) core.SearchStats {
	stats := core.SearchStats{
		CandidatesConsidered: len(candidates),
		Matches:              len(matches),
		CacheHit:             cacheHit,
		Took:                 took,
	}
	if len(matches) == 0 {
		return stats
	}
	var semantic, style, combined float64
	for _, match := range matches {
		semantic += match.SemanticScore
		style += match.StyleScore
		combined += match.CombinedScore
	}
	n := float64(len(matches))
	stats.MeanSemanticScore = semantic / n
	stats.MeanStyleScore = style / n
	stats.MeanCombinedScore = combined / n
	return stats
}

// Document is a unit of text to index for one stored candidate.
type Document struct {
	EmailID string
	Text    string
}

// IndexDocument computes and persists vectors for one candidate. A semantic
// embedding failure fails the call; a style embedding failure degrades to
// persisting the semantic vector alone.
func (e *Engine) IndexDocument(ctx context.Context, doc Document) error {
	if doc.EmailID == "" {
		return fmt.Errorf("%w: email id required", ErrIndexFailed)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("%w: document text required", ErrIndexFailed)
	}

	raw, err := e.semantic.EmbedText(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("%w: embedding document %s: %w", ErrIndexFailed, doc.EmailID, err)
	}
	if len(raw) != e.config.SemanticDimensions {
		return fmt.Errorf("%w: document semantic vector has %d dimensions, expected %d",
			core.ErrInvalidVector, len(raw), e.config.SemanticDimensions)
	}
	semantic := core.NormalizeVector(raw)

	var style []float32
	if e.style != nil {
		embedding, err := e.style.EmbedText(ctx, doc.Text)
		switch {
		case err != nil:
			e.logger.Warn("style embedding failed, indexing semantic-only", "email", doc.EmailID, "err", err)
		case len(embedding.Vector) != e.config.StyleDimensions:
			e.logger.Warn("style embedding unusable, indexing semantic-only",
				"email", doc.EmailID, "dimensions", len(embedding.Vector))
		default:
			style = embedding.Vector
		}
	}

	if err := e.store.PersistVectors(ctx, doc.EmailID, semantic, style); err != nil {
		return fmt.Errorf("%w: persisting vectors for %s: %w", ErrIndexFailed, doc.EmailID, err)
	}
	return nil
}

// DocumentError records a per-document failure inside a batch.
type DocumentError struct {
	EmailID string
	Err     error
}

func (e DocumentError) Error() string {
	return fmt.Sprintf("indexing %s: %v", e.EmailID, e.Err)
}

func (e DocumentError) Unwrap() error {
	return e.Err
}

// BatchResult holds batch indexing output. Failed documents are reported in
// Errors and do not abort the batch.
type BatchResult struct {
	Indexed int
	Failed  int
	Errors  []DocumentError
	Took    time.Duration
}

// BatchIndex indexes documents concurrently on the engine's worker pool,
// processing batchSize documents at a time. Per-document failures are
// isolated; cancellation is honored between batches. onProgress, when
// non-nil, is called after each batch with cumulative progress.
func (e *Engine) BatchIndex(ctx context.Context, docs []Document, batchSize int, onProgress func(done, total int)) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	start := time.Now()
	result := &BatchResult{}
	var mu sync.Mutex

	for offset := 0; offset < len(docs); offset += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := offset + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		var wg sync.WaitGroup
		for _, doc := range docs[offset:end] {
			wg.Add(1)
			submitErr := e.pool.Submit(func() {
				defer wg.Done()
				err := e.IndexDocument(ctx, doc)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, DocumentError{EmailID: doc.EmailID, Err: err})
					return
				}
				result.Indexed++
			})
			if submitErr != nil {
				wg.Done()
				mu.Lock()
				result.Failed++
				result.Errors = append(result.Errors, DocumentError{EmailID: doc.EmailID, Err: submitErr})
				mu.Unlock()
			}
		}
		wg.Wait()

		if onProgress != nil {
			onProgress(end, len(docs))
		}
	}

	result.Took = time.Since(start)
	return result, nil
}

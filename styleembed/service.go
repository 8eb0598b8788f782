package styleembed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/exemplar/core"
	"github.com/poiesic/exemplar/tokenizer"
)

// Session runs style model inference over one encoded sequence.
//
// Implementations are not required to be safe for concurrent use; the
// service serializes calls.
type Session interface {
	Run(inputIDs, attentionMask []int64) (*ModelOutput, error)
	Close() error
}

// ModelOutput is the raw result of one inference run. Graphs that pool
// internally fill SentenceEmbedding; otherwise TokenEmbeddings holds the
// per-token rows flattened row-major with TokenDim columns.
type ModelOutput struct {
	SentenceEmbedding []float32
	TokenEmbeddings   []float32
	TokenDim          int
}

// SessionLoader creates an inference session from a validated config.
type SessionLoader func(config *Config) (Session, error)

// Embedding is a single style vector with timing information.
type Embedding struct {
	Vector []float32
	Took   time.Duration
}

// ItemError records a per-item failure inside a batch.
type ItemError struct {
	Index int
	Err   error
}

// BatchResult holds batch output. Embeddings is index-aligned with the
// input texts; failed items are nil and reported in Errors.
type BatchResult struct {
	Embeddings [][]float32
	Errors     []ItemError
	Took       time.Duration
}

// Service produces style embeddings. Construction does no model I/O; the
// tokenizer and inference session load lazily on the first embedding call,
// exactly once. A failed initialization is sticky.
type Service struct {
	config *Config
	loader SessionLoader
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
	tok      *tokenizer.Tokenizer
	session  Session

	// mu serializes inference and guards closed.
	mu     sync.Mutex
	closed bool
}

// Option is a function that modifies a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithSessionLoader replaces the production ONNX session loader.
// Tests use this to inject a FakeSession.
func WithSessionLoader(loader SessionLoader) Option {
	return func(s *Service) {
		s.loader = loader
	}
}

// NewService creates a style embedding service. The config is validated
// but no model I/O happens until the first embedding call.
func NewService(config *Config, opts ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		config: config,
		loader: newOnnxSession,
		logger: slog.Default().With("component", "styleembed"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// init loads the tokenizer and inference session. Concurrent callers share
// the single in-flight load and its result.
func (s *Service) init() error {
	s.initOnce.Do(func() {
		start := time.Now()

		tok, err := tokenizer.New(s.config.VocabPath, s.config.MergesPath)
		if err != nil {
			s.initErr = fmt.Errorf("loading tokenizer: %w", err)
			return
		}

		session, err := s.loader(s.config)
		if err != nil {
			s.initErr = fmt.Errorf("loading style model: %w", err)
			return
		}

		s.tok = tok
		s.session = session
		s.logger.Info("style embedding service initialized",
			"model", s.config.ModelPath,
			"sequence_length", s.config.SequenceLength,
			"dimensions", s.config.Dimensions,
			"took", time.Since(start))
	})
	return s.initErr
}

// EmbedText generates a style vector for a single text.
func (s *Service) EmbedText(ctx context.Context, text string) (*Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.isClosed() {
		return nil, ErrClosed
	}
	if err := s.init(); err != nil {
		return nil, err
	}

	start := time.Now()
	vector, err := s.runInference(text)
	if err != nil {
		return nil, err
	}

	return &Embedding{
		Vector: vector,
		Took:   time.Since(start),
	}, nil
}

// EmbedBatch generates style vectors for texts in fixed-size sequential
// batches. Per-item failures do not abort the batch; onProgress, when
// non-nil, fires after every batch with (done, total).
func (s *Service) EmbedBatch(ctx context.Context, texts []string, batchSize int, onProgress func(done, total int)) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if s.isClosed() {
		return nil, ErrClosed
	}
	if err := s.init(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &BatchResult{
		Embeddings: make([][]float32, len(texts)),
	}

	total := len(texts)
	for from := 0; from < total; from += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		to := from + batchSize
		if to > total {
			to = total
		}

		for i := from; i < to; i++ {
			if strings.TrimSpace(texts[i]) == "" {
				result.Errors = append(result.Errors, ItemError{Index: i, Err: ErrEmptyText})
				continue
			}
			vector, err := s.runInference(texts[i])
			if err != nil {
				s.logger.Warn("batch item failed", "index", i, "err", err)
				result.Errors = append(result.Errors, ItemError{Index: i, Err: err})
				continue
			}
			result.Embeddings[i] = vector
		}

		if onProgress != nil {
			onProgress(to, total)
		}
	}

	result.Took = time.Since(start)
	return result, nil
}

func (s *Service) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// runInference tokenizes, runs the session, and post-processes one text.
func (s *Service) runInference(text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.session == nil {
		return nil, ErrNotInitialized
	}

	encoding, err := s.tok.Encode(text, s.config.SequenceLength)
	if err != nil {
		return nil, fmt.Errorf("encoding text: %w", err)
	}

	output, err := s.session.Run(encoding.IDs, encoding.AttentionMask)
	if err != nil {
		return nil, fmt.Errorf("style inference: %w", err)
	}

	vector, err := extractVector(output, encoding.AttentionMask)
	if err != nil {
		return nil, err
	}

	if len(vector) != s.config.Dimensions {
		return nil, fmt.Errorf("%w: style model produced %d dimensions, expected %d",
			core.ErrInvalidVector, len(vector), s.config.Dimensions)
	}
	return vector, nil
}

// extractVector picks the pooled output when the graph provides one,
// otherwise mean-pools token embeddings over the true sequence length and
// L2-normalizes the result.
func extractVector(output *ModelOutput, attentionMask []int64) ([]float32, error) {
	if len(output.SentenceEmbedding) > 0 {
		vector := make([]float32, len(output.SentenceEmbedding))
		copy(vector, output.SentenceEmbedding)
		return vector, nil
	}

	dim := output.TokenDim
	if dim <= 0 || len(output.TokenEmbeddings) == 0 || len(output.TokenEmbeddings)%dim != 0 {
		return nil, fmt.Errorf("%w: model output has no usable embedding", core.ErrInvalidVector)
	}

	rows := len(output.TokenEmbeddings) / dim
	sums := make([]float64, dim)
	var counted float64
	for row := 0; row < rows && row < len(attentionMask); row++ {
		if attentionMask[row] == 0 {
			continue
		}
		base := row * dim
		for j := 0; j < dim; j++ {
			sums[j] += float64(output.TokenEmbeddings[base+j])
		}
		counted++
	}
	if counted == 0 {
		return core.ZeroVector(dim), nil
	}

	vector := make([]float32, dim)
	for j := range sums {
		vector[j] = float32(sums[j] / counted)
	}
	return core.NormalizeVector(vector), nil
}

// Close releases the inference session. Further embedding calls return
// ErrClosed. Close is idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	if err != nil {
		return fmt.Errorf("closing style session: %w", err)
	}
	return nil
}

const defaultBatchSize = 16

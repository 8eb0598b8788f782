package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/exemplar/ai/mock"
	"github.com/poiesic/exemplar/core"
)

func TestNewReembedder(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("valid reembedder", func(t *testing.T) {
		r, err := NewReembedder(store, mock.NewMockEmbedder(), nil, nil, nil)
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.NotNil(t, r.config, "nil config should fall back to defaults")
	})

	t.Run("nil store", func(t *testing.T) {
		_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, nil, nil)
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewReembedder(store, nil, nil, nil, nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		config := DefaultConfig()
		config.BatchSize = 0
		_, err := NewReembedder(store, mock.NewMockEmbedder(), nil, config, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid reembed config")
	})
}

func TestReembedder_Run(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	added := seedCandidates(t, store, 10)

	// Run reembedding
	var buf bytes.Buffer
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder, err := NewReembedder(store, mock.NewMockEmbedder(), nil, config, &buf)
	require.NoError(t, err)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	// Verify all candidates have normalized embeddings
	for _, candidate := range added {
		updated, err := store.GetCandidate(ctx, candidate.Id)
		require.NoError(t, err)
		require.Len(t, updated.SemanticVector, core.SemanticVectorDim, "candidate %s should have embedding", candidate.Id)
		assert.InDelta(t, 1.0, core.VectorNorm(updated.SemanticVector), 0.01, "vector should be normalized")
	}

	// Check progress output
	output := buf.String()
	assert.Contains(t, output, "10/10", "should show completion")
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	var buf bytes.Buffer
	reembedder, err := NewReembedder(store, mock.NewMockEmbedder(), nil, DefaultConfig(), &buf)
	require.NoError(t, err)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "0 candidates", "should report zero candidates")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	seedCandidates(t, store, 10)

	// Cancel after processing a few batches
	callCount := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		callCount++
		if callCount == 2 {
			cancel()
		}
		result := make([][]float32, len(texts))
		for i, text := range texts {
			result[i] = mock.DeterministicVector(text, core.SemanticVectorDim)
		}
		return result, nil
	}

	var buf bytes.Buffer
	config := &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder, err := NewReembedder(store, embedder, nil, config, &buf)
	require.NoError(t, err)
	err = reembedder.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReembedder_EmbeddingError(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCandidates(t, store, 1)

	// Embedder that always fails
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("persistent error")
	}

	var buf bytes.Buffer
	config := &Config{
		BatchSize:      1,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder, err := NewReembedder(store, embedder, nil, config, &buf)
	require.NoError(t, err)
	err = reembedder.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, 100, config.BatchSize)
	assert.Equal(t, 100, config.ReportInterval)
	assert.Equal(t, 3, config.MaxRetries)
	assert.Equal(t, 1*time.Second, config.RetryDelay)
	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, "batch size must be positive"},
		{"negative batch size", func(c *Config) { c.BatchSize = -5 }, "batch size must be positive"},
		{"zero report interval", func(c *Config) { c.ReportInterval = 0 }, "report interval must be positive"},
		{"zero max retries", func(c *Config) { c.MaxRetries = 0 }, "max retries must be positive"},
		{"zero retry delay", func(c *Config) { c.RetryDelay = 0 }, "retry delay must be positive"},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -time.Second }, "retry delay must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReembedder_ProgressTracking(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCandidates(t, store, 25)

	var buf bytes.Buffer
	config := &Config{
		BatchSize:      5,
		ReportInterval: 10, // Report every 10 candidates
		MaxRetries:     3,
		RetryDelay:     10 * time.Millisecond,
	}

	reembedder, err := NewReembedder(store, mock.NewMockEmbedder(), nil, config, &buf)
	require.NoError(t, err)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	output := buf.String()
	// Should have progress output
	assert.Contains(t, output, "Progress:", "should show progress")
	assert.Contains(t, output, "25/25", "should show final count")
}

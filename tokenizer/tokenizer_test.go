package tokenizer

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixtureTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	vocabPath, mergesPath, err := WriteFixture(t.TempDir())
	require.NoError(t, err)

	tok, err := New(vocabPath, mergesPath)
	require.NoError(t, err)
	return tok
}

func TestNew(t *testing.T) {
	t.Run("loads fixture artifacts", func(t *testing.T) {
		tok := newFixtureTokenizer(t)
		assert.Equal(t, 23, tok.VocabSize())
		assert.Equal(t, 11, tok.MergeCount())
	})

	t.Run("missing vocabulary file", func(t *testing.T) {
		dir := t.TempDir()
		_, mergesPath, err := WriteFixture(dir)
		require.NoError(t, err)

		_, err = New(filepath.Join(dir, "nope.json"), mergesPath)
		assert.ErrorIs(t, err, ErrInvalidVocabulary)
	})

	t.Run("malformed vocabulary json", func(t *testing.T) {
		dir := t.TempDir()
		_, mergesPath, err := WriteFixture(dir)
		require.NoError(t, err)

		badVocab := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(badVocab, []byte("{not json"), 0o644))

		_, err = New(badVocab, mergesPath)
		assert.ErrorIs(t, err, ErrInvalidVocabulary)
	})

	t.Run("missing special token", func(t *testing.T) {
		dir := t.TempDir()
		_, mergesPath, err := WriteFixture(dir)
		require.NoError(t, err)

		noSpecials := filepath.Join(dir, "nospecials.json")
		require.NoError(t, os.WriteFile(noSpecials, []byte(`{"hello": 0}`), 0o644))

		_, err = New(noSpecials, mergesPath)
		assert.ErrorIs(t, err, ErrInvalidVocabulary)
		assert.Contains(t, err.Error(), "special token")
	})

	t.Run("missing merges file", func(t *testing.T) {
		dir := t.TempDir()
		vocabPath, _, err := WriteFixture(dir)
		require.NoError(t, err)

		_, err = New(vocabPath, filepath.Join(dir, "nope.txt"))
		assert.ErrorIs(t, err, ErrInvalidMerges)
	})

	t.Run("malformed merges line", func(t *testing.T) {
		dir := t.TempDir()
		vocabPath, _, err := WriteFixture(dir)
		require.NoError(t, err)

		badMerges := filepath.Join(dir, "bad.txt")
		require.NoError(t, os.WriteFile(badMerges, []byte("#version: 0.2\na b c\n"), 0o644))

		_, err = New(vocabPath, badMerges)
		assert.ErrorIs(t, err, ErrInvalidMerges)
	})
}

func TestEncode(t *testing.T) {
	tok := newFixtureTokenizer(t)

	t.Run("two known words in a window of six", func(t *testing.T) {
		enc, err := tok.Encode("hello world", 6)
		require.NoError(t, err)

		assert.Equal(t, []int64{0, 4, 5, 2, 1, 1}, enc.IDs)
		assert.Equal(t, []int64{1, 1, 1, 1, 0, 0}, enc.AttentionMask)
		assert.Equal(t, 4, enc.Length())
	})

	t.Run("boundary marker only after the first word", func(t *testing.T) {
		enc, err := tok.Encode("world hello", 6)
		require.NoError(t, err)

		// "world" unmarked, "hello" marked
		assert.Equal(t, []int64{0, 21, 22, 2, 1, 1}, enc.IDs)
	})

	t.Run("truncation preserves room for EOS", func(t *testing.T) {
		enc, err := tok.Encode("hello world hello world", 4)
		require.NoError(t, err)

		require.Len(t, enc.IDs, 4)
		assert.Equal(t, int64(0), enc.IDs[0])
		assert.Equal(t, int64(2), enc.IDs[3])
		assert.Equal(t, []int64{1, 1, 1, 1}, enc.AttentionMask)
	})

	t.Run("empty text", func(t *testing.T) {
		enc, err := tok.Encode("", 5)
		require.NoError(t, err)

		assert.Equal(t, []int64{0, 2, 1, 1, 1}, enc.IDs)
		assert.Equal(t, []int64{1, 1, 0, 0, 0}, enc.AttentionMask)
	})

	t.Run("whitespace collapses", func(t *testing.T) {
		a, err := tok.Encode("hello   world", 6)
		require.NoError(t, err)
		b, err := tok.Encode("hello\tworld\n", 6)
		require.NoError(t, err)

		assert.Equal(t, a.IDs, b.IDs)
	})

	t.Run("unknown symbols fall back to UNK", func(t *testing.T) {
		enc, err := tok.Encode("hello zap", 8)
		require.NoError(t, err)

		// "Ġzap" has no merges and only Ġ is in the vocabulary
		assert.Equal(t, []int64{0, 4, 10, 3, 3, 3, 2, 1}, enc.IDs)
	})

	t.Run("window too small", func(t *testing.T) {
		_, err := tok.Encode("hello", 1)
		assert.ErrorIs(t, err, ErrWindowTooSmall)
	})
}

func TestEncode_MergeOrder(t *testing.T) {
	tok := newFixtureTokenizer(t)

	// "llll" must merge leftmost-first into two "ll" symbols, never into
	// l + ll + l.
	enc, err := tok.Encode("llll", 6)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 14, 14, 2, 1, 1}, enc.IDs)
}

func TestEncode_Memoization(t *testing.T) {
	tok := newFixtureTokenizer(t)

	first, err := tok.Encode("hello world", 6)
	require.NoError(t, err)
	second, err := tok.Encode("hello world", 6)
	require.NoError(t, err)
	assert.Equal(t, first.IDs, second.IDs)

	tok.mu.RLock()
	cacheSize := len(tok.cache)
	tok.mu.RUnlock()
	assert.Equal(t, 2, cacheSize, "one cache entry per distinct marked word")
}

func TestEncode_Concurrent(t *testing.T) {
	tok := newFixtureTokenizer(t)

	want, err := tok.Encode("hello world hello", 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc, err := tok.Encode("hello world hello", 8)
			assert.NoError(t, err)
			assert.Equal(t, want.IDs, enc.IDs)
		}()
	}
	wg.Wait()
}

func TestDecode(t *testing.T) {
	tok := newFixtureTokenizer(t)

	t.Run("round trip drops specials and restores spaces", func(t *testing.T) {
		enc, err := tok.Encode("hello world", 8)
		require.NoError(t, err)

		assert.Equal(t, "hello world", tok.Decode(enc.IDs))
	})

	t.Run("unknown ids are skipped", func(t *testing.T) {
		assert.Equal(t, "hello", tok.Decode([]int64{0, 4, 9999, 2}))
	})

	t.Run("only specials decode to empty", func(t *testing.T) {
		assert.Equal(t, "", tok.Decode([]int64{0, 2, 1, 1, 3}))
	})
}

package tokenizer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"unicode/utf8"
)

// Special token strings resolved from the vocabulary at load time.
const (
	bosToken = "<s>"
	padToken = "<pad>"
	eosToken = "</s>"
	unkToken = "<unk>"
)

// WordBoundary is the marker prefixed to every word except the first,
// preserving word boundaries through the merge process.
const WordBoundary = "Ġ" // Ġ

type mergePair struct {
	left  string
	right string
}

// Tokenizer performs byte-pair encoding against a fixed vocabulary and
// ranked merge table. Word splits are memoized, so repeated words across
// calls tokenize at map-lookup cost.
type Tokenizer struct {
	vocab   map[string]int64
	inverse map[int64]string
	ranks   map[mergePair]int

	bosID int64
	padID int64
	eosID int64
	unkID int64

	mu    sync.RWMutex
	cache map[string][]string
}

// Encoding is the model-ready form of a text: token ids plus the matching
// attention mask. Mask positions are 1 for real tokens (including BOS and
// EOS) and 0 for padding.
type Encoding struct {
	IDs           []int64
	AttentionMask []int64
}

// Length returns the number of non-padding positions in the encoding.
func (e *Encoding) Length() int {
	n := 0
	for _, m := range e.AttentionMask {
		if m == 1 {
			n++
		}
	}
	return n
}

// New loads a tokenizer from a vocabulary file and a merges file.
// Parse failures and missing special tokens are fatal.
func New(vocabPath, mergesPath string) (*Tokenizer, error) {
	vocab, err := loadVocabulary(vocabPath)
	if err != nil {
		return nil, err
	}

	ranks, err := loadMerges(mergesPath)
	if err != nil {
		return nil, err
	}

	inverse := make(map[int64]string, len(vocab))
	for tok, id := range vocab {
		inverse[id] = tok
	}

	t := &Tokenizer{
		vocab:   vocab,
		inverse: inverse,
		ranks:   ranks,
		cache:   make(map[string][]string),
	}

	for _, special := range []struct {
		token string
		id    *int64
	}{
		{bosToken, &t.bosID},
		{padToken, &t.padID},
		{eosToken, &t.eosID},
		{unkToken, &t.unkID},
	} {
		id, ok := vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("%w: missing special token %q", ErrInvalidVocabulary, special.token)
		}
		*special.id = id
	}

	return t, nil
}

func loadVocabulary(path string) (map[string]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}

	var vocab map[string]int64
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidVocabulary, err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%w: vocabulary is empty", ErrInvalidVocabulary)
	}
	return vocab, nil
}

// loadMerges reads the ranked merge table. The first line is a format
// header and is always skipped; every following non-blank line holds one
// space-separated pair, with earlier lines merging first.
func loadMerges(path string) (map[mergePair]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMerges, err)
	}
	defer file.Close()

	ranks := make(map[mergePair]int)
	scanner := bufio.NewScanner(file)
	lineNo := 0
	rank := 0
	for scanner.Scan() {
		lineNo++
		if lineNo == 1 {
			continue // header
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrInvalidMerges, lineNo, line)
		}
		pair := mergePair{left: parts[0], right: parts[1]}
		if _, exists := ranks[pair]; !exists {
			ranks[pair] = rank
			rank++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMerges, err)
	}
	return ranks, nil
}

// VocabSize returns the number of entries in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

// MergeCount returns the number of ranked merge pairs.
func (t *Tokenizer) MergeCount() int {
	return len(t.ranks)
}

// Encode tokenizes text into a fixed-length id sequence.
//
// The text is whitespace-split, each word after the first is prefixed
// with the word-boundary marker, and each marked word runs through the
// merge table. Symbols absent from the vocabulary fall back to the UNK
// id. The output is BOS + content + EOS padded to maxLength; content is
// truncated so EOS always fits.
func (t *Tokenizer) Encode(text string, maxLength int) (*Encoding, error) {
	if maxLength < 2 {
		return nil, fmt.Errorf("%w: maxLength %d cannot hold BOS and EOS", ErrWindowTooSmall, maxLength)
	}

	var content []int64
	for i, word := range strings.Fields(text) {
		if i > 0 {
			word = WordBoundary + word
		}
		for _, symbol := range t.splitWord(word) {
			id, ok := t.vocab[symbol]
			if !ok {
				id = t.unkID
			}
			content = append(content, id)
		}
	}

	limit := maxLength - 2
	if len(content) > limit {
		content = content[:limit]
	}

	ids := make([]int64, 0, maxLength)
	ids = append(ids, t.bosID)
	ids = append(ids, content...)
	ids = append(ids, t.eosID)

	mask := make([]int64, len(ids), maxLength)
	for i := range mask {
		mask[i] = 1
	}
	for len(ids) < maxLength {
		ids = append(ids, t.padID)
		mask = append(mask, 0)
	}

	return &Encoding{IDs: ids, AttentionMask: mask}, nil
}

// splitWord applies the merge table to a single marked word. Results are
// memoized per word.
func (t *Tokenizer) splitWord(word string) []string {
	t.mu.RLock()
	cached, ok := t.cache[word]
	t.mu.RUnlock()
	if ok {
		return cached
	}

	symbols := make([]string, 0, utf8.RuneCountInString(word))
	for _, r := range word {
		symbols = append(symbols, string(r))
	}

	for len(symbols) > 1 {
		best := -1
		bestRank := math.MaxInt
		for i := 0; i < len(symbols)-1; i++ {
			rank, found := t.ranks[mergePair{left: symbols[i], right: symbols[i+1]}]
			if found && rank < bestRank {
				bestRank = rank
				best = i
			}
		}
		if best < 0 {
			break
		}
		symbols[best] = symbols[best] + symbols[best+1]
		symbols = append(symbols[:best+1], symbols[best+2:]...)
	}

	t.mu.Lock()
	t.cache[word] = symbols
	t.mu.Unlock()
	return symbols
}

// Decode maps ids back to text. Special tokens are dropped, boundary
// markers become spaces.
func (t *Tokenizer) Decode(ids []int64) string {
	var b strings.Builder
	for _, id := range ids {
		if id == t.bosID || id == t.eosID || id == t.padID || id == t.unkID {
			continue
		}
		if symbol, ok := t.inverse[id]; ok {
			b.WriteString(symbol)
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), WordBoundary, " "))
}

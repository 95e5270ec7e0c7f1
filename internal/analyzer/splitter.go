package analyzer

import (
	"iter"
	"slices"
	"unicode/utf8"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Splitter cuts text into consecutive token windows of at most ChunkTokens
// tokens with no overlap. Concatenating the chunks yields the input.
type Splitter struct {
	tok         Tokenizer
	chunkTokens int
}

// NewSplitter fails with a configuration error on a non-positive budget.
func NewSplitter(tok Tokenizer, chunkTokens int) (*Splitter, error) {
	if tok == nil {
		return nil, engine.Configf("tokenizer", "required")
	}
	if chunkTokens <= 0 {
		return nil, engine.Configf("chunk_tokens", "token budget must be positive, got %d", chunkTokens)
	}
	return &Splitter{tok: tok, chunkTokens: chunkTokens}, nil
}

func (s *Splitter) ChunkTokens() int { return s.chunkTokens }

// Chunks yields the chunks of text lazily. Each iteration re-encodes text, so
// the sequence can be ranged over any number of times with the same result.
func (s *Splitter) Chunks(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		tokens := s.tok.Encode(text)
		for start := 0; start < len(tokens); {
			end, chunk := s.cut(tokens, start)
			if !yield(chunk) {
				return
			}
			start = end
		}
	}
}

// Split collects Chunks(text).
func (s *Splitter) Split(text string) []string {
	return slices.Collect(s.Chunks(text))
}

// cut ends a chunk at most chunkTokens after start. When the window ends inside
// a multi-byte rune it backs off up to utf8.UTFMax-1 tokens to the rune
// boundary; if none is found the full window is kept.
func (s *Splitter) cut(tokens []int, start int) (int, string) {
	end := min(start+s.chunkTokens, len(tokens))
	full := s.tok.Decode(tokens[start:end])
	if end == len(tokens) || utf8.ValidString(full) {
		return end, full
	}
	for e := end - 1; e > start && end-e < utf8.UTFMax; e-- {
		if chunk := s.tok.Decode(tokens[start:e]); utf8.ValidString(chunk) {
			return e, chunk
		}
	}
	return end, full
}

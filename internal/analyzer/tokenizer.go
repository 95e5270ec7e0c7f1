package analyzer

import (
	"log/slog"
	"sync"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Tokenizer maps text to model tokens and back.
// Decode(Encode(s)) must return s.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// CountTokens returns the token length of text under tok.
func CountTokens(tok Tokenizer, text string) int {
	if text == "" {
		return 0
	}
	return len(tok.Encode(text))
}

const fallbackEncoding = "cl100k_base"

// BPE ranks are embedded; nothing is downloaded at runtime.
var useOfflineBPE = sync.OnceFunc(func() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
})

// Tiktoken is a Tokenizer backed by the OpenAI BPE encodings.
type Tiktoken struct {
	enc      *tiktoken.Tiktoken
	encoding string
}

// NewTiktoken picks the encoding for model: the registry entry first, then
// tiktoken's own model table, then cl100k_base.
func NewTiktoken(model string) (*Tiktoken, error) {
	useOfflineBPE()

	encoding := ""
	if m, ok := engine.LookupModel(model); ok {
		encoding = m.Encoding
	}
	if encoding == "" {
		if enc, err := tiktoken.EncodingForModel(model); err == nil {
			return &Tiktoken{enc: enc, encoding: "model:" + model}, nil
		}
		encoding = fallbackEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil && encoding != fallbackEncoding {
		slog.Warn("tokenizer encoding unavailable, using fallback",
			slog.String("model", model), slog.String("encoding", encoding), slog.Any("error", err))
		encoding = fallbackEncoding
		enc, err = tiktoken.GetEncoding(encoding)
	}
	if err != nil {
		return nil, engine.Configf("model_name", "no tokenizer for %q (%s): %v", model, encoding, err)
	}
	return &Tiktoken{enc: enc, encoding: encoding}, nil
}

// Encoding names the BPE encoding in use.
func (t *Tiktoken) Encoding() string { return t.encoding }

// Encode allows special-token text such as <|endoftext|>; the encoder panics on
// disallowed specials and Decode restores them unchanged.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, []string{"all"}, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

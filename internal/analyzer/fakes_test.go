package analyzer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// runeTokenizer maps each rune to one token.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		out = append(out, int(r))
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	rs := make([]rune, len(tokens))
	for i, t := range tokens {
		rs[i] = rune(t)
	}
	return string(rs)
}

// byteTokenizer maps each byte to one token, so windows can end mid-rune.
type byteTokenizer struct{}

func (byteTokenizer) Encode(text string) []int {
	out := make([]int, len(text))
	for i := range len(text) {
		out[i] = int(text[i])
	}
	return out
}

func (byteTokenizer) Decode(tokens []int) string {
	b := make([]byte, len(tokens))
	for i, t := range tokens {
		b[i] = byte(t)
	}
	return string(b)
}

type staticFetcher struct {
	text  string
	err   error
	calls atomic.Int32
}

func (f *staticFetcher) Fetch(context.Context, string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

// scriptedModel answers each prompt with reply and records every prompt.
type scriptedModel struct {
	reply func(prompt string) (string, error)
	delay time.Duration

	mu       sync.Mutex
	prompts  []string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (m *scriptedModel) Chat(ctx context.Context, messages []Message) (string, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	prompt := messages[len(messages)-1].Content
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	return m.reply(prompt)
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *scriptedModel) recorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// testPrompts keeps template overhead tiny: direct "|", qa "#", summarize "S:".
func testPrompts() *Prompts {
	return &Prompts{
		Direct:       MustTemplate("direct", "{text}|{prompt}", SlotText, SlotPrompt),
		QAMap:        MustTemplate("qa", "{text}#{prompt}", SlotText, SlotPrompt),
		SummarizeMap: MustTemplate("sum", "S:{text}", SlotText),
	}
}

// testTemplateTokens is the rune length of the largest testPrompts skeleton.
const testTemplateTokens = 2

// newTestAnalyzer builds an Analyzer whose chunk budget is exactly budget runes.
func newTestAnalyzer(f Fetcher, m ChatModel, budget int) (*Analyzer, error) {
	const maxOut = 100
	return New(f, m, Options{
		ModelName:           "test-model",
		MaxOutputTokens:     maxOut,
		ContextWindowTokens: budget + testTemplateTokens + maxOut,
		Prompts:             testPrompts(),
		Tokenizer:           runeTokenizer{},
	})
}

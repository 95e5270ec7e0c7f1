package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	LLMProvider        string // "kit" or "openai"
	LLMAPIKey          string
	LLMAPIKeyFallbacks []string
	LLMAPIBase         string
	LLMModel           string
	LLMTemperature     float64
	LLMMaxOutputTokens int
	LLMContextWindow   int // 0 = look up LLMModel in the model registry
	LLMTimeout         time.Duration
	LLMRequestsPerSec  float64 // 0 = unlimited
	MapConcurrency     int

	TranscriptLangs []string
	FetchTimeout    time.Duration
	BrowserFetch    bool

	CacheTTL             time.Duration // 0 = transcript cache disabled
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	RedisURL             string

	HTTPClient    *http.Client
	BrowserClient *BrowserClient // nil = watch pages fetched with HTTPClient
}

// ContextWindow resolves the configured context window, falling back to the
// model registry and then to DefaultContextWindow.
func (c Config) ContextWindow() int {
	if c.LLMContextWindow > 0 {
		return c.LLMContextWindow
	}
	if m, ok := LookupModel(c.LLMModel); ok && m.ContextWindow > 0 {
		return m.ContextWindow
	}
	return DefaultContextWindow
}

package analyzer

import (
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const (
	ProviderKit    = "kit"
	ProviderOpenAI = "openai"
)

// NewModel builds the ChatModel selected by cfg.LLMProvider, rate limited
// to cfg.LLMRequestsPerSec.
func NewModel(cfg engine.Config) (ChatModel, error) {
	if cfg.LLMModel == "" {
		return nil, engine.Configf("LLM_MODEL", "required")
	}
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hc := &http.Client{Timeout: timeout}

	var m ChatModel
	switch strings.ToLower(cfg.LLMProvider) {
	case "", ProviderKit:
		if cfg.LLMAPIBase == "" {
			return nil, engine.Configf("LLM_API_BASE", "required for provider %q", ProviderKit)
		}
		client := llm.NewClient(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel,
			llm.WithFallbackKeys(cfg.LLMAPIKeyFallbacks),
			llm.WithMaxTokens(cfg.LLMMaxOutputTokens),
			llm.WithTemperature(cfg.LLMTemperature),
			llm.WithHTTPClient(hc),
		)
		m = NewKitModel(client, cfg.LLMTemperature, cfg.LLMMaxOutputTokens)
	case ProviderOpenAI:
		m = NewOpenAIModel(cfg.LLMAPIBase, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxOutputTokens, hc)
	default:
		return nil, engine.Configf("LLM_PROVIDER", "unknown provider %q (want %q or %q)", cfg.LLMProvider, ProviderKit, ProviderOpenAI)
	}
	return RateLimited(m, cfg.LLMRequestsPerSec), nil
}

// FromConfig wires an Analyzer from environment-derived configuration.
func FromConfig(cfg engine.Config, fetcher Fetcher) (*Analyzer, error) {
	model, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return New(fetcher, model, Options{
		ModelName:           cfg.LLMModel,
		MaxOutputTokens:     cfg.LLMMaxOutputTokens,
		ContextWindowTokens: cfg.ContextWindow(),
		MapConcurrency:      cfg.MapConcurrency,
	})
}

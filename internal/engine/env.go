package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
)

// ConfigFromEnv reads the engine configuration from the environment and
// builds the HTTP clients. BROWSER_FETCH=true adds the TLS-fingerprinted
// client for watch pages; if it cannot be built, plain HTTP is used.
func ConfigFromEnv() Config {
	c := Config{
		LLMProvider:          env.Str("LLM_PROVIDER", "kit"),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://api.openai.com/v1"),
		LLMModel:             env.Str("LLM_MODEL", "gpt-4"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0),
		LLMMaxOutputTokens:   env.Int("LLM_MAX_OUTPUT_TOKENS", 200),
		LLMContextWindow:     env.Int("LLM_CONTEXT_WINDOW", 0),
		LLMTimeout:           env.Duration("LLM_TIMEOUT", 60*time.Second),
		LLMRequestsPerSec:    env.Float("LLM_RPS", 0),
		MapConcurrency:       env.Int("MAP_CONCURRENCY", 4),
		TranscriptLangs:      env.List("TRANSCRIPT_LANGS", "en"),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		BrowserFetch:         strings.EqualFold(env.Str("BROWSER_FETCH", "false"), "true"),
		CacheTTL:             env.Duration("CACHE_TTL", 0),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 500),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		RedisURL:             env.Str("REDIS_URL", ""),
	}
	c.HTTPClient = NewHTTPClient(c.FetchTimeout)

	if c.BrowserFetch {
		bc, err := NewBrowserClient(c.FetchTimeout)
		if err != nil {
			slog.Warn("browser client init failed, using plain HTTP", slog.Any("error", err))
		} else {
			c.BrowserClient = bc
			slog.Info("browser client initialized")
		}
	}
	return c
}

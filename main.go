// go_transcript is an MCP server that answers questions about YouTube videos from their transcripts.
//
// Exposes two MCP tools: video_analyze and video_transcript.
// The ytanalyze command in cmd/ytanalyze runs the same analyzer from a terminal.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_transcript/internal/analyzer"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/videoserver"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}
	mcpPort := env.Str("MCP_PORT", "8892")

	cfg := engine.ConfigFromEnv()
	cache := initCache(cfg)
	defer cache.Close()

	fetcher := sources.FromConfig(cfg, cache)
	a, err := analyzer.FromConfig(cfg, fetcher)
	if err != nil {
		slog.Error("analyzer init failed", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting go_transcript",
		slog.String("port", mcpPort),
		slog.String("model", cfg.LLMModel),
		slog.Int("context_window", cfg.ContextWindow()),
		slog.Int("chunk_budget", a.ChunkBudget()),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_transcript",
		Version: version,
	}, nil)

	videoserver.RegisterTools(server, a, fetcher)
	slog.Info("tools registered", slog.Int("count", 2))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_transcript",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

// initCache returns nil when CACHE_TTL is zero; a nil *engine.Cache is a no-op.
func initCache(c engine.Config) *engine.Cache {
	if c.CacheTTL <= 0 {
		return nil
	}
	slog.Info("transcript cache enabled",
		slog.Duration("ttl", c.CacheTTL),
		slog.Bool("redis", c.RedisURL != ""),
	)
	return engine.NewCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

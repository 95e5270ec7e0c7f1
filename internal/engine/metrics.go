package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	AnalyzeRequests    atomic.Int64
	AnalyzeErrors      atomic.Int64
	DirectRuns         atomic.Int64
	MapReduceRuns      atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	TranscriptRequests atomic.Int64
	TranscriptErrors   atomic.Int64
	CacheHits          atomic.Int64
	CacheMisses        atomic.Int64
}

var metricKeys = []string{
	"analyze_requests", "analyze_errors",
	"direct_runs", "map_reduce_runs",
	"llm_calls", "llm_errors",
	"transcript_requests", "transcript_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"analyze_requests":    metrics.AnalyzeRequests.Load(),
		"analyze_errors":      metrics.AnalyzeErrors.Load(),
		"direct_runs":         metrics.DirectRuns.Load(),
		"map_reduce_runs":     metrics.MapReduceRuns.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"transcript_errors":   metrics.TranscriptErrors.Load(),
		"cache_hits":          metrics.CacheHits.Load(),
		"cache_misses":        metrics.CacheMisses.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for analyzer/ and sources/.
func IncrAnalyzeRequests()    { metrics.AnalyzeRequests.Add(1) }
func IncrAnalyzeErrors()      { metrics.AnalyzeErrors.Add(1) }
func IncrDirectRuns()         { metrics.DirectRuns.Add(1) }
func IncrMapReduceRuns()      { metrics.MapReduceRuns.Add(1) }
func IncrLLMCalls()           { metrics.LLMCalls.Add(1) }
func IncrLLMErrors()          { metrics.LLMErrors.Add(1) }
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }
func IncrTranscriptErrors()   { metrics.TranscriptErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}

package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestFormatMetrics(t *testing.T) {
	before := GetMetrics()
	IncrAnalyzeRequests()
	IncrLLMCalls()
	IncrLLMCalls()
	after := GetMetrics()

	if d := after["analyze_requests"] - before["analyze_requests"]; d != 1 {
		t.Errorf("analyze_requests delta = %d, want 1", d)
	}
	if d := after["llm_calls"] - before["llm_calls"]; d != 2 {
		t.Errorf("llm_calls delta = %d, want 2", d)
	}

	out := FormatMetrics()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(metricKeys) {
		t.Fatalf("FormatMetrics has %d lines, want %d", len(lines), len(metricKeys))
	}
	for i, k := range metricKeys {
		if !strings.HasPrefix(lines[i], k+" ") {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], k)
		}
	}
}

func TestTrackOperation(t *testing.T) {
	want := errors.New("failed")
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")

	err := TrackOperation(ctx, "op", func(got context.Context) error {
		if got.Value(ctxKey{}) != "v" {
			t.Error("TrackOperation did not pass the caller's context")
		}
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("TrackOperation error = %v, want %v", err, want)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/analyzer"
	"github.com/anatolykoptev/go_transcript/internal/engine"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.Configf("x", "bad"), 2},
		{engine.NewFetchError("id", errors.New("gone")), 3},
		{fmt.Errorf("run: %w", &engine.ModelCallError{Stage: "direct", Chunk: -1, Err: errors.New("503")}), 4},
		{errors.New("other"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestTranscriptCommand_SubtitleFile(t *testing.T) {
	t.Setenv("CACHE_TTL", "0")
	path := filepath.Join(t.TempDir(), "talk.srt")
	srt := "1\n00:00:01,000 --> 00:00:02,000\nHello there\n\n2\n00:00:02,500 --> 00:00:04,000\n<i>general</i> Kenobi\n"
	if err := os.WriteFile(path, []byte(srt), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"transcript", path, "--max-chars", "11"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := strings.TrimSpace(stdout.String()); got != "Hello there" {
		t.Errorf("stdout = %q, want %q", got, "Hello there")
	}
	if !strings.Contains(stderr.String(), "truncated") {
		t.Errorf("stderr = %q, want truncation note", stderr.String())
	}
}

func TestAnalyzeCommand_Args(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze", "dQw4w9WgXcQ"})
	if err := cmd.Execute(); err == nil {
		t.Error("analyze with one argument succeeded, want arg count error")
	}
}

func TestWaitWithProgress_NonTerminal(t *testing.T) {
	f := analyzer.Go(context.Background(), func(context.Context) (string, error) { return "done", nil })
	var buf bytes.Buffer
	got, err := waitWithProgress(context.Background(), &buf, f)
	if err != nil || got != "done" {
		t.Errorf("waitWithProgress = %q, %v", got, err)
	}
	if buf.Len() != 0 {
		t.Errorf("progress written to non-terminal: %q", buf.String())
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Setenv("TERM", "dumb")
	out, err := renderMarkdown("# Title\n\nSome **bold** text.", 60)
	if err != nil {
		t.Fatalf("renderMarkdown: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("rendered output lost content: %q", out)
	}
}

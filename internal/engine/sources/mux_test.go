package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

type countingFetcher struct {
	text  string
	err   error
	calls int
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestIsSubtitleFile(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"/tmp/talk.en.vtt", true},
		{"talk.SRT", true},
		{"file:///tmp/talk.ass", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"dQw4w9WgXcQ", false},
		{"notes.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			if got := IsSubtitleFile(tt.ref); got != tt.want {
				t.Errorf("IsSubtitleFile(%q) = %v, want %v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestSubtitleFileFetch(t *testing.T) {
	dir := t.TempDir()
	srt := filepath.Join(dir, "talk.srt")
	os.WriteFile(srt, []byte("1\n00:00:00,000 --> 00:00:02,000\nHello there\n\n2\n00:00:02,000 --> 00:00:04,000\n<i>general</i> Kenobi\n\n"), 0o644)
	vtt := filepath.Join(dir, "talk.vtt")
	os.WriteFile(vtt, []byte("WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nfirst cue\n\n00:00:02.000 --> 00:00:04.000\nsecond cue\n"), 0o644)

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"srt", srt, "Hello there general Kenobi"},
		{"vtt with scheme", "file://" + vtt, "first cue second cue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SubtitleFile{}.Fetch(context.Background(), tt.ref)
			if err != nil {
				t.Fatalf("Fetch(%q) error = %v", tt.ref, err)
			}
			if got != tt.want {
				t.Errorf("Fetch(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}

	_, err := SubtitleFile{}.Fetch(context.Background(), filepath.Join(dir, "missing.srt"))
	if !errors.Is(err, engine.ErrFetch) {
		t.Errorf("missing file error = %v, want ErrFetch", err)
	}
}

func TestMuxRoutes(t *testing.T) {
	yt := &countingFetcher{text: "from youtube"}
	files := &countingFetcher{text: "from file"}
	m := &Mux{YouTube: yt, Files: files}

	got, _ := m.Fetch(context.Background(), "dQw4w9WgXcQ")
	if got != "from youtube" {
		t.Errorf("video id routed to %q", got)
	}
	got, _ = m.Fetch(context.Background(), "/tmp/a.vtt")
	if got != "from file" {
		t.Errorf("subtitle path routed to %q", got)
	}
	if yt.calls != 1 || files.calls != 1 {
		t.Errorf("calls youtube=%d files=%d, want 1/1", yt.calls, files.calls)
	}
}

func TestCachedFetcher(t *testing.T) {
	cache := engine.NewCache("", time.Minute, 100, time.Minute)
	defer cache.Close()

	next := &countingFetcher{text: "transcript"}
	c := &Cached{Next: next, Cache: cache, Langs: []string{"en"}}
	ctx := context.Background()

	for _, ref := range []string{"dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ"} {
		got, err := c.Fetch(ctx, ref)
		if err != nil || got != "transcript" {
			t.Fatalf("Fetch(%q) = %q, %v", ref, got, err)
		}
	}
	if next.calls != 1 {
		t.Errorf("same video fetched %d times, want 1", next.calls)
	}

	failing := &countingFetcher{err: engine.NewFetchError("x", errors.New("boom"))}
	c = &Cached{Next: failing, Cache: cache, Langs: []string{"en"}}
	for range 2 {
		if _, err := c.Fetch(ctx, "aaaaaaaaaaa"); err == nil {
			t.Fatal("expected error")
		}
	}
	if failing.calls != 2 {
		t.Errorf("failures must not be cached: calls = %d, want 2", failing.calls)
	}
}

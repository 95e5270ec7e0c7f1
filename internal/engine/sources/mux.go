package sources

import (
	"context"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Fetcher returns the transcript for a video reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

// Mux routes local subtitle paths to SubtitleFile and everything else to YouTube.
type Mux struct {
	YouTube Fetcher
	Files   Fetcher
}

// NewMux returns a Mux over yt and the local subtitle reader.
func NewMux(yt Fetcher) *Mux {
	return &Mux{YouTube: yt, Files: SubtitleFile{}}
}

func (m *Mux) Fetch(ctx context.Context, ref string) (string, error) {
	if IsSubtitleFile(ref) {
		return m.Files.Fetch(ctx, ref)
	}
	return m.YouTube.Fetch(ctx, ref)
}

// Cached memoizes transcripts in the engine cache keyed by video id and languages.
// Only successful fetches are stored.
type Cached struct {
	Next  Fetcher
	Cache *engine.Cache
	Langs []string
}

func (c *Cached) Fetch(ctx context.Context, ref string) (string, error) {
	key, ok := c.key(ref)
	if !ok {
		return c.Next.Fetch(ctx, ref)
	}
	if data, hit := c.Cache.Get(ctx, key); hit {
		return string(data), nil
	}
	text, err := c.Next.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}
	c.Cache.Set(ctx, key, []byte(text))
	return text, nil
}

// key is only defined for YouTube references; local files are never cached.
func (c *Cached) key(ref string) (string, bool) {
	if c.Cache == nil || IsSubtitleFile(ref) {
		return "", false
	}
	id, err := ParseVideoID(ref)
	if err != nil {
		return "", false
	}
	return engine.CacheKey("transcript", id, strings.Join(c.Langs, ",")), true
}

// FromConfig assembles the fetcher chain main uses: local subtitles and
// YouTube behind the transcript cache when one is given.
func FromConfig(cfg engine.Config, cache *engine.Cache) Fetcher {
	yt := NewYouTube(YouTubeOptions{
		HTTPClient:    cfg.HTTPClient,
		BrowserClient: cfg.BrowserClient,
		Langs:         cfg.TranscriptLangs,
	})
	var f Fetcher = NewMux(yt)
	if cache != nil {
		f = &Cached{Next: f, Cache: cache, Langs: cfg.TranscriptLangs}
	}
	return f
}

package sources

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/asticode/go-astisub"
)

var subtitleExts = map[string]bool{
	".srt":  true,
	".vtt":  true,
	".ssa":  true,
	".ass":  true,
	".ttml": true,
	".stl":  true,
}

// IsSubtitleFile reports whether ref names a local subtitle file.
func IsSubtitleFile(ref string) bool {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "file://")
	return subtitleExts[strings.ToLower(filepath.Ext(ref))]
}

// SubtitleFile reads transcripts from local subtitle files such as those
// written by yt-dlp --write-subs.
type SubtitleFile struct{}

// Fetch parses the subtitle file at ref and joins its cue text.
func (SubtitleFile) Fetch(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", engine.NewFetchError(ref, err)
	}
	path := strings.TrimPrefix(strings.TrimSpace(ref), "file://")
	engine.IncrTranscriptRequests()

	subs, err := astisub.OpenFile(path)
	if err != nil {
		engine.IncrTranscriptErrors()
		return "", engine.NewFetchError(ref, fmt.Errorf("open subtitles: %w", err))
	}

	var parts []string
	for _, item := range subs.Items {
		for _, line := range item.Lines {
			for _, li := range line.Items {
				if text := engine.CaptionText(li.Text); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}
	if len(parts) == 0 {
		engine.IncrTranscriptErrors()
		return "", engine.NewFetchError(ref, errors.New("subtitle file has no text"))
	}
	return strings.Join(parts, " "), nil
}

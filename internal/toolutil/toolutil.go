// Package toolutil provides shared helpers for the MCP tools and the CLI.
package toolutil

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/anatolykoptev/go_transcript/internal/analyzer"
)

// Analysis modes accepted by the video_analyze tool and the CLI.
const (
	ModeQA        = "qa"
	ModeSummarize = "summarize"
)

// ParseMode maps a mode name to the StrictQA option. Empty means qa.
func ParseMode(mode string) (analyzer.ProcessOption, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeQA:
		return analyzer.WithStrictQA(true), nil
	case ModeSummarize, "summary":
		return analyzer.WithStrictQA(false), nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want %q or %q)", mode, ModeQA, ModeSummarize)
	}
}

// ClipText cuts text to at most maxChars runes. maxChars <= 0 means no limit.
func ClipText(text string, maxChars int) (string, bool) {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text, false
	}
	runes := []rune(text)
	return string(runes[:maxChars]), true
}

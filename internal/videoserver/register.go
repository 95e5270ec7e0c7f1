// Package videoserver exposes the transcript analyzer as MCP tools.
package videoserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/analyzer"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AnalyzeInput is the video_analyze argument schema.
type AnalyzeInput struct {
	URL    string `json:"url" jsonschema:"YouTube URL or 11-character video id, or a local subtitle file path (.srt, .vtt, .ass)"`
	Prompt string `json:"prompt" jsonschema:"What to do with the video (e.g. summarize the main arguments, list the tools mentioned)"`
	Mode   string `json:"mode,omitempty" jsonschema:"Combine policy for long transcripts: qa (extract relevant passages, default) or summarize"`
}

// AnalyzeOutput is the video_analyze result.
type AnalyzeOutput struct {
	Answer           string `json:"answer"`
	Strategy         string `json:"strategy"`
	Chunks           int    `json:"chunks"`
	TranscriptTokens int    `json:"transcript_tokens"`
}

// TranscriptInput is the video_transcript argument schema.
type TranscriptInput struct {
	URL      string `json:"url" jsonschema:"YouTube URL or 11-character video id, or a local subtitle file path"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"Truncate the transcript to this many characters (0 = full transcript)"`
}

// TranscriptOutput is the video_transcript result.
type TranscriptOutput struct {
	VideoID    string `json:"video_id,omitempty"`
	Transcript string `json:"transcript"`
	Chars      int    `json:"chars"`
	Truncated  bool   `json:"truncated,omitempty"`
}

// RegisterTools registers video_analyze and video_transcript on server.
func RegisterTools(server *mcp.Server, a *analyzer.Analyzer, f sources.Fetcher) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_analyze",
		Description: "Answer a prompt about a YouTube video using its transcript. Short transcripts go to the model in one call; long ones are chunked and combined with map-reduce (qa or summarize mode). Returns the answer plus the strategy and chunk count used.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, analyzeHandler(a))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "video_transcript",
		Description: "Fetch the plain-text transcript of a YouTube video (manual captions preferred over auto-generated) or read a local subtitle file.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, transcriptHandler(f))
}

func analyzeHandler(a *analyzer.Analyzer) func(context.Context, *mcp.CallToolRequest, AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeInput) (*mcp.CallToolResult, AnalyzeOutput, error) {
		if strings.TrimSpace(input.URL) == "" {
			return nil, AnalyzeOutput{}, fmt.Errorf("url is required")
		}
		if strings.TrimSpace(input.Prompt) == "" {
			return nil, AnalyzeOutput{}, fmt.Errorf("prompt is required")
		}
		mode, err := toolutil.ParseMode(input.Mode)
		if err != nil {
			return nil, AnalyzeOutput{}, err
		}

		res, err := a.Analyze(ctx, input.URL, input.Prompt, mode)
		if err != nil {
			return nil, AnalyzeOutput{}, err
		}
		return nil, AnalyzeOutput{
			Answer:           res.Text,
			Strategy:         string(res.Strategy),
			Chunks:           res.Chunks,
			TranscriptTokens: res.Tokens,
		}, nil
	}
}

func transcriptHandler(f sources.Fetcher) func(context.Context, *mcp.CallToolRequest, TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TranscriptInput) (*mcp.CallToolResult, TranscriptOutput, error) {
		if strings.TrimSpace(input.URL) == "" {
			return nil, TranscriptOutput{}, fmt.Errorf("url is required")
		}
		text, err := f.Fetch(ctx, input.URL)
		if err != nil {
			slog.Warn("video_transcript failed", slog.String("url", input.URL), slog.Any("error", err))
			return nil, TranscriptOutput{}, err
		}

		out := TranscriptOutput{Chars: len([]rune(text))}
		if id, err := sources.ParseVideoID(input.URL); err == nil && !sources.IsSubtitleFile(input.URL) {
			out.VideoID = id
		}
		out.Transcript, out.Truncated = toolutil.ClipText(text, input.MaxChars)
		return nil, out, nil
	}
}

// ytanalyze answers questions about YouTube videos from the terminal.
//
//	ytanalyze analyze <url> <prompt> [--summarize] [--render] [--copy]
//	ytanalyze transcript <url> [--max-chars N]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/analyzer"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/toolutil"
	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

type options struct {
	model     string
	langs     []string
	summarize bool
	render    bool
	copy      bool
	maxChars  int
	verbose   bool
	timeout   time.Duration
}

func init() {
	_ = godotenv.Load()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "ytanalyze",
		Short:         "Analyze YouTube videos with an LLM using their transcripts",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().StringVar(&opts.model, "model", "", "LLM model (default: LLM_MODEL env)")
	root.PersistentFlags().StringSliceVar(&opts.langs, "lang", nil, "Preferred transcript languages in order (default: TRANSCRIPT_LANGS env)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log progress to stderr")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Overall deadline")

	analyzeCmd := &cobra.Command{
		Use:   "analyze <url> <prompt>",
		Short: "Answer a prompt about a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0], args[1])
		},
	}
	analyzeCmd.Flags().BoolVarP(&opts.summarize, "summarize", "s", false, "Summarize chunks instead of extracting relevant passages")
	analyzeCmd.Flags().BoolVarP(&opts.render, "render", "r", false, "Render the answer as Markdown")
	analyzeCmd.Flags().BoolVarP(&opts.copy, "copy", "c", false, "Copy the answer to the clipboard")

	transcriptCmd := &cobra.Command{
		Use:   "transcript <url>",
		Short: "Print a video transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd, opts, args[0])
		},
	}
	transcriptCmd.Flags().IntVar(&opts.maxChars, "max-chars", 0, "Truncate the transcript (0 = full)")

	root.AddCommand(analyzeCmd, transcriptCmd)
	return root
}

func setup(opts options) (engine.Config, sources.Fetcher, *engine.Cache) {
	cfg := engine.ConfigFromEnv()
	if opts.model != "" {
		cfg.LLMModel = opts.model
	}
	if len(opts.langs) > 0 {
		cfg.TranscriptLangs = opts.langs
	}
	var cache *engine.Cache
	if cfg.CacheTTL > 0 {
		cache = engine.NewCache(cfg.RedisURL, cfg.CacheTTL, cfg.CacheMaxEntries, cfg.CacheCleanupInterval)
	}
	return cfg, sources.FromConfig(cfg, cache), cache
}

func commandContext(opts options) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	return ctx, func() { cancel(); stop() }
}

func runAnalyze(cmd *cobra.Command, opts options, ref, prompt string) error {
	cfg, fetcher, cache := setup(opts)
	defer cache.Close()

	a, err := analyzer.FromConfig(cfg, fetcher)
	if err != nil {
		return err
	}
	mode := toolutil.ModeQA
	if opts.summarize {
		mode = toolutil.ModeSummarize
	}
	modeOpt, err := toolutil.ParseMode(mode)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(opts)
	defer cancel()

	answer, err := waitWithProgress(ctx, cmd.ErrOrStderr(), a.ProcessAsync(ctx, ref, prompt, modeOpt))
	if err != nil {
		return err
	}

	if opts.copy {
		if err := clipboard.WriteAll(answer); err != nil {
			slog.Warn("clipboard copy failed", slog.Any("error", err))
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "(copied to clipboard)")
		}
	}

	out := answer
	if opts.render {
		if rendered, err := renderMarkdown(answer, terminalWidth()); err != nil {
			slog.Warn("markdown render failed", slog.Any("error", err))
		} else {
			out = rendered
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(out, "\n"))
	return nil
}

func runTranscript(cmd *cobra.Command, opts options, ref string) error {
	_, fetcher, cache := setup(opts)
	defer cache.Close()

	ctx, cancel := commandContext(opts)
	defer cancel()

	text, err := fetcher.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	text, truncated := toolutil.ClipText(text, opts.maxChars)
	fmt.Fprintln(cmd.OutOrStdout(), text)
	if truncated {
		fmt.Fprintf(cmd.ErrOrStderr(), "(truncated to %d characters)\n", opts.maxChars)
	}
	return nil
}

// waitWithProgress prints a dot per second to w while f runs, when w is a terminal.
func waitWithProgress(ctx context.Context, w io.Writer, f *analyzer.Future[string]) (string, error) {
	tty, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(tty.Fd())) {
		return f.Wait(ctx)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	fmt.Fprint(w, "analyzing")
	for {
		select {
		case <-f.Done():
			fmt.Fprintln(w)
			return f.Wait(ctx)
		case <-ticker.C:
			fmt.Fprint(w, ".")
		case <-ctx.Done():
			fmt.Fprintln(w)
			return "", ctx.Err()
		}
	}
}

// exitCode maps error kinds to distinct exit statuses for scripting.
func exitCode(err error) int {
	switch {
	case errors.Is(err, engine.ErrConfiguration):
		return 2
	case errors.Is(err, engine.ErrFetch):
		return 3
	case errors.Is(err, engine.ErrModelCall):
		return 4
	default:
		return 1
	}
}

// Package analyzer answers a prompt about a video from its transcript.
//
// A transcript that fits the model's chunk budget goes to the model in one
// call. A longer one is split into token-bounded chunks and answered with a
// map-reduce pass: question-answering (extract relevant passages, then answer)
// or summarization (summarize each chunk, then answer from the summaries).
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/google/uuid"
)

const defaultMapConcurrency = 4

var (
	errEmptyTranscript = errors.New("transcript is empty")
	errEmptyResponse   = errors.New("model returned an empty response")
)

// Fetcher returns the transcript for a video URL, id or subtitle path.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

// Options configures New.
type Options struct {
	ModelName           string // selects the tokenizer when Tokenizer is nil
	MaxOutputTokens     int    // reserved for the model's answer
	ContextWindowTokens int    // total prompt + output budget of the model
	MapConcurrency      int    // parallel map calls, default 4
	Prompts             *Prompts
	Tokenizer           Tokenizer
}

// Analyzer holds everything one analysis needs. It has no per-call state and
// is safe for concurrent use.
type Analyzer struct {
	fetcher        Fetcher
	model          ChatModel
	tok            Tokenizer
	prompts        Prompts
	splitter       *Splitter
	modelName      string
	templateTokens int
	concurrency    int
}

// New validates opts and fails fast when the templates and reserved output
// leave no room for transcript text.
func New(fetcher Fetcher, model ChatModel, opts Options) (*Analyzer, error) {
	if fetcher == nil {
		return nil, engine.Configf("fetcher", "required")
	}
	if model == nil {
		return nil, engine.Configf("model", "required")
	}
	if strings.TrimSpace(opts.ModelName) == "" {
		return nil, engine.Configf("model_name", "required")
	}
	if opts.MaxOutputTokens <= 0 {
		return nil, engine.Configf("max_output_tokens", "must be positive, got %d", opts.MaxOutputTokens)
	}
	if opts.ContextWindowTokens <= 0 {
		return nil, engine.Configf("context_window_tokens", "must be positive, got %d", opts.ContextWindowTokens)
	}

	prompts := DefaultPrompts()
	if opts.Prompts != nil {
		prompts = *opts.Prompts
	}
	if err := prompts.validate(); err != nil {
		return nil, err
	}

	tok := opts.Tokenizer
	if tok == nil {
		tt, err := NewTiktoken(opts.ModelName)
		if err != nil {
			return nil, err
		}
		tok = tt
	}

	// Size chunks for the largest template so every rendered chunk prompt fits.
	templateTokens := 0
	for _, t := range prompts.all() {
		templateTokens = max(templateTokens, CountTokens(tok, t.Skeleton()))
	}
	if opts.MaxOutputTokens+templateTokens >= opts.ContextWindowTokens {
		return nil, engine.Configf("context_window_tokens",
			"max_output_tokens (%d) + template tokens (%d) must be below the context window (%d)",
			opts.MaxOutputTokens, templateTokens, opts.ContextWindowTokens)
	}
	splitter, err := NewSplitter(tok, opts.ContextWindowTokens-templateTokens-opts.MaxOutputTokens)
	if err != nil {
		return nil, err
	}

	concurrency := opts.MapConcurrency
	if concurrency <= 0 {
		concurrency = defaultMapConcurrency
	}

	return &Analyzer{
		fetcher:        fetcher,
		model:          model,
		tok:            tok,
		prompts:        prompts,
		splitter:       splitter,
		modelName:      opts.ModelName,
		templateTokens: templateTokens,
		concurrency:    concurrency,
	}, nil
}

// ChunkBudget is the maximum number of transcript tokens per model call.
func (a *Analyzer) ChunkBudget() int { return a.splitter.ChunkTokens() }

// TemplateTokens is the token length of the largest template skeleton.
func (a *Analyzer) TemplateTokens() int { return a.templateTokens }

// Strategy names the path an analysis took.
type Strategy string

const (
	StrategyDirect             Strategy = "direct"
	StrategyMapReduceQA        Strategy = "map_reduce_qa"
	StrategyMapReduceSummarize Strategy = "map_reduce_summarize"
)

// Result is the answer plus how it was produced.
type Result struct {
	Text     string   `json:"text"`
	Strategy Strategy `json:"strategy"`
	Chunks   int      `json:"chunks"`
	Tokens   int      `json:"transcript_tokens"`
}

type processOptions struct {
	strictQA bool
}

// ProcessOption tunes a single Process call.
type ProcessOption func(*processOptions)

// WithStrictQA selects the question-answering combine policy (true, the
// default) or the summarization policy (false) for multi-chunk transcripts.
func WithStrictQA(strict bool) ProcessOption {
	return func(o *processOptions) { o.strictQA = strict }
}

// Process fetches the transcript for ref and answers instruction about it.
// Errors match engine.ErrFetch, engine.ErrModelCall or engine.ErrConfiguration.
func (a *Analyzer) Process(ctx context.Context, ref, instruction string, opts ...ProcessOption) (string, error) {
	res, err := a.Analyze(ctx, ref, instruction, opts...)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// ProcessAsync starts Process in the background. Wait on the returned Future
// for the same text and error Process would return.
func (a *Analyzer) ProcessAsync(ctx context.Context, ref, instruction string, opts ...ProcessOption) *Future[string] {
	return Go(ctx, func(ctx context.Context) (string, error) {
		return a.Process(ctx, ref, instruction, opts...)
	})
}

// Analyze is Process with the strategy and chunk count reported.
func (a *Analyzer) Analyze(ctx context.Context, ref, instruction string, opts ...ProcessOption) (res Result, err error) {
	po := processOptions{strictQA: true}
	for _, o := range opts {
		o(&po)
	}

	engine.IncrAnalyzeRequests()
	log := slog.With(slog.String("run", uuid.NewString()), slog.String("ref", ref))
	defer func() {
		if err != nil {
			engine.IncrAnalyzeErrors()
			log.Warn("analyze failed", slog.Any("error", err))
		}
	}()

	if strings.TrimSpace(instruction) == "" {
		return Result{}, engine.Configf("instruction", "required")
	}

	err = engine.TrackOperation(ctx, "analyze", func(ctx context.Context) error {
		var rerr error
		res, rerr = a.run(ctx, log, ref, instruction, po)
		return rerr
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (a *Analyzer) run(ctx context.Context, log *slog.Logger, ref, instruction string, po processOptions) (Result, error) {
	transcript, err := a.fetcher.Fetch(ctx, ref)
	if err != nil {
		return Result{}, engine.NewFetchError(ref, err)
	}
	if strings.TrimSpace(transcript) == "" {
		return Result{}, engine.NewFetchError(ref, errEmptyTranscript)
	}

	chunks := a.splitter.Split(transcript)
	res := Result{Chunks: len(chunks), Tokens: CountTokens(a.tok, transcript)}
	log.Info("transcript split",
		slog.Int("tokens", res.Tokens),
		slog.Int("chunks", res.Chunks),
		slog.Int("budget", a.ChunkBudget()),
		slog.String("preview", engine.Preview(transcript, 80)),
	)

	if len(chunks) == 1 {
		engine.IncrDirectRuns()
		res.Strategy = StrategyDirect
		res.Text, err = a.direct(ctx, transcript, instruction)
	} else {
		engine.IncrMapReduceRuns()
		res.Strategy = StrategyMapReduceSummarize
		if po.strictQA {
			res.Strategy = StrategyMapReduceQA
		}
		res.Text, err = a.mapReduce(ctx, log, chunks, instruction, po.strictQA)
	}
	if err != nil {
		return Result{}, err
	}
	log.Info("analyze done", slog.String("strategy", string(res.Strategy)), slog.Int("answer_len", len(res.Text)))
	return res, nil
}

// direct renders the analyst template with the full transcript and returns
// the model output unchanged.
func (a *Analyzer) direct(ctx context.Context, transcript, instruction string) (string, error) {
	prompt, err := a.prompts.Direct.Render(map[Slot]string{SlotText: transcript, SlotPrompt: instruction})
	if err != nil {
		return "", err
	}
	return a.answer(ctx, "direct", prompt)
}

// complete sends one user-role prompt and wraps failures as *engine.ModelCallError.
func (a *Analyzer) complete(ctx context.Context, stage string, chunk int, prompt string) (string, error) {
	engine.IncrLLMCalls()
	out, err := a.model.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		engine.IncrLLMErrors()
		return "", &engine.ModelCallError{Stage: stage, Chunk: chunk, Err: err}
	}
	return out, nil
}

// answer is complete for final outputs, where an empty reply is unusable.
func (a *Analyzer) answer(ctx context.Context, stage, prompt string) (string, error) {
	out, err := a.complete(ctx, stage, -1, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		engine.IncrLLMErrors()
		return "", &engine.ModelCallError{Stage: stage, Chunk: -1, Err: errEmptyResponse}
	}
	return out, nil
}

func (a *Analyzer) String() string {
	return fmt.Sprintf("Analyzer(model=%s, budget=%d)", a.modelName, a.ChunkBudget())
}

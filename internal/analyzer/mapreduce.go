package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"golang.org/x/sync/errgroup"
)

// maxCollapseRounds bounds how often map outputs are re-condensed to fit the budget.
const maxCollapseRounds = 4

const docSeparator = "\n\n"

// mapReduce runs the map template over every chunk, condenses the outputs
// until they fit one chunk budget, then answers with the analyst template.
func (a *Analyzer) mapReduce(ctx context.Context, log *slog.Logger, chunks []string, instruction string, strictQA bool) (string, error) {
	mapTmpl, stage := a.prompts.SummarizeMap, "map_summarize"
	if strictQA {
		mapTmpl, stage = a.prompts.QAMap, "map_qa"
	}

	docs, err := a.mapChunks(ctx, stage, mapTmpl, chunks, instruction)
	if err != nil {
		return "", err
	}
	docs = keepNonEmpty(docs)
	log.Info("map phase done", slog.String("stage", stage), slog.Int("chunks", len(chunks)), slog.Int("outputs", len(docs)))

	for round := 1; CountTokens(a.tok, joinDocs(docs)) > a.ChunkBudget(); round++ {
		if round > maxCollapseRounds {
			return "", &engine.ModelCallError{Stage: "collapse", Chunk: -1,
				Err: fmt.Errorf("map outputs still exceed %d tokens after %d rounds", a.ChunkBudget(), maxCollapseRounds)}
		}
		groups := a.groupDocs(docs)
		log.Info("collapsing map outputs", slog.Int("round", round), slog.Int("docs", len(docs)), slog.Int("groups", len(groups)))
		docs, err = a.mapChunks(ctx, stage+"_collapse", mapTmpl, groups, instruction)
		if err != nil {
			return "", err
		}
		docs = keepNonEmpty(docs)
	}

	prompt, err := a.prompts.Direct.Render(map[Slot]string{SlotText: joinDocs(docs), SlotPrompt: instruction})
	if err != nil {
		return "", err
	}
	return a.answer(ctx, "reduce", prompt)
}

// mapChunks renders t for each chunk and calls the model with bounded
// parallelism. Outputs keep chunk order; the first failure cancels the rest.
func (a *Analyzer) mapChunks(ctx context.Context, stage string, t *Template, chunks []string, instruction string) ([]string, error) {
	out := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			values := map[Slot]string{SlotText: chunk}
			if t.Has(SlotPrompt) {
				values[SlotPrompt] = instruction
			}
			prompt, err := t.Render(values)
			if err != nil {
				return err
			}
			text, err := a.complete(gctx, stage, i, prompt)
			if err != nil {
				return err
			}
			out[i] = strings.TrimSpace(text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// groupDocs packs consecutive docs into groups whose joined text fits the
// chunk budget. A doc over budget on its own is cut with the splitter.
func (a *Analyzer) groupDocs(docs []string) []string {
	budget := a.ChunkBudget()
	var groups []string
	cur := ""
	flush := func() {
		if cur != "" {
			groups = append(groups, cur)
			cur = ""
		}
	}
	for _, d := range docs {
		if CountTokens(a.tok, d) > budget {
			flush()
			groups = append(groups, a.splitter.Split(d)...)
			continue
		}
		if cur == "" {
			cur = d
			continue
		}
		if joined := cur + docSeparator + d; CountTokens(a.tok, joined) <= budget {
			cur = joined
			continue
		}
		flush()
		cur = d
	}
	flush()
	return groups
}

func joinDocs(docs []string) string { return strings.Join(docs, docSeparator) }

func keepNonEmpty(docs []string) []string {
	out := docs[:0]
	for _, d := range docs {
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

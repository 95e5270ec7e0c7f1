package analyzer

import "github.com/anatolykoptev/go_transcript/internal/engine"

// LLM prompt templates. Data only.

// analystPrompt answers the user prompt from a transcript. Used for the
// single-chunk call and for the final combine step of map-reduce.
const analystPrompt = `You are a helpful video transcript analyst assistant. Your job is to analyze a video and respond to a user prompt in your own words given the transcript from that video.

TRANSCRIPT: {text}

USER PROMPT: {prompt}

RESPONSE: `

// qaMapPrompt pulls the passages of one chunk that bear on the user prompt.
const qaMapPrompt = `Use the following portion of a long video transcript to see if any of the text is relevant to the user prompt. Return any relevant text verbatim. If nothing is relevant, return an empty response.

{text}

USER PROMPT: {prompt}
Relevant text, if any:`

// summarizeMapPrompt condenses one chunk independently of the user prompt.
const summarizeMapPrompt = `Write a concise summary of the following portion of a video transcript:

"{text}"

CONCISE SUMMARY:`

// Prompts is the set of templates an Analyzer renders.
type Prompts struct {
	Direct       *Template // {text} {prompt}; single chunk and final combine
	QAMap        *Template // {text} {prompt}; question-answering map step
	SummarizeMap *Template // {text} and optionally {prompt}; summarization map step
}

// DefaultPrompts returns the built-in templates.
func DefaultPrompts() Prompts {
	return Prompts{
		Direct:       MustTemplate("analyst", analystPrompt, SlotText, SlotPrompt),
		QAMap:        MustTemplate("qa_map", qaMapPrompt, SlotText, SlotPrompt),
		SummarizeMap: MustTemplate("summarize_map", summarizeMapPrompt, SlotText),
	}
}

func (p Prompts) validate() error {
	checks := []struct {
		field    string
		t        *Template
		required []Slot
	}{
		{"direct", p.Direct, []Slot{SlotText, SlotPrompt}},
		{"qa_map", p.QAMap, []Slot{SlotText, SlotPrompt}},
		{"summarize_map", p.SummarizeMap, []Slot{SlotText}},
	}
	for _, c := range checks {
		if c.t == nil {
			return engine.Configf("prompts."+c.field, "template is required")
		}
		for _, s := range c.required {
			if !c.t.Has(s) {
				return engine.Configf("prompts."+c.field, "template %s lacks slot {%s}", c.t.Name(), s)
			}
		}
		for _, s := range c.t.Slots() {
			if s != SlotText && s != SlotPrompt {
				return engine.Configf("prompts."+c.field, "template %s has unsupported slot {%s}", c.t.Name(), s)
			}
		}
	}
	return nil
}

func (p Prompts) all() []*Template {
	return []*Template{p.Direct, p.QAMap, p.SummarizeMap}
}

package analyzer

import (
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplate(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		slots   []Slot
		wantErr bool
	}{
		{"both slots", "T: {text}\nP: {prompt}", []Slot{SlotText, SlotPrompt}, false},
		{"repeated slot", "{text} and again {text}", []Slot{SlotText}, false},
		{"literal braces kept", `{"json": 1} { text } {text}`, []Slot{SlotText}, false},
		{"undeclared slot", "{text} {title}", []Slot{SlotText}, true},
		{"declared but unused", "{text}", []Slot{SlotText, SlotPrompt}, true},
		{"no slots declared", "plain", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := NewTemplate("t", tt.src, tt.slots...)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, engine.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slots, tmpl.Slots())
		})
	}
}

func TestMustTemplate_Panics(t *testing.T) {
	assert.Panics(t, func() { MustTemplate("bad", "{nope}", SlotText) })
}

func TestTemplate_Render(t *testing.T) {
	tmpl := MustTemplate("t", `Q {prompt} / {"k": {text}} / {text}`, SlotText, SlotPrompt)

	got, err := tmpl.Render(map[Slot]string{SlotText: "body {prompt}", SlotPrompt: "why"})
	require.NoError(t, err)
	assert.Equal(t, `Q why / {"k": body {prompt}} / body {prompt}`, got,
		"values are inserted literally and never re-expanded")

	_, err = tmpl.Render(map[Slot]string{SlotText: "x"})
	assert.ErrorIs(t, err, engine.ErrConfiguration, "missing slot")
	assert.ErrorContains(t, err, "missing")

	_, err = tmpl.Render(map[Slot]string{SlotText: "x", SlotPrompt: "y", "extra": "z"})
	assert.ErrorIs(t, err, engine.ErrConfiguration, "extra slot")
	assert.ErrorContains(t, err, "unknown")
}

func TestTemplate_Skeleton(t *testing.T) {
	tmpl := MustTemplate("t", "A{text}B{prompt}C", SlotText, SlotPrompt)
	assert.Equal(t, "ABC", tmpl.Skeleton())
	assert.True(t, tmpl.Has(SlotPrompt))
	assert.False(t, tmpl.Has("title"))
	assert.Equal(t, "t", tmpl.Name())
}

func TestDefaultPrompts(t *testing.T) {
	p := DefaultPrompts()
	require.NoError(t, p.validate())

	assert.Equal(t, []Slot{SlotText, SlotPrompt}, p.Direct.Slots())
	assert.Equal(t, []Slot{SlotText, SlotPrompt}, p.QAMap.Slots())
	assert.Equal(t, []Slot{SlotText}, p.SummarizeMap.Slots())

	out, err := p.Direct.Render(map[Slot]string{SlotText: "TRANSCRIPT BODY", SlotPrompt: "USER ASK"})
	require.NoError(t, err)
	assert.Contains(t, out, "TRANSCRIPT: TRANSCRIPT BODY")
	assert.Contains(t, out, "USER PROMPT: USER ASK")
	assert.NotContains(t, out, "{text}")
}

package analyzer

import (
	"regexp"
	"slices"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Slot names a placeholder in a prompt template, written {name} in the source.
type Slot string

const (
	SlotText   Slot = "text"
	SlotPrompt Slot = "prompt"
)

var slotRE = regexp.MustCompile(`\{([a-z][a-z0-9_]*)\}`)

// Template is a prompt with a fixed set of named slots.
type Template struct {
	name  string
	parts []templatePart
	slots []Slot
}

type templatePart struct {
	literal string
	slot    Slot // empty for literal parts
}

// NewTemplate parses src. Every declared slot must appear in src and every
// {name} in src must be declared.
func NewTemplate(name, src string, slots ...Slot) (*Template, error) {
	if len(slots) == 0 {
		return nil, engine.Configf("template", "%s: no slots declared", name)
	}
	declared := make(map[Slot]bool, len(slots))
	for _, s := range slots {
		declared[s] = true
	}

	t := &Template{name: name, slots: slices.Clone(slots)}
	used := make(map[Slot]bool, len(slots))
	last := 0
	for _, m := range slotRE.FindAllStringSubmatchIndex(src, -1) {
		slot := Slot(src[m[2]:m[3]])
		if !declared[slot] {
			return nil, engine.Configf("template", "%s: undeclared slot {%s}", name, slot)
		}
		if m[0] > last {
			t.parts = append(t.parts, templatePart{literal: src[last:m[0]]})
		}
		t.parts = append(t.parts, templatePart{slot: slot})
		used[slot] = true
		last = m[1]
	}
	if last < len(src) {
		t.parts = append(t.parts, templatePart{literal: src[last:]})
	}
	for _, s := range slots {
		if !used[s] {
			return nil, engine.Configf("template", "%s: declared slot {%s} does not appear", name, s)
		}
	}
	return t, nil
}

// MustTemplate is NewTemplate for package-level prompts; it panics on error.
func MustTemplate(name, src string, slots ...Slot) *Template {
	t, err := NewTemplate(name, src, slots...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Name() string { return t.name }

// Slots returns the declared slots in declaration order.
func (t *Template) Slots() []Slot { return slices.Clone(t.slots) }

// Has reports whether s is one of the template's slots.
func (t *Template) Has(s Slot) bool { return slices.Contains(t.slots, s) }

// Skeleton is the template text with every slot left empty.
func (t *Template) Skeleton() string {
	var sb strings.Builder
	for _, p := range t.parts {
		sb.WriteString(p.literal)
	}
	return sb.String()
}

// Render fills every slot. A missing or unknown slot is a configuration error.
func (t *Template) Render(values map[Slot]string) (string, error) {
	for s := range values {
		if !t.Has(s) {
			return "", engine.Configf("template", "%s: unknown slot %q", t.name, s)
		}
	}
	size := 0
	for _, s := range t.slots {
		v, ok := values[s]
		if !ok {
			return "", engine.Configf("template", "%s: missing value for slot %q", t.name, s)
		}
		size += len(v)
	}

	var sb strings.Builder
	sb.Grow(size + len(t.Skeleton()))
	for _, p := range t.parts {
		if p.slot != "" {
			sb.WriteString(values[p.slot])
			continue
		}
		sb.WriteString(p.literal)
	}
	return sb.String(), nil
}

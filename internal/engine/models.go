package engine

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultContextWindow is used when neither config nor registry knows the model.
const DefaultContextWindow = 8000

// ModelInfo describes a chat model's token limits.
type ModelInfo struct {
	Name          string `yaml:"name"`
	ContextWindow int    `yaml:"context_window"`
	Encoding      string `yaml:"encoding"`
}

type modelFile struct {
	Models []ModelInfo `yaml:"models"`
}

//go:embed models.yaml
var modelsYAML []byte

var builtinModels = sync.OnceValues(func() ([]ModelInfo, error) {
	return LoadModels(modelsYAML)
})

// LoadModels parses a model registry document.
func LoadModels(data []byte) ([]ModelInfo, error) {
	var f modelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model registry: %w", err)
	}
	for i, m := range f.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("model registry entry %d: empty name", i)
		}
		if m.ContextWindow < 0 {
			return nil, fmt.Errorf("model %s: negative context_window", m.Name)
		}
		f.Models[i].Name = strings.ToLower(m.Name)
	}
	return f.Models, nil
}

// LookupModel finds the registry entry whose name is the longest prefix of model.
func LookupModel(model string) (ModelInfo, bool) {
	models, err := builtinModels()
	if err != nil {
		return ModelInfo{}, false
	}
	return matchModel(models, model)
}

func matchModel(models []ModelInfo, model string) (ModelInfo, bool) {
	model = strings.ToLower(strings.TrimSpace(model))
	// Provider-qualified names like "openai/gpt-4o".
	if i := strings.LastIndexByte(model, '/'); i >= 0 {
		model = model[i+1:]
	}
	var best ModelInfo
	found := false
	for _, m := range models {
		if strings.HasPrefix(model, m.Name) && len(m.Name) > len(best.Name) {
			best, found = m, true
		}
	}
	return best, found
}

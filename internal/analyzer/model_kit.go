package analyzer

import (
	"context"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// KitModel adapts the go-kit LLM client, which takes a system/user prompt pair.
type KitModel struct {
	client      *llm.Client
	temperature float64
	maxTokens   int
}

func NewKitModel(client *llm.Client, temperature float64, maxTokens int) *KitModel {
	return &KitModel{client: client, temperature: temperature, maxTokens: maxTokens}
}

func (m *KitModel) Chat(ctx context.Context, messages []Message) (string, error) {
	system, user := flattenMessages(messages)
	return m.client.Complete(ctx, system, user,
		llm.WithChatTemperature(m.temperature),
		llm.WithChatMaxTokens(m.maxTokens),
	)
}

// flattenMessages folds a conversation into one system and one user prompt.
func flattenMessages(messages []Message) (system, user string) {
	var sys, usr []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			sys = append(sys, m.Content)
		case RoleAssistant:
			usr = append(usr, "Assistant: "+m.Content)
		default:
			usr = append(usr, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}

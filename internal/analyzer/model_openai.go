package analyzer

import (
	"context"
	"errors"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

var errNoChoices = errors.New("response has no choices")

// OpenAIModel talks to any OpenAI-compatible chat completions endpoint.
type OpenAIModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIModel builds a client for baseURL; empty baseURL means api.openai.com.
func NewOpenAIModel(baseURL, apiKey, model string, temperature float64, maxTokens int, hc *http.Client) *OpenAIModel {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	temp := float32(temperature)
	if temp == 0 {
		// The request field is omitempty; a literal zero would fall back to the server default.
		temp = math.SmallestNonzeroFloat32
	}
	return &OpenAIModel{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temp,
		maxTokens:   maxTokens,
	}
}

func (m *OpenAIModel) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(msg.Role), Content: msg.Content})
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    msgs,
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIModel_Chat(t *testing.T) {
	var got struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":"the answer"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	m := NewOpenAIModel(srv.URL+"/v1", "sk-test", "gpt-4", 0, 200, srv.Client())
	out, err := m.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, "the answer", out)
	assert.Equal(t, "gpt-4", got.Model)
	assert.Equal(t, 200, got.MaxTokens)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "hi", got.Messages[0].Content)
}

func TestOpenAIModel_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":{"message":"boom","type":"server_error"}}`},
		{"no choices", http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			m := NewOpenAIModel(srv.URL, "k", "gpt-4", 0.2, 50, srv.Client())
			_, err := m.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
			assert.Error(t, err)
		})
	}
}

func TestFlattenMessages(t *testing.T) {
	sys, usr := flattenMessages([]Message{
		{Role: RoleSystem, Content: "be brief"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "ok"},
		{Role: RoleUser, Content: "second"},
	})
	assert.Equal(t, "be brief", sys)
	assert.Equal(t, "first\n\nAssistant: ok\n\nsecond", usr)
}

func TestRateLimited(t *testing.T) {
	m := &scriptedModel{reply: func(string) (string, error) { return "ok", nil }}
	assert.Same(t, ChatModel(m), RateLimited(m, 0), "no limit returns the model itself")

	rl := RateLimited(m, 1000)
	out, err := rl.Chat(context.Background(), []Message{{Role: RoleUser, Content: "x"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RateLimited(m, 1).Chat(ctx, []Message{{Role: RoleUser, Content: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, m.calls())
}

func TestFuture(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (int, error) {
		<-release
		return 42, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "Wait gives up with its own context")

	close(release)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Go(context.Background(), func(context.Context) (string, error) { return "", boom }).Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestChatAsync(t *testing.T) {
	m := &scriptedModel{reply: func(p string) (string, error) { return "echo:" + p, nil }}
	out, err := ChatAsync(context.Background(), m, []Message{{Role: RoleUser, Content: "x"}}).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "echo:x", out)
}

func TestTiktoken(t *testing.T) {
	tok, err := NewTiktoken("gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "cl100k_base", tok.Encoding())
	assert.Equal(t, 2, CountTokens(tok, "hello world"))
	assert.Zero(t, CountTokens(tok, ""))

	text := "Transcript with <|endoftext|> and ünïcödé ✓"
	assert.Equal(t, text, tok.Decode(tok.Encode(text)))

	tok, err = NewTiktoken("gpt-4o-mini")
	require.NoError(t, err)
	assert.Contains(t, []string{"o200k_base", "cl100k_base"}, tok.Encoding())

	tok, err = NewTiktoken("some-local-model")
	require.NoError(t, err)
	assert.Equal(t, "cl100k_base", tok.Encoding())
}

func TestNewModel(t *testing.T) {
	tests := []struct {
		name    string
		cfg     engine.Config
		wantErr bool
	}{
		{"kit", engine.Config{LLMProvider: "kit", LLMAPIBase: "http://127.0.0.1:1/v1", LLMModel: "gpt-4"}, false},
		{"default provider is kit", engine.Config{LLMAPIBase: "http://127.0.0.1:1/v1", LLMModel: "gpt-4"}, false},
		{"kit without base", engine.Config{LLMProvider: "kit", LLMModel: "gpt-4"}, true},
		{"openai", engine.Config{LLMProvider: "OpenAI", LLMModel: "gpt-4", LLMRequestsPerSec: 2}, false},
		{"unknown provider", engine.Config{LLMProvider: "carrier-pigeon", LLMModel: "gpt-4"}, true},
		{"no model", engine.Config{LLMProvider: "openai"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewModel(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, engine.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m)
		})
	}
}

func TestFromConfig(t *testing.T) {
	cfg := engine.Config{
		LLMProvider:        "openai",
		LLMModel:           "gpt-4",
		LLMMaxOutputTokens: 200,
	}
	a, err := FromConfig(cfg, &staticFetcher{})
	require.NoError(t, err)
	assert.Equal(t, 8192-a.TemplateTokens()-200, a.ChunkBudget(), "context window comes from the model registry")

	cfg.LLMContextWindow = 210
	_, err = FromConfig(cfg, &staticFetcher{})
	assert.ErrorIs(t, err, engine.ErrConfiguration, "templates plus output do not fit 210 tokens")
}

package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwan116/structured-output-llm/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		Model:        "gpt-4o-mini",
		Organization: "org-123",
		HTTPClient:   srv.Client(),
	}, nil)
}

func successBody(content string) string {
	return `{
		"id": "chatcmpl-1",
		"model": "gpt-4o-mini",
		"created": 1756166400,
		"choices": [
			{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": ` + mustQuote(content) + `}}
		],
		"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
	}`
}

func mustQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestProviderName(t *testing.T) {
	assert.Equal(t, "openai", New(Config{}, nil).Name())
}

func TestCompletionSuccess(t *testing.T) {
	var got wireRequest
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "org-123", r.Header.Get("OpenAI-Organization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(successBody(`{"value": 2}`)))
	})

	resp, err := provider.Completion(context.Background(), &llm.ChatRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: "answer me"}},
		MaxTokens:   100,
		Temperature: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model, "empty request model falls back to config")
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, 100, got.MaxTokens)

	assert.Equal(t, `{"value": 2}`, resp.FirstText())
	assert.Equal(t, "openai", resp.Provider)
	assert.Equal(t, 49, resp.Usage.TotalTokens)
	assert.Equal(t, time.Unix(1756166400, 0), resp.CreatedAt)
}

func TestCompletionRequestModelWins(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var got wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "gpt-4o", got.Model)
		w.Write([]byte(successBody("ok")))
	})

	_, err := provider.Completion(context.Background(), &llm.ChatRequest{
		Model:    "gpt-4o",
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.NoError(t, err)
}

func TestCompletionErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      llm.ErrorCode
		retryable bool
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`,
			code:   llm.ErrUnauthorized,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"error": {"message": "Rate limit reached"}}`,
			code:      llm.ErrRateLimited,
			retryable: true,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   `{"error": {"message": "Invalid value for temperature"}}`,
			code:   llm.ErrInvalidRequest,
		},
		{
			name:   "quota exhausted",
			status: http.StatusBadRequest,
			body:   `{"error": {"message": "You exceeded your current quota"}}`,
			code:   llm.ErrQuotaExceeded,
		},
		{
			name:      "overloaded",
			status:    http.StatusServiceUnavailable,
			body:      `{"error": {"message": "The engine is currently overloaded"}}`,
			code:      llm.ErrModelOverloaded,
			retryable: true,
		},
		{
			name:      "internal error",
			status:    http.StatusInternalServerError,
			body:      "upstream blew up",
			code:      llm.ErrUpstreamError,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := provider.Completion(context.Background(), &llm.ChatRequest{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
			})
			require.Error(t, err)

			llmErr, ok := llm.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, llmErr.Code)
			assert.Equal(t, tt.status, llmErr.HTTPStatus)
			assert.Equal(t, tt.retryable, llmErr.Retryable)
			assert.Equal(t, "openai", llmErr.Provider)
		})
	}
}

func TestCompletionErrorMessageExtraction(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	})

	_, err := provider.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Contains(t, err.Error(), "invalid_request_error")
}

func TestCompletionMalformedResponse(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, err := provider.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)

	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrUpstreamError, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}

func TestCompletionEmptyChoices(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "chatcmpl-1", "model": "gpt-4o-mini", "choices": []}`))
	})

	_, err := provider.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)

	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrEmptyResponse, llmErr.Code)
	assert.False(t, llmErr.Retryable)
}

func TestCompletionNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	provider := New(Config{APIKey: "k", BaseURL: url}, nil)
	_, err := provider.Completion(context.Background(), &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)

	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrUpstreamError, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}

func TestCompletionDeadlineExceeded(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(successBody("late")))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := provider.Completion(ctx, &llm.ChatRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	})
	require.Error(t, err)

	llmErr, ok := llm.AsError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrUpstreamTimeout, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}

func TestDefaults(t *testing.T) {
	p := New(Config{APIKey: "k"}, nil)
	assert.Equal(t, defaultBaseURL, p.cfg.BaseURL)
	assert.Equal(t, defaultTimeout, p.cfg.Timeout)
}

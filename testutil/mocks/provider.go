// Package mocks provides test doubles for the llm.Provider interface.
//
// Supports fixed responses, scripted response sequences, and error
// injection, with full call recording.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/marwan116/structured-output-llm/llm"
)

// MockProvider is a scriptable llm.Provider implementation.
type MockProvider struct {
	mu sync.Mutex

	response  string
	responses []string
	err       error

	promptTokens     int
	completionTokens int

	calls          []Call
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	delay     time.Duration
	failAfter int
	callCount int
}

// Call records a single Completion invocation.
type Call struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Error    error
}

// NewMockProvider creates a mock that answers every call with a fixed
// placeholder response.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		response:         "mock response",
		promptTokens:     10,
		completionTokens: 20,
	}
}

// WithResponse sets a fixed response for every call.
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithResponses scripts a sequence: call N returns responses[N]. Calls
// beyond the script repeat the last entry.
func (m *MockProvider) WithResponses(responses ...string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append([]string{}, responses...)
	return m
}

// WithError makes every call fail with err.
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter makes calls fail once more than n have been made.
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithTokenUsage sets the usage reported on each response.
func (m *MockProvider) WithTokenUsage(prompt, completion int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promptTokens = prompt
	m.completionTokens = completion
	return m
}

// WithDelay adds artificial latency to each call.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithCompletionFunc overrides the response logic entirely.
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// Name implements llm.Provider.
func (m *MockProvider) Name() string { return "mock" }

// Completion implements llm.Provider.
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}

	if m.failAfter > 0 && m.callCount > m.failAfter {
		err := &llm.Error{
			Code:      llm.ErrUpstreamError,
			Message:   "mock provider: configured to fail",
			Retryable: true,
			Provider:  "mock",
		}
		m.calls = append(m.calls, Call{Request: req, Error: err})
		return nil, err
	}

	if m.err != nil {
		m.calls = append(m.calls, Call{Request: req, Error: m.err})
		return nil, m.err
	}

	if m.completionFunc != nil {
		resp, err := m.completionFunc(ctx, req)
		m.calls = append(m.calls, Call{Request: req, Response: resp, Error: err})
		return resp, err
	}

	content := m.response
	if len(m.responses) > 0 {
		idx := m.callCount - 1
		if idx >= len(m.responses) {
			idx = len(m.responses) - 1
		}
		content = m.responses[idx]
	}

	resp := &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: "mock",
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "stop",
				Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
			},
		},
		Usage: llm.ChatUsage{
			PromptTokens:     m.promptTokens,
			CompletionTokens: m.completionTokens,
			TotalTokens:      m.promptTokens + m.completionTokens,
		},
		CreatedAt: time.Now(),
	}

	m.calls = append(m.calls, Call{Request: req, Response: resp})
	return resp, nil
}

// Calls returns a copy of all recorded calls.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call{}, m.calls...)
}

// CallCount returns the number of Completion invocations.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastCall returns the most recent recorded call, or nil.
func (m *MockProvider) LastCall() *Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	call := m.calls[len(m.calls)-1]
	return &call
}

// Reset clears recorded calls and injected errors.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
	m.err = nil
}

// NewScriptedProvider creates a mock that plays back a response
// sequence, one per call.
func NewScriptedProvider(responses ...string) *MockProvider {
	return NewMockProvider().WithResponses(responses...)
}

// NewErrorProvider creates a mock that always fails with err.
func NewErrorProvider(err error) *MockProvider {
	return NewMockProvider().WithError(err)
}

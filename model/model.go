// Package model defines the stateless generation capability consumed by the
// agent registry: a prompt plus parameters in, content with token and cost
// accounting out, optionally as a stream of chunks. Provider adapters live in
// sub-packages (anthropic, openai); MockModel serves tests and local wiring.
package model

import (
	"context"
	"fmt"
)

// Request is one generation call. Prompt carries the contextual prompt built
// by the caller; SystemPrompt the persona instructions. When Stream is set
// the model emits partial chunks before the final response.
type Request struct {
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Prompt       string  `json:"prompt"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int64   `json:"max_tokens"`
	Stream       bool    `json:"stream,omitempty"`
}

// TokenUsage captures token accounting for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial chunks
// carry incremental content; the final chunk carries the finish reason plus
// usage and cost when the provider reports them.
type Response struct {
	Content      string      `json:"content"`
	Partial      bool        `json:"partial"`
	FinishReason string      `json:"finish_reason,omitempty"` // "stop", "length", "cancelled", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
	Cost         float64     `json:"cost,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface required to drive generation. Generate
// returns immediately; responses and at most one terminal error arrive on
// the channels, which are closed when the call completes. Implementations
// must honor context cancellation and stop emitting chunks once ctx is done.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and local
// development wiring.
type MockModel struct {
	info      Info
	responses map[string]string
}

// NewMockModel constructs a MockModel.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: provider},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming char chunks then the
// final response with synthetic usage accounting.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if req.Prompt == "" {
			errCh <- fmt.Errorf("no prompt provided")
			return
		}
		full := m.responses[req.Prompt]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", req.Prompt)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: string(r)}:
				}
			}
		}
		usage := &TokenUsage{
			PromptTokens:     len(req.Prompt) / 4,
			CompletionTokens: len(full) / 4,
		}
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case respCh <- Response{Content: full, FinishReason: "stop", Usage: usage}:
		}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// Collect drains a Generate call synchronously, concatenating partial chunks
// and returning the final response content. A terminal error wins over any
// accumulated content.
func Collect(respCh <-chan Response, errCh <-chan error) (Response, error) {
	var final Response
	for resp := range respCh {
		if resp.Partial {
			continue
		}
		final = resp
	}
	if err := <-errCh; err != nil {
		return Response{}, err
	}
	return final, nil
}

package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/faisca-ai/faisca/core"
)

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual tool exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// NewToolDefinition builds a function-typed tool declaration.
func NewToolDefinition(name, description string, parameters map[string]any) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// Params are per-request sampling knobs. Zero values defer to provider or
// adapter defaults.
type Params struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int64   `json:"max_tokens,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// Request captures the normalized input for one completion round trip.
type Request struct {
	Instructions string           `json:"instructions"` // System instructions
	History      []core.Turn      `json:"history"`      // Ordered conversation so far
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Params       Params           `json:"params,omitempty"`
}

// FinishReason is the normalized stop condition of a completion.
type FinishReason string

const (
	// FinishStop means the model produced a final text answer.
	FinishStop FinishReason = "stop"
	// FinishToolCalls means the model requested one or more tool invocations.
	FinishToolCalls FinishReason = "tool_calls"
	// FinishLength means the provider truncated the output at its token cap.
	FinishLength FinishReason = "length"
)

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another round trip's usage into u.
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Response is the outcome of one completion round trip. Text and ToolCalls
// may both be present; FinishReason tells the orchestrator whether to loop.
type Response struct {
	Text         string          `json:"text,omitempty"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason FinishReason    `json:"finish_reason"`
	Usage        TokenUsage      `json:"usage"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the completion backend contract. Complete performs exactly one
// round trip; the orchestrator owns looping and its bound.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// replays a scripted sequence of responses, one per Complete call, and
// records every request it receives.
type MockModel struct {
	mu       sync.Mutex
	info     Info
	script   []scripted
	requests []Request
}

type scripted struct {
	resp *Response
	err  error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
	}
}

// EnqueueText scripts a final text answer for the next round trip.
func (m *MockModel) EnqueueText(text string) *MockModel {
	return m.Enqueue(&Response{Text: text, FinishReason: FinishStop})
}

// EnqueueToolCalls scripts a tool-call round trip.
func (m *MockModel) EnqueueToolCalls(calls ...core.ToolCall) *MockModel {
	return m.Enqueue(&Response{ToolCalls: calls, FinishReason: FinishToolCalls})
}

// Enqueue scripts an arbitrary response for the next round trip.
func (m *MockModel) Enqueue(resp *Response) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, scripted{resp: resp})

	return m
}

// EnqueueError scripts a backend failure for the next round trip.
func (m *MockModel) EnqueueError(err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.script = append(m.script, scripted{err: err})

	return m
}

// Complete implements Model. It pops the next scripted step; with an empty
// script it echoes the last user turn so simple tests need no setup.
func (m *MockModel) Complete(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		step := m.script[0]
		m.script = m.script[1:]

		if step.err != nil {
			return nil, step.err
		}

		return step.resp, nil
	}

	var last string
	for i := len(req.History) - 1; i >= 0; i-- {
		if req.History[i].Role == core.RoleUser {
			last = req.History[i].Content
			break
		}
	}

	return &Response{
		Text:         fmt.Sprintf("Mock response to: %s", last),
		FinishReason: FinishStop,
	}, nil
}

// Requests returns a copy of every request seen so far, in order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.requests))
	copy(out, m.requests)

	return out
}

// CallCount returns how many times Complete was invoked.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.requests)
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

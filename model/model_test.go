package model

import (
	"context"
	"testing"

	"github.com/faisca-ai/faisca/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModelScriptedOrder(t *testing.T) {
	m := NewMockModel("test", "mock").
		EnqueueToolCalls(core.ToolCall{ID: "call_1", Name: "lookup", Arguments: map[string]any{"q": "go"}}).
		EnqueueText("done")

	resp, err := m.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, FinishToolCalls, resp.FinishReason)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "lookup", resp.ToolCalls[0].Name)

	resp, err = m.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, FinishStop, resp.FinishReason)
	assert.Equal(t, "done", resp.Text)

	assert.Equal(t, 2, m.CallCount())
}

func TestMockModelEchoFallback(t *testing.T) {
	m := NewMockModel("test", "mock")

	resp, err := m.Complete(context.Background(), Request{
		History: []core.Turn{core.NewUserTurn("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Text)
	assert.Equal(t, FinishStop, resp.FinishReason)
}

func TestMockModelRecordsRequests(t *testing.T) {
	m := NewMockModel("test", "mock").EnqueueText("ok")

	_, err := m.Complete(context.Background(), Request{Instructions: "be brief"})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "be brief", reqs[0].Instructions)
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	u.Add(TokenUsage{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5})

	assert.Equal(t, 13, u.PromptTokens)
	assert.Equal(t, 7, u.CompletionTokens)
	assert.Equal(t, 20, u.TotalTokens)
}

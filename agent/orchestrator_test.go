package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/delivery"
	"github.com/faisca-ai/faisca/dispatch"
	"github.com/faisca-ai/faisca/model"
	"github.com/faisca-ai/faisca/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDispatcher(t *testing.T, defs ...*tool.Definition) *dispatch.Dispatcher {
	t.Helper()

	exec := tool.NewExecutor(tool.NewRegistry(defs...), func(o *tool.ExecutorOptions) {
		o.CodeTimeout = 100 * time.Millisecond
	})

	return dispatch.New(exec)
}

func TestProcessDirectAnswer(t *testing.T) {
	backend := model.NewMockModel("test", "mock").EnqueueText("final answer")
	orch := New(backend, testDispatcher(t), &Profile{Name: "Ana"})

	outcome, err := orch.Process(context.Background(), Request{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "final answer", outcome.Answer)
	assert.False(t, outcome.Truncated)
	assert.Empty(t, outcome.ToolsInvoked)
	assert.Equal(t, 1, backend.CallCount())

	// The request carried the profile's system prompt.
	reqs := backend.Requests()
	assert.Contains(t, reqs[0].Instructions, "You are Ana.")
}

func TestProcessToolCallLoop(t *testing.T) {
	greet := &tool.Definition{Name: "greet", Kind: tool.KindCode, Source: `"hello " + args.name`}

	backend := model.NewMockModel("test", "mock").
		EnqueueToolCalls(core.ToolCall{ID: "call_1", Name: "greet", Arguments: map[string]any{"name": "Ana"}}).
		EnqueueText("done")

	orch := New(backend, testDispatcher(t, greet), &Profile{})

	outcome, err := orch.Process(context.Background(), Request{Message: "greet Ana"})
	require.NoError(t, err)
	assert.Equal(t, "done", outcome.Answer)
	assert.Equal(t, []string{"greet"}, outcome.ToolsInvoked)
	assert.Positive(t, len(outcome.History))

	// The second request's history carries the tool result linked by call id.
	second := backend.Requests()[1]
	var toolTurn *core.Turn
	for i := range second.History {
		if second.History[i].Role == core.RoleTool {
			toolTurn = &second.History[i]
		}
	}
	require.NotNil(t, toolTurn)
	assert.Equal(t, "call_1", toolTurn.CallID)
	assert.Contains(t, toolTurn.Content, "hello Ana")
}

func TestProcessNeverExceedsRoundTripCeiling(t *testing.T) {
	noop := &tool.Definition{Name: "noop", Kind: tool.KindCode, Source: `"ok"`}

	backend := model.NewMockModel("test", "mock")
	for i := 0; i < 15; i++ {
		backend.EnqueueToolCalls(core.ToolCall{ID: core.NewID(), Name: "noop", Arguments: map[string]any{}})
	}

	orch := New(backend, testDispatcher(t, noop), &Profile{})

	outcome, err := orch.Process(context.Background(), Request{Message: "loop forever"})
	require.NoError(t, err)
	assert.True(t, outcome.Truncated)
	assert.Equal(t, MaxRoundTrips, backend.CallCount(), "the eleventh iteration must not happen")
	assert.Len(t, outcome.ToolsInvoked, MaxRoundTrips)
}

func TestProcessBatchMergesAllResultsInOrder(t *testing.T) {
	fast := &tool.Definition{Name: "fast", Kind: tool.KindCode, Source: `"fast result"`}
	slow := &tool.Definition{Name: "slow", Kind: tool.KindCode, Source: `while (true) {}`}
	other := &tool.Definition{Name: "other", Kind: tool.KindCode, Source: `"other result"`}

	backend := model.NewMockModel("test", "mock").
		EnqueueToolCalls(
			core.ToolCall{ID: "call_a", Name: "fast", Arguments: map[string]any{}},
			core.ToolCall{ID: "call_b", Name: "slow", Arguments: map[string]any{}},
			core.ToolCall{ID: "call_c", Name: "other", Arguments: map[string]any{}},
		).
		EnqueueText("done")

	orch := New(backend, testDispatcher(t, fast, slow, other), &Profile{})

	outcome, err := orch.Process(context.Background(), Request{Message: "run all three"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fast", "slow", "other"}, outcome.ToolsInvoked)

	second := backend.Requests()[1]
	var toolTurns []core.Turn
	for _, turn := range second.History {
		if turn.Role == core.RoleTool {
			toolTurns = append(toolTurns, turn)
		}
	}
	require.Len(t, toolTurns, 3, "the timed-out call must not be omitted")
	assert.Equal(t, "call_a", toolTurns[0].CallID)
	assert.Equal(t, "call_b", toolTurns[1].CallID)
	assert.Equal(t, "call_c", toolTurns[2].CallID)
	assert.Contains(t, toolTurns[1].Content, string(core.ErrTimeout))
}

func TestProcessBackendFailureAborts(t *testing.T) {
	failing := errors.New("connection reset")
	backend := model.NewMockModel("test", "mock").EnqueueError(failing)

	orch := New(backend, testDispatcher(t), &Profile{})

	_, err := orch.Process(context.Background(), Request{Message: "hello"})
	require.Error(t, err)

	var invErr *core.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, core.ErrCompletionBackend, invErr.Code)
}

func TestProcessDeliversAtDispatchTime(t *testing.T) {
	notify := &tool.Definition{
		Name:   "notify",
		Kind:   tool.KindCode,
		Source: `"your order shipped"`,
		Output: tool.Output{Destination: "user", Channel: "text"},
	}

	recorder := delivery.NewRecorder()

	backend := model.NewMockModel("test", "mock").
		EnqueueToolCalls(core.ToolCall{ID: "call_1", Name: "notify", Arguments: map[string]any{}}).
		EnqueueText("told the user")

	orch := New(backend, testDispatcher(t, notify), &Profile{}, func(o *Options) {
		o.Messenger = recorder
	})

	outcome, err := orch.Process(context.Background(), Request{Message: "notify me", Recipient: "user-42"})
	require.NoError(t, err)
	assert.Equal(t, "told the user", outcome.Answer)

	msgs := recorder.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "user-42", msgs[0].Recipient)
	assert.Equal(t, "your order shipped", msgs[0].Payload)
	assert.Equal(t, core.ChannelText, msgs[0].Channel)

	// The model sees a delivery confirmation, not the payload.
	second := backend.Requests()[1]
	last := second.History[len(second.History)-1]
	assert.Equal(t, core.RoleTool, last.Role)
	assert.Contains(t, last.Content, "delivered to user")
	assert.False(t, strings.Contains(last.Content, "your order shipped"))
}

func TestProcessAppendsPostInstruction(t *testing.T) {
	echo := &tool.Definition{
		Name:   "echo",
		Kind:   tool.KindCode,
		Source: `"payload"`,
		Output: tool.Output{PostInstruction: "Answer in one sentence."},
	}

	backend := model.NewMockModel("test", "mock").
		EnqueueToolCalls(core.ToolCall{ID: "call_1", Name: "echo", Arguments: map[string]any{}}).
		EnqueueText("done")

	orch := New(backend, testDispatcher(t, echo), &Profile{})

	_, err := orch.Process(context.Background(), Request{Message: "go"})
	require.NoError(t, err)

	second := backend.Requests()[1]
	last := second.History[len(second.History)-1]
	assert.Contains(t, last.Content, "Answer in one sentence.")
}

func TestProcessUnknownToolFedBack(t *testing.T) {
	backend := model.NewMockModel("test", "mock").
		EnqueueToolCalls(core.ToolCall{ID: "call_1", Name: "ghost", Arguments: map[string]any{}}).
		EnqueueText("adapted")

	orch := New(backend, testDispatcher(t), &Profile{})

	outcome, err := orch.Process(context.Background(), Request{Message: "use ghost"})
	require.NoError(t, err, "a tool failure must not abort the turn")
	assert.Equal(t, "adapted", outcome.Answer)

	second := backend.Requests()[1]
	last := second.History[len(second.History)-1]
	assert.Contains(t, last.Content, string(core.ErrUnknownTool))
}

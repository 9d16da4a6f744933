package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/delivery"
	"github.com/faisca-ai/faisca/dispatch"
	"github.com/faisca-ai/faisca/logging"
	"github.com/faisca-ai/faisca/model"
)

// MaxRoundTrips is the ceiling on completion round trips within one turn.
// Unbounded agentic loops risk runaway cost and latency; ten is a deliberate
// ceiling, not a tuning artifact.
const MaxRoundTrips = 10

// Request is everything one processing turn needs. History and recipient
// travel with the request so concurrent conversations share no state.
type Request struct {
	// Message is the inbound end-user message.
	Message string
	// History is the prior conversation, oldest first.
	History []core.Turn
	// Recipient identifies the end user for out-of-band tool deliveries.
	Recipient string
	// State is optional template state for the system prompt.
	State map[string]any
}

// Outcome is the result of one processing turn.
type Outcome struct {
	// Answer is the final (or best partial) textual answer.
	Answer string
	// Truncated is set when the round-trip ceiling forced termination.
	Truncated bool
	// Usage accumulates token usage across every round trip.
	Usage model.TokenUsage
	// ToolsInvoked lists dispatched call names in the order received.
	ToolsInvoked []string
	// History is the full post-turn history, ready to persist.
	History []core.Turn
}

// Options configures an Orchestrator.
type Options struct {
	MaxRoundTrips int
	Params        model.Params
	Messenger     delivery.Messenger
	Logger        logging.Logger
}

// Orchestrator drives one conversation turn: it alternates between the
// completion backend and the dispatcher until the backend stops asking for
// tools or the round-trip ceiling is reached.
type Orchestrator struct {
	backend    model.Model
	dispatcher *dispatch.Dispatcher
	profile    *Profile

	maxRoundTrips int
	params        model.Params
	messenger     delivery.Messenger
	logger        logging.Logger
}

// New creates an orchestrator for one agent profile.
func New(backend model.Model, dispatcher *dispatch.Dispatcher, profile *Profile, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxRoundTrips: MaxRoundTrips,
		Messenger:     delivery.Nop{},
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Orchestrator{
		backend:       backend,
		dispatcher:    dispatcher,
		profile:       profile,
		maxRoundTrips: opts.MaxRoundTrips,
		params:        opts.Params,
		messenger:     opts.Messenger,
		logger:        opts.Logger,
	}
}

// Process runs one turn to completion. It returns an error only on a
// completion-backend failure; every tool-level failure is folded into the
// conversation instead.
func (o *Orchestrator) Process(ctx context.Context, req Request) (*Outcome, error) {
	instructions, err := o.profile.RenderSystemPrompt(req.State)
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}

	state := core.NewConversationState(req.History, req.Message)
	limiter := core.NewRoundTripLimiter(o.maxRoundTrips)

	outcome := &Outcome{}

	for {
		trip, ok := limiter.Begin()
		if !ok {
			o.logger.Warn("agent.loop.truncated", "turn_id", state.TurnID, "round_trips", trip)
			outcome.Truncated = true
			outcome.History = state.History
			return outcome, nil
		}

		o.logger.Debug("agent.loop.iteration", "turn_id", state.TurnID, "iteration", trip)

		resp, err := o.backend.Complete(ctx, model.Request{
			Instructions: instructions,
			History:      state.History,
			Tools:        o.dispatcher.Declarations(),
			Params:       o.params,
		})
		if err != nil {
			o.logger.Error("agent.completion.failed", "turn_id", state.TurnID, "error", err.Error())
			return nil, asBackendFailure(err)
		}

		state.Iteration = trip
		outcome.Usage.Add(resp.Usage)

		if resp.Text != "" {
			outcome.Answer = resp.Text
		}

		if resp.FinishReason != model.FinishToolCalls || len(resp.ToolCalls) == 0 {
			state.Append(core.NewAssistantTurn(resp.Text, nil))
			outcome.History = state.History
			return outcome, nil
		}

		state.Append(core.NewAssistantTurn(resp.Text, resp.ToolCalls))

		results := o.dispatchBatch(ctx, state.TurnID, req.Recipient, resp.ToolCalls)
		for _, res := range results {
			state.Record(res)
			outcome.ToolsInvoked = append(outcome.ToolsInvoked, res.Name)
			state.Append(core.NewToolTurn(res.CallID, resultContent(res)))
		}
	}
}

// dispatchBatch fans the batch out concurrently and merges the results back
// in the order the calls were received, keyed by call identifier. End-user
// deliveries happen here, at dispatch time, not deferred to loop end.
func (o *Orchestrator) dispatchBatch(ctx context.Context, turnID, recipient string, calls []core.ToolCall) []core.InvocationResult {
	results := make([]core.InvocationResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)

		go func(i int, call core.ToolCall) {
			defer wg.Done()

			res := o.dispatcher.Dispatch(ctx, core.InvocationRequest{
				CallID:    call.ID,
				Name:      call.Name,
				Arguments: call.Arguments,
				TurnID:    turnID,
				Recipient: recipient,
			})

			if res.OK() && res.Destination.IncludesEndUser() {
				if err := o.messenger.Deliver(ctx, delivery.Message{
					Recipient: recipient,
					Payload:   res.Payload,
					Channel:   res.Channel,
				}); err != nil {
					o.logger.Warn("agent.delivery.failed", "turn_id", turnID, "tool", res.Name, "error", err.Error())
				} else {
					res.Delivered = true
				}
			}

			results[i] = res
		}(i, call)
	}
	wg.Wait()

	return results
}

// resultContent serializes an invocation result for the tool turn fed back
// to the backend. Failures become structured error descriptors; results
// routed only to the end user become a delivery confirmation.
func resultContent(res core.InvocationResult) string {
	var body any

	switch {
	case !res.OK():
		body = map[string]any{"error": res.Err}
	case !res.Destination.IncludesModel():
		body = map[string]any{"status": "delivered to user", "delivered": res.Delivered}
	default:
		body = res.Payload
	}

	raw, err := json.Marshal(body)
	content := string(raw)
	if err != nil {
		content = fmt.Sprintf("%v", body)
	}

	if res.PostInstruction != "" {
		content += "\n\n" + res.PostInstruction
	}

	return content
}

// asBackendFailure normalizes a completion error into the fatal taxonomy
// entry, preserving an already-typed failure.
func asBackendFailure(err error) error {
	var invErr *core.InvocationError
	if errors.As(err, &invErr) && invErr.Code == core.ErrCompletionBackend {
		return invErr
	}

	return core.NewInvocationError(core.ErrCompletionBackend, "%v", err)
}

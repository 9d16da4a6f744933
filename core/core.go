package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorCode categorizes an invocation failure. The set is closed by design:
// the dispatcher and orchestrator branch exhaustively over these values.
type ErrorCode string

const (
	// ErrUnknownTool indicates the requested call name resolved to no backend.
	ErrUnknownTool ErrorCode = "UNKNOWN_TOOL"
	// ErrMissingVariable indicates a var.* placeholder had no matching tool variable.
	ErrMissingVariable ErrorCode = "MISSING_VARIABLE"
	// ErrTimeout indicates a per-call deadline elapsed (code sandbox, HTTP or remote call).
	ErrTimeout ErrorCode = "TIMEOUT"
	// ErrNotConnected indicates an external client was invoked outside the Connected state.
	ErrNotConnected ErrorCode = "NOT_CONNECTED"
	// ErrRemoteTool indicates the transport succeeded but the remote side reported failure.
	ErrRemoteTool ErrorCode = "REMOTE_TOOL_ERROR"
	// ErrExecution indicates a code tool raised during evaluation.
	ErrExecution ErrorCode = "EXECUTION_ERROR"
	// ErrCompletionBackend indicates the completion backend failed after exhausting
	// its own retries. Unlike every other code it aborts the turn.
	ErrCompletionBackend ErrorCode = "COMPLETION_BACKEND_FAILURE"
)

// Destination controls where an invocation result is routed.
type Destination string

const (
	// DestinationModel feeds the result back into the conversation history only.
	DestinationModel Destination = "model"
	// DestinationEndUser delivers the result out-of-band to the end user only.
	DestinationEndUser Destination = "user"
	// DestinationBoth does both.
	DestinationBoth Destination = "both"
)

// IncludesModel reports whether results routed here reach the model.
func (d Destination) IncludesModel() bool {
	return d == DestinationModel || d == DestinationBoth || d == ""
}

// IncludesEndUser reports whether results routed here reach the end user.
func (d Destination) IncludesEndUser() bool {
	return d == DestinationEndUser || d == DestinationBoth
}

// Channel identifies the media kind of an end-user delivery.
type Channel string

const (
	// ChannelText is plain text delivery.
	ChannelText Channel = "text"
	// ChannelImage is image delivery.
	ChannelImage Channel = "image"
	// ChannelAudio is audio delivery.
	ChannelAudio Channel = "audio"
	// ChannelVideo is video delivery.
	ChannelVideo Channel = "video"
	// ChannelDocument is document delivery.
	ChannelDocument Channel = "document"
)

// InvocationRequest is the unit of work handed to the dispatcher: one tool
// call requested by the completion backend during one conversation turn.
type InvocationRequest struct {
	// CallID is the backend-assigned identifier correlating the call with its result.
	CallID string
	// Name is the advertised call name (custom tool name, the reserved
	// retrieval name, or an external:{client}:{tool} identifier).
	Name string
	// Arguments is the decoded argument mapping supplied by the backend.
	Arguments map[string]any
	// TurnID identifies the requesting conversation turn.
	TurnID string
	// Recipient identifies the end user for out-of-band delivery, when known.
	Recipient string
}

// InvocationError is the failure descriptor carried by an InvocationResult.
type InvocationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvocationError constructs a typed invocation failure.
func NewInvocationError(code ErrorCode, format string, args ...any) *InvocationError {
	return &InvocationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvocationResult is the outcome of a dispatched call: an opaque structured
// payload on success or a typed failure descriptor, plus the routing metadata
// propagated from the owning tool definition. A failed result is still a
// value, not a Go error: failures are information fed back to the model.
type InvocationResult struct {
	// CallID echoes the originating request's call identifier.
	CallID string `json:"call_id"`
	// Name echoes the call name the backend requested.
	Name string `json:"name"`
	// Payload is the success payload; nil when Err is set.
	Payload any `json:"payload,omitempty"`
	// Err is the failure descriptor; nil on success.
	Err *InvocationError `json:"error,omitempty"`
	// Destination and Channel carry the owning tool's output policy. Errors
	// always route to the model so it can adapt.
	Destination Destination `json:"destination,omitempty"`
	Channel     Channel     `json:"channel,omitempty"`
	// PostInstruction is an optional instruction string appended to the
	// payload when it is handed back to the model.
	PostInstruction string `json:"post_instruction,omitempty"`
	// Delivered records whether an out-of-band end-user send happened.
	Delivered bool `json:"delivered,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r InvocationResult) OK() bool { return r.Err == nil }

// ErrorResult builds a model-routed failure result for a call.
func ErrorResult(callID, name string, code ErrorCode, format string, args ...any) InvocationResult {
	return InvocationResult{
		CallID:      callID,
		Name:        name,
		Err:         NewInvocationError(code, format, args...),
		Destination: DestinationModel,
	}
}

// NewID generates a unique identifier for turns and tool calls.
func NewID() string { return uuid.NewString() }

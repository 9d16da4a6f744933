package core

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem carries the agent's system instructions.
	RoleSystem Role = "system"
	// RoleUser is an inbound end-user message.
	RoleUser Role = "user"
	// RoleAssistant is a completion-backend response (text and/or tool calls).
	RoleAssistant Role = "assistant"
	// RoleTool is a tool invocation result fed back to the backend.
	RoleTool Role = "tool"
)

// ToolCall is a structured tool request emitted by the completion backend.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Turn is one entry of the running conversation history.
//
// Assistant turns may carry ToolCalls alongside (or instead of) text; tool
// turns carry the serialized result of exactly one call, linked by CallID.
type Turn struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// CallID links a RoleTool turn to the assistant ToolCall it answers.
	CallID    string    `json:"call_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates a user-authored text turn.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Content: text, Timestamp: time.Now().UTC()}
}

// NewAssistantTurn creates an assistant turn with optional tool calls.
func NewAssistantTurn(text string, calls []ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: text, ToolCalls: calls, Timestamp: time.Now().UTC()}
}

// NewToolTurn creates a tool-result turn answering the given call.
func NewToolTurn(callID, content string) Turn {
	return Turn{Role: RoleTool, Content: content, CallID: callID, Timestamp: time.Now().UTC()}
}

// ConversationState is the ephemeral working state of one message-processing
// turn. It is created when a message begins processing and discarded after a
// final answer is emitted or the loop is aborted; the core never persists it.
type ConversationState struct {
	// TurnID uniquely identifies this processing turn.
	TurnID string
	// History is the ordered running history handed to the completion backend.
	History []Turn
	// Iteration counts completed completion round trips.
	Iteration int
	// Results accumulates every InvocationResult produced during the turn,
	// in the order the calls were received from the backend.
	Results []InvocationResult
}

// NewConversationState seeds working state from prior history plus the
// inbound message.
func NewConversationState(prior []Turn, message string) *ConversationState {
	history := make([]Turn, 0, len(prior)+1)
	history = append(history, prior...)
	history = append(history, NewUserTurn(message))

	return &ConversationState{
		TurnID:  NewID(),
		History: history,
	}
}

// Append adds a turn to the running history.
func (s *ConversationState) Append(t Turn) { s.History = append(s.History, t) }

// Record accumulates an invocation result produced this turn.
func (s *ConversationState) Record(r InvocationResult) { s.Results = append(s.Results, r) }

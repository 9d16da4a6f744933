// Package delivery defines the out-of-band messaging collaborator. The
// orchestrator sends a tool result through a Messenger whenever its output
// policy includes the end user; concrete channels (WhatsApp, Telegram, web)
// live behind this interface.
package delivery

import (
	"context"
	"sync"

	"github.com/faisca-ai/faisca/core"
)

// Message is one outbound end-user delivery.
type Message struct {
	Recipient string       `json:"recipient"`
	Payload   any          `json:"payload"`
	Channel   core.Channel `json:"channel"`
}

// Messenger delivers a payload to an end user over a media channel.
type Messenger interface {
	Deliver(ctx context.Context, msg Message) error
}

// Nop discards every delivery. Used when no messaging channel is wired.
type Nop struct{}

// Deliver implements Messenger.
func (Nop) Deliver(context.Context, Message) error { return nil }

// Recorder is an in-memory Messenger for tests; it records every delivery in
// order.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Deliver implements Messenger.
func (r *Recorder) Deliver(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, msg)

	return nil
}

// Messages returns a copy of everything delivered so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)

	return out
}

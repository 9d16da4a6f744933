package session

import "github.com/faisca-ai/faisca/core"

// DefaultHistoryLimit is how many recent turns a store hands back by default.
const DefaultHistoryLimit = 20

// Store persists per-conversation turn history across processing turns.
type Store interface {
	// History returns the most recent turns of a conversation, oldest first,
	// capped at limit (0 means DefaultHistoryLimit).
	History(conversationID string, limit int) ([]core.Turn, error)

	// Append adds turns to the end of a conversation's history.
	Append(conversationID string, turns ...core.Turn) error

	// Clear removes a conversation's history.
	Clear(conversationID string) error
}

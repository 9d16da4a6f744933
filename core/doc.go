// Package core provides the foundational domain types used by Faisca. It
// defines the shared abstractions for:
//
//   - InvocationRequest / InvocationResult (the unit of tool work and its outcome)
//   - The closed error-code taxonomy for tool and backend failures
//   - Output routing policies (destination + channel)
//   - Turns and the ephemeral per-message ConversationState
//
// The package intentionally keeps implementation concerns (executors,
// transports, completion backends) out of scope; every other package depends
// on core while core depends only on the standard library and the uuid
// generator.
package core

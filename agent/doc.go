// Package agent contains the conversation orchestrator: the bounded loop
// that alternates between requesting a completion and dispatching the tool
// calls the backend asks for, until a final answer is produced or the
// round-trip ceiling is hit.
//
// Design principles:
//   - No ambient mutable state - everything a turn needs travels in Request,
//     so multiple conversations run concurrently without interference
//   - Tool failure is information - error results are fed back into history
//     for the model to react to, never escalated as Go errors
//   - One hard ceiling - ten completion round trips per turn, after which
//     the best partial answer is returned and the turn marked truncated
//
// The package intentionally keeps persistence, model specifics and tool
// dispatch in their respective packages to avoid cyclic deps.
package agent

// Package model defines the provider-agnostic completion backend abstraction
// used by the Faisca orchestrator.
//
// Core goals:
//   - One synchronous Complete call per round trip (text and/or tool calls out)
//   - Normalized tool declaration shape (ToolDefinition) across vendors
//   - Token usage accounting surfaced uniformly
//   - Lightweight mocking for tests (MockModel scripts a response per round trip)
//
// Providers (e.g. OpenAI, Anthropic) implement the Model interface from this
// package so the orchestrator remains decoupled from vendor SDKs. WithRetry
// wraps any Model with bounded retries; exhaustion surfaces as a
// COMPLETION_BACKEND_FAILURE, the only error class that aborts a turn.
package model

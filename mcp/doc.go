// Package mcp implements the external protocol client manager: per-server
// clients with an explicit connection state machine, an idempotently
// synchronized tool catalog and one invocation lock per client so a remote
// server never sees two in-flight calls.
//
// Transports follow the Model Context Protocol via the official Go SDK:
// local stdio subprocesses, SSE streams and bidirectional streamable HTTP.
// The manager is transport-agnostic above the Transport interface.
package mcp

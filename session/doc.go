// Package session persists conversation history between turns. The Store
// interface keeps the orchestrator decoupled from storage; the in-memory
// implementation suits tests and ephemeral deployments.
//
// Add additional backends (Redis, Postgres, Firestore, etc.) in sub-packages
// without changing any calling code - only the wiring layer needs to decide
// which implementation to instantiate.
package session

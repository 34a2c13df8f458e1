// Package session holds per-session conversational state for the lifetime
// of the process.
//
// Each session identifier maps to exactly one Memory record. A record keeps
// a bounded transcript of conversation turns, a monotonically increasing
// request counter, and the most recent user message. Records are created
// lazily on first lookup and are never persisted; restarting the process
// starts every conversation from scratch.
//
// The Store guarantees identity stability: a given identifier always
// resolves to the same Memory instance, so mutations made during one turn
// are visible to every later lookup with the same identifier.
package session

// Package agent orchestrates one conversational turn: it binds a session
// identifier to memory, invokes the agent runtime with the rendered session
// summary and the session-scoped schema probe, extracts the final reply
// from the run's event log, and records both halves of the exchange in the
// transcript.
//
// The runtime is pluggable. Provider adapters for Anthropic and OpenAI
// translate the probe capability into a model-visible tool and the model's
// responses into the event log the orchestrator consumes.
package agent

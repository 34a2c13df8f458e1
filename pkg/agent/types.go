package agent

import (
	"github.com/fikri/sela/pkg/tools"
)

// Event kinds produced during an agent run. The orchestrator only inspects
// EventOutput; the rest exist for observers and diagnostics.
const (
	EventThinking   = "thinking"
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventOutput     = "output"
)

// Event is one record in the heterogeneous log an agent run produces.
type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

// TurnRequest carries everything a runtime needs for one agent turn.
type TurnRequest struct {
	SessionID      string
	ContextSummary string
	Input          string
	Probe          tools.Prober
}

// RunResult is the externally visible outcome of one turn.
type RunResult struct {
	SessionID     string `json:"sessionId"`
	Response      string `json:"response"`
	TotalRequests int    `json:"totalRequests"`
}

// EventObserver receives every event of a completed run, in order. Used by
// the stream broadcaster; may be nil.
type EventObserver func(sessionID string, event Event)

// RuntimeOptions configures a provider-backed runtime.
type RuntimeOptions struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

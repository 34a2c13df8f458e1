package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	// MaxTranscriptEntries bounds the transcript length. When an append
	// would exceed the bound, the oldest entries are dropped first.
	MaxTranscriptEntries = 20

	// summaryWindow is how many recent entries RenderSummary includes.
	summaryWindow = 5
)

// Entry is a single conversation turn. Entries are immutable once appended
// and keep their append order.
type Entry struct {
	Role       string    `json:"role"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Memory is the conversational state bound to one session identifier.
//
// Field access is guarded by mu. Turn serialization is a separate concern:
// callers that run a full conversational turn hold the turn lock via
// BeginTurn/EndTurn so that at most one in-flight turn mutates a given
// session's memory at a time.
type Memory struct {
	mu              sync.Mutex
	requestCount    int
	transcript      []Entry
	lastUserMessage string
	hasLastUser     bool
	lastActive      time.Time

	turnMu sync.Mutex
}

// NewMemory returns a zero-state record: no requests, empty transcript,
// no last user message.
func NewMemory() *Memory {
	return &Memory{lastActive: time.Now()}
}

// BeginTurn acquires the session's turn lock, blocking until any in-flight
// turn for the same session completes.
func (m *Memory) BeginTurn() {
	m.turnMu.Lock()
}

// EndTurn releases the session's turn lock.
func (m *Memory) EndTurn() {
	m.turnMu.Unlock()
}

// Append adds an entry to the end of the transcript, dropping entries from
// the front until the bound holds. The eviction is lossy by design; the
// transcript is bounded working memory, not a durable log.
func (m *Memory) Append(entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now()
	}

	m.transcript = append(m.transcript, entry)
	if overflow := len(m.transcript) - MaxTranscriptEntries; overflow > 0 {
		m.transcript = append(m.transcript[:0:0], m.transcript[overflow:]...)
	}
	m.lastActive = time.Now()
}

// SetLastUserMessage records the most recently received user message.
func (m *Memory) SetLastUserMessage(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserMessage = message
	m.hasLastUser = true
}

// LastUserMessage returns the most recent user message, and whether one has
// been recorded.
func (m *Memory) LastUserMessage() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUserMessage, m.hasLastUser
}

// CompleteTurn increments the request counter by exactly one and returns
// the new total. It is called once per completed turn, never per tool call.
func (m *Memory) CompleteTurn() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount++
	m.lastActive = time.Now()
	return m.requestCount
}

// RequestCount returns the number of completed turns for this session.
func (m *Memory) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// Transcript returns a copy of the transcript in append order.
func (m *Memory) Transcript() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.transcript))
	copy(out, m.transcript)
	return out
}

// LastActive reports when this record was last mutated.
func (m *Memory) LastActive() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActive
}

// RenderSummary produces a deterministic text rendering of the session
// state for prompting: identifier, request count, last user message, and
// the most recent entries in chronological order. It does not mutate.
func (m *Memory) RenderSummary(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Requests served: %d\n", m.requestCount)

	if m.hasLastUser {
		fmt.Fprintf(&b, "Last user message: %s\n", m.lastUserMessage)
	} else {
		b.WriteString("Last user message: (none)\n")
	}

	b.WriteString("Recent conversation:\n")
	if len(m.transcript) == 0 {
		b.WriteString("(no conversation yet)")
		return b.String()
	}

	start := 0
	if len(m.transcript) > summaryWindow {
		start = len(m.transcript) - summaryWindow
	}
	lines := make([]string, 0, summaryWindow)
	for _, entry := range m.transcript[start:] {
		lines = append(lines, fmt.Sprintf("%s %s: %s",
			entry.OccurredAt.Format(time.RFC3339),
			strings.ToUpper(entry.Role),
			entry.Message))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

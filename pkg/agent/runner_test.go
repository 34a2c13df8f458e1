package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fikri/sela/pkg/session"
	"github.com/fikri/sela/pkg/tools"
)

// stubRuntime returns canned events and records what it was asked.
type stubRuntime struct {
	events   []Event
	err      error
	requests []TurnRequest
}

func (s *stubRuntime) Start(ctx context.Context) error { return nil }

func (s *stubRuntime) RunTurn(ctx context.Context, req TurnRequest) ([]Event, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func newTestRunner(t *testing.T, runtime Runtime) (*Runner, *session.Store) {
	t.Helper()
	store := session.NewStore(zerolog.Nop())
	runner, err := NewRunner(Config{
		Store:   store,
		Runtime: runtime,
		Tools:   tools.NewClient(zerolog.Nop()),
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return runner, store
}

func TestNewRunner_Validation(t *testing.T) {
	store := session.NewStore(zerolog.Nop())
	runtime := &stubRuntime{}
	toolClient := tools.NewClient(zerolog.Nop())

	_, err := NewRunner(Config{Runtime: runtime, Tools: toolClient})
	assert.Error(t, err)

	_, err = NewRunner(Config{Store: store, Tools: toolClient})
	assert.Error(t, err)

	_, err = NewRunner(Config{Store: store, Runtime: runtime})
	assert.Error(t, err)
}

func TestRunTurn_HappyPath(t *testing.T) {
	runtime := &stubRuntime{events: []Event{
		{Kind: EventThinking, Payload: "let me see"},
		{Kind: EventOutput, Payload: "the answer"},
	}}
	runner, store := newTestRunner(t, runtime)

	result, err := runner.RunTurn(context.Background(), "sess-1", "what is the schema?")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", result.SessionID)
	assert.Equal(t, "the answer", result.Response)
	assert.Equal(t, 1, result.TotalRequests)

	mem, ok := store.Lookup("sess-1")
	require.True(t, ok)

	transcript := mem.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, session.RoleUser, transcript[0].Role)
	assert.Equal(t, "what is the schema?", transcript[0].Message)
	assert.Equal(t, session.RoleAssistant, transcript[1].Role)
	assert.Equal(t, "the answer", transcript[1].Message)

	msg, ok := mem.LastUserMessage()
	require.True(t, ok)
	assert.Equal(t, "what is the schema?", msg)
}

func TestRunTurn_GeneratesSessionID(t *testing.T) {
	runtime := &stubRuntime{events: []Event{{Kind: EventOutput, Payload: "hi"}}}
	runner, store := newTestRunner(t, runtime)

	result, err := runner.RunTurn(context.Background(), "", "hello")
	require.NoError(t, err)

	require.NotEmpty(t, result.SessionID)
	_, err = uuid.Parse(result.SessionID)
	assert.NoError(t, err)

	_, ok := store.Lookup(result.SessionID)
	assert.True(t, ok)
}

func TestRunTurn_FallbackDeterminism(t *testing.T) {
	runtime := &stubRuntime{events: []Event{
		{Kind: EventThinking, Payload: "pondering"},
		{Kind: EventToolResult, Payload: map[string]any{"ok": false}},
	}}
	runner, store := newTestRunner(t, runtime)

	result, err := runner.RunTurn(context.Background(), "sess-f", "hello")
	require.NoError(t, err)

	assert.Equal(t, FallbackReply, result.Response)

	mem, _ := store.Lookup("sess-f")
	transcript := mem.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, session.RoleAssistant, transcript[1].Role)
	assert.Equal(t, FallbackReply, transcript[1].Message)
}

func TestRunTurn_ExtractionPriorityEndToEnd(t *testing.T) {
	runtime := &stubRuntime{events: []Event{
		{Kind: EventOutput, Payload: map[string]any{"content": "A", "message": "B"}},
	}}
	runner, _ := newTestRunner(t, runtime)

	result, err := runner.RunTurn(context.Background(), "sess-p", "hello")
	require.NoError(t, err)
	assert.Equal(t, "A", result.Response)
}

func TestRunTurn_MonotonicCounting(t *testing.T) {
	runtime := &stubRuntime{events: []Event{{Kind: EventOutput, Payload: "ok"}}}
	runner, store := newTestRunner(t, runtime)

	const turns = 6
	for i := 1; i <= turns; i++ {
		result, err := runner.RunTurn(context.Background(), "sess-c", fmt.Sprintf("turn %d", i))
		require.NoError(t, err)
		assert.Equal(t, i, result.TotalRequests)
	}

	mem, _ := store.Lookup("sess-c")
	assert.Equal(t, turns, mem.RequestCount())
}

func TestRunTurn_SessionIsolation(t *testing.T) {
	runtime := &stubRuntime{events: []Event{{Kind: EventOutput, Payload: "ok"}}}
	runner, store := newTestRunner(t, runtime)

	_, err := runner.RunTurn(context.Background(), "sess-a", "question for a")
	require.NoError(t, err)
	_, err = runner.RunTurn(context.Background(), "sess-a", "another for a")
	require.NoError(t, err)
	_, err = runner.RunTurn(context.Background(), "sess-b", "question for b")
	require.NoError(t, err)

	memA, _ := store.Lookup("sess-a")
	memB, _ := store.Lookup("sess-b")

	assert.Equal(t, 2, memA.RequestCount())
	assert.Equal(t, 1, memB.RequestCount())

	for _, entry := range memB.Transcript() {
		assert.NotContains(t, entry.Message, "for a")
	}

	// Each run saw its own session-scoped probe and summary.
	require.Len(t, runtime.requests, 3)
	assert.Equal(t, "sess-a", runtime.requests[0].SessionID)
	assert.Equal(t, "sess-b", runtime.requests[2].SessionID)
	assert.Contains(t, runtime.requests[2].ContextSummary, "Session: sess-b")
	assert.NotContains(t, runtime.requests[2].ContextSummary, "for a")
}

func TestRunTurn_RunFaultKeepsUserTurn(t *testing.T) {
	runtime := &stubRuntime{err: fmt.Errorf("upstream model error")}
	runner, store := newTestRunner(t, runtime)

	_, err := runner.RunTurn(context.Background(), "sess-e", "doomed question")
	require.Error(t, err)

	mem, ok := store.Lookup("sess-e")
	require.True(t, ok)

	// The attempted question stays committed; nothing else advances.
	transcript := mem.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, session.RoleUser, transcript[0].Role)
	assert.Equal(t, "doomed question", transcript[0].Message)
	assert.Equal(t, 0, mem.RequestCount())
}

func TestRunTurn_SummaryReflectsCurrentMessage(t *testing.T) {
	runtime := &stubRuntime{events: []Event{{Kind: EventOutput, Payload: "ok"}}}
	runner, _ := newTestRunner(t, runtime)

	_, err := runner.RunTurn(context.Background(), "sess-s", "the current question")
	require.NoError(t, err)

	require.Len(t, runtime.requests, 1)
	summary := runtime.requests[0].ContextSummary
	assert.Contains(t, summary, "Last user message: the current question")
	assert.Contains(t, summary, "USER: the current question")
}

func TestRunTurn_ObserverSeesEventsInOrder(t *testing.T) {
	runtime := &stubRuntime{events: []Event{
		{Kind: EventToolCall, Payload: map[string]any{"name": "fetch_schema"}},
		{Kind: EventOutput, Payload: "done"},
	}}

	store := session.NewStore(zerolog.Nop())
	var seen []Event
	runner, err := NewRunner(Config{
		Store:   store,
		Runtime: runtime,
		Tools:   tools.NewClient(zerolog.Nop()),
		Logger:  zerolog.Nop(),
		Observer: func(sessionID string, event Event) {
			assert.Equal(t, "sess-o", sessionID)
			seen = append(seen, event)
		},
	})
	require.NoError(t, err)

	_, err = runner.RunTurn(context.Background(), "sess-o", "hello")
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, EventToolCall, seen[0].Kind)
	assert.Equal(t, EventOutput, seen[1].Kind)
}

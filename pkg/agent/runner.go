package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fikri/sela/pkg/session"
	"github.com/fikri/sela/pkg/tools"
)

// Runner drives conversational turns against the session store, the agent
// runtime, and the schema probe.
type Runner struct {
	store    *session.Store
	runtime  Runtime
	tools    *tools.Client
	observer EventObserver
	logger   zerolog.Logger
}

// Config holds runner dependencies.
type Config struct {
	Store    *session.Store
	Runtime  Runtime
	Tools    *tools.Client
	Observer EventObserver
	Logger   zerolog.Logger
}

// NewRunner creates a turn runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("agent runtime is required")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool client is required")
	}

	return &Runner{
		store:    cfg.Store,
		runtime:  cfg.Runtime,
		tools:    cfg.Tools,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}, nil
}

// Start initializes the underlying runtime. Called once at process startup.
func (r *Runner) Start(ctx context.Context) error {
	if err := r.runtime.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent runtime: %w", err)
	}
	return nil
}

// RunTurn executes one conversational turn. An empty sessionID binds the
// turn to a newly generated session.
//
// The user-message append commits before the runtime is invoked, so a run
// fault leaves the attempted question in the transcript: the request
// counter only advances and the assistant turn only appends when the run
// completes. Turns for the same session are serialized by the session's
// turn lock.
func (r *Runner) RunTurn(ctx context.Context, sessionID, userMessage string) (RunResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := r.logger.With().Str("session_key", sessionID).Logger()

	mem, err := r.store.GetOrCreate(sessionID)
	if err != nil {
		return RunResult{}, err
	}

	mem.BeginTurn()
	defer mem.EndTurn()

	mem.SetLastUserMessage(userMessage)
	mem.Append(session.Entry{
		Role:       session.RoleUser,
		Message:    userMessage,
		OccurredAt: time.Now(),
	})

	events, err := r.runtime.RunTurn(ctx, TurnRequest{
		SessionID:      sessionID,
		ContextSummary: mem.RenderSummary(sessionID),
		Input:          userMessage,
		Probe:          r.tools.ForSession(sessionID),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Agent run failed")
		return RunResult{}, fmt.Errorf("agent run failed: %w", err)
	}

	if r.observer != nil {
		for _, event := range events {
			r.observer(sessionID, event)
		}
	}

	reply := ExtractReply(events)

	mem.Append(session.Entry{
		Role:       session.RoleAssistant,
		Message:    reply,
		OccurredAt: time.Now(),
	})
	total := mem.CompleteTurn()

	logger.Info().
		Int("events", len(events)).
		Int("total_requests", total).
		Msg("Turn completed")

	return RunResult{
		SessionID:     sessionID,
		Response:      reply,
		TotalRequests: total,
	}, nil
}

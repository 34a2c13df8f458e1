package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fikri/sela/pkg/agent"
)

// streamMessage is one event on the wire.
type streamMessage struct {
	Kind      string `json:"kind"`
	Payload   any    `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster fans a session's run events out to its WebSocket subscribers.
// Subscriptions are keyed by session identifier, so one session's events
// never reach another session's watchers.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]map[chan streamMessage]struct{}
	logger zerolog.Logger
}

// NewBroadcaster creates an event broadcaster.
func NewBroadcaster(logger zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[string]map[chan streamMessage]struct{}),
		logger: logger,
	}
}

// Observer returns the run-event observer hook to install on the runner.
func (b *Broadcaster) Observer() agent.EventObserver {
	return func(sessionID string, event agent.Event) {
		b.publish(sessionID, streamMessage{
			Kind:      event.Kind,
			Payload:   event.Payload,
			Timestamp: time.Now().UnixMilli(),
		})
	}
}

func (b *Broadcaster) subscribe(sessionID string) chan streamMessage {
	ch := make(chan streamMessage, 32)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan streamMessage]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	return ch
}

func (b *Broadcaster) unsubscribe(sessionID string, ch chan streamMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[sessionID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.subs, sessionID)
		}
	}
}

func (b *Broadcaster) publish(sessionID string, msg streamMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- msg:
		default:
			b.logger.Warn().
				Str("session_key", sessionID).
				Str("kind", msg.Kind).
				Msg("Dropping event for slow stream subscriber")
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream upgrades the connection and forwards the session's run
// events until the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sessionId query parameter is required"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to upgrade stream connection")
		return
	}
	defer conn.Close()

	ch := s.broadcaster.subscribe(sessionID)
	defer s.broadcaster.unsubscribe(sessionID, ch)

	s.logger.Debug().Str("session_key", sessionID).Msg("Stream subscriber connected")

	// Reader goroutine only detects disconnect; clients send nothing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-ch:
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug().Err(err).Str("session_key", sessionID).Msg("Stream write failed")
				return
			}
		case <-closed:
			return
		}
	}
}

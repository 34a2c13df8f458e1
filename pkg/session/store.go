package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Store maps session identifiers to Memory records for the lifetime of the
// process. Identifiers are case-sensitive opaque strings; the only
// validation the store performs is rejecting the empty string.
//
// The table grows without bound: sessions are never explicitly destroyed.
// Idle-session eviction is an optional extension handled by Cleanup.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Memory
	logger   zerolog.Logger
}

// NewStore creates an empty session store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Memory),
		logger:   logger,
	}
}

// GetOrCreate returns the Memory bound to sessionID, creating a fresh
// zero-state record on first access. The same identifier always maps to
// the same instance.
func (s *Store) GetOrCreate(sessionID string) (*Memory, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	s.mu.RLock()
	mem, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return mem, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mem, ok := s.sessions[sessionID]; ok {
		return mem, nil
	}

	mem = NewMemory()
	s.sessions[sessionID] = mem

	s.logger.Debug().
		Str("session_key", sessionID).
		Int("sessions", len(s.sessions)).
		Msg("Session created")

	return mem, nil
}

// Lookup returns the Memory for sessionID without creating one.
func (s *Store) Lookup(sessionID string) (*Memory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mem, ok := s.sessions[sessionID]
	return mem, ok
}

// Len reports the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evict removes sessionID from the table. Used by the idle sweeper only.
func (s *Store) evict(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// snapshotIDs returns the identifiers currently in the table.
func (s *Store) snapshotIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// internal/game/session_store.go
package game

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/gpcards/internal/models"
	log "github.com/sirupsen/logrus"
)

// SessionStore is the process-wide registry of live sessions.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	deck        Deck
	sink        EventSink
	broadcastFn func(Snapshot)
}

// NewSessionStore creates an empty registry. Every session it creates draws
// from deck, reports milestones to sink and pushes each new snapshot to
// broadcastFn. sink and broadcastFn may be nil.
func NewSessionStore(deck Deck, sink EventSink, broadcastFn func(Snapshot)) *SessionStore {
	return &SessionStore{
		sessions:    make(map[uuid.UUID]*Session),
		deck:        deck,
		sink:        sink,
		broadcastFn: broadcastFn,
	}
}

// Create registers a new lobby with normalised settings.
func (s *SessionStore) Create(settings models.Settings) *Session {
	session := newSession(settings, s.deck, s.sink, s.broadcastFn)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	log.Infof("Session %s created (maxPlayers=%d, boardSize=%d).", session.ID, session.Settings.MaxPlayers, session.Settings.BoardSize)
	return session
}

// Get returns the live session with the given ID.
func (s *SessionStore) Get(id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[id]
	if !exists {
		return nil, actionErrorf(CodeNotFound, "session %s not found", id)
	}
	return session, nil
}

// Remove deletes the session. Removing an unknown ID is a no-op.
func (s *SessionStore) Remove(id uuid.UUID) {
	s.mu.Lock()
	session, exists := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !exists {
		return
	}
	remaining := session.close()
	log.Infof("Session %s removed with %d players left.", id, remaining)
}

// List returns snapshots of every live session, oldest first.
func (s *SessionStore) List() []Snapshot {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, session := range sessions {
		snaps = append(snaps, session.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

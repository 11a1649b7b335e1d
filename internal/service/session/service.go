package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

// Service keeps the live sessions of this process. Progression is shared by all of them.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Dependencies
}

// NewService validates the shared dependencies.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Content == nil:
		return nil, errors.New("session: content source is required")
	case deps.Progression == nil:
		return nil, errors.New("session: progression store is required")
	case deps.Categories == nil:
		return nil, errors.New("session: category store is required")
	case deps.Languages == nil:
		return nil, errors.New("session: language bundle is required")
	}

	return &Service{
		sessions: make(map[string]*Session),
		deps:     deps,
	}, nil
}

// Create starts a new session at the language gate, or at the welcome screen
// when a default language is configured.
func (s *Service) Create(_ context.Context) (*Session, error) {
	sess := newSession(uuid.NewString(), s.deps)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log.Printf("[session] created %s in state %s", sess.id, sess.Snapshot().State)
	return sess, nil
}

// Get retrieves a session by identifier.
func (s *Service) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Delete closes and forgets a session. Pending fetches of that session are discarded.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Close()
	log.Printf("[session] deleted %s", id)
	return nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close shuts every session down.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}

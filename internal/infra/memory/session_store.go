package memory

import (
	"sync"

	"livequiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions are indexed by their long code and by their join code.
type SessionStore struct {
	mu         sync.RWMutex
	sessions   map[string]*app.Session
	byJoinCode map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:   make(map[string]*app.Session),
		byJoinCode: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Code()] = session
	s.byJoinCode[session.JoinCode()] = session
}

func (s *SessionStore) GetByCode(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) GetByJoinCode(joinCode string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.byJoinCode[joinCode]
	return session, ok
}

func (s *SessionStore) JoinCodeTaken(joinCode string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byJoinCode[joinCode]
	return ok
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[code]
	if !ok {
		return
	}
	delete(s.sessions, code)
	delete(s.byJoinCode, session.JoinCode())
}

package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"livequiz-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - It still keeps a local in-memory map of sessions to reuse the existing
//     in-process broadcast logic.
//   - Redis holds a liveness marker per session and the join code index, so a
//     restarted or second instance cannot hand out a join code that is
//     already on screen somewhere.
//   - For true distribution you'd pair this with a pub/sub projector that fans out events.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration

	mu         sync.RWMutex
	sessions   map[string]*app.Session
	byJoinCode map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:     client,
		ttl:        ttl,
		sessions:   make(map[string]*app.Session),
		byJoinCode: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Code()] = session
	s.byJoinCode[session.JoinCode()] = session
	// best-effort liveness markers
	ctx := context.Background()
	_ = s.client.Set(ctx, s.sessionKey(session.Code()), session.JoinCode(), s.ttl).Err()
	_ = s.client.Set(ctx, s.joinCodeKey(session.JoinCode()), session.Code(), s.ttl).Err()
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
	_, ok := s.byJoinCode[joinCode]
	s.mu.RUnlock()
	if ok {
		return true
	}
	exists, err := s.client.Exists(context.Background(), s.joinCodeKey(joinCode)).Result()
	return err == nil && exists > 0
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
	ctx := context.Background()
	_ = s.client.Del(ctx, s.sessionKey(code)).Err()
	_ = s.client.Del(ctx, s.joinCodeKey(session.JoinCode())).Err()
}

func (s *SessionStore) sessionKey(code string) string {
	return "livequiz:session:" + code
}

func (s *SessionStore) joinCodeKey(joinCode string) string {
	return "livequiz:joincode:" + joinCode
}

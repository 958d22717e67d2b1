package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"livequiz-service/internal/domain"
)

// joinCodeSpace is the number of distinct 4-digit join codes.
const joinCodeSpace = 10000

// SessionRepository abstracts how live sessions are stored (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	GetByCode(code string) (*Session, bool)
	GetByJoinCode(joinCode string) (*Session, bool)
	JoinCodeTaken(joinCode string) bool
	Delete(code string)
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
}

// SessionService contains the session lifecycle and answer use cases. Every
// entry point (HTTP handler, socket handler) goes through it, so persisting
// and broadcasting happen in one place.
type SessionService struct {
	sessions  SessionRepository
	questions QuestionRepository

	mu  sync.Mutex // serializes join code allocation
	rng *rand.Rand
}

func NewSessionService(store SessionRepository, questions QuestionRepository) *SessionService {
	return &SessionService{
		sessions:  store,
		questions: questions,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(code, joinCode, name string, settings domain.Settings) *Session {
	return newSession(code, joinCode, name, settings)
}

// NewSessionWithClock is test-only for deterministic timestamps and shuffles.
func NewSessionWithClock(code, joinCode, name string, settings domain.Settings, now func() time.Time, rng *rand.Rand) *Session {
	return newSessionWithClock(code, joinCode, name, settings, now, rng)
}

// CreateSession allocates a fresh session in waiting state with a unique
// 4-digit join code and an opaque session code.
func (s *SessionService) CreateSession(name string, settings domain.Settings) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	joinCode, err := s.allocateJoinCodeLocked()
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	session := newSession(uuid.NewString(), joinCode, name, settings)
	s.sessions.Put(session)
	return session.snapshot(), nil
}

// allocateJoinCodeLocked picks an unused zero-padded numeric code. Random
// probes first, then a linear sweep so saturation is detected deterministically.
func (s *SessionService) allocateJoinCodeLocked() (string, error) {
	for i := 0; i < 32; i++ {
		code := fmt.Sprintf("%04d", s.rng.Intn(joinCodeSpace))
		if !s.sessions.JoinCodeTaken(code) {
			return code, nil
		}
	}
	offset := s.rng.Intn(joinCodeSpace)
	for i := 0; i < joinCodeSpace; i++ {
		code := fmt.Sprintf("%04d", (offset+i)%joinCodeSpace)
		if !s.sessions.JoinCodeTaken(code) {
			return code, nil
		}
	}
	return "", domain.ErrJoinCodesExhausted
}

// Resolve maps a human-entered join code to the session snapshot.
func (s *SessionService) Resolve(joinCode string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.GetByJoinCode(joinCode)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.snapshot(), nil
}

// Snapshot returns the current state view for a session code.
func (s *SessionService) Snapshot(code string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.snapshot(), nil
}

// Register adds a participant to a session and broadcasts the join.
func (s *SessionService) Register(code, name string) (domain.Participant, error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.Participant{}, domain.ErrSessionNotFound
	}
	return session.register(name)
}

// Attach marks a registered participant as connected.
func (s *SessionService) Attach(code, participantID string) (domain.Participant, error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.Participant{}, domain.ErrSessionNotFound
	}
	return session.attach(participantID)
}

// Detach marks a participant as disconnected. Nothing else is torn down; any
// in-flight write completes normally.
func (s *SessionService) Detach(code, participantID string) {
	if session, ok := s.sessions.GetByCode(code); ok {
		session.detach(participantID)
	}
}

// Subscribe returns a channel of broadcast events for a session. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(code string) (<-chan domain.Event, func(), error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// SendQuestion loads a question and makes it the session's current one,
// broadcasting it to all subscribers.
func (s *SessionService) SendQuestion(ctx context.Context, code, questionID string) error {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	return session.advance(question)
}

// SubmitAnswer scores and records a participant's answer. timeTaken < 0 means
// the client did not report one. Late answers are accepted; the per-question
// time limit is advisory for clients, not enforced here.
func (s *SessionService) SubmitAnswer(ctx context.Context, code, participantID, questionID, chosenAnswer string, timeTaken time.Duration) (domain.Answer, error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.Answer{}, domain.ErrSessionNotFound
	}
	question, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Answer{}, err
	}
	return session.submit(participantID, question, chosenAnswer, timeTaken)
}

// OverridePoints is the admin correction path; it replaces an answer's points
// and rebroadcasts the leaderboard.
func (s *SessionService) OverridePoints(code, answerID string, newPoints int) (domain.Answer, error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.Answer{}, domain.ErrSessionNotFound
	}
	return session.overridePoints(answerID, newPoints)
}

// RevealAnswer broadcasts the current question's correct answer.
func (s *SessionService) RevealAnswer(code string) error {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.reveal()
}

// ShowLeaderboard broadcasts the current ranking on admin request.
func (s *SessionService) ShowLeaderboard(code string) error {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.displayLeaderboard()
	return nil
}

// Leaderboard derives the current ranking without broadcasting it.
func (s *SessionService) Leaderboard(code string) (domain.Leaderboard, error) {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.Leaderboard{}, domain.ErrSessionNotFound
	}
	return session.leaderboard(), nil
}

// StartSession moves a waiting session to active.
func (s *SessionService) StartSession(code string) error {
	return s.withSession(code, (*Session).start)
}

// PauseSession moves an active session to paused.
func (s *SessionService) PauseSession(code string) error {
	return s.withSession(code, (*Session).pause)
}

// ResumeSession moves a paused session back to active.
func (s *SessionService) ResumeSession(code string) error {
	return s.withSession(code, (*Session).resume)
}

// FinishSession ends an active or paused session.
func (s *SessionService) FinishSession(code string) error {
	return s.withSession(code, (*Session).finish)
}

// ResetSession returns a session to waiting. Participants and historical
// answers survive unless the session was created with reset_clears_answers.
func (s *SessionService) ResetSession(code string) error {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.reset()
	return nil
}

func (s *SessionService) withSession(code string, fn func(*Session) error) error {
	session, ok := s.sessions.GetByCode(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return fn(session)
}

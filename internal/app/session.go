package app

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"livequiz-service/internal/domain"
)

// Session is the in-memory authority for one quiz session: lifecycle state,
// current question, roster, answers and the broadcast group. All mutations
// run under one mutex, so two near-simultaneous submissions for the same
// (participant, question) pair cannot both pass the duplicate check. Events
// are published while the lock is held, after the mutation took effect.
type Session struct {
	code      string
	joinCode  string
	name      string
	createdAt time.Time
	now       func() time.Time

	mu              sync.Mutex
	rng             *rand.Rand
	status          domain.SessionStatus
	settings        domain.Settings
	current         *domain.Question
	ordinal         int
	questionStarted time.Time
	showAnswers     bool
	showLeaderboard bool
	participants    map[string]*domain.Participant
	answers         map[string]*domain.Answer // keyed by participantID + "\x00" + questionID
	answersByID     map[string]*domain.Answer
	subscribers     map[chan domain.Event]struct{}
	autoReveal      *time.Timer
}

func newSession(code, joinCode, name string, settings domain.Settings) *Session {
	return newSessionWithClock(code, joinCode, name, settings, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// newSessionWithClock allows deterministic timestamps and shuffles in tests.
func newSessionWithClock(code, joinCode, name string, settings domain.Settings, now func() time.Time, rng *rand.Rand) *Session {
	return &Session{
		code:         code,
		joinCode:     joinCode,
		name:         name,
		createdAt:    now(),
		now:          now,
		rng:          rng,
		status:       domain.StatusWaiting,
		settings:     settings,
		participants: make(map[string]*domain.Participant),
		answers:      make(map[string]*domain.Answer),
		answersByID:  make(map[string]*domain.Answer),
		subscribers:  make(map[chan domain.Event]struct{}),
	}
}

// Code returns the long opaque session code used in links and group keys.
func (s *Session) Code() string { return s.code }

// JoinCode returns the short human-entered code. Stable once assigned.
func (s *Session) JoinCode() string { return s.joinCode }

func (s *Session) snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snapshot := domain.SessionSnapshot{
		SessionCode:     s.code,
		JoinCode:        s.joinCode,
		Name:            s.name,
		Status:          s.status,
		QuestionNumber:  s.ordinal,
		ShowAnswers:     s.showAnswers,
		ShowLeaderboard: s.showLeaderboard,
		Settings:        s.settings,
	}
	if s.current != nil {
		snapshot.CurrentQuestion = &domain.QuestionPayload{
			ID:        s.current.ID,
			Text:      s.current.Text,
			Category:  s.current.Category,
			Answers:   domain.ShuffledAnswers(*s.current, s.rng),
			TimeLimit: s.current.TimeLimit,
			Points:    s.current.Points,
			Number:    s.ordinal,
		}
	}
	return snapshot
}

// register adds a participant with a session-unique display name. An empty
// name gets a generated guest name.
func (s *Session) register(name string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusFinished {
		return domain.Participant{}, domain.ErrInvalidState
	}
	if s.status != domain.StatusWaiting && !s.settings.AllowLateJoins {
		return domain.Participant{}, domain.ErrLateJoin
	}
	if name == "" {
		name = fmt.Sprintf("Guest_%d", len(s.participants)+1)
	}
	for _, p := range s.participants {
		if p.Name == name {
			return domain.Participant{}, domain.ErrNameTaken
		}
	}

	participant := &domain.Participant{
		ID:       uuid.NewString(),
		Name:     name,
		LastSeen: s.now(),
	}
	s.participants[participant.ID] = participant

	s.publishLocked(domain.Event{Type: domain.EventParticipantJoined, Payload: domain.JoinedPayload{
		ID:     participant.ID,
		Name:   participant.Name,
		Points: participant.Points,
	}})
	return *participant, nil
}

// attach marks a registered participant as live on a connection.
func (s *Session) attach(participantID string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[participantID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	participant.Connected = true
	participant.LastSeen = s.now()

	s.publishLocked(domain.Event{Type: domain.EventParticipantJoined, Payload: domain.JoinedPayload{
		ID:     participant.ID,
		Name:   participant.Name,
		Points: participant.Points,
	}})
	return *participant, nil
}

func (s *Session) detach(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if participant, ok := s.participants[participantID]; ok {
		participant.Connected = false
		participant.LastSeen = s.now()
	}
}

func (s *Session) start() error {
	return s.transition(domain.StatusActive, domain.StatusWaiting)
}

func (s *Session) pause() error {
	return s.transition(domain.StatusPaused, domain.StatusActive)
}

func (s *Session) resume() error {
	return s.transition(domain.StatusActive, domain.StatusPaused)
}

func (s *Session) finish() error {
	return s.transition(domain.StatusFinished, domain.StatusActive, domain.StatusPaused)
}

func (s *Session) transition(to domain.SessionStatus, from ...domain.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, status := range from {
		if s.status == status {
			s.status = to
			if to != domain.StatusActive {
				s.cancelAutoRevealLocked()
			}
			return nil
		}
	}
	return domain.ErrInvalidState
}

// reset returns the session to waiting from any state. Participants and their
// historical answers survive unless the session was configured to clear them.
func (s *Session) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAutoRevealLocked()
	s.status = domain.StatusWaiting
	s.current = nil
	s.ordinal = 0
	s.questionStarted = time.Time{}
	s.showAnswers = false
	s.showLeaderboard = false

	if s.settings.ResetClearsAnswers {
		s.answers = make(map[string]*domain.Answer)
		s.answersByID = make(map[string]*domain.Answer)
		for _, p := range s.participants {
			p.Points = 0
		}
	}
}

// advance makes q the current question and broadcasts it with a fresh answer
// shuffle. Any stale answers tied to a previous occurrence of the same
// question are purged, so a question can be re-asked.
func (s *Session) advance(q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case domain.StatusWaiting, domain.StatusActive:
	default:
		return domain.ErrInvalidState
	}

	s.cancelAutoRevealLocked()
	s.purgeAnswersLocked(q.ID)
	s.current = &q
	s.ordinal++
	s.questionStarted = s.now()
	s.showAnswers = false

	s.publishLocked(domain.Event{Type: domain.EventNewQuestion, Payload: domain.QuestionPayload{
		ID:        q.ID,
		Text:      q.Text,
		Category:  q.Category,
		Answers:   domain.ShuffledAnswers(q, s.rng),
		TimeLimit: q.TimeLimit,
		Points:    q.Points,
		Number:    s.ordinal,
	}})

	if s.settings.AutoAdvance && q.TimeLimit > 0 {
		questionID := q.ID
		s.autoReveal = time.AfterFunc(time.Duration(q.TimeLimit)*time.Second, func() {
			s.revealExpired(questionID)
		})
	}
	return nil
}

// revealExpired is the auto-advance timer callback. It is a no-op if the admin
// advanced or revealed first, or if the session left the active state.
func (s *Session) revealExpired(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusActive || s.current == nil || s.current.ID != questionID || s.showAnswers {
		return
	}
	s.showAnswers = true
	s.publishLocked(domain.Event{Type: domain.EventShowCorrectAnswer, Payload: domain.RevealPayload{
		CorrectAnswer: s.current.CorrectAnswer,
		Explanation:   s.current.Explanation,
	}})
	s.publishLocked(domain.Event{Type: domain.EventLeaderboardUpdated, Payload: s.leaderboardLocked()})
}

func (s *Session) cancelAutoRevealLocked() {
	if s.autoReveal != nil {
		s.autoReveal.Stop()
		s.autoReveal = nil
	}
}

// purgeAnswersLocked drops all stored answers for one question and
// re-aggregates the totals of the affected participants.
func (s *Session) purgeAnswersLocked(questionID string) {
	affected := make(map[string]struct{})
	for key, answer := range s.answers {
		if answer.QuestionID == questionID {
			delete(s.answers, key)
			delete(s.answersByID, answer.ID)
			affected[answer.ParticipantID] = struct{}{}
		}
	}
	for participantID := range affected {
		s.recomputeTotalLocked(participantID)
	}
}

// submit records a first-submission-wins answer and re-aggregates the
// participant's total. timeTaken < 0 means the client did not report one.
func (s *Session) submit(participantID string, q domain.Question, chosenAnswer string, timeTaken time.Duration) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusFinished {
		return domain.Answer{}, domain.ErrInvalidState
	}
	participant, ok := s.participants[participantID]
	if !ok {
		return domain.Answer{}, domain.ErrParticipantNotFound
	}
	key := answerKey(participantID, q.ID)
	if _, exists := s.answers[key]; exists {
		return domain.Answer{}, domain.ErrDuplicateAnswer
	}

	result := domain.ScoreAnswer(q, chosenAnswer, timeTaken)
	answer := &domain.Answer{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		QuestionID:    q.ID,
		ChosenAnswer:  chosenAnswer,
		IsCorrect:     result.IsCorrect,
		PointsAwarded: result.PointsAwarded,
		TimeTaken:     timeTaken.Seconds(),
		SubmittedAt:   s.now(),
	}
	if timeTaken < 0 {
		answer.TimeTaken = -1
	}
	s.answers[key] = answer
	s.answersByID[answer.ID] = answer
	s.recomputeTotalLocked(participantID)
	participant.LastSeen = answer.SubmittedAt

	s.publishLocked(domain.Event{Type: domain.EventParticipantAnswered, Payload: domain.AnsweredPayload{
		ParticipantID: participant.ID,
		Name:          participant.Name,
		ChosenAnswer:  answer.ChosenAnswer,
		IsCorrect:     answer.IsCorrect,
		PointsAwarded: answer.PointsAwarded,
		TimeTaken:     answer.TimeTaken,
	}})
	return *answer, nil
}

// overridePoints replaces an answer's awarded points unconditionally and
// rebroadcasts the leaderboard.
func (s *Session) overridePoints(answerID string, newPoints int) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.answersByID[answerID]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	answer.PointsAwarded = newPoints
	s.recomputeTotalLocked(answer.ParticipantID)

	s.publishLocked(domain.Event{Type: domain.EventLeaderboardUpdated, Payload: s.leaderboardLocked()})
	return *answer, nil
}

// recomputeTotalLocked re-aggregates a participant's total from all their
// awarded points. Summing from scratch keeps totals right after overrides and
// purges; there is no incremental add to double count.
func (s *Session) recomputeTotalLocked(participantID string) {
	participant, ok := s.participants[participantID]
	if !ok {
		return
	}
	total := 0
	for _, answer := range s.answers {
		if answer.ParticipantID == participantID {
			total += answer.PointsAwarded
		}
	}
	participant.Points = total
}

// reveal broadcasts the current question's correct answer.
func (s *Session) reveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.ErrQuestionNotFound
	}
	s.cancelAutoRevealLocked()
	s.showAnswers = true
	s.publishLocked(domain.Event{Type: domain.EventShowCorrectAnswer, Payload: domain.RevealPayload{
		CorrectAnswer: s.current.CorrectAnswer,
		Explanation:   s.current.Explanation,
	}})
	return nil
}

// displayLeaderboard flags the leaderboard visible and broadcasts the ranking.
func (s *Session) displayLeaderboard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.showLeaderboard = true
	s.publishLocked(domain.Event{Type: domain.EventShowLeaderboard})
	s.publishLocked(domain.Event{Type: domain.EventLeaderboardUpdated, Payload: s.leaderboardLocked()})
}

func (s *Session) leaderboard() domain.Leaderboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaderboardLocked()
}

// leaderboardLocked derives the ranking on demand: points descending, name
// ascending for a deterministic tie-break. Never cached.
func (s *Session) leaderboardLocked() domain.Leaderboard {
	entries := make([]domain.LeaderboardEntry, 0, len(s.participants))
	for _, participant := range s.participants {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: participant.ID,
			Name:          participant.Name,
			Points:        participant.Points,
			Connected:     participant.Connected,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].Name < entries[j].Name
	})
	return domain.Leaderboard{
		SessionCode: s.code,
		Entries:     entries,
		UpdatedAt:   s.now(),
	}
}

// subscribe adds a connection to the session's broadcast group. The caller
// must invoke the returned cancel function to avoid leaks.
func (s *Session) subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) publishLocked(event domain.Event) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest queued event rather than block the publisher
			// on a slow consumer.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func answerKey(participantID, questionID string) string {
	return participantID + "\x00" + questionID
}

package domain

import "time"

// SessionStatus is the lifecycle state of a quiz session.
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusActive   SessionStatus = "active"
	StatusPaused   SessionStatus = "paused"
	StatusFinished SessionStatus = "finished"
)

// Settings controls per-session behavior.
type Settings struct {
	AutoAdvance        bool `json:"autoAdvance" yaml:"auto_advance"`
	AllowLateJoins     bool `json:"allowLateJoins" yaml:"allow_late_joins"`
	ResetClearsAnswers bool `json:"resetClearsAnswers" yaml:"reset_clears_answers"`
}

// Question is shared reference data. It is immutable once a session points at
// it, so shuffled answer views can be derived per read.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Category      string   `json:"category"`
	CorrectAnswer string   `json:"correctAnswer"`
	Distractors   []string `json:"distractors"`
	Points        int      `json:"points"`    // defaults to 1 if zero
	TimeLimit     int      `json:"timeLimit"` // seconds, advisory for clients
	Explanation   string   `json:"explanation"`
}

// Validate checks the invariants question content must satisfy before it is
// served to sessions.
func (q Question) Validate() error {
	for _, distractor := range q.Distractors {
		if distractor == q.CorrectAnswer {
			return ErrInvalidQuestion
		}
	}
	return nil
}

// Participant belongs to exactly one session. Names are unique per session.
type Participant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Points    int       `json:"points"`
	Connected bool      `json:"connected"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Answer records one participant's answer to one question. At most one answer
// exists per (participant, question) pair; the first submission wins.
type Answer struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	QuestionID    string    `json:"questionId"`
	ChosenAnswer  string    `json:"chosenAnswer"`
	IsCorrect     bool      `json:"isCorrect"`
	PointsAwarded int       `json:"pointsAwarded"`
	TimeTaken     float64   `json:"timeTaken"` // seconds, negative if not reported
	SubmittedAt   time.Time `json:"submittedAt"`
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
	Connected     bool   `json:"connected"`
}

// Leaderboard captures the ordered scoreboard for a session.
type Leaderboard struct {
	SessionCode string             `json:"sessionCode"`
	Entries     []LeaderboardEntry `json:"entries"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// SessionSnapshot is the read view handed to HTTP callers and to freshly
// accepted connections.
type SessionSnapshot struct {
	SessionCode     string        `json:"sessionCode"`
	JoinCode        string        `json:"joinCode"`
	Name            string        `json:"name"`
	Status          SessionStatus `json:"status"`
	QuestionNumber  int           `json:"questionNumber"`
	ShowAnswers     bool          `json:"showAnswers"`
	ShowLeaderboard bool          `json:"showLeaderboard"`
	Settings        Settings      `json:"settings"`
	// CurrentQuestion lets a client that connects mid-question render it
	// immediately; nil when no question is active.
	CurrentQuestion *QuestionPayload `json:"currentQuestion,omitempty"`
}

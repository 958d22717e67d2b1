package domain

// Event is one tagged message on a session's broadcast group. Type is the
// required discriminator; Payload shape depends on it.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Outbound event types carried by the broadcast channel.
const (
	EventConnectionEstablished = "connection_established"
	EventNewQuestion           = "new_question"
	EventParticipantAnswered   = "participant_answered"
	EventLeaderboardUpdated    = "leaderboard_updated"
	EventShowLeaderboard       = "show_leaderboard"
	EventShowCorrectAnswer     = "show_correct_answer"
	EventParticipantJoined     = "participant_joined"
	EventPong                  = "pong"
	EventError                 = "error"
)

// QuestionPayload is broadcast when the admin advances the question. Answers
// is a fresh shuffle of correct + distractors on every broadcast.
type QuestionPayload struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Category  string   `json:"category"`
	Answers   []string `json:"answers"`
	TimeLimit int      `json:"timeLimit"`
	Points    int      `json:"points"`
	Number    int      `json:"number"`
}

// AnsweredPayload is broadcast on every accepted submission.
type AnsweredPayload struct {
	ParticipantID string  `json:"participantId"`
	Name          string  `json:"name"`
	ChosenAnswer  string  `json:"chosenAnswer"`
	IsCorrect     bool    `json:"isCorrect"`
	PointsAwarded int     `json:"pointsAwarded"`
	TimeTaken     float64 `json:"timeTaken"`
}

// RevealPayload is broadcast when the admin reveals the correct answer.
type RevealPayload struct {
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation,omitempty"`
}

// JoinedPayload is broadcast when a participant registers or reconnects,
// primarily for the admin view.
type JoinedPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// ErrorPayload carries a rejection without closing the connection.
type ErrorPayload struct {
	Message string `json:"message"`
}

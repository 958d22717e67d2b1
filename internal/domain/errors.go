package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no session matches a code or join code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrParticipantNotFound is returned when a participant id is unknown to the session.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrQuestionNotFound indicates the question content could not be loaded.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates an answer id is unknown to the session.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrInvalidQuestion indicates question content violates its invariants.
	ErrInvalidQuestion = errors.New("correct answer must not appear among distractors")
	// ErrDuplicateAnswer is returned when a participant already answered a question.
	// The first submission wins; it is never overwritten silently.
	ErrDuplicateAnswer = errors.New("answer already submitted for this question")
	// ErrInvalidState is returned for lifecycle transitions the state machine forbids.
	ErrInvalidState = errors.New("operation not allowed in current session state")
	// ErrNameTaken is returned when a display name is already used in the session.
	ErrNameTaken = errors.New("display name already taken in this session")
	// ErrJoinCodesExhausted is returned once the join code space is saturated.
	ErrJoinCodesExhausted = errors.New("no free join codes available")
	// ErrLateJoin is returned when a session does not accept joins after start.
	ErrLateJoin = errors.New("session does not allow late joins")
)

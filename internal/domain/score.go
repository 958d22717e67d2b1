package domain

import "time"

const (
	// SpeedBonusPoints is added on top of the question's points for fast
	// correct answers.
	SpeedBonusPoints = 50
	// SpeedBonusWindow is the cutoff below which the bonus applies.
	SpeedBonusWindow = 5 * time.Second
)

// ScoreResult is the outcome of scoring a single submission.
type ScoreResult struct {
	IsCorrect     bool
	PointsAwarded int
}

// ScoreAnswer computes correctness and points for a submission. Correctness is
// an exact string match against the question's correct answer. A negative
// timeTaken means the client did not report one; no bonus is awarded then.
// Pure function, all persistence happens in the caller.
func ScoreAnswer(q Question, chosenAnswer string, timeTaken time.Duration) ScoreResult {
	if chosenAnswer != q.CorrectAnswer {
		return ScoreResult{}
	}
	points := q.Points
	if points == 0 {
		points = 1
	}
	if timeTaken >= 0 && timeTaken < SpeedBonusWindow {
		points += SpeedBonusPoints
	}
	return ScoreResult{IsCorrect: true, PointsAwarded: points}
}

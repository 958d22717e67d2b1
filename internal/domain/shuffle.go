package domain

import "math/rand"

// ShuffledAnswers returns the union of the correct answer and the distractors
// in the order produced by rng. Each call reshuffles, so repeated reads may
// reorder; the multiset is always the correct answer plus all distractors.
func ShuffledAnswers(q Question, rng *rand.Rand) []string {
	answers := make([]string, 0, len(q.Distractors)+1)
	answers = append(answers, q.CorrectAnswer)
	answers = append(answers, q.Distractors...)
	rng.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})
	return answers
}

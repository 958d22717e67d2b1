package domain

import (
	"math/rand"
	"sort"
	"testing"
)

func TestShuffledAnswersPreservesMultiset(t *testing.T) {
	question := Question{
		CorrectAnswer: "Paris",
		Distractors:   []string{"London", "Berlin", "Madrid"},
	}
	want := []string{"Berlin", "London", "Madrid", "Paris"}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		answers := ShuffledAnswers(question, rng)
		if len(answers) != 4 {
			t.Fatalf("expected 4 answers, got %d", len(answers))
		}
		got := append([]string(nil), answers...)
		sort.Strings(got)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("shuffle changed contents: %v", answers)
			}
		}
	}
}

func TestShuffledAnswersSeededOrderIsDeterministic(t *testing.T) {
	question := Question{
		CorrectAnswer: "a",
		Distractors:   []string{"b", "c", "d"},
	}

	first := ShuffledAnswers(question, rand.New(rand.NewSource(42)))
	second := ShuffledAnswers(question, rand.New(rand.NewSource(42)))
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different orders: %v vs %v", first, second)
		}
	}
}

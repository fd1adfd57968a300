package domain

import "math"

const (
	// DefaultPassingScore applies when a quiz does not override the threshold.
	DefaultPassingScore = 70
	// ExcellentThreshold marks the percentage that blocks further attempts.
	ExcellentThreshold = 90
)

// Score grades a submission against the quiz content. It is pure and
// deterministic: identical inputs always produce identical results.
//
// Unanswered questions (submission shorter than the question list) and
// out-of-range indices count as incorrect; extra indices beyond the
// question list are ignored. A question with no correct option aborts
// with a DataIntegrityError.
func Score(quiz Quiz, answers []AnswerIndex) (ScoringResult, error) {
	total := len(quiz.Questions)
	result := ScoringResult{
		Total:     total,
		Questions: make([]QuestionResult, 0, total),
	}

	for i, q := range quiz.Questions {
		correct := correctOptionIndex(q)
		if correct < 0 {
			return ScoringResult{}, &DataIntegrityError{QuizID: quiz.ID, Question: i}
		}

		selected := AnswerIndex(-1)
		if i < len(answers) {
			selected = answers[i]
		}
		right := int(selected) == correct
		if right {
			result.Score++
		}
		result.Questions = append(result.Questions, QuestionResult{
			Selected: selected,
			Correct:  correct,
			IsRight:  right,
		})
	}

	if total > 0 {
		result.Percentage = int(math.Round(float64(result.Score) / float64(total) * 100))
	}

	passingScore := quiz.PassingScore
	if passingScore == 0 {
		passingScore = DefaultPassingScore
	}
	result.Passed = result.Percentage >= passingScore
	result.IsExcellent = result.Percentage >= ExcellentThreshold
	return result, nil
}

func correctOptionIndex(q Question) int {
	for i, opt := range q.Options {
		if opt.Correct {
			return i
		}
	}
	return -1
}

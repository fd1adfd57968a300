package domain

import "time"

// DefaultMaxAttempts caps submissions before a failing streak triggers
// the quiz-level cooldown.
const DefaultMaxAttempts = 3

// StatusFor computes the attempts-status read contract for a quiz.
// Cooldown expiry is never stored; it is derived from the clock here.
func StatusFor(u *User, quizID string, maxAttempts int, now time.Time) AttemptStatus {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	status := AttemptStatus{
		QuizID:    quizID,
		HasPassed: u.HasPassedQuiz(quizID),
	}

	if rec := u.AttemptRecordFor(quizID); rec != nil {
		status.AttemptsUsed = rec.Attempts
		status.IsBlocked = rec.IsBlocked
		if rec.CooldownUntil != nil && now.Before(*rec.CooldownUntil) {
			status.IsInCooldown = true
			status.CooldownUntil = rec.CooldownUntil
		}
	}

	status.AttemptsRemaining = maxAttempts - status.AttemptsUsed
	if status.AttemptsRemaining < 0 {
		status.AttemptsRemaining = 0
	}
	status.CanAttempt = !status.IsInCooldown && (status.AttemptsRemaining > 0 || status.HasPassed)
	return status
}

// ApplyAttempt advances the per-quiz attempt record for one scored
// submission and returns the mutated record. The record is created at
// attempts=1 when absent. An excellent submission sets the block flag
// permanently; a failing submission at or past the cap opens a cooldown
// window. The block flag never auto-clears and does not by itself stop
// later submissions.
func ApplyAttempt(u *User, quizID string, result ScoringResult, maxAttempts int, cooldown time.Duration, now time.Time) *AttemptRecord {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	rec := u.AttemptRecordFor(quizID)
	if rec == nil {
		u.QuizAttempts = append(u.QuizAttempts, AttemptRecord{
			QuizID: quizID,
			Active: true,
		})
		rec = &u.QuizAttempts[len(u.QuizAttempts)-1]
	}

	rec.Attempts++
	rec.LastAttempt = now

	if result.IsExcellent && !rec.IsBlocked {
		rec.IsBlocked = true
		blockedAt := now
		rec.BlockedAt = &blockedAt
	}

	if rec.Attempts >= maxAttempts && !result.Passed {
		until := now.Add(cooldown)
		rec.CooldownUntil = &until
	}
	return rec
}

// DeactivateAttempts soft-deletes attempt records, either for one quiz
// or for all of them when quizID is empty. Deactivated records are
// invisible to StatusFor, so the next submission starts over at 1.
func DeactivateAttempts(u *User, quizID string) int {
	n := 0
	for i := range u.QuizAttempts {
		rec := &u.QuizAttempts[i]
		if !rec.Active {
			continue
		}
		if quizID != "" && rec.QuizID != quizID {
			continue
		}
		rec.Active = false
		n++
	}
	return n
}

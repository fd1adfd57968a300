package app

import (
	"context"
	"time"

	"quiz-progression-service/internal/domain"
)

// SubmissionConfig tunes the per-quiz attempt policy.
type SubmissionConfig struct {
	MaxAttempts int
	Cooldown    time.Duration
}

func (c SubmissionConfig) withDefaults() SubmissionConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = domain.DefaultMaxAttempts
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 3 * time.Hour
	}
	return c
}

// SubmitResult is the response of a scored submission: the scoring
// outcome plus the attempt state after the ledger update.
type SubmitResult struct {
	Result  domain.ScoringResult `json:"result"`
	Attempt domain.AttemptStatus `json:"attempt"`
}

// SubmissionService owns the quiz submission path: score, advance the
// attempt record, append history, persist, invalidate and notify.
type SubmissionService struct {
	users     UserRepository
	catalog   CatalogRepository
	cache     Cache
	publisher EventPublisher
	hub       *ProgressHub
	cfg       SubmissionConfig
	now       func() time.Time
}

func NewSubmissionService(users UserRepository, catalog CatalogRepository, cache Cache, publisher EventPublisher, hub *ProgressHub, cfg SubmissionConfig) *SubmissionService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &SubmissionService{
		users:     users,
		catalog:   catalog,
		cache:     cache,
		publisher: publisher,
		hub:       hub,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// Submit scores one submission and applies all its side effects. A
// submission inside an open cooldown window is rejected before scoring
// and mutates nothing. The excellent-performance block is advisory and
// does not stop the submission here.
func (s *SubmissionService) Submit(ctx context.Context, userID, quizID string, sub domain.Submission) (SubmitResult, error) {
	if sub.Answers == nil {
		return SubmitResult{}, domain.ErrInvalidSubmission
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return SubmitResult{}, err
	}
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmitResult{}, err
	}

	now := s.now()
	status := domain.StatusFor(&user, quizID, s.cfg.MaxAttempts, now)
	if status.IsInCooldown {
		return SubmitResult{}, &domain.CooldownError{
			Until:     *status.CooldownUntil,
			Remaining: status.CooldownUntil.Sub(now),
		}
	}

	result, err := domain.Score(quiz, sub.Answers)
	if err != nil {
		return SubmitResult{}, err
	}

	domain.ApplyAttempt(&user, quizID, result, s.cfg.MaxAttempts, s.cfg.Cooldown, now)
	user.CompletedQuizzes = append(user.CompletedQuizzes, domain.CompletedQuizRecord{
		QuizID:      quizID,
		Score:       result.Score,
		Percentage:  result.Percentage,
		CompletedAt: now,
		Passed:      result.Passed,
	})

	if err := s.users.Save(ctx, user); err != nil {
		return SubmitResult{}, err
	}

	s.cache.InvalidateByPattern(ctx, GamificationCachePattern)
	_ = s.publisher.Publish("quiz.submitted", map[string]interface{}{
		"userId":     userID,
		"quizId":     quizID,
		"percentage": result.Percentage,
		"passed":     result.Passed,
	})
	s.hub.Broadcast(domain.ProgressUpdate{
		UserID:      userID,
		Event:       "quiz.submitted",
		TotalPoints: user.TotalPoints,
		Level:       user.Level,
		QuizID:      quizID,
		At:          now,
	})

	return SubmitResult{
		Result:  result,
		Attempt: domain.StatusFor(&user, quizID, s.cfg.MaxAttempts, now),
	}, nil
}

// AttemptStatus answers the attempts-status query for one quiz.
func (s *SubmissionService) AttemptStatus(ctx context.Context, userID, quizID string) (domain.AttemptStatus, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.AttemptStatus{}, err
	}
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return domain.AttemptStatus{}, err
	}
	return domain.StatusFor(&user, quizID, s.cfg.MaxAttempts, s.now()), nil
}

// ResetAttempts is the administrative reset: it deactivates matching
// attempt records (all quizzes when quizID is empty) so counters start
// over. History entries are untouched.
func (s *SubmissionService) ResetAttempts(ctx context.Context, userID, quizID string) (int, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	n := domain.DeactivateAttempts(&user, quizID)
	if n == 0 {
		return 0, nil
	}
	if err := s.users.Save(ctx, user); err != nil {
		return 0, err
	}
	s.cache.InvalidateByPattern(ctx, GamificationCachePattern)
	return n, nil
}

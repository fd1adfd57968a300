package app

import (
	"context"
	"time"

	"quiz-progression-service/internal/domain"
)

// RecordPolicy exposes the per-quiz attempt record (the state embedded
// in the user aggregate) through the shared AttemptPolicy contract.
// SubmissionService drives the same record inline during Submit; this
// adapter exists so both gating mechanisms are addressable behind one
// interface.
type RecordPolicy struct {
	users UserRepository
	cfg   SubmissionConfig
	now   func() time.Time
}

func NewRecordPolicy(users UserRepository, cfg SubmissionConfig) *RecordPolicy {
	return &RecordPolicy{users: users, cfg: cfg.withDefaults(), now: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (p *RecordPolicy) WithClock(now func() time.Time) *RecordPolicy {
	p.now = now
	return p
}

func (p *RecordPolicy) CheckCanAttempt(ctx context.Context, userID, quizID string) (domain.AttemptCheck, error) {
	user, err := p.users.Get(ctx, userID)
	if err != nil {
		return domain.AttemptCheck{}, err
	}
	now := p.now()
	status := domain.StatusFor(&user, quizID, p.cfg.MaxAttempts, now)

	check := domain.AttemptCheck{CanAttempt: status.CanAttempt}
	switch {
	case status.IsInCooldown:
		check.Status = domain.CheckCooldown
		check.CooldownUntil = status.CooldownUntil
		check.TimeRemaining = minutesUntil(now, *status.CooldownUntil)
	case status.AttemptsUsed == 0:
		check.Status = domain.CheckFirstAttempt
	case status.AttemptsRemaining == 1:
		check.Status = domain.CheckSecondAttempt
		check.LastChance = true
	case status.AttemptsRemaining == 0:
		check.Status = domain.CheckCooldownExpired
	default:
		check.Status = domain.CheckSecondAttempt
	}
	return check, nil
}

// RegisterAttempt advances the record with a known outcome and persists
// the aggregate.
func (p *RecordPolicy) RegisterAttempt(ctx context.Context, userID, quizID, _ string, outcome AttemptOutcome) (domain.AttemptCheck, error) {
	user, err := p.users.Get(ctx, userID)
	if err != nil {
		return domain.AttemptCheck{}, err
	}
	result := domain.ScoringResult{Passed: outcome.Passed, IsExcellent: outcome.Excellent}
	domain.ApplyAttempt(&user, quizID, result, p.cfg.MaxAttempts, p.cfg.Cooldown, p.now())
	if err := p.users.Save(ctx, user); err != nil {
		return domain.AttemptCheck{}, err
	}
	return p.CheckCanAttempt(ctx, userID, quizID)
}

// CleanupExpired is a no-op for this policy: cooldown expiry is derived
// from the clock at read time, nothing is stored to prune.
func (p *RecordPolicy) CleanupExpired(context.Context) (int, error) {
	return 0, nil
}

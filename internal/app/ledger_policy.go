package app

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"quiz-progression-service/internal/domain"
)

// DefaultLedgerWindow is the companion-ledger cooldown window.
const DefaultLedgerWindow = 30 * time.Minute

// LedgerPolicy is the coarser attempt tracker keyed by quiz and module.
// It allows two attempts, then reports a 30-minute cooldown computed
// from the latest row. The cooldown is informational: this policy's
// writes never refuse an insert, enforcement is the caller's job via
// CheckCanAttempt.
type LedgerPolicy struct {
	store  LedgerStore
	window time.Duration
	now    func() time.Time
}

func NewLedgerPolicy(store LedgerStore, window time.Duration) *LedgerPolicy {
	if window <= 0 {
		window = DefaultLedgerWindow
	}
	return &LedgerPolicy{store: store, window: window, now: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (p *LedgerPolicy) WithClock(now func() time.Time) *LedgerPolicy {
	p.now = now
	return p
}

// CheckCanAttempt classifies the caller's standing for a quiz:
// primeira_tentativa with no prior rows, segunda_tentativa (last
// chance) after one, then cooldown/cooldown_expired depending on how
// long ago the latest row was written.
func (p *LedgerPolicy) CheckCanAttempt(ctx context.Context, userID, quizID string) (domain.AttemptCheck, error) {
	entries, err := p.store.ActiveEntries(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptCheck{}, err
	}

	switch {
	case len(entries) == 0:
		return domain.AttemptCheck{Status: domain.CheckFirstAttempt, CanAttempt: true}, nil
	case len(entries) == 1:
		return domain.AttemptCheck{Status: domain.CheckSecondAttempt, CanAttempt: true, LastChance: true}, nil
	}

	latest := latestTimestamp(entries)
	until := latest.Add(p.window)
	now := p.now()
	if now.Before(until) {
		return domain.AttemptCheck{
			Status:        domain.CheckCooldown,
			TimeRemaining: minutesUntil(now, until),
			CooldownUntil: &until,
		}, nil
	}
	return domain.AttemptCheck{Status: domain.CheckCooldownExpired, CanAttempt: true}, nil
}

// RegisterAttempt appends a ledger row. When the insert is the second
// active row the response carries the cooldown deadline so the client
// can render it; the row itself stores only its timestamp.
func (p *LedgerPolicy) RegisterAttempt(ctx context.Context, userID, quizID, moduleID string, _ AttemptOutcome) (domain.AttemptCheck, error) {
	entries, err := p.store.ActiveEntries(ctx, userID, quizID)
	if err != nil {
		return domain.AttemptCheck{}, err
	}

	now := p.now()
	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		QuizID:    quizID,
		ModuleID:  moduleID,
		Timestamp: now,
		IsActive:  true,
	}
	if err := p.store.Insert(ctx, entry); err != nil {
		return domain.AttemptCheck{}, err
	}

	check := domain.AttemptCheck{Status: domain.CheckFirstAttempt, CanAttempt: true}
	if len(entries)+1 >= 2 {
		until := now.Add(p.window)
		check.Status = domain.CheckSecondAttempt
		check.LastChance = true
		check.CooldownUntil = &until
	}
	return check, nil
}

// CleanupExpired deactivates rows older than the cooldown window. It is
// invoked explicitly (cron or admin), never by a background scheduler.
func (p *LedgerPolicy) CleanupExpired(ctx context.Context) (int, error) {
	return p.store.DeactivateOlderThan(ctx, p.now().Add(-p.window))
}

func latestTimestamp(entries []domain.LedgerEntry) time.Time {
	latest := entries[0].Timestamp
	for _, e := range entries[1:] {
		if e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
	}
	return latest
}

func minutesUntil(now, until time.Time) int {
	return int(math.Ceil(until.Sub(now).Minutes()))
}

package app_test

import (
	"context"
	"testing"
	"time"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/infra/memory"
)

func newLedgerPolicy() (*app.LedgerPolicy, *fakeClock) {
	clock := &fakeClock{now: baseTime}
	policy := app.NewLedgerPolicy(memory.NewLedgerStore(), 30*time.Minute).WithClock(clock.Now)
	return policy, clock
}

func TestLedgerPolicyStateWalk(t *testing.T) {
	ctx := context.Background()
	policy, clock := newLedgerPolicy()

	check, err := policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.Status != domain.CheckFirstAttempt || !check.CanAttempt {
		t.Fatalf("fresh pair should be primeira_tentativa, got %+v", check)
	}

	if _, err := policy.RegisterAttempt(ctx, "u1", "quiz-a", "mod-1", app.AttemptOutcome{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	check, _ = policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if check.Status != domain.CheckSecondAttempt || !check.LastChance {
		t.Fatalf("one row should be segunda_tentativa last chance, got %+v", check)
	}

	second, err := policy.RegisterAttempt(ctx, "u1", "quiz-a", "mod-1", app.AttemptOutcome{})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	wantUntil := clock.Now().Add(30 * time.Minute)
	if second.CooldownUntil == nil || !second.CooldownUntil.Equal(wantUntil) {
		t.Fatalf("second register should stamp cooldownUntil %v, got %+v", wantUntil, second)
	}

	clock.Advance(10 * time.Minute)
	check, _ = policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if check.Status != domain.CheckCooldown || check.CanAttempt {
		t.Fatalf("expected cooldown, got %+v", check)
	}
	if check.TimeRemaining != 20 {
		t.Fatalf("expected 20 minutes remaining, got %d", check.TimeRemaining)
	}

	clock.Advance(21 * time.Minute)
	check, _ = policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if check.Status != domain.CheckCooldownExpired || !check.CanAttempt {
		t.Fatalf("expected cooldown_expired, got %+v", check)
	}
}

func TestLedgerPolicyIsScopedPerQuiz(t *testing.T) {
	ctx := context.Background()
	policy, _ := newLedgerPolicy()

	_, _ = policy.RegisterAttempt(ctx, "u1", "quiz-a", "mod-1", app.AttemptOutcome{})
	_, _ = policy.RegisterAttempt(ctx, "u1", "quiz-a", "mod-1", app.AttemptOutcome{})

	check, err := policy.CheckCanAttempt(ctx, "u1", "quiz-b")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.Status != domain.CheckFirstAttempt {
		t.Fatalf("other quiz must be unaffected, got %+v", check)
	}
}

func TestLedgerPolicyCleanupExpired(t *testing.T) {
	ctx := context.Background()
	policy, clock := newLedgerPolicy()

	_, _ = policy.RegisterAttempt(ctx, "u1", "quiz-a", "mod-1", app.AttemptOutcome{})
	_, _ = policy.RegisterAttempt(ctx, "u1", "quiz-a", "mod-1", app.AttemptOutcome{})
	clock.Advance(31 * time.Minute)
	_, _ = policy.RegisterAttempt(ctx, "u2", "quiz-a", "mod-1", app.AttemptOutcome{})

	n, err := policy.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 stale rows deactivated, got %d", n)
	}

	check, _ := policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if check.Status != domain.CheckFirstAttempt {
		t.Fatalf("cleanup should reset the pair, got %+v", check)
	}
	check, _ = policy.CheckCanAttempt(ctx, "u2", "quiz-a")
	if check.Status != domain.CheckSecondAttempt {
		t.Fatalf("fresh row must survive cleanup, got %+v", check)
	}
}

func TestRecordPolicyMirrorsAttemptState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	policy := app.NewRecordPolicy(f.users, app.SubmissionConfig{MaxAttempts: 3, Cooldown: 3 * time.Hour}).WithClock(f.clock.Now)

	check, err := policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.Status != domain.CheckFirstAttempt || !check.CanAttempt {
		t.Fatalf("expected fresh state, got %+v", check)
	}

	for i := 0; i < 3; i++ {
		if _, err := policy.RegisterAttempt(ctx, "u1", "quiz-a", "", app.AttemptOutcome{}); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	check, _ = policy.CheckCanAttempt(ctx, "u1", "quiz-a")
	if check.Status != domain.CheckCooldown || check.CanAttempt {
		t.Fatalf("expected record cooldown, got %+v", check)
	}
	if check.TimeRemaining != 180 {
		t.Fatalf("expected 180 minutes remaining, got %d", check.TimeRemaining)
	}
}

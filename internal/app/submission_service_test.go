package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-progression-service/internal/app"
	"quiz-progression-service/internal/domain"
	"quiz-progression-service/internal/infra/memory"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func testQuiz(id, moduleID string) domain.Quiz {
	q := func() domain.Question {
		return domain.Question{
			Prompt: "pick the first option",
			Options: []domain.Option{
				{Text: "right", Correct: true},
				{Text: "wrong"},
			},
		}
	}
	return domain.Quiz{
		ID:        id,
		ModuleID:  moduleID,
		Questions: []domain.Question{q(), q(), q(), q()},
	}
}

type fixture struct {
	users       *memory.UserRepository
	cache       *memory.Cache
	submissions *app.SubmissionService
	completion  *app.CompletionService
	clock       *fakeClock
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture() *fixture {
	users := memory.NewUserRepository()
	users.Seed(domain.User{ID: "u1", Level: domain.LevelAprendiz})

	catalog := memory.NewStaticCatalog(
		map[string]domain.Quiz{
			"quiz-a": testQuiz("quiz-a", "mod-1"),
			"quiz-b": testQuiz("quiz-b", "mod-1"),
		},
		map[string]domain.Module{
			"mod-1": {ID: "mod-1", Level: domain.LevelAprendiz, QuizIDs: []string{"quiz-a", "quiz-b"}, Active: true},
			"mod-2": {ID: "mod-2", Level: domain.LevelVirtuoso, QuizIDs: []string{"quiz-a"}, Active: true},
			"mod-3": {ID: "mod-3", Level: domain.LevelAprendiz, Active: true},
		},
		[]domain.Category{{ID: "cat-1", Name: "Teoria"}},
	)

	clock := &fakeClock{now: baseTime}
	cache := memory.NewCache().WithClock(clock.Now)
	hub := app.NewProgressHub()

	submissions := app.NewSubmissionService(users, catalog, cache, nil, hub, app.SubmissionConfig{
		MaxAttempts: 3,
		Cooldown:    3 * time.Hour,
	}).WithClock(clock.Now)
	completion := app.NewCompletionService(users, catalog, cache, nil, hub).WithClock(clock.Now)

	return &fixture{users: users, cache: cache, submissions: submissions, completion: completion, clock: clock}
}

// allRight / allWrong answer the four-question test quiz.
func allRight() domain.Submission { return domain.Submission{Answers: []domain.AnswerIndex{0, 0, 0, 0}} }
func allWrong() domain.Submission { return domain.Submission{Answers: []domain.AnswerIndex{1, 1, 1, 1}} }

func TestSubmitRecordsHistoryAndAttempt(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.submissions.Submit(ctx, "u1", "quiz-a", domain.Submission{Answers: []domain.AnswerIndex{0, 0, 0, 1}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Result.Percentage != 75 || !res.Result.Passed {
		t.Fatalf("expected 75%% pass, got %+v", res.Result)
	}
	if res.Attempt.AttemptsUsed != 1 || res.Attempt.AttemptsRemaining != 2 {
		t.Fatalf("expected attempt 1 of 3, got %+v", res.Attempt)
	}
	if !res.Attempt.HasPassed {
		t.Fatalf("expected pass reflected in status, got %+v", res.Attempt)
	}

	user, _ := f.users.Get(ctx, "u1")
	if len(user.CompletedQuizzes) != 1 || !user.CompletedQuizzes[0].Passed {
		t.Fatalf("expected one passed history entry, got %+v", user.CompletedQuizzes)
	}
	if user.TotalPoints != 0 {
		t.Fatalf("quiz submissions award no points, got %d", user.TotalPoints)
	}
}

func TestSubmitCooldownAfterThreeFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for i := 0; i < 3; i++ {
		if _, err := f.submissions.Submit(ctx, "u1", "quiz-a", allWrong()); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	status, err := f.submissions.AttemptStatus(ctx, "u1", "quiz-a")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CanAttempt || !status.IsInCooldown {
		t.Fatalf("expected cooldown after 3 failures, got %+v", status)
	}
	wantUntil := baseTime.Add(3 * time.Hour)
	if status.CooldownUntil == nil || !status.CooldownUntil.Equal(wantUntil) {
		t.Fatalf("expected cooldown until %v, got %v", wantUntil, status.CooldownUntil)
	}

	// A fourth submission inside the window is rejected without mutation.
	_, err = f.submissions.Submit(ctx, "u1", "quiz-a", allWrong())
	var cooldown *domain.CooldownError
	if !errors.As(err, &cooldown) {
		t.Fatalf("expected cooldown error, got %v", err)
	}
	user, _ := f.users.Get(ctx, "u1")
	if len(user.CompletedQuizzes) != 3 {
		t.Fatalf("rejected submission must not append history, got %d entries", len(user.CompletedQuizzes))
	}

	// Once the window lapses the submission goes through again.
	f.clock.Advance(3*time.Hour + time.Minute)
	if _, err := f.submissions.Submit(ctx, "u1", "quiz-a", allWrong()); err != nil {
		t.Fatalf("submit after cooldown: %v", err)
	}
}

func TestSubmitExcellentSetsAdvisoryBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	res, err := f.submissions.Submit(ctx, "u1", "quiz-a", allRight())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Result.IsExcellent || !res.Attempt.IsBlocked {
		t.Fatalf("expected excellent submission to block, got %+v", res)
	}

	// Advisory only: a further submission is still accepted.
	if _, err := f.submissions.Submit(ctx, "u1", "quiz-a", allWrong()); err != nil {
		t.Fatalf("blocked flag must not stop submissions: %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.submissions.Submit(ctx, "u1", "quiz-a", domain.Submission{}); !errors.Is(err, domain.ErrInvalidSubmission) {
		t.Fatalf("expected invalid submission, got %v", err)
	}
	if _, err := f.submissions.Submit(ctx, "u1", "quiz-x", allRight()); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if _, err := f.submissions.Submit(ctx, "ghost", "quiz-a", allRight()); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
}

func TestResetAttemptsRestartsCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for i := 0; i < 3; i++ {
		_, _ = f.submissions.Submit(ctx, "u1", "quiz-a", allWrong())
	}

	n, err := f.submissions.ResetAttempts(ctx, "u1", "quiz-a")
	if err != nil || n != 1 {
		t.Fatalf("expected one record reset, got n=%d err=%v", n, err)
	}

	status, _ := f.submissions.AttemptStatus(ctx, "u1", "quiz-a")
	if status.AttemptsUsed != 0 || !status.CanAttempt {
		t.Fatalf("expected fresh state after reset, got %+v", status)
	}
}

func TestSubmitInvalidatesGamificationCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	f.cache.Set(ctx, "/api/gamification/stats|user:u1", []byte(`{}`), time.Minute)
	f.cache.Set(ctx, "/api/categories|user:anonymous", []byte(`[]`), time.Minute)

	if _, err := f.submissions.Submit(ctx, "u1", "quiz-a", allRight()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, ok := f.cache.Get(ctx, "/api/gamification/stats|user:u1"); ok {
		t.Fatalf("expected gamification cache invalidated")
	}
	if _, ok := f.cache.Get(ctx, "/api/categories|user:anonymous"); !ok {
		t.Fatalf("unrelated cache entry must survive")
	}
}

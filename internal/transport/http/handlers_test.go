package http

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestProtectedRoutesRequireIdentity(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/api/modules", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity header, got %d", rec.Code)
	}
}

func TestSubmitErrorMapping(t *testing.T) {
	router, _, _ := newTestRouter(t)

	notFound := do(router, http.MethodPost, "/api/quizzes/nope/submit", "u1", `{"answers":[0]}`)
	if notFound.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", notFound.Code)
	}

	badBody := do(router, http.MethodPost, "/api/quizzes/quiz-a/submit", "u1", `{"answers": "zero"}`)
	if badBody.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", badBody.Code)
	}

	noAnswers := do(router, http.MethodPost, "/api/quizzes/quiz-a/submit", "u1", `{"timeSpent": 10}`)
	if noAnswers.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing answers, got %d", noAnswers.Code)
	}
}

func TestSubmitCooldownMapsTo429(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for i := 0; i < 3; i++ {
		rec := do(router, http.MethodPost, "/api/quizzes/quiz-a/submit", "u1", `{"answers":[1]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("submit %d failed: %d %s", i, rec.Code, rec.Body.String())
		}
	}

	rec := do(router, http.MethodPost, "/api/quizzes/quiz-a/submit", "u1", `{"answers":[1]}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside cooldown, got %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		CooldownUntil    string `json:"cooldownUntil"`
		RemainingSeconds int    `json:"remainingSeconds"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.CooldownUntil == "" || body.RemainingSeconds <= 0 {
		t.Fatalf("cooldown detail missing: %s", rec.Body.String())
	}
}

func TestCompleteModulePreconditionDetail(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/api/modules/mod-1/complete", "u1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with unmet prerequisites, got %d", rec.Code)
	}
	var body struct {
		MissingQuizzes int `json:"missingQuizzes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.MissingQuizzes != 1 {
		t.Fatalf("expected missingQuizzes=1, got %s", rec.Body.String())
	}
}

func TestCompanionLedgerRoutes(t *testing.T) {
	router, _, _ := newTestRouter(t)

	check := do(router, http.MethodGet, "/api/quizzes/quiz-a/can-attempt", "u1", "")
	if check.Code != http.StatusOK {
		t.Fatalf("check failed: %d", check.Code)
	}
	var first struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(check.Body.Bytes(), &first)
	if first.Status != "primeira_tentativa" {
		t.Fatalf("expected primeira_tentativa, got %s", check.Body.String())
	}

	reg := do(router, http.MethodPost, "/api/quizzes/quiz-a/attempts", "u1", `{"moduleId":"mod-1"}`)
	if reg.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", reg.Code, reg.Body.String())
	}

	check = do(router, http.MethodGet, "/api/quizzes/quiz-a/can-attempt", "u1", "")
	var second struct {
		Status     string `json:"status"`
		LastChance bool   `json:"lastChance"`
	}
	_ = json.Unmarshal(check.Body.Bytes(), &second)
	if second.Status != "segunda_tentativa" || !second.LastChance {
		t.Fatalf("expected segunda_tentativa last chance, got %s", check.Body.String())
	}
}

func TestAdminReset(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for i := 0; i < 2; i++ {
		do(router, http.MethodPost, "/api/quizzes/quiz-a/submit", "u1", `{"answers":[1]}`)
	}
	rec := do(router, http.MethodPost, "/api/admin/attempts/reset", "admin", `{"userId":"u1","quizId":"quiz-a"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d %s", rec.Code, rec.Body.String())
	}

	status := do(router, http.MethodGet, "/api/quizzes/quiz-a/attempts", "u1", "")
	var body struct {
		AttemptsUsed int  `json:"attemptsUsed"`
		CanAttempt   bool `json:"canAttempt"`
	}
	_ = json.Unmarshal(status.Body.Bytes(), &body)
	if body.AttemptsUsed != 0 || !body.CanAttempt {
		t.Fatalf("expected reset state, got %s", status.Body.String())
	}
}

package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Level is a progression tier shared by modules and users.
type Level string

const (
	LevelAprendiz Level = "aprendiz"
	LevelVirtuoso Level = "virtuoso"
	LevelMaestro  Level = "maestro"
)

// Valid reports whether the level is one of the known tiers.
func (l Level) Valid() bool {
	switch l {
	case LevelAprendiz, LevelVirtuoso, LevelMaestro:
		return true
	}
	return false
}

// Option represents a possible answer for a question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Quiz is an ordered set of questions with a pass threshold.
type Quiz struct {
	ID           string     `json:"id"`
	ModuleID     string     `json:"moduleId"`
	Title        string     `json:"title"`
	Questions    []Question `json:"questions"`
	PassingScore int        `json:"passingScore"` // percentage, defaults to 70 if zero
	TimeLimit    int        `json:"timeLimit"`    // seconds, informational
}

// Module is a content unit with an ordered list of associated quizzes.
type Module struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	CategoryID string   `json:"categoryId"`
	Level      Level    `json:"level"`
	QuizIDs    []string `json:"quizIds"`
	Active     bool     `json:"active"`
}

// Category is static catalog metadata.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// AnswerIndex is a selected-option index as submitted by clients.
// Clients are sloppy about types here: indices arrive both as JSON
// numbers and as numeric strings. Anything that does not parse decodes
// to -1, which never matches a correct option.
type AnswerIndex int

func (a *AnswerIndex) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*a = AnswerIndex(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*a = AnswerIndex(n)
			return nil
		}
	}
	*a = -1
	return nil
}

// Submission is the transient input to the scoring engine. It is never
// persisted as-is.
type Submission struct {
	Answers   []AnswerIndex `json:"answers"`
	TimeSpent int           `json:"timeSpent"` // seconds, informational
}

// QuestionResult is the per-question correctness detail of a scoring run.
type QuestionResult struct {
	Selected AnswerIndex `json:"selected"`
	Correct  int         `json:"correct"`
	IsRight  bool        `json:"isRight"`
}

// ScoringResult is the outcome of scoring one submission.
type ScoringResult struct {
	Score       int              `json:"score"`
	Total       int              `json:"total"`
	Percentage  int              `json:"percentage"`
	Passed      bool             `json:"passed"`
	IsExcellent bool             `json:"isExcellent"`
	Questions   []QuestionResult `json:"questions"`
}

// AttemptRecord is the mutable per-(user,quiz) counter, cooldown and
// block state. One active record per quiz lives inside the user aggregate.
type AttemptRecord struct {
	QuizID        string     `json:"quizId"`
	Attempts      int        `json:"attempts"`
	LastAttempt   time.Time  `json:"lastAttempt"`
	IsBlocked     bool       `json:"isBlocked"`
	BlockedAt     *time.Time `json:"blockedAt,omitempty"`
	CooldownUntil *time.Time `json:"cooldownUntil,omitempty"`
	Active        bool       `json:"active"`
}

// CompletedQuizRecord is an append-only history entry, one per submission.
type CompletedQuizRecord struct {
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
	Passed      bool      `json:"passed"`
}

// CompletedModuleRecord is appended at most once per (user, module).
type CompletedModuleRecord struct {
	ModuleID    string    `json:"moduleId"`
	CompletedAt time.Time `json:"completedAt"`
}

// User is the progression aggregate. Attempt records and both history
// lists are embedded, mirroring the document shape in the store.
type User struct {
	ID               string                  `json:"id"`
	TotalPoints      int                     `json:"totalPoints"`
	Level            Level                   `json:"level"`
	QuizAttempts     []AttemptRecord         `json:"quizAttempts"`
	CompletedQuizzes []CompletedQuizRecord   `json:"completedQuizzes"`
	CompletedModules []CompletedModuleRecord `json:"completedModules"`
}

// AttemptRecordFor returns the active attempt record for a quiz, if any.
func (u *User) AttemptRecordFor(quizID string) *AttemptRecord {
	for i := range u.QuizAttempts {
		if u.QuizAttempts[i].QuizID == quizID && u.QuizAttempts[i].Active {
			return &u.QuizAttempts[i]
		}
	}
	return nil
}

// HasPassedQuiz reports whether any history entry for the quiz passed.
func (u *User) HasPassedQuiz(quizID string) bool {
	for _, rec := range u.CompletedQuizzes {
		if rec.QuizID == quizID && rec.Passed {
			return true
		}
	}
	return false
}

// HasCompletedModule reports whether the module is already in the history.
func (u *User) HasCompletedModule(moduleID string) bool {
	for _, rec := range u.CompletedModules {
		if rec.ModuleID == moduleID {
			return true
		}
	}
	return false
}

// AttemptStatus is the read contract of the attempts-status query.
type AttemptStatus struct {
	QuizID            string     `json:"quizId"`
	AttemptsUsed      int        `json:"attemptsUsed"`
	AttemptsRemaining int        `json:"attemptsRemaining"`
	IsInCooldown      bool       `json:"isInCooldown"`
	CooldownUntil     *time.Time `json:"cooldownUntil,omitempty"`
	HasPassed         bool       `json:"hasPassed"`
	IsBlocked         bool       `json:"isBlocked"`
	CanAttempt        bool       `json:"canAttempt"`
}

// Companion-ledger check outcomes. The wire values are part of the API
// contract consumed by the frontend and must not be translated.
const (
	CheckFirstAttempt    = "primeira_tentativa"
	CheckSecondAttempt   = "segunda_tentativa"
	CheckCooldown        = "cooldown"
	CheckCooldownExpired = "cooldown_expired"
)

// AttemptCheck is the result of the companion-ledger gate.
type AttemptCheck struct {
	Status        string     `json:"status"`
	CanAttempt    bool       `json:"canAttempt"`
	LastChance    bool       `json:"lastChance,omitempty"`
	TimeRemaining int        `json:"timeRemaining,omitempty"` // whole minutes, rounded up
	CooldownUntil *time.Time `json:"cooldownUntil,omitempty"`
}

// LedgerEntry is a row in the companion attempt ledger, keyed by user,
// quiz and module. Unlike AttemptRecord, rows are append-only and
// individually deactivated by cleanup.
type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	QuizID    string    `json:"quizId"`
	ModuleID  string    `json:"moduleId"`
	Timestamp time.Time `json:"timestamp"`
	IsActive  bool      `json:"isActive"`
}

// DisplayProgress is advisory UI metadata derived from the live module
// pool. It never drives the authoritative level.
type DisplayProgress struct {
	VirtuosoThreshold int `json:"virtuosoThreshold"`
	MaestroThreshold  int `json:"maestroThreshold"`
	CompletedModules  int `json:"completedModules"`
}

// ProgressUpdate is pushed to feed subscribers after a mutating operation.
type ProgressUpdate struct {
	UserID      string    `json:"userId"`
	Event       string    `json:"event"`
	TotalPoints int       `json:"totalPoints"`
	Level       Level     `json:"level"`
	ModuleID    string    `json:"moduleId,omitempty"`
	QuizID      string    `json:"quizId,omitempty"`
	At          time.Time `json:"at"`
}

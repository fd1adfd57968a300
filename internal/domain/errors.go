package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrQuizNotFound indicates the quiz could not be loaded from the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrModuleNotFound indicates the module could not be loaded from the catalog.
	ErrModuleNotFound = errors.New("module not found")
	// ErrUserNotFound indicates the user aggregate does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidSubmission is returned for a missing or malformed answer array.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrModuleHasNoQuizzes rejects completion of a module with an empty quiz list.
	ErrModuleHasNoQuizzes = errors.New("module has no quizzes")
)

// CooldownError blocks a submission while a cooldown window is open. It
// is distinct from ErrInvalidSubmission so clients can render a
// wait-until time instead of a generic error.
type CooldownError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("attempt blocked by cooldown until %s", e.Until.Format(time.RFC3339))
}

// PreconditionError rejects module completion with unmet prerequisites.
type PreconditionError struct {
	ModuleID       string
	MissingQuizzes int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("module %s has %d quizzes not yet passed", e.ModuleID, e.MissingQuizzes)
}

// DataIntegrityError reports a question with no option marked correct.
// Scoring cannot proceed meaningfully; the fault must surface, not be
// scored as incorrect.
type DataIntegrityError struct {
	QuizID   string
	Question int
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("quiz %s question %d has no correct option", e.QuizID, e.Question)
}

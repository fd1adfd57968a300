package app

import (
	"context"
	"time"

	"quiz-progression-service/internal/domain"
)

// UserRepository abstracts how the user aggregate is stored (in-memory,
// Postgres JSONB, etc). Save is a whole-aggregate write: concurrent
// writers are last-write-wins, there is no optimistic locking.
type UserRepository interface {
	Get(ctx context.Context, userID string) (domain.User, error)
	Save(ctx context.Context, user domain.User) error
}

// CatalogRepository supplies read-only quiz/module/category metadata
// (from cache/backing store).
type CatalogRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetModule(ctx context.Context, moduleID string) (domain.Module, error)
	ListModules(ctx context.Context) ([]domain.Module, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Cache is the injected response-cache capability. All operations are
// best effort: implementations log and swallow backend errors rather
// than failing the request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// InvalidateByPattern drops every key matching the regular
	// expression and returns how many were removed. Writes invalidate
	// by pattern because the key space is parameterized per user and
	// query, never by a single exact key.
	InvalidateByPattern(ctx context.Context, pattern string) int
}

// LedgerStore persists the companion attempt ledger rows.
type LedgerStore interface {
	ActiveEntries(ctx context.Context, userID, quizID string) ([]domain.LedgerEntry, error)
	Insert(ctx context.Context, entry domain.LedgerEntry) error
	DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// EventPublisher emits progression events to the message broker.
type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) error { return nil }

// AttemptOutcome is the slice of a scoring result that attempt policies
// care about.
type AttemptOutcome struct {
	Passed    bool
	Excellent bool
}

// AttemptPolicy is the shared contract of the two attempt-gating
// mechanisms: the per-quiz record policy (3h cooldown, attempt cap) and
// the per-quiz+module ledger policy (30m window, two-attempt framing).
// They coexist on purpose and are never unified; see DESIGN.md.
type AttemptPolicy interface {
	CheckCanAttempt(ctx context.Context, userID, quizID string) (domain.AttemptCheck, error)
	RegisterAttempt(ctx context.Context, userID, quizID, moduleID string, outcome AttemptOutcome) (domain.AttemptCheck, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// Cache key patterns invalidated by the write paths.
const (
	ModulesCachePattern      = `^/api/modules`
	GamificationCachePattern = `^/api/gamification`
)

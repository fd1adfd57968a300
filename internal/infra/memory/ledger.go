package memory

import (
	"context"
	"sync"
	"time"

	"quiz-progression-service/internal/domain"
)

// LedgerStore is an in-memory implementation of app.LedgerStore.
type LedgerStore struct {
	mu      sync.RWMutex
	entries []domain.LedgerEntry
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

func (s *LedgerStore) ActiveEntries(_ context.Context, userID, quizID string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.IsActive && e.UserID == userID && e.QuizID == quizID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *LedgerStore) Insert(_ context.Context, entry domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *LedgerStore) DeactivateOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.entries {
		if s.entries[i].IsActive && s.entries[i].Timestamp.Before(cutoff) {
			s.entries[i].IsActive = false
			n++
		}
	}
	return n, nil
}

package postgres

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"quiz-progression-service/internal/domain"
)

type ledgerRow struct {
	bun.BaseModel `bun:"table:attempt_ledger,alias:al"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	QuizID    string    `bun:"quiz_id,notnull"`
	ModuleID  string    `bun:"module_id,notnull"`
	Timestamp time.Time `bun:"ts,notnull"`
	IsActive  bool      `bun:"is_active,notnull"`
}

// LedgerStore is the bun-backed companion attempt ledger.
type LedgerStore struct {
	db *bun.DB
}

func NewLedgerStore(db *bun.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) ActiveEntries(ctx context.Context, userID, quizID string) ([]domain.LedgerEntry, error) {
	var rows []ledgerRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Where("is_active").
		Order("ts DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.LedgerEntry{
			ID:        row.ID,
			UserID:    row.UserID,
			QuizID:    row.QuizID,
			ModuleID:  row.ModuleID,
			Timestamp: row.Timestamp,
			IsActive:  row.IsActive,
		})
	}
	return entries, nil
}

func (s *LedgerStore) Insert(ctx context.Context, entry domain.LedgerEntry) error {
	row := &ledgerRow{
		ID:        entry.ID,
		UserID:    entry.UserID,
		QuizID:    entry.QuizID,
		ModuleID:  entry.ModuleID,
		Timestamp: entry.Timestamp,
		IsActive:  entry.IsActive,
	}
	_, err := s.db.NewInsert().Model(row).Exec(ctx)
	return err
}

func (s *LedgerStore) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.NewUpdate().
		Model((*ledgerRow)(nil)).
		Set("is_active = FALSE").
		Where("is_active").
		Where("ts < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"quiz-progression-service/internal/domain"
)

// userRow persists the user aggregate as one row. The embedded attempt
// and history collections live in JSONB columns so the aggregate keeps
// its document shape: Save always writes the whole thing, last write wins.
type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               string                         `bun:"id,pk"`
	TotalPoints      int                            `bun:"total_points,notnull"`
	Level            string                         `bun:"level,notnull"`
	QuizAttempts     []domain.AttemptRecord         `bun:"quiz_attempts,type:jsonb"`
	CompletedQuizzes []domain.CompletedQuizRecord   `bun:"completed_quizzes,type:jsonb"`
	CompletedModules []domain.CompletedModuleRecord `bun:"completed_modules,type:jsonb"`
	UpdatedAt        time.Time                      `bun:"updated_at,notnull"`
}

// UserRepository is the bun-backed implementation of app.UserRepository.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, userID string) (domain.User, error) {
	row := new(userRow)
	err := r.db.NewSelect().Model(row).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, err
	}
	return domain.User{
		ID:               row.ID,
		TotalPoints:      row.TotalPoints,
		Level:            domain.Level(row.Level),
		QuizAttempts:     row.QuizAttempts,
		CompletedQuizzes: row.CompletedQuizzes,
		CompletedModules: row.CompletedModules,
	}, nil
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	row := &userRow{
		ID:               user.ID,
		TotalPoints:      user.TotalPoints,
		Level:            string(user.Level),
		QuizAttempts:     user.QuizAttempts,
		CompletedQuizzes: user.CompletedQuizzes,
		CompletedModules: user.CompletedModules,
		UpdatedAt:        time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("total_points = EXCLUDED.total_points").
		Set("level = EXCLUDED.level").
		Set("quiz_attempts = EXCLUDED.quiz_attempts").
		Set("completed_quizzes = EXCLUDED.completed_quizzes").
		Set("completed_modules = EXCLUDED.completed_modules").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

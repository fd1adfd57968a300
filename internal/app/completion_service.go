package app

import (
	"context"
	"time"

	"quiz-progression-service/internal/domain"
)

// CompletionResult reports the outcome of the module-completion gate.
type CompletionResult struct {
	ModuleID         string       `json:"moduleId"`
	AlreadyCompleted bool         `json:"alreadyCompleted"`
	PointsAwarded    int          `json:"pointsAwarded"`
	TotalPoints      int          `json:"totalPoints"`
	Level            domain.Level `json:"level"`
	LeveledUp        bool         `json:"leveledUp"`
}

// ModuleView is a catalog module annotated with the caller's completion state.
type ModuleView struct {
	domain.Module
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// GamificationStats is the per-user stats read model.
type GamificationStats struct {
	UserID           string                 `json:"userId"`
	TotalPoints      int                    `json:"totalPoints"`
	Level            domain.Level           `json:"level"`
	CompletedModules int                    `json:"completedModules"`
	CompletedQuizzes int                    `json:"completedQuizzes"`
	Progress         domain.DisplayProgress `json:"progress"`
}

// CompletionService owns the module-completion gate and the
// gamification read models.
type CompletionService struct {
	users     UserRepository
	catalog   CatalogRepository
	cache     Cache
	publisher EventPublisher
	hub       *ProgressHub
	now       func() time.Time
}

func NewCompletionService(users UserRepository, catalog CatalogRepository, cache Cache, publisher EventPublisher, hub *ProgressHub) *CompletionService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &CompletionService{
		users:     users,
		catalog:   catalog,
		cache:     cache,
		publisher: publisher,
		hub:       hub,
		now:       time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *CompletionService) WithClock(now func() time.Time) *CompletionService {
	s.now = now
	return s
}

// CompleteModule marks a module complete once every quiz in it has a
// passed history entry. Re-completing is success without a second
// award. On a first completion it awards points by the module's own
// level, rederives the user level from the completed-module count and
// invalidates the affected cached reads.
func (s *CompletionService) CompleteModule(ctx context.Context, userID, moduleID string) (CompletionResult, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return CompletionResult{}, err
	}
	module, err := s.catalog.GetModule(ctx, moduleID)
	if err != nil {
		return CompletionResult{}, err
	}
	if len(module.QuizIDs) == 0 {
		return CompletionResult{}, domain.ErrModuleHasNoQuizzes
	}

	if user.HasCompletedModule(moduleID) {
		return CompletionResult{
			ModuleID:         moduleID,
			AlreadyCompleted: true,
			TotalPoints:      user.TotalPoints,
			Level:            user.Level,
		}, nil
	}

	missing := 0
	for _, quizID := range module.QuizIDs {
		if !user.HasPassedQuiz(quizID) {
			missing++
		}
	}
	if missing > 0 {
		return CompletionResult{}, &domain.PreconditionError{ModuleID: moduleID, MissingQuizzes: missing}
	}

	now := s.now()
	points := domain.ModulePoints(module.Level)
	previousLevel := user.Level

	user.CompletedModules = append(user.CompletedModules, domain.CompletedModuleRecord{
		ModuleID:    moduleID,
		CompletedAt: now,
	})
	user.TotalPoints += points
	user.Level = domain.LevelForCompletedModules(len(user.CompletedModules))

	if err := s.users.Save(ctx, user); err != nil {
		return CompletionResult{}, err
	}

	s.cache.InvalidateByPattern(ctx, ModulesCachePattern)
	s.cache.InvalidateByPattern(ctx, GamificationCachePattern)

	leveledUp := user.Level != previousLevel
	_ = s.publisher.Publish("module.completed", map[string]interface{}{
		"userId":   userID,
		"moduleId": moduleID,
		"points":   points,
	})
	if leveledUp {
		_ = s.publisher.Publish("user.level_up", map[string]interface{}{
			"userId": userID,
			"level":  user.Level,
		})
	}
	s.hub.Broadcast(domain.ProgressUpdate{
		UserID:      userID,
		Event:       "module.completed",
		TotalPoints: user.TotalPoints,
		Level:       user.Level,
		ModuleID:    moduleID,
		At:          now,
	})

	return CompletionResult{
		ModuleID:      moduleID,
		PointsAwarded: points,
		TotalPoints:   user.TotalPoints,
		Level:         user.Level,
		LeveledUp:     leveledUp,
	}, nil
}

// ListModules returns active catalog modules annotated with the
// caller's completion state.
func (s *CompletionService) ListModules(ctx context.Context, userID string) ([]ModuleView, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	modules, err := s.catalog.ListModules(ctx)
	if err != nil {
		return nil, err
	}

	completedAt := make(map[string]time.Time, len(user.CompletedModules))
	for _, rec := range user.CompletedModules {
		completedAt[rec.ModuleID] = rec.CompletedAt
	}

	views := make([]ModuleView, 0, len(modules))
	for _, module := range modules {
		if !module.Active {
			continue
		}
		view := ModuleView{Module: module}
		if at, ok := completedAt[module.ID]; ok {
			view.Completed = true
			at := at
			view.CompletedAt = &at
		}
		views = append(views, view)
	}
	return views, nil
}

// ListCategories returns the static category metadata.
func (s *CompletionService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// Stats builds the gamification read model: authoritative level and
// points next to the advisory pool-relative display thresholds.
func (s *CompletionService) Stats(ctx context.Context, userID string) (GamificationStats, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return GamificationStats{}, err
	}
	modules, err := s.catalog.ListModules(ctx)
	if err != nil {
		return GamificationStats{}, err
	}

	activeByLevel := make(map[domain.Level]int)
	for _, module := range modules {
		if module.Active {
			activeByLevel[module.Level]++
		}
	}

	return GamificationStats{
		UserID:           user.ID,
		TotalPoints:      user.TotalPoints,
		Level:            user.Level,
		CompletedModules: len(user.CompletedModules),
		CompletedQuizzes: len(user.CompletedQuizzes),
		Progress:         domain.ComputeDisplayProgress(activeByLevel, len(user.CompletedModules)),
	}, nil
}

package memory

import (
	"context"
	"sort"

	"quiz-progression-service/internal/domain"
)

// StaticCatalog serves quiz/module/category metadata from maps. It
// backs the wiring when no database is configured and doubles as the
// loader behind the Redis-cached catalog.
type StaticCatalog struct {
	quizzes    map[string]domain.Quiz
	modules    map[string]domain.Module
	categories []domain.Category
}

func NewStaticCatalog(quizzes map[string]domain.Quiz, modules map[string]domain.Module, categories []domain.Category) *StaticCatalog {
	return &StaticCatalog{quizzes: quizzes, modules: modules, categories: categories}
}

func (c *StaticCatalog) GetQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := c.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (c *StaticCatalog) GetModule(_ context.Context, moduleID string) (domain.Module, error) {
	if module, ok := c.modules[moduleID]; ok {
		return module, nil
	}
	return domain.Module{}, domain.ErrModuleNotFound
}

func (c *StaticCatalog) ListModules(_ context.Context) ([]domain.Module, error) {
	modules := make([]domain.Module, 0, len(c.modules))
	for _, module := range c.modules {
		modules = append(modules, module)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, nil
}

func (c *StaticCatalog) ListCategories(_ context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), c.categories...), nil
}

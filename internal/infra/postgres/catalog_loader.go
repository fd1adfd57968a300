package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-progression-service/internal/domain"
)

// CatalogLoader reads quiz/module/category JSONB from Postgres. The
// catalog is read-only facts for this service; writes happen in the
// content-management tooling.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

func (l *CatalogLoader) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := l.getDocument(ctx, "quizzes", quizID, &quiz, domain.ErrQuizNotFound); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (l *CatalogLoader) GetModule(ctx context.Context, moduleID string) (domain.Module, error) {
	var module domain.Module
	if err := l.getDocument(ctx, "modules", moduleID, &module, domain.ErrModuleNotFound); err != nil {
		return domain.Module{}, err
	}
	return module, nil
}

func (l *CatalogLoader) ListModules(ctx context.Context) ([]domain.Module, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM modules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var modules []domain.Module
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var module domain.Module
		if err := json.Unmarshal(raw, &module); err != nil {
			return nil, fmt.Errorf("unmarshal module: %w", err)
		}
		modules = append(modules, module)
	}
	return modules, rows.Err()
}

func (l *CatalogLoader) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var category domain.Category
		if err := json.Unmarshal(raw, &category); err != nil {
			return nil, fmt.Errorf("unmarshal category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (l *CatalogLoader) getDocument(ctx context.Context, table, id string, dest interface{}, notFound error) error {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM `+table+` WHERE id=$1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound
		}
		return fmt.Errorf("load %s: %w", table, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", table, err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-progression-service/internal/domain"
)

// CatalogLoader fetches catalog content from the backing store.
type CatalogLoader interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetModule(ctx context.Context, moduleID string) (domain.Module, error)
	ListModules(ctx context.Context) ([]domain.Module, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// CatalogRepository caches catalog documents in Redis as JSON and falls
// back to the loader on a miss. Loads are deduplicated with
// singleflight and TTLs carry up to 10% jitter to spread expirations.
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.cached(ctx, "catalog:quiz:"+quizID, &quiz, func() (interface{}, error) {
		return r.loader.GetQuiz(ctx, quizID)
	})
	return quiz, err
}

func (r *CatalogRepository) GetModule(ctx context.Context, moduleID string) (domain.Module, error) {
	var module domain.Module
	err := r.cached(ctx, "catalog:module:"+moduleID, &module, func() (interface{}, error) {
		return r.loader.GetModule(ctx, moduleID)
	})
	return module, err
}

func (r *CatalogRepository) ListModules(ctx context.Context) ([]domain.Module, error) {
	var modules []domain.Module
	err := r.cached(ctx, "catalog:modules", &modules, func() (interface{}, error) {
		return r.loader.ListModules(ctx)
	})
	return modules, err
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := r.cached(ctx, "catalog:categories", &categories, func() (interface{}, error) {
		return r.loader.ListCategories(ctx)
	})
	return categories, err
}

// cached fills dest from Redis, or loads, stores and fills on a miss.
func (r *CatalogRepository) cached(ctx context.Context, key string, dest interface{}, load func() (interface{}, error)) error {
	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		return json.Unmarshal(raw, dest)
	}

	raw, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			return raw, nil
		}
		value, err := load()
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		// best-effort write
		_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

package memory

import (
	"context"
	"sync"

	"quiz-progression-service/internal/domain"
)

// UserRepository is an in-memory implementation of app.UserRepository.
// It deliberately mimics the document store's semantics: Get hands out
// a detached copy, Save overwrites the whole aggregate, last write wins.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]domain.User)}
}

// Seed inserts users directly, for wiring demos and tests.
func (r *UserRepository) Seed(users ...domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range users {
		r.users[u.ID] = cloneUser(u)
	}
}

func (r *UserRepository) Get(_ context.Context, userID string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *UserRepository) Save(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func cloneUser(u domain.User) domain.User {
	clone := u
	clone.QuizAttempts = append([]domain.AttemptRecord(nil), u.QuizAttempts...)
	for i := range clone.QuizAttempts {
		if t := clone.QuizAttempts[i].BlockedAt; t != nil {
			v := *t
			clone.QuizAttempts[i].BlockedAt = &v
		}
		if t := clone.QuizAttempts[i].CooldownUntil; t != nil {
			v := *t
			clone.QuizAttempts[i].CooldownUntil = &v
		}
	}
	clone.CompletedQuizzes = append([]domain.CompletedQuizRecord(nil), u.CompletedQuizzes...)
	clone.CompletedModules = append([]domain.CompletedModuleRecord(nil), u.CompletedModules...)
	return clone
}

package loginattempts

import (
	"context"
	"sync"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/models"
)

type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]models.LoginAttempt
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]models.LoginAttempt)}
}

func (r *MemoryRepository) Get(ctx context.Context, identifier string) (*models.LoginAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[identifier]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		a.LockedUntil = &t
	}
	return &a, nil
}

func (r *MemoryRepository) Save(ctx context.Context, a *models.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *a
	if a.LockedUntil != nil {
		t := *a.LockedUntil
		c.LockedUntil = &t
	}
	r.items[a.Identifier] = c
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, identifier string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, identifier)
	return nil
}

package users

import (
	"context"
	"sync"
	"time"

	"github.com/swaphubteam/SwapIt/internal/common"
	"github.com/swaphubteam/SwapIt/internal/server/models"
)

// MemoryRepository keeps users in process memory. It backs the fallback
// store, so its contents vanish with the process.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.User
	email  map[string]int64
	google map[string]int64
}

// NewMemoryRepository returns a repository holding copies of seed. Seed ids
// are kept when set and assigned otherwise.
func NewMemoryRepository(seed ...models.User) *MemoryRepository {
	r := &MemoryRepository{
		byID:   make(map[int64]*models.User),
		email:  make(map[string]int64),
		google: make(map[string]int64),
	}
	for i := range seed {
		u := seed[i]
		if u.ID == 0 {
			u.ID = r.nextID + 1
		}
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
		r.put(&u)
	}
	return r
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := NormalizeEmail(user.Email)
	if _, ok := r.email[key]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if user.GoogleSub != nil {
		if _, ok := r.google[*user.GoogleSub]; ok {
			return nil, common.ErrorAlreadyExists
		}
	}

	now := time.Now()
	r.nextID++
	stored := clone(user)
	stored.ID = r.nextID
	stored.Email = key
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.put(stored)

	user.ID, user.Email, user.CreatedAt, user.UpdatedAt = stored.ID, stored.Email, now, now
	return user, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.email[NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) GetByGoogleSub(ctx context.Context, sub string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.google[sub]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) UpdateProfile(ctx context.Context, id int64, upd models.ProfileUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.AvatarURL != nil {
		avatar := *upd.AvatarURL
		u.AvatarURL = &avatar
	}
	u.UpdatedAt = time.Now()
	return clone(u), nil
}

func (r *MemoryRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) LinkGoogle(ctx context.Context, id int64, sub string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	if other, taken := r.google[sub]; taken && other != id {
		return common.ErrorAlreadyExists
	}
	if u.GoogleSub != nil {
		delete(r.google, *u.GoogleSub)
	}
	s := sub
	u.GoogleSub = &s
	u.IsVerified = true
	u.UpdatedAt = time.Now()
	r.google[sub] = id
	return nil
}

// put indexes u; callers hold the write lock.
func (r *MemoryRepository) put(u *models.User) {
	u.Email = NormalizeEmail(u.Email)
	r.byID[u.ID] = u
	r.email[u.Email] = u.ID
	if u.GoogleSub != nil {
		r.google[*u.GoogleSub] = u.ID
	}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.AvatarURL != nil {
		a := *u.AvatarURL
		c.AvatarURL = &a
	}
	if u.GoogleSub != nil {
		s := *u.GoogleSub
		c.GoogleSub = &s
	}
	return &c
}

package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It is safe for concurrent
// use and hands out copies so callers never alias stored state.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func cloneToken(t *models.OneTimeToken) *models.OneTimeToken {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUser(u *models.User, withSecret bool) *models.User {
	c := *u
	c.EmailVerification = cloneToken(u.EmailVerification)
	c.PasswordReset = cloneToken(u.PasswordReset)
	if !withSecret {
		c.PasswordHash = ""
	}
	return &c
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := r.now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.byID[user.ID] = cloneUser(user, true)
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string, withSecret bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(r.byID[id], withSecret), nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string, withSecret bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneUser(u, withSecret), nil
}

func (r *MemoryRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[user.ID]
	if !ok {
		return common.ErrorNotFound
	}

	next := cloneUser(user, true)
	if next.PasswordHash == "" {
		next.PasswordHash = stored.PasswordHash
	}
	next.Email = stored.Email
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = r.now().UTC()

	r.byID[user.ID] = next
	user.UpdatedAt = next.UpdatedAt
	return nil
}

package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process. InTx serialises the
// callbacks, which is enough to make check-then-create sequences atomic.
// Writes made before an error are not undone.
type MemoryRepositoryManager struct {
	mu   sync.Mutex
	repo *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.repo }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) Close() error { return nil }

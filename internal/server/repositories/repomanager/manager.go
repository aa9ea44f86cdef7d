// Package repomanager vends the user repository for the configured storage
// driver, runs schema migrations and scopes multi-step writes to a
// transaction.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// RepositoryManager owns the storage handle behind the repositories.
type RepositoryManager interface {
	// RunMigrations brings the schema up to date. It is a no-op for stores
	// without a schema.
	RunMigrations(ctx context.Context) error

	// Users returns a repository bound to the shared handle.
	Users() users.Repository

	// InTx runs fn with a repository whose writes commit or roll back
	// together.
	InTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error

	Close() error
}

// Open connects to the store named by driver and runs its migrations.
func Open(ctx context.Context, driver, dsn string) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)

	switch driver {
	case DriverPostgres:
		m, err = OpenPostgres(ctx, dsn)
	case DriverSQLite:
		m, err = OpenSQLite(ctx, dsn)
	case DriverMemory:
		m = NewMemoryRepositoryManager()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return m, nil
}

package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/filex"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// gooseUp is a seam for testing the goose provider run.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// SQLRepositoryManager serves a database/sql backed store.
type SQLRepositoryManager struct {
	db       *sql.DB
	dialect  goose.Dialect
	dir      string
	newUsers func(db dbx.DBTX) users.Repository
}

// NewPostgresRepositoryManager wraps an open PostgreSQL handle.
func NewPostgresRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:      db,
		dialect: goose.DialectPostgres,
		dir:     "postgres",
		newUsers: func(db dbx.DBTX) users.Repository {
			return users.NewPostgresRepository(db)
		},
	}
}

// NewSQLiteRepositoryManager wraps an open SQLite handle.
func NewSQLiteRepositoryManager(db *sql.DB) *SQLRepositoryManager {
	return &SQLRepositoryManager{
		db:      db,
		dialect: goose.DialectSQLite3,
		dir:     "sqlite",
		newUsers: func(db dbx.DBTX) users.Repository {
			return users.NewSQLiteRepository(db)
		},
	}
}

// OpenPostgres opens and pings a PostgreSQL database through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

// OpenSQLite opens a SQLite database. A single connection is kept so that
// ":memory:" databases survive between calls.
func OpenSQLite(ctx context.Context, dsn string) (*SQLRepositoryManager, error) {
	if err := filex.EnsureParentDir(filex.SQLitePath(dsn)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewSQLiteRepositoryManager(db), nil
}

// RunMigrations applies the embedded migrations for this dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	sub, err := fs.Sub(migrations.Migrations, m.dir)
	if err != nil {
		return err
	}
	return gooseUp(ctx, m.dialect, m.db, sub)
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return m.newUsers(m.db)
}

func (m *SQLRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, m.newUsers(tx))
	})
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

package users

import (
	"context"
	"database/sql"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSQLiteRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	sub, err := fs.Sub(migrations.Migrations, "sqlite")
	require.NoError(t, err)
	p, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	require.NoError(t, err)
	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return NewSQLiteRepository(db)
}

// repositoryContract runs the behaviour every Repository must share.
func repositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	expires := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Millisecond)

	u, err := repo.Create(ctx, &models.User{
		Email: "a@b.com", Name: "Ann", Role: models.DefaultRole, Provider: models.ProviderLocal,
		PasswordHash:      "hash",
		EmailVerification: &models.OneTimeToken{Code: 123456, Expires: expires},
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	_, err = repo.Create(ctx, &models.User{Email: "a@b.com", Role: models.DefaultRole, Provider: models.ProviderLocal})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	public, err := repo.GetUserByEmail(ctx, "a@b.com", false)
	require.NoError(t, err)
	assert.Empty(t, public.PasswordHash)
	require.NotNil(t, public.EmailVerification)
	assert.Equal(t, 123456, public.EmailVerification.Code)
	assert.True(t, public.EmailVerification.Expires.Equal(expires))

	secret, err := repo.GetUserByID(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "hash", secret.PasswordHash)

	public.EmailVerified = true
	public.EmailVerification = nil
	public.PasswordReset = &models.OneTimeToken{Code: 999999, Expires: expires}
	require.NoError(t, repo.Update(ctx, public))

	after, err := repo.GetUserByID(ctx, u.ID, true)
	require.NoError(t, err)
	assert.True(t, after.EmailVerified)
	assert.Nil(t, after.EmailVerification)
	require.NotNil(t, after.PasswordReset)
	assert.Equal(t, 999999, after.PasswordReset.Code)
	assert.Equal(t, "hash", after.PasswordHash, "empty hash on update keeps the stored one")

	after.PasswordHash = "new-hash"
	after.PasswordReset = nil
	require.NoError(t, repo.Update(ctx, after))

	again, err := repo.GetUserByEmail(ctx, "a@b.com", true)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", again.PasswordHash)
	assert.Nil(t, again.PasswordReset)

	_, err = repo.GetUserByEmail(ctx, "ghost@b.com", false)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = repo.GetUserByID(ctx, "nope", false)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.User{ID: "nope"}), common.ErrorNotFound)
}

func TestSQLiteRepository_Contract(t *testing.T) {
	repositoryContract(t, newSQLiteRepo(t))
}

func TestMemoryRepository_Contract(t *testing.T) {
	repositoryContract(t, NewMemoryRepository())
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	u, err := repo.Create(ctx, &models.User{Email: "a@b.com", Provider: models.ProviderLocal})
	require.NoError(t, err)

	got, err := repo.GetUserByID(ctx, u.ID, false)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.GetUserByID(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Empty(t, again.Name)
}

func TestMemoryRepository_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx, &models.User{Email: "race@b.com"}); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
}

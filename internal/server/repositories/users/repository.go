// Package users stores user accounts. It ships a PostgreSQL repository, a
// SQLite repository and an in-memory one; all of them satisfy Repository.
package users

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository is the persistence contract used by the auth service.
//
// Lookups return common.ErrorNotFound when no row matches. PasswordHash is
// populated only when withSecret is true. Update treats an empty PasswordHash
// as "leave unchanged" so a user loaded without its secret can be saved back.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string, withSecret bool) (*models.User, error)
	GetUserByID(ctx context.Context, id string, withSecret bool) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

type rowScanner interface {
	Scan(dest ...any) error
}

func tokenArgs(t *models.OneTimeToken) (code, expires any) {
	if t == nil {
		return nil, nil
	}
	return t.Code, t.Expires.UTC()
}

func tokenFromNull(code sql.NullInt64, expires sql.NullTime) *models.OneTimeToken {
	if !code.Valid || !expires.Valid {
		return nil
	}
	return &models.OneTimeToken{Code: int(code.Int64), Expires: expires.Time.UTC()}
}

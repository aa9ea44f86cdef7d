package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository is the SQLite implementation of Repository. Timestamps are
// stored as Unix milliseconds and ids are generated client side.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func sqliteTokenArgs(t *models.OneTimeToken) (code, expires any) {
	if t == nil {
		return nil, nil
	}
	return t.Code, toMillis(t.Expires)
}

func sqliteToken(code, expires sql.NullInt64) *models.OneTimeToken {
	if !code.Valid || !expires.Valid {
		return nil
	}
	return &models.OneTimeToken{Code: int(code.Int64), Expires: fromMillis(expires.Int64)}
}

func sqliteColumns(withSecret bool) string {
	hash := "''"
	if withSecret {
		hash = "password_hash"
	}
	return `id, email, name, role, provider, ` + hash + `, email_verified,
		 email_verification_token, email_verification_token_expires,
		 password_reset_token, password_reset_token_expires,
		 created_at, updated_at`
}

func scanSQLiteUser(row rowScanner) (*models.User, error) {
	var (
		u                    models.User
		provider             string
		evCode, prCode       sql.NullInt64
		evExpires, prExpires sql.NullInt64
		created, updated     int64
	)

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &provider, &u.PasswordHash, &u.EmailVerified,
		&evCode, &evExpires, &prCode, &prExpires, &created, &updated)
	if err != nil {
		return nil, err
	}

	u.Provider = models.Provider(provider)
	u.EmailVerification = sqliteToken(evCode, evExpires)
	u.PasswordReset = sqliteToken(prCode, prExpires)
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return &u, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, email, name, role, provider, password_hash, email_verified,
		 email_verification_token, email_verification_token_expires, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 `

	id := uuid.NewString()
	now := r.now().UTC().Truncate(time.Millisecond)
	evCode, evExpires := sqliteTokenArgs(user.EmailVerification)

	_, err := r.db.ExecContext(ctx, query,
		id, user.Email, user.Name, user.Role, string(user.Provider), user.PasswordHash, user.EmailVerified,
		evCode, evExpires, toMillis(now), toMillis(now))

	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return user, nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string, withSecret bool) (*models.User, error) {
	query := `SELECT ` + sqliteColumns(withSecret) + ` FROM users WHERE email = ?`

	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string, withSecret bool) (*models.User, error) {
	query := `SELECT ` + sqliteColumns(withSecret) + ` FROM users WHERE id = ?`

	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET name = ?, role = ?, provider = ?,
		 password_hash = COALESCE(NULLIF(?, ''), password_hash),
		 email_verified = ?,
		 email_verification_token = ?, email_verification_token_expires = ?,
		 password_reset_token = ?, password_reset_token_expires = ?,
		 updated_at = ?
		 WHERE id = ?
		 `

	now := r.now().UTC().Truncate(time.Millisecond)
	evCode, evExpires := sqliteTokenArgs(user.EmailVerification)
	prCode, prExpires := sqliteTokenArgs(user.PasswordReset)

	res, err := r.db.ExecContext(ctx, query,
		user.Name, user.Role, string(user.Provider), user.PasswordHash, user.EmailVerified,
		evCode, evExpires, prCode, prExpires, toMillis(now), user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	user.UpdatedAt = now
	return nil
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// PostgresRepository is the PostgreSQL implementation of Repository.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func pgColumns(withSecret bool) string {
	hash := "''"
	if withSecret {
		hash = "password_hash"
	}
	return `id, email, name, role, provider, ` + hash + `, email_verified,
		 email_verification_token, email_verification_token_expires,
		 password_reset_token, password_reset_token_expires,
		 created_at, updated_at`
}

func scanPostgresUser(row rowScanner) (*models.User, error) {
	var (
		u                    models.User
		provider             string
		evCode, prCode       sql.NullInt64
		evExpires, prExpires sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &provider, &u.PasswordHash, &u.EmailVerified,
		&evCode, &evExpires, &prCode, &prExpires, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	u.Provider = models.Provider(provider)
	u.EmailVerification = tokenFromNull(evCode, evExpires)
	u.PasswordReset = tokenFromNull(prCode, prExpires)
	return &u, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, name, role, provider, password_hash, email_verified,
		 email_verification_token, email_verification_token_expires)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	evCode, evExpires := tokenArgs(user.EmailVerification)
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.Role, string(user.Provider), user.PasswordHash, user.EmailVerified,
		evCode, evExpires).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string, withSecret bool) (*models.User, error) {
	query := `SELECT ` + pgColumns(withSecret) + ` FROM users WHERE email = $1`

	u, err := scanPostgresUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string, withSecret bool) (*models.User, error) {
	query := `SELECT ` + pgColumns(withSecret) + ` FROM users WHERE id = $1`

	u, err := scanPostgresUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET name = $2, role = $3, provider = $4,
		 password_hash = COALESCE(NULLIF($5, ''), password_hash),
		 email_verified = $6,
		 email_verification_token = $7, email_verification_token_expires = $8,
		 password_reset_token = $9, password_reset_token_expires = $10,
		 updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	evCode, evExpires := tokenArgs(user.EmailVerification)
	prCode, prExpires := tokenArgs(user.PasswordReset)

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Role, string(user.Provider), user.PasswordHash, user.EmailVerified,
		evCode, evExpires, prCode, prExpires).Scan(&user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

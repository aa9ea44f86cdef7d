// Package services contains server-side business logic. AuthService
// implements the account workflow: registration, email verification, login,
// logout, password reset and update, and social sign-in.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/otp"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/gophauth/internal/server/services"

const (
	emailVerificationSubject = "Email verification token"
	passwordResetSubject     = "Password reset token"
)

// RegisterInput is the payload of Register. An empty Role becomes
// models.DefaultRole.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// SocialAuthInput is an identity already asserted by google or apple.
type SocialAuthInput struct {
	Email    string
	Name     string
	Role     string
	Provider string
}

// LoginResult is returned by Login and SocialAuth. User never carries the
// password hash.
type LoginResult struct {
	Token string
	User  *models.User
}

// AuthService orchestrates validation, the user store, the mailer and
// session-token issuance.
type AuthService struct {
	repomanager                  repomanager.RepositoryManager
	mailer                       mailer.Mailer
	hasher                       Hasher
	otp                          *otp.Generator
	jwtSecret                    []byte
	sessionTokenValidityDuration time.Duration
	log                          logging.Logger
	tracer                       trace.Tracer
}

// NewAuthService builds an AuthService from server config.
func NewAuthService(m repomanager.RepositoryManager, ml mailer.Mailer, cfg *config.Config, log logging.Logger) *AuthService {
	return &AuthService{
		repomanager:                  m,
		mailer:                       ml,
		hasher:                       NewBcryptHasher(cfg.BcryptCost),
		otp:                          otp.NewGenerator(cfg.OneTimeTokenValidityDuration),
		jwtSecret:                    []byte(cfg.SecretKey),
		sessionTokenValidityDuration: cfg.SessionTokenValidityDuration,
		log:                          log.With("component", "auth_service"),
		tracer:                       otel.Tracer(tracerName),
	}
}

func (s *AuthService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "AuthService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *AuthService) now() time.Time {
	return s.otp.Now()
}

// Register creates a local account with EmailVerified=false.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (u *models.User, err error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer func() { endSpan(span, err) }()

	if !validation.IsValidEmail(in.Email) {
		return nil, common.ErrInvalidEmail
	}
	if !validation.IsStrongPassword(in.Password) {
		return nil, common.ErrWeakPassword
	}

	role := in.Role
	if role == "" {
		role = models.DefaultRole
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		_, err := repo.GetUserByEmail(ctx, in.Email, false)
		if err == nil {
			return common.ErrorAlreadyExists
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error searching user: %w", err)
		}

		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}

		u, err = repo.Create(ctx, &models.User{
			Email:        in.Email,
			Name:         in.Name,
			Role:         role,
			Provider:     models.ProviderLocal,
			PasswordHash: hash,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return err
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.PasswordHash = ""
	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// RequestEmailToken issues a fresh verification code and mails it.
func (s *AuthService) RequestEmailToken(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "RequestEmailToken")
	defer func() { endSpan(span, err) }()

	return s.issueOneTimeToken(ctx, email, emailVerificationSubject, "email verification", false,
		func(u *models.User, t *models.OneTimeToken) { u.EmailVerification = t })
}

// ForgotPassword issues a fresh password reset code and mails it. Accounts
// created through a social provider have no password and get
// common.ErrProviderConflict.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "ForgotPassword")
	defer func() { endSpan(span, err) }()

	return s.issueOneTimeToken(ctx, email, passwordResetSubject, "password reset", true,
		func(u *models.User, t *models.OneTimeToken) { u.PasswordReset = t })
}

func (s *AuthService) issueOneTimeToken(ctx context.Context, email, subject, kind string, localOnly bool, set func(*models.User, *models.OneTimeToken)) error {
	if !validation.IsValidEmail(email) {
		return common.ErrInvalidEmail
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByEmail(ctx, email, false)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error searching user: %w", err)
	}
	if localOnly && user.Provider != models.ProviderLocal {
		return common.ErrProviderConflict
	}

	token := s.otp.Issue()
	set(user, &token)
	if err := repo.Update(ctx, user); err != nil {
		return fmt.Errorf("error saving token: %w", err)
	}

	body := fmt.Sprintf("Your %s token is %d and it expires in %s", kind, token.Code, describeTTL(s.otp.TTL))
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		return fmt.Errorf("error sending mail: %w", err)
	}

	s.log.Info(ctx, "one-time token issued", "user_id", user.ID, "kind", kind)
	return nil
}

// VerifyEmail marks the account verified when code matches the stored,
// unexpired verification code.
func (s *AuthService) VerifyEmail(ctx context.Context, email string, code int) (err error) {
	ctx, span := s.startSpan(ctx, "VerifyEmail")
	defer func() { endSpan(span, err) }()

	if !validation.IsValidEmail(email) {
		return common.ErrInvalidEmail
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByEmail(ctx, email, false)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	if !user.EmailVerification.Matches(code, s.now()) {
		return common.ErrInvalidToken
	}

	user.EmailVerified = true
	user.EmailVerification = nil
	if err := repo.Update(ctx, user); err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

// Login checks the password and issues a session token. The password is
// checked before verification status.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer func() { endSpan(span, err) }()

	if !validation.IsValidEmail(email) {
		return nil, common.ErrInvalidEmail
	}

	user, err := s.repomanager.Users().GetUserByEmail(ctx, email, true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	user.PasswordHash = ""

	if !user.EmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	return s.issueSession(ctx, user)
}

// Logout has no server-side state to clear; session tokens expire on their
// own. p is nil when the caller sent no valid token.
func (s *AuthService) Logout(ctx context.Context, p *auth.Principal) error {
	if p != nil {
		s.log.Debug(ctx, "logout", "user_id", p.UserID)
	}
	return nil
}

// ResetPassword replaces the password when code matches the stored, unexpired
// reset code. Social accounts get common.ErrProviderConflict.
func (s *AuthService) ResetPassword(ctx context.Context, email string, code int, password string) (err error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer func() { endSpan(span, err) }()

	if !validation.IsValidEmail(email) {
		return common.ErrInvalidEmail
	}
	if !validation.IsStrongPassword(password) {
		return common.ErrWeakPassword
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByEmail(ctx, email, false)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error searching user: %w", err)
	}
	if user.Provider != models.ProviderLocal {
		return common.ErrProviderConflict
	}

	if !user.PasswordReset.Matches(code, s.now()) {
		return common.ErrInvalidToken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	user.PasswordHash = hash
	user.PasswordReset = nil
	if err := repo.Update(ctx, user); err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

// UpdatePassword changes the password of the authenticated caller.
func (s *AuthService) UpdatePassword(ctx context.Context, p auth.Principal, currentPassword, newPassword string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePassword", attribute.String("user.id", p.UserID))
	defer func() { endSpan(span, err) }()

	if p.UserID == "" {
		return common.ErrorUnauthorized
	}
	if !validation.IsStrongPassword(newPassword) {
		return common.ErrWeakPassword
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByID(ctx, p.UserID, true)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, currentPassword) {
		return common.ErrInvalidCredentials
	}
	if s.hasher.Compare(user.PasswordHash, newPassword) {
		return common.ErrSamePassword
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	user.PasswordHash = hash
	if err := repo.Update(ctx, user); err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

// SocialAuth signs in, or signs up, a user whose identity was asserted by a
// social provider. An account created under another provider is rejected.
func (s *AuthService) SocialAuth(ctx context.Context, in SocialAuthInput) (res *LoginResult, err error) {
	ctx, span := s.startSpan(ctx, "SocialAuth", attribute.String("auth.provider", in.Provider))
	defer func() { endSpan(span, err) }()

	provider := models.Provider(in.Provider)
	if !provider.IsSocial() {
		return nil, common.ErrInvalidProvider
	}
	if !validation.IsValidEmail(in.Email) {
		return nil, common.ErrInvalidEmail
	}

	role := in.Role
	if role == "" {
		role = models.DefaultRole
	}

	var user *models.User
	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		existing, err := repo.GetUserByEmail(ctx, in.Email, false)
		switch {
		case err == nil:
			if existing.Provider != provider {
				return common.ErrProviderConflict
			}
			user = existing
			return nil
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("error searching user: %w", err)
		}

		user, err = repo.Create(ctx, &models.User{
			Email:         in.Email,
			Name:          in.Name,
			Role:          role,
			Provider:      provider,
			EmailVerified: true,
		})
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return err
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		s.log.Info(ctx, "social user created", "user_id", user.ID, "provider", string(provider))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*LoginResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.sessionTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}
	s.log.Info(ctx, "session issued", "user_id", user.ID)
	return &LoginResult{Token: token, User: user}, nil
}

// describeTTL renders d the way it appears in mail bodies.
func describeTTL(d time.Duration) string {
	if d%time.Minute != 0 {
		return d.String()
	}
	m := int(d / time.Minute)
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// Auth is the workflow as seen by the transports.
type Auth interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	RequestEmailToken(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email string, code int) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, p *auth.Principal) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email string, code int, password string) error
	UpdatePassword(ctx context.Context, p auth.Principal, currentPassword, newPassword string) error
	SocialAuth(ctx context.Context, in SocialAuthInput) (*LoginResult, error)
}

var _ Auth = (*AuthService)(nil)

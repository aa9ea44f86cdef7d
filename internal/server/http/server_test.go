package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const secret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type harness struct {
	router http.Handler
	rm     repomanager.RepositoryManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	cfg := &config.Config{
		SecretKey:                    secret,
		SessionTokenValidityDuration: time.Hour,
		OneTimeTokenValidityDuration: 10 * time.Minute,
		BcryptCost:                   bcrypt.MinCost,
	}
	svc := services.NewAuthService(rm, mailer.NewLogMailer(logging.Nop{}), cfg, logging.Nop{})
	return &harness{
		router: NewHTTPServer(":0", logging.Nop{}, svc, secret).Router(),
		rm:     rm,
	}
}

func do(t *testing.T, h http.Handler, method, path string, body any, header http.Header) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (h *harness) code(t *testing.T, email string, reset bool) int {
	t.Helper()
	u, err := h.rm.Users().GetUserByEmail(context.Background(), email, false)
	require.NoError(t, err)
	if reset {
		require.NotNil(t, u.PasswordReset)
		return u.PasswordReset.Code
	}
	require.NotNil(t, u.EmailVerification)
	return u.EmailVerification.Code
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness(t)
	body := map[string]any{"email": "a@b.com", "password": "Abcdef1!"}

	status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/register", body, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User created successfully", out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/register", body, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User already exists", out["message"])
	assert.EqualValues(t, 400, out["statusCode"])
}

func TestRegister_ValidationMessages(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"bad email", map[string]any{"email": "nope", "password": "Abcdef1!"}, msgInvalidEmail},
		{"weak password", map[string]any{"email": "a@b.com", "password": "abcdefgh"}, msgWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, out["message"])
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t)

	status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/login", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, out["message"])
	assert.EqualValues(t, 400, out["statusCode"])
}

func TestOneTimeCode_WrongJSONType(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"verify string", "/api/v1/auth/verify-email", `{"email":"a@b.com","emailVerificationToken":"123456"}`},
		{"verify fraction", "/api/v1/auth/verify-email", `{"email":"a@b.com","emailVerificationToken":123456.5}`},
		{"reset string", "/api/v1/auth/reset-password", `{"email":"a@b.com","passwordResetToken":"123456","password":"Abcdef1!"}`},
		{"reset bool", "/api/v1/auth/reset-password", `{"email":"a@b.com","passwordResetToken":true,"password":"Abcdef1!"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := do(t, h.router, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, msgInvalidToken, out["message"])
			assert.EqualValues(t, 400, out["statusCode"])
		})
	}
}

func TestFullLocalFlow(t *testing.T) {
	h := newHarness(t)
	const email = "flow@b.com"

	status, _ := do(t, h.router, http.MethodPost, "/api/v1/auth/register",
		map[string]any{"name": "Flo", "email": email, "password": "Abcdef1!"}, nil)
	require.Equal(t, http.StatusOK, status)

	status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": email, "password": "Abcdef1!"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgEmailNotVerified, out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/request-email-token", map[string]any{"email": email}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email verification token sent to "+email, out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/verify-email",
		map[string]any{"email": email, "emailVerificationToken": h.code(t, email, false) + 1}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgInvalidToken, out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/verify-email",
		map[string]any{"email": email, "emailVerificationToken": h.code(t, email, false)}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Email verified successfully", out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": email, "password": "Abcdef1!"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged in successfully", out["message"])
	token, _ := out["jwtToken"].(string)
	require.NotEmpty(t, token)

	user, _ := out["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, email, user["email"])
	assert.Equal(t, true, user["emailVerified"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "PasswordHash")

	status, out = do(t, h.router, http.MethodPut, "/api/v1/auth/update-password",
		map[string]any{"currentPassword": "Abcdef1!", "newPassword": "Abcdef1!"}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgSamePassword, out["message"])

	status, out = do(t, h.router, http.MethodPut, "/api/v1/auth/update-password",
		map[string]any{"currentPassword": "Abcdef1!", "newPassword": "Newpass1@"}, bearer(token))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Password updated successfully", out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/forgot-password", map[string]any{"email": email}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Password reset token sent to "+email, out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/reset-password",
		map[string]any{"email": email, "passwordResetToken": h.code(t, email, true), "password": "Reset123#"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Password reset successfully", out["message"])

	status, _ = do(t, h.router, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": email, "password": "Reset123#"}, nil)
	assert.Equal(t, http.StatusOK, status)

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": email, "password": "Newpass1@"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgInvalidCreds, out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/logout", nil, bearer(token))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", out["message"])
}

func TestNotFoundStatusDiffersOnVerifyEmail(t *testing.T) {
	h := newHarness(t)

	status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/verify-email",
		map[string]any{"email": "ghost@b.com", "emailVerificationToken": 123456}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, msgUserNotFound, out["message"])
	assert.EqualValues(t, 404, out["statusCode"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/forgot-password",
		map[string]any{"email": "ghost@b.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgUserNotFound, out["message"])
}

func TestUpdatePassword_RequiresBearer(t *testing.T) {
	h := newHarness(t)
	body := map[string]any{"currentPassword": "Abcdef1!", "newPassword": "Newpass1@"}

	status, out := do(t, h.router, http.MethodPut, "/api/v1/auth/update-password", body, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgUnauthorized, out["message"])

	status, _ = do(t, h.router, http.MethodPut, "/api/v1/auth/update-password", body, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, status)

	other, err := auth.GenerateToken("u-1", "user", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	status, _ = do(t, h.router, http.MethodPut, "/api/v1/auth/update-password", body, bearer(other))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogout_WithoutToken(t *testing.T) {
	h := newHarness(t)

	status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out successfully", out["message"])
}

func TestSocialAuth(t *testing.T) {
	h := newHarness(t)
	body := map[string]any{"email": "s@b.com", "name": "Sam", "provider": "google"}

	status, out := do(t, h.router, http.MethodPost, "/api/v1/auth/social-auth", body, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Authenticated successfully", out["message"])
	assert.NotEmpty(t, out["token"])
	user, _ := out["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, string(models.ProviderGoogle), user["provider"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/social-auth",
		map[string]any{"email": "s@b.com", "provider": "apple"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgProviderConflict, out["message"])

	status, out = do(t, h.router, http.MethodPost, "/api/v1/auth/social-auth",
		map[string]any{"email": "x@b.com", "provider": "myspace"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgInvalidProvider, out["message"])
}

type failingService struct {
	services.Auth
	err error
}

func (f failingService) Login(context.Context, string, string) (*services.LoginResult, error) {
	return nil, f.err
}

func (f failingService) ForgotPassword(context.Context, string) error {
	return f.err
}

func TestUnexpectedErrorsAre500(t *testing.T) {
	router := NewHTTPServer(":0", logging.Nop{}, failingService{err: errors.New("db down")}, secret).Router()

	status, out := do(t, router, http.MethodPost, "/api/v1/auth/login",
		map[string]any{"email": "a@b.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "db down", out["message"])
	assert.EqualValues(t, 500, out["statusCode"])
}

func TestUnauthorizedFromService(t *testing.T) {
	router := NewHTTPServer(":0", logging.Nop{}, failingService{err: common.ErrorUnauthorized}, secret).Router()

	status, _ := do(t, router, http.MethodPost, "/api/v1/auth/forgot-password", map[string]any{"email": "a@b.com"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHealthAndRequestID(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(common.RequestIDHeaderName, "req-42")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(common.RequestIDHeaderName))

	rec = httptest.NewRecorder()
	h.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeaderName))
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := NewHTTPServer("127.0.0.1:0", logging.Nop{}, failingService{}, secret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

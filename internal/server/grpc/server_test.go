package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop{}, nil, "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, nil, "secret")
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected listen error")
	}
}

func newBufconnClient(t *testing.T) (*pb.AuthServiceClient, repomanager.RepositoryManager) {
	t.Helper()

	rm := repomanager.NewMemoryRepositoryManager()
	cfg := &config.Config{
		SecretKey:                    "secret",
		SessionTokenValidityDuration: time.Hour,
		OneTimeTokenValidityDuration: 10 * time.Minute,
		BcryptCost:                   bcrypt.MinCost,
	}
	svc := services.NewAuthService(rm, mailer.NewLogMailer(logging.Nop{}), cfg, logging.Nop{})
	srv := NewGRPCServer("", logging.Nop{}, svc, "secret")

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
	})
	return pb.NewAuthServiceClient(conn), rm
}

func TestEndToEnd_RegisterVerifyLoginUpdate(t *testing.T) {
	client, rm := newBufconnClient(t)
	ctx := context.Background()
	const email = "a@b.com"

	resp, err := client.Call(ctx, pb.MethodRegister, map[string]any{"email": email, "password": "Abcdef1!"})
	require.NoError(t, err)
	assert.Equal(t, "User created successfully", resp.GetFields()["message"].GetStringValue())

	_, err = client.Call(ctx, pb.MethodRegister, map[string]any{"email": email, "password": "Abcdef1!"})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.Call(ctx, pb.MethodRequestEmailToken, map[string]any{"email": email})
	require.NoError(t, err)

	u, err := rm.Users().GetUserByEmail(ctx, email, false)
	require.NoError(t, err)
	require.NotNil(t, u.EmailVerification)

	_, err = client.Call(ctx, pb.MethodVerifyEmail, map[string]any{"email": email, "emailVerificationToken": u.EmailVerification.Code})
	require.NoError(t, err)

	resp, err = client.Call(ctx, pb.MethodLogin, map[string]any{"email": email, "password": "Abcdef1!"})
	require.NoError(t, err)
	token := resp.GetFields()["jwtToken"].GetStringValue()
	require.NotEmpty(t, token)

	body := map[string]any{"currentPassword": "Abcdef1!", "newPassword": "Newpass1@"}
	_, err = client.Call(ctx, pb.MethodUpdatePassword, body)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	authCtx := metadata.AppendToOutgoingContext(ctx, "access_token", token)
	_, err = client.Call(authCtx, pb.MethodUpdatePassword, body)
	require.NoError(t, err)

	_, err = client.Call(authCtx, pb.MethodUpdatePassword, map[string]any{"currentPassword": "Newpass1@", "newPassword": "Newpass1@"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	resp, err = client.Call(authCtx, pb.MethodLogout, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Logged out successfully", resp.GetFields()["message"].GetStringValue())
}

func TestEndToEnd_SocialAuth(t *testing.T) {
	client, _ := newBufconnClient(t)
	ctx := context.Background()

	resp, err := client.Call(ctx, pb.MethodSocialAuth, map[string]any{"email": "s@b.com", "provider": "google"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.GetFields()["token"].GetStringValue())

	_, err = client.Call(ctx, pb.MethodSocialAuth, map[string]any{"email": "s@b.com", "provider": "apple"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.Call(ctx, pb.MethodSocialAuth, map[string]any{"email": "s@b.com", "provider": "local"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestEndToEnd_ForgotAndResetPassword(t *testing.T) {
	client, rm := newBufconnClient(t)
	ctx := context.Background()
	const email = "r@b.com"

	_, err := client.Call(ctx, pb.MethodRegister, map[string]any{"email": email, "password": "Abcdef1!"})
	require.NoError(t, err)
	_, err = client.Call(ctx, pb.MethodRequestEmailToken, map[string]any{"email": email})
	require.NoError(t, err)
	u, err := rm.Users().GetUserByEmail(ctx, email, false)
	require.NoError(t, err)
	_, err = client.Call(ctx, pb.MethodVerifyEmail, map[string]any{"email": email, "emailVerificationToken": u.EmailVerification.Code})
	require.NoError(t, err)

	resp, err := client.Call(ctx, pb.MethodForgotPassword, map[string]any{"email": email})
	require.NoError(t, err)
	assert.Equal(t, "Password reset token sent to "+email, resp.GetFields()["message"].GetStringValue())

	_, err = client.Call(ctx, pb.MethodForgotPassword, map[string]any{"email": "nobody@b.com"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	u, err = rm.Users().GetUserByEmail(ctx, email, false)
	require.NoError(t, err)
	require.NotNil(t, u.PasswordReset)

	_, err = client.Call(ctx, pb.MethodResetPassword, map[string]any{
		"email": email, "passwordResetToken": u.PasswordReset.Code + 1, "password": "Newpass1@",
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err = client.Call(ctx, pb.MethodResetPassword, map[string]any{
		"email": email, "passwordResetToken": u.PasswordReset.Code, "password": "Newpass1@",
	})
	require.NoError(t, err)
	assert.Equal(t, "Password reset successfully", resp.GetFields()["message"].GetStringValue())

	_, err = client.Call(ctx, pb.MethodLogin, map[string]any{"email": email, "password": "Abcdef1!"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	resp, err = client.Call(ctx, pb.MethodLogin, map[string]any{"email": email, "password": "Newpass1@"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.GetFields()["jwtToken"].GetStringValue())

	_, err = client.Call(ctx, pb.MethodResetPassword, map[string]any{
		"email": email, "passwordResetToken": u.PasswordReset.Code, "password": "Other1pass@",
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "reset code is single use")
}

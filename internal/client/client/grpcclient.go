package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type caller interface {
	Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      caller

	mu          sync.RWMutex
	accessToken string
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGophAuthClient dials endpointURL lazily; no traffic is sent until the
// first call.
func NewGophAuthClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) LoggedIn() bool {
	return s.token() != ""
}

func (s *GRPCClient) call(ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	resp, err := s.client.Call(ctx, method, in)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) message(ctx context.Context, method string, in map[string]any) (string, error) {
	resp, err := s.call(ctx, method, in)
	if err != nil {
		return "", err
	}
	return resp.GetFields()["message"].GetStringValue(), nil
}

func (s *GRPCClient) Register(ctx context.Context, name, email, password, role string) (string, error) {
	return s.message(ctx, pb.MethodRegister, map[string]any{
		"name": name, "email": email, "password": password, "role": role,
	})
}

func (s *GRPCClient) RequestEmailToken(ctx context.Context, email string) (string, error) {
	return s.message(ctx, pb.MethodRequestEmailToken, map[string]any{"email": email})
}

func (s *GRPCClient) VerifyEmail(ctx context.Context, email string, code int) (string, error) {
	return s.message(ctx, pb.MethodVerifyEmail, map[string]any{
		"email": email, "emailVerificationToken": code,
	})
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (*User, error) {
	resp, err := s.call(ctx, pb.MethodLogin, map[string]any{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	s.setToken(resp.GetFields()["jwtToken"].GetStringValue())
	return userFrom(resp), nil
}

// Logout tells the server and then drops the local token, even when the
// server call fails.
func (s *GRPCClient) Logout(ctx context.Context) (string, error) {
	defer s.setToken("")
	return s.message(ctx, pb.MethodLogout, map[string]any{})
}

func (s *GRPCClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.message(ctx, pb.MethodForgotPassword, map[string]any{"email": email})
}

func (s *GRPCClient) ResetPassword(ctx context.Context, email string, code int, password string) (string, error) {
	return s.message(ctx, pb.MethodResetPassword, map[string]any{
		"email": email, "passwordResetToken": code, "password": password,
	})
}

func (s *GRPCClient) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (string, error) {
	if !s.LoggedIn() {
		return "", ErrNotLoggedIn
	}
	return s.message(ctx, pb.MethodUpdatePassword, map[string]any{
		"currentPassword": currentPassword, "newPassword": newPassword,
	})
}

func (s *GRPCClient) SocialAuth(ctx context.Context, email, name, role, provider string) (*User, error) {
	resp, err := s.call(ctx, pb.MethodSocialAuth, map[string]any{
		"email": email, "name": name, "role": role, "provider": provider,
	})
	if err != nil {
		return nil, err
	}
	s.setToken(resp.GetFields()["token"].GetStringValue())
	return userFrom(resp), nil
}

func userFrom(resp *structpb.Struct) *User {
	f := resp.GetFields()["user"].GetStructValue().GetFields()
	return &User{
		ID:            f["id"].GetStringValue(),
		Email:         f["email"].GetStringValue(),
		Name:          f["name"].GetStringValue(),
		Role:          f["role"].GetStringValue(),
		Provider:      f["provider"].GetStringValue(),
		EmailVerified: f["emailVerified"].GetBoolValue(),
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.Unauthenticated:
		if st.Message() == common.ErrTokenExpired.Error() {
			s.setToken("")
			return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
		}
	}
	return &RemoteError{Code: st.Code(), Message: st.Message()}
}

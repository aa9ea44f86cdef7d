package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrInvalidEmail, codes.InvalidArgument},
	{common.ErrWeakPassword, codes.InvalidArgument},
	{common.ErrInvalidProvider, codes.InvalidArgument},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorAlreadyExists, codes.AlreadyExists},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrEmailNotVerified, codes.Unauthenticated},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrSamePassword, codes.FailedPrecondition},
	{common.ErrProviderConflict, codes.FailedPrecondition},
}

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return status.Error(ec.code, err.Error())
		}
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, err.Error())
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.logger.Info(ctx, "Registration request")

	_, err := s.service.Register(ctx, services.RegisterInput{
		Name:     stringField(req, "name"),
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
		Role:     stringField(req, "role"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse("User created successfully")
}

func (s *GRPCServer) RequestEmailToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := stringField(req, "email")
	if err := s.service.RequestEmailToken(ctx, email); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse(fmt.Sprintf("Email verification token sent to %s", email))
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code, err := codeField(req, "emailVerificationToken")
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.service.VerifyEmail(ctx, stringField(req, "email"), code); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse("Email verified successfully")
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.service.Login(ctx, stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{
		"message":  "Logged in successfully",
		"jwtToken": res.Token,
		"user":     userFields(res.User),
	})
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	var p *auth.Principal
	if principal, ok := auth.PrincipalFromContext(ctx); ok {
		p = &principal
	}
	if err := s.service.Logout(ctx, p); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse("Logged out successfully")
}

func (s *GRPCServer) ForgotPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	email := stringField(req, "email")
	if err := s.service.ForgotPassword(ctx, email); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse(fmt.Sprintf("Password reset token sent to %s", email))
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code, err := codeField(req, "passwordResetToken")
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.service.ResetPassword(ctx, stringField(req, "email"), code, stringField(req, "password")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse("Password reset successfully")
}

func (s *GRPCServer) UpdatePassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	err := s.service.UpdatePassword(ctx, p, stringField(req, "currentPassword"), stringField(req, "newPassword"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return messageResponse("Password updated successfully")
}

func (s *GRPCServer) SocialAuth(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.service.SocialAuth(ctx, services.SocialAuthInput{
		Email:    stringField(req, "email"),
		Name:     stringField(req, "name"),
		Role:     stringField(req, "role"),
		Provider: stringField(req, "provider"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]any{
		"message": "Authenticated successfully",
		"token":   res.Token,
		"user":    userFields(res.User),
	})
}

// Package proto declares the gophauth.v1.AuthService gRPC contract. Requests
// and responses are google.protobuf.Struct values whose field names match
// the JSON bodies of the HTTP API.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gophauth.v1.AuthService"

const (
	MethodRegister          = "Register"
	MethodRequestEmailToken = "RequestEmailToken"
	MethodVerifyEmail       = "VerifyEmail"
	MethodLogin             = "Login"
	MethodLogout            = "Logout"
	MethodForgotPassword    = "ForgotPassword"
	MethodResetPassword     = "ResetPassword"
	MethodUpdatePassword    = "UpdatePassword"
	MethodSocialAuth        = "SocialAuth"
)

// FullMethod returns the wire name of method, e.g. "/gophauth.v1.AuthService/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AuthServiceServer is implemented by the server transport.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestEmailToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ForgotPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SocialAuth(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AuthServiceDesc describes the service for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodRegister, AuthServiceServer.Register),
		unaryHandler(MethodRequestEmailToken, AuthServiceServer.RequestEmailToken),
		unaryHandler(MethodVerifyEmail, AuthServiceServer.VerifyEmail),
		unaryHandler(MethodLogin, AuthServiceServer.Login),
		unaryHandler(MethodLogout, AuthServiceServer.Logout),
		unaryHandler(MethodForgotPassword, AuthServiceServer.ForgotPassword),
		unaryHandler(MethodResetPassword, AuthServiceServer.ResetPassword),
		unaryHandler(MethodUpdatePassword, AuthServiceServer.UpdatePassword),
		unaryHandler(MethodSocialAuth, AuthServiceServer.SocialAuth),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

// AuthServiceClient invokes AuthService methods over a connection.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

// Call sends in to method and returns the response struct.
func (c *AuthServiceClient) Call(ctx context.Context, method string, in map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

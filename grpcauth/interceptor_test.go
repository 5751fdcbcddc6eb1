package grpcauth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/authz"
)

func tokenManager(t *testing.T) authn.Manager {
	t.Helper()

	return authn.ManagerFunc(func(ctx context.Context, candidate *authn.Token) (*authn.Token, error) {
		switch candidate.Credentials() {
		case "valid-token":
			return authn.NewAuthenticated("user-123", "ROLE_USER", "SCOPE_api"), nil
		case "broken-token":
			return nil, errors.New("token service unreachable")
		default:
			return nil, authn.BadCredentials("unknown token")
		}
	})
}

func unaryCtx(token string) context.Context {
	if token == "" {
		return context.Background()
	}
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func invokeUnary(t *testing.T, interceptor grpc.UnaryServerInterceptor, ctx context.Context, method string) (*authn.Token, error) {
	t.Helper()

	var seen *authn.Token
	handler := func(ctx context.Context, req any) (any, error) {
		seen, _ = TokenFromContext(ctx)
		return "ok", nil
	}
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	return seen, err
}

func TestUnaryServerInterceptorAuthenticates(t *testing.T) {
	interceptor := UnaryServerInterceptor(tokenManager(t))

	token, err := invokeUnary(t, interceptor, unaryCtx("valid-token"), "/svc.Service/Get")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == nil || token.Principal() != "user-123" {
		t.Errorf("handler token = %+v, want principal user-123", token)
	}
	if !token.HasAuthority("SCOPE_api") {
		t.Error("expected the SCOPE_api authority")
	}
}

func TestUnaryServerInterceptorRejections(t *testing.T) {
	interceptor := UnaryServerInterceptor(tokenManager(t))

	tests := []struct {
		name     string
		ctx      context.Context
		wantCode codes.Code
	}{
		{
			name:     "missing metadata",
			ctx:      context.Background(),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "missing authorization header",
			ctx:      metadata.NewIncomingContext(context.Background(), metadata.MD{}),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "wrong scheme",
			ctx:      metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic dXNlcg==")),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "invalid token",
			ctx:      unaryCtx("bad-token"),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "processing error",
			ctx:      unaryCtx("broken-token"),
			wantCode: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invokeUnary(t, interceptor, tt.ctx, "/svc.Service/Get")
			if status.Code(err) != tt.wantCode {
				t.Errorf("code = %v, want %v (err: %v)", status.Code(err), tt.wantCode, err)
			}
		})
	}
}

func TestUnaryServerInterceptorExemptMethods(t *testing.T) {
	interceptor := UnaryServerInterceptor(
		tokenManager(t),
		WithExemptMethods("/grpc.health.v1.Health/Check"),
	)

	token, err := invokeUnary(t, interceptor, context.Background(), "/grpc.health.v1.Health/Check")
	if err != nil {
		t.Fatalf("exempt method must not require authentication: %v", err)
	}
	if token != nil {
		t.Error("exempt method must not carry a token")
	}

	if _, err := invokeUnary(t, interceptor, context.Background(), "/svc.Service/Get"); status.Code(err) != codes.Unauthenticated {
		t.Errorf("non-exempt method must require authentication, got %v", err)
	}
}

func TestUnaryServerInterceptorAuthorization(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		interceptor := UnaryServerInterceptor(
			tokenManager(t),
			WithAuthorization(authz.HasAuthority("SCOPE_api")),
		)
		if _, err := invokeUnary(t, interceptor, unaryCtx("valid-token"), "/svc.Service/Get"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("denied", func(t *testing.T) {
		interceptor := UnaryServerInterceptor(
			tokenManager(t),
			WithAuthorization(authz.HasRole("ADMIN")),
		)
		_, err := invokeUnary(t, interceptor, unaryCtx("valid-token"), "/svc.Service/Get")
		if status.Code(err) != codes.PermissionDenied {
			t.Errorf("code = %v, want %v", status.Code(err), codes.PermissionDenied)
		}
	})
}

func TestUnaryServerInterceptorCustomUnauthorizedCode(t *testing.T) {
	interceptor := UnaryServerInterceptor(
		tokenManager(t),
		WithUnauthorizedCode(codes.PermissionDenied),
	)

	_, err := invokeUnary(t, interceptor, unaryCtx("bad-token"), "/svc.Service/Get")
	if status.Code(err) != codes.PermissionDenied {
		t.Errorf("code = %v, want %v", status.Code(err), codes.PermissionDenied)
	}
}

func TestUnaryServerInterceptorCustomExtractor(t *testing.T) {
	interceptor := UnaryServerInterceptor(
		tokenManager(t),
		WithTokenExtractor(func(md metadata.MD) (string, bool) {
			values := md.Get("x-api-token")
			if len(values) == 0 {
				return "", false
			}
			return values[0], true
		}),
	)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-api-token", "valid-token"))
	token, err := invokeUnary(t, interceptor, ctx, "/svc.Service/Get")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == nil || token.Principal() != "user-123" {
		t.Errorf("token = %+v, want principal user-123", token)
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestStreamServerInterceptor(t *testing.T) {
	interceptor := StreamServerInterceptor(tokenManager(t))

	t.Run("authenticated stream", func(t *testing.T) {
		var seen *authn.Token
		handler := func(srv any, ss grpc.ServerStream) error {
			seen, _ = TokenFromContext(ss.Context())
			return nil
		}

		stream := &fakeServerStream{ctx: unaryCtx("valid-token")}
		err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/svc.Service/Watch"}, handler)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen == nil || seen.Principal() != "user-123" {
			t.Errorf("stream token = %+v, want principal user-123", seen)
		}
	})

	t.Run("rejected stream", func(t *testing.T) {
		handler := func(srv any, ss grpc.ServerStream) error { return nil }

		stream := &fakeServerStream{ctx: unaryCtx("bad-token")}
		err := interceptor(nil, stream, &grpc.StreamServerInfo{FullMethod: "/svc.Service/Watch"}, handler)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("code = %v, want %v", status.Code(err), codes.Unauthenticated)
		}
	})
}

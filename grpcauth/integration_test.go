package grpcauth

import (
	"context"
	"net"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Maxvgrad/spring-security/authz"
)

const testBufConnSize = 1024 * 1024

func newHealthClientConn(t *testing.T, serverOpts []InterceptorOption, dialOpts ...grpc.DialOption) *grpc.ClientConn {
	t.Helper()

	listener := bufconn.Listen(testBufConnSize)
	server := grpc.NewServer(
		grpc.UnaryInterceptor(UnaryServerInterceptor(tokenManager(t), serverOpts...)),
	)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	go func() {
		_ = server.Serve(listener)
	}()

	dialOpts = append(dialOpts,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}),
	)

	conn, err := grpc.NewClient("passthrough:///bufnet", dialOpts...)
	if err != nil {
		server.Stop()
		_ = listener.Close()
		t.Fatalf("failed to dial bufconn server: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
		_ = listener.Close()
	})

	return conn
}

func TestInterceptorIntegrationAuthenticatedCall(t *testing.T) {
	conn := newHealthClientConn(t, nil)
	client := healthpb.NewHealthClient(conn)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer valid-token")
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestInterceptorIntegrationMissingToken(t *testing.T) {
	conn := newHealthClientConn(t, nil)
	client := healthpb.NewHealthClient(conn)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated (err: %v)", status.Code(err), err)
	}
}

func TestInterceptorIntegrationAuthorizationDenied(t *testing.T) {
	conn := newHealthClientConn(t, []InterceptorOption{
		WithAuthorization(authz.HasRole("ADMIN")),
	})
	client := healthpb.NewHealthClient(conn)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer valid-token")
	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("code = %v, want PermissionDenied (err: %v)", status.Code(err), err)
	}
}

func TestInterceptorIntegrationClientInterceptorSupplies(t *testing.T) {
	// The client interceptor attaches the token; the call carries no
	// explicit metadata.
	source := &staticTokenSource{token: &oauth2.Token{AccessToken: "valid-token"}}
	conn := newHealthClientConn(t, nil, grpc.WithUnaryInterceptor(UnaryClientInterceptor(source)))
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v, want SERVING", resp.GetStatus())
	}
}

// Package grpcauth adapts the authentication and authorization managers to
// gRPC server interceptors.
//
// The interceptors extract a bearer credential from the "authorization"
// metadata header, authenticate it through an authn.Manager, and expose the
// authenticated token to service methods via the context:
//
//	manager, err := authn.NewJWTManager(jwksURL, issuer, audience)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(grpcauth.UnaryServerInterceptor(
//	        manager,
//	        grpcauth.WithExemptMethods("/grpc.health.v1.Health/Check"),
//	        grpcauth.WithAuthorization(authz.HasAuthority("SCOPE_api")),
//	    )),
//	)
//
// Inside a service method:
//
//	func (s *service) Get(ctx context.Context, req *pb.GetRequest) (*pb.GetResponse, error) {
//	    token, ok := grpcauth.TokenFromContext(ctx)
//	    if !ok {
//	        return nil, status.Error(codes.Unauthenticated, "not authenticated")
//	    }
//	    // token.Principal(), token.Authorities() ...
//	}
//
// Authentication failures map to codes.Unauthenticated, authorization
// denials to codes.PermissionDenied, and unexpected processing errors to
// codes.Internal.
//
// For outgoing calls, UnaryClientInterceptor and StreamClientInterceptor
// attach a Bearer token from a ClientTokenSource (such as oidc.TokenSource)
// to every request:
//
//	conn, err := grpc.NewClient(target,
//	    grpc.WithUnaryInterceptor(grpcauth.UnaryClientInterceptor(source)),
//	    grpc.WithStreamInterceptor(grpcauth.StreamClientInterceptor(source)),
//	)
package grpcauth

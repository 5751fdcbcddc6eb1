package grpcauth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Maxvgrad/spring-security/authn"
	"github.com/Maxvgrad/spring-security/authz"
)

// Logger is an interface for optional logging in interceptors.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenExtractor extracts a raw credential from gRPC metadata. It returns
// the credential and a boolean indicating whether extraction succeeded.
type TokenExtractor func(md metadata.MD) (string, bool)

// InterceptorConfig holds configuration for authentication interceptors.
type InterceptorConfig struct {
	manager          authn.Manager
	authorization    authz.Manager
	exemptMethods    map[string]bool
	logger           Logger
	tokenExtractor   TokenExtractor
	unauthorizedCode codes.Code
}

// InterceptorOption is a functional option for configuring interceptors.
type InterceptorOption func(*InterceptorConfig)

// WithExemptMethods specifies gRPC methods that don't require
// authentication. Method names are in the format "/package.Service/Method".
//
// Example:
//
//	WithExemptMethods("/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch")
func WithExemptMethods(methods ...string) InterceptorOption {
	return func(c *InterceptorConfig) {
		if c.exemptMethods == nil {
			c.exemptMethods = make(map[string]bool)
		}
		for _, method := range methods {
			c.exemptMethods[method] = true
		}
	}
}

// WithInterceptorLogger sets a logger for the interceptor.
func WithInterceptorLogger(logger Logger) InterceptorOption {
	return func(c *InterceptorConfig) {
		c.logger = logger
	}
}

// WithTokenExtractor sets a custom credential extraction function.
// By default, bearer tokens are extracted from the "authorization" header.
func WithTokenExtractor(extractor TokenExtractor) InterceptorOption {
	return func(c *InterceptorConfig) {
		c.tokenExtractor = extractor
	}
}

// WithUnauthorizedCode sets the gRPC status code returned on authentication
// failures. Default is codes.Unauthenticated.
func WithUnauthorizedCode(code codes.Code) InterceptorOption {
	return func(c *InterceptorConfig) {
		c.unauthorizedCode = code
	}
}

// WithAuthorization adds an authorization check after authentication.
// Denials return codes.PermissionDenied. The authz.Context passed to the
// manager carries no HTTP request; use built-in authority rules or custom
// rules that only consult the token.
func WithAuthorization(manager authz.Manager) InterceptorOption {
	return func(c *InterceptorConfig) {
		c.authorization = manager
	}
}

// UnaryServerInterceptor returns a gRPC unary server interceptor that
// authenticates incoming requests with the given manager.
//
// The interceptor:
// - Extracts the Bearer token from the "authorization" metadata header
// - Authenticates it via the authn.Manager
// - Stores the authenticated token in the context (see TokenFromContext)
// - Returns codes.Unauthenticated if authentication fails
// - Optionally exempts specific methods and applies an authorization rule
//
// Usage:
//
//	manager, _ := authn.NewJWTManager(jwksURL, issuer, audience)
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(grpcauth.UnaryServerInterceptor(manager)),
//	)
func UnaryServerInterceptor(manager authn.Manager, opts ...InterceptorOption) grpc.UnaryServerInterceptor {
	config := newConfig(manager, opts)

	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if config.exemptMethods[info.FullMethod] {
			if config.logger != nil {
				config.logger.Printf("grpcauth: method %s is exempt from authentication", info.FullMethod)
			}
			return handler(ctx, req)
		}

		token, err := config.authenticate(ctx)
		if err != nil {
			if config.logger != nil {
				config.logger.Printf("grpcauth: authentication failed for %s: %v", info.FullMethod, err)
			}
			return nil, err
		}

		if err := config.authorize(ctx, token); err != nil {
			if config.logger != nil {
				config.logger.Printf("grpcauth: access denied for %s (subject: %s)", info.FullMethod, token.Principal())
			}
			return nil, err
		}

		if config.logger != nil {
			config.logger.Printf("grpcauth: authenticated request for %s (subject: %s)", info.FullMethod, token.Principal())
		}

		return handler(WithToken(ctx, token), req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor that
// authenticates incoming streams with the given manager. See
// UnaryServerInterceptor for behavior.
func StreamServerInterceptor(manager authn.Manager, opts ...InterceptorOption) grpc.StreamServerInterceptor {
	config := newConfig(manager, opts)

	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if config.exemptMethods[info.FullMethod] {
			if config.logger != nil {
				config.logger.Printf("grpcauth: stream method %s is exempt from authentication", info.FullMethod)
			}
			return handler(srv, ss)
		}

		token, err := config.authenticate(ss.Context())
		if err != nil {
			if config.logger != nil {
				config.logger.Printf("grpcauth: authentication failed for stream %s: %v", info.FullMethod, err)
			}
			return err
		}

		if err := config.authorize(ss.Context(), token); err != nil {
			if config.logger != nil {
				config.logger.Printf("grpcauth: access denied for stream %s (subject: %s)", info.FullMethod, token.Principal())
			}
			return err
		}

		if config.logger != nil {
			config.logger.Printf("grpcauth: authenticated stream for %s (subject: %s)", info.FullMethod, token.Principal())
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          WithToken(ss.Context(), token),
		})
	}
}

func newConfig(manager authn.Manager, opts []InterceptorOption) *InterceptorConfig {
	config := &InterceptorConfig{
		manager:          manager,
		exemptMethods:    make(map[string]bool),
		unauthorizedCode: codes.Unauthenticated,
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// authenticate extracts the bearer credential from metadata and runs it
// through the authentication manager.
func (c *InterceptorConfig) authenticate(ctx context.Context) (*authn.Token, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(c.unauthorizedCode, "grpcauth: missing metadata")
	}

	var raw string
	if c.tokenExtractor != nil {
		var extracted bool
		raw, extracted = c.tokenExtractor(md)
		if !extracted {
			return nil, status.Error(c.unauthorizedCode, "grpcauth: missing or invalid authorization token")
		}
	} else {
		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(c.unauthorizedCode, "grpcauth: missing authorization header")
		}
		header := authHeaders[0]
		if !strings.HasPrefix(header, "Bearer ") {
			return nil, status.Error(c.unauthorizedCode, "grpcauth: invalid authorization header format")
		}
		raw = strings.TrimPrefix(header, "Bearer ")
		if raw == "" {
			return nil, status.Error(c.unauthorizedCode, "grpcauth: missing token in authorization header")
		}
	}

	token, err := c.manager.Authenticate(ctx, authn.NewCandidate("", raw))
	if err != nil {
		if authn.IsAuthenticationError(err) {
			return nil, status.Errorf(c.unauthorizedCode, "grpcauth: authentication failed: %v", err)
		}
		return nil, status.Errorf(codes.Internal, "grpcauth: authentication processing failed: %v", err)
	}
	return token, nil
}

// authorize applies the optional authorization rule to the authenticated
// token.
func (c *InterceptorConfig) authorize(ctx context.Context, token *authn.Token) error {
	if c.authorization == nil {
		return nil
	}
	supplier := authz.TokenSupplier(func() *authn.Token { return token })
	decision, err := c.authorization.Check(ctx, supplier, &authz.Context{})
	if err != nil {
		return status.Errorf(codes.Internal, "grpcauth: authorization check failed: %v", err)
	}
	if !decision.Granted {
		return status.Error(codes.PermissionDenied, "grpcauth: permission denied")
	}
	return nil
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context carrying the authenticated token.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

package grpcauth

import (
	"context"

	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// ClientTokenSource supplies access tokens for outgoing calls. It is
// satisfied by oidc.TokenSource.
type ClientTokenSource interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that
// attaches a Bearer token from the source to the "authorization" metadata
// header of every call.
func UnaryClientInterceptor(source ClientTokenSource) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		ctx, err := withBearer(ctx, source)
		if err != nil {
			return err
		}
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that
// attaches a Bearer token from the source to every opened stream.
func StreamClientInterceptor(source ClientTokenSource) grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		ctx, err := withBearer(ctx, source)
		if err != nil {
			return nil, err
		}
		return streamer(ctx, desc, cc, method, opts...)
	}
}

func withBearer(ctx context.Context, source ClientTokenSource) (context.Context, error) {
	token, err := source.Token(ctx)
	if err != nil {
		return nil, err
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token.AccessToken), nil
}

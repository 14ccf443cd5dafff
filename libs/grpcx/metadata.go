package grpcx

import (
	"context"

	"github.com/lukas99o/restaurant-api/libs/httpx"
	"google.golang.org/grpc/metadata"
)

// RequestIDMetadataKey carries the request id between services. gRPC metadata keys
// are lowercase.
const RequestIDMetadataKey = "x-request-id"

// RequestIDFromContext returns the id stored by the server interceptors. gRPC and
// HTTP share one context key so shared code logs the same attribute.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

// incomingRequestID returns the caller's id if it is usable, or a new one.
func incomingRequestID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if vals := md.Get(RequestIDMetadataKey); len(vals) > 0 && httpx.ValidRequestID(vals[0]) {
			return vals[0]
		}
	}
	return httpx.NewRequestID()
}

func outgoingWithRequestID(ctx context.Context) context.Context {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return ctx
	}
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get(RequestIDMetadataKey)) > 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, RequestIDMetadataKey, id)
}

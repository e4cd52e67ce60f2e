package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/radio-alternator/internal/api/grpc/alternator"
	"github.com/oshokin/radio-alternator/internal/logger"
)

// unknownActor is logged for calls without actor metadata.
const unknownActor = "unknown"

// actorInterceptor attaches the caller identity to the request logger and
// records every control call.
func actorInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	actor := actorFromContext(ctx)
	ctx = logger.WithKV(ctx, "actor", actor)

	logger.InfoKV(ctx, "Control call", "method", info.FullMethod)

	resp, err := handler(ctx, req)
	if err != nil {
		logger.WarnKV(ctx, "Control call failed", "method", info.FullMethod, "error", err)
	}

	return resp, err
}

// actorFromContext extracts the first actor value from incoming metadata.
func actorFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return unknownActor
	}

	if values := md.Get(api.ActorMetadataKey); len(values) > 0 && values[0] != "" {
		return values[0]
	}

	return unknownActor
}

package flight

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/plancodec/internal/recovery"
)

// UnaryServerInterceptor creates a gRPC unary interceptor that copies
// request metadata into the context, logs each call and turns panics into
// codes.Internal.
func UnaryServerInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx = EnrichContextMetadata(ctx)
		start := time.Now()
		resp, err := recovery.RecoverToValue(logger, info.FullMethod, func() (any, error) {
			return handler(ctx, req)
		})
		err = panicStatus(err)
		logCall(ctx, logger, info.FullMethod, start, err)
		return resp, err
	}
}

// StreamServerInterceptor creates a gRPC stream interceptor with the same
// behavior as UnaryServerInterceptor.
func StreamServerInterceptor(logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx := EnrichContextMetadata(ss.Context())
		wrappedStream := &wrappedServerStream{
			ServerStream: ss,
			ctx:          ctx,
		}
		start := time.Now()
		err := recovery.RecoverToError(logger, info.FullMethod, func() error {
			return handler(srv, wrappedStream)
		})
		err = panicStatus(err)
		logCall(ctx, logger, info.FullMethod, start, err)
		return err
	}
}

func panicStatus(err error) error {
	var pe *recovery.PanicError
	if errors.As(err, &pe) {
		return status.Errorf(codes.Internal, "%v", pe)
	}
	return err
}

func logCall(ctx context.Context, logger *slog.Logger, method string, start time.Time, err error) {
	if logger == nil {
		return
	}
	meta, _ := RequestMeta(ctx)
	attrs := []any{
		"method", method,
		"duration", time.Since(start),
		"request", meta,
	}
	if err != nil {
		logger.Error("RPC failed", append(attrs, "code", status.Code(err), "error", err)...)
		return
	}
	logger.Debug("RPC completed", attrs...)
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapper's custom context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

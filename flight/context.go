package flight

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/metadata"
)

type requestMetaKey struct{}

// Headers a client may send to correlate plan exchange calls with its own
// logs.
const (
	HeaderTraceID   = "plancodec-trace-id"
	HeaderSessionID = "plancodec-client-session-id"
)

// ContextMeta holds the correlation headers of a request.
type ContextMeta struct {
	TraceID   string
	SessionID string
}

// LogValue groups the non-empty identifiers under the request log key.
func (m ContextMeta) LogValue() slog.Value {
	var attrs []slog.Attr
	if m.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", m.TraceID))
	}
	if m.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", m.SessionID))
	}
	return slog.GroupValue(attrs...)
}

// WithContextMeta returns a context carrying meta.
func WithContextMeta(ctx context.Context, meta ContextMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMeta returns the metadata stored in ctx and whether the context was
// enriched at all.
func RequestMeta(ctx context.Context) (ContextMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(ContextMeta)
	return meta, ok
}

// EnrichContextMetadata copies the correlation headers of an incoming gRPC
// request into the context. Already enriched contexts and contexts without
// incoming metadata are returned unchanged.
func EnrichContextMetadata(ctx context.Context) context.Context {
	if _, ok := RequestMeta(ctx); ok {
		return ctx
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	first := func(key string) string {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
		return ""
	}
	return WithContextMeta(ctx, ContextMeta{
		TraceID:   first(HeaderTraceID),
		SessionID: first(HeaderSessionID),
	})
}

package flight

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// statusCode classifies a serialization error.
func statusCode(err error) codes.Code {
	var ce *wire.CollaboratorError
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, wire.ErrMalformedWireData), errors.Is(err, wire.ErrEncodeSelfCheckFailed):
		return codes.InvalidArgument
	case errors.Is(err, logical.ErrUnresolvedFunction), errors.Is(err, wire.ErrUnsupportedExtension):
		return codes.FailedPrecondition
	case errors.Is(err, catalog.ErrNotFound):
		return codes.NotFound
	case errors.As(err, &ce):
		return codes.Internal
	default:
		var pe *recovery.PanicError
		if errors.As(err, &pe) {
			return codes.Internal
		}
		return codes.Unknown
	}
}

// statusError converts err to a gRPC status error prefixed with msg.
func statusError(msg string, err error) error {
	return status.Errorf(statusCode(err), "%s: %v", msg, err)
}

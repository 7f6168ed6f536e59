// Package flight serves plan exchange over Arrow Flight.
//
// Clients call DoAction with one of the action types returned by
// ListActions. Plans travel in the binary form in both directions, and
// decode_plan renders them as JSON text for inspection.
package flight

import (
	"context"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// PlanSerializer converts plans between the binary and JSON forms.
// *plancodec.Serializer implements it.
type PlanSerializer interface {
	PlanToBytesWithCodec(p logical.Plan, codec wire.ExtensionCodec) ([]byte, error)
	PlanFromBytesWithCodec(ctx context.Context, data []byte, sess *catalog.Session, codec wire.ExtensionCodec) (logical.Plan, error)
	PlanToJSONWithCodec(p logical.Plan, codec wire.ExtensionCodec) (string, error)
	PlanFromJSONWithCodec(ctx context.Context, text string, sess *catalog.Session, codec wire.ExtensionCodec) (logical.Plan, error)
}

// Server implements the Flight service handlers.
// Embeds BaseFlightServer for forward compatibility with protocol changes.
type Server struct {
	flight.BaseFlightServer

	serializer PlanSerializer
	session    *catalog.Session
	codec      wire.ExtensionCodec
	allocator  memory.Allocator
	logger     *slog.Logger
}

// NewServer creates a new Flight server. Plans are decoded against sess,
// which may be nil, with codec handling extension nodes and data sources.
func NewServer(serializer PlanSerializer, sess *catalog.Session, codec wire.ExtensionCodec, allocator memory.Allocator, logger *slog.Logger) *Server {
	if codec == nil {
		codec = wire.DefaultExtensionCodec{}
	}
	if allocator == nil {
		allocator = memory.DefaultAllocator
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		serializer: serializer,
		session:    sess,
		codec:      codec,
		allocator:  allocator,
		logger:     logger,
	}
}

// RegisterFlightServer registers the Flight service on the provided gRPC server.
// This follows the standard gRPC service registration pattern.
func RegisterFlightServer(grpcServer *grpc.Server, flightServer *Server) {
	flight.RegisterFlightServiceServer(grpcServer, flightServer)
}

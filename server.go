package plancodec

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/flight"
)

// ServerConfig contains configuration for the plan exchange Flight service.
type ServerConfig struct {
	// Session resolves function names and tables while decoding plans.
	// OPTIONAL: If nil, plans calling user-defined functions fail to decode
	// and list_tables is unavailable.
	Session *catalog.Session

	// Codec encodes and decodes extension nodes and table data sources.
	// OPTIONAL: Uses DefaultExtensionCodec if nil.
	Codec ExtensionCodec

	// Allocator for Arrow memory management.
	// OPTIONAL: Uses memory.DefaultAllocator if nil.
	Allocator memory.Allocator

	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// Note: If LogLevel is specified, a new logger will be created with that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, uses Info level.
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level

	// MaxDepth bounds plan nesting accepted by the service.
	// OPTIONAL: If 0, uses DefaultMaxDepth.
	MaxDepth int

	// MaxMessageSize sets maximum gRPC message size in bytes.
	// OPTIONAL: If 0, uses gRPC default (4MB).
	MaxMessageSize int
}

// NewServer registers the plan exchange Flight service on the provided
// gRPC server.
//
// Returns ErrInvalidConfig if config is invalid.
// Does NOT start the gRPC server - user controls lifecycle via grpcServer.Serve().
//
// Example:
//
//	config := plancodec.ServerConfig{Session: sess, Codec: memtable.Codec{}}
//	grpcServer := grpc.NewServer(plancodec.ServerOptions(config)...)
//	if err := plancodec.NewServer(grpcServer, config); err != nil {
//	    log.Fatal(err)
//	}
//	lis, _ := net.Listen("tcp", ":50051")
//	grpcServer.Serve(lis)
func NewServer(grpcServer *grpc.Server, config ServerConfig) error {
	if err := validateServerConfig(grpcServer, config); err != nil {
		return err
	}

	logger := serverLogger(config)
	serializer, err := NewSerializer(Config{Logger: logger, MaxDepth: config.MaxDepth})
	if err != nil {
		return err
	}

	flightServer := flight.NewServer(serializer, config.Session, config.Codec, config.Allocator, logger)
	flight.RegisterFlightServer(grpcServer, flightServer)

	logger.Info("Plan exchange Flight server registered",
		"has_session", config.Session != nil,
		"has_codec", config.Codec != nil,
		"max_depth", serializer.MaxDepth(),
		"max_message_size", config.MaxMessageSize,
	)
	return nil
}

func validateServerConfig(grpcServer *grpc.Server, config ServerConfig) error {
	if grpcServer == nil {
		return invalidConfig("grpc server is required")
	}
	if config.MaxDepth < 0 {
		return invalidConfig("max depth must not be negative, got %d", config.MaxDepth)
	}
	if config.MaxMessageSize < 0 {
		return invalidConfig("max message size must not be negative, got %d", config.MaxMessageSize)
	}
	return nil
}

func serverLogger(config ServerConfig) *slog.Logger {
	if logger := newLogger(config.Logger, config.LogLevel); logger != nil {
		return logger
	}
	return slog.Default()
}

// ServerOptions returns gRPC server options with logging and panic
// recovery interceptors, plus message size limits when set.
//
// Example:
//
//	opts := plancodec.ServerOptions(config)
//	grpcServer := grpc.NewServer(opts...)
//	plancodec.NewServer(grpcServer, config)
func ServerOptions(config ServerConfig) []grpc.ServerOption {
	logger := serverLogger(config)
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(flight.UnaryServerInterceptor(logger)),
		grpc.StreamInterceptor(flight.StreamServerInterceptor(logger)),
	}

	if config.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(config.MaxMessageSize),
			grpc.MaxSendMsgSize(config.MaxMessageSize),
		)
	}
	return opts
}

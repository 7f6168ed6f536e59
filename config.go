package plancodec

import (
	"log/slog"
	"os"

	"github.com/hugr-lab/plancodec/wire"
)

// DefaultMaxDepth is the nesting bound used when Config.MaxDepth is zero.
const DefaultMaxDepth = wire.DefaultMaxDepth

// Config contains configuration for a Serializer.
// The zero value is valid and matches the package-level functions.
type Config struct {
	// Logger for internal logging.
	// OPTIONAL: Uses slog.Default() if nil.
	// Note: If LogLevel is specified, a new logger will be created with that level.
	Logger *slog.Logger

	// LogLevel sets the logging level.
	// OPTIONAL: If nil, Logger (or slog.Default()) is used as is.
	// Valid values: slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError
	// If Logger is also provided, LogLevel is ignored (use pre-configured logger).
	LogLevel *slog.Level

	// MaxDepth bounds container nesting accepted when decoding, and
	// therefore what an encode self-check accepts.
	// OPTIONAL: If 0, uses DefaultMaxDepth. MUST NOT be negative.
	MaxDepth int
}

// Serializer converts plans and expressions to and from their binary and
// text forms. It holds only immutable configuration and is safe for
// concurrent use.
type Serializer struct {
	logger   *slog.Logger
	maxDepth int
}

// NewSerializer creates a Serializer from config.
// Returns ErrInvalidConfig if MaxDepth is negative.
func NewSerializer(config Config) (*Serializer, error) {
	if config.MaxDepth < 0 {
		return nil, invalidConfig("max depth must not be negative, got %d", config.MaxDepth)
	}
	s := &Serializer{
		logger:   newLogger(config.Logger, config.LogLevel),
		maxDepth: config.MaxDepth,
	}
	if s.maxDepth == 0 {
		s.maxDepth = DefaultMaxDepth
	}
	return s, nil
}

// MaxDepth returns the configured nesting bound.
func (s *Serializer) MaxDepth() int {
	return s.maxDepth
}

// log returns the configured logger. The default serializer has none and
// follows slog.Default(), so slog.SetDefault after init still applies.
func (s *Serializer) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}

// newLogger picks logger, or builds a stderr text logger when only a level
// is given.
func newLogger(logger *slog.Logger, level *slog.Level) *slog.Logger {
	if logger != nil || level == nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: *level,
	}))
}

// defaultSerializer backs the package-level functions.
var defaultSerializer = &Serializer{maxDepth: DefaultMaxDepth}

package plancodec

import (
	"errors"
	"fmt"

	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// Standard errors returned by plancodec. Test them with errors.Is.
var (
	// ErrMalformedWireData indicates bytes or text that do not parse as a
	// plan or expression.
	ErrMalformedWireData = wire.ErrMalformedWireData

	// ErrUnresolvedFunction indicates a function name the registry does
	// not know.
	ErrUnresolvedFunction = logical.ErrUnresolvedFunction

	// ErrUnsupportedExtension indicates an extension node or data source
	// the codec in use cannot handle.
	ErrUnsupportedExtension = wire.ErrUnsupportedExtension

	// ErrNoExtensionCodec is reported by DefaultExtensionCodec. It matches
	// ErrUnsupportedExtension.
	ErrNoExtensionCodec = wire.ErrNoExtensionCodec

	// ErrEncodeSelfCheckFailed indicates freshly encoded expression bytes
	// failed to decode. The bytes are discarded.
	ErrEncodeSelfCheckFailed = wire.ErrEncodeSelfCheckFailed

	// ErrInvalidConfig indicates Config or ServerConfig validation failed.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// CollaboratorError wraps a failure reported by a codec or registry.
	// Use errors.As to get the operation and entity.
	CollaboratorError = wire.CollaboratorError

	// UnresolvedFunctionError names a function the registry could not
	// resolve.
	UnresolvedFunctionError = logical.UnresolvedFunctionError

	// ExtensionCodec encodes custom plan nodes and table data sources.
	ExtensionCodec = wire.ExtensionCodec

	// DefaultExtensionCodec declines every custom node and data source.
	DefaultExtensionCodec = wire.DefaultExtensionCodec

	// FunctionRegistry resolves function names during decode.
	FunctionRegistry = logical.FunctionRegistry
)

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

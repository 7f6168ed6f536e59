package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors. Test them with errors.Is.
var (
	// ErrMalformedWireData is returned when input bytes or text cannot be
	// parsed as a plan or expression: empty, truncated, trailing data,
	// unknown or missing variants, invalid values, or excessive nesting.
	ErrMalformedWireData = errors.New("malformed wire data")

	// ErrUnsupportedExtension is returned when an extension node or data
	// source cannot be encoded or decoded by the codec in use.
	ErrUnsupportedExtension = errors.New("unsupported extension")

	// ErrEncodeSelfCheckFailed is returned when freshly encoded bytes do not
	// decode. The bytes are discarded.
	ErrEncodeSelfCheckFailed = errors.New("encode self-check failed")
)

// ErrNoExtensionCodec is returned by DefaultExtensionCodec for every
// operation. It matches ErrUnsupportedExtension.
var ErrNoExtensionCodec error = noCodecError{}

type noCodecError struct{}

func (noCodecError) Error() string        { return "no extension codec provided" }
func (noCodecError) Is(target error) bool { return target == ErrUnsupportedExtension }

// CollaboratorError wraps a failure reported by a caller-supplied
// collaborator: an extension codec or a function registry.
type CollaboratorError struct {
	// Op is the collaborator operation, e.g. "decode extension".
	Op string
	// Entity names what was being processed, e.g. a table or function.
	Entity string
	Err    error
}

func (e *CollaboratorError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedWireData, fmt.Sprintf(format, args...))
}

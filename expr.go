package plancodec

import (
	"context"
	"errors"
	"fmt"

	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// ExprToBytes encodes x in the binary form using the default Serializer.
func ExprToBytes(x logical.Expr) ([]byte, error) {
	return defaultSerializer.ExprToBytes(x)
}

// ExprFromBytes decodes an expression that calls no user-defined functions.
func ExprFromBytes(data []byte) (logical.Expr, error) {
	return defaultSerializer.ExprFromBytes(data)
}

// ExprFromBytesWithRegistry decodes an expression, resolving function names
// through reg.
func ExprFromBytesWithRegistry(data []byte, reg FunctionRegistry) (logical.Expr, error) {
	return defaultSerializer.ExprFromBytesWithRegistry(data, reg)
}

// ExprToBytes encodes x in the binary form. The bytes are decoded again
// before they are returned, with every function name resolving to a
// placeholder. If that fails the bytes are discarded and the error matches
// ErrEncodeSelfCheckFailed.
func (s *Serializer) ExprToBytes(x logical.Expr) ([]byte, error) {
	n, err := wire.NewEncoder(wire.EncoderConfig{Logger: s.log()}).Expr(x)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression: %w", err)
	}
	data, err := wire.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode expression: %w", err)
	}

	if _, err := s.decodeExpr(context.Background(), data, placeholderRegistry{}); err != nil {
		s.log().Warn("Encoded expression failed self-check",
			"bytes", len(data),
			"max_depth", s.maxDepth,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrEncodeSelfCheckFailed, err)
	}

	s.log().Debug("Encoded expression", "bytes", len(data))
	return data, nil
}

// ExprFromBytes decodes an expression with no function registry. Any
// function call in data fails with ErrUnresolvedFunction.
func (s *Serializer) ExprFromBytes(data []byte) (logical.Expr, error) {
	return s.ExprFromBytesWithRegistry(data, nil)
}

// ExprFromBytesWithRegistry decodes an expression, resolving function names
// through reg. A nil reg behaves like ExprFromBytes.
func (s *Serializer) ExprFromBytesWithRegistry(data []byte, reg FunctionRegistry) (logical.Expr, error) {
	if reg == nil {
		reg = logical.NoRegistry
	}
	x, err := s.decodeExpr(context.Background(), data, reg)
	if err != nil {
		s.log().Debug("Failed to decode expression", "bytes", len(data), "error", err)
		return nil, err
	}
	s.log().Debug("Decoded expression", "bytes", len(data))
	return x, nil
}

func (s *Serializer) decodeExpr(ctx context.Context, data []byte, reg FunctionRegistry) (logical.Expr, error) {
	var n wire.ExprNode
	if err := wire.Unmarshal(data, &n, s.maxDepth); err != nil {
		return nil, err
	}
	dec := wire.NewDecoder(wire.DecoderConfig{Registry: reg, Logger: s.log()})
	x, err := recovery.RecoverToValue(s.log(), "decode expression", func() (logical.Expr, error) {
		return dec.Expr(ctx, &n)
	})
	return x, panicAsMalformed(err)
}

// panicAsMalformed reports a panic raised while converting wire nodes as
// malformed input. Collaborator panics arrive already wrapped by wire.
func panicAsMalformed(err error) error {
	var pe *recovery.PanicError
	if err != nil && errors.As(err, &pe) && !isCollaborator(err) {
		return fmt.Errorf("%w: %w", ErrMalformedWireData, err)
	}
	return err
}

func isCollaborator(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}

package plancodec

import (
	"context"
	"fmt"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// PlanToJSON renders p as JSON text with DefaultExtensionCodec.
func PlanToJSON(p logical.Plan) (string, error) {
	return defaultSerializer.PlanToJSONWithCodec(p, nil)
}

// PlanToJSONWithCodec renders p as JSON text.
func PlanToJSONWithCodec(p logical.Plan, codec ExtensionCodec) (string, error) {
	return defaultSerializer.PlanToJSONWithCodec(p, codec)
}

// PlanFromJSON parses a plan from JSON text with DefaultExtensionCodec.
func PlanFromJSON(ctx context.Context, text string, sess *catalog.Session) (logical.Plan, error) {
	return defaultSerializer.PlanFromJSONWithCodec(ctx, text, sess, nil)
}

// PlanFromJSONWithCodec parses a plan from JSON text.
func PlanFromJSONWithCodec(ctx context.Context, text string, sess *catalog.Session, codec ExtensionCodec) (logical.Plan, error) {
	return defaultSerializer.PlanFromJSONWithCodec(ctx, text, sess, codec)
}

// ExprToJSON renders x as JSON text.
func ExprToJSON(x logical.Expr) (string, error) {
	return defaultSerializer.ExprToJSON(x)
}

// ExprFromJSON parses an expression that calls no user-defined functions.
func ExprFromJSON(text string) (logical.Expr, error) {
	return defaultSerializer.ExprFromJSONWithRegistry(text, nil)
}

// ExprFromJSONWithRegistry parses an expression, resolving function names
// through reg.
func ExprFromJSONWithRegistry(text string, reg FunctionRegistry) (logical.Expr, error) {
	return defaultSerializer.ExprFromJSONWithRegistry(text, reg)
}

// PlanToJSON renders p as JSON text with DefaultExtensionCodec.
func (s *Serializer) PlanToJSON(p logical.Plan) (string, error) {
	return s.PlanToJSONWithCodec(p, nil)
}

// PlanToJSONWithCodec renders p as JSON text. The text carries the same
// nodes as the binary form, with extension payloads as base64 strings.
func (s *Serializer) PlanToJSONWithCodec(p logical.Plan, codec ExtensionCodec) (string, error) {
	n, err := s.planNode(p, codec)
	if err != nil {
		return "", err
	}
	text, err := wire.ToJSON(n)
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}
	return string(text), nil
}

// PlanFromJSON parses a plan from JSON text with DefaultExtensionCodec.
func (s *Serializer) PlanFromJSON(ctx context.Context, text string, sess *catalog.Session) (logical.Plan, error) {
	return s.PlanFromJSONWithCodec(ctx, text, sess, nil)
}

// PlanFromJSONWithCodec parses a plan from JSON text. Unknown keys and
// trailing content fail with ErrMalformedWireData.
func (s *Serializer) PlanFromJSONWithCodec(ctx context.Context, text string, sess *catalog.Session, codec ExtensionCodec) (logical.Plan, error) {
	var n wire.PlanNode
	if err := wire.FromJSON([]byte(text), &n, s.maxDepth); err != nil {
		return nil, err
	}
	return s.planFromNode(ctx, &n, sess, codec)
}

// ExprToJSON renders x as JSON text.
func (s *Serializer) ExprToJSON(x logical.Expr) (string, error) {
	n, err := wire.NewEncoder(wire.EncoderConfig{Logger: s.log()}).Expr(x)
	if err != nil {
		return "", fmt.Errorf("failed to encode expression: %w", err)
	}
	text, err := wire.ToJSON(n)
	if err != nil {
		return "", fmt.Errorf("failed to encode expression: %w", err)
	}
	return string(text), nil
}

// ExprFromJSON parses an expression that calls no user-defined functions.
func (s *Serializer) ExprFromJSON(text string) (logical.Expr, error) {
	return s.ExprFromJSONWithRegistry(text, nil)
}

// ExprFromJSONWithRegistry parses an expression from JSON text. A nil reg
// behaves like ExprFromJSON.
func (s *Serializer) ExprFromJSONWithRegistry(text string, reg FunctionRegistry) (logical.Expr, error) {
	if reg == nil {
		reg = logical.NoRegistry
	}
	var n wire.ExprNode
	if err := wire.FromJSON([]byte(text), &n, s.maxDepth); err != nil {
		return nil, err
	}
	dec := wire.NewDecoder(wire.DecoderConfig{Registry: reg, Logger: s.log()})
	x, err := recovery.RecoverToValue(s.log(), "decode expression", func() (logical.Expr, error) {
		return dec.Expr(context.Background(), &n)
	})
	return x, panicAsMalformed(err)
}

package plancodec

import (
	"context"
	"fmt"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// PlanToBytes encodes p with DefaultExtensionCodec.
func PlanToBytes(p logical.Plan) ([]byte, error) {
	return defaultSerializer.PlanToBytesWithCodec(p, nil)
}

// PlanToBytesWithCodec encodes p, passing custom nodes and data sources to
// codec.
func PlanToBytesWithCodec(p logical.Plan, codec ExtensionCodec) ([]byte, error) {
	return defaultSerializer.PlanToBytesWithCodec(p, codec)
}

// PlanFromBytes decodes a plan with DefaultExtensionCodec.
func PlanFromBytes(ctx context.Context, data []byte, sess *catalog.Session) (logical.Plan, error) {
	return defaultSerializer.PlanFromBytesWithCodec(ctx, data, sess, nil)
}

// PlanFromBytesWithCodec decodes a plan, passing custom nodes and data
// sources to codec.
func PlanFromBytesWithCodec(ctx context.Context, data []byte, sess *catalog.Session, codec ExtensionCodec) (logical.Plan, error) {
	return defaultSerializer.PlanFromBytesWithCodec(ctx, data, sess, codec)
}

// PlanToBytes encodes p with DefaultExtensionCodec, so any custom node or
// data source fails with ErrUnsupportedExtension.
func (s *Serializer) PlanToBytes(p logical.Plan) ([]byte, error) {
	return s.PlanToBytesWithCodec(p, nil)
}

// PlanToBytesWithCodec encodes p in the binary form. A nil codec means
// DefaultExtensionCodec.
func (s *Serializer) PlanToBytesWithCodec(p logical.Plan, codec ExtensionCodec) ([]byte, error) {
	n, err := s.planNode(p, codec)
	if err != nil {
		return nil, err
	}
	data, err := wire.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	s.log().Debug("Encoded plan", "bytes", len(data))
	return data, nil
}

// PlanFromBytes decodes a plan with DefaultExtensionCodec.
func (s *Serializer) PlanFromBytes(ctx context.Context, data []byte, sess *catalog.Session) (logical.Plan, error) {
	return s.PlanFromBytesWithCodec(ctx, data, sess, nil)
}

// PlanFromBytesWithCodec decodes a plan from the binary form. sess may be
// nil; otherwise it resolves function names and is handed to codec. A nil
// codec means DefaultExtensionCodec.
func (s *Serializer) PlanFromBytesWithCodec(ctx context.Context, data []byte, sess *catalog.Session, codec ExtensionCodec) (logical.Plan, error) {
	var n wire.PlanNode
	if err := wire.Unmarshal(data, &n, s.maxDepth); err != nil {
		s.log().Debug("Failed to decode plan", "bytes", len(data), "error", err)
		return nil, err
	}
	p, err := s.planFromNode(ctx, &n, sess, codec)
	if err != nil {
		s.log().Debug("Failed to decode plan", "bytes", len(data), "error", err)
		return nil, err
	}
	s.log().Debug("Decoded plan", "bytes", len(data))
	return p, nil
}

func (s *Serializer) planNode(p logical.Plan, codec ExtensionCodec) (*wire.PlanNode, error) {
	n, err := wire.NewEncoder(wire.EncoderConfig{Codec: codec, Logger: s.log()}).Plan(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return n, nil
}

func (s *Serializer) planFromNode(ctx context.Context, n *wire.PlanNode, sess *catalog.Session, codec ExtensionCodec) (logical.Plan, error) {
	config := wire.DecoderConfig{Session: sess, Codec: codec, Logger: s.log()}
	if sess != nil {
		config.Registry = sess
	}
	dec := wire.NewDecoder(config)
	p, err := recovery.RecoverToValue(s.log(), "decode plan", func() (logical.Plan, error) {
		return dec.Plan(ctx, n)
	})
	return p, panicAsMalformed(err)
}

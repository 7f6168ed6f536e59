package wire

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

// ExtensionCodec encodes the parts of a plan the wire format cannot describe
// on its own: user-defined nodes and table data sources. The payload bytes
// are opaque; they are embedded in the plan encoding unchanged.
//
// Implementations must be safe for concurrent use if shared between
// goroutines. Any error returned is reported to the caller as a
// *CollaboratorError wrapping it.
type ExtensionCodec interface {
	// DecodeExtension rebuilds an extension node. inputs are the already
	// decoded child plans. sess may be nil.
	DecodeExtension(ctx context.Context, buf []byte, inputs []logical.Plan, sess *catalog.Session) (*logical.Extension, error)

	// EncodeExtension serializes the node itself. Its inputs are encoded by
	// the caller.
	EncodeExtension(node *logical.Extension) ([]byte, error)

	// DecodeDataSource rebuilds the source of a table scan. schema is the
	// source schema recorded at encode time. sess may be nil.
	DecodeDataSource(ctx context.Context, buf []byte, schema *arrow.Schema, sess *catalog.Session) (logical.DataSource, error)

	// EncodeDataSource serializes the source of a table scan.
	EncodeDataSource(src logical.DataSource) ([]byte, error)
}

// DefaultExtensionCodec declines every operation with ErrNoExtensionCodec.
// Plans containing extension nodes or table scans fail to encode and decode
// with it.
type DefaultExtensionCodec struct{}

var _ ExtensionCodec = DefaultExtensionCodec{}

func (DefaultExtensionCodec) DecodeExtension(context.Context, []byte, []logical.Plan, *catalog.Session) (*logical.Extension, error) {
	return nil, ErrNoExtensionCodec
}

func (DefaultExtensionCodec) EncodeExtension(*logical.Extension) ([]byte, error) {
	return nil, ErrNoExtensionCodec
}

func (DefaultExtensionCodec) DecodeDataSource(context.Context, []byte, *arrow.Schema, *catalog.Session) (logical.DataSource, error) {
	return nil, ErrNoExtensionCodec
}

func (DefaultExtensionCodec) EncodeDataSource(logical.DataSource) ([]byte, error) {
	return nil, ErrNoExtensionCodec
}

package duckdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/msgpack"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// ErrSchemaDrift is returned on decode when the live table no longer has
// the columns recorded in the plan.
var ErrSchemaDrift = errors.New("table schema changed since the plan was encoded")

// tableRef is the msgpack payload of an encoded DuckDB table.
type tableRef struct {
	Schema string `msgpack:"schema"`
	Table  string `msgpack:"table"`
}

// Codec encodes scans over DuckDB tables as a reference and resolves the
// reference through the decoding session's catalog. Extension nodes are not
// supported.
type Codec struct{}

var _ wire.ExtensionCodec = Codec{}

// EncodeDataSource serializes a *Table as its schema-qualified name. Other
// sources fail with wire.ErrUnsupportedExtension.
func (Codec) EncodeDataSource(src logical.DataSource) ([]byte, error) {
	t, ok := src.(*Table)
	if !ok {
		return nil, fmt.Errorf("%w: duckdb codec cannot encode %T", wire.ErrUnsupportedExtension, src)
	}
	return msgpack.Encode(tableRef{Schema: t.schema, Table: t.name})
}

// DecodeDataSource resolves the referenced table through sess. The session
// catalog must be able to see the table, and the table's current schema must
// equal the one recorded in the plan.
func (Codec) DecodeDataSource(ctx context.Context, buf []byte, schema *arrow.Schema, sess *catalog.Session) (logical.DataSource, error) {
	var ref tableRef
	if err := msgpack.Decode(buf, &ref); err != nil {
		return nil, fmt.Errorf("duckdb table reference: %w", err)
	}
	if ref.Table == "" {
		return nil, fmt.Errorf("duckdb table reference: missing table name")
	}
	if sess == nil {
		return nil, fmt.Errorf("cannot resolve duckdb table %s.%s without a session", ref.Schema, ref.Table)
	}

	table, err := sess.ResolveTable(ctx, logical.TableReference{Schema: ref.Schema, Table: ref.Table})
	if err != nil {
		return nil, err
	}
	if !logical.SchemaEqual(table.ArrowSchema(), schema) {
		return nil, fmt.Errorf("%w: %s.%s is %s, plan expects %s", ErrSchemaDrift, ref.Schema, ref.Table, table.ArrowSchema(), schema)
	}
	return table, nil
}

// EncodeExtension always fails with wire.ErrUnsupportedExtension.
func (Codec) EncodeExtension(*logical.Extension) ([]byte, error) {
	return nil, fmt.Errorf("%w: duckdb codec has no extension nodes", wire.ErrUnsupportedExtension)
}

// DecodeExtension always fails with wire.ErrUnsupportedExtension.
func (Codec) DecodeExtension(context.Context, []byte, []logical.Plan, *catalog.Session) (*logical.Extension, error) {
	return nil, fmt.Errorf("%w: duckdb codec has no extension nodes", wire.ErrUnsupportedExtension)
}

package memtable

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/msgpack"
	"github.com/hugr-lab/plancodec/internal/serialize"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

// payload is the msgpack envelope stored in a table scan.
type payload struct {
	Name    string `msgpack:"name"`
	Comment string `msgpack:"comment,omitempty"`
	Data    []byte `msgpack:"data"`
}

// Codec encodes memtable tables with their data. Extension nodes are not
// supported.
type Codec struct {
	// Allocator is used for record buffers.
	// OPTIONAL: defaults to memory.DefaultAllocator.
	Allocator memory.Allocator
}

var _ wire.ExtensionCodec = Codec{}

func (c Codec) allocator() memory.Allocator {
	if c.Allocator == nil {
		return memory.DefaultAllocator
	}
	return c.Allocator
}

// EncodeDataSource serializes a *Table. Other sources fail with
// wire.ErrUnsupportedExtension.
func (c Codec) EncodeDataSource(src logical.DataSource) ([]byte, error) {
	t, ok := src.(*Table)
	if !ok {
		return nil, fmt.Errorf("%w: memtable codec cannot encode %T", wire.ErrUnsupportedExtension, src)
	}
	records, err := t.snapshot()
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	data, err := serialize.WriteRecords(t.schema, records, c.allocator())
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", t.name, err)
	}
	return msgpack.Encode(payload{Name: t.name, Comment: t.comment, Data: data})
}

// DecodeDataSource restores a *Table. The embedded records must match the
// schema recorded in the plan.
func (c Codec) DecodeDataSource(ctx context.Context, buf []byte, schema *arrow.Schema, _ *catalog.Session) (logical.DataSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p payload
	if err := msgpack.Decode(buf, &p); err != nil {
		return nil, fmt.Errorf("memtable payload: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("memtable payload: missing table name")
	}

	got, records, err := serialize.ReadRecords(p.Data, c.allocator())
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", p.Name, err)
	}
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()
	if !logical.SchemaEqual(got, schema) {
		return nil, fmt.Errorf("table %s: data schema %s does not match plan schema %s", p.Name, got, schema)
	}

	return NewTable(p.Name, p.Comment, schema, records...)
}

// EncodeExtension always fails with wire.ErrUnsupportedExtension.
func (Codec) EncodeExtension(*logical.Extension) ([]byte, error) {
	return nil, fmt.Errorf("%w: memtable codec has no extension nodes", wire.ErrUnsupportedExtension)
}

// DecodeExtension always fails with wire.ErrUnsupportedExtension.
func (Codec) DecodeExtension(context.Context, []byte, []logical.Plan, *catalog.Session) (*logical.Extension, error) {
	return nil, fmt.Errorf("%w: memtable codec has no extension nodes", wire.ErrUnsupportedExtension)
}

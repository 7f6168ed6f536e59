package memtable

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/plancodec/internal/msgpack"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

type otherSource struct{}

func (otherSource) ArrowSchema() *arrow.Schema { return usersSchema }

func newUsersTable(t *testing.T, mem memory.Allocator) *Table {
	t.Helper()
	rec := usersRecord(t, mem, []int64{1, 2, 3}, []string{"Alice", "Bob", "Charlie"})
	defer rec.Release()
	tbl, err := NewTable("users", "User accounts", usersSchema, rec)
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	return tbl
}

// TestCodecRoundTrip tests that a scan over a memtable keeps its rows
// through encode and decode.
func TestCodecRoundTrip(t *testing.T) {
	mem := memory.NewGoAllocator()
	tbl := newUsersTable(t, mem)
	defer tbl.Release()

	plan, err := logical.Scan(logical.TableReference{Schema: "main", Table: "users"}, tbl).
		Filter(logical.Gt(logical.Col("id"), logical.Lit(int64(1)))).
		Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	codec := Codec{Allocator: mem}
	node, err := wire.ToPlanNode(plan, codec)
	if err != nil {
		t.Fatalf("ToPlanNode() failed: %v", err)
	}
	data, err := wire.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var back wire.PlanNode
	if err := wire.Unmarshal(data, &back, 0); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	got, err := wire.FromPlanNode(context.Background(), &back, nil, codec)
	if err != nil {
		t.Fatalf("FromPlanNode() failed: %v", err)
	}
	if !got.Equals(plan) {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", logical.Format(got), logical.Format(plan))
	}

	scan := got.(*logical.Filter).Input.(*logical.TableScan)
	decoded, ok := scan.Source.(*Table)
	if !ok {
		t.Fatalf("expected *Table source, got %T", scan.Source)
	}
	defer decoded.Release()
	if decoded.Name() != "users" || decoded.Comment() != "User accounts" {
		t.Errorf("unexpected decoded table %s (%s)", decoded.Name(), decoded.Comment())
	}
	if decoded.NumRows() != 3 {
		t.Errorf("NumRows() = %d, want 3", decoded.NumRows())
	}

	want, _ := tbl.snapshot()
	have, _ := decoded.snapshot()
	defer func() {
		for _, r := range append(want, have...) {
			r.Release()
		}
	}()
	if len(want) != len(have) {
		t.Fatalf("expected %d records, got %d", len(want), len(have))
	}
	for i := range want {
		if !array.RecordEqual(want[i], have[i]) {
			t.Errorf("record %d differs after round trip", i)
		}
	}
}

// TestCodecEmptyTable tests a table without records.
func TestCodecEmptyTable(t *testing.T) {
	tbl, err := NewTable("empty", "", usersSchema)
	if err != nil {
		t.Fatalf("NewTable() failed: %v", err)
	}
	codec := Codec{}
	buf, err := codec.EncodeDataSource(tbl)
	if err != nil {
		t.Fatalf("EncodeDataSource() failed: %v", err)
	}
	src, err := codec.DecodeDataSource(context.Background(), buf, usersSchema, nil)
	if err != nil {
		t.Fatalf("DecodeDataSource() failed: %v", err)
	}
	if src.(*Table).NumRows() != 0 {
		t.Errorf("expected no rows, got %d", src.(*Table).NumRows())
	}
}

// TestCodecSchemaMismatch tests that data not matching the plan schema is
// rejected.
func TestCodecSchemaMismatch(t *testing.T) {
	tbl := newUsersTable(t, memory.NewGoAllocator())
	defer tbl.Release()

	codec := Codec{}
	buf, err := codec.EncodeDataSource(tbl)
	if err != nil {
		t.Fatalf("EncodeDataSource() failed: %v", err)
	}
	other := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int32}}, nil)
	if _, err := codec.DecodeDataSource(context.Background(), buf, other, nil); err == nil {
		t.Error("expected schema mismatch error")
	}
}

// TestCodecMalformedPayload tests rejected payloads.
func TestCodecMalformedPayload(t *testing.T) {
	noName, _ := msgpack.Encode(payload{Data: []byte{1}})
	badData, _ := msgpack.Encode(payload{Name: "users", Data: []byte("Leet")})

	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"garbage", []byte("Leet")},
		{"missing name", noName},
		{"bad data", badData},
	}
	codec := Codec{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.DecodeDataSource(context.Background(), tt.buf, usersSchema, nil); err == nil {
				t.Error("expected decode error")
			}
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := codec.DecodeDataSource(ctx, noName, usersSchema, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("DecodeDataSource() with cancelled context = %v", err)
	}
}

// TestCodecUnsupported tests that foreign sources and extension nodes are
// declined.
func TestCodecUnsupported(t *testing.T) {
	codec := Codec{}
	if _, err := codec.EncodeDataSource(otherSource{}); !errors.Is(err, wire.ErrUnsupportedExtension) {
		t.Errorf("EncodeDataSource(other) = %v, want ErrUnsupportedExtension", err)
	}
	if _, err := codec.EncodeExtension(&logical.Extension{}); !errors.Is(err, wire.ErrUnsupportedExtension) {
		t.Errorf("EncodeExtension() = %v, want ErrUnsupportedExtension", err)
	}
	if _, err := codec.DecodeExtension(context.Background(), nil, nil, nil); !errors.Is(err, wire.ErrUnsupportedExtension) {
		t.Errorf("DecodeExtension() = %v, want ErrUnsupportedExtension", err)
	}

	released := newUsersTable(t, memory.NewGoAllocator())
	released.Release()
	if _, err := codec.EncodeDataSource(released); err == nil {
		t.Error("expected error encoding a released table")
	}
}

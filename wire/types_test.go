package wire

import (
	"errors"
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/plancodec/logical"
)

// uuidType is an extension type that is never registered.
type uuidType struct {
	arrow.ExtensionBase
}

func newUUIDType() *uuidType {
	return &uuidType{arrow.ExtensionBase{Storage: &arrow.FixedSizeBinaryType{ByteWidth: 16}}}
}

func (*uuidType) ArrayType() reflect.Type { return reflect.TypeOf((*array.FixedSizeBinary)(nil)) }
func (*uuidType) ExtensionName() string   { return "test.uuid" }
func (*uuidType) Serialize() string       { return "" }

func (t *uuidType) ExtensionEquals(o arrow.ExtensionType) bool {
	return o.ExtensionName() == t.ExtensionName()
}

func (*uuidType) Deserialize(storage arrow.DataType, _ string) (arrow.ExtensionType, error) {
	return &uuidType{arrow.ExtensionBase{Storage: storage}}, nil
}

func TestTypeRoundTrip(t *testing.T) {
	fieldMD := arrow.NewMetadata([]string{"unit"}, []string{"cm"})
	tests := []arrow.DataType{
		arrow.Null,
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int8,
		arrow.PrimitiveTypes.Uint64,
		arrow.PrimitiveTypes.Float32,
		arrow.BinaryTypes.String,
		arrow.BinaryTypes.LargeString,
		arrow.BinaryTypes.LargeBinary,
		&arrow.FixedSizeBinaryType{ByteWidth: 16},
		arrow.FixedWidthTypes.Date32,
		arrow.FixedWidthTypes.Date64,
		&arrow.Time32Type{Unit: arrow.Second},
		&arrow.Time64Type{Unit: arrow.Microsecond},
		&arrow.TimestampType{Unit: arrow.Nanosecond},
		&arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "Europe/Berlin"},
		&arrow.DurationType{Unit: arrow.Millisecond},
		&arrow.Decimal128Type{Precision: 38, Scale: 10},
		arrow.ListOf(arrow.BinaryTypes.String),
		arrow.LargeListOf(arrow.PrimitiveTypes.Int64),
		arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Float64),
		arrow.StructOf(
			arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float64},
			arrow.Field{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true, Metadata: fieldMD},
		),
		logical.GeometryType,
	}

	for _, typ := range tests {
		t.Run(typ.String(), func(t *testing.T) {
			n, err := ToTypeNode(typ)
			if err != nil {
				t.Fatalf("ToTypeNode: %v", err)
			}
			data, err := Marshal(n)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var back ArrowTypeNode
			if err := Unmarshal(data, &back, 0); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			got, err := FromTypeNode(&back)
			if err != nil {
				t.Fatalf("FromTypeNode: %v", err)
			}
			if !arrow.TypeEqual(got, typ, arrow.CheckMetadata()) {
				t.Errorf("got %s, want %s", got, typ)
			}
		})
	}
}

func TestUnsupportedTypes(t *testing.T) {
	if _, err := ToTypeNode(nil); err == nil {
		t.Error("expected error for nil type")
	}
	if _, err := ToTypeNode(arrow.MapOf(arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64)); err == nil {
		t.Error("expected error for map type")
	}

	n, err := ToTypeNode(newUUIDType())
	if err != nil {
		t.Fatalf("ToTypeNode(extension): %v", err)
	}
	if n.Extension == nil || n.Extension.Name != "test.uuid" {
		t.Fatalf("unexpected extension node %+v", n)
	}
	if _, err := FromTypeNode(n); !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("FromTypeNode(unregistered) = %v, want ErrUnsupportedExtension", err)
	}
}

func TestInvalidTypeNodes(t *testing.T) {
	tests := []struct {
		name string
		node *ArrowTypeNode
	}{
		{"nil", nil},
		{"unknown id", &ArrowTypeNode{ID: "INT128"}},
		{"fixed binary width", &ArrowTypeNode{ID: "FIXED_SIZE_BINARY"}},
		{"time32 unit", &ArrowTypeNode{ID: "TIME32", Unit: "us"}},
		{"time64 unit", &ArrowTypeNode{ID: "TIME64", Unit: "s"}},
		{"timestamp unit", &ArrowTypeNode{ID: "TIMESTAMP", Unit: "minutes"}},
		{"decimal precision", &ArrowTypeNode{ID: "DECIMAL128", Precision: 0}},
		{"decimal too wide", &ArrowTypeNode{ID: "DECIMAL128", Precision: 39}},
		{"list without element", &ArrowTypeNode{ID: "LIST"}},
		{"fixed list size", &ArrowTypeNode{ID: "FIXED_SIZE_LIST", Elem: &FieldNode{Name: "item", Type: &ArrowTypeNode{ID: "INT64"}}}},
		{"extension without description", &ArrowTypeNode{ID: "EXTENSION"}},
		{"geometry bad storage", &ArrowTypeNode{ID: "EXTENSION", Extension: &ExtensionTypeNode{
			Name: logical.GeometryExtensionName, Storage: &ArrowTypeNode{ID: "INT64"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromTypeNode(tt.node); !errors.Is(err, ErrMalformedWireData) {
				t.Errorf("FromTypeNode() = %v, want ErrMalformedWireData", err)
			}
		})
	}
}

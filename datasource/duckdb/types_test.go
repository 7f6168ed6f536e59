package duckdb

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/logical"
)

// TestArrowType tests DuckDB type name conversion.
func TestArrowType(t *testing.T) {
	tests := []struct {
		name string
		want arrow.DataType
	}{
		{"BOOLEAN", arrow.FixedWidthTypes.Boolean},
		{"bool", arrow.FixedWidthTypes.Boolean},
		{"TINYINT", arrow.PrimitiveTypes.Int8},
		{"INTEGER", arrow.PrimitiveTypes.Int32},
		{"INT8", arrow.PrimitiveTypes.Int64},
		{"BIGINT", arrow.PrimitiveTypes.Int64},
		{"UBIGINT", arrow.PrimitiveTypes.Uint64},
		{"HUGEINT", &arrow.Decimal128Type{Precision: 38}},
		{"REAL", arrow.PrimitiveTypes.Float32},
		{"DOUBLE", arrow.PrimitiveTypes.Float64},
		{"VARCHAR", arrow.BinaryTypes.String},
		{"VARCHAR(20)", arrow.BinaryTypes.String},
		{"TEXT", arrow.BinaryTypes.String},
		{"BLOB", arrow.BinaryTypes.Binary},
		{"DATE", arrow.FixedWidthTypes.Date32},
		{"TIME", &arrow.Time64Type{Unit: arrow.Microsecond}},
		{"TIMESTAMP", &arrow.TimestampType{Unit: arrow.Microsecond}},
		{"TIMESTAMP_S", &arrow.TimestampType{Unit: arrow.Second}},
		{"TIMESTAMP_NS", &arrow.TimestampType{Unit: arrow.Nanosecond}},
		{"TIMESTAMP WITH TIME ZONE", &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
		{"TIMESTAMPTZ", &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}},
		{"DECIMAL(10,2)", &arrow.Decimal128Type{Precision: 10, Scale: 2}},
		{"DECIMAL", &arrow.Decimal128Type{Precision: 18, Scale: 3}},
		{"NUMERIC(5)", &arrow.Decimal128Type{Precision: 5}},
		{"UUID", &arrow.FixedSizeBinaryType{ByteWidth: 16}},
		{"GEOMETRY", logical.GeometryType},
		{"INTEGER[]", arrow.ListOf(arrow.PrimitiveTypes.Int32)},
		{"VARCHAR[][]", arrow.ListOf(arrow.ListOf(arrow.BinaryTypes.String))},
		{"DOUBLE[3]", arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Float64)},
		{"STRUCT(a INTEGER, \"b c\" VARCHAR[])", arrow.StructOf(
			arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
			arrow.Field{Name: "b c", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
		)},
		{"STRUCT(p STRUCT(x DOUBLE, y DOUBLE), d DECIMAL(4,1))", arrow.StructOf(
			arrow.Field{Name: "p", Type: arrow.StructOf(
				arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
				arrow.Field{Name: "y", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
			), Nullable: true},
			arrow.Field{Name: "d", Type: &arrow.Decimal128Type{Precision: 4, Scale: 1}, Nullable: true},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ArrowType(tt.name)
			if err != nil {
				t.Fatalf("ArrowType(%q) failed: %v", tt.name, err)
			}
			if !arrow.TypeEqual(got, tt.want) {
				t.Errorf("ArrowType(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

// TestArrowTypeUnsupported tests rejected type names.
func TestArrowTypeUnsupported(t *testing.T) {
	for _, name := range []string{
		"",
		"INTERVAL",
		"MAP(VARCHAR, INTEGER)",
		"DECIMAL(40,2)",
		"DECIMAL(5,6)",
		"DECIMAL(1,2,3)",
		"INTEGER[0]",
		"INTEGER[x]",
		"[]",
		"STRUCT()",
		"STRUCT(a)",
		"STRUCT(a INTEGER",
		"BIGINT(8)",
	} {
		if _, err := ArrowType(name); err == nil {
			t.Errorf("ArrowType(%q) expected error", name)
		}
	}
}

// TestTypeName tests Arrow to DuckDB type names.
func TestTypeName(t *testing.T) {
	tests := []struct {
		typ  arrow.DataType
		want string
	}{
		{arrow.PrimitiveTypes.Int64, "BIGINT"},
		{arrow.PrimitiveTypes.Uint8, "UTINYINT"},
		{arrow.BinaryTypes.LargeString, "VARCHAR"},
		{&arrow.Decimal128Type{Precision: 10, Scale: 2}, "DECIMAL(10, 2)"},
		{&arrow.TimestampType{Unit: arrow.Millisecond}, "TIMESTAMP_MS"},
		{&arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "Europe/Berlin"}, "TIMESTAMP WITH TIME ZONE"},
		{arrow.ListOf(arrow.PrimitiveTypes.Int32), "INTEGER[]"},
		{arrow.FixedSizeListOf(2, arrow.PrimitiveTypes.Float64), "DOUBLE[2]"},
		{arrow.Null, ""},
		{logical.GeometryType, ""},
		{arrow.ListOf(logical.GeometryType), ""},
	}
	for _, tt := range tests {
		if got := TypeName(tt.typ); got != tt.want {
			t.Errorf("TypeName(%s) = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

// TestTypeNameRoundTrip tests that rendered names parse back to the same type.
func TestTypeNameRoundTrip(t *testing.T) {
	for _, typ := range []arrow.DataType{
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int16,
		arrow.PrimitiveTypes.Float32,
		arrow.BinaryTypes.String,
		arrow.BinaryTypes.Binary,
		&arrow.Decimal128Type{Precision: 12, Scale: 4},
		&arrow.TimestampType{Unit: arrow.Nanosecond},
		arrow.ListOf(arrow.PrimitiveTypes.Int64),
	} {
		back, err := ArrowType(TypeName(typ))
		if err != nil {
			t.Fatalf("ArrowType(%q) failed: %v", TypeName(typ), err)
		}
		if !arrow.TypeEqual(back, typ) {
			t.Errorf("round trip of %s gave %s", typ, back)
		}
	}
}

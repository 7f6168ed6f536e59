package duckdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/logical"
)

// LogicalTypeID identifies DuckDB data types.
type LogicalTypeID string

const (
	TypeIDBoolean      LogicalTypeID = "BOOLEAN"
	TypeIDTinyInt      LogicalTypeID = "TINYINT"
	TypeIDSmallInt     LogicalTypeID = "SMALLINT"
	TypeIDInteger      LogicalTypeID = "INTEGER"
	TypeIDBigInt       LogicalTypeID = "BIGINT"
	TypeIDHugeInt      LogicalTypeID = "HUGEINT"
	TypeIDUTinyInt     LogicalTypeID = "UTINYINT"
	TypeIDUSmallInt    LogicalTypeID = "USMALLINT"
	TypeIDUInteger     LogicalTypeID = "UINTEGER"
	TypeIDUBigInt      LogicalTypeID = "UBIGINT"
	TypeIDFloat        LogicalTypeID = "FLOAT"
	TypeIDDouble       LogicalTypeID = "DOUBLE"
	TypeIDDecimal      LogicalTypeID = "DECIMAL"
	TypeIDVarchar      LogicalTypeID = "VARCHAR"
	TypeIDBlob         LogicalTypeID = "BLOB"
	TypeIDDate         LogicalTypeID = "DATE"
	TypeIDTime         LogicalTypeID = "TIME"
	TypeIDTimestampSec LogicalTypeID = "TIMESTAMP_S"
	TypeIDTimestampMs  LogicalTypeID = "TIMESTAMP_MS"
	TypeIDTimestamp    LogicalTypeID = "TIMESTAMP"
	TypeIDTimestampNs  LogicalTypeID = "TIMESTAMP_NS"
	TypeIDTimestampTZ  LogicalTypeID = "TIMESTAMP WITH TIME ZONE"
	TypeIDUUID         LogicalTypeID = "UUID"
	TypeIDGeometry     LogicalTypeID = "GEOMETRY"
	TypeIDStruct       LogicalTypeID = "STRUCT"
)

// typeIDMapping maps DuckDB type aliases to the names above.
// information_schema reports the canonical form, but user-written DDL and
// extension catalogs may use any of these.
var typeIDMapping = map[LogicalTypeID]LogicalTypeID{
	"TIMESTAMP_TZ":                TypeIDTimestampTZ,
	"TIMESTAMPTZ":                 TypeIDTimestampTZ,
	"TIMESTAMP_SEC":               TypeIDTimestampSec,
	"TIMESTAMP WITHOUT TIME ZONE": TypeIDTimestamp,
	"DATETIME":                    TypeIDTimestamp,
	"INT":                         TypeIDInteger,
	"INT4":                        TypeIDInteger,
	"INT8":                        TypeIDBigInt,
	"INT2":                        TypeIDSmallInt,
	"INT1":                        TypeIDTinyInt,
	"UINT8":                       TypeIDUBigInt,
	"UINT4":                       TypeIDUInteger,
	"UINT2":                       TypeIDUSmallInt,
	"UINT1":                       TypeIDUTinyInt,
	"INT128":                      TypeIDHugeInt,
	"FLOAT4":                      TypeIDFloat,
	"FLOAT8":                      TypeIDDouble,
	"REAL":                        TypeIDFloat,
	"STRING":                      TypeIDVarchar,
	"TEXT":                        TypeIDVarchar,
	"BYTEA":                       TypeIDBlob,
	"BOOL":                        TypeIDBoolean,
	"NUMERIC":                     TypeIDDecimal,
}

// Normalize returns the canonical LogicalTypeID for the given type ID.
func (t LogicalTypeID) Normalize() LogicalTypeID {
	if mapped, ok := typeIDMapping[t]; ok {
		return mapped
	}
	return t
}

var simpleArrowTypes = map[LogicalTypeID]arrow.DataType{
	TypeIDBoolean:      arrow.FixedWidthTypes.Boolean,
	TypeIDTinyInt:      arrow.PrimitiveTypes.Int8,
	TypeIDSmallInt:     arrow.PrimitiveTypes.Int16,
	TypeIDInteger:      arrow.PrimitiveTypes.Int32,
	TypeIDBigInt:       arrow.PrimitiveTypes.Int64,
	TypeIDHugeInt:      &arrow.Decimal128Type{Precision: 38, Scale: 0},
	TypeIDUTinyInt:     arrow.PrimitiveTypes.Uint8,
	TypeIDUSmallInt:    arrow.PrimitiveTypes.Uint16,
	TypeIDUInteger:     arrow.PrimitiveTypes.Uint32,
	TypeIDUBigInt:      arrow.PrimitiveTypes.Uint64,
	TypeIDFloat:        arrow.PrimitiveTypes.Float32,
	TypeIDDouble:       arrow.PrimitiveTypes.Float64,
	TypeIDVarchar:      arrow.BinaryTypes.String,
	TypeIDBlob:         arrow.BinaryTypes.Binary,
	TypeIDDate:         arrow.FixedWidthTypes.Date32,
	TypeIDTime:         &arrow.Time64Type{Unit: arrow.Microsecond},
	TypeIDTimestampSec: &arrow.TimestampType{Unit: arrow.Second},
	TypeIDTimestampMs:  &arrow.TimestampType{Unit: arrow.Millisecond},
	TypeIDTimestamp:    &arrow.TimestampType{Unit: arrow.Microsecond},
	TypeIDTimestampNs:  &arrow.TimestampType{Unit: arrow.Nanosecond},
	TypeIDTimestampTZ:  &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"},
	TypeIDUUID:         &arrow.FixedSizeBinaryType{ByteWidth: 16},
	TypeIDGeometry:     logical.GeometryType,
}

// ArrowType converts a DuckDB type name, as reported by
// information_schema.columns.data_type, to an Arrow data type.
//
// Supported forms:
//   - scalar names and their aliases (BIGINT, INT8, VARCHAR, ...)
//   - DECIMAL(width,scale)
//   - lists (INTEGER[]) and fixed-size arrays (DOUBLE[3])
//   - STRUCT(name TYPE, ...)
func ArrowType(name string) (arrow.DataType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty type name")
	}

	if strings.HasSuffix(name, "]") {
		open := strings.LastIndex(name, "[")
		if open <= 0 {
			return nil, fmt.Errorf("invalid array type %q", name)
		}
		elem, err := ArrowType(name[:open])
		if err != nil {
			return nil, err
		}
		size := name[open+1 : len(name)-1]
		if size == "" {
			return arrow.ListOf(elem), nil
		}
		n, err := strconv.Atoi(size)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid array size in %q", name)
		}
		return arrow.FixedSizeListOf(int32(n), elem), nil
	}

	base, args, err := splitTypeArgs(name)
	if err != nil {
		return nil, err
	}
	id := LogicalTypeID(strings.ToUpper(base)).Normalize()

	switch id {
	case TypeIDDecimal:
		return decimalType(name, args)
	case TypeIDStruct:
		return structType(name, args)
	}
	if args != "" {
		if id == TypeIDVarchar {
			// VARCHAR(n) carries a length DuckDB does not enforce.
			return arrow.BinaryTypes.String, nil
		}
		return nil, fmt.Errorf("unexpected type arguments in %q", name)
	}
	if t, ok := simpleArrowTypes[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unsupported DuckDB type %q", name)
}

// splitTypeArgs splits "NAME(args)" into its parts. args is empty when the
// type has no parentheses.
func splitTypeArgs(name string) (string, string, error) {
	open := strings.Index(name, "(")
	if open < 0 {
		return name, "", nil
	}
	if !strings.HasSuffix(name, ")") {
		return "", "", fmt.Errorf("unbalanced parentheses in %q", name)
	}
	return strings.TrimSpace(name[:open]), strings.TrimSpace(name[open+1 : len(name)-1]), nil
}

func decimalType(name, args string) (arrow.DataType, error) {
	if args == "" {
		// DuckDB's default DECIMAL is DECIMAL(18,3).
		return &arrow.Decimal128Type{Precision: 18, Scale: 3}, nil
	}
	parts := strings.Split(args, ",")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid decimal type %q", name)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width < 1 || width > 38 {
		return nil, fmt.Errorf("invalid decimal width in %q", name)
	}
	scale := 0
	if len(parts) == 2 {
		scale, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || scale < 0 || scale > width {
			return nil, fmt.Errorf("invalid decimal scale in %q", name)
		}
	}
	return &arrow.Decimal128Type{Precision: int32(width), Scale: int32(scale)}, nil
}

func structType(name, args string) (arrow.DataType, error) {
	members, err := splitTopLevel(args)
	if err != nil {
		return nil, fmt.Errorf("invalid struct type %q: %w", name, err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("struct type %q has no fields", name)
	}
	fields := make([]arrow.Field, 0, len(members))
	for _, m := range members {
		fieldName, typeName, err := splitStructMember(m)
		if err != nil {
			return nil, fmt.Errorf("invalid struct type %q: %w", name, err)
		}
		t, err := ArrowType(typeName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: fieldName, Type: t, Nullable: true})
	}
	return arrow.StructOf(fields...), nil
}

// splitTopLevel splits s on commas outside parentheses and double quotes.
func splitTopLevel(s string) ([]string, error) {
	var (
		parts  []string
		depth  int
		quoted bool
		start  int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if depth != 0 || quoted {
		return nil, fmt.Errorf("unbalanced parentheses or quotes")
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		parts = append(parts, rest)
	}
	return parts, nil
}

// splitStructMember splits `name TYPE` or `"quoted name" TYPE`.
func splitStructMember(m string) (string, string, error) {
	if strings.HasPrefix(m, `"`) {
		end := strings.Index(m[1:], `"`)
		if end < 0 {
			return "", "", fmt.Errorf("unterminated field name in %q", m)
		}
		return m[1 : end+1], strings.TrimSpace(m[end+2:]), nil
	}
	sp := strings.IndexByte(m, ' ')
	if sp <= 0 {
		return "", "", fmt.Errorf("missing field type in %q", m)
	}
	return m[:sp], strings.TrimSpace(m[sp+1:]), nil
}

// TypeName returns the DuckDB SQL name of an Arrow type, for use in CAST
// expressions. It returns "" for types without a DuckDB equivalent.
func TypeName(t arrow.DataType) string {
	switch t := t.(type) {
	case *arrow.BooleanType:
		return "BOOLEAN"
	case *arrow.Int8Type:
		return "TINYINT"
	case *arrow.Int16Type:
		return "SMALLINT"
	case *arrow.Int32Type:
		return "INTEGER"
	case *arrow.Int64Type:
		return "BIGINT"
	case *arrow.Uint8Type:
		return "UTINYINT"
	case *arrow.Uint16Type:
		return "USMALLINT"
	case *arrow.Uint32Type:
		return "UINTEGER"
	case *arrow.Uint64Type:
		return "UBIGINT"
	case *arrow.Float32Type:
		return "FLOAT"
	case *arrow.Float64Type:
		return "DOUBLE"
	case *arrow.Decimal128Type:
		return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale)
	case *arrow.StringType, *arrow.LargeStringType:
		return "VARCHAR"
	case *arrow.BinaryType, *arrow.LargeBinaryType:
		return "BLOB"
	case *arrow.Date32Type, *arrow.Date64Type:
		return "DATE"
	case *arrow.Time32Type, *arrow.Time64Type:
		return "TIME"
	case *arrow.TimestampType:
		if t.TimeZone != "" {
			return "TIMESTAMP WITH TIME ZONE"
		}
		switch t.Unit {
		case arrow.Second:
			return "TIMESTAMP_S"
		case arrow.Millisecond:
			return "TIMESTAMP_MS"
		case arrow.Nanosecond:
			return "TIMESTAMP_NS"
		}
		return "TIMESTAMP"
	case *arrow.ListType:
		if elem := TypeName(t.Elem()); elem != "" {
			return elem + "[]"
		}
	case *arrow.FixedSizeListType:
		if elem := TypeName(t.Elem()); elem != "" {
			return fmt.Sprintf("%s[%d]", elem, t.Len())
		}
	}
	return ""
}

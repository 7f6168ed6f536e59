package logical

import (
	"bytes"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ScalarValue is a typed constant.
//
// V holds the Go representation that matches Type:
//
//	BOOL                          bool
//	INT8..INT64, UINT8..UINT64    int8..int64, uint8..uint64
//	FLOAT32, FLOAT64              float32, float64
//	STRING, LARGE_STRING          string
//	BINARY, LARGE_BINARY,
//	FIXED_SIZE_BINARY             []byte
//	DATE32, DATE64                arrow.Date32, arrow.Date64
//	TIME32, TIME64                arrow.Time32, arrow.Time64
//	TIMESTAMP                     arrow.Timestamp
//	DURATION                      arrow.Duration
//	DECIMAL128                    decimal128.Num
//	geoarrow.wkb extension        orb.Geometry
//
// A NULL value of any type has Null set and V nil.
type ScalarValue struct {
	Type arrow.DataType
	Null bool
	V    any
}

// NullValue returns a typed NULL.
func NullValue(t arrow.DataType) ScalarValue {
	if t == nil {
		t = arrow.Null
	}
	return ScalarValue{Type: t, Null: true}
}

// NewScalar builds a non-null scalar and checks that v matches t.
func NewScalar(t arrow.DataType, v any) (ScalarValue, error) {
	if t == nil {
		return ScalarValue{}, fmt.Errorf("scalar type is nil")
	}
	if err := checkScalar(t, v); err != nil {
		return ScalarValue{}, err
	}
	return ScalarValue{Type: t, V: v}, nil
}

// ScalarOf infers the Arrow type of a Go value.
// Decimals cannot be inferred and must be built with NewScalar.
func ScalarOf(v any) (ScalarValue, error) {
	switch x := v.(type) {
	case nil:
		return NullValue(arrow.Null), nil
	case bool:
		return ScalarValue{Type: arrow.FixedWidthTypes.Boolean, V: x}, nil
	case int8:
		return ScalarValue{Type: arrow.PrimitiveTypes.Int8, V: x}, nil
	case int16:
		return ScalarValue{Type: arrow.PrimitiveTypes.Int16, V: x}, nil
	case int32:
		return ScalarValue{Type: arrow.PrimitiveTypes.Int32, V: x}, nil
	case int64:
		return ScalarValue{Type: arrow.PrimitiveTypes.Int64, V: x}, nil
	case int:
		return ScalarValue{Type: arrow.PrimitiveTypes.Int64, V: int64(x)}, nil
	case uint8:
		return ScalarValue{Type: arrow.PrimitiveTypes.Uint8, V: x}, nil
	case uint16:
		return ScalarValue{Type: arrow.PrimitiveTypes.Uint16, V: x}, nil
	case uint32:
		return ScalarValue{Type: arrow.PrimitiveTypes.Uint32, V: x}, nil
	case uint64:
		return ScalarValue{Type: arrow.PrimitiveTypes.Uint64, V: x}, nil
	case uint:
		return ScalarValue{Type: arrow.PrimitiveTypes.Uint64, V: uint64(x)}, nil
	case float32:
		return ScalarValue{Type: arrow.PrimitiveTypes.Float32, V: x}, nil
	case float64:
		return ScalarValue{Type: arrow.PrimitiveTypes.Float64, V: x}, nil
	case string:
		return ScalarValue{Type: arrow.BinaryTypes.String, V: x}, nil
	case []byte:
		return ScalarValue{Type: arrow.BinaryTypes.Binary, V: x}, nil
	case arrow.Date32:
		return ScalarValue{Type: arrow.FixedWidthTypes.Date32, V: x}, nil
	case arrow.Date64:
		return ScalarValue{Type: arrow.FixedWidthTypes.Date64, V: x}, nil
	case time.Time:
		return ScalarValue{
			Type: &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"},
			V:    arrow.Timestamp(x.UnixMicro()),
		}, nil
	case orb.Geometry:
		if err := ValidateGeometry(x); err != nil {
			return ScalarValue{}, err
		}
		return ScalarValue{Type: GeometryType, V: x}, nil
	default:
		return ScalarValue{}, fmt.Errorf("unsupported literal type %T", v)
	}
}

// Validate checks that V is the Go representation of Type.
func (s ScalarValue) Validate() error {
	if s.Type == nil {
		return fmt.Errorf("scalar type is nil")
	}
	if s.Null {
		if s.V != nil {
			return fmt.Errorf("null %s scalar has a value", s.Type)
		}
		return nil
	}
	return checkScalar(s.Type, s.V)
}

// Equals compares type, nullness and value. Floats compare bitwise so NaN
// equals itself.
func (s ScalarValue) Equals(o ScalarValue) bool {
	if !typesEqual(s.Type, o.Type) || s.Null != o.Null {
		return false
	}
	if s.Null {
		return true
	}
	return valuesEqual(s.V, o.V)
}

func (s ScalarValue) String() string {
	typ := "Null"
	if s.Type != nil {
		typ = s.Type.String()
	}
	if s.Null {
		return typ + "(NULL)"
	}
	switch v := s.V.(type) {
	case string:
		return fmt.Sprintf("%s(%q)", typ, v)
	case []byte:
		return fmt.Sprintf("%s(%x)", typ, v)
	case orb.Geometry:
		return fmt.Sprintf("%s(%s)", typ, wkt.MarshalString(v))
	case decimal128.Num:
		if dt, ok := s.Type.(*arrow.Decimal128Type); ok {
			return fmt.Sprintf("%s(%s)", typ, v.ToString(dt.Scale))
		}
	}
	return fmt.Sprintf("%s(%v)", typ, s.V)
}

func typesEqual(a, b arrow.DataType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return arrow.TypeEqual(a, b)
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case float32:
		y, ok := b.(float32)
		return ok && math.Float32bits(x) == math.Float32bits(y)
	case float64:
		y, ok := b.(float64)
		return ok && math.Float64bits(x) == math.Float64bits(y)
	case orb.Geometry:
		y, ok := b.(orb.Geometry)
		return ok && orb.Equal(x, y)
	default:
		return a == b
	}
}

// checkScalar validates that v is the Go representation of type t.
func checkScalar(t arrow.DataType, v any) error {
	if v == nil {
		return fmt.Errorf("non-null %s scalar has nil value", t)
	}
	ok := false
	switch t.ID() {
	case arrow.NULL:
		return fmt.Errorf("null type scalar must be NULL")
	case arrow.BOOL:
		_, ok = v.(bool)
	case arrow.INT8:
		_, ok = v.(int8)
	case arrow.INT16:
		_, ok = v.(int16)
	case arrow.INT32:
		_, ok = v.(int32)
	case arrow.INT64:
		_, ok = v.(int64)
	case arrow.UINT8:
		_, ok = v.(uint8)
	case arrow.UINT16:
		_, ok = v.(uint16)
	case arrow.UINT32:
		_, ok = v.(uint32)
	case arrow.UINT64:
		_, ok = v.(uint64)
	case arrow.FLOAT32:
		_, ok = v.(float32)
	case arrow.FLOAT64:
		_, ok = v.(float64)
	case arrow.STRING, arrow.LARGE_STRING:
		var str string
		if str, ok = v.(string); ok && !utf8.ValidString(str) {
			return fmt.Errorf("%s scalar is not valid UTF-8", t)
		}
	case arrow.BINARY, arrow.LARGE_BINARY:
		_, ok = v.([]byte)
	case arrow.FIXED_SIZE_BINARY:
		var b []byte
		if b, ok = v.([]byte); ok {
			if width := t.(*arrow.FixedSizeBinaryType).ByteWidth; len(b) != width {
				return fmt.Errorf("fixed size binary value has %d bytes, want %d", len(b), width)
			}
		}
	case arrow.DATE32:
		_, ok = v.(arrow.Date32)
	case arrow.DATE64:
		_, ok = v.(arrow.Date64)
	case arrow.TIME32:
		_, ok = v.(arrow.Time32)
	case arrow.TIME64:
		_, ok = v.(arrow.Time64)
	case arrow.TIMESTAMP:
		_, ok = v.(arrow.Timestamp)
	case arrow.DURATION:
		_, ok = v.(arrow.Duration)
	case arrow.DECIMAL128:
		_, ok = v.(decimal128.Num)
	case arrow.EXTENSION:
		if !IsGeometry(t) {
			return fmt.Errorf("unsupported literal extension type %s", t)
		}
		var g orb.Geometry
		if g, ok = v.(orb.Geometry); ok {
			return ValidateGeometry(g)
		}
	default:
		return fmt.Errorf("unsupported literal type %s", t)
	}
	if !ok {
		return fmt.Errorf("value of type %T does not match literal type %s", v, t)
	}
	return nil
}

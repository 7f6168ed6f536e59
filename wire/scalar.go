package wire

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/paulmach/orb"

	"github.com/hugr-lab/plancodec/logical"
)

// ToScalarNode converts a scalar value to its wire form.
func ToScalarNode(s logical.ScalarValue) (*ScalarValueNode, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	t, err := ToTypeNode(s.Type)
	if err != nil {
		return nil, err
	}
	n := &ScalarValueNode{Type: t}
	if s.Null {
		n.Null = true
		return n, nil
	}

	switch v := s.V.(type) {
	case bool:
		n.Bool = v
	case int8:
		n.Int = int64(v)
	case int16:
		n.Int = int64(v)
	case int32:
		n.Int = int64(v)
	case int64:
		n.Int = v
	case uint8:
		n.Uint = uint64(v)
	case uint16:
		n.Uint = uint64(v)
	case uint32:
		n.Uint = uint64(v)
	case uint64:
		n.Uint = v
	case float32:
		f := Float64(v)
		n.Float = &f
	case float64:
		f := Float64(v)
		n.Float = &f
	case string:
		n.Str = v
	case []byte:
		n.Bytes = v
	case arrow.Date32:
		n.Int = int64(v)
	case arrow.Date64:
		n.Int = int64(v)
	case arrow.Time32:
		n.Int = int64(v)
	case arrow.Time64:
		n.Int = int64(v)
	case arrow.Timestamp:
		n.Int = int64(v)
	case arrow.Duration:
		n.Int = int64(v)
	case decimal128.Num:
		n.Decimal = &DecimalNode{Hi: v.HighBits(), Lo: v.LowBits()}
	case orb.Geometry:
		b, err := logical.EncodeGeometry(v)
		if err != nil {
			return nil, err
		}
		n.Bytes = b
	default:
		return nil, fmt.Errorf("unsupported scalar value %T for type %s", s.V, s.Type)
	}
	return n, nil
}

// FromScalarNode converts a wire scalar back to a scalar value.
func FromScalarNode(n *ScalarValueNode) (logical.ScalarValue, error) {
	if n == nil {
		return logical.ScalarValue{}, malformed("missing literal")
	}
	t, err := FromTypeNode(n.Type)
	if err != nil {
		return logical.ScalarValue{}, err
	}
	if n.Null {
		return logical.NullValue(t), nil
	}

	v, err := scalarValue(t, n)
	if err != nil {
		return logical.ScalarValue{}, err
	}
	s, err := logical.NewScalar(t, v)
	if err != nil {
		return logical.ScalarValue{}, malformed("%v", err)
	}
	return s, nil
}

func scalarValue(t arrow.DataType, n *ScalarValueNode) (any, error) {
	switch t.ID() {
	case arrow.BOOL:
		return n.Bool, nil
	case arrow.INT8:
		return narrowInt(n.Int, math.MinInt8, math.MaxInt8, func(i int64) any { return int8(i) })
	case arrow.INT16:
		return narrowInt(n.Int, math.MinInt16, math.MaxInt16, func(i int64) any { return int16(i) })
	case arrow.INT32:
		return narrowInt(n.Int, math.MinInt32, math.MaxInt32, func(i int64) any { return int32(i) })
	case arrow.INT64:
		return n.Int, nil
	case arrow.UINT8:
		return narrowUint(n.Uint, math.MaxUint8, func(u uint64) any { return uint8(u) })
	case arrow.UINT16:
		return narrowUint(n.Uint, math.MaxUint16, func(u uint64) any { return uint16(u) })
	case arrow.UINT32:
		return narrowUint(n.Uint, math.MaxUint32, func(u uint64) any { return uint32(u) })
	case arrow.UINT64:
		return n.Uint, nil
	case arrow.FLOAT32:
		if n.Float == nil {
			return float32(0), nil
		}
		return float32(*n.Float), nil
	case arrow.FLOAT64:
		if n.Float == nil {
			return float64(0), nil
		}
		return float64(*n.Float), nil
	case arrow.STRING, arrow.LARGE_STRING:
		if !utf8.ValidString(n.Str) {
			return nil, malformed("string literal is not valid UTF-8")
		}
		return n.Str, nil
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		if n.Bytes == nil {
			return []byte{}, nil
		}
		return n.Bytes, nil
	case arrow.DATE32:
		return narrowInt(n.Int, math.MinInt32, math.MaxInt32, func(i int64) any { return arrow.Date32(i) })
	case arrow.DATE64:
		return arrow.Date64(n.Int), nil
	case arrow.TIME32:
		return narrowInt(n.Int, math.MinInt32, math.MaxInt32, func(i int64) any { return arrow.Time32(i) })
	case arrow.TIME64:
		return arrow.Time64(n.Int), nil
	case arrow.TIMESTAMP:
		return arrow.Timestamp(n.Int), nil
	case arrow.DURATION:
		return arrow.Duration(n.Int), nil
	case arrow.DECIMAL128:
		if n.Decimal == nil {
			return decimal128.Num{}, nil
		}
		return decimal128.New(n.Decimal.Hi, n.Decimal.Lo), nil
	case arrow.EXTENSION:
		if !logical.IsGeometry(t) {
			return nil, fmt.Errorf("%w: literal of extension type %s", ErrUnsupportedExtension, t)
		}
		g, err := logical.DecodeGeometry(n.Bytes)
		if err != nil {
			return nil, malformed("geometry literal: %v", err)
		}
		return g, nil
	}
	return nil, malformed("literal of type %s is not supported", t)
}

func narrowInt(v, lo, hi int64, conv func(int64) any) (any, error) {
	if v < lo || v > hi {
		return nil, malformed("integer literal %d out of range", v)
	}
	return conv(v), nil
}

func narrowUint(v, hi uint64, conv func(uint64) any) (any, error) {
	if v > hi {
		return nil, malformed("unsigned literal %d out of range", v)
	}
	return conv(v), nil
}

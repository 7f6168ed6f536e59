package plancodec

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

var dummyUDF = logical.NewScalarUDF("dummy",
	[]arrow.DataType{arrow.BinaryTypes.String},
	arrow.BinaryTypes.String,
	logical.VolatilityImmutable,
	func(args []arrow.Array) (arrow.Array, error) {
		args[0].Retain()
		return args[0], nil
	})

var medianUDAF = logical.NewAggregateUDF("median",
	[]arrow.DataType{arrow.PrimitiveTypes.Float64},
	arrow.PrimitiveTypes.Float64,
	logical.VolatilityImmutable, nil, nil)

func testRegistry(t testing.TB) *catalog.Session {
	t.Helper()
	sess := catalog.NewSession(nil)
	if err := sess.RegisterUDF(dummyUDF); err != nil {
		t.Fatalf("RegisterUDF: %v", err)
	}
	if err := sess.RegisterUDAF(medianUDAF); err != nil {
		t.Fatalf("RegisterUDAF: %v", err)
	}
	return sess
}

func ltFive() logical.Expr {
	return logical.Lt(logical.Col("a"), logical.Lit(int64(5)))
}

// TestExprBadDecode tests that arbitrary bytes are rejected.
func TestExprBadDecode(t *testing.T) {
	_, err := ExprFromBytes([]byte("Leet"))
	if !errors.Is(err, ErrMalformedWireData) {
		t.Fatalf("Expected ErrMalformedWireData, got %v", err)
	}
}

// TestExprRoundTrip tests encoding and decoding a comparison.
func TestExprRoundTrip(t *testing.T) {
	x := ltFive()
	data, err := ExprToBytes(x)
	if err != nil {
		t.Fatalf("ExprToBytes failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Expected non-empty bytes")
	}

	got, err := ExprFromBytes(data)
	if err != nil {
		t.Fatalf("ExprFromBytes failed: %v", err)
	}
	if !got.Equals(x) {
		t.Errorf("Expected %s, got %s", x, got)
	}
}

// TestExprDeeplyNested tests AND chains of growing depth.
func TestExprDeeplyNested(t *testing.T) {
	x := ltFive()
	for n := 1; n <= 100; n++ {
		data, err := ExprToBytes(x)
		if err != nil {
			t.Fatalf("n=%d: ExprToBytes failed: %v", n, err)
		}
		got, err := ExprFromBytes(data)
		if err != nil {
			t.Fatalf("n=%d: ExprFromBytes failed: %v", n, err)
		}
		if !got.Equals(x) {
			t.Fatalf("n=%d: round trip mismatch", n)
		}
		x = logical.And(x, ltFive())
	}
}

// TestExprUDFRoundTrip tests that functions resolve only through a registry.
func TestExprUDFRoundTrip(t *testing.T) {
	x := dummyUDF.Call(logical.Col("a"))

	data, err := ExprToBytes(x)
	if err != nil {
		t.Fatalf("ExprToBytes failed: %v", err)
	}

	_, err = ExprFromBytes(data)
	if !errors.Is(err, ErrUnresolvedFunction) {
		t.Fatalf("Expected ErrUnresolvedFunction, got %v", err)
	}
	want := "no function registry provided to deserialize, so can not deserialize user defined function 'dummy'"
	if !strings.Contains(err.Error(), want) {
		t.Errorf("Expected message %q, got %q", want, err.Error())
	}
	var ufe *UnresolvedFunctionError
	if !errors.As(err, &ufe) || ufe.Name != "dummy" {
		t.Errorf("Expected UnresolvedFunctionError for dummy, got %v", err)
	}

	got, err := ExprFromBytesWithRegistry(data, testRegistry(t))
	if err != nil {
		t.Fatalf("ExprFromBytesWithRegistry failed: %v", err)
	}
	if !got.Equals(x) {
		t.Errorf("Expected %s, got %s", x, got)
	}
	fn, ok := got.(*logical.ScalarFunction)
	if !ok || fn.Func != dummyUDF {
		t.Errorf("Expected the registered definition, got %#v", got)
	}

	unknown, err := ExprToBytes(logical.NewScalarUDF("nope", nil, arrow.Null, logical.VolatilityImmutable, nil).Call())
	if err != nil {
		t.Fatalf("ExprToBytes failed: %v", err)
	}
	if _, err := ExprFromBytesWithRegistry(unknown, testRegistry(t)); !errors.Is(err, ErrUnresolvedFunction) {
		t.Errorf("Expected ErrUnresolvedFunction for unknown name, got %v", err)
	}
}

// TestExprAggregateUDFRoundTrip tests aggregate function references.
func TestExprAggregateUDFRoundTrip(t *testing.T) {
	x := medianUDAF.Call(logical.Col("price"))
	data, err := ExprToBytes(x)
	if err != nil {
		t.Fatalf("ExprToBytes failed: %v", err)
	}
	if _, err := ExprFromBytes(data); !errors.Is(err, ErrUnresolvedFunction) {
		t.Errorf("Expected ErrUnresolvedFunction, got %v", err)
	}
	got, err := ExprFromBytesWithRegistry(data, testRegistry(t))
	if err != nil {
		t.Fatalf("ExprFromBytesWithRegistry failed: %v", err)
	}
	if !got.Equals(x) {
		t.Errorf("Expected %s, got %s", x, got)
	}
}

// TestExprTruncated tests that every strict prefix of valid bytes fails.
func TestExprTruncated(t *testing.T) {
	x := logical.And(ltFive(), dummyUDF.Call(logical.Lit("x")))
	data, err := ExprToBytes(x)
	if err != nil {
		t.Fatalf("ExprToBytes failed: %v", err)
	}
	reg := testRegistry(t)
	for i := 0; i < len(data); i++ {
		if _, err := ExprFromBytesWithRegistry(data[:i], reg); !errors.Is(err, ErrMalformedWireData) {
			t.Fatalf("prefix %d/%d: expected ErrMalformedWireData, got %v", i, len(data), err)
		}
	}

	trailing := append(append([]byte{}, data...), 0x00)
	if _, err := ExprFromBytesWithRegistry(trailing, reg); !errors.Is(err, ErrMalformedWireData) {
		t.Errorf("Expected ErrMalformedWireData for trailing byte, got %v", err)
	}
}

// TestExprSelfCheckFailure tests that a too-deep expression never yields
// bytes.
func TestExprSelfCheckFailure(t *testing.T) {
	var logs bytes.Buffer
	s, err := NewSerializer(Config{
		Logger:   slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn})),
		MaxDepth: 8,
	})
	if err != nil {
		t.Fatalf("NewSerializer failed: %v", err)
	}

	x := ltFive()
	for i := 0; i < 20; i++ {
		x = logical.And(x, ltFive())
	}

	data, err := s.ExprToBytes(x)
	if !errors.Is(err, ErrEncodeSelfCheckFailed) {
		t.Fatalf("Expected ErrEncodeSelfCheckFailed, got %v", err)
	}
	if !errors.Is(err, ErrMalformedWireData) {
		t.Errorf("Expected cause to match ErrMalformedWireData, got %v", err)
	}
	if data != nil {
		t.Errorf("Expected no bytes, got %d", len(data))
	}
	if !strings.Contains(logs.String(), "failed self-check") {
		t.Errorf("Expected warning log, got %q", logs.String())
	}

	// The default depth accepts the same expression.
	if _, err := ExprToBytes(x); err != nil {
		t.Errorf("Expected default serializer to accept expression, got %v", err)
	}
}

// TestExprEncodeErrors tests expressions that cannot be encoded.
func TestExprEncodeErrors(t *testing.T) {
	if _, err := ExprToBytes(nil); err == nil {
		t.Error("Expected error for nil expression")
	}
	if _, err := ExprToJSON(nil); err == nil {
		t.Error("Expected error for nil expression")
	}
}

// TestPlaceholderRegistry tests the stand-in definitions.
func TestPlaceholderRegistry(t *testing.T) {
	reg := placeholderRegistry{}
	if reg.Names() != nil {
		t.Errorf("Expected no names, got %v", reg.Names())
	}

	fn, err := reg.ScalarFunction("anything")
	if err != nil {
		t.Fatalf("ScalarFunction failed: %v", err)
	}
	if fn.Name != "anything" || fn.ReturnType.ID() != arrow.NULL || len(fn.Signature.Args) != 0 {
		t.Errorf("Unexpected stand-in %+v", fn)
	}
	if fn.Volatility != logical.VolatilityImmutable {
		t.Errorf("Expected immutable volatility, got %v", fn.Volatility)
	}
	assertPanics(t, "scalar impl", func() { _, _ = fn.Impl(nil) })

	agg, err := reg.AggregateFunction("anything")
	if err != nil {
		t.Fatalf("AggregateFunction failed: %v", err)
	}
	if agg.Name != "anything" || agg.ReturnType.ID() != arrow.NULL {
		t.Errorf("Unexpected stand-in %+v", agg)
	}
	assertPanics(t, "accumulator", func() { _, _ = agg.Accumulator() })
}

func assertPanics(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("Expected %s to panic", what)
		}
	}()
	fn()
}

// TestNewSerializerConfig tests config validation and defaults.
func TestNewSerializerConfig(t *testing.T) {
	if _, err := NewSerializer(Config{MaxDepth: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}

	s, err := NewSerializer(Config{})
	if err != nil {
		t.Fatalf("NewSerializer failed: %v", err)
	}
	if s.MaxDepth() != DefaultMaxDepth {
		t.Errorf("Expected default depth %d, got %d", DefaultMaxDepth, s.MaxDepth())
	}
	if s.log() != slog.Default() {
		t.Error("Expected slog.Default() without Logger or LogLevel")
	}

	level := slog.LevelDebug
	s, err = NewSerializer(Config{LogLevel: &level})
	if err != nil {
		t.Fatalf("NewSerializer failed: %v", err)
	}
	if s.log() == slog.Default() {
		t.Error("Expected a dedicated logger when LogLevel is set")
	}
}

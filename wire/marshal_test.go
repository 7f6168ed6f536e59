package wire

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/logical"
)

func TestEmptyRelationJSON(t *testing.T) {
	n, err := ToPlanNode(&logical.EmptyRelation{}, nil)
	if err != nil {
		t.Fatalf("ToPlanNode: %v", err)
	}
	text, err := ToJSON(n)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if string(text) != `{"emptyRelation":{}}` {
		t.Errorf("ToJSON() = %s, want {\"emptyRelation\":{}}", text)
	}

	n, err = ToPlanNode(&logical.EmptyRelation{ProduceOneRow: true}, nil)
	if err != nil {
		t.Fatalf("ToPlanNode: %v", err)
	}
	text, err = ToJSON(n)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if string(text) != `{"emptyRelation":{"produceOneRow":true}}` {
		t.Errorf("ToJSON() = %s", text)
	}
}

func TestFloatJSON(t *testing.T) {
	tests := []struct {
		value float64
		text  string
	}{
		{math.NaN(), `"NaN"`},
		{math.Inf(1), `"Infinity"`},
		{math.Inf(-1), `"-Infinity"`},
		{math.Copysign(0, -1), `-0`},
		{0.1, `0.1`},
		{1e300, `1e+300`},
	}
	for _, tt := range tests {
		got, err := Float64(tt.value).MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", tt.value, err)
		}
		if string(got) != tt.text {
			t.Errorf("MarshalJSON(%v) = %s, want %s", tt.value, got, tt.text)
		}
		var back Float64
		if err := back.UnmarshalJSON(got); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", got, err)
		}
		if math.Float64bits(float64(back)) != math.Float64bits(tt.value) {
			t.Errorf("UnmarshalJSON(%s) = %v, want %v", got, back, tt.value)
		}
	}

	var f Float64
	if err := f.UnmarshalJSON([]byte(`"inf"`)); err == nil {
		t.Error("expected error for unknown float string")
	}
}

func TestDeterministicEncoding(t *testing.T) {
	md1 := arrow.NewMetadata([]string{"b", "a"}, []string{"2", "1"})
	md2 := arrow.NewMetadata([]string{"a", "b"}, []string{"1", "2"})
	fields := []arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int64}}
	p1 := &logical.EmptyRelation{Schema: arrow.NewSchema(fields, &md1)}
	p2 := &logical.EmptyRelation{Schema: arrow.NewSchema(fields, &md2)}

	encode := func(p logical.Plan) []byte {
		n, err := ToPlanNode(p, nil)
		if err != nil {
			t.Fatalf("ToPlanNode: %v", err)
		}
		data, err := Marshal(n)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		return data
	}

	first := encode(p1)
	for i := 0; i < 10; i++ {
		if !bytes.Equal(encode(p1), first) {
			t.Fatal("encoding the same plan twice produced different bytes")
		}
	}
	if !bytes.Equal(encode(p2), first) {
		t.Error("metadata insertion order changed the encoding")
	}
}

func notChain(depth int) logical.Expr {
	var x logical.Expr = logical.Col("a")
	for i := 0; i < depth; i++ {
		x = &logical.Not{Expr: x}
	}
	return x
}

func TestUnmarshalMalformed(t *testing.T) {
	n, err := ToExprNode(logical.Lt(logical.Col("a"), logical.Lit(int64(5))))
	if err != nil {
		t.Fatalf("ToExprNode: %v", err)
	}
	good, err := Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	unknown, _ := Marshal(map[string]any{"bogus": 1})
	wrongType, _ := Marshal("hello")

	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"truncated", good[:len(good)-1]},
		{"half", good[:len(good)/2]},
		{"trailing", append(append([]byte{}, good...), 0xc0)},
		{"unknown field", unknown},
		{"wrong type", wrongType},
		{"reserved byte", []byte{0xc1}},
		{"hostile nesting", bytes.Repeat([]byte{0x91}, 100000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out ExprNode
			err := Unmarshal(tt.data, &out, 0)
			if !errors.Is(err, ErrMalformedWireData) {
				t.Errorf("Unmarshal() = %v, want ErrMalformedWireData", err)
			}
		})
	}
}

func TestUnmarshalDepth(t *testing.T) {
	n, err := ToExprNode(notChain(100))
	if err != nil {
		t.Fatalf("ToExprNode: %v", err)
	}
	data, err := Marshal(n)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out ExprNode
	if err := Unmarshal(data, &out, 0); err != nil {
		t.Fatalf("Unmarshal with default depth: %v", err)
	}

	err = Unmarshal(data, &out, 10)
	if !errors.Is(err, ErrMalformedWireData) {
		t.Fatalf("Unmarshal with depth 10 = %v, want ErrMalformedWireData", err)
	}
	if !strings.Contains(err.Error(), "nesting depth exceeds 10") {
		t.Errorf("unexpected message: %v", err)
	}

	text, err := ToJSON(n)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if err := FromJSON(text, &out, 10); !errors.Is(err, ErrMalformedWireData) {
		t.Errorf("FromJSON with depth 10 = %v, want ErrMalformedWireData", err)
	}
}

func TestFromJSONMalformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"blank", "  \n"},
		{"truncated", `{"emptyRelation":{`},
		{"trailing", `{"emptyRelation":{}} {}`},
		{"trailing garbage", `{"emptyRelation":{}}x`},
		{"unbalanced", `{"emptyRelation":{}}}`},
		{"unknown field", `{"bogus":1}`},
		{"unknown nested field", `{"emptyRelation":{"rows":1}}`},
		{"wrong type", `{"emptyRelation":[]}`},
		{"unterminated string", `{"emptyRelation`},
		{"deep", strings.Repeat("[", 5000) + strings.Repeat("]", 5000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out PlanNode
			err := FromJSON([]byte(tt.text), &out, 0)
			if !errors.Is(err, ErrMalformedWireData) {
				t.Errorf("FromJSON(%q) = %v, want ErrMalformedWireData", tt.text, err)
			}
		})
	}
}

func TestFromJSONStringsWithBrackets(t *testing.T) {
	text := `{"column":{"name":"a\"[{b"}}`
	var out ExprNode
	if err := FromJSON([]byte(text), &out, 2); err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if out.Column == nil || out.Column.Name != `a"[{b` {
		t.Errorf("unexpected column %+v", out.Column)
	}
}

package wire

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
)

func col(name string) *ExprNode { return &ExprNode{Column: &ColumnNode{Name: name}} }

func empty() *PlanNode { return &PlanNode{EmptyRelation: &EmptyRelationNode{}} }

func TestDecodeInvalidExprNodes(t *testing.T) {
	int64Type := &ArrowTypeNode{ID: "INT64"}
	tests := []struct {
		name string
		node *ExprNode
	}{
		{"nil", nil},
		{"no variant", &ExprNode{}},
		{"two variants", &ExprNode{Column: &ColumnNode{Name: "a"}, Wildcard: &WildcardNode{}}},
		{"unnamed column", &ExprNode{Column: &ColumnNode{}}},
		{"unknown operator", &ExprNode{BinaryExpr: &BinaryExprNode{Left: col("a"), Op: "<=>", Right: col("b")}}},
		{"missing operand", &ExprNode{BinaryExpr: &BinaryExprNode{Left: col("a"), Op: "Eq"}}},
		{"unknown aggregate", &ExprNode{AggregateFunction: &AggregateFunctionNode{AggrFunction: "MEDIAN"}}},
		{"bad escape", &ExprNode{Like: &LikeNode{Expr: col("a"), Pattern: col("b"), EscapeChar: "ab"}}},
		{"nil case arm", &ExprNode{Case: &CaseNode{WhenThen: []*WhenThenNode{nil}}}},
		{"nil list item", &ExprNode{InList: &InListNode{Expr: col("a"), List: []*ExprNode{nil}}}},
		{"cast without type", &ExprNode{Cast: &CastNode{Expr: col("a")}}},
		{"literal without type", &ExprNode{Literal: &ScalarValueNode{}}},
		{"int8 overflow", &ExprNode{Literal: &ScalarValueNode{Type: &ArrowTypeNode{ID: "INT8"}, Int: 300}}},
		{"uint16 overflow", &ExprNode{Literal: &ScalarValueNode{Type: &ArrowTypeNode{ID: "UINT16"}, Uint: 1 << 20}}},
		{"invalid utf8", &ExprNode{Literal: &ScalarValueNode{Type: &ArrowTypeNode{ID: "UTF8"}, Str: "\xff\xfe"}}},
		{"short fixed binary", &ExprNode{Literal: &ScalarValueNode{Type: &ArrowTypeNode{ID: "FIXED_SIZE_BINARY", ByteWidth: 4}, Bytes: []byte{1}}}},
		{"bad geometry", &ExprNode{Literal: &ScalarValueNode{
			Type:  &ArrowTypeNode{ID: "EXTENSION", Extension: &ExtensionTypeNode{Name: logical.GeometryExtensionName, Storage: &ArrowTypeNode{ID: "BINARY"}}},
			Bytes: []byte{1, 2, 3},
		}}},
		{"placeholder with bad type", &ExprNode{Placeholder: &PlaceholderNode{ID: "$1", Type: &ArrowTypeNode{ID: "INT128"}}}},
		{"subquery missing", &ExprNode{Exists: &ExistsNode{}}},
		{"sort of nothing", &ExprNode{Sort: &SortExprNode{}}},
		{"cast and column", &ExprNode{Cast: &CastNode{Expr: col("a"), Type: int64Type}, Column: &ColumnNode{Name: "a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromExprNode(context.Background(), tt.node, nil)
			if !errors.Is(err, ErrMalformedWireData) {
				t.Errorf("FromExprNode() = %v, want ErrMalformedWireData", err)
			}
		})
	}
}

func TestDecodeInvalidPlanNodes(t *testing.T) {
	one := int64(1)
	schema := &SchemaNode{Fields: []*FieldNode{{Name: "a", Type: &ArrowTypeNode{ID: "INT64"}}}}
	tests := []struct {
		name string
		node *PlanNode
	}{
		{"nil", nil},
		{"no variant", &PlanNode{}},
		{"two variants", &PlanNode{EmptyRelation: &EmptyRelationNode{}, Distinct: &DistinctNode{Input: empty()}}},
		{"missing input", &PlanNode{Filter: &FilterNode{Predicate: col("a")}}},
		{"negative skip", &PlanNode{Limit: &LimitNode{Input: empty(), Skip: -1, Fetch: &one}}},
		{"unknown join type", &PlanNode{Join: &JoinNode{Left: empty(), Right: empty(), JoinType: "OUTER_APPLY"}}},
		{"join key mismatch", &PlanNode{Join: &JoinNode{Left: empty(), Right: empty(), JoinType: "INNER", LeftKeys: []*ExprNode{col("a")}}}},
		{"short values row", &PlanNode{Values: &ValuesNode{Schema: schema, Rows: [][]*ExprNode{{}}}}},
		{"projection out of range", &PlanNode{TableScan: &TableScanNode{Table: TableReferenceNode{Table: "t"}, Schema: schema, Projection: &[]int{1}}}},
		{"scan without table", &PlanNode{TableScan: &TableScanNode{Schema: schema}}},
		{"duplicate metadata", &PlanNode{EmptyRelation: &EmptyRelationNode{Schema: &SchemaNode{
			Metadata: []KeyValue{{Key: "k", Value: "1"}, {Key: "k", Value: "2"}},
		}}}},
		{"nil union input", &PlanNode{Union: &UnionNode{Inputs: []*PlanNode{empty(), nil}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromPlanNode(context.Background(), tt.node, nil, testCodec{})
			if !errors.Is(err, ErrMalformedWireData) {
				t.Errorf("FromPlanNode() = %v, want ErrMalformedWireData", err)
			}
		})
	}
}

func TestDecodeUnresolvedFunction(t *testing.T) {
	dummy := logical.NewScalarUDF("dummy", nil, arrow.PrimitiveTypes.Int64, logical.VolatilityImmutable, nil)
	n, err := ToExprNode(dummy.Call())
	if err != nil {
		t.Fatalf("ToExprNode: %v", err)
	}

	_, err = FromExprNode(context.Background(), n, nil)
	if !errors.Is(err, logical.ErrUnresolvedFunction) {
		t.Fatalf("FromExprNode() = %v, want ErrUnresolvedFunction", err)
	}
	want := "no function registry provided to deserialize, so can not deserialize user defined function 'dummy'"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err, want)
	}

	// A registry that lacks the name reports it the same way.
	sess := testSession()
	sess.DeregisterUDF("dummy")
	_, err = FromExprNode(context.Background(), n, sess)
	if !errors.Is(err, logical.ErrUnresolvedFunction) {
		t.Errorf("FromExprNode() = %v, want ErrUnresolvedFunction", err)
	}

	got, err := FromExprNode(context.Background(), n, testSession())
	if err != nil {
		t.Fatalf("FromExprNode with registry: %v", err)
	}
	if !got.Equals(dummy.Call()) {
		t.Errorf("got %s, want dummy()", got)
	}
}

type faultyRegistry struct {
	err    error
	panics bool
}

func (r faultyRegistry) Names() []string { return nil }

func (r faultyRegistry) ScalarFunction(string) (*logical.ScalarUDF, error) {
	if r.panics {
		panic("registry exploded")
	}
	return nil, r.err
}

func (r faultyRegistry) AggregateFunction(string) (*logical.AggregateUDF, error) {
	return nil, r.err
}

func TestDecodeRegistryFailures(t *testing.T) {
	n, err := ToExprNode(&logical.ScalarFunction{Func: &logical.ScalarUDF{Name: "f"}})
	if err != nil {
		t.Fatalf("ToExprNode: %v", err)
	}
	backend := errors.New("backend offline")

	tests := []struct {
		name string
		reg  faultyRegistry
	}{
		{"error", faultyRegistry{err: backend}},
		{"nil function", faultyRegistry{}},
		{"panic", faultyRegistry{panics: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromExprNode(context.Background(), n, tt.reg)
			var ce *CollaboratorError
			if !errors.As(err, &ce) {
				t.Fatalf("FromExprNode() = %v, want *CollaboratorError", err)
			}
			if ce.Entity != "f" {
				t.Errorf("entity = %q, want f", ce.Entity)
			}
			if tt.reg.err != nil && !errors.Is(err, backend) {
				t.Errorf("error does not wrap the registry error: %v", err)
			}
			var pe *recovery.PanicError
			if tt.reg.panics && !errors.As(err, &pe) {
				t.Errorf("error does not wrap the panic: %v", err)
			}
		})
	}
}

func TestDefaultExtensionCodec(t *testing.T) {
	scan := mustBuild(t, usersScan())

	_, err := ToPlanNode(scan, nil)
	if !errors.Is(err, ErrUnsupportedExtension) || !errors.Is(err, ErrNoExtensionCodec) {
		t.Fatalf("ToPlanNode() = %v, want ErrNoExtensionCodec", err)
	}
	var ce *CollaboratorError
	if !errors.As(err, &ce) || ce.Op != "encode data source" || ce.Entity != "main.users" {
		t.Errorf("unexpected collaborator error: %v", err)
	}

	ext := &logical.Extension{Node: &topK{k: 3, input: scan}}
	if _, err := ToPlanNode(ext, nil); !errors.Is(err, ErrNoExtensionCodec) {
		t.Errorf("ToPlanNode(extension) = %v, want ErrNoExtensionCodec", err)
	}

	n, err := ToPlanNode(scan, testCodec{})
	if err != nil {
		t.Fatalf("ToPlanNode: %v", err)
	}
	if _, err := FromPlanNode(context.Background(), n, nil, nil); !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("FromPlanNode() = %v, want ErrUnsupportedExtension", err)
	}
}

func TestExtensionCodecFailures(t *testing.T) {
	scan := mustBuild(t, usersScan())
	ext := &logical.Extension{Node: &topK{k: 3, input: scan}}

	_, err := ToPlanNode(ext, testCodec{panicOnEncode: true})
	var pe *recovery.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("ToPlanNode() = %v, want recovered panic", err)
	}
	if !strings.Contains(err.Error(), "encode extension TopK") {
		t.Errorf("unexpected message: %v", err)
	}

	n, err := ToPlanNode(ext, testCodec{})
	if err != nil {
		t.Fatalf("ToPlanNode: %v", err)
	}
	if n.Extension.Name != "TopK" || string(n.Extension.Node) != "3" || len(n.Extension.Inputs) != 1 {
		t.Errorf("unexpected extension node %+v", n.Extension)
	}

	denied := errors.New("access denied")
	_, err = FromPlanNode(context.Background(), n, nil, testCodec{decodeErr: denied})
	var ce *CollaboratorError
	if !errors.As(err, &ce) || !errors.Is(err, denied) {
		t.Fatalf("FromPlanNode() = %v, want collaborator error wrapping denial", err)
	}
	if ce.Op != "decode data source" {
		t.Errorf("op = %q, want decode data source", ce.Op)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name string
		plan logical.Plan
	}{
		{"nil plan", nil},
		{"scan without source", &logical.TableScan{Table: logical.TableReference{Table: "t"}}},
		{"nil extension node", &logical.Extension{}},
		{"nil filter predicate", &logical.Filter{Input: &logical.EmptyRelation{}}},
		{"unknown join type", &logical.Join{Left: &logical.EmptyRelation{}, Right: &logical.EmptyRelation{}}},
		{"invalid literal", &logical.Filter{
			Input:     &logical.EmptyRelation{},
			Predicate: logical.LitValue(logical.ScalarValue{Type: arrow.PrimitiveTypes.Int64, V: "x"}),
		}},
		{"invalid utf8 literal", &logical.Projection{
			Input: &logical.EmptyRelation{},
			Exprs: []logical.Expr{logical.Lit("a\xffb")},
		}},
		{"negative limit skip", &logical.Limit{Input: &logical.EmptyRelation{}, Skip: -1}},
		{"udf without name", &logical.Projection{
			Input: &logical.EmptyRelation{},
			Exprs: []logical.Expr{&logical.ScalarFunction{}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToPlanNode(tt.plan, testCodec{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FromExprNode(ctx, col("a"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("FromExprNode() = %v, want context.Canceled", err)
	}
}

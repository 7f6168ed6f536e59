package wire

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

var usersSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

type testSource struct {
	name   string
	schema *arrow.Schema
}

func (s *testSource) ArrowSchema() *arrow.Schema { return s.schema }

// topK keeps the first k rows of its input.
type topK struct {
	k     int
	input logical.Plan
}

func (t *topK) Name() string           { return "TopK" }
func (t *topK) Inputs() []logical.Plan { return []logical.Plan{t.input} }
func (t *topK) Schema() *arrow.Schema  { return nil }
func (t *topK) Equals(o logical.UserDefinedNode) bool {
	x, ok := o.(*topK)
	return ok && t.k == x.k && t.input.Equals(x.input)
}

// testCodec serializes testSource by name and topK by its k.
type testCodec struct {
	panicOnEncode bool
	decodeErr     error
}

func (c testCodec) EncodeDataSource(src logical.DataSource) ([]byte, error) {
	s, ok := src.(*testSource)
	if !ok {
		return nil, fmt.Errorf("%w: data source %T", ErrUnsupportedExtension, src)
	}
	return []byte(s.name), nil
}

func (c testCodec) DecodeDataSource(_ context.Context, buf []byte, schema *arrow.Schema, _ *catalog.Session) (logical.DataSource, error) {
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	return &testSource{name: string(buf), schema: schema}, nil
}

func (c testCodec) EncodeExtension(node *logical.Extension) ([]byte, error) {
	if c.panicOnEncode {
		panic("encode exploded")
	}
	t, ok := node.Node.(*topK)
	if !ok {
		return nil, fmt.Errorf("%w: node %s", ErrUnsupportedExtension, node.Node.Name())
	}
	return []byte(strconv.Itoa(t.k)), nil
}

func (c testCodec) DecodeExtension(_ context.Context, buf []byte, inputs []logical.Plan, _ *catalog.Session) (*logical.Extension, error) {
	if c.decodeErr != nil {
		return nil, c.decodeErr
	}
	if len(inputs) != 1 {
		return nil, errors.New("TopK takes one input")
	}
	k, err := strconv.Atoi(string(buf))
	if err != nil {
		return nil, err
	}
	return &logical.Extension{Node: &topK{k: k, input: inputs[0]}}, nil
}

func testSession() *catalog.Session {
	sess := catalog.NewSession(nil)
	_ = sess.RegisterUDF(logical.NewScalarUDF("dummy", nil, arrow.PrimitiveTypes.Int64, logical.VolatilityImmutable, nil))
	_ = sess.RegisterUDF(logical.NewScalarUDF("upper", []arrow.DataType{arrow.BinaryTypes.String}, arrow.BinaryTypes.String, logical.VolatilityImmutable, nil))
	_ = sess.RegisterUDAF(logical.NewAggregateUDF("median", []arrow.DataType{arrow.PrimitiveTypes.Float64}, arrow.PrimitiveTypes.Float64, logical.VolatilityImmutable, nil, nil))
	return sess
}

func usersScan() *logical.PlanBuilder {
	return logical.Scan(logical.TableReference{Schema: "main", Table: "users"}, &testSource{name: "users", schema: usersSchema})
}

package wire

import (
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
)

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	// Codec encodes extension nodes and table data sources.
	// OPTIONAL: Defaults to DefaultExtensionCodec.
	Codec ExtensionCodec

	// Logger receives panics recovered from the codec.
	// OPTIONAL: Defaults to slog.Default().
	Logger *slog.Logger
}

// Encoder converts logical plans and expressions to wire nodes.
// It holds no mutable state and is safe for concurrent use.
type Encoder struct {
	codec  ExtensionCodec
	logger *slog.Logger
}

// NewEncoder creates an Encoder.
func NewEncoder(config EncoderConfig) *Encoder {
	e := &Encoder{codec: config.Codec, logger: config.Logger}
	if e.codec == nil {
		e.codec = DefaultExtensionCodec{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// ToExprNode converts an expression using the default extension codec.
func ToExprNode(x logical.Expr) (*ExprNode, error) {
	return NewEncoder(EncoderConfig{}).Expr(x)
}

// ToPlanNode converts a plan using codec, which may be nil.
func ToPlanNode(p logical.Plan, codec ExtensionCodec) (*PlanNode, error) {
	return NewEncoder(EncoderConfig{Codec: codec}).Plan(p)
}

// Expr converts an expression tree to its wire form.
func (e *Encoder) Expr(x logical.Expr) (*ExprNode, error) {
	if x == nil {
		return nil, fmt.Errorf("expression is nil")
	}

	switch v := x.(type) {
	case *logical.Column:
		return &ExprNode{Column: &ColumnNode{Relation: v.Relation, Name: v.Name}}, nil

	case *logical.Literal:
		s, err := ToScalarNode(v.Value)
		if err != nil {
			return nil, err
		}
		return &ExprNode{Literal: s}, nil

	case *logical.BinaryExpr:
		name := v.Op.Name()
		if name == "" {
			return nil, fmt.Errorf("unknown binary operator %d", v.Op)
		}
		l, err := e.Expr(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := e.Expr(v.Right)
		if err != nil {
			return nil, err
		}
		return &ExprNode{BinaryExpr: &BinaryExprNode{Left: l, Op: name, Right: r}}, nil

	case *logical.Not:
		inner, err := e.Expr(v.Expr)
		return &ExprNode{Not: inner}, err

	case *logical.IsNull:
		inner, err := e.Expr(v.Expr)
		return &ExprNode{IsNull: inner}, err

	case *logical.IsNotNull:
		inner, err := e.Expr(v.Expr)
		return &ExprNode{IsNotNull: inner}, err

	case *logical.Negative:
		inner, err := e.Expr(v.Expr)
		return &ExprNode{Negative: inner}, err

	case *logical.Between:
		exprs, err := e.exprs([]logical.Expr{v.Expr, v.Low, v.High})
		if err != nil {
			return nil, err
		}
		return &ExprNode{Between: &BetweenNode{Expr: exprs[0], Negated: v.Negated, Low: exprs[1], High: exprs[2]}}, nil

	case *logical.Case:
		n := &CaseNode{WhenThen: make([]*WhenThenNode, len(v.WhenThen))}
		var err error
		if n.Expr, err = e.optExpr(v.Expr); err != nil {
			return nil, err
		}
		for i, wt := range v.WhenThen {
			pair, err := e.exprs([]logical.Expr{wt.When, wt.Then})
			if err != nil {
				return nil, err
			}
			n.WhenThen[i] = &WhenThenNode{When: pair[0], Then: pair[1]}
		}
		if n.Else, err = e.optExpr(v.Else); err != nil {
			return nil, err
		}
		return &ExprNode{Case: n}, nil

	case *logical.Cast:
		n, err := e.cast(v.Expr, v.Type)
		return &ExprNode{Cast: n}, err

	case *logical.TryCast:
		n, err := e.cast(v.Expr, v.Type)
		return &ExprNode{TryCast: n}, err

	case *logical.InList:
		inner, err := e.Expr(v.Expr)
		if err != nil {
			return nil, err
		}
		list, err := e.exprs(v.List)
		if err != nil {
			return nil, err
		}
		return &ExprNode{InList: &InListNode{Expr: inner, List: list, Negated: v.Negated}}, nil

	case *logical.Like:
		pair, err := e.exprs([]logical.Expr{v.Expr, v.Pattern})
		if err != nil {
			return nil, err
		}
		n := &LikeNode{Expr: pair[0], Pattern: pair[1], Negated: v.Negated, CaseInsensitive: v.CaseInsensitive}
		if v.Escape != 0 {
			n.EscapeChar = string(v.Escape)
		}
		return &ExprNode{Like: n}, nil

	case *logical.Alias:
		inner, err := e.Expr(v.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprNode{Alias: &AliasNode{Expr: inner, Name: v.Name}}, nil

	case *logical.ScalarFunction:
		if v.Func == nil || v.Func.Name == "" {
			return nil, fmt.Errorf("scalar function call without a function name")
		}
		args, err := e.exprs(v.Args)
		if err != nil {
			return nil, err
		}
		return &ExprNode{ScalarFunction: &ScalarFunctionNode{FunName: v.Func.Name, Args: args}}, nil

	case *logical.AggregateFunction:
		name := v.Func.String()
		if _, ok := logical.ParseAggregateOp(name); !ok {
			return nil, fmt.Errorf("unknown aggregate function %d", v.Func)
		}
		args, err := e.exprs(v.Args)
		if err != nil {
			return nil, err
		}
		filter, err := e.optExpr(v.Filter)
		if err != nil {
			return nil, err
		}
		return &ExprNode{AggregateFunction: &AggregateFunctionNode{
			AggrFunction: name, Args: args, Distinct: v.Distinct, Filter: filter,
		}}, nil

	case *logical.AggregateUDFExpr:
		if v.Func == nil || v.Func.Name == "" {
			return nil, fmt.Errorf("aggregate function call without a function name")
		}
		args, err := e.exprs(v.Args)
		if err != nil {
			return nil, err
		}
		filter, err := e.optExpr(v.Filter)
		if err != nil {
			return nil, err
		}
		return &ExprNode{AggregateUDF: &AggregateUDFNode{FunName: v.Func.Name, Args: args, Filter: filter}}, nil

	case *logical.SortExpr:
		n, err := e.sortExpr(v)
		return &ExprNode{Sort: n}, err

	case *logical.Wildcard:
		return &ExprNode{Wildcard: &WildcardNode{}}, nil

	case *logical.ScalarSubquery:
		sub, err := e.Plan(v.Subquery)
		if err != nil {
			return nil, err
		}
		return &ExprNode{ScalarSubquery: &SubqueryNode{Subquery: sub}}, nil

	case *logical.Exists:
		sub, err := e.Plan(v.Subquery)
		if err != nil {
			return nil, err
		}
		return &ExprNode{Exists: &ExistsNode{Subquery: sub, Negated: v.Negated}}, nil

	case *logical.InSubquery:
		inner, err := e.Expr(v.Expr)
		if err != nil {
			return nil, err
		}
		sub, err := e.Plan(v.Subquery)
		if err != nil {
			return nil, err
		}
		return &ExprNode{InSubquery: &InSubqueryNode{Expr: inner, Subquery: sub, Negated: v.Negated}}, nil

	case *logical.Placeholder:
		n := &PlaceholderNode{ID: v.ID}
		if v.Type != nil {
			t, err := ToTypeNode(v.Type)
			if err != nil {
				return nil, err
			}
			n.Type = t
		}
		return &ExprNode{Placeholder: n}, nil
	}

	return nil, fmt.Errorf("unsupported expression %T", x)
}

func (e *Encoder) optExpr(x logical.Expr) (*ExprNode, error) {
	if x == nil {
		return nil, nil
	}
	return e.Expr(x)
}

func (e *Encoder) exprs(xs []logical.Expr) ([]*ExprNode, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	out := make([]*ExprNode, len(xs))
	for i, x := range xs {
		n, err := e.Expr(x)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (e *Encoder) cast(x logical.Expr, t arrow.DataType) (*CastNode, error) {
	inner, err := e.Expr(x)
	if err != nil {
		return nil, err
	}
	tn, err := ToTypeNode(t)
	if err != nil {
		return nil, err
	}
	return &CastNode{Expr: inner, Type: tn}, nil
}

func (e *Encoder) sortExpr(s *logical.SortExpr) (*SortExprNode, error) {
	if s == nil {
		return nil, fmt.Errorf("sort expression is nil")
	}
	inner, err := e.Expr(s.Expr)
	if err != nil {
		return nil, err
	}
	return &SortExprNode{Expr: inner, Asc: s.Asc, NullsFirst: s.NullsFirst}, nil
}

// Plan converts a plan tree to its wire form. Extension nodes and table data
// sources are encoded by the codec.
func (e *Encoder) Plan(p logical.Plan) (*PlanNode, error) {
	if p == nil {
		return nil, fmt.Errorf("plan is nil")
	}

	switch v := p.(type) {
	case *logical.EmptyRelation:
		schema, err := ToSchemaNode(v.Schema)
		if err != nil {
			return nil, err
		}
		return &PlanNode{EmptyRelation: &EmptyRelationNode{ProduceOneRow: v.ProduceOneRow, Schema: schema}}, nil

	case *logical.Projection:
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		exprs, err := e.exprs(v.Exprs)
		if err != nil {
			return nil, err
		}
		return &PlanNode{Projection: &ProjectionNode{Input: input, Exprs: exprs}}, nil

	case *logical.Filter:
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		pred, err := e.Expr(v.Predicate)
		if err != nil {
			return nil, err
		}
		return &PlanNode{Filter: &FilterNode{Input: input, Predicate: pred}}, nil

	case *logical.Aggregate:
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		groups, err := e.exprs(v.GroupExprs)
		if err != nil {
			return nil, err
		}
		aggrs, err := e.exprs(v.AggrExprs)
		if err != nil {
			return nil, err
		}
		return &PlanNode{Aggregate: &AggregateNode{Input: input, GroupExprs: groups, AggrExprs: aggrs}}, nil

	case *logical.Sort:
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		n := &SortNode{Input: input, Exprs: make([]*SortExprNode, len(v.Exprs)), Fetch: copyInt64(v.Fetch)}
		for i, s := range v.Exprs {
			if n.Exprs[i], err = e.sortExpr(s); err != nil {
				return nil, err
			}
		}
		return &PlanNode{Sort: n}, nil

	case *logical.Limit:
		if v.Skip < 0 {
			return nil, fmt.Errorf("negative limit skip %d", v.Skip)
		}
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		return &PlanNode{Limit: &LimitNode{Input: input, Skip: v.Skip, Fetch: copyInt64(v.Fetch)}}, nil

	case *logical.Join:
		left, err := e.Plan(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.Plan(v.Right)
		if err != nil {
			return nil, err
		}
		if _, ok := logical.ParseJoinType(v.JoinType.String()); !ok {
			return nil, fmt.Errorf("unknown join type %d", v.JoinType)
		}
		n := &JoinNode{Left: left, Right: right, JoinType: v.JoinType.String()}
		for _, k := range v.On {
			pair, err := e.exprs([]logical.Expr{k.Left, k.Right})
			if err != nil {
				return nil, err
			}
			n.LeftKeys = append(n.LeftKeys, pair[0])
			n.RightKeys = append(n.RightKeys, pair[1])
		}
		if n.Filter, err = e.optExpr(v.Filter); err != nil {
			return nil, err
		}
		return &PlanNode{Join: n}, nil

	case *logical.CrossJoin:
		left, err := e.Plan(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.Plan(v.Right)
		if err != nil {
			return nil, err
		}
		return &PlanNode{CrossJoin: &CrossJoinNode{Left: left, Right: right}}, nil

	case *logical.Union:
		inputs, err := e.plans(v.Plans)
		if err != nil {
			return nil, err
		}
		return &PlanNode{Union: &UnionNode{Inputs: inputs}}, nil

	case *logical.Distinct:
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		return &PlanNode{Distinct: &DistinctNode{Input: input}}, nil

	case *logical.SubqueryAlias:
		input, err := e.Plan(v.Input)
		if err != nil {
			return nil, err
		}
		return &PlanNode{SubqueryAlias: &SubqueryAliasNode{Input: input, Alias: v.Alias}}, nil

	case *logical.Values:
		schema, err := ToSchemaNode(v.Schema)
		if err != nil {
			return nil, err
		}
		n := &ValuesNode{Schema: schema}
		for _, row := range v.Rows {
			exprs, err := e.exprs(row)
			if err != nil {
				return nil, err
			}
			if exprs == nil {
				exprs = []*ExprNode{}
			}
			n.Rows = append(n.Rows, exprs)
		}
		return &PlanNode{Values: n}, nil

	case *logical.TableScan:
		return e.tableScan(v)

	case *logical.Extension:
		return e.extension(v)
	}

	return nil, fmt.Errorf("unsupported plan node %T", p)
}

func (e *Encoder) plans(ps []logical.Plan) ([]*PlanNode, error) {
	out := make([]*PlanNode, len(ps))
	for i, p := range ps {
		n, err := e.Plan(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func (e *Encoder) tableScan(v *logical.TableScan) (*PlanNode, error) {
	if v.Source == nil {
		return nil, fmt.Errorf("table scan %s has no data source", v.Table)
	}
	schema, err := ToSchemaNode(v.Source.ArrowSchema())
	if err != nil {
		return nil, fmt.Errorf("table scan %s: %w", v.Table, err)
	}
	src, err := recovery.RecoverToValue(e.logger, "encode data source", func() ([]byte, error) {
		return e.codec.EncodeDataSource(v.Source)
	})
	if err != nil {
		return nil, &CollaboratorError{Op: "encode data source", Entity: v.Table.String(), Err: err}
	}
	filters, err := e.exprs(v.Filters)
	if err != nil {
		return nil, err
	}
	return &PlanNode{TableScan: &TableScanNode{
		Table:      TableReferenceNode{Schema: v.Table.Schema, Table: v.Table.Table},
		Schema:     schema,
		Source:     src,
		Projection: projectionNode(v.Projection),
		Filters:    filters,
		Fetch:      copyInt64(v.Fetch),
	}}, nil
}

func projectionNode(cols []int) *[]int {
	if cols == nil {
		return nil
	}
	out := append([]int{}, cols...)
	return &out
}

func (e *Encoder) extension(v *logical.Extension) (*PlanNode, error) {
	if v.Node == nil {
		return nil, fmt.Errorf("extension node is nil")
	}
	name := v.Node.Name()
	buf, err := recovery.RecoverToValue(e.logger, "encode extension", func() ([]byte, error) {
		return e.codec.EncodeExtension(v)
	})
	if err != nil {
		return nil, &CollaboratorError{Op: "encode extension", Entity: name, Err: err}
	}
	inputs, err := e.plans(v.Node.Inputs())
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		inputs = nil
	}
	return &PlanNode{Extension: &ExtensionNode{Name: name, Node: buf, Inputs: inputs}}, nil
}

func copyInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

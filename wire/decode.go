package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/recovery"
	"github.com/hugr-lab/plancodec/logical"
)

// DecoderConfig configures a Decoder.
type DecoderConfig struct {
	// Registry resolves function names.
	// OPTIONAL: Defaults to logical.NoRegistry, so any function call fails.
	Registry logical.FunctionRegistry

	// Session is handed to the codec unchanged.
	// OPTIONAL: May be nil.
	Session *catalog.Session

	// Codec decodes extension nodes and table data sources.
	// OPTIONAL: Defaults to DefaultExtensionCodec.
	Codec ExtensionCodec

	// Logger receives panics recovered from collaborators.
	// OPTIONAL: Defaults to slog.Default().
	Logger *slog.Logger
}

// Decoder converts wire nodes back to logical plans and expressions.
// It holds no mutable state and is safe for concurrent use.
type Decoder struct {
	registry logical.FunctionRegistry
	session  *catalog.Session
	codec    ExtensionCodec
	logger   *slog.Logger
}

// NewDecoder creates a Decoder.
func NewDecoder(config DecoderConfig) *Decoder {
	d := &Decoder{
		registry: config.Registry,
		session:  config.Session,
		codec:    config.Codec,
		logger:   config.Logger,
	}
	if d.registry == nil {
		d.registry = logical.NoRegistry
	}
	if d.codec == nil {
		d.codec = DefaultExtensionCodec{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// FromExprNode converts a wire expression using registry, which may be nil.
func FromExprNode(ctx context.Context, n *ExprNode, registry logical.FunctionRegistry) (logical.Expr, error) {
	return NewDecoder(DecoderConfig{Registry: registry}).Expr(ctx, n)
}

// FromPlanNode converts a wire plan. sess, when not nil, is also used as the
// function registry. codec may be nil.
func FromPlanNode(ctx context.Context, n *PlanNode, sess *catalog.Session, codec ExtensionCodec) (logical.Plan, error) {
	config := DecoderConfig{Session: sess, Codec: codec}
	if sess != nil {
		config.Registry = sess
	}
	return NewDecoder(config).Plan(ctx, n)
}

func (n *ExprNode) variants() int {
	return count(n.Column != nil, n.Literal != nil, n.BinaryExpr != nil, n.Not != nil,
		n.IsNull != nil, n.IsNotNull != nil, n.Negative != nil, n.Between != nil,
		n.Case != nil, n.Cast != nil, n.TryCast != nil, n.InList != nil, n.Like != nil,
		n.Alias != nil, n.ScalarFunction != nil, n.AggregateFunction != nil,
		n.AggregateUDF != nil, n.Sort != nil, n.Wildcard != nil, n.ScalarSubquery != nil,
		n.Exists != nil, n.InSubquery != nil, n.Placeholder != nil)
}

func (n *PlanNode) variants() int {
	return count(n.EmptyRelation != nil, n.Projection != nil, n.Filter != nil,
		n.Aggregate != nil, n.Sort != nil, n.Limit != nil, n.Join != nil,
		n.CrossJoin != nil, n.Union != nil, n.Distinct != nil, n.SubqueryAlias != nil,
		n.Values != nil, n.TableScan != nil, n.Extension != nil)
}

func count(set ...bool) int {
	c := 0
	for _, s := range set {
		if s {
			c++
		}
	}
	return c
}

// Expr converts a wire expression to a logical expression, resolving
// function names through the registry.
func (d *Decoder) Expr(ctx context.Context, n *ExprNode) (logical.Expr, error) {
	if n == nil {
		return nil, malformed("missing expression")
	}
	switch c := n.variants(); {
	case c == 0:
		return nil, malformed("expression node has no variant")
	case c > 1:
		return nil, malformed("expression node has %d variants", c)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case n.Column != nil:
		if n.Column.Name == "" {
			return nil, malformed("column without a name")
		}
		return &logical.Column{Relation: n.Column.Relation, Name: n.Column.Name}, nil

	case n.Literal != nil:
		s, err := FromScalarNode(n.Literal)
		if err != nil {
			return nil, err
		}
		return &logical.Literal{Value: s}, nil

	case n.BinaryExpr != nil:
		op, ok := logical.ParseOperator(n.BinaryExpr.Op)
		if !ok {
			return nil, malformed("unknown binary operator %q", n.BinaryExpr.Op)
		}
		l, err := d.Expr(ctx, n.BinaryExpr.Left)
		if err != nil {
			return nil, err
		}
		r, err := d.Expr(ctx, n.BinaryExpr.Right)
		if err != nil {
			return nil, err
		}
		return &logical.BinaryExpr{Left: l, Op: op, Right: r}, nil

	case n.Not != nil:
		inner, err := d.Expr(ctx, n.Not)
		if err != nil {
			return nil, err
		}
		return &logical.Not{Expr: inner}, nil

	case n.IsNull != nil:
		inner, err := d.Expr(ctx, n.IsNull)
		if err != nil {
			return nil, err
		}
		return &logical.IsNull{Expr: inner}, nil

	case n.IsNotNull != nil:
		inner, err := d.Expr(ctx, n.IsNotNull)
		if err != nil {
			return nil, err
		}
		return &logical.IsNotNull{Expr: inner}, nil

	case n.Negative != nil:
		inner, err := d.Expr(ctx, n.Negative)
		if err != nil {
			return nil, err
		}
		return &logical.Negative{Expr: inner}, nil

	case n.Between != nil:
		exprs, err := d.exprList(ctx, []*ExprNode{n.Between.Expr, n.Between.Low, n.Between.High})
		if err != nil {
			return nil, err
		}
		return &logical.Between{Expr: exprs[0], Negated: n.Between.Negated, Low: exprs[1], High: exprs[2]}, nil

	case n.Case != nil:
		return d.caseExpr(ctx, n.Case)

	case n.Cast != nil:
		inner, t, err := d.cast(ctx, n.Cast)
		if err != nil {
			return nil, err
		}
		return &logical.Cast{Expr: inner, Type: t}, nil

	case n.TryCast != nil:
		inner, t, err := d.cast(ctx, n.TryCast)
		if err != nil {
			return nil, err
		}
		return &logical.TryCast{Expr: inner, Type: t}, nil

	case n.InList != nil:
		inner, err := d.Expr(ctx, n.InList.Expr)
		if err != nil {
			return nil, err
		}
		list, err := d.exprList(ctx, n.InList.List)
		if err != nil {
			return nil, err
		}
		return &logical.InList{Expr: inner, List: list, Negated: n.InList.Negated}, nil

	case n.Like != nil:
		return d.like(ctx, n.Like)

	case n.Alias != nil:
		inner, err := d.Expr(ctx, n.Alias.Expr)
		if err != nil {
			return nil, err
		}
		return &logical.Alias{Expr: inner, Name: n.Alias.Name}, nil

	case n.ScalarFunction != nil:
		fn, err := d.scalarFunction(n.ScalarFunction.FunName)
		if err != nil {
			return nil, err
		}
		args, err := d.exprList(ctx, n.ScalarFunction.Args)
		if err != nil {
			return nil, err
		}
		return &logical.ScalarFunction{Func: fn, Args: args}, nil

	case n.AggregateFunction != nil:
		op, ok := logical.ParseAggregateOp(n.AggregateFunction.AggrFunction)
		if !ok {
			return nil, malformed("unknown aggregate function %q", n.AggregateFunction.AggrFunction)
		}
		args, err := d.exprList(ctx, n.AggregateFunction.Args)
		if err != nil {
			return nil, err
		}
		filter, err := d.optExpr(ctx, n.AggregateFunction.Filter)
		if err != nil {
			return nil, err
		}
		return &logical.AggregateFunction{Func: op, Args: args, Distinct: n.AggregateFunction.Distinct, Filter: filter}, nil

	case n.AggregateUDF != nil:
		fn, err := d.aggregateFunction(n.AggregateUDF.FunName)
		if err != nil {
			return nil, err
		}
		args, err := d.exprList(ctx, n.AggregateUDF.Args)
		if err != nil {
			return nil, err
		}
		filter, err := d.optExpr(ctx, n.AggregateUDF.Filter)
		if err != nil {
			return nil, err
		}
		return &logical.AggregateUDFExpr{Func: fn, Args: args, Filter: filter}, nil

	case n.Sort != nil:
		return d.sortExpr(ctx, n.Sort)

	case n.Wildcard != nil:
		return &logical.Wildcard{}, nil

	case n.ScalarSubquery != nil:
		sub, err := d.Plan(ctx, n.ScalarSubquery.Subquery)
		if err != nil {
			return nil, err
		}
		return &logical.ScalarSubquery{Subquery: sub}, nil

	case n.Exists != nil:
		sub, err := d.Plan(ctx, n.Exists.Subquery)
		if err != nil {
			return nil, err
		}
		return &logical.Exists{Subquery: sub, Negated: n.Exists.Negated}, nil

	case n.InSubquery != nil:
		inner, err := d.Expr(ctx, n.InSubquery.Expr)
		if err != nil {
			return nil, err
		}
		sub, err := d.Plan(ctx, n.InSubquery.Subquery)
		if err != nil {
			return nil, err
		}
		return &logical.InSubquery{Expr: inner, Subquery: sub, Negated: n.InSubquery.Negated}, nil

	default: // n.Placeholder != nil
		p := &logical.Placeholder{ID: n.Placeholder.ID}
		if n.Placeholder.Type != nil {
			t, err := FromTypeNode(n.Placeholder.Type)
			if err != nil {
				return nil, err
			}
			p.Type = t
		}
		return p, nil
	}
}

func (d *Decoder) optExpr(ctx context.Context, n *ExprNode) (logical.Expr, error) {
	if n == nil {
		return nil, nil
	}
	return d.Expr(ctx, n)
}

func (d *Decoder) exprList(ctx context.Context, ns []*ExprNode) ([]logical.Expr, error) {
	if len(ns) == 0 {
		return nil, nil
	}
	out := make([]logical.Expr, len(ns))
	for i, n := range ns {
		x, err := d.Expr(ctx, n)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (d *Decoder) caseExpr(ctx context.Context, n *CaseNode) (logical.Expr, error) {
	base, err := d.optExpr(ctx, n.Expr)
	if err != nil {
		return nil, err
	}
	c := &logical.Case{Expr: base, WhenThen: make([]logical.WhenThen, len(n.WhenThen))}
	for i, wt := range n.WhenThen {
		if wt == nil {
			return nil, malformed("missing case arm")
		}
		pair, err := d.exprList(ctx, []*ExprNode{wt.When, wt.Then})
		if err != nil {
			return nil, err
		}
		c.WhenThen[i] = logical.WhenThen{When: pair[0], Then: pair[1]}
	}
	if c.Else, err = d.optExpr(ctx, n.Else); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *Decoder) cast(ctx context.Context, n *CastNode) (logical.Expr, arrow.DataType, error) {
	inner, err := d.Expr(ctx, n.Expr)
	if err != nil {
		return nil, nil, err
	}
	t, err := FromTypeNode(n.Type)
	if err != nil {
		return nil, nil, err
	}
	return inner, t, nil
}

func (d *Decoder) like(ctx context.Context, n *LikeNode) (logical.Expr, error) {
	pair, err := d.exprList(ctx, []*ExprNode{n.Expr, n.Pattern})
	if err != nil {
		return nil, err
	}
	l := &logical.Like{Expr: pair[0], Pattern: pair[1], Negated: n.Negated, CaseInsensitive: n.CaseInsensitive}
	if n.EscapeChar != "" {
		r, size := utf8.DecodeRuneInString(n.EscapeChar)
		if r == utf8.RuneError || size != len(n.EscapeChar) {
			return nil, malformed("invalid escape character %q", n.EscapeChar)
		}
		l.Escape = r
	}
	return l, nil
}

func (d *Decoder) sortExpr(ctx context.Context, n *SortExprNode) (*logical.SortExpr, error) {
	if n == nil {
		return nil, malformed("missing sort expression")
	}
	inner, err := d.Expr(ctx, n.Expr)
	if err != nil {
		return nil, err
	}
	return &logical.SortExpr{Expr: inner, Asc: n.Asc, NullsFirst: n.NullsFirst}, nil
}

func (d *Decoder) scalarFunction(name string) (*logical.ScalarUDF, error) {
	fn, err := recovery.RecoverToValue(d.logger, "resolve scalar function", func() (*logical.ScalarUDF, error) {
		return d.registry.ScalarFunction(name)
	})
	if err != nil {
		return nil, registryError(name, err)
	}
	if fn == nil {
		return nil, &CollaboratorError{Op: "resolve scalar function", Entity: name, Err: fmt.Errorf("registry returned no function")}
	}
	return fn, nil
}

func (d *Decoder) aggregateFunction(name string) (*logical.AggregateUDF, error) {
	fn, err := recovery.RecoverToValue(d.logger, "resolve aggregate function", func() (*logical.AggregateUDF, error) {
		return d.registry.AggregateFunction(name)
	})
	if err != nil {
		return nil, registryError(name, err)
	}
	if fn == nil {
		return nil, &CollaboratorError{Op: "resolve aggregate function", Entity: name, Err: fmt.Errorf("registry returned no function")}
	}
	return fn, nil
}

// registryError passes unresolved names through unchanged and reports any
// other registry failure as a collaborator error.
func registryError(name string, err error) error {
	if errors.Is(err, logical.ErrUnresolvedFunction) {
		return err
	}
	return &CollaboratorError{Op: "resolve function", Entity: name, Err: err}
}

// Plan converts a wire plan to a logical plan. Extension nodes and table
// data sources are decoded by the codec.
func (d *Decoder) Plan(ctx context.Context, n *PlanNode) (logical.Plan, error) {
	if n == nil {
		return nil, malformed("missing plan")
	}
	switch c := n.variants(); {
	case c == 0:
		return nil, malformed("plan node has no variant")
	case c > 1:
		return nil, malformed("plan node has %d variants", c)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case n.EmptyRelation != nil:
		schema, err := FromSchemaNode(n.EmptyRelation.Schema)
		if err != nil {
			return nil, err
		}
		return &logical.EmptyRelation{ProduceOneRow: n.EmptyRelation.ProduceOneRow, Schema: schema}, nil

	case n.Projection != nil:
		input, err := d.Plan(ctx, n.Projection.Input)
		if err != nil {
			return nil, err
		}
		exprs, err := d.exprList(ctx, n.Projection.Exprs)
		if err != nil {
			return nil, err
		}
		return &logical.Projection{Input: input, Exprs: exprs}, nil

	case n.Filter != nil:
		input, err := d.Plan(ctx, n.Filter.Input)
		if err != nil {
			return nil, err
		}
		pred, err := d.Expr(ctx, n.Filter.Predicate)
		if err != nil {
			return nil, err
		}
		return &logical.Filter{Input: input, Predicate: pred}, nil

	case n.Aggregate != nil:
		input, err := d.Plan(ctx, n.Aggregate.Input)
		if err != nil {
			return nil, err
		}
		groups, err := d.exprList(ctx, n.Aggregate.GroupExprs)
		if err != nil {
			return nil, err
		}
		aggrs, err := d.exprList(ctx, n.Aggregate.AggrExprs)
		if err != nil {
			return nil, err
		}
		return &logical.Aggregate{Input: input, GroupExprs: groups, AggrExprs: aggrs}, nil

	case n.Sort != nil:
		input, err := d.Plan(ctx, n.Sort.Input)
		if err != nil {
			return nil, err
		}
		s := &logical.Sort{Input: input, Exprs: make([]*logical.SortExpr, len(n.Sort.Exprs)), Fetch: copyInt64(n.Sort.Fetch)}
		for i, e := range n.Sort.Exprs {
			if s.Exprs[i], err = d.sortExpr(ctx, e); err != nil {
				return nil, err
			}
		}
		return s, nil

	case n.Limit != nil:
		if n.Limit.Skip < 0 {
			return nil, malformed("negative limit skip %d", n.Limit.Skip)
		}
		input, err := d.Plan(ctx, n.Limit.Input)
		if err != nil {
			return nil, err
		}
		return &logical.Limit{Input: input, Skip: n.Limit.Skip, Fetch: copyInt64(n.Limit.Fetch)}, nil

	case n.Join != nil:
		return d.join(ctx, n.Join)

	case n.CrossJoin != nil:
		left, err := d.Plan(ctx, n.CrossJoin.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.Plan(ctx, n.CrossJoin.Right)
		if err != nil {
			return nil, err
		}
		return &logical.CrossJoin{Left: left, Right: right}, nil

	case n.Union != nil:
		inputs := make([]logical.Plan, len(n.Union.Inputs))
		for i, in := range n.Union.Inputs {
			p, err := d.Plan(ctx, in)
			if err != nil {
				return nil, err
			}
			inputs[i] = p
		}
		return &logical.Union{Plans: inputs}, nil

	case n.Distinct != nil:
		input, err := d.Plan(ctx, n.Distinct.Input)
		if err != nil {
			return nil, err
		}
		return &logical.Distinct{Input: input}, nil

	case n.SubqueryAlias != nil:
		input, err := d.Plan(ctx, n.SubqueryAlias.Input)
		if err != nil {
			return nil, err
		}
		return &logical.SubqueryAlias{Input: input, Alias: n.SubqueryAlias.Alias}, nil

	case n.Values != nil:
		return d.values(ctx, n.Values)

	case n.TableScan != nil:
		return d.tableScan(ctx, n.TableScan)

	default: // n.Extension != nil
		return d.extension(ctx, n.Extension)
	}
}

func (d *Decoder) join(ctx context.Context, n *JoinNode) (logical.Plan, error) {
	jt, ok := logical.ParseJoinType(n.JoinType)
	if !ok {
		return nil, malformed("unknown join type %q", n.JoinType)
	}
	if len(n.LeftKeys) != len(n.RightKeys) {
		return nil, malformed("join has %d left keys and %d right keys", len(n.LeftKeys), len(n.RightKeys))
	}
	left, err := d.Plan(ctx, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := d.Plan(ctx, n.Right)
	if err != nil {
		return nil, err
	}
	j := &logical.Join{Left: left, Right: right, JoinType: jt}
	for i := range n.LeftKeys {
		pair, err := d.exprList(ctx, []*ExprNode{n.LeftKeys[i], n.RightKeys[i]})
		if err != nil {
			return nil, err
		}
		j.On = append(j.On, logical.JoinKey{Left: pair[0], Right: pair[1]})
	}
	if j.Filter, err = d.optExpr(ctx, n.Filter); err != nil {
		return nil, err
	}
	return j, nil
}

func (d *Decoder) values(ctx context.Context, n *ValuesNode) (logical.Plan, error) {
	schema, err := FromSchemaNode(n.Schema)
	if err != nil {
		return nil, err
	}
	v := &logical.Values{Schema: schema}
	for i, row := range n.Rows {
		if len(row) != schema.NumFields() {
			return nil, malformed("values row %d has %d columns, schema has %d", i, len(row), schema.NumFields())
		}
		exprs, err := d.exprList(ctx, row)
		if err != nil {
			return nil, err
		}
		v.Rows = append(v.Rows, exprs)
	}
	return v, nil
}

func (d *Decoder) tableScan(ctx context.Context, n *TableScanNode) (logical.Plan, error) {
	if n.Table.Table == "" {
		return nil, malformed("table scan without a table name")
	}
	ref := logical.TableReference{Schema: n.Table.Schema, Table: n.Table.Table}
	schema, err := FromSchemaNode(n.Schema)
	if err != nil {
		return nil, err
	}
	var projection []int
	if n.Projection != nil {
		projection = append([]int{}, (*n.Projection)...)
	}
	for _, idx := range projection {
		if idx < 0 || idx >= schema.NumFields() {
			return nil, malformed("table scan %s projects column %d of %d", ref, idx, schema.NumFields())
		}
	}

	src, err := recovery.RecoverToValue(d.logger, "decode data source", func() (logical.DataSource, error) {
		return d.codec.DecodeDataSource(ctx, n.Source, schema, d.session)
	})
	if err != nil {
		return nil, &CollaboratorError{Op: "decode data source", Entity: ref.String(), Err: err}
	}
	if src == nil {
		return nil, &CollaboratorError{Op: "decode data source", Entity: ref.String(), Err: fmt.Errorf("codec returned no data source")}
	}

	filters, err := d.exprList(ctx, n.Filters)
	if err != nil {
		return nil, err
	}
	return &logical.TableScan{
		Table:      ref,
		Source:     src,
		Projection: projection,
		Filters:    filters,
		Fetch:      copyInt64(n.Fetch),
	}, nil
}

func (d *Decoder) extension(ctx context.Context, n *ExtensionNode) (logical.Plan, error) {
	inputs := make([]logical.Plan, len(n.Inputs))
	for i, in := range n.Inputs {
		p, err := d.Plan(ctx, in)
		if err != nil {
			return nil, err
		}
		inputs[i] = p
	}

	ext, err := recovery.RecoverToValue(d.logger, "decode extension", func() (*logical.Extension, error) {
		return d.codec.DecodeExtension(ctx, n.Node, inputs, d.session)
	})
	if err != nil {
		return nil, &CollaboratorError{Op: "decode extension", Entity: n.Name, Err: err}
	}
	if ext == nil || ext.Node == nil {
		return nil, &CollaboratorError{Op: "decode extension", Entity: n.Name, Err: fmt.Errorf("codec returned no node")}
	}
	return ext, nil
}

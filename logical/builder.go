package logical

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// PlanBuilder builds plans using a fluent API.
// Not thread-safe - use a builder from a single goroutine.
//
// The first invalid step is recorded and reported by Build; later steps are
// ignored.
//
// Example:
//
//	plan, err := logical.Scan(ref, table).
//	    Filter(logical.Gt(logical.Col("id"), logical.Lit(10))).
//	    Project(logical.Col("id"), logical.Col("name")).
//	    Limit(0, 100).
//	    Build()
type PlanBuilder struct {
	plan Plan
	err  error
}

// Scan starts a plan reading the table behind src.
func Scan(ref TableReference, src DataSource) *PlanBuilder {
	if ref.Table == "" {
		return &PlanBuilder{err: fmt.Errorf("table scan requires a table name")}
	}
	return &PlanBuilder{plan: &TableScan{Table: ref, Source: src}}
}

// Empty starts a plan with no rows, or a single empty row when oneRow is set.
func Empty(oneRow bool) *PlanBuilder {
	return &PlanBuilder{plan: &EmptyRelation{ProduceOneRow: oneRow, Schema: arrow.NewSchema(nil, nil)}}
}

// ValuesOf starts a plan from literal rows. Each row must have one
// expression per schema field.
func ValuesOf(schema *arrow.Schema, rows ...[]Expr) *PlanBuilder {
	if schema == nil {
		return &PlanBuilder{err: fmt.Errorf("values require a schema")}
	}
	for i, r := range rows {
		if len(r) != schema.NumFields() {
			return &PlanBuilder{err: fmt.Errorf("values row %d has %d columns, want %d", i, len(r), schema.NumFields())}
		}
	}
	return &PlanBuilder{plan: &Values{Schema: schema, Rows: rows}}
}

// From continues building on top of an existing plan.
func From(p Plan) *PlanBuilder {
	if p == nil {
		return &PlanBuilder{err: fmt.Errorf("plan is nil")}
	}
	return &PlanBuilder{plan: p}
}

func (b *PlanBuilder) apply(fn func() (Plan, error)) *PlanBuilder {
	if b.err != nil {
		return b
	}
	p, err := fn()
	if err != nil {
		b.err = err
		return b
	}
	b.plan = p
	return b
}

// Filter keeps rows matching predicate.
func (b *PlanBuilder) Filter(predicate Expr) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if predicate == nil {
			return nil, fmt.Errorf("filter predicate is nil")
		}
		return &Filter{Input: b.plan, Predicate: predicate}, nil
	})
}

// Project selects output expressions.
func (b *PlanBuilder) Project(exprs ...Expr) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if len(exprs) == 0 {
			return nil, fmt.Errorf("projection requires at least one expression")
		}
		if err := checkExprs("projection", exprs); err != nil {
			return nil, err
		}
		return &Projection{Input: b.plan, Exprs: exprs}, nil
	})
}

// Aggregate groups by groupBy and computes aggrs.
func (b *PlanBuilder) Aggregate(groupBy []Expr, aggrs []Expr) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if err := checkExprs("group by", groupBy); err != nil {
			return nil, err
		}
		if err := checkExprs("aggregate", aggrs); err != nil {
			return nil, err
		}
		return &Aggregate{Input: b.plan, GroupExprs: groupBy, AggrExprs: aggrs}, nil
	})
}

// Sort orders rows by keys.
func (b *PlanBuilder) Sort(keys ...*SortExpr) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if len(keys) == 0 {
			return nil, fmt.Errorf("sort requires at least one key")
		}
		for i, k := range keys {
			if k == nil || k.Expr == nil {
				return nil, fmt.Errorf("sort key %d is nil", i)
			}
		}
		return &Sort{Input: b.plan, Exprs: keys}, nil
	})
}

// Limit skips skip rows and returns at most fetch rows. A negative fetch
// means no upper bound.
func (b *PlanBuilder) Limit(skip, fetch int64) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if skip < 0 {
			return nil, fmt.Errorf("limit skip must be non-negative, got %d", skip)
		}
		l := &Limit{Input: b.plan, Skip: skip}
		if fetch >= 0 {
			l.Fetch = &fetch
		}
		return l, nil
	})
}

// Join joins with right on equality keys.
func (b *PlanBuilder) Join(right Plan, jt JoinType, on []JoinKey, filter Expr) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if right == nil {
			return nil, fmt.Errorf("join right input is nil")
		}
		if _, ok := joinNames[jt]; !ok {
			return nil, fmt.Errorf("unknown join type %d", jt)
		}
		for i, k := range on {
			if k.Left == nil || k.Right == nil {
				return nil, fmt.Errorf("join key %d is incomplete", i)
			}
		}
		return &Join{Left: b.plan, Right: right, JoinType: jt, On: on, Filter: filter}, nil
	})
}

// CrossJoin forms the cartesian product with right.
func (b *PlanBuilder) CrossJoin(right Plan) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if right == nil {
			return nil, fmt.Errorf("cross join right input is nil")
		}
		return &CrossJoin{Left: b.plan, Right: right}, nil
	})
}

// Union appends the rows of others.
func (b *PlanBuilder) Union(others ...Plan) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if len(others) == 0 {
			return nil, fmt.Errorf("union requires at least two inputs")
		}
		plans := append([]Plan{b.plan}, others...)
		for i, p := range plans {
			if p == nil {
				return nil, fmt.Errorf("union input %d is nil", i)
			}
		}
		return &Union{Plans: plans}, nil
	})
}

// Distinct removes duplicate rows.
func (b *PlanBuilder) Distinct() *PlanBuilder {
	return b.apply(func() (Plan, error) {
		return &Distinct{Input: b.plan}, nil
	})
}

// Alias names the current plan as a subquery.
func (b *PlanBuilder) Alias(name string) *PlanBuilder {
	return b.apply(func() (Plan, error) {
		if name == "" {
			return nil, fmt.Errorf("subquery alias cannot be empty")
		}
		return &SubqueryAlias{Input: b.plan, Alias: name}, nil
	})
}

// Build returns the plan or the first error recorded.
func (b *PlanBuilder) Build() (Plan, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.plan, nil
}

func checkExprs(what string, exprs []Expr) error {
	for i, e := range exprs {
		if e == nil {
			return fmt.Errorf("%s expression %d is nil", what, i)
		}
	}
	return nil
}

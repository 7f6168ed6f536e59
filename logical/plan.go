package logical

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Plan is a node of a logical query plan.
//
// Like Expr, this is a sealed interface implemented only in this package.
type Plan interface {
	// String describes the node alone, without its inputs.
	fmt.Stringer

	// Inputs returns the child plans in order.
	Inputs() []Plan

	// Equals reports whether x is structurally equal to the receiver,
	// including all inputs.
	Equals(x Plan) bool

	planNode()
}

// EmptyRelation produces no rows, or a single row with no columns when
// ProduceOneRow is set.
type EmptyRelation struct {
	ProduceOneRow bool
	Schema        *arrow.Schema
}

type Projection struct {
	Input Plan
	Exprs []Expr
}

type Filter struct {
	Input     Plan
	Predicate Expr
}

type Aggregate struct {
	Input      Plan
	GroupExprs []Expr
	AggrExprs  []Expr
}

type Sort struct {
	Input Plan
	Exprs []*SortExpr
	// Fetch limits the output to the top rows when set.
	Fetch *int64
}

type Limit struct {
	Input Plan
	Skip  int64
	Fetch *int64
}

// JoinKey is one equality condition of a Join.
type JoinKey struct {
	Left  Expr
	Right Expr
}

type Join struct {
	Left     Plan
	Right    Plan
	JoinType JoinType
	On       []JoinKey
	// Filter is an optional non-equality join condition.
	Filter Expr
}

type CrossJoin struct {
	Left  Plan
	Right Plan
}

type Union struct {
	Plans []Plan
}

type Distinct struct {
	Input Plan
}

type SubqueryAlias struct {
	Input Plan
	Alias string
}

// Values is an inline table of literal rows.
type Values struct {
	Schema *arrow.Schema
	Rows   [][]Expr
}

// TableScan reads a table. Source is the resolved provider and travels
// through the extension codec.
type TableScan struct {
	Table      TableReference
	Source     DataSource
	Projection []int
	Filters    []Expr
	Fetch      *int64
}

// Extension wraps a user-defined node.
type Extension struct {
	Node UserDefinedNode
}

func (*EmptyRelation) planNode() {}
func (*Projection) planNode()    {}
func (*Filter) planNode()        {}
func (*Aggregate) planNode()     {}
func (*Sort) planNode()          {}
func (*Limit) planNode()         {}
func (*Join) planNode()          {}
func (*CrossJoin) planNode()     {}
func (*Union) planNode()         {}
func (*Distinct) planNode()      {}
func (*SubqueryAlias) planNode() {}
func (*Values) planNode()        {}
func (*TableScan) planNode()     {}
func (*Extension) planNode()     {}

func (*EmptyRelation) Inputs() []Plan   { return nil }
func (p *Projection) Inputs() []Plan    { return []Plan{p.Input} }
func (p *Filter) Inputs() []Plan        { return []Plan{p.Input} }
func (p *Aggregate) Inputs() []Plan     { return []Plan{p.Input} }
func (p *Sort) Inputs() []Plan          { return []Plan{p.Input} }
func (p *Limit) Inputs() []Plan         { return []Plan{p.Input} }
func (p *Join) Inputs() []Plan          { return []Plan{p.Left, p.Right} }
func (p *CrossJoin) Inputs() []Plan     { return []Plan{p.Left, p.Right} }
func (p *Union) Inputs() []Plan         { return p.Plans }
func (p *Distinct) Inputs() []Plan      { return []Plan{p.Input} }
func (p *SubqueryAlias) Inputs() []Plan { return []Plan{p.Input} }
func (*Values) Inputs() []Plan          { return nil }
func (*TableScan) Inputs() []Plan       { return nil }

func (p *Extension) Inputs() []Plan {
	if p.Node == nil {
		return nil
	}
	return p.Node.Inputs()
}

func (p *EmptyRelation) Equals(x Plan) bool {
	o, ok := x.(*EmptyRelation)
	return ok && p.ProduceOneRow == o.ProduceOneRow && SchemaEqual(p.Schema, o.Schema)
}

func (p *Projection) Equals(x Plan) bool {
	o, ok := x.(*Projection)
	return ok && exprsEqual(p.Exprs, o.Exprs) && planEqual(p.Input, o.Input)
}

func (p *Filter) Equals(x Plan) bool {
	o, ok := x.(*Filter)
	return ok && exprEqual(p.Predicate, o.Predicate) && planEqual(p.Input, o.Input)
}

func (p *Aggregate) Equals(x Plan) bool {
	o, ok := x.(*Aggregate)
	return ok && exprsEqual(p.GroupExprs, o.GroupExprs) &&
		exprsEqual(p.AggrExprs, o.AggrExprs) && planEqual(p.Input, o.Input)
}

func (p *Sort) Equals(x Plan) bool {
	o, ok := x.(*Sort)
	if !ok || len(p.Exprs) != len(o.Exprs) || !int64PtrEqual(p.Fetch, o.Fetch) {
		return false
	}
	for i := range p.Exprs {
		if !exprEqual(p.Exprs[i], o.Exprs[i]) {
			return false
		}
	}
	return planEqual(p.Input, o.Input)
}

func (p *Limit) Equals(x Plan) bool {
	o, ok := x.(*Limit)
	return ok && p.Skip == o.Skip && int64PtrEqual(p.Fetch, o.Fetch) && planEqual(p.Input, o.Input)
}

func (p *Join) Equals(x Plan) bool {
	o, ok := x.(*Join)
	if !ok || p.JoinType != o.JoinType || len(p.On) != len(o.On) {
		return false
	}
	for i := range p.On {
		if !exprEqual(p.On[i].Left, o.On[i].Left) || !exprEqual(p.On[i].Right, o.On[i].Right) {
			return false
		}
	}
	return exprEqual(p.Filter, o.Filter) && planEqual(p.Left, o.Left) && planEqual(p.Right, o.Right)
}

func (p *CrossJoin) Equals(x Plan) bool {
	o, ok := x.(*CrossJoin)
	return ok && planEqual(p.Left, o.Left) && planEqual(p.Right, o.Right)
}

func (p *Union) Equals(x Plan) bool {
	o, ok := x.(*Union)
	return ok && plansEqual(p.Plans, o.Plans)
}

func (p *Distinct) Equals(x Plan) bool {
	o, ok := x.(*Distinct)
	return ok && planEqual(p.Input, o.Input)
}

func (p *SubqueryAlias) Equals(x Plan) bool {
	o, ok := x.(*SubqueryAlias)
	return ok && p.Alias == o.Alias && planEqual(p.Input, o.Input)
}

func (p *Values) Equals(x Plan) bool {
	o, ok := x.(*Values)
	if !ok || !SchemaEqual(p.Schema, o.Schema) || len(p.Rows) != len(o.Rows) {
		return false
	}
	for i := range p.Rows {
		if !exprsEqual(p.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

// Equals compares the scanned table by reference and schema. Providers are
// not comparable, so two scans over equivalent sources are equal.
func (p *TableScan) Equals(x Plan) bool {
	o, ok := x.(*TableScan)
	if !ok || p.Table != o.Table || !int64PtrEqual(p.Fetch, o.Fetch) {
		return false
	}
	if (p.Projection == nil) != (o.Projection == nil) || len(p.Projection) != len(o.Projection) {
		return false
	}
	for i := range p.Projection {
		if p.Projection[i] != o.Projection[i] {
			return false
		}
	}
	return SchemaEqual(sourceSchema(p.Source), sourceSchema(o.Source)) && exprsEqual(p.Filters, o.Filters)
}

func (p *Extension) Equals(x Plan) bool {
	o, ok := x.(*Extension)
	if !ok {
		return false
	}
	if p.Node == nil || o.Node == nil {
		return p.Node == nil && o.Node == nil
	}
	return p.Node.Equals(o.Node)
}

func sourceSchema(s DataSource) *arrow.Schema {
	if s == nil {
		return nil
	}
	return s.ArrowSchema()
}

// SchemaEqual compares schemas including metadata. A nil schema equals an
// empty one.
func SchemaEqual(a, b *arrow.Schema) bool {
	if a == nil || b == nil {
		return (a == nil || a.NumFields() == 0 && a.Metadata().Len() == 0) &&
			(b == nil || b.NumFields() == 0 && b.Metadata().Len() == 0)
	}
	return a.Equal(b) && a.Metadata().Equal(b.Metadata())
}

func planEqual(a, b Plan) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

func plansEqual(a, b []Plan) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !planEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (p *EmptyRelation) String() string {
	if p.ProduceOneRow {
		return "EmptyRelation: rows=1"
	}
	return "EmptyRelation"
}

func (p *Projection) String() string { return "Projection: " + joinExprs(p.Exprs) }
func (p *Filter) String() string     { return fmt.Sprintf("Filter: %s", p.Predicate) }

func (p *Aggregate) String() string {
	return fmt.Sprintf("Aggregate: groupBy=[%s], aggr=[%s]", joinExprs(p.GroupExprs), joinExprs(p.AggrExprs))
}

func (p *Sort) String() string {
	parts := make([]string, len(p.Exprs))
	for i, e := range p.Exprs {
		parts[i] = e.String()
	}
	s := "Sort: " + strings.Join(parts, ", ")
	if p.Fetch != nil {
		s += fmt.Sprintf(", fetch=%d", *p.Fetch)
	}
	return s
}

func (p *Limit) String() string {
	if p.Fetch == nil {
		return fmt.Sprintf("Limit: skip=%d, fetch=None", p.Skip)
	}
	return fmt.Sprintf("Limit: skip=%d, fetch=%d", p.Skip, *p.Fetch)
}

func (p *Join) String() string {
	parts := make([]string, len(p.On))
	for i, k := range p.On {
		parts[i] = fmt.Sprintf("%s = %s", k.Left, k.Right)
	}
	s := fmt.Sprintf("%s Join: %s", p.JoinType, strings.Join(parts, ", "))
	if p.Filter != nil {
		s += fmt.Sprintf(" Filter: %s", p.Filter)
	}
	return s
}

func (p *CrossJoin) String() string     { return "CrossJoin" }
func (p *Union) String() string         { return "Union" }
func (p *Distinct) String() string      { return "Distinct" }
func (p *SubqueryAlias) String() string { return "SubqueryAlias: " + p.Alias }

func (p *Values) String() string {
	rows := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = "(" + joinExprs(r) + ")"
	}
	return "Values: " + strings.Join(rows, ", ")
}

func (p *TableScan) String() string {
	s := "TableScan: " + p.Table.String()
	if p.Projection != nil {
		s += fmt.Sprintf(" projection=%v", p.Projection)
	}
	if len(p.Filters) > 0 {
		s += " filters=[" + joinExprs(p.Filters) + "]"
	}
	if p.Fetch != nil {
		s += fmt.Sprintf(" fetch=%d", *p.Fetch)
	}
	return s
}

func (p *Extension) String() string {
	if p.Node == nil {
		return "Extension"
	}
	return "Extension: " + p.Node.Name()
}

// SkipChildren is returned by a Walk callback to skip the inputs of the
// current node.
var SkipChildren = errors.New("skip children")

// Walk visits p and its inputs depth-first, parents before children.
// It stops at the first error the callback returns other than SkipChildren.
func Walk(p Plan, fn func(Plan) error) error {
	if p == nil {
		return nil
	}
	if err := fn(p); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, in := range p.Inputs() {
		if err := Walk(in, fn); err != nil {
			return err
		}
	}
	return nil
}

// Format renders p as an indented tree, one node per line.
func Format(p Plan) string {
	var sb strings.Builder
	formatPlan(&sb, p, 0)
	return sb.String()
}

func formatPlan(sb *strings.Builder, p Plan, depth int) {
	if p == nil {
		return
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(p.String())
	sb.WriteByte('\n')
	for _, in := range p.Inputs() {
		formatPlan(sb, in, depth+1)
	}
}

package logical

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Expr is a scalar or aggregate expression.
//
// This is a sealed interface: only types in this package implement it, so
// serializers can switch over the variants exhaustively.
type Expr interface {
	fmt.Stringer

	// Equals reports whether x is structurally equal to the receiver.
	Equals(x Expr) bool

	exprNode()
}

// Column references a column, optionally qualified by a relation name.
type Column struct {
	Relation string
	Name     string
}

// Literal is a constant value.
type Literal struct {
	Value ScalarValue
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Left  Expr
	Op    Operator
	Right Expr
}

// Not is logical negation.
type Not struct{ Expr Expr }

// IsNull tests for NULL.
type IsNull struct{ Expr Expr }

// IsNotNull tests for non-NULL.
type IsNotNull struct{ Expr Expr }

// Negative is arithmetic negation.
type Negative struct{ Expr Expr }

// Between is "Expr [NOT] BETWEEN Low AND High".
type Between struct {
	Expr    Expr
	Negated bool
	Low     Expr
	High    Expr
}

// WhenThen is a single WHEN ... THEN ... arm of a Case.
type WhenThen struct {
	When Expr
	Then Expr
}

// Case is "CASE [Expr] WHEN ... THEN ... [ELSE Else] END".
// Expr and Else are optional.
type Case struct {
	Expr     Expr
	WhenThen []WhenThen
	Else     Expr
}

// Cast converts Expr to Type, failing on invalid input.
type Cast struct {
	Expr Expr
	Type arrow.DataType
}

// TryCast converts Expr to Type, producing NULL on invalid input.
type TryCast struct {
	Expr Expr
	Type arrow.DataType
}

// InList is "Expr [NOT] IN (List...)".
type InList struct {
	Expr    Expr
	List    []Expr
	Negated bool
}

// Like is "Expr [NOT] [I]LIKE Pattern [ESCAPE Escape]".
// Escape is zero when no escape character is set.
type Like struct {
	Expr            Expr
	Pattern         Expr
	Escape          rune
	Negated         bool
	CaseInsensitive bool
}

// Alias names an expression.
type Alias struct {
	Expr Expr
	Name string
}

// ScalarFunction calls a user-defined scalar function.
type ScalarFunction struct {
	Func *ScalarUDF
	Args []Expr
}

// AggregateFunction calls a built-in aggregate.
type AggregateFunction struct {
	Func     AggregateOp
	Args     []Expr
	Distinct bool
	Filter   Expr
}

// AggregateUDFExpr calls a user-defined aggregate.
type AggregateUDFExpr struct {
	Func   *AggregateUDF
	Args   []Expr
	Filter Expr
}

// SortExpr orders by Expr.
type SortExpr struct {
	Expr       Expr
	Asc        bool
	NullsFirst bool
}

// Wildcard is "*".
type Wildcard struct{}

// ScalarSubquery is a subquery producing a single value.
type ScalarSubquery struct {
	Subquery Plan
}

// Exists is "[NOT] EXISTS (Subquery)".
type Exists struct {
	Subquery Plan
	Negated  bool
}

// InSubquery is "Expr [NOT] IN (Subquery)".
type InSubquery struct {
	Expr     Expr
	Subquery Plan
	Negated  bool
}

// Placeholder is a positional query parameter such as "$1".
// Type is nil when the parameter type has not been inferred.
type Placeholder struct {
	ID   string
	Type arrow.DataType
}

func (*Column) exprNode()            {}
func (*Literal) exprNode()           {}
func (*BinaryExpr) exprNode()        {}
func (*Not) exprNode()               {}
func (*IsNull) exprNode()            {}
func (*IsNotNull) exprNode()         {}
func (*Negative) exprNode()          {}
func (*Between) exprNode()           {}
func (*Case) exprNode()              {}
func (*Cast) exprNode()              {}
func (*TryCast) exprNode()           {}
func (*InList) exprNode()            {}
func (*Like) exprNode()              {}
func (*Alias) exprNode()             {}
func (*ScalarFunction) exprNode()    {}
func (*AggregateFunction) exprNode() {}
func (*AggregateUDFExpr) exprNode()  {}
func (*SortExpr) exprNode()          {}
func (*Wildcard) exprNode()          {}
func (*ScalarSubquery) exprNode()    {}
func (*Exists) exprNode()            {}
func (*InSubquery) exprNode()        {}
func (*Placeholder) exprNode()       {}

// Col references an unqualified column.
func Col(name string) *Column { return &Column{Name: name} }

// ColumnOf references a column qualified by relation.
func ColumnOf(relation, name string) *Column { return &Column{Relation: relation, Name: name} }

// Lit builds a literal from a Go value, inferring its Arrow type.
// It panics if the type cannot be inferred; use NewScalar for explicit types.
func Lit(v any) *Literal {
	s, err := ScalarOf(v)
	if err != nil {
		panic("logical.Lit: " + err.Error())
	}
	return &Literal{Value: s}
}

// LitValue wraps an existing scalar.
func LitValue(s ScalarValue) *Literal { return &Literal{Value: s} }

// Binary builds "l op r".
func Binary(l Expr, op Operator, r Expr) *BinaryExpr {
	return &BinaryExpr{Left: l, Op: op, Right: r}
}

func Eq(l, r Expr) *BinaryExpr    { return Binary(l, OpEq, r) }
func NotEq(l, r Expr) *BinaryExpr { return Binary(l, OpNotEq, r) }
func Lt(l, r Expr) *BinaryExpr    { return Binary(l, OpLt, r) }
func LtEq(l, r Expr) *BinaryExpr  { return Binary(l, OpLtEq, r) }
func Gt(l, r Expr) *BinaryExpr    { return Binary(l, OpGt, r) }
func GtEq(l, r Expr) *BinaryExpr  { return Binary(l, OpGtEq, r) }
func And(l, r Expr) *BinaryExpr   { return Binary(l, OpAnd, r) }
func Or(l, r Expr) *BinaryExpr    { return Binary(l, OpOr, r) }

// Agg builds a built-in aggregate call.
func Agg(op AggregateOp, args ...Expr) *AggregateFunction {
	return &AggregateFunction{Func: op, Args: args}
}

// SortBy builds a sort key.
func SortBy(e Expr, asc, nullsFirst bool) *SortExpr {
	return &SortExpr{Expr: e, Asc: asc, NullsFirst: nullsFirst}
}

func (e *Column) Equals(x Expr) bool {
	o, ok := x.(*Column)
	return ok && e.Relation == o.Relation && e.Name == o.Name
}

func (e *Literal) Equals(x Expr) bool {
	o, ok := x.(*Literal)
	return ok && e.Value.Equals(o.Value)
}

func (e *BinaryExpr) Equals(x Expr) bool {
	o, ok := x.(*BinaryExpr)
	return ok && e.Op == o.Op && exprEqual(e.Left, o.Left) && exprEqual(e.Right, o.Right)
}

func (e *Not) Equals(x Expr) bool {
	o, ok := x.(*Not)
	return ok && exprEqual(e.Expr, o.Expr)
}

func (e *IsNull) Equals(x Expr) bool {
	o, ok := x.(*IsNull)
	return ok && exprEqual(e.Expr, o.Expr)
}

func (e *IsNotNull) Equals(x Expr) bool {
	o, ok := x.(*IsNotNull)
	return ok && exprEqual(e.Expr, o.Expr)
}

func (e *Negative) Equals(x Expr) bool {
	o, ok := x.(*Negative)
	return ok && exprEqual(e.Expr, o.Expr)
}

func (e *Between) Equals(x Expr) bool {
	o, ok := x.(*Between)
	return ok && e.Negated == o.Negated &&
		exprEqual(e.Expr, o.Expr) && exprEqual(e.Low, o.Low) && exprEqual(e.High, o.High)
}

func (e *Case) Equals(x Expr) bool {
	o, ok := x.(*Case)
	if !ok || len(e.WhenThen) != len(o.WhenThen) {
		return false
	}
	for i := range e.WhenThen {
		if !exprEqual(e.WhenThen[i].When, o.WhenThen[i].When) ||
			!exprEqual(e.WhenThen[i].Then, o.WhenThen[i].Then) {
			return false
		}
	}
	return exprEqual(e.Expr, o.Expr) && exprEqual(e.Else, o.Else)
}

func (e *Cast) Equals(x Expr) bool {
	o, ok := x.(*Cast)
	return ok && typesEqual(e.Type, o.Type) && exprEqual(e.Expr, o.Expr)
}

func (e *TryCast) Equals(x Expr) bool {
	o, ok := x.(*TryCast)
	return ok && typesEqual(e.Type, o.Type) && exprEqual(e.Expr, o.Expr)
}

func (e *InList) Equals(x Expr) bool {
	o, ok := x.(*InList)
	return ok && e.Negated == o.Negated && exprEqual(e.Expr, o.Expr) && exprsEqual(e.List, o.List)
}

func (e *Like) Equals(x Expr) bool {
	o, ok := x.(*Like)
	return ok && e.Negated == o.Negated && e.CaseInsensitive == o.CaseInsensitive &&
		e.Escape == o.Escape && exprEqual(e.Expr, o.Expr) && exprEqual(e.Pattern, o.Pattern)
}

func (e *Alias) Equals(x Expr) bool {
	o, ok := x.(*Alias)
	return ok && e.Name == o.Name && exprEqual(e.Expr, o.Expr)
}

func (e *ScalarFunction) Equals(x Expr) bool {
	o, ok := x.(*ScalarFunction)
	return ok && e.Func.Equals(o.Func) && exprsEqual(e.Args, o.Args)
}

func (e *AggregateFunction) Equals(x Expr) bool {
	o, ok := x.(*AggregateFunction)
	return ok && e.Func == o.Func && e.Distinct == o.Distinct &&
		exprsEqual(e.Args, o.Args) && exprEqual(e.Filter, o.Filter)
}

func (e *AggregateUDFExpr) Equals(x Expr) bool {
	o, ok := x.(*AggregateUDFExpr)
	return ok && e.Func.Equals(o.Func) && exprsEqual(e.Args, o.Args) && exprEqual(e.Filter, o.Filter)
}

func (e *SortExpr) Equals(x Expr) bool {
	o, ok := x.(*SortExpr)
	return ok && e.Asc == o.Asc && e.NullsFirst == o.NullsFirst && exprEqual(e.Expr, o.Expr)
}

func (e *Wildcard) Equals(x Expr) bool {
	_, ok := x.(*Wildcard)
	return ok
}

func (e *ScalarSubquery) Equals(x Expr) bool {
	o, ok := x.(*ScalarSubquery)
	return ok && planEqual(e.Subquery, o.Subquery)
}

func (e *Exists) Equals(x Expr) bool {
	o, ok := x.(*Exists)
	return ok && e.Negated == o.Negated && planEqual(e.Subquery, o.Subquery)
}

func (e *InSubquery) Equals(x Expr) bool {
	o, ok := x.(*InSubquery)
	return ok && e.Negated == o.Negated && exprEqual(e.Expr, o.Expr) && planEqual(e.Subquery, o.Subquery)
}

func (e *Placeholder) Equals(x Expr) bool {
	o, ok := x.(*Placeholder)
	return ok && e.ID == o.ID && typesEqual(e.Type, o.Type)
}

func exprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

func exprsEqual(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !exprEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (e *Column) String() string {
	if e.Relation != "" {
		return e.Relation + "." + e.Name
	}
	return e.Name
}

func (e *Literal) String() string { return e.Value.String() }

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", e.Left, e.Op, e.Right)
}

func (e *Not) String() string       { return fmt.Sprintf("NOT %s", e.Expr) }
func (e *IsNull) String() string    { return fmt.Sprintf("%s IS NULL", e.Expr) }
func (e *IsNotNull) String() string { return fmt.Sprintf("%s IS NOT NULL", e.Expr) }
func (e *Negative) String() string  { return fmt.Sprintf("(- %s)", e.Expr) }

func (e *Between) String() string {
	not := ""
	if e.Negated {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sBETWEEN %s AND %s", e.Expr, not, e.Low, e.High)
}

func (e *Case) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if e.Expr != nil {
		sb.WriteString(" " + e.Expr.String())
	}
	for _, wt := range e.WhenThen {
		fmt.Fprintf(&sb, " WHEN %s THEN %s", wt.When, wt.Then)
	}
	if e.Else != nil {
		fmt.Fprintf(&sb, " ELSE %s", e.Else)
	}
	sb.WriteString(" END")
	return sb.String()
}

func (e *Cast) String() string    { return fmt.Sprintf("CAST(%s AS %s)", e.Expr, e.Type) }
func (e *TryCast) String() string { return fmt.Sprintf("TRY_CAST(%s AS %s)", e.Expr, e.Type) }

func (e *InList) String() string {
	not := ""
	if e.Negated {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sIN (%s)", e.Expr, not, joinExprs(e.List))
}

func (e *Like) String() string {
	op := "LIKE"
	if e.CaseInsensitive {
		op = "ILIKE"
	}
	if e.Negated {
		op = "NOT " + op
	}
	s := fmt.Sprintf("%s %s %s", e.Expr, op, e.Pattern)
	if e.Escape != 0 {
		s += fmt.Sprintf(" ESCAPE '%c'", e.Escape)
	}
	return s
}

func (e *Alias) String() string { return fmt.Sprintf("%s AS %s", e.Expr, e.Name) }

func (e *ScalarFunction) String() string {
	return fmt.Sprintf("%s(%s)", e.Func.Name, joinExprs(e.Args))
}

func (e *AggregateFunction) String() string {
	distinct := ""
	if e.Distinct {
		distinct = "DISTINCT "
	}
	s := fmt.Sprintf("%s(%s%s)", e.Func, distinct, joinExprs(e.Args))
	if e.Filter != nil {
		s += fmt.Sprintf(" FILTER (WHERE %s)", e.Filter)
	}
	return s
}

func (e *AggregateUDFExpr) String() string {
	s := fmt.Sprintf("%s(%s)", e.Func.Name, joinExprs(e.Args))
	if e.Filter != nil {
		s += fmt.Sprintf(" FILTER (WHERE %s)", e.Filter)
	}
	return s
}

func (e *SortExpr) String() string {
	dir := "DESC"
	if e.Asc {
		dir = "ASC"
	}
	nulls := "NULLS LAST"
	if e.NullsFirst {
		nulls = "NULLS FIRST"
	}
	return fmt.Sprintf("%s %s %s", e.Expr, dir, nulls)
}

func (e *Wildcard) String() string       { return "*" }
func (e *ScalarSubquery) String() string { return fmt.Sprintf("(<subquery %s>)", e.Subquery) }

func (e *Exists) String() string {
	if e.Negated {
		return fmt.Sprintf("NOT EXISTS (<subquery %s>)", e.Subquery)
	}
	return fmt.Sprintf("EXISTS (<subquery %s>)", e.Subquery)
}

func (e *InSubquery) String() string {
	not := ""
	if e.Negated {
		not = "NOT "
	}
	return fmt.Sprintf("%s %sIN (<subquery %s>)", e.Expr, not, e.Subquery)
}

func (e *Placeholder) String() string { return e.ID }

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

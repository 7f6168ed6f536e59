package duckdb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/decimal128"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

// ScanSQL renders a decoded table scan as a DuckDB SELECT statement.
//
// Projection becomes the select list, Filters the WHERE clause and Fetch
// the LIMIT. Filters that cannot be expressed in DuckDB SQL are returned as
// residual; the caller must apply them to the result. The LIMIT is only
// emitted when every filter was pushed down.
func ScanSQL(scan *logical.TableScan) (string, []logical.Expr, error) {
	if scan == nil || scan.Source == nil {
		return "", nil, fmt.Errorf("table scan has no data source")
	}
	schema := scan.Source.ArrowSchema()

	cols := "*"
	if scan.Projection != nil && len(scan.Projection) == 0 {
		return "", nil, fmt.Errorf("table scan %s projects no columns", scan.Table)
	}
	if len(scan.Projection) > 0 {
		names := make([]string, len(scan.Projection))
		for i, idx := range scan.Projection {
			if idx < 0 || idx >= schema.NumFields() {
				return "", nil, fmt.Errorf("projection index %d out of range", idx)
			}
			names[i] = quoteIdentifier(schema.Field(idx).Name)
		}
		cols = strings.Join(names, ", ")
	}

	schemaName := scan.Table.Schema
	if schemaName == "" {
		schemaName = catalog.DefaultSchema
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdentifier(schemaName))
	sb.WriteString(".")
	sb.WriteString(quoteIdentifier(scan.Table.Table))

	var (
		where    []string
		residual []logical.Expr
	)
	for _, f := range scan.Filters {
		if encoded := Encode(f); encoded != "" {
			where = append(where, encoded)
		} else {
			residual = append(residual, f)
		}
	}
	if len(where) == 1 {
		sb.WriteString(" WHERE ")
		sb.WriteString(where[0])
	} else if len(where) > 1 {
		sb.WriteString(" WHERE (")
		sb.WriteString(strings.Join(where, ") AND ("))
		sb.WriteString(")")
	}

	if scan.Fetch != nil && len(residual) == 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatInt(*scan.Fetch, 10))
	}
	return sb.String(), residual, nil
}

// Encode converts an expression to DuckDB SQL.
// Returns empty string if the expression is unsupported.
func Encode(expr logical.Expr) string {
	switch ex := expr.(type) {
	case *logical.Column:
		return quoteIdentifier(ex.Name)
	case *logical.Literal:
		return formatValue(ex.Value)
	case *logical.BinaryExpr:
		return encodeBinary(ex)
	case *logical.Not:
		if child := Encode(ex.Expr); child != "" {
			return "NOT (" + child + ")"
		}
	case *logical.IsNull:
		if child := Encode(ex.Expr); child != "" {
			return child + " IS NULL"
		}
	case *logical.IsNotNull:
		if child := Encode(ex.Expr); child != "" {
			return child + " IS NOT NULL"
		}
	case *logical.Negative:
		if child := Encode(ex.Expr); child != "" {
			return "(-" + child + ")"
		}
	case *logical.Between:
		return encodeBetween(ex)
	case *logical.InList:
		return encodeIn(ex)
	case *logical.Like:
		return encodeLike(ex)
	case *logical.Cast:
		return encodeCast("CAST", ex.Expr, ex.Type)
	case *logical.TryCast:
		return encodeCast("TRY_CAST", ex.Expr, ex.Type)
	case *logical.Case:
		return encodeCase(ex)
	case *logical.Alias:
		return Encode(ex.Expr)
	}
	// Function calls, aggregates, subqueries and placeholders are not
	// pushed down.
	return ""
}

var sqlOperators = map[logical.Operator]string{
	logical.OpEq:                "=",
	logical.OpNotEq:             "<>",
	logical.OpLt:                "<",
	logical.OpLtEq:              "<=",
	logical.OpGt:                ">",
	logical.OpGtEq:              ">=",
	logical.OpPlus:              "+",
	logical.OpMinus:             "-",
	logical.OpMultiply:          "*",
	logical.OpDivide:            "/",
	logical.OpModulo:            "%",
	logical.OpIsDistinctFrom:    "IS DISTINCT FROM",
	logical.OpIsNotDistinctFrom: "IS NOT DISTINCT FROM",
	logical.OpRegexMatch:        "~",
	logical.OpRegexIMatch:       "~*",
	logical.OpRegexNotMatch:     "!~",
	logical.OpRegexNotIMatch:    "!~*",
	logical.OpBitwiseAnd:        "&",
	logical.OpBitwiseOr:         "|",
	logical.OpBitwiseXor:        "xor",
	logical.OpBitwiseShiftLeft:  "<<",
	logical.OpBitwiseShiftRight: ">>",
	logical.OpStringConcat:      "||",
}

func encodeBinary(b *logical.BinaryExpr) string {
	if b.Op == logical.OpAnd || b.Op == logical.OpOr {
		return encodeConjunction(b)
	}
	left := Encode(b.Left)
	right := Encode(b.Right)
	if left == "" || right == "" {
		return ""
	}
	op, ok := sqlOperators[b.Op]
	if !ok {
		return ""
	}
	if op == "xor" {
		return "xor(" + left + ", " + right + ")"
	}
	return "(" + left + " " + op + " " + right + ")"
}

// encodeConjunction encodes AND/OR. Both sides must be supported: a
// partially encoded conjunction would be reported as pushed down.
func encodeConjunction(b *logical.BinaryExpr) string {
	left := Encode(b.Left)
	right := Encode(b.Right)
	if left == "" || right == "" {
		return ""
	}
	op := " AND "
	if b.Op == logical.OpOr {
		op = " OR "
	}
	return "(" + left + op + right + ")"
}

func encodeBetween(b *logical.Between) string {
	input := Encode(b.Expr)
	lower := Encode(b.Low)
	upper := Encode(b.High)
	if input == "" || lower == "" || upper == "" {
		return ""
	}
	if b.Negated {
		return input + " NOT BETWEEN " + lower + " AND " + upper
	}
	return input + " BETWEEN " + lower + " AND " + upper
}

func encodeIn(in *logical.InList) string {
	left := Encode(in.Expr)
	if left == "" || len(in.List) == 0 {
		return ""
	}
	values := make([]string, 0, len(in.List))
	for _, v := range in.List {
		encoded := Encode(v)
		if encoded == "" {
			return ""
		}
		values = append(values, encoded)
	}
	op := " IN "
	if in.Negated {
		op = " NOT IN "
	}
	return left + op + "(" + strings.Join(values, ", ") + ")"
}

func encodeLike(l *logical.Like) string {
	input := Encode(l.Expr)
	pattern := Encode(l.Pattern)
	if input == "" || pattern == "" {
		return ""
	}
	op := "LIKE"
	if l.CaseInsensitive {
		op = "ILIKE"
	}
	if l.Negated {
		op = "NOT " + op
	}
	sql := input + " " + op + " " + pattern
	if l.Escape != 0 {
		sql += " ESCAPE " + quoteLiteral(string(l.Escape))
	}
	return sql
}

func encodeCast(fn string, child logical.Expr, t arrow.DataType) string {
	input := Encode(child)
	typeName := TypeName(t)
	if input == "" || typeName == "" {
		return ""
	}
	return fn + "(" + input + " AS " + typeName + ")"
}

func encodeCase(c *logical.Case) string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if c.Expr != nil {
		operand := Encode(c.Expr)
		if operand == "" {
			return ""
		}
		sb.WriteString(" ")
		sb.WriteString(operand)
	}
	for _, wt := range c.WhenThen {
		when := Encode(wt.When)
		then := Encode(wt.Then)
		if when == "" || then == "" {
			return ""
		}
		sb.WriteString(" WHEN ")
		sb.WriteString(when)
		sb.WriteString(" THEN ")
		sb.WriteString(then)
	}
	if c.Else != nil {
		elseExpr := Encode(c.Else)
		if elseExpr == "" {
			return ""
		}
		sb.WriteString(" ELSE ")
		sb.WriteString(elseExpr)
	}
	sb.WriteString(" END")
	return sb.String()
}

// formatValue formats a scalar as a SQL literal.
func formatValue(v logical.ScalarValue) string {
	if v.Null {
		if name := TypeName(v.Type); name != "" {
			return "CAST(NULL AS " + name + ")"
		}
		return "NULL"
	}

	switch x := v.V.(type) {
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return formatFloat(float64(x), 32)
	case float64:
		return formatFloat(x, 64)
	case string:
		return quoteLiteral(x)
	case []byte:
		var sb strings.Builder
		sb.WriteString("'")
		for _, b := range x {
			fmt.Fprintf(&sb, "\\x%02X", b)
		}
		sb.WriteString("'::BLOB")
		return sb.String()
	case arrow.Date32:
		return "DATE '" + x.ToTime().Format("2006-01-02") + "'"
	case arrow.Date64:
		return "DATE '" + x.ToTime().Format("2006-01-02") + "'"
	case arrow.Timestamp:
		ts, ok := v.Type.(*arrow.TimestampType)
		if !ok {
			return ""
		}
		return formatTimestamp(x.ToTime(ts.Unit), ts.TimeZone != "")
	case decimal128.Num:
		dt, ok := v.Type.(*arrow.Decimal128Type)
		if !ok {
			return ""
		}
		return x.ToString(dt.Scale) + "::" + TypeName(dt)
	}
	return ""
}

func formatFloat(f float64, bits int) string {
	cast := "::DOUBLE"
	if bits == 32 {
		cast = "::FLOAT"
	}
	switch {
	case math.IsNaN(f):
		return "'NaN'" + cast
	case math.IsInf(f, 1):
		return "'Infinity'" + cast
	case math.IsInf(f, -1):
		return "'-Infinity'" + cast
	}
	return strconv.FormatFloat(f, 'g', -1, bits) + cast
}

func formatTimestamp(t time.Time, withZone bool) string {
	t = t.UTC()
	formatted := t.Format("2006-01-02 15:04:05")
	if micros := t.Nanosecond() / 1000; micros != 0 {
		formatted = fmt.Sprintf("%s.%06d", formatted, micros)
	}
	if withZone {
		return "TIMESTAMPTZ '" + formatted + "+00'"
	}
	return "TIMESTAMP '" + formatted + "'"
}

// escapeString escapes single quotes in a string value for SQL.
func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteLiteral returns a SQL string literal with proper escaping.
func quoteLiteral(s string) string {
	return "'" + escapeString(s) + "'"
}

// quoteIdentifier returns a quoted identifier if needed.
// DuckDB uses double quotes for identifiers.
func quoteIdentifier(name string) string {
	if needsQuoting(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

// needsQuoting returns true if the identifier needs quoting.
func needsQuoting(name string) bool {
	if len(name) == 0 {
		return true
	}

	c := name[0]
	if !isLetter(c) && c != '_' {
		return true
	}
	for i := 1; i < len(name); i++ {
		c = name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return true
		}
	}

	// Check for reserved words (simplified list)
	switch strings.ToUpper(name) {
	case "SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "NULL", "TRUE", "FALSE",
		"TABLE", "JOIN", "ON", "AS", "IN", "IS", "LIKE", "BETWEEN", "CASE", "WHEN",
		"THEN", "ELSE", "END", "ORDER", "BY", "GROUP", "LIMIT", "OFFSET", "UNION",
		"ALL", "DISTINCT", "CAST", "INTERVAL", "DATE", "TIME", "TIMESTAMP", "USER":
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

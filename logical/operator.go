package logical

// Operator identifies a binary operator.
type Operator int

const (
	OpEq Operator = iota + 1
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpPlus
	OpMinus
	OpMultiply
	OpDivide
	OpModulo
	OpAnd
	OpOr
	OpIsDistinctFrom
	OpIsNotDistinctFrom
	OpRegexMatch
	OpRegexIMatch
	OpRegexNotMatch
	OpRegexNotIMatch
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpBitwiseShiftLeft
	OpBitwiseShiftRight
	OpStringConcat
)

type operatorInfo struct {
	name   string
	symbol string
}

var operators = map[Operator]operatorInfo{
	OpEq:                {"Eq", "="},
	OpNotEq:             {"NotEq", "!="},
	OpLt:                {"Lt", "<"},
	OpLtEq:              {"LtEq", "<="},
	OpGt:                {"Gt", ">"},
	OpGtEq:              {"GtEq", ">="},
	OpPlus:              {"Plus", "+"},
	OpMinus:             {"Minus", "-"},
	OpMultiply:          {"Multiply", "*"},
	OpDivide:            {"Divide", "/"},
	OpModulo:            {"Modulo", "%"},
	OpAnd:               {"And", "AND"},
	OpOr:                {"Or", "OR"},
	OpIsDistinctFrom:    {"IsDistinctFrom", "IS DISTINCT FROM"},
	OpIsNotDistinctFrom: {"IsNotDistinctFrom", "IS NOT DISTINCT FROM"},
	OpRegexMatch:        {"RegexMatch", "~"},
	OpRegexIMatch:       {"RegexIMatch", "~*"},
	OpRegexNotMatch:     {"RegexNotMatch", "!~"},
	OpRegexNotIMatch:    {"RegexNotIMatch", "!~*"},
	OpBitwiseAnd:        {"BitwiseAnd", "&"},
	OpBitwiseOr:         {"BitwiseOr", "|"},
	OpBitwiseXor:        {"BitwiseXor", "#"},
	OpBitwiseShiftLeft:  {"BitwiseShiftLeft", "<<"},
	OpBitwiseShiftRight: {"BitwiseShiftRight", ">>"},
	OpStringConcat:      {"StringConcat", "||"},
}

var operatorsByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operators))
	for op, info := range operators {
		m[info.name] = op
	}
	return m
}()

// Name returns the stable identifier used on the wire.
func (op Operator) Name() string {
	if info, ok := operators[op]; ok {
		return info.name
	}
	return ""
}

// String returns the SQL symbol of the operator.
func (op Operator) String() string {
	if info, ok := operators[op]; ok {
		return info.symbol
	}
	return "?"
}

// ParseOperator resolves a wire name produced by Operator.Name.
func ParseOperator(name string) (Operator, bool) {
	op, ok := operatorsByName[name]
	return op, ok
}

// AggregateOp identifies a built-in aggregate function.
type AggregateOp int

const (
	AggMin AggregateOp = iota + 1
	AggMax
	AggSum
	AggAvg
	AggCount
	AggApproxDistinct
	AggArrayAgg
	AggVariance
	AggStddev
	AggBoolAnd
	AggBoolOr
)

var aggregateNames = map[AggregateOp]string{
	AggMin:            "MIN",
	AggMax:            "MAX",
	AggSum:            "SUM",
	AggAvg:            "AVG",
	AggCount:          "COUNT",
	AggApproxDistinct: "APPROX_DISTINCT",
	AggArrayAgg:       "ARRAY_AGG",
	AggVariance:       "VARIANCE",
	AggStddev:         "STDDEV",
	AggBoolAnd:        "BOOL_AND",
	AggBoolOr:         "BOOL_OR",
}

func (op AggregateOp) String() string {
	if name, ok := aggregateNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseAggregateOp resolves the name of a built-in aggregate.
func ParseAggregateOp(name string) (AggregateOp, bool) {
	for op, n := range aggregateNames {
		if n == name {
			return op, true
		}
	}
	return 0, false
}

// JoinType identifies the kind of a Join.
type JoinType int

const (
	JoinInner JoinType = iota + 1
	JoinLeft
	JoinRight
	JoinFull
	JoinLeftSemi
	JoinLeftAnti
	JoinRightSemi
	JoinRightAnti
)

var joinNames = map[JoinType]string{
	JoinInner:     "INNER",
	JoinLeft:      "LEFT",
	JoinRight:     "RIGHT",
	JoinFull:      "FULL",
	JoinLeftSemi:  "LEFT_SEMI",
	JoinLeftAnti:  "LEFT_ANTI",
	JoinRightSemi: "RIGHT_SEMI",
	JoinRightAnti: "RIGHT_ANTI",
}

func (j JoinType) String() string {
	if name, ok := joinNames[j]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseJoinType resolves the name of a join type.
func ParseJoinType(name string) (JoinType, bool) {
	for j, n := range joinNames {
		if n == name {
			return j, true
		}
	}
	return 0, false
}

package wire

// Wire nodes mirror the logical model one struct per variant. A node struct
// such as ExprNode or PlanNode holds exactly one non-nil variant field.
// Field names are the camelCase keys shared by the binary and text forms.

// ExprNode is the wire form of logical.Expr.
type ExprNode struct {
	Column            *ColumnNode            `msgpack:"column,omitempty" json:"column,omitempty"`
	Literal           *ScalarValueNode       `msgpack:"literal,omitempty" json:"literal,omitempty"`
	BinaryExpr        *BinaryExprNode        `msgpack:"binaryExpr,omitempty" json:"binaryExpr,omitempty"`
	Not               *ExprNode              `msgpack:"not,omitempty" json:"not,omitempty"`
	IsNull            *ExprNode              `msgpack:"isNull,omitempty" json:"isNull,omitempty"`
	IsNotNull         *ExprNode              `msgpack:"isNotNull,omitempty" json:"isNotNull,omitempty"`
	Negative          *ExprNode              `msgpack:"negative,omitempty" json:"negative,omitempty"`
	Between           *BetweenNode           `msgpack:"between,omitempty" json:"between,omitempty"`
	Case              *CaseNode              `msgpack:"case,omitempty" json:"case,omitempty"`
	Cast              *CastNode              `msgpack:"cast,omitempty" json:"cast,omitempty"`
	TryCast           *CastNode              `msgpack:"tryCast,omitempty" json:"tryCast,omitempty"`
	InList            *InListNode            `msgpack:"inList,omitempty" json:"inList,omitempty"`
	Like              *LikeNode              `msgpack:"like,omitempty" json:"like,omitempty"`
	Alias             *AliasNode             `msgpack:"alias,omitempty" json:"alias,omitempty"`
	ScalarFunction    *ScalarFunctionNode    `msgpack:"scalarFunction,omitempty" json:"scalarFunction,omitempty"`
	AggregateFunction *AggregateFunctionNode `msgpack:"aggregateFunction,omitempty" json:"aggregateFunction,omitempty"`
	AggregateUDF      *AggregateUDFNode      `msgpack:"aggregateUdf,omitempty" json:"aggregateUdf,omitempty"`
	Sort              *SortExprNode          `msgpack:"sort,omitempty" json:"sort,omitempty"`
	Wildcard          *WildcardNode          `msgpack:"wildcard,omitempty" json:"wildcard,omitempty"`
	ScalarSubquery    *SubqueryNode          `msgpack:"scalarSubquery,omitempty" json:"scalarSubquery,omitempty"`
	Exists            *ExistsNode            `msgpack:"exists,omitempty" json:"exists,omitempty"`
	InSubquery        *InSubqueryNode        `msgpack:"inSubquery,omitempty" json:"inSubquery,omitempty"`
	Placeholder       *PlaceholderNode       `msgpack:"placeholder,omitempty" json:"placeholder,omitempty"`
}

type ColumnNode struct {
	Relation string `msgpack:"relation,omitempty" json:"relation,omitempty"`
	Name     string `msgpack:"name" json:"name"`
}

type BinaryExprNode struct {
	Left  *ExprNode `msgpack:"left" json:"left"`
	Op    string    `msgpack:"op" json:"op"`
	Right *ExprNode `msgpack:"right" json:"right"`
}

type BetweenNode struct {
	Expr    *ExprNode `msgpack:"expr" json:"expr"`
	Negated bool      `msgpack:"negated,omitempty" json:"negated,omitempty"`
	Low     *ExprNode `msgpack:"low" json:"low"`
	High    *ExprNode `msgpack:"high" json:"high"`
}

type WhenThenNode struct {
	When *ExprNode `msgpack:"when" json:"when"`
	Then *ExprNode `msgpack:"then" json:"then"`
}

type CaseNode struct {
	Expr     *ExprNode       `msgpack:"expr,omitempty" json:"expr,omitempty"`
	WhenThen []*WhenThenNode `msgpack:"whenThen" json:"whenThen"`
	Else     *ExprNode       `msgpack:"else,omitempty" json:"else,omitempty"`
}

type CastNode struct {
	Expr *ExprNode      `msgpack:"expr" json:"expr"`
	Type *ArrowTypeNode `msgpack:"type" json:"type"`
}

type InListNode struct {
	Expr    *ExprNode   `msgpack:"expr" json:"expr"`
	List    []*ExprNode `msgpack:"list" json:"list"`
	Negated bool        `msgpack:"negated,omitempty" json:"negated,omitempty"`
}

type LikeNode struct {
	Expr            *ExprNode `msgpack:"expr" json:"expr"`
	Pattern         *ExprNode `msgpack:"pattern" json:"pattern"`
	EscapeChar      string    `msgpack:"escapeChar,omitempty" json:"escapeChar,omitempty"`
	Negated         bool      `msgpack:"negated,omitempty" json:"negated,omitempty"`
	CaseInsensitive bool      `msgpack:"caseInsensitive,omitempty" json:"caseInsensitive,omitempty"`
}

type AliasNode struct {
	Expr *ExprNode `msgpack:"expr" json:"expr"`
	Name string    `msgpack:"name" json:"name"`
}

// ScalarFunctionNode references a user-defined scalar function by name only.
// Signature and volatility come from the registry at decode time.
type ScalarFunctionNode struct {
	FunName string      `msgpack:"funName" json:"funName"`
	Args    []*ExprNode `msgpack:"args,omitempty" json:"args,omitempty"`
}

type AggregateFunctionNode struct {
	AggrFunction string      `msgpack:"aggrFunction" json:"aggrFunction"`
	Args         []*ExprNode `msgpack:"args,omitempty" json:"args,omitempty"`
	Distinct     bool        `msgpack:"distinct,omitempty" json:"distinct,omitempty"`
	Filter       *ExprNode   `msgpack:"filter,omitempty" json:"filter,omitempty"`
}

// AggregateUDFNode references a user-defined aggregate function by name only.
// Signature and volatility come from the registry at decode time.
type AggregateUDFNode struct {
	FunName string      `msgpack:"funName" json:"funName"`
	Args    []*ExprNode `msgpack:"args,omitempty" json:"args,omitempty"`
	Filter  *ExprNode   `msgpack:"filter,omitempty" json:"filter,omitempty"`
}

type SortExprNode struct {
	Expr       *ExprNode `msgpack:"expr" json:"expr"`
	Asc        bool      `msgpack:"asc,omitempty" json:"asc,omitempty"`
	NullsFirst bool      `msgpack:"nullsFirst,omitempty" json:"nullsFirst,omitempty"`
}

type WildcardNode struct{}

type SubqueryNode struct {
	Subquery *PlanNode `msgpack:"subquery" json:"subquery"`
}

type ExistsNode struct {
	Subquery *PlanNode `msgpack:"subquery" json:"subquery"`
	Negated  bool      `msgpack:"negated,omitempty" json:"negated,omitempty"`
}

type InSubqueryNode struct {
	Expr     *ExprNode `msgpack:"expr" json:"expr"`
	Subquery *PlanNode `msgpack:"subquery" json:"subquery"`
	Negated  bool      `msgpack:"negated,omitempty" json:"negated,omitempty"`
}

type PlaceholderNode struct {
	ID   string         `msgpack:"id" json:"id"`
	Type *ArrowTypeNode `msgpack:"type,omitempty" json:"type,omitempty"`
}

// PlanNode is the wire form of logical.Plan.
type PlanNode struct {
	EmptyRelation *EmptyRelationNode `msgpack:"emptyRelation,omitempty" json:"emptyRelation,omitempty"`
	Projection    *ProjectionNode    `msgpack:"projection,omitempty" json:"projection,omitempty"`
	Filter        *FilterNode        `msgpack:"filter,omitempty" json:"filter,omitempty"`
	Aggregate     *AggregateNode     `msgpack:"aggregate,omitempty" json:"aggregate,omitempty"`
	Sort          *SortNode          `msgpack:"sort,omitempty" json:"sort,omitempty"`
	Limit         *LimitNode         `msgpack:"limit,omitempty" json:"limit,omitempty"`
	Join          *JoinNode          `msgpack:"join,omitempty" json:"join,omitempty"`
	CrossJoin     *CrossJoinNode     `msgpack:"crossJoin,omitempty" json:"crossJoin,omitempty"`
	Union         *UnionNode         `msgpack:"union,omitempty" json:"union,omitempty"`
	Distinct      *DistinctNode      `msgpack:"distinct,omitempty" json:"distinct,omitempty"`
	SubqueryAlias *SubqueryAliasNode `msgpack:"subqueryAlias,omitempty" json:"subqueryAlias,omitempty"`
	Values        *ValuesNode        `msgpack:"values,omitempty" json:"values,omitempty"`
	TableScan     *TableScanNode     `msgpack:"tableScan,omitempty" json:"tableScan,omitempty"`
	Extension     *ExtensionNode     `msgpack:"extension,omitempty" json:"extension,omitempty"`
}

type EmptyRelationNode struct {
	ProduceOneRow bool        `msgpack:"produceOneRow,omitempty" json:"produceOneRow,omitempty"`
	Schema        *SchemaNode `msgpack:"schema,omitempty" json:"schema,omitempty"`
}

type ProjectionNode struct {
	Input *PlanNode   `msgpack:"input" json:"input"`
	Exprs []*ExprNode `msgpack:"exprs" json:"exprs"`
}

type FilterNode struct {
	Input     *PlanNode `msgpack:"input" json:"input"`
	Predicate *ExprNode `msgpack:"predicate" json:"predicate"`
}

type AggregateNode struct {
	Input      *PlanNode   `msgpack:"input" json:"input"`
	GroupExprs []*ExprNode `msgpack:"groupExprs,omitempty" json:"groupExprs,omitempty"`
	AggrExprs  []*ExprNode `msgpack:"aggrExprs,omitempty" json:"aggrExprs,omitempty"`
}

type SortNode struct {
	Input *PlanNode       `msgpack:"input" json:"input"`
	Exprs []*SortExprNode `msgpack:"exprs" json:"exprs"`
	Fetch *int64          `msgpack:"fetch,omitempty" json:"fetch,omitempty"`
}

type LimitNode struct {
	Input *PlanNode `msgpack:"input" json:"input"`
	Skip  int64     `msgpack:"skip,omitempty" json:"skip,omitempty"`
	Fetch *int64    `msgpack:"fetch,omitempty" json:"fetch,omitempty"`
}

type JoinNode struct {
	Left      *PlanNode   `msgpack:"left" json:"left"`
	Right     *PlanNode   `msgpack:"right" json:"right"`
	JoinType  string      `msgpack:"joinType" json:"joinType"`
	LeftKeys  []*ExprNode `msgpack:"leftKeys,omitempty" json:"leftKeys,omitempty"`
	RightKeys []*ExprNode `msgpack:"rightKeys,omitempty" json:"rightKeys,omitempty"`
	Filter    *ExprNode   `msgpack:"filter,omitempty" json:"filter,omitempty"`
}

type CrossJoinNode struct {
	Left  *PlanNode `msgpack:"left" json:"left"`
	Right *PlanNode `msgpack:"right" json:"right"`
}

type UnionNode struct {
	Inputs []*PlanNode `msgpack:"inputs" json:"inputs"`
}

type DistinctNode struct {
	Input *PlanNode `msgpack:"input" json:"input"`
}

type SubqueryAliasNode struct {
	Input *PlanNode `msgpack:"input" json:"input"`
	Alias string    `msgpack:"alias" json:"alias"`
}

type ValuesNode struct {
	Schema *SchemaNode   `msgpack:"schema,omitempty" json:"schema,omitempty"`
	Rows   [][]*ExprNode `msgpack:"rows,omitempty" json:"rows,omitempty"`
}

type TableReferenceNode struct {
	Schema string `msgpack:"schema,omitempty" json:"schema,omitempty"`
	Table  string `msgpack:"table" json:"table"`
}

// TableScanNode carries the source schema next to the opaque source payload
// produced by the extension codec.
type TableScanNode struct {
	Table      TableReferenceNode `msgpack:"table" json:"table"`
	Schema     *SchemaNode        `msgpack:"schema,omitempty" json:"schema,omitempty"`
	Source     []byte             `msgpack:"source,omitempty" json:"source,omitempty"`
	Projection *[]int             `msgpack:"projection,omitempty" json:"projection,omitempty"` // nil scans all columns, empty scans none
	Filters    []*ExprNode        `msgpack:"filters,omitempty" json:"filters,omitempty"`
	Fetch      *int64             `msgpack:"fetch,omitempty" json:"fetch,omitempty"`
}

// ExtensionNode carries the opaque node payload produced by the extension
// codec; its inputs are regular plan nodes.
type ExtensionNode struct {
	Name   string      `msgpack:"name" json:"name"`
	Node   []byte      `msgpack:"node,omitempty" json:"node,omitempty"`
	Inputs []*PlanNode `msgpack:"inputs,omitempty" json:"inputs,omitempty"`
}

// ArrowTypeNode describes an Arrow data type. ID selects the type; the other
// fields are set only for the types that use them.
type ArrowTypeNode struct {
	ID        string             `msgpack:"id" json:"id"`
	Unit      string             `msgpack:"unit,omitempty" json:"unit,omitempty"`
	TimeZone  string             `msgpack:"timeZone,omitempty" json:"timeZone,omitempty"`
	ByteWidth int                `msgpack:"byteWidth,omitempty" json:"byteWidth,omitempty"`
	ListSize  int32              `msgpack:"listSize,omitempty" json:"listSize,omitempty"`
	Precision int32              `msgpack:"precision,omitempty" json:"precision,omitempty"`
	Scale     int32              `msgpack:"scale,omitempty" json:"scale,omitempty"`
	Elem      *FieldNode         `msgpack:"elem,omitempty" json:"elem,omitempty"`
	Fields    []*FieldNode       `msgpack:"fields,omitempty" json:"fields,omitempty"`
	Extension *ExtensionTypeNode `msgpack:"extension,omitempty" json:"extension,omitempty"`
}

// ExtensionTypeNode describes an Arrow extension type by its registered name.
type ExtensionTypeNode struct {
	Name     string         `msgpack:"name" json:"name"`
	Storage  *ArrowTypeNode `msgpack:"storage" json:"storage"`
	Metadata string         `msgpack:"metadata,omitempty" json:"metadata,omitempty"`
}

// KeyValue is one metadata entry. Metadata is a sorted list, never a map,
// so the encoding is deterministic.
type KeyValue struct {
	Key   string `msgpack:"key" json:"key"`
	Value string `msgpack:"value" json:"value"`
}

type FieldNode struct {
	Name     string         `msgpack:"name" json:"name"`
	Type     *ArrowTypeNode `msgpack:"type" json:"type"`
	Nullable bool           `msgpack:"nullable,omitempty" json:"nullable,omitempty"`
	Metadata []KeyValue     `msgpack:"metadata,omitempty" json:"metadata,omitempty"`
}

type SchemaNode struct {
	Fields   []*FieldNode `msgpack:"fields,omitempty" json:"fields,omitempty"`
	Metadata []KeyValue   `msgpack:"metadata,omitempty" json:"metadata,omitempty"`
}

// ScalarValueNode is the wire form of logical.ScalarValue. Which value field
// is read depends on Type.
type ScalarValueNode struct {
	Type    *ArrowTypeNode `msgpack:"type" json:"type"`
	Null    bool           `msgpack:"null,omitempty" json:"null,omitempty"`
	Bool    bool           `msgpack:"bool,omitempty" json:"bool,omitempty"`
	Int     int64          `msgpack:"int,omitempty" json:"int,omitempty"`
	Uint    uint64         `msgpack:"uint,omitempty" json:"uint,omitempty"`
	Float   *Float64       `msgpack:"float,omitempty" json:"float,omitempty"`
	Str     string         `msgpack:"str,omitempty" json:"str,omitempty"`
	Bytes   []byte         `msgpack:"bytes,omitempty" json:"bytes,omitempty"`
	Decimal *DecimalNode   `msgpack:"decimal,omitempty" json:"decimal,omitempty"`
}

// DecimalNode holds the two halves of a 128-bit decimal.
type DecimalNode struct {
	Hi int64  `msgpack:"hi,omitempty" json:"hi,omitempty"`
	Lo uint64 `msgpack:"lo,omitempty" json:"lo,omitempty"`
}

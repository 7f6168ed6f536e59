package logical

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// Volatility describes how a function's result may vary between calls.
type Volatility int

const (
	VolatilityImmutable Volatility = iota
	VolatilityStable
	VolatilityVolatile
)

func (v Volatility) String() string {
	switch v {
	case VolatilityImmutable:
		return "IMMUTABLE"
	case VolatilityStable:
		return "STABLE"
	case VolatilityVolatile:
		return "VOLATILE"
	default:
		return "UNKNOWN"
	}
}

// Signature describes the argument types a function accepts.
type Signature struct {
	Args     []arrow.DataType
	Variadic bool
}

func (s Signature) Equals(o Signature) bool {
	if s.Variadic != o.Variadic || len(s.Args) != len(o.Args) {
		return false
	}
	for i := range s.Args {
		if !typesEqual(s.Args[i], o.Args[i]) {
			return false
		}
	}
	return true
}

// ScalarImpl evaluates a scalar function over a batch of argument columns.
type ScalarImpl func(args []arrow.Array) (arrow.Array, error)

// ScalarUDF is a user-defined scalar function definition.
// Only Name is serialized; the rest is re-bound from a FunctionRegistry.
type ScalarUDF struct {
	Name       string
	Signature  Signature
	ReturnType arrow.DataType
	Volatility Volatility
	Impl       ScalarImpl
}

// NewScalarUDF creates a scalar function definition.
func NewScalarUDF(name string, args []arrow.DataType, ret arrow.DataType, vol Volatility, impl ScalarImpl) *ScalarUDF {
	return &ScalarUDF{
		Name:       name,
		Signature:  Signature{Args: args},
		ReturnType: ret,
		Volatility: vol,
		Impl:       impl,
	}
}

// Call builds a call expression of f over args.
func (f *ScalarUDF) Call(args ...Expr) *ScalarFunction {
	return &ScalarFunction{Func: f, Args: args}
}

// Equals compares definitions by name, signature, return type and volatility.
// Implementations are not comparable and are ignored.
func (f *ScalarUDF) Equals(o *ScalarUDF) bool {
	if f == nil || o == nil {
		return f == o
	}
	return f.Name == o.Name &&
		f.Signature.Equals(o.Signature) &&
		typesEqual(f.ReturnType, o.ReturnType) &&
		f.Volatility == o.Volatility
}

// Accumulator folds input batches into an aggregate result.
type Accumulator interface {
	Update(values []arrow.Array) error
	Merge(states []arrow.Array) error
	State() ([]ScalarValue, error)
	Evaluate() (ScalarValue, error)
}

// AccumulatorFactory creates a fresh Accumulator per group.
type AccumulatorFactory func() (Accumulator, error)

// AggregateUDF is a user-defined aggregate function definition.
type AggregateUDF struct {
	Name        string
	Signature   Signature
	ReturnType  arrow.DataType
	StateTypes  []arrow.DataType
	Volatility  Volatility
	Accumulator AccumulatorFactory
}

// NewAggregateUDF creates an aggregate function definition.
func NewAggregateUDF(name string, args []arrow.DataType, ret arrow.DataType, vol Volatility, acc AccumulatorFactory, state []arrow.DataType) *AggregateUDF {
	return &AggregateUDF{
		Name:        name,
		Signature:   Signature{Args: args},
		ReturnType:  ret,
		StateTypes:  state,
		Volatility:  vol,
		Accumulator: acc,
	}
}

// Call builds an aggregate call expression of f over args.
func (f *AggregateUDF) Call(args ...Expr) *AggregateUDFExpr {
	return &AggregateUDFExpr{Func: f, Args: args}
}

func (f *AggregateUDF) Equals(o *AggregateUDF) bool {
	if f == nil || o == nil {
		return f == o
	}
	if len(f.StateTypes) != len(o.StateTypes) {
		return false
	}
	for i := range f.StateTypes {
		if !typesEqual(f.StateTypes[i], o.StateTypes[i]) {
			return false
		}
	}
	return f.Name == o.Name &&
		f.Signature.Equals(o.Signature) &&
		typesEqual(f.ReturnType, o.ReturnType) &&
		f.Volatility == o.Volatility
}

// FunctionKind distinguishes scalar from aggregate lookups.
type FunctionKind int

const (
	ScalarFunctionKind FunctionKind = iota
	AggregateFunctionKind
)

func (k FunctionKind) String() string {
	if k == AggregateFunctionKind {
		return "aggregate"
	}
	return "scalar"
}

// ErrUnresolvedFunction is matched by every error reporting a function name
// missing from a FunctionRegistry.
var ErrUnresolvedFunction = errors.New("unresolved function")

// UnresolvedFunctionError names the function a registry could not resolve.
type UnresolvedFunctionError struct {
	Name string
	Kind FunctionKind
	// Reason replaces the default message prefix when set.
	Reason string
}

func (e *UnresolvedFunctionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s '%s'", e.Reason, e.Name)
	}
	return fmt.Sprintf("unresolved %s function '%s'", e.Kind, e.Name)
}

func (e *UnresolvedFunctionError) Is(target error) bool {
	return target == ErrUnresolvedFunction
}

// FunctionRegistry resolves function names to definitions at decode time.
// Implementations must be safe for concurrent read-only use and must report
// unknown names with an error matching ErrUnresolvedFunction.
type FunctionRegistry interface {
	// Names returns the sorted set of known function names.
	Names() []string

	// ScalarFunction returns the scalar function registered under name.
	ScalarFunction(name string) (*ScalarUDF, error)

	// AggregateFunction returns the aggregate function registered under name.
	AggregateFunction(name string) (*AggregateUDF, error)
}

// NoRegistry fails every lookup. It is used when the caller supplies no
// registry, so any serialized function call fails to decode.
var NoRegistry FunctionRegistry = noRegistry{}

type noRegistry struct{}

const noRegistryReason = "no function registry provided to deserialize, so can not deserialize user defined function"

func (noRegistry) Names() []string { return nil }

func (noRegistry) ScalarFunction(name string) (*ScalarUDF, error) {
	return nil, &UnresolvedFunctionError{Name: name, Kind: ScalarFunctionKind, Reason: noRegistryReason}
}

func (noRegistry) AggregateFunction(name string) (*AggregateUDF, error) {
	return nil, &UnresolvedFunctionError{Name: name, Kind: AggregateFunctionKind, Reason: noRegistryReason}
}

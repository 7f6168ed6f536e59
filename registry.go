package plancodec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/logical"
)

// placeholderRegistry resolves any name to a stand-in function so an
// encoded expression can be decoded without the caller's registry. The
// stand-ins are only compared and discarded, never invoked.
type placeholderRegistry struct{}

var _ logical.FunctionRegistry = placeholderRegistry{}

func (placeholderRegistry) Names() []string { return nil }

func (placeholderRegistry) ScalarFunction(name string) (*logical.ScalarUDF, error) {
	return logical.NewScalarUDF(name, nil, arrow.Null, logical.VolatilityImmutable,
		func([]arrow.Array) (arrow.Array, error) {
			panic(fmt.Sprintf("placeholder function %q must not be invoked", name))
		}), nil
}

func (placeholderRegistry) AggregateFunction(name string) (*logical.AggregateUDF, error) {
	return logical.NewAggregateUDF(name, nil, arrow.Null, logical.VolatilityImmutable,
		func() (logical.Accumulator, error) {
			panic(fmt.Sprintf("placeholder aggregate %q must not be invoked", name))
		}, nil), nil
}

// Package logical defines the logical query plan and expression model that
// plancodec serializes.
//
// The model is deliberately small: it covers the relational operators and
// scalar/aggregate expressions a query engine hands to its serialization
// boundary, and nothing about execution.
//
// # Plans
//
// A Plan is a sealed tree of relational operators. Every variant reports its
// children through Inputs and compares structurally through Equals:
//
//	plan, err := logical.Scan(logical.TableReference{Schema: "main", Table: "orders"}, orders).
//	    Filter(logical.Gt(logical.Col("amount"), logical.Lit(int64(100)))).
//	    Project(logical.Col("id"), logical.Col("amount")).
//	    Limit(0, 10).
//	    Build()
//
// Two variants are opaque to the core model and can only be serialized with
// an extension codec:
//   - Extension wraps a caller-defined UserDefinedNode.
//   - TableScan references a caller-defined DataSource.
//
// # Expressions
//
// An Expr is a sealed tree of scalar and aggregate computations. Function calls
// carry a reference to a ScalarUDF or AggregateUDF definition, but only the
// function name crosses the wire; the definition is re-resolved through a
// FunctionRegistry on decode.
//
//	dummy := logical.NewScalarUDF("dummy",
//	    []arrow.DataType{arrow.BinaryTypes.String},
//	    arrow.BinaryTypes.String,
//	    logical.VolatilityImmutable, impl)
//	expr := dummy.Call(logical.Lit(""))
//
// # Literals
//
// Literal values are ScalarValues typed with Arrow data types. Geometry
// literals use the geoarrow.wkb extension type and hold orb.Geometry values.
package logical

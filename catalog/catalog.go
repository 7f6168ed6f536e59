// Package catalog provides the metadata a plan decoder resolves names
// against: catalogs, schemas, tables and the function registry.
//
// The package follows an interface-based design:
//   - Static catalogs: built once with NewStaticCatalog or the root package
//     CatalogBuilder, immutable afterwards
//   - Dynamic catalogs: custom implementations reflecting a live database,
//     see the datasource/duckdb package
//
// A Session ties a catalog to a set of user-defined functions and is what
// plan decoding receives as its context.
package catalog

import (
	"context"
	"errors"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/logical"
)

// DefaultSchema is used for table references without a schema qualifier.
const DefaultSchema = "main"

// ErrNotFound indicates a schema or table lookup failed.
var ErrNotFound = errors.New("catalog entity not found")

// Catalog represents the top-level metadata container.
// Implementations can be static (from builder) or dynamic (user-provided).
// All methods MUST be goroutine-safe.
type Catalog interface {
	// Schemas returns all schemas visible in this catalog.
	// Returns empty slice (not nil) if no schemas available.
	// MUST respect context cancellation and deadlines.
	Schemas(ctx context.Context) ([]Schema, error)

	// Schema returns a specific schema by name.
	// Returns (nil, nil) if schema doesn't exist (not an error).
	// Returns (nil, err) if lookup fails for other reasons.
	Schema(ctx context.Context, name string) (Schema, error)
}

// Schema represents a database schema containing tables and functions.
// Implementations MUST be goroutine-safe.
type Schema interface {
	// Name returns the schema name (e.g., "main").
	// MUST return non-empty string.
	Name() string

	// Comment returns optional schema documentation.
	Comment() string

	// Tables returns all tables in this schema.
	// Returns empty slice (not nil) if no tables available.
	Tables(ctx context.Context) ([]Table, error)

	// Table returns a specific table by name.
	// Returns (nil, nil) if table doesn't exist (not an error).
	Table(ctx context.Context, name string) (Table, error)

	// ScalarFunctions returns the scalar functions defined in this schema.
	ScalarFunctions(ctx context.Context) ([]*logical.ScalarUDF, error)

	// AggregateFunctions returns the aggregate functions defined in this schema.
	AggregateFunctions(ctx context.Context) ([]*logical.AggregateUDF, error)
}

// Table is a named relation with a fixed schema. Every Table is usable as
// the data source of a table scan.
// Implementations MUST be goroutine-safe.
type Table interface {
	// Name returns the table name (e.g., "users", "orders").
	// MUST return non-empty string.
	Name() string

	// Comment returns optional table documentation.
	Comment() string

	// ArrowSchema returns the schema describing table columns.
	// MUST NOT return nil.
	ArrowSchema() *arrow.Schema
}

var _ logical.DataSource = Table(nil)

package plancodec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

// SimpleTableDef defines a table with fixed schema.
// Used with SchemaBuilder.SimpleTable().
type SimpleTableDef struct {
	// Name is the table name (e.g., "users", "orders").
	// REQUIRED: MUST be non-empty and unique within schema.
	Name string

	// Comment is optional table documentation.
	// OPTIONAL: Empty string if no comment.
	Comment string

	// Schema is the Arrow schema describing table columns.
	// REQUIRED: MUST NOT be nil.
	Schema *arrow.Schema
}

// CatalogBuilder builds static catalogs using fluent API.
// Not thread-safe - use only during initialization.
type CatalogBuilder struct {
	schemas []*schemaBuilder
	built   bool
}

// NewCatalogBuilder creates a new fluent catalog builder.
// Returns builder in "empty" state (no schemas).
//
// Example:
//
//	cat, err := plancodec.NewCatalogBuilder().
//	    Schema("main").
//	        SimpleTable(...).
//	        ScalarFunc(upper).
//	    Build()
func NewCatalogBuilder() *CatalogBuilder {
	return &CatalogBuilder{
		schemas: make([]*schemaBuilder, 0),
	}
}

// Schema starts defining a new schema.
// Returns SchemaBuilder for adding tables/functions to this schema.
// Schema name MUST be non-empty and unique within catalog.
func (cb *CatalogBuilder) Schema(name string) *SchemaBuilder {
	sb := &schemaBuilder{
		name:           name,
		catalogBuilder: cb,
	}
	cb.schemas = append(cb.schemas, sb)
	return &SchemaBuilder{builder: sb}
}

// Build finalizes the catalog and returns immutable Catalog implementation.
// Can only be called once. Further modifications return error.
// Returns error if catalog is invalid (e.g., duplicate schema names).
func (cb *CatalogBuilder) Build() (*catalog.StaticCatalog, error) {
	if cb.built {
		return nil, fmt.Errorf("catalog already built")
	}

	seenNames := make(map[string]bool)
	for _, sb := range cb.schemas {
		if sb.name == "" {
			return nil, fmt.Errorf("schema name cannot be empty")
		}
		if seenNames[sb.name] {
			return nil, fmt.Errorf("duplicate schema name: %s", sb.name)
		}
		seenNames[sb.name] = true
		if err := sb.validate(); err != nil {
			return nil, err
		}
	}

	cb.built = true

	cat := catalog.NewStaticCatalog()
	for _, sb := range cb.schemas {
		tables := make(map[string]catalog.Table, len(sb.tables))
		for _, t := range sb.tables {
			tables[t.Name()] = t
		}
		cat.AddSchema(sb.name, sb.comment, tables, sb.scalarFuncs, sb.aggregateFuncs)
	}

	return cat, nil
}

// SchemaBuilder builds a schema within a catalog.
// Not thread-safe - use only during initialization.
type SchemaBuilder struct {
	builder *schemaBuilder
}

// schemaBuilder is the internal schema builder implementation.
type schemaBuilder struct {
	name           string
	comment        string
	tables         []catalog.Table
	scalarFuncs    []*logical.ScalarUDF
	aggregateFuncs []*logical.AggregateUDF
	catalogBuilder *CatalogBuilder
}

func (sb *schemaBuilder) validate() error {
	tableNames := make(map[string]bool)
	for _, table := range sb.tables {
		if table == nil {
			return fmt.Errorf("nil table in schema %s", sb.name)
		}
		if table.Name() == "" {
			return fmt.Errorf("table name cannot be empty in schema %s", sb.name)
		}
		if tableNames[table.Name()] {
			return fmt.Errorf("duplicate table name %s in schema %s", table.Name(), sb.name)
		}
		tableNames[table.Name()] = true
		if table.ArrowSchema() == nil {
			return fmt.Errorf("table %s.%s has nil schema", sb.name, table.Name())
		}
	}

	funcNames := make(map[string]bool)
	check := func(name string) error {
		if name == "" {
			return fmt.Errorf("function name cannot be empty in schema %s", sb.name)
		}
		if funcNames[name] {
			return fmt.Errorf("duplicate function name %s in schema %s", name, sb.name)
		}
		funcNames[name] = true
		return nil
	}
	for _, fn := range sb.scalarFuncs {
		if fn == nil {
			return fmt.Errorf("nil scalar function in schema %s", sb.name)
		}
		if err := check(fn.Name); err != nil {
			return err
		}
	}
	for _, fn := range sb.aggregateFuncs {
		if fn == nil {
			return fmt.Errorf("nil aggregate function in schema %s", sb.name)
		}
		if err := check(fn.Name); err != nil {
			return err
		}
	}
	return nil
}

// Comment sets optional schema documentation.
// Returns self for method chaining.
func (sb *SchemaBuilder) Comment(comment string) *SchemaBuilder {
	sb.builder.comment = comment
	return sb
}

// SimpleTable adds a table with fixed schema using SimpleTableDef.
// Returns self for method chaining.
// Table name MUST be unique within schema.
//
// Example:
//
//	schema.SimpleTable(plancodec.SimpleTableDef{
//	    Name:    "users",
//	    Comment: "User accounts",
//	    Schema:  userSchema,
//	})
func (sb *SchemaBuilder) SimpleTable(def SimpleTableDef) *SchemaBuilder {
	var t catalog.Table
	if def.Schema != nil {
		t = catalog.NewStaticTable(def.Name, def.Comment, def.Schema)
	} else {
		t = nilSchemaTable(def.Name)
	}
	sb.builder.tables = append(sb.builder.tables, t)
	return sb
}

// Table adds an existing table, such as a memtable.Table.
// Returns self for method chaining.
func (sb *SchemaBuilder) Table(t catalog.Table) *SchemaBuilder {
	sb.builder.tables = append(sb.builder.tables, t)
	return sb
}

// ScalarFunc adds a scalar function to this schema.
// Returns self for method chaining.
// Function name MUST be unique within schema.
func (sb *SchemaBuilder) ScalarFunc(fn *logical.ScalarUDF) *SchemaBuilder {
	sb.builder.scalarFuncs = append(sb.builder.scalarFuncs, fn)
	return sb
}

// AggregateFunc adds an aggregate function to this schema.
// Returns self for method chaining.
// Function name MUST be unique within schema.
func (sb *SchemaBuilder) AggregateFunc(fn *logical.AggregateUDF) *SchemaBuilder {
	sb.builder.aggregateFuncs = append(sb.builder.aggregateFuncs, fn)
	return sb
}

// Schema starts a new schema definition (returns to CatalogBuilder).
// Allows chaining: Schema("a").SimpleTable(...).Schema("b").SimpleTable(...)
func (sb *SchemaBuilder) Schema(name string) *SchemaBuilder {
	return sb.builder.catalogBuilder.Schema(name)
}

// Build finalizes the catalog (returns to CatalogBuilder).
// Same as calling catalogBuilder.Build().
func (sb *SchemaBuilder) Build() (*catalog.StaticCatalog, error) {
	return sb.builder.catalogBuilder.Build()
}

// nilSchemaTable records a SimpleTableDef without schema so Build can
// report it.
type nilSchemaTable string

func (t nilSchemaTable) Name() string             { return string(t) }
func (nilSchemaTable) Comment() string            { return "" }
func (nilSchemaTable) ArrowSchema() *arrow.Schema { return nil }

package catalog

import (
	"context"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/logical"
)

// StaticCatalog is an immutable catalog implementation built from
// CatalogBuilder. AddSchema must not be called once the catalog is shared.
type StaticCatalog struct {
	schemas map[string]*staticSchema
}

// NewStaticCatalog creates an empty static catalog.
func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{
		schemas: make(map[string]*staticSchema),
	}
}

// AddSchema adds a schema to the static catalog.
// This is used during catalog building.
func (c *StaticCatalog) AddSchema(name, comment string, tables map[string]Table, scalars []*logical.ScalarUDF, aggregates []*logical.AggregateUDF) {
	c.schemas[name] = &staticSchema{
		name:       name,
		comment:    comment,
		tables:     tables,
		scalars:    scalars,
		aggregates: aggregates,
	}
}

// NewStaticTable creates a static table.
func NewStaticTable(name, comment string, schema *arrow.Schema) *StaticTable {
	return &StaticTable{
		name:    name,
		comment: comment,
		schema:  schema,
	}
}

// Schemas implements Catalog interface. Schemas are ordered by name.
func (c *StaticCatalog) Schemas(ctx context.Context) ([]Schema, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Schema, 0, len(names))
	for _, name := range names {
		result = append(result, c.schemas[name])
	}
	return result, nil
}

// Schema implements Catalog interface.
func (c *StaticCatalog) Schema(ctx context.Context, name string) (Schema, error) {
	schema, ok := c.schemas[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return schema, nil
}

// staticSchema is an immutable schema implementation.
type staticSchema struct {
	name       string
	comment    string
	tables     map[string]Table
	scalars    []*logical.ScalarUDF
	aggregates []*logical.AggregateUDF
}

// Name implements Schema interface.
func (s *staticSchema) Name() string {
	return s.name
}

// Comment implements Schema interface.
func (s *staticSchema) Comment() string {
	return s.comment
}

// Tables implements Schema interface. Tables are ordered by name.
func (s *staticSchema) Tables(ctx context.Context) ([]Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]Table, 0, len(s.tables))
	for _, table := range s.tables {
		result = append(result, table)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

// Table implements Schema interface.
func (s *staticSchema) Table(ctx context.Context, name string) (Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, nil // Not found, not an error
	}
	return table, nil
}

// ScalarFunctions implements Schema interface.
func (s *staticSchema) ScalarFunctions(ctx context.Context) ([]*logical.ScalarUDF, error) {
	return s.scalars, nil
}

// AggregateFunctions implements Schema interface.
func (s *staticSchema) AggregateFunctions(ctx context.Context) ([]*logical.AggregateUDF, error) {
	return s.aggregates, nil
}

// StaticTable is an immutable table implementation.
type StaticTable struct {
	name    string
	comment string
	schema  *arrow.Schema
}

// Name implements Table interface.
func (t *StaticTable) Name() string {
	return t.name
}

// Comment implements Table interface.
func (t *StaticTable) Comment() string {
	return t.comment
}

// ArrowSchema implements Table interface.
func (t *StaticTable) ArrowSchema() *arrow.Schema {
	return t.schema
}

// Package duckdb exposes the tables of a live DuckDB database as a catalog
// and encodes table scans over them by name.
//
// Unlike memtable, no rows travel with the plan. The decoding side resolves
// the table again against its own database and rejects the plan when the
// table's columns changed in between.
//
// The package does not import a driver. Open the database with
// github.com/duckdb/duckdb-go/v2 (driver name "duckdb") and pass the *sql.DB.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

const schemasQuery = `
SELECT schema_name
FROM information_schema.schemata
WHERE catalog_name = current_database()
  AND schema_name NOT IN ('information_schema', 'pg_catalog')
ORDER BY schema_name`

const schemaExistsQuery = `
SELECT count(*)
FROM information_schema.schemata
WHERE catalog_name = current_database() AND schema_name = ?`

const columnsQuery = `
SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_catalog = current_database() AND table_schema = ?
ORDER BY table_name, ordinal_position`

const tableColumnsQuery = `
SELECT table_name, column_name, data_type, is_nullable
FROM information_schema.columns
WHERE table_catalog = current_database() AND table_schema = ? AND table_name = ?
ORDER BY ordinal_position`

// Catalog reads schemas and tables from a DuckDB database on every call, so
// it always reflects the current DDL state.
// Safe for concurrent use.
type Catalog struct {
	db *sql.DB
}

var _ catalog.Catalog = (*Catalog)(nil)

// NewCatalog creates a catalog over db.
func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{db: db}
}

// DB returns the underlying database.
func (c *Catalog) DB() *sql.DB { return c.db }

// Schemas implements catalog.Catalog.
func (c *Catalog) Schemas(ctx context.Context) ([]catalog.Schema, error) {
	rows, err := c.db.QueryContext(ctx, schemasQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	result := []catalog.Schema{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read schema: %w", err)
		}
		result = append(result, &Schema{catalog: c, name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return result, nil
}

// Schema implements catalog.Catalog.
func (c *Catalog) Schema(ctx context.Context, name string) (catalog.Schema, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, schemaExistsQuery, name).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to look up schema %s: %w", name, err)
	}
	if n == 0 {
		return nil, nil
	}
	return &Schema{catalog: c, name: name}, nil
}

// Schema is a DuckDB schema.
type Schema struct {
	catalog *Catalog
	name    string
}

var _ catalog.Schema = (*Schema)(nil)

func (s *Schema) Name() string    { return s.name }
func (s *Schema) Comment() string { return "" }

// Tables implements catalog.Schema. Views are included.
func (s *Schema) Tables(ctx context.Context) ([]catalog.Table, error) {
	tables, err := s.load(ctx, columnsQuery, s.name)
	if err != nil {
		return nil, err
	}
	result := make([]catalog.Table, 0, len(tables))
	for _, t := range tables {
		result = append(result, t)
	}
	return result, nil
}

// Table implements catalog.Schema.
func (s *Schema) Table(ctx context.Context, name string) (catalog.Table, error) {
	tables, err := s.load(ctx, tableColumnsQuery, s.name, name)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, nil
	}
	return tables[0], nil
}

// ScalarFunctions implements catalog.Schema. DuckDB built-ins are not
// exposed as user-defined functions.
func (s *Schema) ScalarFunctions(context.Context) ([]*logical.ScalarUDF, error) {
	return nil, nil
}

// AggregateFunctions implements catalog.Schema.
func (s *Schema) AggregateFunctions(context.Context) ([]*logical.AggregateUDF, error) {
	return nil, nil
}

// load runs a columns query and groups the rows into tables, keeping the
// query order.
func (s *Schema) load(ctx context.Context, query string, args ...any) ([]*Table, error) {
	rows, err := s.catalog.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of schema %s: %w", s.name, err)
	}
	defer rows.Close()

	var (
		tables []*Table
		fields []arrow.Field
		cur    string
	)
	flush := func() {
		if cur != "" {
			tables = append(tables, newTable(s.catalog, s.name, cur, fields))
		}
	}
	for rows.Next() {
		var tableName, columnName, dataType, nullable string
		if err := rows.Scan(&tableName, &columnName, &dataType, &nullable); err != nil {
			return nil, fmt.Errorf("failed to read column: %w", err)
		}
		if tableName != cur {
			flush()
			cur = tableName
			fields = nil
		}
		t, err := ArrowType(dataType)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s.%s: %w", s.name, tableName, columnName, err)
		}
		fields = append(fields, arrow.Field{Name: columnName, Type: t, Nullable: nullable == "YES"})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list columns of schema %s: %w", s.name, err)
	}
	flush()
	return tables, nil
}

// Table is a DuckDB table or view. Its schema is captured when the table is
// loaded.
type Table struct {
	catalog *Catalog
	schema  string
	name    string
	arrow   *arrow.Schema
}

var (
	_ catalog.Table      = (*Table)(nil)
	_ logical.DataSource = (*Table)(nil)
)

func newTable(c *Catalog, schema, name string, fields []arrow.Field) *Table {
	return &Table{
		catalog: c,
		schema:  schema,
		name:    name,
		arrow:   arrow.NewSchema(fields, nil),
	}
}

func (t *Table) Name() string               { return t.name }
func (t *Table) Comment() string            { return "" }
func (t *Table) ArrowSchema() *arrow.Schema { return t.arrow }

// SchemaName returns the DuckDB schema holding the table.
func (t *Table) SchemaName() string { return t.schema }

// Reference returns the qualified table reference.
func (t *Table) Reference() logical.TableReference {
	return logical.TableReference{Schema: t.schema, Table: t.name}
}

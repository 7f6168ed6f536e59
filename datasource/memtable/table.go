// Package memtable provides an in-memory table whose rows travel inside an
// encoded plan.
//
// A Table holds Arrow record batches. Codec embeds them in a table scan as
// a zstd-compressed Arrow IPC stream, so the decoded plan carries the same
// rows without any catalog lookup on the receiving side.
package memtable

import (
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/logical"
)

// Table is an immutable in-memory table.
// Safe for concurrent use.
type Table struct {
	name    string
	comment string
	schema  *arrow.Schema

	mu       sync.Mutex
	records  []arrow.RecordBatch
	released bool
}

var (
	_ catalog.Table      = (*Table)(nil)
	_ logical.DataSource = (*Table)(nil)
)

// NewTable creates a table from record batches. Every record must have the
// given schema. The table retains the records; call Release when done.
func NewTable(name, comment string, schema *arrow.Schema, records ...arrow.RecordBatch) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if schema == nil {
		return nil, fmt.Errorf("table %s: schema is required", name)
	}
	for i, rec := range records {
		if !rec.Schema().Equal(schema) {
			return nil, fmt.Errorf("table %s: record %d schema does not match table schema", name, i)
		}
	}
	for _, rec := range records {
		rec.Retain()
	}
	return &Table{
		name:    name,
		comment: comment,
		schema:  schema,
		records: records,
	}, nil
}

func (t *Table) Name() string               { return t.name }
func (t *Table) Comment() string            { return t.comment }
func (t *Table) ArrowSchema() *arrow.Schema { return t.schema }

// NumRows returns the total row count over all records.
func (t *Table) NumRows() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var n int64
	for _, rec := range t.records {
		n += rec.NumRows()
	}
	return n
}

// Reader returns a reader over the table records.
// The caller must release the reader.
func (t *Table) Reader() (array.RecordReader, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, fmt.Errorf("table %s is released", t.name)
	}
	return array.NewRecordReader(t.schema, t.records)
}

// snapshot returns the records retained for the caller.
func (t *Table) snapshot() ([]arrow.RecordBatch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, fmt.Errorf("table %s is released", t.name)
	}
	out := make([]arrow.RecordBatch, len(t.records))
	for i, rec := range t.records {
		rec.Retain()
		out[i] = rec
	}
	return out, nil
}

// Release drops the table's references to its records.
func (t *Table) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	for _, rec := range t.records {
		rec.Release()
	}
	t.records = nil
	t.released = true
}

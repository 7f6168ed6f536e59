// Package serialize provides compact binary encoding of Arrow record batches.
// Used by in-memory data sources to embed their rows in encoded plans.
package serialize

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// WriteRecords serializes record batches to the Arrow IPC stream format and
// compresses the stream with ZStandard.
// Every record must have the given schema.
func WriteRecords(schema *arrow.Schema, records []arrow.RecordBatch, allocator memory.Allocator) ([]byte, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema), ipc.WithAllocator(allocator))
	for i, rec := range records {
		if !rec.Schema().Equal(schema) {
			_ = writer.Close()
			return nil, fmt.Errorf("record %d schema does not match", i)
		}
		if err := writer.Write(rec); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close IPC writer: %w", err)
	}

	return Compress(buf.Bytes())
}

// ReadRecords reverses WriteRecords. The caller owns the returned records and
// must release them.
func ReadRecords(data []byte, allocator memory.Allocator) (*arrow.Schema, []arrow.RecordBatch, error) {
	raw, err := Decompress(data)
	if err != nil {
		return nil, nil, err
	}

	reader, err := ipc.NewReader(bytes.NewReader(raw), ipc.WithAllocator(allocator))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open IPC reader: %w", err)
	}
	defer reader.Release()

	var records []arrow.RecordBatch
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		for _, rec := range records {
			rec.Release()
		}
		return nil, nil, fmt.Errorf("failed to read records: %w", err)
	}

	return reader.Schema(), records, nil
}

package duckdb

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hugr-lab/plancodec/catalog"
	"github.com/hugr-lab/plancodec/internal/msgpack"
	"github.com/hugr-lab/plancodec/logical"
	"github.com/hugr-lab/plancodec/wire"
)

type otherSource struct{}

func (otherSource) ArrowSchema() *arrow.Schema { return arrow.NewSchema(nil, nil) }

func resolveUsers(t *testing.T, sess *catalog.Session) *Table {
	t.Helper()
	tbl, err := sess.ResolveTable(context.Background(), logical.TableReference{Table: "users"})
	if err != nil {
		t.Fatalf("ResolveTable() failed: %v", err)
	}
	return tbl.(*Table)
}

func encodePlan(t *testing.T, p logical.Plan) []byte {
	t.Helper()
	node, err := wire.ToPlanNode(p, Codec{})
	if err != nil {
		t.Fatalf("ToPlanNode() failed: %v", err)
	}
	data, err := wire.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	return data
}

func decodePlan(data []byte, sess *catalog.Session) (logical.Plan, error) {
	var node wire.PlanNode
	if err := wire.Unmarshal(data, &node, 0); err != nil {
		return nil, err
	}
	return wire.FromPlanNode(context.Background(), &node, sess, Codec{})
}

// TestCodecRoundTrip tests that a scan re-resolves against the database and
// renders to SQL that DuckDB accepts.
func TestCodecRoundTrip(t *testing.T) {
	db := openDuckDB(t)
	sess := catalog.NewSession(NewCatalog(db))
	users := resolveUsers(t, sess)

	fetch := int64(5)
	plan := &logical.TableScan{
		Table:      users.Reference(),
		Source:     users,
		Projection: []int{0, 1},
		Filters: []logical.Expr{
			logical.GtEq(logical.Col("id"), logical.Lit(int64(2))),
			&logical.Like{Expr: logical.Col("name"), Pattern: logical.Lit("%o%")},
		},
		Fetch: &fetch,
	}

	got, err := decodePlan(encodePlan(t, plan), sess)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !got.Equals(plan) {
		t.Fatalf("round trip mismatch:\n got: %s\nwant: %s", got, plan)
	}

	scan := got.(*logical.TableScan)
	if _, ok := scan.Source.(*Table); !ok {
		t.Fatalf("expected *Table source, got %T", scan.Source)
	}

	query, residual, err := ScanSQL(scan)
	if err != nil {
		t.Fatalf("ScanSQL() failed: %v", err)
	}
	if len(residual) != 0 {
		t.Errorf("expected all filters pushed down, got %d residual", len(residual))
	}
	var count int
	if err := db.QueryRow(fmt.Sprintf("SELECT count(*) FROM (%s)", query)).Scan(&count); err != nil {
		t.Fatalf("query %q failed: %v", query, err)
	}
	if count != 1 {
		t.Errorf("expected 1 row (Bob), got %d", count)
	}
}

// TestCodecSchemaDrift tests that a plan encoded before a DDL change is
// rejected after it.
func TestCodecSchemaDrift(t *testing.T) {
	db := openDuckDB(t)
	sess := catalog.NewSession(NewCatalog(db))
	users := resolveUsers(t, sess)
	data := encodePlan(t, &logical.TableScan{Table: users.Reference(), Source: users})

	if _, err := db.Exec(`ALTER TABLE users ADD COLUMN email VARCHAR`); err != nil {
		t.Fatalf("ALTER TABLE failed: %v", err)
	}
	_, err := decodePlan(data, sess)
	if !errors.Is(err, ErrSchemaDrift) {
		t.Fatalf("decode after ALTER = %v, want ErrSchemaDrift", err)
	}
	var collab *wire.CollaboratorError
	if !errors.As(err, &collab) || collab.Op != "decode data source" || collab.Entity != "main.users" {
		t.Errorf("expected CollaboratorError for main.users, got %v", err)
	}

	if _, err := db.Exec(`DROP TABLE users`); err != nil {
		t.Fatalf("DROP TABLE failed: %v", err)
	}
	if _, err := decodePlan(data, sess); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("decode after DROP = %v, want ErrNotFound", err)
	}
}

// TestCodecErrors tests rejected sources and payloads.
func TestCodecErrors(t *testing.T) {
	ctx := context.Background()
	codec := Codec{}
	schema := arrow.NewSchema(nil, nil)

	if _, err := codec.EncodeDataSource(otherSource{}); !errors.Is(err, wire.ErrUnsupportedExtension) {
		t.Errorf("EncodeDataSource(other) = %v, want ErrUnsupportedExtension", err)
	}
	if _, err := codec.EncodeExtension(&logical.Extension{}); !errors.Is(err, wire.ErrUnsupportedExtension) {
		t.Errorf("EncodeExtension() = %v, want ErrUnsupportedExtension", err)
	}
	if _, err := codec.DecodeExtension(ctx, nil, nil, nil); !errors.Is(err, wire.ErrUnsupportedExtension) {
		t.Errorf("DecodeExtension() = %v, want ErrUnsupportedExtension", err)
	}

	noTable, _ := msgpack.Encode(tableRef{Schema: "main"})
	valid, _ := msgpack.Encode(tableRef{Schema: "main", Table: "users"})
	tests := []struct {
		name string
		buf  []byte
		sess *catalog.Session
	}{
		{"garbage", []byte("Leet"), catalog.NewSession(nil)},
		{"missing table", noTable, catalog.NewSession(nil)},
		{"no session", valid, nil},
		{"no catalog", valid, catalog.NewSession(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.DecodeDataSource(ctx, tt.buf, schema, tt.sess); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}

package logical

import (
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

type testSource struct{ schema *arrow.Schema }

func (s testSource) ArrowSchema() *arrow.Schema { return s.schema }

var usersSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

func TestPlanBuilder(t *testing.T) {
	users := TableReference{Schema: "main", Table: "users"}
	plan, err := Scan(users, testSource{usersSchema}).
		Filter(Gt(Col("id"), Lit(10))).
		Project(Col("id"), Col("name")).
		Sort(SortBy(Col("id"), true, false)).
		Limit(5, 100).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := strings.Join([]string{
		"Limit: skip=5, fetch=100",
		"  Sort: id ASC NULLS LAST",
		"    Projection: id, name",
		"      Filter: id > int64(10)",
		"        TableScan: main.users",
		"",
	}, "\n")
	if got := Format(plan); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestPlanBuilderFirstErrorWins(t *testing.T) {
	_, err := Empty(true).
		Project().
		Alias("").
		Build()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "projection") {
		t.Errorf("expected projection error first, got %v", err)
	}

	_, err = ValuesOf(usersSchema, []Expr{Lit(1)}).Build()
	if err == nil {
		t.Error("expected short values row to fail")
	}
	_, err = Scan(TableReference{}, nil).Build()
	if err == nil {
		t.Error("expected empty table name to fail")
	}
	_, err = From(nil).Distinct().Build()
	if err == nil {
		t.Error("expected nil plan to fail")
	}
}

func TestPlanEquals(t *testing.T) {
	build := func(fetch int64) Plan {
		right, _ := Empty(true).Alias("r").Build()
		p, err := Scan(TableReference{Table: "users"}, testSource{usersSchema}).
			Join(right, JoinLeft, []JoinKey{{Left: Col("id"), Right: ColumnOf("r", "id")}}, nil).
			Limit(0, fetch).
			Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return p
	}
	if !build(10).Equals(build(10)) {
		t.Error("expected identical plans to be equal")
	}
	if build(10).Equals(build(11)) {
		t.Error("expected fetch difference to break equality")
	}

	a := &TableScan{Table: TableReference{Table: "users"}, Source: testSource{usersSchema}}
	b := &TableScan{Table: TableReference{Table: "users"}, Source: testSource{arrow.NewSchema(nil, nil)}}
	if a.Equals(b) {
		t.Error("expected source schema difference to break equality")
	}

	if !(&EmptyRelation{}).Equals(&EmptyRelation{Schema: arrow.NewSchema(nil, nil)}) {
		t.Error("expected nil and empty schema to compare equal")
	}
}

func TestWalk(t *testing.T) {
	left, _ := Empty(false).Build()
	right, _ := Empty(true).Build()
	p, err := From(left).Union(right).Distinct().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var visited []string
	err = Walk(p, func(n Plan) error {
		visited = append(visited, n.String())
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"Distinct", "Union", "EmptyRelation", "EmptyRelation: rows=1"}
	if strings.Join(visited, "|") != strings.Join(want, "|") {
		t.Errorf("visited %v, want %v", visited, want)
	}

	count := 0
	err = Walk(p, func(n Plan) error {
		count++
		if _, ok := n.(*Union); ok {
			return SkipChildren
		}
		return nil
	})
	if err != nil || count != 2 {
		t.Errorf("SkipChildren: count=%d err=%v", count, err)
	}

	stop := errors.New("stop")
	if err := Walk(p, func(Plan) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestParseTableReference(t *testing.T) {
	ref, err := ParseTableReference("main.users")
	if err != nil || ref != (TableReference{Schema: "main", Table: "users"}) {
		t.Errorf("ParseTableReference = %v, %v", ref, err)
	}
	ref, err = ParseTableReference("users")
	if err != nil || ref.String() != "users" {
		t.Errorf("ParseTableReference = %v, %v", ref, err)
	}
	for _, bad := range []string{"", "a.b.c", ".x", "x."} {
		if _, err := ParseTableReference(bad); err == nil {
			t.Errorf("expected %q to fail", bad)
		}
	}
}

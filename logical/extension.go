package logical

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// TableReference names a table, optionally qualified by schema.
type TableReference struct {
	Schema string
	Table  string
}

// ParseTableReference parses "table" or "schema.table".
func ParseTableReference(s string) (TableReference, error) {
	parts := strings.Split(s, ".")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return TableReference{Table: parts[0]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return TableReference{Schema: parts[0], Table: parts[1]}, nil
	default:
		return TableReference{}, fmt.Errorf("invalid table reference %q", s)
	}
}

func (r TableReference) String() string {
	if r.Schema == "" {
		return r.Table
	}
	return r.Schema + "." + r.Table
}

// DataSource is the provider behind a TableScan. The plan only needs its
// schema; encoding the provider itself is left to an extension codec.
type DataSource interface {
	ArrowSchema() *arrow.Schema
}

// UserDefinedNode is the payload of an Extension plan node. Its encoding is
// owned by the extension codec the caller supplies.
type UserDefinedNode interface {
	// Name identifies the node kind.
	Name() string

	// Inputs returns the child plans, which are encoded by the caller.
	Inputs() []Plan

	// Schema returns the output schema of the node.
	Schema() *arrow.Schema

	// Equals reports whether o is the same node.
	Equals(o UserDefinedNode) bool
}

// ReleaseSources calls Release on every table scan source in p that holds
// resources, such as tables restored with their data by a codec. Sources
// referenced only from subquery expressions are not visited.
func ReleaseSources(p Plan) {
	_ = Walk(p, func(n Plan) error {
		if scan, ok := n.(*TableScan); ok {
			if r, ok := scan.Source.(interface{ Release() }); ok {
				r.Release()
			}
		}
		return nil
	})
}

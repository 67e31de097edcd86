package backend

import (
	"fmt"
	"strings"
)

// TestHelpersGenerator emits a dummy-data seed procedure for every
// registered table not marked Deleted — the `--rt test_helpers` target, used to populate a
// throwaway database for unit tests without hand-writing INSERTs.
type TestHelpersGenerator struct{}

func (g *TestHelpersGenerator) Name() Target { return TargetTestHelpers }

func (g *TestHelpersGenerator) Generate(in Input) ([]Output, error) {
	var b strings.Builder
	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		if table.Deleted {
			continue
		}
		fmt.Fprintf(&b, "PROC populate_%s (seed INTEGER NOT NULL)\nBEGIN\n  INSERT INTO %s (", table.Name, table.Name)
		for i, c := range table.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.Name)
		}
		b.WriteString(") VALUES (")
		for i, c := range table.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s(seed)", dummySeedFunc(c.Name))
		}
		b.WriteString(");\nEND;\n\n")
	}
	return []Output{{Name: "test_helpers.sql", Content: b.String()}}, nil
}

// dummySeedFunc names the per-column seed function a real CQL dummy-data
// attribute would bind; here it is derived deterministically from the
// column name so generated helpers never collide.
func dummySeedFunc(column string) string {
	return "cql_dummy_seed_" + column
}

package backend

import (
	"strings"

	"github.com/cqllang/cqlc/internal/regen"
)

// SchemaSQLiteGenerator renders the annotated tree through the
// regenerator in SQLite mode — the `--rt schema_sqlite` target, which
// strips CQL-only annotations a plain SQLite connection would reject
// (spec §4.5's `ModeSQLite`).
type SchemaSQLiteGenerator struct{}

func (g *SchemaSQLiteGenerator) Name() Target { return TargetSchemaSQLite }

func (g *SchemaSQLiteGenerator) Generate(in Input) ([]Output, error) {
	if in.Tree == nil {
		var b strings.Builder
		for _, name := range in.Registries.Tables.Keys() {
			table, _ := in.Registries.Tables.Lookup(name)
			if table.Deleted {
				continue
			}
			writeCreateTable(&b, table.Name, table.Columns)
		}
		return []Output{{Name: "schema_sqlite.sql", Content: b.String()}}, nil
	}

	opts := regen.DefaultOptions()
	opts.Mode = regen.ModeSQLite
	text, err := renderTree(in.Tree, opts)
	if err != nil {
		return nil, err
	}
	return []Output{{Name: "schema_sqlite.sql", Content: text}}, nil
}

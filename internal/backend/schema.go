package backend

import (
	"fmt"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/sem"
)

// sqlTypeName is the canonical SQL spelling of a core type, used by every
// DDL-emitting backend (schema, schema_upgrade, schema_sqlite).
func sqlTypeName(t ast.CoreType) string {
	switch t {
	case ast.TypeBool:
		return "BOOL"
	case ast.TypeInt32:
		return "INTEGER"
	case ast.TypeInt64:
		return "LONG_INT"
	case ast.TypeReal:
		return "REAL"
	case ast.TypeText:
		return "TEXT"
	case ast.TypeBlob:
		return "BLOB"
	case ast.TypeObject:
		return "OBJECT"
	default:
		return "TEXT"
	}
}

// SchemaGenerator re-emits the canonical, normalized DDL for every
// currently-live table — the `--rt schema` target, used to produce a
// single-file canonical schema for diffing across versions.
type SchemaGenerator struct{}

func (g *SchemaGenerator) Name() Target { return TargetSchema }

func (g *SchemaGenerator) Generate(in Input) ([]Output, error) {
	var b strings.Builder
	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		if table.Deleted {
			continue
		}
		writeCreateTable(&b, table.Name, table.Columns)
	}
	return []Output{{Name: "schema.sql", Content: b.String()}}, nil
}

func writeCreateTable(b *strings.Builder, name string, cols []sem.ColumnDef) {
	fmt.Fprintf(b, "CREATE TABLE %s (\n", name)
	for i, c := range cols {
		sep := ","
		if i == len(cols)-1 {
			sep = ""
		}
		fmt.Fprintf(b, "  %s %s%s%s\n", c.Name, sqlTypeName(c.Type), sqlColumnAttrs(c), sep)
	}
	b.WriteString(");\n\n")
}

func sqlColumnAttrs(c sem.ColumnDef) string {
	var attrs strings.Builder
	if c.NotNull {
		attrs.WriteString(" NOT NULL")
	}
	if c.PK {
		attrs.WriteString(" PRIMARY KEY")
	}
	if c.Unique {
		attrs.WriteString(" UNIQUE")
	}
	return attrs.String()
}

package backend

import (
	"fmt"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
)

// CGenerator produces a C struct-and-prototype pair (header + body) for
// every registered table and procedure — the `--rt c` target.
type CGenerator struct{}

func (g *CGenerator) Name() Target { return TargetC }

func (g *CGenerator) Generate(in Input) ([]Output, error) {
	ns := in.Options.CIncludeNamespace
	if ns == "" {
		ns = "cql"
	}

	var header, body strings.Builder
	fmt.Fprintf(&header, "#pragma once\n")
	if in.Options.CQLRTHeader != "" {
		fmt.Fprintf(&header, "#include %q\n", in.Options.CQLRTHeader)
	}
	header.WriteString("\n")

	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		if table.Deleted {
			continue
		}
		fmt.Fprintf(&header, "typedef struct %s_%s {\n", ns, table.Name)
		for _, col := range table.Columns {
			fmt.Fprintf(&header, "  %s %s;\n", cType(col.NotNull, col.Type), col.Name)
		}
		fmt.Fprintf(&header, "} %s_%s;\n\n", ns, table.Name)
	}

	for _, name := range in.Registries.Procs.Keys() {
		proc, _ := in.Registries.Procs.Lookup(name)
		fmt.Fprintf(&header, "cql_code %s_%s_fetch_results(", ns, proc.Name)
		for i, f := range proc.Formals {
			if i > 0 {
				header.WriteString(", ")
			}
			fmt.Fprintf(&header, "%s %s", cType(f.NotNull, f.Type), f.Name)
		}
		header.WriteString(");\n")
	}

	if in.Options.GenerateExports {
		fmt.Fprintf(&body, "// exports for %s generated from the same registries as the header\n", ns)
	}

	var outs []Output
	outs = append(outs, Output{Name: ns + ".h", Content: header.String()})
	if body.Len() > 0 {
		outs = append(outs, Output{Name: ns + ".c", Content: body.String()})
	}
	return outs, nil
}

// cType maps a core type + nullability to its C rendering. Nullable
// scalar types box to a pointer since C has no native nullable numeric.
func cType(notNull bool, coreType ast.CoreType) string {
	base := coreCTypeName(coreType)
	if !notNull {
		return base + "*"
	}
	return base
}

// coreCTypeName is the base (non-pointer) C spelling of a core type.
func coreCTypeName(t ast.CoreType) string {
	switch t {
	case ast.TypeBool:
		return "cql_bool"
	case ast.TypeInt32:
		return "cql_int32"
	case ast.TypeInt64:
		return "cql_int64"
	case ast.TypeReal:
		return "cql_double"
	case ast.TypeText:
		return "cql_string_ref"
	case ast.TypeBlob:
		return "cql_blob_ref"
	case ast.TypeObject:
		return "cql_object_ref"
	default:
		return "void*"
	}
}

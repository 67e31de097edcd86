package backend

import (
	"fmt"
	"strings"
)

// LuaGenerator produces a Lua module exposing one table-shaped record
// constructor per registered table — the `--rt lua` scripting backend.
type LuaGenerator struct{}

func (g *LuaGenerator) Name() Target { return TargetLua }

func (g *LuaGenerator) Generate(in Input) ([]Output, error) {
	var b strings.Builder
	b.WriteString("local M = {}\n\n")
	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		if table.Deleted {
			continue
		}
		fmt.Fprintf(&b, "function M.new_%s(fields)\n", table.Name)
		b.WriteString("  return {\n")
		for _, col := range table.Columns {
			fmt.Fprintf(&b, "    %s = fields.%s,\n", col.Name, col.Name)
		}
		b.WriteString("  }\n")
		b.WriteString("end\n\n")
	}
	b.WriteString("return M\n")
	return []Output{{Name: "schema.lua", Content: b.String()}}, nil
}

package backend

import (
	"fmt"
	"strings"
)

// SchemaUpgradeGenerator emits a chronological migration script driven by
// each table's versioning annotations plus any registered ad-hoc
// migration procedures — the `--rt schema_upgrade` target (spec §3.3,
// §6.2).
type SchemaUpgradeGenerator struct{}

func (g *SchemaUpgradeGenerator) Name() Target { return TargetSchemaUpgrade }

func (g *SchemaUpgradeGenerator) Generate(in Input) ([]Output, error) {
	var b strings.Builder
	b.WriteString("-- generated upgrade script\n\n")

	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		v := table.Versioning
		if v.CreateSet && v.CreateVersion > in.Options.MinSchemaVersion {
			fmt.Fprintf(&b, "-- @CREATE(%d) %s\n", v.CreateVersion, table.Name)
			writeCreateTable(&b, table.Name, table.Columns)
		}
		if v.DeleteSet && v.DeleteVersion > in.Options.MinSchemaVersion {
			fmt.Fprintf(&b, "-- @DELETE(%d) %s\nDROP TABLE %s;\n\n", v.DeleteVersion, table.Name, table.Name)
		}
	}

	for _, name := range in.Registries.AdHocMigrations.Keys() {
		m, _ := in.Registries.AdHocMigrations.Lookup(name)
		if m.Version <= in.Options.MinSchemaVersion {
			continue
		}
		fmt.Fprintf(&b, "-- ad hoc migration v%d\nCALL %s();\n\n", m.Version, m.ProcName)
	}

	return []Output{{Name: "schema_upgrade.sql", Content: b.String()}}, nil
}

package backend

import "fmt"

// StatsGenerator summarizes the compiled schema — the `--rt stats`
// target, a quick sanity report rather than a consumable artifact.
type StatsGenerator struct{}

func (g *StatsGenerator) Name() Target { return TargetStats }

func (g *StatsGenerator) Generate(in Input) ([]Output, error) {
	liveTables := 0
	for _, name := range in.Registries.Tables.Keys() {
		table, _ := in.Registries.Tables.Lookup(name)
		if !table.Deleted {
			liveTables++
		}
	}
	report := fmt.Sprintf(
		"tables: %d (of %d declared)\nviews: %d\nindices: %d\ntriggers: %d\nprocedures: %d\nfunctions: %d\nenums: %d\n",
		liveTables, in.Registries.Tables.Len(),
		in.Registries.Views.Len(),
		in.Registries.Indices.Len(),
		in.Registries.Triggers.Len(),
		in.Registries.Procs.Len(),
		in.Registries.Funcs.Len(),
		in.Registries.Enums.Len(),
	)
	return []Output{{Name: "stats.txt", Content: report}}, nil
}

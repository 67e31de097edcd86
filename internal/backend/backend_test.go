package backend

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/sem"
)

func fixtureRegistries() *sem.Registries {
	reg := sem.NewRegistries()
	reg.Tables.Insert("widgets", &sem.TableDef{
		Name: "widgets",
		Columns: []sem.ColumnDef{
			{Name: "id", Type: ast.TypeInt64, NotNull: true, PK: true},
			{Name: "label", Type: ast.TypeText, NotNull: true},
			{Name: "weight", Type: ast.TypeReal},
		},
	})
	reg.Tables.Insert("ghosts", &sem.TableDef{
		Name:    "ghosts",
		Deleted: true,
		Columns: []sem.ColumnDef{{Name: "id", Type: ast.TypeInt32, NotNull: true, PK: true}},
	})
	reg.Procs.Insert("get_widget", &sem.ProcDef{
		Name:    "get_widget",
		Formals: []sem.ColumnDef{{Name: "id_", Type: ast.TypeInt64, NotNull: true}},
		HasDML:  true,
	})
	return reg
}

func TestNewRegistryWiresAllTargets(t *testing.T) {
	reg := NewRegistry()
	want := []Target{
		TargetC, TargetObjC, TargetLua, TargetSchema, TargetSchemaUpgrade,
		TargetSchemaSQLite, TargetJSONSchema, TargetTestHelpers, TargetQueryPlan, TargetStats,
	}
	if len(reg) != len(want) {
		t.Fatalf("got %d generators, want %d", len(reg), len(want))
	}
	for _, target := range want {
		gen, ok := reg[target]
		if !ok {
			t.Fatalf("missing generator for target %v", target)
		}
		if gen.Name() != target {
			t.Errorf("generator registered under %v reports Name() = %v", target, gen.Name())
		}
	}
}

func TestCGeneratorSkipsDeletedTablesAndEmitsLiveOnes(t *testing.T) {
	gen := &CGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("expected at least one output file")
	}
	header := out[0].Content
	if !strings.Contains(header, "widgets") {
		t.Errorf("header missing live table widgets:\n%s", header)
	}
	if strings.Contains(header, "ghosts") {
		t.Errorf("header should not mention deleted table ghosts:\n%s", header)
	}
	if !strings.Contains(header, "get_widget") {
		t.Errorf("header missing procedure prototype:\n%s", header)
	}
}

func TestObjCGeneratorWrapsCOutputWithImport(t *testing.T) {
	gen := &ObjCGenerator{}
	out, err := gen.Generate(Input{
		Registries: fixtureRegistries(),
		Options:    Options{ObjCIncludePath: "Widgets/cql"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var found bool
	for _, o := range out {
		if strings.Contains(o.Content, "#import \"Widgets/cql") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an #import referencing the configured include path, got %+v", out)
	}
}

func TestLuaGeneratorEmitsConstructorPerLiveTable(t *testing.T) {
	gen := &LuaGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	content := out[0].Content
	if !strings.Contains(content, "M.new_widgets") {
		t.Errorf("missing constructor for widgets:\n%s", content)
	}
	if strings.Contains(content, "new_ghosts") {
		t.Errorf("should not emit a constructor for a deleted table:\n%s", content)
	}
}

func TestSchemaGeneratorEmitsCanonicalDDL(t *testing.T) {
	gen := &SchemaGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	ddl := out[0].Content
	if !strings.Contains(ddl, "CREATE TABLE widgets") {
		t.Errorf("missing CREATE TABLE widgets:\n%s", ddl)
	}
	if !strings.Contains(ddl, "PRIMARY KEY") {
		t.Errorf("missing PRIMARY KEY attribute:\n%s", ddl)
	}
	if strings.Contains(ddl, "ghosts") {
		t.Errorf("deleted table should not appear in canonical DDL:\n%s", ddl)
	}
}

func TestSchemaUpgradeGeneratorRespectsMinSchemaVersion(t *testing.T) {
	reg := sem.NewRegistries()
	reg.Tables.Insert("late", &sem.TableDef{
		Name:       "late",
		Columns:    []sem.ColumnDef{{Name: "id", Type: ast.TypeInt64, NotNull: true, PK: true}},
		Versioning: sem.SchemaVersioning{CreateVersion: 5, CreateSet: true},
	})
	gen := &SchemaUpgradeGenerator{}

	out, err := gen.Generate(Input{Registries: reg, Options: Options{MinSchemaVersion: 10}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(out[0].Content, "late") {
		t.Errorf("table created at version 5 should be filtered out under MinSchemaVersion 10:\n%s", out[0].Content)
	}

	out, err = gen.Generate(Input{Registries: reg, Options: Options{MinSchemaVersion: 1}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out[0].Content, "late") {
		t.Errorf("table created at version 5 should survive MinSchemaVersion 1:\n%s", out[0].Content)
	}
}

func TestSchemaSQLiteGeneratorFallsBackToRegistryDDLWithoutTree(t *testing.T) {
	gen := &SchemaSQLiteGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out[0].Content, "CREATE TABLE widgets") {
		t.Errorf("expected registry-driven DDL fallback, got:\n%s", out[0].Content)
	}
}

func TestJSONSchemaGeneratorProducesValidDocument(t *testing.T) {
	gen := &JSONSchemaGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var doc jsonDocument
	if err := json.Unmarshal([]byte(out[0].Content), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(doc.Tables) != 1 || doc.Tables[0].Name != "widgets" {
		t.Errorf("expected exactly the live table widgets, got %+v", doc.Tables)
	}
	if len(doc.Procs) != 1 || !doc.Procs[0].HasDML {
		t.Errorf("expected get_widget with HasDML=true, got %+v", doc.Procs)
	}
}

func TestTestHelpersGeneratorEmitsPopulateProcPerLiveTable(t *testing.T) {
	gen := &TestHelpersGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	content := out[0].Content
	if !strings.Contains(content, "PROC populate_widgets") {
		t.Errorf("missing populate_widgets proc:\n%s", content)
	}
	if strings.Contains(content, "populate_ghosts") {
		t.Errorf("should not seed a deleted table:\n%s", content)
	}
}

func TestQueryPlanGeneratorHandlesNilTree(t *testing.T) {
	gen := &QueryPlanGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out[0].Content != "" {
		t.Errorf("expected empty query plan output with no tree, got %q", out[0].Content)
	}
}

func TestStatsGeneratorCountsOnlyLiveTables(t *testing.T) {
	gen := &StatsGenerator{}
	out, err := gen.Generate(Input{Registries: fixtureRegistries()})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	content := out[0].Content
	if !strings.Contains(content, "tables: 1 (of 2 declared)") {
		t.Errorf("expected 1 live of 2 declared, got:\n%s", content)
	}
	if !strings.Contains(content, "procedures: 1") {
		t.Errorf("expected procedures: 1, got:\n%s", content)
	}
}

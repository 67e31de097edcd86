// Package backend implements the result-type code generators spec §4.6
// step 5 dispatches to: one module per `--rt` target, each consuming the
// same annotated AST the semantic analyzer produced.
package backend

import (
	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/regen"
	"github.com/cqllang/cqlc/internal/sem"
)

// Target names a selectable backend, matching spec §6.2's `--rt` values.
type Target string

const (
	TargetC            Target = "c"
	TargetObjC         Target = "objc"
	TargetLua          Target = "lua"
	TargetSchema       Target = "schema"
	TargetSchemaUpgrade Target = "schema_upgrade"
	TargetSchemaSQLite Target = "schema_sqlite"
	TargetJSONSchema   Target = "json_schema"
	TargetTestHelpers  Target = "test_helpers"
	TargetQueryPlan    Target = "query_plan"
	TargetStats        Target = "stats"
)

// Input bundles everything a generator needs: the analyzed tree, the
// schema registries built during semantic analysis, and output-tuning
// options (spec §6.2's backend-specific flags).
type Input struct {
	Tree       ast.Node
	Registries *sem.Registries
	Options    Options
}

// Options carries the subset of CLI flags that affect generated output,
// independent of which backend is selected (spec §6.2).
type Options struct {
	CIncludePath      string
	CIncludeNamespace string
	CQLRTHeader       string
	ObjCIncludePath   string
	Compress          bool
	GenerateExports   bool
	HideBuiltins      bool
	NoLines           bool
	Dev               bool
	Test              bool
	IncludeRegions    []string
	ExcludeRegions    []string
	MinSchemaVersion  int
}

// Output is one named output file a generator produces (most backends
// produce exactly one; the C backend can split header + body across two,
// matching `--cg <file> [<file> ...]`).
type Output struct {
	Name    string
	Content string
}

// Generator is the interface every result-type module implements. It
// mirrors the teacher's PipelineProvider shape — a narrow, single-purpose
// contract the driver depends on, with no backend-specific code leaking
// into the driver itself.
type Generator interface {
	// Name identifies this backend for diagnostics and --rt matching.
	Name() Target

	// Generate produces this backend's output file(s) from an analyzed
	// tree plus the registries the semantic pass built.
	Generate(in Input) ([]Output, error)
}

// Registry maps a Target name to the Generator that implements it.
type Registry map[Target]Generator

// NewRegistry returns a registry with every built-in backend wired in.
func NewRegistry() Registry {
	return Registry{
		TargetC:             &CGenerator{},
		TargetObjC:          &ObjCGenerator{},
		TargetLua:           &LuaGenerator{},
		TargetSchema:        &SchemaGenerator{},
		TargetSchemaUpgrade: &SchemaUpgradeGenerator{},
		TargetSchemaSQLite:  &SchemaSQLiteGenerator{},
		TargetJSONSchema:    &JSONSchemaGenerator{},
		TargetTestHelpers:   &TestHelpersGenerator{},
		TargetQueryPlan:     &QueryPlanGenerator{},
		TargetStats:         &StatsGenerator{},
	}
}

// renderTree is the one piece of rendering logic every textual backend
// shares: regenerate the analyzed tree back to SQL/expression text via
// internal/regen, under whatever Callbacks that backend supplies.
func renderTree(tree ast.Node, opts regen.Options) (string, error) {
	return regen.Print(tree, opts)
}

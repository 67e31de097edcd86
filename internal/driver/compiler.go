// Package driver owns the pass driver (spec §4.6): the Compiler context
// that holds every arena, registry, and flow stack a compile needs, and
// the six-step orchestration (open → parse → expand → analyze → generate
// → teardown) that strings internal/macro, internal/sem, and
// internal/backend together. Mirrors the teacher's
// internal/core.Pipeline.Apply numbered-step structure, but the steps
// here are the ones spec §4.6 names, not the teacher's own.
package driver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/backend"
	"github.com/cqllang/cqlc/internal/cqlerr"
	"github.com/cqllang/cqlc/internal/macro"
	"github.com/cqllang/cqlc/internal/regen"
	"github.com/cqllang/cqlc/internal/sem"
	"github.com/cqllang/cqlc/internal/symtab"
)

// Options mirrors the CLI surface of spec §6.2. cmd/cqlc populates this
// from pflag; tests and library callers build it directly.
type Options struct {
	InputFile    string
	IncludePaths []string          // --include_paths, searched by ResolveInclude when InputFile isn't found as-is
	Defines      map[string]string // -D name[=value]

	ExpandOnly bool // --expand: stop after macro expansion
	Semantic   bool // --semantic: stop after semantic analysis, no codegen

	ResultType backend.Target // --rt
	Backend    backend.Options
	OutputDir  string // --out_dir, directory generated output files are written to

	SchemaExclusive bool // --schema_exclusive: analyze only create_table_stmt, skip procs entirely
	RunUnitTests    bool // --run_unit_tests: also emit the test_helpers output alongside --rt's own

	PrintAST bool // --print_ast
	PrintDot bool // --print_dot
}

// Result is everything a caller (CLI or test) might want out of a
// compile: the annotated tree, the final registries, any diagnostics
// collected across every pass, and the generated output files (empty if
// generation was skipped).
type Result struct {
	Tree        ast.Node
	Registries  *sem.Registries
	Diagnostics []cqlerr.Diagnostic
	Outputs     []backend.Output
}

// Ok reports whether every diagnostic collected across every pass was a
// warning, not an error — the condition spec §4.6 step 4 gates "exit with
// a distinct code" on.
func (r *Result) Ok() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == cqlerr.SeverityError {
			return false
		}
	}
	return true
}

// Compiler is the single mutable-state struct spec §5 calls for: "every
// statically-mutable piece must be reset" becomes, here, "there is no
// package-level mutable state to reset — construct a fresh Compiler per
// compile." Two arenas per spec §4.1 (one for the parsed/expanded tree,
// one reserved for any snapshot/previous-schema tree loaded alongside
// it) live as fields, never package globals.
type Compiler struct {
	Arena          *ast.Arena
	PreviousArena  *ast.Arena
	Macros         *macro.Registry
	Defines        *symtab.Table[bool]
	Registries     *sem.Registries
	Backends       backend.Registry
	Analyzer       *sem.Analyzer
	Expander       *macro.Expander
	Diagnostics    []cqlerr.Diagnostic
}

// New opens the arenas and registries for a single compile (spec §4.6
// step 1) and seeds the defines table from opts.Defines.
func New(opts Options) *Compiler {
	arena := ast.NewArena()
	defines := symtab.New[bool](nil)
	for name := range opts.Defines {
		defines.Insert(name, true)
	}
	registries := sem.NewRegistries()
	macros := macro.NewRegistry()

	c := &Compiler{
		Arena:         arena,
		PreviousArena: ast.NewArena(),
		Macros:        macros,
		Defines:       defines,
		Registries:    registries,
		Backends:      backend.NewRegistry(),
	}
	c.Expander = macro.NewExpander(arena, macros, defines, regen.EchoRegenerator{})
	c.Analyzer = sem.NewAnalyzer(arena, registries)
	return c
}

// Compile runs steps 2 through 5 of spec §4.6 over root, an already
// parsed raw AST (lexing/parsing is out of scope per spec §1 — Compile
// accepts the tree a caller's own parser produced) and tears down (step
// 6) before returning. root may be a scalar top-level statement or the
// head of a statement-list cons chain (sem.KindStmtList); both shapes are
// walked the same way AnalyzeStatement already walks them.
func (c *Compiler) Compile(root ast.Node, opts Options) (*Result, error) {
	defer c.teardown()

	// Step 2 (parse) already happened before Compile was called; root is
	// its result. Step 3: macro expansion.
	expanded, err := c.Expander.Expand(root)
	if err != nil {
		return nil, fmt.Errorf("driver: macro expansion: %w", err)
	}
	if !c.Expander.Ok() {
		c.Diagnostics = append(c.Diagnostics, c.Expander.Diags...)
		return &Result{Tree: expanded, Registries: c.Registries, Diagnostics: c.Diagnostics}, nil
	}

	if opts.ExpandOnly {
		return &Result{Tree: expanded, Registries: c.Registries, Diagnostics: c.Diagnostics}, nil
	}

	// Step 4: semantic analysis, one statement at a time in source
	// (lexical) order, exactly the order AST construction produced them
	// in (spec §5 "AST construction order is lexical"). --schema_exclusive
	// narrows this to table declarations only, so a caller that only wants
	// schema facts isn't paying for proc analysis it will throw away.
	for _, stmt := range topLevelStatements(expanded) {
		if opts.SchemaExclusive && stmt.Kind() != sem.KindCreateTable {
			continue
		}
		c.Analyzer.AnalyzeStatement(stmt)
	}
	c.Diagnostics = append(c.Diagnostics, c.Analyzer.Diags...)
	if !c.Analyzer.Ok() {
		return &Result{Tree: expanded, Registries: c.Registries, Diagnostics: c.Diagnostics}, nil
	}

	result := &Result{Tree: expanded, Registries: c.Registries, Diagnostics: c.Diagnostics}
	if opts.Semantic {
		return result, nil
	}

	// Step 5: dispatch to the selected backend(s).
	outputs, err := c.generate(expanded, opts)
	if err != nil {
		return result, fmt.Errorf("driver: code generation: %w", err)
	}
	result.Outputs = outputs
	return result, nil
}

// generate dispatches to every backend named by opts.ResultType. A
// schema_exclusive run (opts.Backend carries no tree-dependent target)
// still receives the tree, since schema_sqlite and query_plan read it
// directly.
func (c *Compiler) generate(tree ast.Node, opts Options) ([]backend.Output, error) {
	gen, ok := c.Backends[opts.ResultType]
	if !ok {
		return nil, fmt.Errorf("driver: unknown result type %q", opts.ResultType)
	}
	outputs, err := gen.Generate(backend.Input{
		Tree:       tree,
		Registries: c.Registries,
		Options:    opts.Backend,
	})
	if err != nil {
		return nil, err
	}

	if opts.RunUnitTests && opts.ResultType != backend.TargetTestHelpers {
		testGen := c.Backends[backend.TargetTestHelpers]
		testOutputs, err := testGen.Generate(backend.Input{
			Tree:       tree,
			Registries: c.Registries,
			Options:    opts.Backend,
		})
		if err != nil {
			return nil, fmt.Errorf("driver: generating test helpers for --run_unit_tests: %w", err)
		}
		outputs = append(outputs, testOutputs...)
	}
	return outputs, nil
}

// teardown releases the arenas (spec §4.6 step 6, spec §5 "re-initialized
// at the top of compile()"). A Compiler is single-use; callers that need
// to compile again construct a fresh one via New.
func (c *Compiler) teardown() {
	c.Arena.Reset()
	c.PreviousArena.Reset()
}

// topLevelStatements flattens a possibly-list-shaped root into the
// ordered slice of top-level statements the analyzer dispatches over.
// Mirrors sem.ConsListToSlice's cons-chain walk, but also accepts a bare
// scalar root (a single top-level statement, the common case in tests).
func topLevelStatements(root ast.Node) []ast.Node {
	if interior, ok := root.(*ast.Interior); ok && interior.Kind() == sem.KindStmtList {
		return sem.ConsListToSlice(root)
	}
	return []ast.Node{root}
}

// Cleanup is the named reset-on-init entry point spec §5 requires every
// subsystem to expose ("every subsystem exposes a cleanup() entry
// point"), for amalgam-mode callers that keep a Compiler around and want
// to explicitly release it without going through Compile.
func (c *Compiler) Cleanup() { c.teardown() }

// ParseDefines turns a repeated `-D name[=value]` flag slice into the map
// New expects, the way the teacher parses its own repeated
// `--include`/`--exclude` flag slices in cmd/morfx/main.go.
func ParseDefines(flags []string) map[string]string {
	defines := make(map[string]string, len(flags))
	for _, f := range flags {
		name, value, found := strings.Cut(f, "=")
		if !found {
			defines[name] = ""
			continue
		}
		defines[name] = value
	}
	return defines
}

// ParseIncludePaths splits a `;`-joined --include_paths value, the way
// the teacher splits its own `;`-joined extension lists.
func ParseIncludePaths(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ";")
}

// ParseRegionList splits a comma-joined --include_regions/--exclude_regions
// value and sorts it for deterministic downstream filtering.
func ParseRegionList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	sort.Strings(parts)
	return parts
}

package sem

import (
	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/symtab"
)

// TableDef is the registered shape of a create-table statement: enough to
// compute a struct pointer, key/value column splits, and a type hash.
type TableDef struct {
	Name       string
	Columns    []ColumnDef
	Deleted    bool // true once its @DELETE annotation has fired; kept for CTE-shadowing
	Versioning SchemaVersioning
}

// ColumnDef is one column of a table, view, or cursor shape.
type ColumnDef struct {
	Name    string
	Type    ast.CoreType
	NotNull bool
	Kind    string
	PK      bool
	Unique  bool
}

// ViewDef, IndexDef, TriggerDef register enough to satisfy name resolution
// and CTE-shadowing; this module's analyses do not need their full bodies.
type ViewDef struct {
	Name    string
	Columns []ColumnDef
}

type IndexDef struct {
	Name      string
	TableName string
	Columns   []string
}

type TriggerDef struct {
	Name      string
	TableName string
}

// ProcDef is a registered procedure: formal parameters plus an inferred
// result shape (nil if the proc returns nothing).
type ProcDef struct {
	Name    string
	Formals []ColumnDef
	Result  *Struct
	HasDML  bool
	CanThrow bool
}

// FuncDef is a registered scalar or table-valued function declaration.
type FuncDef struct {
	Name       string
	Formals    []ColumnDef
	ReturnType ast.CoreType
	ReturnKind string
	TableValued bool
}

// Struct mirrors ast.Struct but lives in the registry layer so analyses
// can build one before a node exists to hang it on.
type Struct = ast.Struct

// RegionDef is a schema region with its transitive parent closure.
type RegionDef struct {
	Name    string
	Parents []string // transitive closure, computed at registration time
}

// VariableGroupDef is a `@group name BEGIN ... END` declaration.
type VariableGroupDef struct {
	Name string
	Vars []ColumnDef
}

// Registries bundles every process-wide, case-insensitive schema map spec
// §3.3 names, plus the auxiliary bookkeeping §3.3/§4.4.4 requires
// (notnull-improvements, ad-hoc migrations, recreate-group dependencies).
// All are built incrementally as top-level statements are analyzed.
type Registries struct {
	Tables         *symtab.Table[*TableDef]
	Views          *symtab.Table[*ViewDef]
	Indices        *symtab.Table[*IndexDef]
	Triggers       *symtab.Table[*TriggerDef]
	Procs          *symtab.Table[*ProcDef]
	Funcs          *symtab.Table[*FuncDef]
	Enums          *symtab.Table[[]string]
	Consts         *symtab.Table[ast.CoreType]
	NamedTypes     *symtab.Table[ColumnDef]
	Regions        *symtab.Table[*RegionDef]
	VariableGroups *symtab.Table[*VariableGroupDef]

	// NotNullImprovements is the global record of cql_inferred_notnull
	// rewrites performed (spec §4.4.5), keyed by the expression's rendered
	// text, so codegen backends can recognize them.
	NotNullImprovements *symtab.Table[bool]

	AdHocMigrations *symtab.Table[AdHocMigration]

	RecreateGroups *RecreateGraph
}

// NewRegistries returns an empty set of registries.
func NewRegistries() *Registries {
	return &Registries{
		Tables:              symtab.New[*TableDef](nil),
		Views:               symtab.New[*ViewDef](nil),
		Indices:             symtab.New[*IndexDef](nil),
		Triggers:            symtab.New[*TriggerDef](nil),
		Procs:               symtab.New[*ProcDef](nil),
		Funcs:               symtab.New[*FuncDef](nil),
		Enums:               symtab.New[[]string](nil),
		Consts:              symtab.New[ast.CoreType](nil),
		NamedTypes:          symtab.New[ColumnDef](nil),
		Regions:             symtab.New[*RegionDef](nil),
		VariableGroups:      symtab.New[*VariableGroupDef](nil),
		NotNullImprovements: symtab.New[bool](nil),
		AdHocMigrations:     symtab.New[AdHocMigration](nil),
		RecreateGroups:      NewRecreateGraph(),
	}
}

// AdHocMigration is one `@schema_ad_hoc_migration(version, proc_name)`
// entry.
type AdHocMigration struct {
	Version  int
	ProcName string
}

// RecreateGraph tracks @RECREATE group membership and the dependency
// edges between groups (group A depends on group B if any of A's tables
// references one of B's tables by foreign key).
type RecreateGraph struct {
	groupOf map[string]string   // table name -> group name
	edges   map[string]map[string]bool
}

// NewRecreateGraph returns an empty graph.
func NewRecreateGraph() *RecreateGraph {
	return &RecreateGraph{groupOf: map[string]string{}, edges: map[string]map[string]bool{}}
}

// AddTable records that table belongs to group (group may be "" for the
// default ungrouped recreate bucket, which is its own implicit group per
// table).
func (g *RecreateGraph) AddTable(table, group string) {
	if group == "" {
		group = "$" + table
	}
	g.groupOf[table] = group
}

// AddDependency records that fromTable's group depends on toTable's group,
// because fromTable has an FK referencing toTable.
func (g *RecreateGraph) AddDependency(fromTable, toTable string) {
	fromGroup := g.groupOf[fromTable]
	toGroup := g.groupOf[toTable]
	if fromGroup == "" || toGroup == "" || fromGroup == toGroup {
		return
	}
	if g.edges[fromGroup] == nil {
		g.edges[fromGroup] = map[string]bool{}
	}
	g.edges[fromGroup][toGroup] = true
}

// DependsOn reports whether group a (transitively) depends on group b.
func (g *RecreateGraph) DependsOn(a, b string) bool {
	visited := map[string]bool{}
	var visit func(string) bool
	visit = func(cur string) bool {
		if cur == b {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for next := range g.edges[cur] {
			if visit(next) {
				return true
			}
		}
		return false
	}
	return visit(a)
}

// Package regen implements the SQL/source regenerator (spec component
// C5): a pure function over an annotated AST that writes text into a
// buffer, parameterized by a callback vector so the same tree can be
// rendered three ways — diagnostic echo, SQLite-ready codegen, or
// re-emitted CQL source for derived artifacts.
package regen

import "github.com/cqllang/cqlc/internal/ast"

// Callbacks is the regenerator's hook vector. Spec §4.5 describes this as
// a "struct of function pointers with void* context" in the original;
// following Design Notes §9, it is modeled here as an interface, the same
// choice the teacher makes for its pluggable LanguageProvider. Each hook
// gets first refusal on a node: returning handled=true means the hook
// already wrote whatever it wanted and the default printer must not also
// print that node.
type Callbacks interface {
	// Variables replaces a variable reference with a bind placeholder ("?")
	// and records the variable for later binding.
	Variables(node ast.Node, p *Printer) (handled bool, err error)
	// Star expands "*"/"T.*" into an explicit column list using sem info.
	Star(node ast.Node, p *Printer) (handled bool, err error)
	// SetKind suppresses or rewrites a "<kind>" phantom-type annotation.
	SetKind(node ast.Node, p *Printer) (handled bool, err error)
	// CTESuppress drops a CTE body that is really an argument to a shared
	// fragment call rather than real SQL.
	CTESuppress(node ast.Node, p *Printer) (handled bool, err error)
	// CTEProc inlines a shared fragment's body in place of its CTE.
	CTEProc(node ast.Node, p *Printer) (handled bool, err error)
	// TableRename rewrites table or column names, used while expanding a
	// shared fragment under an alias.
	TableRename(node ast.Node, p *Printer) (handled bool, err error)
	// Func inlines an expression-fragment function call.
	Func(node ast.Node, p *Printer) (handled bool, err error)
	// IfStmt, IfNotExists, NamedType, ColDef selectively suppress or
	// rewrite various declarations depending on target mode.
	IfStmt(node ast.Node, p *Printer) (handled bool, err error)
	IfNotExists(node ast.Node, p *Printer) (handled bool, err error)
	NamedType(node ast.Node, p *Printer) (handled bool, err error)
	ColDef(node ast.Node, p *Printer) (handled bool, err error)
}

// BaseCallbacks implements Callbacks with every hook declining to handle
// its node (handled=false). Embed it and override only the hooks a given
// mode actually needs — the same "embed the no-op, override what you use"
// shape as teacher's BaseProvider.
type BaseCallbacks struct{}

func (BaseCallbacks) Variables(ast.Node, *Printer) (bool, error)   { return false, nil }
func (BaseCallbacks) Star(ast.Node, *Printer) (bool, error)        { return false, nil }
func (BaseCallbacks) SetKind(ast.Node, *Printer) (bool, error)     { return false, nil }
func (BaseCallbacks) CTESuppress(ast.Node, *Printer) (bool, error) { return false, nil }
func (BaseCallbacks) CTEProc(ast.Node, *Printer) (bool, error)     { return false, nil }
func (BaseCallbacks) TableRename(ast.Node, *Printer) (bool, error) { return false, nil }
func (BaseCallbacks) Func(ast.Node, *Printer) (bool, error)        { return false, nil }
func (BaseCallbacks) IfStmt(ast.Node, *Printer) (bool, error)      { return false, nil }
func (BaseCallbacks) IfNotExists(ast.Node, *Printer) (bool, error) { return false, nil }
func (BaseCallbacks) NamedType(ast.Node, *Printer) (bool, error)   { return false, nil }
func (BaseCallbacks) ColDef(ast.Node, *Printer) (bool, error)      { return false, nil }

// Mode selects the overall rendering target.
type Mode int

const (
	ModeEcho          Mode = iota // diagnostics: preserve source form exactly
	ModeNoAnnotations             // strip CQL-only annotations, keep kinds
	ModeSQLite                    // strip kinds and annotations, minify for embedding
)

// Options configures one regeneration pass.
type Options struct {
	Mode          Mode
	Callbacks     Callbacks
	MinifyAliases bool
	MinifyCasts   bool
	ConvertHex    bool
	LongToIntConv bool
}

// echoCallbacks is the zero-configuration callback vector used for
// diagnostic echo and by internal/macro's @TEXT/@ID, where every hook
// declines and the default printer renders the node as written.
type echoCallbacks struct{ BaseCallbacks }

// DefaultOptions returns the echo-mode configuration used for diagnostics
// and for macro.Regenerator.Text.
func DefaultOptions() Options {
	return Options{Mode: ModeEcho, Callbacks: echoCallbacks{}}
}

// Package macro implements the hygienic, typed macro preprocessor (spec
// component C3): macro definitions of six kinds, argument binding via
// per-expansion frames, scalar and list splice, and the @TEXT/@ID/
// @MACRO_LINE/@MACRO_FILE/@IFDEF builtins.
//
// Macro bodies and references live in the same ast.Arena as everything
// else; this package only adds the AST kinds and the expansion engine that
// interpret them. A parser producing `@MACRO(...) name!(...) BEGIN ... END`
// textual syntax is out of scope (spec §1) — callers build Def and
// reference nodes directly, the way a parser would.
package macro

import (
	"fmt"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/symtab"
)

// Kind is one of the six macro kinds. Each corresponds to one grammatical
// non-terminal; a macro can only be invoked in a position where that
// non-terminal is expected.
type Kind string

const (
	KindExpr       Kind = "expr"
	KindStmtList   Kind = "stmt_list"
	KindQueryParts Kind = "query_parts"
	KindCTETables  Kind = "cte_tables"
	KindSelectCore Kind = "select_core"
	KindSelectExpr Kind = "select_expr"
)

// IsList reports whether values of this kind are spliced as a list into a
// surrounding list position, rather than replacing a single node.
func (k Kind) IsList() bool {
	switch k {
	case KindStmtList, KindQueryParts, KindCTETables:
		return true
	default:
		return false
	}
}

// Valid reports whether k is one of the six recognized macro kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindExpr, KindStmtList, KindQueryParts, KindCTETables, KindSelectCore, KindSelectExpr:
		return true
	default:
		return false
	}
}

// Formal is one formal parameter of a macro definition.
type Formal struct {
	Name string
	Kind Kind
}

// Def is a macro definition: `@MACRO(KIND) name!(formal1! kind1, ...)
// BEGIN body END`. Name is stored without its trailing "!".
type Def struct {
	Name    string
	Kind    Kind
	Formals []Formal
	Body    ast.Node
	Loc     ast.Loc
}

// AST kinds this package adds to the shared ast.Node sum type. These are
// opaque ast.Kind string values; only this package's expander interprets
// them, the way any other compiler pass owns its own vocabulary of kinds.
const (
	RefKind           ast.Kind = "macro_ref"
	ArgRefKind        ast.Kind = "macro_arg_ref"
	ConsKind          ast.Kind = "macro_list_cons"
	TextKind          ast.Kind = "macro_text"
	IDKind            ast.Kind = "macro_id"
	LineKind          ast.Kind = "macro_line"
	FileKind          ast.Kind = "macro_file"
	IfdefKind         ast.Kind = "macro_ifdef"
	IfdefBranchesKind ast.Kind = "macro_ifdef_branches"
)

// NewCons builds a right-linked list of the given items as Interior nodes
// of kind ConsKind (Left = item, Right = rest). Returns nil for an empty
// slice — an empty list is represented as a nil Node, not a sentinel cons.
func NewCons(a *ast.Arena, loc ast.Loc, items []ast.Node) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	var tail ast.Node
	for i := len(items) - 1; i >= 0; i-- {
		cons, err := a.NewNode(ConsKind, items[i], tail)
		if err != nil {
			return nil, err
		}
		tail = cons
	}
	return tail, nil
}

// ConsToSlice flattens a ConsKind-headed list back into a slice, in order.
// A nil head yields an empty slice.
func ConsToSlice(head ast.Node) []ast.Node {
	var out []ast.Node
	for cur := head; cur != nil; {
		interior, ok := cur.(*ast.Interior)
		if !ok || interior.Kind() != ConsKind {
			// A malformed or non-list node terminates the walk; callers that
			// need strict validation should check ast kinds themselves.
			break
		}
		out = append(out, interior.Left)
		cur = interior.Right
	}
	return out
}

// NewRef builds a macro-ref node: name(args...). name is stored without
// its trailing "!".
func NewRef(a *ast.Arena, loc ast.Loc, name string, args []ast.Node) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	nameLeaf, err := a.NewStrLeaf(ast.StrIdentifier, name)
	if err != nil {
		return nil, err
	}
	argsHead, err := NewCons(a, loc, args)
	if err != nil {
		return nil, err
	}
	return a.NewNode(RefKind, nameLeaf, argsHead)
}

// RefName extracts the macro name from a RefKind node.
func RefName(n ast.Node) (string, bool) {
	interior, ok := n.(*ast.Interior)
	if !ok || interior.Kind() != RefKind {
		return "", false
	}
	nameLeaf, ok := interior.Left.(*ast.StrLit)
	if !ok {
		return "", false
	}
	return nameLeaf.Text, true
}

// RefArgs extracts the argument list from a RefKind node.
func RefArgs(n ast.Node) []ast.Node {
	interior, ok := n.(*ast.Interior)
	if !ok || interior.Kind() != RefKind {
		return nil
	}
	return ConsToSlice(interior.Right)
}

// NewArgRef builds a reference to formal parameter name, legal only inside
// a macro body.
func NewArgRef(a *ast.Arena, loc ast.Loc, name string) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	nameLeaf, err := a.NewStrLeaf(ast.StrIdentifier, name)
	if err != nil {
		return nil, err
	}
	return a.NewNode(ArgRefKind, nameLeaf, nil)
}

// ArgRefName extracts the formal name from an ArgRefKind node.
func ArgRefName(n ast.Node) (string, bool) {
	interior, ok := n.(*ast.Interior)
	if !ok || interior.Kind() != ArgRefKind {
		return "", false
	}
	nameLeaf, ok := interior.Left.(*ast.StrLit)
	if !ok {
		return "", false
	}
	return nameLeaf.Text, true
}

// NewText builds an @TEXT(arg1, arg2, ...) builtin-call node.
func NewText(a *ast.Arena, loc ast.Loc, args []ast.Node) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	head, err := NewCons(a, loc, args)
	if err != nil {
		return nil, err
	}
	return a.NewNode(TextKind, head, nil)
}

// NewID builds an @ID(arg) builtin-call node.
func NewID(a *ast.Arena, loc ast.Loc, arg ast.Node) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	return a.NewNode(IDKind, arg, nil)
}

// NewMacroLine builds an @MACRO_LINE reference node.
func NewMacroLine(a *ast.Arena, loc ast.Loc) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	return a.NewNode(LineKind, nil, nil)
}

// NewMacroFile builds an @MACRO_FILE reference node.
func NewMacroFile(a *ast.Arena, loc ast.Loc) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	return a.NewNode(FileKind, nil, nil)
}

// NewIfdef builds an @IFDEF name ... @ELSE ... @ENDIF node. Either branch
// may be empty.
func NewIfdef(a *ast.Arena, loc ast.Loc, name string, thenList, elseList []ast.Node) (ast.Node, error) {
	a.SetPos(loc.File, loc.Line)
	nameLeaf, err := a.NewStrLeaf(ast.StrIdentifier, name)
	if err != nil {
		return nil, err
	}
	thenHead, err := NewCons(a, loc, thenList)
	if err != nil {
		return nil, err
	}
	elseHead, err := NewCons(a, loc, elseList)
	if err != nil {
		return nil, err
	}
	branches, err := a.NewNode(IfdefBranchesKind, thenHead, elseHead)
	if err != nil {
		return nil, err
	}
	return a.NewNode(IfdefKind, nameLeaf, branches)
}

// Registry is a case-insensitive table of macro definitions, keyed by
// name (without the trailing "!").
type Registry = symtab.Table[*Def]

// NewRegistry returns an empty macro registry.
func NewRegistry() *Registry { return symtab.New[*Def](nil) }

// errMisplaced formats the "used in the wrong grammatical position" error.
func errMisplaced(name string, want, got Kind) error {
	return fmt.Errorf("macro %q!: expected %s position, got %s", name, want, got)
}

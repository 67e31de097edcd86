package macro

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/symtab"
)

func setup(t *testing.T) (*ast.Arena, ast.Loc) {
	t.Helper()
	a := ast.NewArena()
	loc := ast.Loc{File: "t.sql", Line: 1}
	a.SetPos(loc.File, loc.Line)
	return a, loc
}

// TestExprMacroExpansion covers spec §8 scenario: "@macro(expr) inc!(e!
// expr) begin e! + 1 end; select inc!(5);" expands to "5 + 1".
func TestExprMacroExpansion(t *testing.T) {
	a, loc := setup(t)

	argRef, err := NewArgRef(a, loc, "e")
	require.NoError(t, err)
	one, err := a.NewNumLeaf(ast.NumInt32, "1")
	require.NoError(t, err)
	body, err := a.NewNode(ast.Kind("add"), argRef, one)
	require.NoError(t, err)

	def := &Def{
		Name:    "inc",
		Kind:    KindExpr,
		Formals: []Formal{{Name: "e", Kind: KindExpr}},
		Body:    body,
		Loc:     loc,
	}
	macros := NewRegistry()
	macros.Insert("inc", def)

	five, err := a.NewNumLeaf(ast.NumInt32, "5")
	require.NoError(t, err)
	ref, err := NewRef(a, loc, "inc", []ast.Node{five})
	require.NoError(t, err)

	exp := NewExpander(a, macros, symtab.New[bool](nil), nil)
	result, err := exp.Expand(ref)
	require.NoError(t, err)
	require.True(t, exp.Ok(), "%v", exp.Diags)

	add := result.(*ast.Interior)
	require.Equal(t, ast.Kind("add"), add.Kind())
	require.Equal(t, "5", add.Left.(*ast.NumLit).Text)
	require.Equal(t, "1", add.Right.(*ast.NumLit).Text)
	require.NoError(t, ast.CheckParentLinks(result))
}

func TestMacroUndefinedProducesDiagnostic(t *testing.T) {
	a, loc := setup(t)
	ref, err := NewRef(a, loc, "nope", nil)
	require.NoError(t, err)

	exp := NewExpander(a, NewRegistry(), symtab.New[bool](nil), nil)
	_, err = exp.Expand(ref)
	require.NoError(t, err)
	require.False(t, exp.Ok())
	require.Contains(t, exp.Diags[0].Error(), "undefined macro")
}

func TestMacroArityMismatch(t *testing.T) {
	a, loc := setup(t)
	body, err := a.NewIntLeaf(1)
	require.NoError(t, err)
	def := &Def{Name: "m", Kind: KindExpr, Formals: []Formal{{Name: "x", Kind: KindExpr}}, Body: body, Loc: loc}
	macros := NewRegistry()
	macros.Insert("m", def)

	ref, err := NewRef(a, loc, "m", nil) // zero args, one formal expected
	require.NoError(t, err)

	exp := NewExpander(a, macros, symtab.New[bool](nil), nil)
	_, err = exp.Expand(ref)
	require.NoError(t, err)
	require.False(t, exp.Ok())
	require.Contains(t, exp.Diags[0].Error(), "argument(s)")
}

func TestListMacroSplice(t *testing.T) {
	a, loc := setup(t)

	argRef, err := NewArgRef(a, loc, "items")
	require.NoError(t, err)
	// Body is itself just the list-formal reference: the whole statement
	// list passed in splices directly into the call site.
	def := &Def{
		Name:    "wrap",
		Kind:    KindStmtList,
		Formals: []Formal{{Name: "items", Kind: KindStmtList}},
		Body:    argRef,
		Loc:     loc,
	}
	macros := NewRegistry()
	macros.Insert("wrap", def)

	s1, err := a.NewStrLeaf(ast.StrIdentifier, "s1")
	require.NoError(t, err)
	s2, err := a.NewStrLeaf(ast.StrIdentifier, "s2")
	require.NoError(t, err)
	argList, err := NewCons(a, loc, []ast.Node{s1, s2})
	require.NoError(t, err)

	ref, err := NewRef(a, loc, "wrap", []ast.Node{argList})
	require.NoError(t, err)

	before, err := a.NewStrLeaf(ast.StrIdentifier, "before")
	require.NoError(t, err)
	after, err := a.NewStrLeaf(ast.StrIdentifier, "after")
	require.NoError(t, err)
	stmtList, err := NewCons(a, loc, []ast.Node{before, ref, after})
	require.NoError(t, err)

	exp := NewExpander(a, macros, symtab.New[bool](nil), nil)
	result, err := exp.Expand(stmtList)
	require.NoError(t, err)
	require.True(t, exp.Ok(), "%v", exp.Diags)

	items := ConsToSlice(result)
	require.Len(t, items, 4)
	require.Equal(t, "before", items[0].(*ast.StrLit).Text)
	require.Equal(t, "s1", items[1].(*ast.StrLit).Text)
	require.Equal(t, "s2", items[2].(*ast.StrLit).Text)
	require.Equal(t, "after", items[3].(*ast.StrLit).Text)
	require.NoError(t, ast.CheckParentLinks(result))
}

func TestListMacroInScalarPositionIsMisplaced(t *testing.T) {
	a, loc := setup(t)
	body, err := a.NewIntLeaf(1)
	require.NoError(t, err)
	def := &Def{Name: "stmts", Kind: KindStmtList, Formals: nil, Body: body, Loc: loc}
	macros := NewRegistry()
	macros.Insert("stmts", def)

	ref, err := NewRef(a, loc, "stmts", nil)
	require.NoError(t, err)
	other, err := a.NewIntLeaf(2)
	require.NoError(t, err)
	wrapper, err := a.NewNode(ast.Kind("paren"), ref, other)
	require.NoError(t, err)

	exp := NewExpander(a, macros, symtab.New[bool](nil), nil)
	_, err = exp.Expand(wrapper)
	require.NoError(t, err)
	require.False(t, exp.Ok())
	require.Contains(t, exp.Diags[0].Error(), "scalar position")
}

func TestIfdefSelectsBranch(t *testing.T) {
	a, loc := setup(t)
	thenLeaf, err := a.NewStrLeaf(ast.StrIdentifier, "yes")
	require.NoError(t, err)
	elseLeaf, err := a.NewStrLeaf(ast.StrIdentifier, "no")
	require.NoError(t, err)
	ifdef, err := NewIfdef(a, loc, "FOO", []ast.Node{thenLeaf}, []ast.Node{elseLeaf})
	require.NoError(t, err)
	stmtList, err := NewCons(a, loc, []ast.Node{ifdef})
	require.NoError(t, err)

	defines := symtab.New[bool](nil)
	defines.Insert("FOO", true)

	exp := NewExpander(a, NewRegistry(), defines, nil)
	result, err := exp.Expand(stmtList)
	require.NoError(t, err)
	require.True(t, exp.Ok())

	items := ConsToSlice(result)
	require.Len(t, items, 1)
	require.Equal(t, "yes", items[0].(*ast.StrLit).Text)
}

func TestIfdefUndefinedTakesElseBranch(t *testing.T) {
	a, loc := setup(t)
	thenLeaf, err := a.NewStrLeaf(ast.StrIdentifier, "yes")
	require.NoError(t, err)
	elseLeaf, err := a.NewStrLeaf(ast.StrIdentifier, "no")
	require.NoError(t, err)
	ifdef, err := NewIfdef(a, loc, "FOO", []ast.Node{thenLeaf}, []ast.Node{elseLeaf})
	require.NoError(t, err)
	stmtList, err := NewCons(a, loc, []ast.Node{ifdef})
	require.NoError(t, err)

	exp := NewExpander(a, NewRegistry(), symtab.New[bool](nil), nil)
	result, err := exp.Expand(stmtList)
	require.NoError(t, err)

	items := ConsToSlice(result)
	require.Len(t, items, 1)
	require.Equal(t, "no", items[0].(*ast.StrLit).Text)
}

// TestExpansionIdempotentOnPlainTree covers testable property #4: expanding
// a tree with no macro references is a no-op.
func TestExpansionIdempotentOnPlainTree(t *testing.T) {
	a, loc := setup(t)
	leaf1, err := a.NewIntLeaf(1)
	require.NoError(t, err)
	leaf2, err := a.NewIntLeaf(2)
	require.NoError(t, err)
	root, err := a.NewNode(ast.Kind("plain"), leaf1, leaf2)
	require.NoError(t, err)

	exp := NewExpander(a, NewRegistry(), symtab.New[bool](nil), nil)
	result, err := exp.Expand(root)
	require.NoError(t, err)
	require.True(t, exp.Ok())
	require.Same(t, root, result)
	require.Equal(t, int32(1), result.(*ast.Interior).Left.(*ast.IntLit).Value)
	require.Equal(t, int32(2), result.(*ast.Interior).Right.(*ast.IntLit).Value)
}

type stubRegen struct{}

func (stubRegen) Text(node ast.Node) (string, error) {
	if id, ok := node.(*ast.StrLit); ok {
		return id.Text, nil
	}
	return "", nil
}

func TestTextBuiltinConcatenates(t *testing.T) {
	a, loc := setup(t)
	lit, err := a.NewStrLeaf(ast.StrSQLLiteral, "'hi '")
	require.NoError(t, err)
	ident, err := a.NewStrLeaf(ast.StrIdentifier, "foo")
	require.NoError(t, err)
	textCall, err := NewText(a, loc, []ast.Node{lit, ident})
	require.NoError(t, err)

	exp := NewExpander(a, NewRegistry(), symtab.New[bool](nil), stubRegen{})
	result, err := exp.Expand(textCall)
	require.NoError(t, err)
	require.True(t, exp.Ok())
	require.Equal(t, "'hi foo'", result.(*ast.StrLit).Text)
}

func TestIDBuiltinValidatesIdentifier(t *testing.T) {
	a, loc := setup(t)
	lit, err := a.NewStrLeaf(ast.StrSQLLiteral, "'not an id'")
	require.NoError(t, err)
	idCall, err := NewID(a, loc, lit)
	require.NoError(t, err)

	exp := NewExpander(a, NewRegistry(), symtab.New[bool](nil), nil)
	_, err = exp.Expand(idCall)
	require.NoError(t, err)
	require.False(t, exp.Ok())
	require.Contains(t, exp.Diags[0].Error(), "not a legal identifier")
}

func TestMacroLineFileResolveToOutermostCallSite(t *testing.T) {
	a, loc := setup(t)
	lineRef, err := NewMacroLine(a, loc)
	require.NoError(t, err)
	fileRef, err := NewMacroFile(a, loc)
	require.NoError(t, err)
	body, err := a.NewNode(ast.Kind("pair"), lineRef, fileRef)
	require.NoError(t, err)

	def := &Def{Name: "where_am_i", Kind: KindExpr, Formals: nil, Body: body, Loc: loc}
	macros := NewRegistry()
	macros.Insert("where_am_i", def)

	outerLoc := ast.Loc{File: "caller.sql", Line: 42}
	a.SetPos(outerLoc.File, outerLoc.Line)
	ref, err := NewRef(a, outerLoc, "where_am_i", nil)
	require.NoError(t, err)

	exp := NewExpander(a, macros, symtab.New[bool](nil), nil)
	result, err := exp.Expand(ref)
	require.NoError(t, err)
	require.True(t, exp.Ok(), "%v", exp.Diags)

	pair := result.(*ast.Interior)
	require.Equal(t, "42", pair.Left.(*ast.NumLit).Text)
	require.Equal(t, "'caller.sql'", pair.Right.(*ast.StrLit).Text)
}

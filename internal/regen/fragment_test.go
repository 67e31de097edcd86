package regen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqllang/cqlc/internal/ast"
)

func TestFragmentFuncInlinesScalarCallWithArgumentSubstitution(t *testing.T) {
	a := arena(t)

	// fragment double(n) => n + n
	formal, err := NewNameRef(a, "n")
	require.NoError(t, err)
	formal2, err := NewNameRef(a, "n")
	require.NoError(t, err)
	body, err := a.NewNode(KindAdd, formal, formal2)
	require.NoError(t, err)

	reg := NewFragmentRegistry()
	reg.Register(&Fragment{Name: "double", Formals: []string{"n"}, Body: body})

	five, _ := a.NewNumLeaf(ast.NumInt32, "5")
	call, err := NewFragmentCall(a, "double", []ast.Node{five})
	require.NoError(t, err)

	out, err := Print(call, Options{Mode: ModeSQLite, Callbacks: NewFragmentCallbacks(reg)})
	require.NoError(t, err)
	require.Equal(t, "5 + 5", out)
}

func TestFragmentCTEProcInlinesTableValuedFragment(t *testing.T) {
	a := arena(t)

	// fragment recent_orders(uid) => uid = uid
	formalLeft, err := NewNameRef(a, "uid")
	require.NoError(t, err)
	formalRight, err := NewNameRef(a, "uid")
	require.NoError(t, err)
	body, err := a.NewNode(KindEq, formalLeft, formalRight)
	require.NoError(t, err)

	reg := NewFragmentRegistry()
	reg.Register(&Fragment{Name: "recent_orders", Formals: []string{"uid"}, Body: body, TableValued: true})

	actualUID, _ := a.NewStrLeaf(ast.StrIdentifier, "42")
	call, err := NewFragmentCall(a, "recent_orders", []ast.Node{actualUID})
	require.NoError(t, err)
	cte, err := NewCTE(a, "ro", call)
	require.NoError(t, err)

	out, err := Print(cte, Options{Mode: ModeSQLite, Callbacks: NewFragmentCallbacks(reg)})
	require.NoError(t, err)
	require.Equal(t, "ro AS (42 = 42)", out)
}

func TestFragmentCTESuppressDropsArgBindingCTE(t *testing.T) {
	a := arena(t)
	cte, err := NewArgBindingCTE(a, "arg_table")
	require.NoError(t, err)

	out, err := Print(cte, Options{Mode: ModeSQLite, Callbacks: NewFragmentCallbacks(NewFragmentRegistry())})
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestFragmentFuncDeclinesTableValuedCall(t *testing.T) {
	a := arena(t)
	body, _ := a.NewNumLeaf(ast.NumInt32, "1")
	reg := NewFragmentRegistry()
	reg.Register(&Fragment{Name: "rows", Formals: nil, Body: body, TableValued: true})

	call, err := NewFragmentCall(a, "rows", nil)
	require.NoError(t, err)

	// With no CTE wrapper, Func declines (it's table-valued) and the call
	// falls through to the generic tagged rendering.
	out, err := Print(call, Options{Mode: ModeSQLite, Callbacks: NewFragmentCallbacks(reg)})
	require.NoError(t, err)
	require.Contains(t, out, "fragment_call")
}

func TestFragmentArityMismatchErrors(t *testing.T) {
	a := arena(t)
	body, _ := a.NewNumLeaf(ast.NumInt32, "1")
	reg := NewFragmentRegistry()
	reg.Register(&Fragment{Name: "needs_one", Formals: []string{"a"}, Body: body})

	call, err := NewFragmentCall(a, "needs_one", nil)
	require.NoError(t, err)

	_, err = Print(call, Options{Mode: ModeSQLite, Callbacks: NewFragmentCallbacks(reg)})
	require.Error(t, err)
}

package symtab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertIsCaseInsensitive(t *testing.T) {
	tbl := New[int](nil)
	require.True(t, tbl.Insert("Foo", 1))
	require.False(t, tbl.Insert("foo", 2), "duplicate insert under different case must fail")

	v, ok := tbl.Lookup("FOO")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestInsertionOrderPreserved(t *testing.T) {
	tbl := New[int](nil)
	tbl.Insert("c", 3)
	tbl.Insert("a", 1)
	tbl.Insert("b", 2)

	require.Equal(t, []string{"c", "a", "b"}, tbl.Keys())
}

func TestNestedScopeFallsThroughToParent(t *testing.T) {
	parent := New[string](nil)
	parent.Insert("x", "outer")
	child := New[string](parent)
	child.Insert("y", "inner")

	v, ok := child.Lookup("x")
	require.True(t, ok)
	require.Equal(t, "outer", v)

	_, ok = parent.Lookup("y")
	require.False(t, ok, "parent must not see child's names")
}

func TestShadowingDoesNotAffectParent(t *testing.T) {
	parent := New[string](nil)
	parent.Insert("x", "outer")
	child := New[string](parent)
	require.True(t, child.Insert("x", "inner"), "shadowing a parent name is legal")

	v, _ := child.Lookup("x")
	require.Equal(t, "inner", v)
	pv, _ := parent.Lookup("x")
	require.Equal(t, "outer", pv)
}

func TestLookupLocalIgnoresAncestors(t *testing.T) {
	parent := New[int](nil)
	parent.Insert("x", 1)
	child := New[int](parent)

	_, ok := child.LookupLocal("x")
	require.False(t, ok)
}

func TestCleanupRegistryLIFO(t *testing.T) {
	var order []int
	r := NewCleanupRegistry()
	r.Push(func() { order = append(order, 1) })
	r.Push(func() { order = append(order, 2) })
	r.Push(func() { order = append(order, 3) })

	r.Pop()
	require.Equal(t, []int{3}, order)
	r.Pop()
	r.Pop()
	require.Equal(t, []int{3, 2, 1}, order)
}

func TestCleanupRegistryPopTo(t *testing.T) {
	var order []int
	r := NewCleanupRegistry()
	r.Push(func() { order = append(order, 1) })
	mark := r.Mark()
	r.Push(func() { order = append(order, 2) })
	r.Push(func() { order = append(order, 3) })

	r.PopTo(mark)
	require.Equal(t, []int{3, 2}, order)
	require.Equal(t, mark, r.Mark())
}

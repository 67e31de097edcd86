package driver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/backend"
	"github.com/cqllang/cqlc/internal/sem"
)

func createTableStmt(t *testing.T, c *Compiler, table string) ast.Node {
	t.Helper()
	c.Arena.SetPos("t.sql", 1)
	idCol, err := sem.NewColDef(c.Arena, "id", ast.TypeInt64, true, true, false)
	require.NoError(t, err)
	nameCol, err := sem.NewColDef(c.Arena, "name", ast.TypeText, true, false, false)
	require.NoError(t, err)
	cols, err := sem.NewColDefList(c.Arena, []ast.Node{idCol, nameCol})
	require.NoError(t, err)
	tableName, err := c.Arena.NewStrLeaf(ast.StrIdentifier, table)
	require.NoError(t, err)
	stmt, err := c.Arena.NewNode(sem.KindCreateTable, tableName, cols)
	require.NoError(t, err)
	return stmt
}

func TestCompileRunsExpandAnalyzeAndGenerate(t *testing.T) {
	c := New(Options{})
	stmt := createTableStmt(t, c, "widgets")

	result, err := c.Compile(stmt, Options{ResultType: backend.TargetSchema})
	require.NoError(t, err)
	require.True(t, result.Ok(), "%v", result.Diagnostics)
	require.True(t, c.Registries.Tables.Has("widgets"))
	require.Len(t, result.Outputs, 1)
	require.Contains(t, result.Outputs[0].Content, "CREATE TABLE widgets")
}

func TestCompileExpandOnlySkipsSemanticAnalysis(t *testing.T) {
	c := New(Options{})
	stmt := createTableStmt(t, c, "widgets")

	result, err := c.Compile(stmt, Options{ExpandOnly: true})
	require.NoError(t, err)
	require.True(t, result.Ok())
	require.False(t, c.Registries.Tables.Has("widgets"), "expand-only must not run semantic analysis")
	require.Empty(t, result.Outputs)
}

func TestCompileSemanticOnlySkipsCodegen(t *testing.T) {
	c := New(Options{})
	stmt := createTableStmt(t, c, "widgets")

	result, err := c.Compile(stmt, Options{Semantic: true})
	require.NoError(t, err)
	require.True(t, result.Ok())
	require.True(t, c.Registries.Tables.Has("widgets"))
	require.Empty(t, result.Outputs, "semantic-only run must not dispatch to a backend")
}

func TestCompileReportsSemanticErrorsAndSkipsCodegen(t *testing.T) {
	c := New(Options{})
	c.Arena.SetPos("t.sql", 1)
	col1, err := sem.NewColDef(c.Arena, "a", ast.TypeInt32, true, true, false)
	require.NoError(t, err)
	col2, err := sem.NewColDef(c.Arena, "b", ast.TypeInt32, true, true, false)
	require.NoError(t, err)
	cols, err := sem.NewColDefList(c.Arena, []ast.Node{col1, col2})
	require.NoError(t, err)
	tableName, err := c.Arena.NewStrLeaf(ast.StrIdentifier, "dup")
	require.NoError(t, err)
	stmt, err := c.Arena.NewNode(sem.KindCreateTable, tableName, cols)
	require.NoError(t, err)

	result, err := c.Compile(stmt, Options{ResultType: backend.TargetSchema})
	require.NoError(t, err)
	require.False(t, result.Ok())
	require.Empty(t, result.Outputs)
}

func TestCompileRejectsUnknownResultType(t *testing.T) {
	c := New(Options{})
	stmt := createTableStmt(t, c, "widgets")

	_, err := c.Compile(stmt, Options{ResultType: backend.Target("nope")})
	require.Error(t, err)
}

func TestParseDefinesSplitsNameEqualsValue(t *testing.T) {
	defines := ParseDefines([]string{"DEBUG", "VERSION=3"})
	require.Equal(t, map[string]string{"DEBUG": "", "VERSION": "3"}, defines)
}

func TestParseIncludePathsSplitsOnSemicolon(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, ParseIncludePaths("a;b"))
	require.Nil(t, ParseIncludePaths(""))
}

func TestParseRegionListSortsAndSplitsOnComma(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, ParseRegionList("b,a"))
	require.Nil(t, ParseRegionList(""))
}

func TestCompileTearsDownArenaAfterCompletion(t *testing.T) {
	c := New(Options{})
	stmt := createTableStmt(t, c, "widgets")
	_, err := c.Compile(stmt, Options{Semantic: true})
	require.NoError(t, err)
	// Arena.Reset() drops every node, so the arena is empty after teardown;
	// allocating a fresh node must succeed rather than reuse freed state.
	c.Arena.SetPos("t2.sql", 1)
	_, err = c.Arena.NewIntLeaf(1)
	require.NoError(t, err)
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExportedNameTitleCasesEachSnakeCaseSegment(t *testing.T) {
	require.Equal(t, "SchemaUpgrade", exportedName("schema_upgrade"))
	require.Equal(t, "Lua", exportedName("lua"))
	require.Equal(t, "JsonSchema", exportedName("json_schema"))
}

func TestScaffoldGeneratorWritesParseableTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, scaffoldGenerator("widgets", dir))

	content, err := os.ReadFile(filepath.Join(dir, "widgets.go"))
	require.NoError(t, err)
	require.Contains(t, string(content), "type WidgetsGenerator struct{}")
	require.Contains(t, string(content), "TargetWidgets")
	require.Contains(t, string(content), `Name: "widgets.out"`)
}

func TestScaffoldGeneratorRejectsEmptyName(t *testing.T) {
	require.Error(t, scaffoldGenerator("", t.TempDir()))
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqllang/cqlc/internal/backend"
)

func TestBuildOptionsFromFlagsRequiresIn(t *testing.T) {
	_, _, err := buildOptionsFromFlags(nil)
	require.Error(t, err)
}

func TestBuildOptionsFromFlagsPopulatesDriverOptions(t *testing.T) {
	opts, dsn, err := buildOptionsFromFlags([]string{
		"--in", "widgets.sql",
		"--rt", "schema",
		"-D", "FEATURE_X",
		"-D", "LIMIT=10",
		"--include_regions", "b,a",
		"--previous_schema", "file:snapshot.db",
		"--dev",
		"--schema_exclusive",
	})
	require.NoError(t, err)
	require.Equal(t, "widgets.sql", opts.InputFile)
	require.Equal(t, backend.Target("schema"), opts.ResultType)
	require.Equal(t, "", opts.Defines["FEATURE_X"])
	require.Equal(t, "10", opts.Defines["LIMIT"])
	require.Equal(t, []string{"a", "b"}, opts.Backend.IncludeRegions)
	require.Equal(t, "file:snapshot.db", dsn)
	require.True(t, opts.Backend.Dev)
	require.True(t, opts.SchemaExclusive)
}

func TestBuildOptionsFromFlagsDefaultsResultTypeToSchema(t *testing.T) {
	opts, _, err := buildOptionsFromFlags([]string{"--in", "widgets.sql"})
	require.NoError(t, err)
	require.Equal(t, backend.Target("schema"), opts.ResultType)
}

func TestWriteOutputJoinsDirAndName(t *testing.T) {
	dir := t.TempDir()
	err := writeOutput(dir, backend.Output{Name: "widgets.h", Content: "// generated"})
	require.NoError(t, err)
	written, err := os.ReadFile(filepath.Join(dir, "widgets.h"))
	require.NoError(t, err)
	require.Equal(t, "// generated", string(written))
}

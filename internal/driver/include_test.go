package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveIncludeMatchesBasenamePattern(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.sql"), []byte("-- widgets"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.h"), []byte(""), 0o644))

	matches, err := ResolveInclude([]string{dir}, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "widgets.sql")}, matches)
}

func TestResolveIncludeFallsThroughSearchPaths(t *testing.T) {
	empty := t.TempDir()
	populated := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(populated, "schema.sql"), []byte(""), 0o644))

	matches, err := ResolveInclude([]string{empty, populated}, "schema.sql")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(populated, "schema.sql")}, matches)
}

func TestResolveIncludeErrorsWhenNothingMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := ResolveInclude([]string{dir}, "missing.sql")
	require.Error(t, err)
}

package driver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveInclude searches searchPaths (in order) for file(s) matching
// pattern, which may itself be a glob (`schema/*.sql`). Real `@include`
// expansion lives in the lexer/grammar (out of scope per spec §1) — this
// is the piece of include-path handling that *is* in scope once a caller
// has a bare pattern and wants it turned into real file paths. Matching
// is done the way the teacher's own FileWalker.matchPattern does it:
// doublestar.PathMatch against the full path, falling back to the
// basename for a pattern with no path separator.
func ResolveInclude(searchPaths []string, pattern string) ([]string, error) {
	for _, dir := range searchPaths {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		var matches []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if matchIncludePattern(path, pattern) {
				matches = append(matches, path)
			}
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return nil, fmt.Errorf("driver: no file matching %q found in any --include_paths entry", pattern)
}

func matchIncludePattern(path, pattern string) bool {
	if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if matched, err := doublestar.PathMatch(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}

package regen

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/cqllang/cqlc/internal/ast"
)

// EchoRegenerator adapts Print into internal/macro's Regenerator
// interface, used to implement @TEXT/@ID over non-literal arguments
// without internal/macro importing this package directly.
type EchoRegenerator struct{}

// Text renders node in echo mode, the form @TEXT/@ID need: source text as
// written, not SQLite-minified output.
func (EchoRegenerator) Text(node ast.Node) (string, error) {
	return Print(node, DefaultOptions())
}

// Diff renders a and b under the same options and returns a unified diff
// between the two, labelled previous_schema and current_schema, or "" when
// both render identically. It reuses the teacher's own diffing dependency.
// The --previous_schema path in cmd/cqlc does not call it.
func Diff(a, b ast.Node, opts Options) (string, error) {
	aText, err := Print(a, opts)
	if err != nil {
		return "", fmt.Errorf("regen: rendering previous schema: %w", err)
	}
	bText, err := Print(b, opts)
	if err != nil {
		return "", fmt.Errorf("regen: rendering current schema: %w", err)
	}
	if aText == bText {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(aText),
		B:        difflib.SplitLines(bText),
		FromFile: "previous_schema",
		ToFile:   "current_schema",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

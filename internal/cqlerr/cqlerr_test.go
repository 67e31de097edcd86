package cqlerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticErrorFormat(t *testing.T) {
	d := New(ErrUndefinedName, CodeUndefinedName, "proc.sql", 12, "select_stmt",
		"name not found").WithSubject("foo")

	assert.Equal(t, "proc.sql:12:1: error: [in select_stmt :] name not found ('foo')", d.Error())
}

func TestDiagnosticErrorFormatNoKindNoSubject(t *testing.T) {
	d := New(ErrMacroUndefined, CodeMacroUndefined, "m.sql", 3, "", "macro not defined")
	assert.Equal(t, "m.sql:3:1: error: macro not defined", d.Error())
}

func TestDiagnosticWithTrace(t *testing.T) {
	d := New(ErrMacroArity, CodeMacroArity, "a.sql", 1, "", "wrong number of arguments").
		WithTrace([]Frame{
			{MacroName: "inner", File: "a.sql", Line: 5},
			{MacroName: "outer", File: "a.sql", Line: 1},
		})

	want := "a.sql:1:1: error: wrong number of arguments" +
		"\n -> in 'inner!' at a.sql:5" +
		"\n -> in 'outer!' at a.sql:1"
	assert.Equal(t, want, d.Error())
}

func TestDiagnosticUnwrap(t *testing.T) {
	d := New(ErrTypeMismatch, CodeTypeMismatch, "x.sql", 1, "", "bad type")
	require.True(t, errors.Is(d, ErrTypeMismatch))
	require.False(t, errors.Is(d, ErrUndefinedName))
}

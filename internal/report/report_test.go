package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cqllang/cqlc/internal/cqlerr"
)

func diag(file string, line int, msg string) cqlerr.Diagnostic {
	return cqlerr.New(errors.New(msg), cqlerr.CodeUndefinedName, file, line, "select_stmt", msg)
}

func TestCollectorHasErrorsAndExitCode(t *testing.T) {
	var c Collector
	require.False(t, c.HasErrors())
	require.Equal(t, 0, c.ExitCode())

	c.Add(diag("a.sql", 1, "boom"))
	require.True(t, c.HasErrors())
	require.Equal(t, 1, c.ExitCode())
}

func TestGroupsOrdersByFileThenLineAndKeepsInsertionOrderWithinGroup(t *testing.T) {
	diags := []cqlerr.Diagnostic{
		diag("b.sql", 5, "first at b:5"),
		diag("a.sql", 10, "first at a:10"),
		diag("a.sql", 2, "at a:2"),
		diag("a.sql", 10, "second at a:10"),
	}
	groups := Groups(diags)
	require.Len(t, groups, 3)
	require.Equal(t, "a.sql", groups[0].File)
	require.Equal(t, 2, groups[0].Line)
	require.Equal(t, "a.sql", groups[1].File)
	require.Equal(t, 10, groups[1].Line)
	require.Len(t, groups[1].Diagnostics, 2)
	require.Equal(t, "first at a:10", groups[1].Diagnostics[0].Message)
	require.Equal(t, "second at a:10", groups[1].Diagnostics[1].Message)
	require.Equal(t, "b.sql", groups[2].File)
}

func TestPrinterCLIModeGroupsWithBlankLineBetweenStatements(t *testing.T) {
	diags := []cqlerr.Diagnostic{
		diag("a.sql", 1, "first"),
		diag("a.sql", 1, "second"),
		diag("b.sql", 1, "third"),
	}
	var buf bytes.Buffer
	require.NoError(t, Printer{}.Print(&buf, diags))
	out := buf.String()
	require.Contains(t, out, "first")
	require.Contains(t, out, "second")
	require.Contains(t, out, "third")
	// exactly one blank line separates the two statement groups
	require.Equal(t, 1, strings.Count(out, "\n\n"))
}

func TestPrinterJSONModeEmitsArray(t *testing.T) {
	diags := []cqlerr.Diagnostic{diag("a.sql", 1, "boom")}
	var buf bytes.Buffer
	require.NoError(t, Printer{JSON: true}.Print(&buf, diags))
	require.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "["))
	require.Contains(t, buf.String(), "boom")
}

func TestPrinterPrintFatalCLIAndJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Printer{}.PrintFatal(&buf, errors.New("parse failed")))
	require.Equal(t, "Error: parse failed\n", buf.String())

	buf.Reset()
	require.NoError(t, Printer{JSON: true}.PrintFatal(&buf, errors.New("parse failed")))
	require.Contains(t, buf.String(), "parse failed")
}

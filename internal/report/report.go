// Package report collects diagnostics across a compile and prints them at
// the end of the run, grouped by statement in source order (spec §7:
// "collected; fatal at end"). Mirrors the teacher's own
// collect-then-print-at-the-end shape in cmd/morfx/main.go
// (handleOutputAndExit iterating over a []model.Result after the whole
// run finished), but prints cqlerr.Diagnostic values instead of
// per-file transform results, and groups by source position instead of
// by file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cqllang/cqlc/internal/cqlerr"
)

// Collector accumulates diagnostics from every pass of a compile. It is
// not safe for concurrent use — spec §5 establishes a compile is strictly
// single-threaded.
type Collector struct {
	diags []cqlerr.Diagnostic
}

// Add appends one or more diagnostics, in the order produced.
func (c *Collector) Add(diags ...cqlerr.Diagnostic) {
	c.diags = append(c.diags, diags...)
}

// Diagnostics returns every diagnostic collected so far.
func (c *Collector) Diagnostics() []cqlerr.Diagnostic { return c.diags }

// HasErrors reports whether any collected diagnostic is error-severity.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == cqlerr.SeverityError {
			return true
		}
	}
	return false
}

// ExitCode maps a collector's state to the process exit code spec §6.2
// names: 0 on success, 1 on any error-severity diagnostic. It does not
// tell semantic errors apart from parse or macro errors.
func (c *Collector) ExitCode() int {
	if c.HasErrors() {
		return 1
	}
	return 0
}

// Group is every diagnostic attached to one source statement (identified
// by file:line, the granularity spec §6.3's wire format reports at).
type Group struct {
	File        string
	Line        int
	Diagnostics []cqlerr.Diagnostic
}

// Groups buckets diags by (File, Line) and returns the buckets ordered by
// source position (file, then line) — "grouped by statement in source
// order" per spec §7. Diagnostics within a group keep the order they were
// added in (insertion-stable, not re-sorted) so a macro-expansion trace
// doesn't get scrambled relative to the top-level diagnostic it's attached
// to.
func Groups(diags []cqlerr.Diagnostic) []Group {
	index := map[[2]interface{}]int{}
	var groups []Group
	for _, d := range diags {
		key := [2]interface{}{d.File, d.Line}
		if i, ok := index[key]; ok {
			groups[i].Diagnostics = append(groups[i].Diagnostics, d)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{File: d.File, Line: d.Line, Diagnostics: []cqlerr.Diagnostic{d}})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].File != groups[j].File {
			return groups[i].File < groups[j].File
		}
		return groups[i].Line < groups[j].Line
	})
	return groups
}

// Printer renders a Collector's diagnostics at the end of a run, in
// either CLI or JSON form — the two `cmd/morfx/main.go` output paths
// (printResultCLI vs. the cfg.JSONOutput branch) collapsed onto a single
// JSON bool field, since this package has no other config to carry.
type Printer struct {
	JSON bool
}

// Print writes diags to w. In CLI mode, diagnostics are grouped per
// Groups and separated by a blank line between statements, each line
// rendered via Diagnostic.Error() (spec §6.3's wire format). In JSON
// mode, the full flat diagnostic slice is marshaled as a single array,
// mirroring the teacher's json.Marshal(res) branch.
func (p Printer) Print(w io.Writer, diags []cqlerr.Diagnostic) error {
	if p.JSON {
		out, err := json.Marshal(diags)
		if err != nil {
			return fmt.Errorf("report: marshaling diagnostics: %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}

	for i, group := range Groups(diags) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		for _, d := range group.Diagnostics {
			fmt.Fprintln(w, d.Error())
		}
	}
	return nil
}

// PrintFatal renders a single unrecoverable error (a parse failure or any
// error Compile itself returned, as opposed to a collected Diagnostic) —
// the analog of the teacher's printFatal.
func (p Printer) PrintFatal(w io.Writer, err error) error {
	if p.JSON {
		out, marshalErr := json.Marshal(map[string]string{"error": err.Error()})
		if marshalErr != nil {
			return fmt.Errorf("report: marshaling fatal error: %w", marshalErr)
		}
		_, writeErr := fmt.Fprintln(w, string(out))
		return writeErr
	}
	_, writeErr := fmt.Fprintf(w, "Error: %v\n", err)
	return writeErr
}

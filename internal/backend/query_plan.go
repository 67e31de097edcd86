package backend

import (
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/regen"
	"github.com/cqllang/cqlc/internal/sem"
)

// QueryPlanGenerator wraps every select statement reachable from the
// analyzed tree in `EXPLAIN QUERY PLAN` — the `--rt query_plan` target,
// used to generate a companion script a DBA can run to catch missing
// indices before shipping a procedure.
type QueryPlanGenerator struct{}

func (g *QueryPlanGenerator) Name() Target { return TargetQueryPlan }

func (g *QueryPlanGenerator) Generate(in Input) ([]Output, error) {
	var b strings.Builder
	if in.Tree != nil {
		ast.Walk(in.Tree, func(n ast.Node) bool {
			if n.Kind() == sem.KindSelectStmt {
				text, err := renderTree(n, regen.DefaultOptions())
				if err == nil {
					b.WriteString("EXPLAIN QUERY PLAN\n")
					b.WriteString(text)
					b.WriteString(";\n\n")
				}
			}
			return true
		})
	}
	return []Output{{Name: "query_plan.sql", Content: b.String()}}, nil
}

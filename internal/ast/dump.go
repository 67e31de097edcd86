package ast

import (
	"fmt"
	"strings"
)

// DumpTree renders a tagged, indented outline of the tree rooted at node,
// for debugging and golden-file tests. It deliberately does not attempt to
// echo SQL syntax — that is internal/regen's job — so this package never
// needs to import it.
func DumpTree(node Node) string {
	var b strings.Builder
	dump(&b, node, 0)
	return b.String()
}

// DumpDot renders the tree rooted at node as a Graphviz dot graph, one
// node per AST node and one edge per parent/child link.
func DumpDot(node Node) string {
	var b strings.Builder
	b.WriteString("digraph ast {\n")
	n := 0
	dumpDot(&b, node, &n)
	b.WriteString("}\n")
	return b.String()
}

func dumpDot(b *strings.Builder, node Node, counter *int) int {
	id := *counter
	*counter++
	switch n := node.(type) {
	case nil:
		fmt.Fprintf(b, "  n%d [label=\"<nil>\"];\n", id)
	case *Interior:
		fmt.Fprintf(b, "  n%d [label=%q];\n", id, string(n.kind))
		leftID := dumpDot(b, n.Left, counter)
		fmt.Fprintf(b, "  n%d -> n%d;\n", id, leftID)
		rightID := dumpDot(b, n.Right, counter)
		fmt.Fprintf(b, "  n%d -> n%d;\n", id, rightID)
	case *IntLit:
		fmt.Fprintf(b, "  n%d [label=\"int_lit(%d)\"];\n", id, n.Value)
	case *NumLit:
		fmt.Fprintf(b, "  n%d [label=%q];\n", id, fmt.Sprintf("num_lit(%s)", n.Text))
	case *StrLit:
		fmt.Fprintf(b, "  n%d [label=%q];\n", id, fmt.Sprintf("str_lit(%q)", n.Text))
	case *QIDLit:
		fmt.Fprintf(b, "  n%d [label=%q];\n", id, fmt.Sprintf("qid_lit(%s)", n.Escaped))
	default:
		fmt.Fprintf(b, "  n%d [label=%q];\n", id, fmt.Sprintf("<unknown %T>", node))
	}
	return id
}

func dump(b *strings.Builder, node Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if node == nil {
		fmt.Fprintf(b, "%s<nil>\n", indent)
		return
	}
	switch n := node.(type) {
	case *Interior:
		fmt.Fprintf(b, "%s(%s @%s:%d\n", indent, n.kind, n.loc.File, n.loc.Line)
		dump(b, n.Left, depth+1)
		dump(b, n.Right, depth+1)
		fmt.Fprintf(b, "%s)\n", indent)
	case *IntLit:
		fmt.Fprintf(b, "%sint_lit(%d)\n", indent, n.Value)
	case *NumLit:
		fmt.Fprintf(b, "%snum_lit(tag=%d, %s)\n", indent, n.Tag, n.Text)
	case *StrLit:
		fmt.Fprintf(b, "%sstr_lit(tag=%d, %q)\n", indent, n.Tag, n.Text)
	case *QIDLit:
		fmt.Fprintf(b, "%sqid_lit(%s)\n", indent, n.Escaped)
	default:
		fmt.Fprintf(b, "%s<unknown %T>\n", indent, node)
	}
}

package regen

import "github.com/cqllang/cqlc/internal/ast"

// Operator expression kinds this package knows how to render in infix
// form. The full statement/DDL grammar is out of this repository's scope
// (spec §1); what matters for the testable properties is that expression
// precedence and parenthesization are handled correctly, so that set is
// modeled completely while statement-level kinds fall back to a generic
// tagged rendering (see Printer.printDefault).
const (
	KindOr        ast.Kind = "or"
	KindAnd       ast.Kind = "and"
	KindNot       ast.Kind = "not"
	KindEq        ast.Kind = "eq"
	KindNe        ast.Kind = "ne"
	KindLt        ast.Kind = "lt"
	KindLe        ast.Kind = "le"
	KindGt        ast.Kind = "gt"
	KindGe        ast.Kind = "ge"
	KindIs        ast.Kind = "is"
	KindLike      ast.Kind = "like"
	KindIn        ast.Kind = "in"
	KindAdd       ast.Kind = "add"
	KindSub       ast.Kind = "sub"
	KindMul       ast.Kind = "mul"
	KindDiv       ast.Kind = "div"
	KindMod       ast.Kind = "mod"
	KindConcat    ast.Kind = "concat"
	KindNeg       ast.Kind = "neg"       // unary minus, Left only
	KindNotExpr   ast.Kind = "not_expr"  // unary "not", Left only
	KindParen     ast.Kind = "paren"     // explicit user parens, Left only
	KindDot       ast.Kind = "dot"       // table.column
	KindCast      ast.Kind = "cast_expr" // cast(Left as <type in Right>)

	// KindBetween / KindBetweenRewrite mirror internal/sem's own between
	// vocabulary (identical literal strings "between_expr"/"between_rewrite")
	// — neither package imports the other, the same way this file's
	// KindAnd/KindAdd/etc. already mirror sem's binary-expression kinds.
	KindBetween        ast.Kind = "between_expr"
	KindBetweenRewrite ast.Kind = "between_rewrite"
)

// priority is the operator priority table: higher binds tighter. A child
// whose priority is lower than its parent's needs parens; so does an
// equal-priority child on the right, to preserve left-associative parsing
// on regeneration.
var priority = map[ast.Kind]int{
	KindOr:     1,
	KindAnd:    2,
	KindNot:    3,
	KindEq:     4,
	KindNe:     4,
	KindLt:     4,
	KindLe:     4,
	KindGt:     4,
	KindGe:     4,
	KindIs:     4,
	KindLike:   4,
	KindIn:     4,
	KindConcat: 5,
	KindAdd:    6,
	KindSub:    6,
	KindMul:    7,
	KindDiv:    7,
	KindMod:    7,
	KindNotExpr: 3,
	KindNeg:     8,
	KindDot:     9,
	KindBetween: 4,
	// KindBetweenRewrite isn't itself printed as an operator (printInterior
	// always delegates straight to the preserved original between_expr in
	// Right), but it stands in for one wherever a parent checks a child's
	// priority, so it needs the identical tier.
	KindBetweenRewrite: 4,
}

// Priority returns k's operator priority, or -1 if k is not a registered
// operator (treated as maximal-priority / never needing parens around its
// own rendering, e.g. a leaf or a function call).
func Priority(k ast.Kind) int {
	if p, ok := priority[k]; ok {
		return p
	}
	return -1
}

var opText = map[ast.Kind]string{
	KindOr:     "OR",
	KindAnd:    "AND",
	KindEq:     "=",
	KindNe:     "<>",
	KindLt:     "<",
	KindLe:     "<=",
	KindGt:     ">",
	KindGe:     ">=",
	KindIs:     "IS",
	KindLike:   "LIKE",
	KindIn:     "IN",
	KindConcat: "||",
	KindAdd:    "+",
	KindSub:    "-",
	KindMul:    "*",
	KindDiv:    "/",
	KindMod:    "%",
}

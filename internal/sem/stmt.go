package sem

import "github.com/cqllang/cqlc/internal/ast"

// Statement and declaration kinds this package's analyzer recognizes.
// Real parsing of DDL/DML/procedural text is out of scope; these are the
// node shapes the representative analyses in analyzer.go are built
// against, the way internal/macro defines its own vocabulary for macro
// constructs and internal/regen defines its own for expression operators.
const (
	KindCreateTable  ast.Kind = "create_table_stmt"
	KindColDef       ast.Kind = "col_def"
	KindColDefList   ast.Kind = "col_def_list" // right list shaped like macro.ConsKind (Left item, Right rest)
	KindCreateProc   ast.Kind = "create_proc_stmt"
	KindParamDef     ast.Kind = "param_def"
	KindSelectStmt   ast.Kind = "select_stmt"
	KindIfStmt       ast.Kind = "if_stmt"
	KindLetStmt      ast.Kind = "let_stmt"
	KindSetStmt      ast.Kind = "set_stmt"
	KindTryStmt      ast.Kind = "try_stmt"
	KindCallStmt     ast.Kind = "call_stmt"
	KindCursorDecl   ast.Kind = "cursor_decl_stmt"
	KindFetchStmt    ast.Kind = "fetch_stmt"
	KindStmtList     ast.Kind = "stmt_list" // right list shaped like macro.ConsKind (Left item, Right rest)
	KindBetweenExpr  ast.Kind = "between_expr"       // Left: x, Right: between_bounds(lo, hi)
	KindBetweenBounds ast.Kind = "between_bounds"     // Left: lo, Right: hi
	KindBetweenRewrite ast.Kind = "between_rewrite" // regenerator-undo marker, spec §4.4.5: Left the desugared and/ge/le subtree, Right the original between_expr
	KindArgumentsDot ast.Kind = "arguments_dot_expr"
	KindNullableCall ast.Kind = "nullable_call_expr"
	KindInferredNotNull ast.Kind = "cql_inferred_notnull_expr"
	KindNameRef      ast.Kind = "name_ref"
	KindSelectStar   ast.Kind = "select_star"
	KindLikeShape    ast.Kind = "like_shape_expr"

	// Condition vocabulary driving flow-sensitive nullability improvement
	// (spec §4.4.2). Left is always the tested operand (a name_ref).
	KindIsNullExpr    ast.Kind = "is_null_expr"
	KindIsNotNullExpr ast.Kind = "is_not_null_expr"
	// KindAttestNotNullCall is a standalone `attest_notnull(x)` statement:
	// Left is the operand, unconditionally improved from that point in the
	// enclosing flow context.
	KindAttestNotNullCall ast.Kind = "attest_notnull_call_expr"
	// KindThrowStmt / KindReturnStmt mark unconditional control-flow exits,
	// used to recognize the "if x is null then throw/return end if" guard
	// pattern: a branch containing one of these never falls through.
	KindThrowStmt  ast.Kind = "throw_stmt"
	KindReturnStmt ast.Kind = "return_stmt"

	// Binary expression kinds mirror internal/regen's own operator
	// vocabulary (identical literal strings, e.g. "and"/"ge"), the same way
	// internal/regen's priority table mirrors this package's between/
	// nullable vocabulary — neither package imports the other; both just
	// agree on the wire kind strings, exactly as KindBetweenRewrite already
	// does for the regenerator-undo marker.
	KindAndExpr ast.Kind = "and"
	KindOrExpr  ast.Kind = "or"
	KindEqExpr  ast.Kind = "eq"
	KindNeExpr  ast.Kind = "ne"
	KindLtExpr  ast.Kind = "lt"
	KindLeExpr  ast.Kind = "le"
	KindGtExpr  ast.Kind = "gt"
	KindGeExpr  ast.Kind = "ge"
	KindAddExpr ast.Kind = "add"
	KindSubExpr ast.Kind = "sub"
	KindMulExpr ast.Kind = "mul"
	KindDivExpr ast.Kind = "div"
	KindModExpr ast.Kind = "mod"
)

// NewColDefList builds a right-linked list of col_def nodes the same way
// internal/macro builds argument lists: each cell's Left holds one
// element, Right chains to the next cell (or nil at the end).
func NewColDefList(a *ast.Arena, defs []ast.Node) (ast.Node, error) {
	return newConsList(a, KindColDefList, defs)
}

// NewStmtList builds a right-linked list of statement nodes.
func NewStmtList(a *ast.Arena, stmts []ast.Node) (ast.Node, error) {
	return newConsList(a, KindStmtList, stmts)
}

func newConsList(a *ast.Arena, kind ast.Kind, items []ast.Node) (ast.Node, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var head ast.Node
	var tail *ast.Interior
	for _, item := range items {
		cell, err := a.NewNode(kind, item, nil)
		if err != nil {
			return nil, err
		}
		if head == nil {
			head = cell
		} else {
			a.SetRight(tail, cell)
		}
		tail = cell
	}
	return head, nil
}

// ConsListToSlice walks a right-linked list built by newConsList back into
// a slice of its elements (the Left of each cell).
func ConsListToSlice(head ast.Node) []ast.Node {
	var out []ast.Node
	for n := head; n != nil; {
		interior, ok := n.(*ast.Interior)
		if !ok {
			break
		}
		out = append(out, interior.Left)
		n = interior.Right
	}
	return out
}

// NewColDef builds one col_def node, hiding the IntLit bit-packing
// (flags | CoreType<<8) that resolveColDef unpacks — the one place
// outside this package that needs to construct a well-formed column
// definition (e.g. internal/driver's tests, or a future real parser
// producing this same node shape).
func NewColDef(a *ast.Arena, name string, typ ast.CoreType, notNull, pk, unique bool) (ast.Node, error) {
	nameLeaf, err := a.NewStrLeaf(ast.StrIdentifier, name)
	if err != nil {
		return nil, err
	}
	var flags int32
	if notNull {
		flags |= colFlagNotNull
	}
	if pk {
		flags |= colFlagPK
	}
	if unique {
		flags |= colFlagUnique
	}
	flagsLeaf, err := a.NewIntLeaf(flags | (int32(typ) << 8))
	if err != nil {
		return nil, err
	}
	return a.NewNode(KindColDef, nameLeaf, flagsLeaf)
}

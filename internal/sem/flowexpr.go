package sem

import "github.com/cqllang/cqlc/internal/ast"

// nameRefName returns the identifier a name_ref node refers to.
func nameRefName(node ast.Node) (string, bool) {
	ref, ok := node.(*ast.Interior)
	if !ok || ref.Kind() != KindNameRef {
		return "", false
	}
	str, ok := ref.Left.(*ast.StrLit)
	if !ok {
		return "", false
	}
	return str.Text, true
}

// resolveNameRef looks up name's declared sem and overlays whatever the
// current flow context has improved, without mutating the symtab entry
// itself (spec §4.4.2: improvements are a property of the flow context a
// reference appears in, not of the variable's declaration).
func (an *Analyzer) resolveNameRef(name string) *ast.Sem {
	base := an.lookupVar(name)
	if base == nil {
		return nil
	}
	cp := *base
	if an.flow.Improved(name) {
		cp.Flags |= ast.FlagNotNull
	}
	return &cp
}

// conditionImprovements inspects an if/while condition and reports which
// names become known not-null when the condition is true (thenNames) or
// false (elseNames) — spec §4.4.2's sources of improvement: `x is not
// null`, `x is null` (whose improvement applies on the false/fallthrough
// side), and a fetch_stmt used directly as a has-row check, which
// improves every field of the cursor's row shape on the true side.
func conditionImprovements(cond ast.Node) (thenNames, elseNames []string) {
	interior, ok := cond.(*ast.Interior)
	if !ok {
		return nil, nil
	}
	switch interior.Kind() {
	case KindIsNotNullExpr:
		if name, ok := nameRefName(interior.Left); ok {
			thenNames = append(thenNames, name)
		}
	case KindIsNullExpr:
		if name, ok := nameRefName(interior.Left); ok {
			elseNames = append(elseNames, name)
		}
	case KindFetchStmt:
		sem := interior.Sem()
		if sem == nil || sem.Struct == nil {
			return nil, nil
		}
		if sem.Name != "" {
			thenNames = append(thenNames, sem.Name)
		}
		for _, col := range sem.Struct.Names {
			if col == "" {
				continue
			}
			thenNames = append(thenNames, sem.Name+"."+col)
		}
	}
	return thenNames, elseNames
}

// stmtDiverges reports whether node is (or, for a statement list, contains)
// an unconditional throw/return — a branch that diverges never falls
// through, so whatever its *complementary* condition would have improved
// survives past the whole if (spec §8 scenario 2: "if x is null then
// throw; end if; let y := x + 1;" improves x for every statement after the
// if, precisely because the then-branch can't fall through).
func stmtDiverges(node ast.Node) bool {
	if node == nil {
		return false
	}
	switch node.Kind() {
	case KindThrowStmt, KindReturnStmt:
		return true
	case KindStmtList:
		for _, s := range ConsListToSlice(node) {
			if stmtDiverges(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// analyzeExprInterior sets the sem of an interior expression node once its
// children already have theirs (called from analyzeExpr's post-order
// walk).
func (an *Analyzer) analyzeExprInterior(n *ast.Interior) {
	switch n.Kind() {
	case KindNameRef:
		if name, ok := nameRefName(n); ok {
			if sem := an.resolveNameRef(name); sem != nil {
				ast.SetSem(n, sem)
			}
		}
	case KindIsNullExpr, KindIsNotNullExpr:
		ast.SetSem(n, &ast.Sem{Type: ast.TypeBool, Flags: ast.FlagNotNull})
	case KindBetweenRewrite:
		// The desugared and/ge/le subtree (Left) carries the real sem;
		// mirror it onto the marker so an enclosing expression sees a
		// between_rewrite node as the boolean it actually is.
		if n.Left != nil {
			ast.SetSem(n, n.Left.Sem())
		}
	default:
		an.analyzeBinaryExpr(n)
	}
}

// analyzeBinaryExpr computes the sem of a boolean or arithmetic binary
// expression from its already-analyzed operands: numeric results widen to
// the broader operand type; every result kind is not-null only if both
// operands are.
func (an *Analyzer) analyzeBinaryExpr(n *ast.Interior) {
	if n.Left == nil || n.Right == nil {
		return
	}
	left, right := n.Left.Sem(), n.Right.Sem()
	if left == nil || right == nil {
		return
	}
	notNull := notNullFlag(left.NotNull() && right.NotNull())
	switch n.Kind() {
	case KindAndExpr, KindOrExpr,
		KindEqExpr, KindNeExpr, KindLtExpr, KindLeExpr, KindGtExpr, KindGeExpr:
		ast.SetSem(n, &ast.Sem{Type: ast.TypeBool, Flags: notNull})
	case KindAddExpr, KindSubExpr, KindMulExpr, KindDivExpr, KindModExpr:
		t := arithResultType(left.Type, right.Type)
		if t == ast.TypeNull {
			return
		}
		ast.SetSem(n, &ast.Sem{Type: t, Flags: notNull})
	}
}

// arithResultType widens to the broader of two numeric types, per the
// numeric tower types.go already defines for assignment-compatibility
// checks. Returns ast.TypeNull if either side isn't numeric.
func arithResultType(a, b ast.CoreType) ast.CoreType {
	ra, oka := numericRank[a]
	rb, okb := numericRank[b]
	if !oka || !okb {
		return ast.TypeNull
	}
	if ra >= rb {
		return a
	}
	return b
}

func notNullFlag(isNotNull bool) ast.Flags {
	if isNotNull {
		return ast.FlagNotNull
	}
	return 0
}

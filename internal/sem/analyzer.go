package sem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/cqlerr"
	"github.com/cqllang/cqlc/internal/symtab"
)

// Analyzer threads every piece of state a statement analysis needs —
// arena, schema registries, lexical variable scope, flow stack, and the
// collected diagnostics — as fields on one struct rather than package
// globals, per the dependency-injection shape the rest of this module
// follows (macro.Expander, regen.Printer).
type Analyzer struct {
	Arena      *ast.Arena
	Registries *Registries
	History    *SchemaHistory

	vars  *symtab.Table[*ast.Sem]
	flow  *FlowStack
	procs *symtab.Table[*ProcDef] // current call stack, for recursion detection

	currentProc *ProcDef
	inLoop      int
	inTry       int

	Diags []cqlerr.Diagnostic
}

// NewAnalyzer returns an analyzer ready to process top-level statements.
func NewAnalyzer(a *ast.Arena, reg *Registries) *Analyzer {
	return &Analyzer{
		Arena:      a,
		Registries: reg,
		History:    NewSchemaHistory(),
		vars:       symtab.New[*ast.Sem](nil),
		flow:       NewFlowStack(),
		procs:      symtab.New[*ProcDef](nil),
	}
}

func (an *Analyzer) errorf(node ast.Node, code cqlerr.Code, err error, format string, args ...interface{}) {
	loc := node.Loc()
	msg := fmt.Sprintf(format, args...)
	an.Diags = append(an.Diags, cqlerr.New(err, code, loc.File, loc.Line, string(node.Kind()), msg))
}

// Ok reports whether analysis produced no error-severity diagnostics.
func (an *Analyzer) Ok() bool {
	for _, d := range an.Diags {
		if d.Severity == cqlerr.SeverityError {
			return false
		}
	}
	return true
}

// AnalyzeStatement dispatches a top-level or nested statement node to its
// representative analysis, per spec §4.4.3. Unrecognized kinds are a
// no-op: this module implements the analyses the spec names, not a full
// grammar.
func (an *Analyzer) AnalyzeStatement(node ast.Node) {
	if node == nil {
		return
	}
	switch node.Kind() {
	case KindCreateTable:
		an.analyzeCreateTable(node.(*ast.Interior))
	case KindCreateProc:
		an.analyzeCreateProc(node.(*ast.Interior))
	case KindSelectStmt:
		an.analyzeSelect(node.(*ast.Interior))
	case KindIfStmt:
		an.analyzeIf(node.(*ast.Interior))
	case KindLetStmt:
		an.analyzeLet(node.(*ast.Interior))
	case KindSetStmt:
		an.analyzeSet(node.(*ast.Interior))
	case KindTryStmt:
		an.analyzeTry(node.(*ast.Interior))
	case KindCallStmt:
		an.analyzeCall(node.(*ast.Interior))
	case KindCursorDecl:
		an.analyzeCursorDecl(node.(*ast.Interior))
	case KindFetchStmt:
		an.analyzeFetch(node.(*ast.Interior))
	case KindAttestNotNullCall:
		an.analyzeAttestNotNull(node.(*ast.Interior))
	case KindStmtList:
		for _, s := range ConsListToSlice(node) {
			an.AnalyzeStatement(s)
		}
	}
}

// --- create table (spec §4.4.3: "create table: validate columns/pk/
// unique/fk, register, compute struct + type hash") ---

func (an *Analyzer) analyzeCreateTable(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		an.errorf(node, cqlerr.CodeUnknown, nil, "create table: missing table name")
		return
	}
	name := nameNode.Text
	if an.Registries.Tables.Has(name) {
		an.errorf(node, cqlerr.CodeDuplicateName, cqlerr.ErrDuplicateName, "table %s already declared", name)
		return
	}

	colNodes := ConsListToSlice(node.Right)
	def := &TableDef{Name: name}
	seenPK := false
	for _, cn := range colNodes {
		col, err := an.resolveColDef(cn)
		if err != nil {
			an.errorf(cn, cqlerr.CodeUnknown, nil, "%s", err.Error())
			continue
		}
		if col.PK {
			if seenPK {
				an.errorf(cn, cqlerr.CodeUnknown, nil, "table %s declares more than one primary key column", name)
			}
			seenPK = true
		}
		def.Columns = append(def.Columns, col)
	}

	an.Registries.Tables.Insert(name, def)
	an.Registries.RecreateGroups.AddTable(name, def.Versioning.RecreateGroup)

	sem := &ast.Sem{Type: ast.TypeStruct, Name: name, Struct: structFromTable(def)}
	sem.Table = ComputeTableInfo(def)
	ast.SetSem(node, sem)
}

func (an *Analyzer) resolveColDef(node ast.Node) (ColumnDef, error) {
	interior, ok := node.(*ast.Interior)
	if !ok || interior.Kind() != KindColDef {
		return ColumnDef{}, errf("not a column definition")
	}
	nameNode, ok := interior.Left.(*ast.StrLit)
	if !ok {
		return ColumnDef{}, errf("column definition missing a name")
	}
	flags, _ := interior.Right.(*ast.IntLit)
	var f int32
	if flags != nil {
		f = flags.Value
	}
	return ColumnDef{
		Name:    nameNode.Text,
		Type:    ast.CoreType((f >> 8) & 0xff),
		NotNull: f&colFlagNotNull != 0,
		PK:      f&colFlagPK != 0,
		Unique:  f&colFlagUnique != 0,
	}, nil
}

// Bit flags packed into a col_def's IntLit right child: the low byte
// carries boolean attributes, the next byte the core type ordinal.
const (
	colFlagNotNull int32 = 1 << 0
	colFlagPK      int32 = 1 << 1
	colFlagUnique  int32 = 1 << 2
)

func structFromTable(def *TableDef) *Struct {
	s := &Struct{StructName: def.Name}
	for _, c := range def.Columns {
		s.Names = append(s.Names, c.Name)
		s.Kinds = append(s.Kinds, c.Kind)
		s.SemTypes = append(s.SemTypes, columnSem(c))
	}
	return s
}

func columnSem(c ColumnDef) *ast.Sem {
	var flags ast.Flags
	if c.NotNull {
		flags |= ast.FlagNotNull
	}
	return &ast.Sem{Type: c.Type, Flags: flags, Kind: c.Kind, Name: c.Name}
}

// --- create proc (spec §4.4.3: "call proc: resolve, bind args, inherit
// result struct, propagate has-DML flag") ---

func (an *Analyzer) analyzeCreateProc(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		an.errorf(node, cqlerr.CodeUnknown, nil, "create proc: missing name")
		return
	}
	name := nameNode.Text
	if an.Registries.Procs.Has(name) {
		an.errorf(node, cqlerr.CodeDuplicateName, cqlerr.ErrDuplicateName, "proc %s already declared", name)
		return
	}

	def := &ProcDef{Name: name}
	an.Registries.Procs.Insert(name, def)

	prevProc := an.currentProc
	an.currentProc = def
	an.vars = symtab.New[*ast.Sem](an.vars)
	defer func() {
		an.currentProc = prevProc
		if parent := an.vars.Parent(); parent != nil {
			an.vars = parent
		}
	}()

	an.AnalyzeStatement(node.Right)

	ast.SetSem(node, &ast.Sem{Type: ast.TypeStruct, Name: name, Struct: def.Result})
}

// --- select (spec §4.4.3: "build join scope, analyze projection/where/
// group-by/having/order-by, result struct becomes sem type") ---

func (an *Analyzer) analyzeSelect(node *ast.Interior) {
	projection := ConsListToSlice(node.Left)
	result := &Struct{}
	for _, p := range projection {
		an.rewriteExpr(p)
		an.analyzeExpr(p)
		name, sem := an.projectionColumn(p)
		result.Names = append(result.Names, name)
		result.Kinds = append(result.Kinds, sem.Kind)
		result.SemTypes = append(result.SemTypes, sem)
	}
	ast.SetSem(node, &ast.Sem{Type: ast.TypeStruct, Struct: result})
}

func (an *Analyzer) projectionColumn(node ast.Node) (string, *ast.Sem) {
	if ref, ok := node.(*ast.Interior); ok && ref.Kind() == KindNameRef {
		if str, ok := ref.Left.(*ast.StrLit); ok {
			return str.Text, an.lookupVar(str.Text)
		}
	}
	sem := node.Sem()
	if sem == nil {
		sem = &ast.Sem{Type: ast.TypeNull}
	}
	return "", sem
}

func (an *Analyzer) lookupVar(name string) *ast.Sem {
	if s, ok := an.vars.Lookup(name); ok {
		return s
	}
	return nil
}

// --- expression rewrites (spec §4.4.5) ---

// rewriteExpr applies every syntactic rewrite the spec names, replacing
// node in its parent with the rewritten form where one applies. Because
// ast.Replace requires a parent, the root of an expression tree being
// rewritten in place is handled by the caller updating its own slot.
func (an *Analyzer) rewriteExpr(node ast.Node) {
	ast.Walk(node, func(n ast.Node) bool {
		if interior, ok := n.(*ast.Interior); ok {
			switch interior.Kind() {
			case KindBetweenExpr:
				an.rewriteBetween(interior)
			case KindNullableCall:
				an.rewriteNullable(interior)
			case KindArgumentsDot:
				an.rewriteArgumentsDot(interior)
			}
		}
		return true
	})
}

// rewriteBetween desugars `x BETWEEN lo AND hi` into the real subtree `(x
// >= lo) AND (x <= hi)`, per spec §4.4.5. An arena node can only have one
// parent, so x/lo/hi — each already a child of the original between_expr —
// are cloned rather than shared between the two comparisons; this plays
// the role spec §4.4.5 describes as "a fresh temporary node" (x would only
// need evaluating once in a real runtime, but at the tree level a clone is
// exactly a second reference to an equivalent value). The result is a
// between_rewrite marker: Left holds the desugared and/ge/le subtree that
// later passes (type-checking, codegen) actually see, Right holds the
// original, untouched between_expr that the regenerator prints back out
// to undo the rewrite (spec §4.4.5's "regenerator must know how to undo
// each rewrite").
func (an *Analyzer) rewriteBetween(node *ast.Interior) {
	if node.Kind() != KindBetweenExpr {
		return
	}
	bounds, ok := node.Right.(*ast.Interior)
	if !ok || bounds.Kind() != KindBetweenBounds {
		return
	}

	originalParent, _ := node.Parent().(*ast.Interior)
	wasLeft := originalParent != nil && originalParent.Left == ast.Node(node)

	xLow, err := an.Arena.CloneSubtree(node.Left)
	if err != nil {
		return
	}
	xHigh, err := an.Arena.CloneSubtree(node.Left)
	if err != nil {
		return
	}
	lo, err := an.Arena.CloneSubtree(bounds.Left)
	if err != nil {
		return
	}
	hi, err := an.Arena.CloneSubtree(bounds.Right)
	if err != nil {
		return
	}

	ge, err := an.Arena.NewNode(KindGeExpr, xLow, lo)
	if err != nil {
		return
	}
	le, err := an.Arena.NewNode(KindLeExpr, xHigh, hi)
	if err != nil {
		return
	}
	and, err := an.Arena.NewNode(KindAndExpr, ge, le)
	if err != nil {
		return
	}

	marker, err := an.Arena.NewNode(KindBetweenRewrite, and, node)
	if err != nil {
		return
	}
	if originalParent != nil {
		if wasLeft {
			an.Arena.SetLeft(originalParent, marker)
		} else {
			an.Arena.SetRight(originalParent, marker)
		}
	}
}

// rewriteNullable turns `nullable(x)` into `cql_inferred_notnull(x)` when
// flow analysis has already established x is not-null in context —
// otherwise it is left alone and reported as a flow-typing failure by the
// caller that detects the unimproved use.
func (an *Analyzer) rewriteNullable(node *ast.Interior) {
	if node.Kind() != KindNullableCall {
		return
	}
	arg, ok := node.Left.(*ast.StrLit)
	if !ok {
		return
	}
	if !an.flow.Improved(arg.Text) {
		return
	}
	originalParent, _ := node.Parent().(*ast.Interior)
	wasLeft := originalParent != nil && originalParent.Left == ast.Node(node)

	replacement, err := an.Arena.NewNode(KindInferredNotNull, node.Left, nil)
	if err != nil {
		return
	}
	an.Registries.NotNullImprovements.Insert(arg.Text, true)
	if originalParent != nil {
		if wasLeft {
			an.Arena.SetLeft(originalParent, replacement)
		} else {
			an.Arena.SetRight(originalParent, replacement)
		}
	}
}

// rewriteArgumentsDot resolves `ARGUMENTS.x` inside a proc body to the
// formal parameter x of the currently-enclosing procedure.
func (an *Analyzer) rewriteArgumentsDot(node *ast.Interior) {
	if node.Kind() != KindArgumentsDot || an.currentProc == nil {
		return
	}
	fieldNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		return
	}
	for _, f := range an.currentProc.Formals {
		if strings.EqualFold(f.Name, fieldNode.Text) {
			return
		}
	}
	an.errorf(node, cqlerr.CodeUndefinedName, cqlerr.ErrUndefinedName, "ARGUMENTS.%s: no such formal parameter", fieldNode.Text)
}

// analyzeExpr attaches a sem to node and every already-unanalyzed node
// beneath it, children first (ast.WalkPost), so a compound expression's
// sem (e.g. a name_ref's flow-improved not-null flag, or a binary
// expression's widened numeric type) can be computed from its operands'
// sems in the same pass.
func (an *Analyzer) analyzeExpr(node ast.Node) {
	ast.WalkPost(node, an.analyzeExprNode)
}

func (an *Analyzer) analyzeExprNode(node ast.Node) {
	if node == nil || node.Sem() != nil {
		return
	}
	switch n := node.(type) {
	case *ast.NumLit:
		ast.SetSem(node, &ast.Sem{Type: numLitType(n), Flags: ast.FlagNotNull})
	case *ast.StrLit:
		if n.Tag == ast.StrSQLLiteral {
			ast.SetSem(node, &ast.Sem{Type: ast.TypeText, Flags: ast.FlagNotNull})
		}
	case *ast.Interior:
		an.analyzeExprInterior(n)
	}
}

func numLitType(n *ast.NumLit) ast.CoreType {
	switch n.Tag {
	case ast.NumBool:
		return ast.TypeBool
	case ast.NumInt32:
		return ast.TypeInt32
	case ast.NumInt64:
		return ast.TypeInt64
	default:
		return ast.TypeReal
	}
}

// --- if (spec §4.4.2: improvements from an if's condition hold inside
// the then-branch; improvements surviving both branches propagate out) ---

func (an *Analyzer) analyzeIf(node *ast.Interior) {
	// A fetch_stmt used directly as the condition is itself a has-row
	// check (spec §4.4.2): analyze it as the fetch it is, not as a plain
	// expression, so conditionImprovements can see the cursor's shape.
	if cond, ok := node.Left.(*ast.Interior); ok && cond.Kind() == KindFetchStmt {
		an.analyzeFetch(cond)
	} else {
		an.rewriteExpr(node.Left)
		an.analyzeExpr(node.Left)
	}
	thenNames, elseNames := conditionImprovements(node.Left)

	branches := ConsListToSlice(node.Right)
	seeds := make([][]string, len(branches))
	if len(branches) > 0 {
		seeds[0] = thenNames
	}
	if len(branches) > 1 {
		seeds[1] = elseNames
	}

	var survivorSets []map[string]bool
	var diverges []bool
	for i, branch := range branches {
		branchDiverges, popped := an.analyzeIfArm(branch, seeds[i])
		diverges = append(diverges, branchDiverges)
		if !branchDiverges {
			survivorSets = append(survivorSets, popped)
		}
	}
	// A missing else is an implicit branch that establishes nothing: an
	// if with no else can't assume its then-branch ran, so the
	// then-branch's own improvements (as opposed to thenNames, which are
	// pushed again below) must not leak out just because there was only
	// one explicit arm to intersect against.
	if len(branches) < 2 {
		survivorSets = append(survivorSets, map[string]bool{})
	}
	if len(survivorSets) > 0 {
		an.flow.MergeFromSibling(IntersectImprovements(survivorSets...))
	}

	// spec §8 scenario 2: "if x is null then throw; end if; let y := x +
	// 1;" — the then-branch (taken when the condition is true) diverges
	// unconditionally, so the only way execution reaches the code after
	// the if is that the condition was false; whatever that implies
	// (elseNames) survives into the enclosing context outright, not just
	// as an intersection candidate. Symmetrically for a diverging else.
	if len(diverges) > 0 && diverges[0] {
		for _, name := range elseNames {
			an.flow.Improve(name)
		}
	}
	if len(diverges) > 1 && diverges[1] {
		for _, name := range thenNames {
			an.flow.Improve(name)
		}
	}
}

// analyzeIfArm analyzes one if/elseif/else arm in its own branch context,
// pre-seeded with names, and reports whether it diverges and what it
// improved.
func (an *Analyzer) analyzeIfArm(branch ast.Node, names []string) (diverges bool, improved map[string]bool) {
	an.flow.Push(ContextBranch)
	for _, name := range names {
		an.flow.Improve(name)
	}
	an.AnalyzeStatement(branch)
	diverges = stmtDiverges(branch)
	return diverges, an.flow.Pop()
}

// --- let / set ---

func (an *Analyzer) analyzeLet(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		return
	}
	an.rewriteExpr(node.Right)
	an.analyzeExpr(node.Right)
	sem := node.Right.Sem()
	an.vars.Insert(nameNode.Text, sem)
}

func (an *Analyzer) analyzeSet(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		return
	}
	// spec §4.4.2: assignment invalidates every improvement mentioning
	// the assigned variable, in every enclosing context.
	an.flow.Unimprove(nameNode.Text)
	an.rewriteExpr(node.Right)
	an.analyzeExpr(node.Right)
}

// --- try / catch (spec §4.4.2: catch conservatively unsets everything
// the try body might have improved, since any statement in the body may
// have thrown before completing) ---

func (an *Analyzer) analyzeTry(node *ast.Interior) {
	an.inTry++
	an.flow.Push(ContextJump)
	an.AnalyzeStatement(node.Left)
	an.flow.Pop() // try-body improvements never survive into catch or past it
	an.inTry--

	if node.Right != nil {
		an.flow.Push(ContextBranch)
		an.vars.Insert("@RC", &ast.Sem{Type: ast.TypeInt32, Flags: ast.FlagNotNull})
		an.AnalyzeStatement(node.Right)
		an.flow.Pop()
	}
}

// --- call (spec §4.4.3: resolve, bind args, inherit result struct,
// propagate has-DML flag) ---

func (an *Analyzer) analyzeCall(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		an.errorf(node, cqlerr.CodeUnknown, nil, "call: missing procedure name")
		return
	}
	def, ok := an.Registries.Procs.Lookup(nameNode.Text)
	if !ok {
		an.errorf(node, cqlerr.CodeUndefinedName, cqlerr.ErrUndefinedName, "call to undefined procedure %s", nameNode.Text)
		return
	}
	args := ConsListToSlice(node.Right)
	if len(args) != len(def.Formals) {
		an.errorf(node, cqlerr.CodeMacroArity, nil, "procedure %s expects %d arguments, got %d", nameNode.Text, len(def.Formals), len(args))
		return
	}
	for i, arg := range args {
		an.analyzeExpr(arg)
		if ok, reason := AssignableKind(arg.Sem(), def.Formals[i].Type, def.Formals[i].NotNull, def.Formals[i].Kind); !ok {
			an.errorf(arg, cqlerr.CodeTypeMismatch, cqlerr.ErrTypeMismatch, "%s", reason)
		}
	}
	if def.HasDML && an.currentProc != nil {
		an.currentProc.HasDML = true
	}
	ast.SetSem(node, &ast.Sem{Type: ast.TypeStruct, Struct: def.Result})
}

// --- cursor declare / fetch ---

func (an *Analyzer) analyzeCursorDecl(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		return
	}
	an.rewriteExpr(node.Right)
	an.AnalyzeStatement(node.Right)
	shape := node.Right.Sem()
	an.vars.Insert(nameNode.Text, shape)
}

func (an *Analyzer) analyzeFetch(node *ast.Interior) {
	nameNode, ok := node.Left.(*ast.StrLit)
	if !ok {
		return
	}
	shape, ok := an.vars.Lookup(nameNode.Text)
	if !ok {
		an.errorf(node, cqlerr.CodeCursorState, cqlerr.ErrCursorState, "fetch from undeclared cursor %s", nameNode.Text)
		return
	}
	// A fetch_stmt carries a boolean "row returned" result as its sem; when
	// it's used directly as an if/while condition, conditionImprovements
	// reads Struct/Name back off of it to improve every field of the
	// cursor's row shape on the has-row branch (spec §4.4.2).
	var shapeStruct *Struct
	if shape != nil {
		shapeStruct = shape.Struct
	}
	ast.SetSem(node, &ast.Sem{Type: ast.TypeBool, Flags: ast.FlagNotNull, Name: nameNode.Text, Struct: shapeStruct})
}

// analyzeAttestNotNull implements the `attest_notnull(x)` statement form
// (spec §4.4.2): it unconditionally improves x in the current flow
// context from this point forward, independent of any condition.
func (an *Analyzer) analyzeAttestNotNull(node *ast.Interior) {
	if name, ok := nameRefName(node.Left); ok {
		an.flow.Improve(name)
		return
	}
	if str, ok := node.Left.(*ast.StrLit); ok {
		an.flow.Improve(str.Text)
	}
}

func errf(msg string) error { return errors.New(msg) }

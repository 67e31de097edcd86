package macro

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
	"github.com/cqllang/cqlc/internal/cqlerr"
	"github.com/cqllang/cqlc/internal/symtab"
)

// Regenerator echoes the generated source text of an AST fragment, the way
// internal/regen's printer does. @TEXT and @ID need this for any argument
// that is not already a bare string literal. Expander takes it as an
// injected dependency rather than importing internal/regen directly — the
// same "universal engine, pluggable per-target behavior" shape the teacher
// uses for its evaluator/provider split.
type Regenerator interface {
	Text(node ast.Node) (string, error)
}

// frame is one entry of the macro expansion stack: the formal-to-actual
// bindings in effect, plus the call site for @MACRO_LINE/@MACRO_FILE and
// error traces.
type frame struct {
	macroName string
	file      string
	line      int
	bindings  *symtab.Table[ast.Node]
	parent    *frame
}

// Expander expands every macro reference reachable from a root node,
// in place, mutating the shared arena.
type Expander struct {
	Arena   *ast.Arena
	Macros  *Registry
	Defines *symtab.Table[bool]
	Regen   Regenerator

	Diags []cqlerr.Diagnostic
	stack []*frame
}

// NewExpander builds an expander. defines seeds @IFDEF from -D command
// line symbols; regen may be nil if the tree contains no @TEXT/@ID calls
// over non-literal arguments.
func NewExpander(a *ast.Arena, macros *Registry, defines *symtab.Table[bool], regen Regenerator) *Expander {
	return &Expander{Arena: a, Macros: macros, Defines: defines, Regen: regen}
}

// Ok reports whether expansion collected zero errors. Callers must check
// this (spec §4.6 step 3: "if expansion flagged errors, exit") before
// proceeding to semantic analysis.
func (e *Expander) Ok() bool { return len(e.Diags) == 0 }

// Expand expands root and everything beneath it. root may be a scalar
// node or the head of a ConsKind list (e.g. a statement list).
func (e *Expander) Expand(root ast.Node) (ast.Node, error) {
	if interior, ok := root.(*ast.Interior); ok && interior.Kind() == ConsKind {
		return e.expandList(root)
	}
	return e.expandScalar(root)
}

func (e *Expander) trace() []cqlerr.Frame {
	frames := make([]cqlerr.Frame, len(e.stack))
	for i, fr := range e.stack {
		frames[len(e.stack)-1-i] = cqlerr.Frame{MacroName: fr.macroName, File: fr.file, Line: fr.line}
	}
	return frames
}

func (e *Expander) outermost() (*frame, bool) {
	if len(e.stack) == 0 {
		return nil, false
	}
	return e.stack[0], true
}

func (e *Expander) errf(node ast.Node, err error, code cqlerr.Code, format string, args ...any) {
	loc := node.Loc()
	d := cqlerr.New(err, code, loc.File, loc.Line, string(node.Kind()), fmt.Sprintf(format, args...)).WithTrace(e.trace())
	e.Diags = append(e.Diags, d)
}

// expandScalar fully expands node, which sits in a position that expects
// exactly one node (not a list).
func (e *Expander) expandScalar(node ast.Node) (ast.Node, error) {
	if node == nil {
		return nil, nil
	}
	switch n := node.(type) {
	case *ast.Interior:
		switch n.Kind() {
		case RefKind:
			value, isList, err := e.expandRef(n)
			if err != nil {
				return nil, err
			}
			if isList {
				name, _ := RefName(n)
				e.errf(n, cqlerr.ErrMacroMisplaced, cqlerr.CodeMacroMisplaced,
					"macro %q! is list-kinded and cannot be used in a scalar position", name)
				return n, nil
			}
			return value, nil
		case ArgRefKind:
			return e.expandArgRef(n)
		case TextKind:
			return e.expandText(n)
		case IDKind:
			return e.expandID(n)
		case LineKind:
			return e.expandMacroLine(n)
		case FileKind:
			return e.expandMacroFile(n)
		case IfdefKind:
			e.errf(n, cqlerr.ErrMacroMisplaced, cqlerr.CodeMacroMisplaced,
				"@IFDEF can only appear where a statement list is expected")
			return n, nil
		default:
			if err := e.expandChildSlot(n, true); err != nil {
				return nil, err
			}
			if err := e.expandChildSlot(n, false); err != nil {
				return nil, err
			}
			return n, nil
		}
	default:
		// Leaves carry no macro references of their own.
		return node, nil
	}
}

// expandChildSlot expands parent's left (isLeft) or right child in place.
// A child that is itself a ConsKind list is expanded as a list; anything
// else is expanded as a scalar. This convention — list positions are
// represented using the same ConsKind backbone macro bodies use — is a
// deliberate simplification documented in DESIGN.md: the grammar proper is
// out of spec's scope, so downstream passes are free to (and do) reuse this
// package's list representation for their own statement/expression lists.
func (e *Expander) expandChildSlot(parent *ast.Interior, isLeft bool) error {
	var child ast.Node
	if isLeft {
		child = parent.Left
	} else {
		child = parent.Right
	}
	if child == nil {
		return nil
	}
	var expanded ast.Node
	var err error
	if interior, ok := child.(*ast.Interior); ok && interior.Kind() == ConsKind {
		expanded, err = e.expandList(child)
	} else {
		expanded, err = e.expandScalar(child)
	}
	if err != nil {
		return err
	}
	if isLeft {
		e.Arena.SetLeft(parent, expanded)
	} else {
		e.Arena.SetRight(parent, expanded)
	}
	return nil
}

// expandList fully expands the ConsKind-headed list starting at head,
// splicing in the results of any list-kind macro ref or @IFDEF branch
// found as a list element, and returns the new head.
func (e *Expander) expandList(head ast.Node) (ast.Node, error) {
	if head == nil {
		return nil, nil
	}
	interior, ok := head.(*ast.Interior)
	if !ok || interior.Kind() != ConsKind {
		// Not actually a cons cell (e.g. a single stray scalar handed to a
		// list position). Treat it as a singleton list.
		v, err := e.expandScalar(head)
		return v, err
	}
	elem := interior.Left
	rest := interior.Right

	if elemInterior, ok := elem.(*ast.Interior); ok {
		switch elemInterior.Kind() {
		case RefKind:
			name, _ := RefName(elemInterior)
			if def, found := e.Macros.Lookup(name); found && def.Kind.IsList() {
				value, _, err := e.expandRef(elemInterior)
				if err != nil {
					return nil, err
				}
				expandedRest, err := e.expandList(rest)
				if err != nil {
					return nil, err
				}
				return e.spliceList(value, expandedRest), nil
			}
		case IfdefKind:
			chosen, err := e.resolveIfdef(elemInterior)
			if err != nil {
				return nil, err
			}
			expandedChosen, err := e.expandList(chosen)
			if err != nil {
				return nil, err
			}
			expandedRest, err := e.expandList(rest)
			if err != nil {
				return nil, err
			}
			return e.spliceList(expandedChosen, expandedRest), nil
		}
	}

	expandedElem, err := e.expandScalar(elem)
	if err != nil {
		return nil, err
	}
	expandedRest, err := e.expandList(rest)
	if err != nil {
		return nil, err
	}
	e.Arena.SetLeft(interior, expandedElem)
	e.Arena.SetRight(interior, expandedRest)
	return interior, nil
}

// spliceList concatenates listHead (a ConsKind list, possibly nil) with
// rest by rewriting listHead's tail link — three pointers change (the
// caller's slot, and the tail's Right), no new cons cells are allocated.
func (e *Expander) spliceList(listHead, rest ast.Node) ast.Node {
	if listHead == nil {
		return rest
	}
	cur := listHead
	for {
		interior, ok := cur.(*ast.Interior)
		if !ok {
			return listHead
		}
		if interior.Right == nil {
			e.Arena.SetRight(interior, rest)
			return listHead
		}
		cur = interior.Right
	}
}

// expandRef looks up, validates, clones, and expands the body of a macro
// invocation. value is a single node for scalar-kind macros or a ConsKind
// list head for list-kind macros (isList reports which).
func (e *Expander) expandRef(ref *ast.Interior) (value ast.Node, isList bool, err error) {
	name, _ := RefName(ref)
	def, found := e.Macros.Lookup(name)
	if !found {
		e.errf(ref, cqlerr.ErrMacroUndefined, cqlerr.CodeMacroUndefined, "undefined macro %q!", name)
		return ref, false, nil
	}

	rawArgs := RefArgs(ref)
	if len(rawArgs) != len(def.Formals) {
		e.errf(ref, cqlerr.ErrMacroArity, cqlerr.CodeMacroArity,
			"macro %q! expects %d argument(s), got %d", name, len(def.Formals), len(rawArgs))
		return ref, false, nil
	}

	bindings := symtab.New[ast.Node](nil)
	for i, formal := range def.Formals {
		actual := rawArgs[i]
		var expanded ast.Node
		var expErr error
		if formal.Kind.IsList() {
			expanded, expErr = e.expandList(actual)
		} else {
			expanded, expErr = e.expandScalar(actual)
		}
		if expErr != nil {
			return nil, false, expErr
		}
		bindings.Insert(formal.Name, expanded)
	}

	clone, err := e.Arena.CloneSubtree(def.Body)
	if err != nil {
		return nil, false, err
	}

	fr := &frame{macroName: name, file: ref.Loc().File, line: ref.Loc().Line, bindings: bindings}
	if len(e.stack) > 0 {
		fr.parent = e.stack[len(e.stack)-1]
	}
	e.stack = append(e.stack, fr)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	if def.Kind.IsList() {
		expandedBody, err := e.expandList(clone)
		return expandedBody, true, err
	}
	expandedBody, err := e.expandScalar(clone)
	return expandedBody, false, err
}

func (e *Expander) expandArgRef(n *ast.Interior) (ast.Node, error) {
	name, _ := ArgRefName(n)
	if len(e.stack) == 0 {
		e.errf(n, cqlerr.ErrMacroMisplaced, cqlerr.CodeMacroMisplaced, "%s! used outside any macro body", name)
		return n, nil
	}
	top := e.stack[len(e.stack)-1]
	bound, ok := top.bindings.LookupLocal(name)
	if !ok {
		e.errf(n, cqlerr.ErrMacroUndefined, cqlerr.CodeMacroUndefined,
			"undefined formal parameter %q! in macro %q!", name, top.macroName)
		return n, nil
	}
	// Each occurrence gets its own clone: the same formal may be referenced
	// more than once in the body, and no arena node may have two parents.
	return e.Arena.CloneSubtree(bound)
}

func (e *Expander) resolveIfdef(n *ast.Interior) (ast.Node, error) {
	nameLeaf, ok := n.Left.(*ast.StrLit)
	if !ok {
		return nil, fmt.Errorf("macro: malformed @IFDEF node")
	}
	branches, ok := n.Right.(*ast.Interior)
	if !ok || branches.Kind() != IfdefBranchesKind {
		return nil, fmt.Errorf("macro: malformed @IFDEF node")
	}
	if e.Defines.Has(nameLeaf.Text) {
		return branches.Left, nil
	}
	return branches.Right, nil
}

func (e *Expander) expandText(n *ast.Interior) (ast.Node, error) {
	args := ConsToSlice(n.Left)
	var buf strings.Builder
	for _, arg := range args {
		expanded, err := e.expandScalar(arg)
		if err != nil {
			return nil, err
		}
		text, err := e.textOf(expanded)
		if err != nil {
			e.errf(n, cqlerr.ErrMacroKind, cqlerr.CodeMacroKind, "@TEXT: %s", err)
			return n, nil
		}
		buf.WriteString(text)
	}
	loc := n.Loc()
	e.Arena.SetPos(loc.File, loc.Line)
	return e.Arena.NewStrLeaf(ast.StrSQLLiteral, "'"+buf.String()+"'")
}

// identRe matches a legal SQL identifier: first char [A-Za-z_], rest
// [A-Za-z0-9_].
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (e *Expander) expandID(n *ast.Interior) (ast.Node, error) {
	expanded, err := e.expandScalar(n.Left)
	if err != nil {
		return nil, err
	}
	text, err := e.textOf(expanded)
	if err != nil {
		e.errf(n, cqlerr.ErrMacroKind, cqlerr.CodeMacroKind, "@ID: %s", err)
		return n, nil
	}
	text = unquoteSQLString(text)
	if !identRe.MatchString(text) {
		e.errf(n, cqlerr.ErrInvalidIdentifier, cqlerr.CodeInvalidIdentifier,
			"@ID: %q is not a legal identifier", text)
		return n, nil
	}
	loc := n.Loc()
	e.Arena.SetPos(loc.File, loc.Line)
	return e.Arena.NewStrLeaf(ast.StrIdentifier, text)
}

func (e *Expander) expandMacroLine(n *ast.Interior) (ast.Node, error) {
	fr, ok := e.outermost()
	if !ok {
		e.errf(n, cqlerr.ErrMacroMisplaced, cqlerr.CodeMacroMisplaced, "@MACRO_LINE used outside any macro body")
		return n, nil
	}
	loc := n.Loc()
	e.Arena.SetPos(loc.File, loc.Line)
	return e.Arena.NewNumLeaf(ast.NumInt32, strconv.Itoa(fr.line))
}

func (e *Expander) expandMacroFile(n *ast.Interior) (ast.Node, error) {
	fr, ok := e.outermost()
	if !ok {
		e.errf(n, cqlerr.ErrMacroMisplaced, cqlerr.CodeMacroMisplaced, "@MACRO_FILE used outside any macro body")
		return n, nil
	}
	loc := n.Loc()
	e.Arena.SetPos(loc.File, loc.Line)
	return e.Arena.NewStrLeaf(ast.StrSQLLiteral, "'"+fr.file+"'")
}

// textOf renders node's generated source text: string literals are
// unquoted directly (per spec, "String-literal arguments are unquoted
// first"); anything else is delegated to the injected Regenerator.
func (e *Expander) textOf(node ast.Node) (string, error) {
	if lit, ok := node.(*ast.StrLit); ok && lit.Tag == ast.StrSQLLiteral {
		return unquoteSQLString(lit.Text), nil
	}
	if e.Regen == nil {
		return "", fmt.Errorf("no regenerator available to echo a non-literal argument")
	}
	return e.Regen.Text(node)
}

func unquoteSQLString(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1]
	}
	return s
}

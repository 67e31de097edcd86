package regen

import (
	"fmt"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
)

// Fragment-related node kinds. kindNameRef mirrors sem.KindNameRef by the
// same literal string, the same no-cross-import convention this package's
// priority.go already uses for its operator vocabulary.
const (
	kindNameRef      ast.Kind = "name_ref"
	kindFragmentCall ast.Kind = "fragment_call"     // Left: name StrLit, Right: cons-list of argument exprs
	kindArgList      ast.Kind = "fragment_arg_list" // right list shaped like macro.ConsKind (Left item, Right rest)
	kindCTE          ast.Kind = "cte"               // Left: alias StrLit, Right: body
	kindArgBinding   ast.Kind = "fragment_arg_binding"
)

// Fragment is one registered shared/conditional fragment (spec §4.5): a
// reusable named body — a scalar expression inlined at a Func call site, or
// a table-valued query inlined at a CTEProc call site — parameterized by
// formal names substituted with the actual arguments at print time.
type Fragment struct {
	Name        string
	Formals     []string
	Body        ast.Node
	TableValued bool
}

// FragmentRegistry looks fragments up by name, case-insensitively, matching
// how sem.Registries resolves table and proc names.
type FragmentRegistry struct {
	byName map[string]*Fragment
}

// NewFragmentRegistry returns an empty registry.
func NewFragmentRegistry() *FragmentRegistry {
	return &FragmentRegistry{byName: make(map[string]*Fragment)}
}

// Register adds or replaces f under its own name.
func (r *FragmentRegistry) Register(f *Fragment) {
	r.byName[strings.ToLower(f.Name)] = f
}

// Lookup finds a registered fragment by name.
func (r *FragmentRegistry) Lookup(name string) (*Fragment, bool) {
	f, ok := r.byName[strings.ToLower(name)]
	return f, ok
}

// FragmentCallbacks implements the CTEProc/CTESuppress/TableRename/Func
// quartet of spec §4.5's callback table: a fragment call site is spliced
// inline with its formal parameters bound to the actual arguments at the
// call, instead of being printed as a literal call.
//
// Deeply nested conditional fragments — a fragment call appearing inside
// the body of another fragment's own substitution — are out of scope:
// TableRename consults only the innermost call's frame, so a formal
// name belonging to an outer call won't resolve while printing an inner
// one. Spec's own Open Question on this point says the exact splice
// semantics for that case "should be validated against tests rather than
// re-derived"; absent such a test, one level of substitution is what's
// implemented here.
type FragmentCallbacks struct {
	BaseCallbacks
	Registry *FragmentRegistry
	frames   []map[string]ast.Node
}

// NewFragmentCallbacks returns callbacks that inline fragments from reg.
func NewFragmentCallbacks(reg *FragmentRegistry) *FragmentCallbacks {
	return &FragmentCallbacks{Registry: reg}
}

// CTEProc inlines a shared table-valued fragment's body in place of a CTE
// entry whose body is a call to it: "alias AS (<fragment body>)".
func (fc *FragmentCallbacks) CTEProc(node ast.Node, p *Printer) (bool, error) {
	cte, ok := node.(*ast.Interior)
	if !ok || cte.Kind() != kindCTE {
		return false, nil
	}
	alias, ok := cte.Left.(*ast.StrLit)
	if !ok {
		return false, nil
	}
	call, ok := cte.Right.(*ast.Interior)
	if !ok || call.Kind() != kindFragmentCall {
		return false, nil
	}
	frag, ok := fc.lookup(call)
	if !ok || !frag.TableValued {
		return false, nil
	}
	p.WriteString(alias.Text)
	p.WriteString(" AS (")
	if err := fc.inline(frag, call, p); err != nil {
		return true, err
	}
	p.WriteString(")")
	return true, nil
}

// CTESuppress drops a CTE entry that exists only to bind a name to a
// table-valued argument used elsewhere — it is never real SQL and must not
// be printed at all.
func (fc *FragmentCallbacks) CTESuppress(node ast.Node, p *Printer) (bool, error) {
	cte, ok := node.(*ast.Interior)
	if !ok || cte.Kind() != kindCTE {
		return false, nil
	}
	if cte.Right != nil && cte.Right.Kind() == kindArgBinding {
		return true, nil
	}
	return false, nil
}

// Func inlines a scalar fragment call used directly as an expression.
// Table-valued calls are CTEProc's job, not Func's, so those decline here.
func (fc *FragmentCallbacks) Func(node ast.Node, p *Printer) (bool, error) {
	call, ok := node.(*ast.Interior)
	if !ok || call.Kind() != kindFragmentCall {
		return false, nil
	}
	frag, ok := fc.lookup(call)
	if !ok || frag.TableValued {
		return false, nil
	}
	return true, fc.inline(frag, call, p)
}

// TableRename rewrites a name_ref to whichever actual argument subtree the
// innermost fragment call bound its formal to — the mechanism by which a
// fragment body's references to its own parameters resolve once spliced
// into a caller's context.
func (fc *FragmentCallbacks) TableRename(node ast.Node, p *Printer) (bool, error) {
	ref, ok := node.(*ast.Interior)
	if !ok || ref.Kind() != kindNameRef || len(fc.frames) == 0 {
		return false, nil
	}
	name, ok := ref.Left.(*ast.StrLit)
	if !ok {
		return false, nil
	}
	actual, ok := fc.frames[len(fc.frames)-1][strings.ToLower(name.Text)]
	if !ok {
		return false, nil
	}
	return true, p.Node(actual)
}

func (fc *FragmentCallbacks) lookup(call *ast.Interior) (*Fragment, bool) {
	name, ok := call.Left.(*ast.StrLit)
	if !ok {
		return nil, false
	}
	return fc.Registry.Lookup(name.Text)
}

// inline pushes a substitution frame binding frag's formals to call's
// actual argument subtrees, prints frag's body — TableRename intercepts any
// name_ref matching a formal along the way — and pops the frame.
func (fc *FragmentCallbacks) inline(frag *Fragment, call *ast.Interior, p *Printer) error {
	args := consListNodes(call.Right)
	if len(args) != len(frag.Formals) {
		return fmt.Errorf("regen: fragment %s expects %d argument(s), got %d", frag.Name, len(frag.Formals), len(args))
	}
	frame := make(map[string]ast.Node, len(frag.Formals))
	for i, formal := range frag.Formals {
		frame[strings.ToLower(formal)] = args[i]
	}
	fc.frames = append(fc.frames, frame)
	defer func() { fc.frames = fc.frames[:len(fc.frames)-1] }()
	return p.Node(frag.Body)
}

// consListNodes walks a right-linked cons list the same way
// sem.ConsListToSlice does; duplicated rather than imported, matching this
// package's existing practice of never importing internal/sem.
func consListNodes(head ast.Node) []ast.Node {
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

// NewFragmentCall builds a fragment_call node: Left the fragment's name,
// Right a cons list of argument expressions.
func NewFragmentCall(a *ast.Arena, name string, args []ast.Node) (ast.Node, error) {
	nameLeaf, err := a.NewStrLeaf(ast.StrIdentifier, name)
	if err != nil {
		return nil, err
	}
	argList, err := newArgList(a, args)
	if err != nil {
		return nil, err
	}
	return a.NewNode(kindFragmentCall, nameLeaf, argList)
}

func newArgList(a *ast.Arena, items []ast.Node) (ast.Node, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var head ast.Node
	var tail *ast.Interior
	for _, item := range items {
		cell, err := a.NewNode(kindArgList, item, nil)
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

// NewNameRef builds a name_ref node referring to name.
func NewNameRef(a *ast.Arena, name string) (ast.Node, error) {
	leaf, err := a.NewStrLeaf(ast.StrIdentifier, name)
	if err != nil {
		return nil, err
	}
	return a.NewNode(kindNameRef, leaf, nil)
}

// NewCTE builds one WITH-clause entry: Left the alias, Right the body (a
// fragment_call for a shared-fragment CTE, or any other already-built
// subtree for a CTE needing no special handling).
func NewCTE(a *ast.Arena, alias string, body ast.Node) (ast.Node, error) {
	aliasLeaf, err := a.NewStrLeaf(ast.StrIdentifier, alias)
	if err != nil {
		return nil, err
	}
	return a.NewNode(kindCTE, aliasLeaf, body)
}

// NewArgBindingCTE builds a CTE entry that exists only to bind alias to a
// table-valued argument used by another fragment call elsewhere in the
// same query — CTESuppress drops it entirely; it never appears in output.
func NewArgBindingCTE(a *ast.Arena, alias string) (ast.Node, error) {
	marker, err := a.NewNode(kindArgBinding, nil, nil)
	if err != nil {
		return nil, err
	}
	return NewCTE(a, alias, marker)
}

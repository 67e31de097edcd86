package regen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
)

// Printer is the buffer regeneration writes into. Indentation is tracked
// explicitly via a level counter and applied lazily: NewLine only marks
// that a newline-plus-indent is owed, so a callback that wants to prepend
// text at the start of a line doesn't have to fight an indent that was
// already written.
type Printer struct {
	buf     strings.Builder
	opts    Options
	level   int
	pending bool // a newline+indent is owed before the next write
	atStart bool // true before anything has been written at all
}

// NewPrinter creates a printer configured by opts.
func NewPrinter(opts Options) *Printer {
	if opts.Callbacks == nil {
		opts.Callbacks = echoCallbacks{}
	}
	return &Printer{opts: opts, atStart: true}
}

// Indent increases the indentation level for subsequent NewLine calls.
func (p *Printer) Indent() { p.level++ }

// Dedent decreases the indentation level. No-op below zero.
func (p *Printer) Dedent() {
	if p.level > 0 {
		p.level--
	}
}

// NewLine marks that a newline and the current indent are owed before the
// next write.
func (p *Printer) NewLine() {
	if !p.atStart {
		p.pending = true
	}
}

// WriteString writes s, first flushing any pending newline/indent.
func (p *Printer) WriteString(s string) {
	if s == "" {
		return
	}
	p.flushPending()
	p.buf.WriteString(s)
	p.atStart = false
}

func (p *Printer) flushPending() {
	if p.pending {
		p.buf.WriteByte('\n')
		p.buf.WriteString(strings.Repeat("  ", p.level))
		p.pending = false
	}
}

// Options returns the options this printer was configured with, so
// callbacks can branch on Mode/minify flags.
func (p *Printer) Options() Options { return p.opts }

// String returns everything written so far.
func (p *Printer) String() string { return p.buf.String() }

// Print renders root using opts and returns the resulting text.
func Print(root ast.Node, opts Options) (string, error) {
	p := NewPrinter(opts)
	if err := p.Node(root); err != nil {
		return "", err
	}
	return p.String(), nil
}

// Node renders one node (and everything beneath it) at the printer's
// current position. It is exported so callbacks can recurse back into the
// printer for sub-expressions they don't want to handle themselves.
func (p *Printer) Node(n ast.Node) error {
	if n == nil {
		return nil
	}
	if handled, err := p.tryCallbacks(n); handled || err != nil {
		return err
	}
	switch node := n.(type) {
	case *ast.IntLit:
		p.WriteString(strconv.Itoa(int(node.Value)))
		return nil
	case *ast.NumLit:
		p.WriteString(node.Text)
		return nil
	case *ast.StrLit:
		return p.printStrLit(node)
	case *ast.QIDLit:
		p.WriteString(node.Escaped)
		return nil
	case *ast.Interior:
		return p.printInterior(node)
	default:
		return fmt.Errorf("regen: unknown node type %T", n)
	}
}

func (p *Printer) printStrLit(n *ast.StrLit) error {
	switch n.Tag {
	case ast.StrIdentifier:
		p.WriteString(n.Text)
	case ast.StrSQLLiteral, ast.StrCLiteral:
		p.WriteString(n.Text)
	case ast.StrQuotedIdentifier:
		p.WriteString(n.Text)
	default:
		p.WriteString(n.Text)
	}
	return nil
}

// tryCallbacks offers every relevant hook first refusal at n, in the order
// spec §4.5's table lists them. Most nodes match none and fall through.
func (p *Printer) tryCallbacks(n ast.Node) (bool, error) {
	cb := p.opts.Callbacks
	if cb == nil {
		return false, nil
	}
	type hook func(ast.Node, *Printer) (bool, error)
	for _, h := range []hook{
		cb.Variables, cb.Star, cb.SetKind, cb.CTESuppress, cb.CTEProc,
		cb.TableRename, cb.Func, cb.IfStmt, cb.IfNotExists, cb.NamedType, cb.ColDef,
	} {
		handled, err := h(n, p)
		if err != nil || handled {
			return handled, err
		}
	}
	return false, nil
}

func (p *Printer) printInterior(n *ast.Interior) error {
	kind := n.Kind()
	if _, isOp := opText[kind]; isOp {
		return p.printBinary(n)
	}
	switch kind {
	case KindNeg:
		p.WriteString("-")
		return p.printOperand(n.Left, kind)
	case KindNotExpr:
		p.WriteString("NOT ")
		return p.printOperand(n.Left, kind)
	case KindParen:
		p.WriteString("(")
		if err := p.Node(n.Left); err != nil {
			return err
		}
		p.WriteString(")")
		return nil
	case KindDot:
		if err := p.printOperand(n.Left, kind); err != nil {
			return err
		}
		p.WriteString(".")
		return p.printOperand(n.Right, kind)
	case KindCast:
		p.WriteString("CAST(")
		if err := p.Node(n.Left); err != nil {
			return err
		}
		p.WriteString(" AS ")
		if err := p.Node(n.Right); err != nil {
			return err
		}
		p.WriteString(")")
		return nil
	case KindBetween:
		return p.printBetween(n)
	case KindBetweenRewrite:
		// The marker's Right holds the original, untouched between_expr
		// (spec §4.4.5: "the regenerator must know how to undo each
		// rewrite"); Left, the desugared and/ge/le subtree, is only for
		// passes downstream of analysis and is never what gets printed.
		return p.Node(n.Right)
	default:
		return p.printDefault(n)
	}
}

// printBetween renders a between_expr node (Left: x, Right: a between_bounds
// interior whose Left/Right are lo/hi) as "x BETWEEN lo AND hi".
func (p *Printer) printBetween(n *ast.Interior) error {
	bounds, ok := n.Right.(*ast.Interior)
	if !ok {
		return p.printDefault(n)
	}
	if err := p.printOperand(n.Left, KindBetween); err != nil {
		return err
	}
	p.WriteString(" BETWEEN ")
	if err := p.printOperand(bounds.Left, KindBetween); err != nil {
		return err
	}
	p.WriteString(" AND ")
	return p.printOperand(bounds.Right, KindBetween)
}

func (p *Printer) printBinary(n *ast.Interior) error {
	kind := n.Kind()
	if err := p.printOperand(n.Left, kind); err != nil {
		return err
	}
	p.WriteString(" " + opText[kind] + " ")
	return p.printOperandRight(n.Right, kind)
}

// printOperand renders a left/unary operand, parenthesizing if its own
// priority is lower than parentKind's.
func (p *Printer) printOperand(child ast.Node, parentKind ast.Kind) error {
	return p.printOperandWith(child, parentKind, false)
}

// printOperandRight renders a right operand of a binary operator:
// equal-priority right operands also get parens, since regenerated text
// must re-parse with the same left-associative grouping.
func (p *Printer) printOperandRight(child ast.Node, parentKind ast.Kind) error {
	return p.printOperandWith(child, parentKind, true)
}

func (p *Printer) printOperandWith(child ast.Node, parentKind ast.Kind, isRight bool) error {
	childInterior, ok := child.(*ast.Interior)
	needsParens := false
	if ok {
		cp, pp := Priority(childInterior.Kind()), Priority(parentKind)
		if cp >= 0 && pp >= 0 {
			needsParens = cp < pp || (isRight && cp == pp)
		}
	}
	if needsParens {
		p.WriteString("(")
		if err := p.Node(child); err != nil {
			return err
		}
		p.WriteString(")")
		return nil
	}
	return p.Node(child)
}

// printDefault renders any interior kind this package has no specific
// rendering for (the bulk of the DDL/DML/procedural grammar, which is out
// of spec's scope — see spec §1) as a tagged, space-separated form:
// "KIND left right". This keeps every node printable — required for
// diagnostics and for @TEXT/@ID, which must be able to echo any argument —
// without committing to the full surface grammar.
func (p *Printer) printDefault(n *ast.Interior) error {
	p.WriteString(string(n.Kind()))
	if n.Left != nil {
		p.WriteString(" ")
		if err := p.Node(n.Left); err != nil {
			return err
		}
	}
	if n.Right != nil {
		p.WriteString(" ")
		if err := p.Node(n.Right); err != nil {
			return err
		}
	}
	return nil
}

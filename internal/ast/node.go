// Package ast implements the arena-allocated, heterogeneous abstract syntax
// tree that every later compiler pass (macro expansion, semantic analysis,
// SQL regeneration) operates on in place.
//
// Every node carries a common header (kind, source position, parent link,
// and a lazily-attached semantic record); interior nodes additionally carry
// left/right children, and leaves carry one of four discriminated payloads.
// There is no per-node free: nodes live in an Arena for the duration of a
// compile and are released as a unit.
package ast

// Kind discriminates interior node shapes (e.g. "select_stmt",
// "create_table_stmt") as well as the four leaf variants. It plays the role
// the spec calls "the AST-internal kind": which variant of node this is, as
// opposed to the user-visible phantom-type "kind" tracked on Sem.
type Kind string

// Leaf kinds. Interior kinds are declared where they are consumed (macro,
// sem, regen) to keep the grammar's vocabulary close to the code that
// interprets it.
const (
	KindIntLit Kind = "int_lit"
	KindNumLit Kind = "num_lit"
	KindStrLit Kind = "str_lit"
	KindQIDLit Kind = "qid_lit"
)

// Loc is a source position: the file/line pair every node must carry.
type Loc struct {
	File string
	Line int
}

// Node is the common interface implemented by every AST node, interior or
// leaf. It is Go's idiomatic stand-in for the sum type the spec's Design
// Notes call for: a type switch over a Node replaces the original's
// is_ast_X(n) macro explosion.
type Node interface {
	Kind() Kind
	Loc() Loc
	Parent() Node
	Sem() *Sem

	setParent(Node)
	setSem(*Sem)
}

// base is embedded by every concrete node variant and implements the
// header portion of Node.
type base struct {
	loc    Loc
	parent Node
	sem    *Sem
}

func (b *base) Loc() Loc       { return b.loc }
func (b *base) Parent() Node   { return b.parent }
func (b *base) Sem() *Sem      { return b.sem }
func (b *base) setParent(p Node) { b.parent = p }
func (b *base) setSem(s *Sem)    { b.sem = s }

// Interior is any non-leaf node: it has a kind, up to two children, and the
// common header. left/right nullability is per-kind, enforced by whichever
// pass builds the node, not by this type.
type Interior struct {
	base
	kind        Kind
	Left, Right Node
}

func (n *Interior) Kind() Kind { return n.kind }

// IntLit is the int-option leaf: a 32-bit tag used for enumerations
// embedded in the tree (join kinds, trigger flags, precedence markers).
// Not for arithmetic values — see NumLit for those.
type IntLit struct {
	base
	Value int32
}

func (n *IntLit) Kind() Kind { return KindIntLit }

// NumTag discriminates the four numeric-literal representations.
type NumTag int

const (
	NumBool NumTag = iota
	NumInt32
	NumInt64
	NumReal
)

// NumLit is the numeric-literal leaf. Text is the original textual form,
// preserved verbatim — the compiler must never re-normalize it, since
// floating point precision must survive an AST round-trip.
type NumLit struct {
	base
	Tag  NumTag
	Text string
}

func (n *NumLit) Kind() Kind { return KindNumLit }

// StrTag discriminates the string/identifier/blob leaf's four origins.
type StrTag int

const (
	StrSQLLiteral StrTag = iota
	StrCLiteral
	StrQuotedIdentifier
	StrIdentifier
)

// StrLit is the string/identifier/blob leaf. SQL literals are stored quoted
// and SQL-escaped; C-style literals are normalized to SQL form at ingest
// but Tag remembers the origin so the regenerator can render them back in
// their original style.
type StrLit struct {
	base
	Tag  StrTag
	Text string
}

func (n *StrLit) Kind() Kind { return KindStrLit }

// QIDLit is the quoted-identifier leaf: a pre-escaped mangled form of a
// free-text identifier (backtick-quoted `a b` is stored as X_aX20b).
// Escaped is what most passes operate on; Original is recoverable via
// Demangle for diagnostics that must echo user source verbatim.
type QIDLit struct {
	base
	Escaped  string
	Original string
}

func (n *QIDLit) Kind() Kind { return KindQIDLit }

// SetSem attaches a semantic record to node. Every later pass (semantic
// analysis, and any codegen backend reading its result) goes through this
// rather than a direct field assignment, since Sem is otherwise
// write-once-by-convention: a pass that finds Sem already set should treat
// the node as already analyzed rather than silently overwriting it.
func SetSem(node Node, sem *Sem) { node.setSem(sem) }

// IsLeaf reports whether n is one of the four leaf variants.
func IsLeaf(n Node) bool {
	switch n.(type) {
	case *IntLit, *NumLit, *StrLit, *QIDLit:
		return true
	default:
		return false
	}
}

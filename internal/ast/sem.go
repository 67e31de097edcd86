package ast

// CoreType is the type lattice's base type, ordered only by nullability
// (T is a subtype of T?, tracked separately via the NotNull flag).
type CoreType int

const (
	TypeNull CoreType = iota
	TypeBool
	TypeInt32
	TypeInt64
	TypeReal
	TypeText
	TypeBlob
	TypeObject
	TypeStruct
	TypeJoin
)

func (t CoreType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeReal:
		return "real"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	case TypeObject:
		return "object"
	case TypeStruct:
		return "struct"
	case TypeJoin:
		return "join"
	default:
		return "unknown"
	}
}

// Flags is a bitset over the ~30 boolean properties the semantic pass
// accumulates on a node.
type Flags uint64

const (
	FlagNotNull Flags = 1 << iota
	FlagSensitive
	FlagVariable
	FlagInArg
	FlagOutArg
	FlagHasShapeStorage
	FlagHasRow
	FlagInlineCall
	FlagUsed
	FlagError
	FlagBoxed
	FlagHasDML
	FlagCanThrow
)

// Has reports whether all bits in want are set.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Struct is the shape of a row, cursor, or procedure result: an ordered
// tuple of named, typed, nullability-tracked columns.
type Struct struct {
	Names      []string
	Kinds      []string // phantom-type tags, "" if none
	SemTypes   []*Sem   // one per column
	StructName string
}

// JoinMember is one aliased struct participating in a join scope.
type JoinMember struct {
	Alias            string
	Shape            *Struct
	NullabilityForce bool // true under an outer join: force every column nullable
}

// Join is the sem-type of a FROM clause: an ordered sequence of struct
// pointers with alias names and nullability overrides for outer joins.
type Join struct {
	Members []JoinMember
}

// TableInfo precomputes projections of a table's Struct that the analyzer
// and codegen backends need repeatedly: which columns are not-null, which
// form the primary/unique key, which are plain values, plus the type hash
// (spec §4.4, a digest over the sorted not-null-column descriptions).
type TableInfo struct {
	NotNullColumns []int
	KeyColumns     []int
	ValueColumns   []int
	typeHash       uint64
	typeHashValid  bool
}

// Sem is the semantic record attached, lazily and exactly once, to any AST
// node that participates in analysis.
type Sem struct {
	Type  CoreType
	Flags Flags

	// Kind is the optional user-declared phantom type, e.g. "<meters>".
	Kind string

	// Name is the canonical, case-preserved identifier this node resolves
	// to, if any.
	Name string

	Struct *Struct
	Join   *Join
	Table  *TableInfo

	// Error is set when analysis of this subtree failed; the owning node's
	// Flags gains FlagError and the flag propagates to ancestors.
	Error string
}

// NotNull reports whether this value is statically known not-null, either
// because its declared type says so or because flow analysis improved it.
func (s *Sem) NotNull() bool { return s != nil && s.Flags.Has(FlagNotNull) }

// Sensitive reports whether this value is tainted by a sensitive source.
func (s *Sem) Sensitive() bool { return s != nil && s.Flags.Has(FlagSensitive) }

// KindCompatible implements the phantom-kind compatibility rule: a value
// with no kind is compatible with anything; two non-empty kinds must be
// exactly equal. A kind ending in "set" gets no special treatment here.
func KindCompatible(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return a == b
}

// Package sem implements the semantic analyzer (spec component C4): the
// type lattice, nullability/sensitivity flow typing, schema registries and
// versioning, and the representative per-statement analyses spec §4.4.3
// calls out. The surface grammar (parsing DDL/DML/procedural text into an
// AST) is out of scope per spec §1; this package defines the minimal set
// of ast.Kind-tagged node shapes needed to exercise every analysis this
// spec names, the way internal/macro defines its own node vocabulary for
// macro constructs.
package sem

import "github.com/cqllang/cqlc/internal/ast"

// numericRank orders the numeric tower bool ⊂ int32 ⊂ int64 ⊂ real so that
// ConvertibleTo can answer "is a narrower numeric type assignable to a
// wider one" with a single integer comparison.
var numericRank = map[ast.CoreType]int{
	ast.TypeBool:  0,
	ast.TypeInt32: 1,
	ast.TypeInt64: 2,
	ast.TypeReal:  3,
}

func isNumeric(t ast.CoreType) bool {
	_, ok := numericRank[t]
	return ok
}

// ConvertibleTo reports whether a value of type from may be used where a
// value of type to is expected, without an explicit cast. Text, blob, and
// object are never implicitly convertible to anything but themselves;
// within the numeric tower, only widening conversions are implicit.
func ConvertibleTo(from, to ast.CoreType) bool {
	if from == to {
		return true
	}
	if isNumeric(from) && isNumeric(to) {
		return numericRank[from] <= numericRank[to]
	}
	return false
}

// AssignableKind reports whether a source sem record may be assigned to a
// target of the given declared type, not-null flag, and phantom kind. A
// mismatch is a hard error unless the caller has already verified an
// explicit cast is present.
func AssignableKind(src *ast.Sem, dstType ast.CoreType, dstNotNull bool, dstKind string) (bool, string) {
	if src == nil {
		return false, "value has no type"
	}
	if !ConvertibleTo(src.Type, dstType) {
		return false, "type mismatch: cannot convert " + src.Type.String() + " to " + dstType.String()
	}
	if dstNotNull && !src.NotNull() {
		return false, "nullability violation: nullable value assigned to a NOT NULL target"
	}
	if !ast.KindCompatible(src.Kind, dstKind) {
		return false, "incompatible kinds: <" + src.Kind + "> vs <" + dstKind + ">"
	}
	return true, ""
}

// SensitiveAssignOK reports whether assigning src into a target with the given
// sensitivity is legal: a sensitive value can never flow into a
// non-sensitive target.
func SensitiveAssignOK(src *ast.Sem, dstSensitive bool) (bool, string) {
	if src != nil && src.Sensitive() && !dstSensitive {
		return false, "sensitivity violation: sensitive value assigned to a non-sensitive target"
	}
	return true, ""
}

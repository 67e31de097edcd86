package sem

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strings"

	"github.com/cqllang/cqlc/internal/ast"
)

// TypeHash computes the stable 64-bit digest spec §4.4.1/§8.6 describes:
// a hash over every NOT NULL column's (name, core type) pair, sorted by
// case-folded name so column declaration order never affects the result.
// Only NOT NULL columns participate — per the spec's own testable
// property, adding a nullable column must not change the hash, while
// adding (or changing the type of) a NOT NULL column must.
func TypeHash(table *TableDef) uint64 {
	type entry struct {
		name string
		typ  ast.CoreType
	}
	var entries []entry
	for _, c := range table.Columns {
		if !c.NotNull {
			continue
		}
		entries = append(entries, entry{name: strings.ToLower(c.Name), typ: c.Type})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.name))
		h.Write([]byte{0})
		var typeBuf [4]byte
		binary.BigEndian.PutUint32(typeBuf[:], uint32(e.typ))
		h.Write(typeBuf[:])
	}
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8])
}

// ComputeTableInfo projects a TableDef into the ast.TableInfo shape the
// semantic record and codegen backends consume: indices of not-null, key,
// and plain-value columns, plus the type hash.
func ComputeTableInfo(table *TableDef) *ast.TableInfo {
	info := &ast.TableInfo{}
	for i, c := range table.Columns {
		if c.NotNull {
			info.NotNullColumns = append(info.NotNullColumns, i)
		}
		if c.PK || c.Unique {
			info.KeyColumns = append(info.KeyColumns, i)
		} else {
			info.ValueColumns = append(info.ValueColumns, i)
		}
	}
	return info
}

// Package symtab implements the case-insensitive, insertion-order-
// preserving symbol tables used for lexical scoping (proc locals, arg
// bundles, cursor fields, CTE scopes) and for the semantic analyzer's
// process-wide schema registries (tables, views, procs, ...).
package symtab

import "strings"

// Table is a case-insensitive string-keyed map that preserves insertion
// order, so that iteration (and therefore generated output) is
// deterministic regardless of Go's randomized map iteration order.
//
// Tables nest: a child created with New(parent) inherits lookups that miss
// locally by falling through to its parent, the way a proc-local scope
// falls through to its enclosing block and ultimately to the global
// registries. Inserts always land in the table they were called on, never
// in an ancestor.
type Table[V any] struct {
	parent *Table[V]
	index  map[string]int // lowercased key -> position in order
	keys   []string        // original-case keys, insertion order
	values []V
}

// New creates an empty table. parent may be nil for a top-level table.
func New[V any](parent *Table[V]) *Table[V] {
	return &Table[V]{parent: parent, index: make(map[string]int)}
}

func norm(key string) string { return strings.ToLower(key) }

// Insert adds key -> value if key is not already present in this table
// (ancestors are not consulted for the duplicate check — shadowing a
// parent's name is legal). Returns false without modifying the table if
// key was already present locally.
func (t *Table[V]) Insert(key string, value V) bool {
	k := norm(key)
	if _, exists := t.index[k]; exists {
		return false
	}
	t.index[k] = len(t.keys)
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
	return true
}

// Lookup returns the value for key, searching this table and then each
// ancestor in turn. ok is false if key is not found anywhere in the chain.
func (t *Table[V]) Lookup(key string) (value V, ok bool) {
	k := norm(key)
	for cur := t; cur != nil; cur = cur.parent {
		if i, exists := cur.index[k]; exists {
			return cur.values[i], true
		}
	}
	var zero V
	return zero, false
}

// LookupLocal is like Lookup but only consults this table, not ancestors.
// Used by duplicate-definition checks that must not be confused by a
// same-named symbol in an enclosing scope.
func (t *Table[V]) LookupLocal(key string) (value V, ok bool) {
	k := norm(key)
	if i, exists := t.index[k]; exists {
		return t.values[i], true
	}
	var zero V
	return zero, false
}

// Has reports whether key resolves anywhere in the chain.
func (t *Table[V]) Has(key string) bool {
	_, ok := t.Lookup(key)
	return ok
}

// Keys returns this table's own keys (not ancestors'), in insertion order.
func (t *Table[V]) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of entries in this table (not ancestors').
func (t *Table[V]) Len() int { return len(t.keys) }

// Each calls fn for every local entry, in insertion order. Stops early if
// fn returns false.
func (t *Table[V]) Each(fn func(key string, value V) bool) {
	for i, k := range t.keys {
		if !fn(k, t.values[i]) {
			return
		}
	}
}

// Parent returns the enclosing scope, or nil at the top.
func (t *Table[V]) Parent() *Table[V] { return t.parent }

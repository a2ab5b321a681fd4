// Package symtab holds the integer symbol table populated by .set/.equ and
// consulted by the expression evaluator and (for armasm) the line rewriter's
// textual substitution pass.
package symtab

// Table maps identifiers to the integer value bound by the most recent
// .set/.equ. Symbols live for the remainder of the stream once defined
// (spec.md §3 Lifecycle).
type Table struct {
	values map[string]int64
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{values: make(map[string]int64)}
}

// Set binds name to value, overwriting any previous binding.
func (t *Table) Set(name string, value int64) {
	t.values[name] = value
}

// Lookup returns the bound value and whether name is defined.
func (t *Table) Lookup(name string) (int64, bool) {
	v, ok := t.values[name]
	return v, ok
}

// Names returns every currently bound symbol name, in no particular order.
// Used by the armasm rewriter to substitute all known values into a line.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	return names
}

// Package macro implements the macro and repetition engine (spec.md §4.4):
// .macro/.endm capture and expansion with positional/named/default/:vararg
// arguments, .rept/.irp/.irpc repetition, and .altmacro textual
// substitution. Body lines are captured verbatim; expansion re-feeds
// substituted lines to the caller, which pushes them back through the rest
// of the pipeline (spec.md Design Notes: a work queue, not recursion).
package macro

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/symtab"
)

// Param is one formal parameter of a macro definition.
type Param struct {
	Name       string
	Default    string
	HasDefault bool
	Vararg     bool
}

// Definition is a captured .macro body.
type Definition struct {
	Name   string
	Params []Param
	Body   []string
}

// Table holds all currently-defined macros and the shared \@ counter.
type Table struct {
	defs    map[string]*Definition
	counter int
}

// New returns an empty macro table.
func New() *Table {
	return &Table{defs: make(map[string]*Definition)}
}

// Define installs def, replacing any prior definition of the same name.
func (t *Table) Define(def *Definition) {
	t.defs[strings.ToLower(def.Name)] = def
}

// Purge implements .purgem.
func (t *Table) Purge(name string) {
	delete(t.defs, strings.ToLower(name))
}

// Lookup returns the definition for name, if any.
func (t *Table) Lookup(name string) (*Definition, bool) {
	d, ok := t.defs[strings.ToLower(name)]
	return d, ok
}

// nextCounter returns the next \@ value; each macro invocation (not each
// body line) consumes exactly one value.
func (t *Table) nextCounter() int {
	t.counter++
	return t.counter
}

var headerArgSplit = regexp.MustCompile(`[,\s]+`)

// ParseHeader parses a ".macro NAME arg1=default arg2:vararg ..." header
// (with the leading ".macro" already stripped) into the macro name and its
// parameter list.
func ParseHeader(rest string) (string, []Param, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(rest), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("missing macro name in .macro directive")
	}
	name := fields[0]
	params := make([]Param, 0, len(fields)-1)
	for _, f := range fields[1:] {
		p := Param{Name: f}
		if idx := strings.Index(p.Name, "="); idx >= 0 {
			p.Default = p.Name[idx+1:]
			p.HasDefault = true
			p.Name = p.Name[:idx]
		}
		if strings.HasSuffix(p.Name, ":vararg") {
			p.Vararg = true
			p.Name = strings.TrimSuffix(p.Name, ":vararg")
		}
		params = append(params, p)
	}
	for i, p := range params {
		if p.Vararg && i != len(params)-1 {
			return "", nil, fmt.Errorf("vararg parameter must be last, found %q at position %d", p.Name, i)
		}
	}
	return name, params, nil
}

// invokeLine matches a potential macro call line: "[label:] NAME [args]".
// MatchInvocation returns its leading label (may be empty), the macro name,
// the raw argument text, and whether the line matched at all.
var invokeLine = regexp.MustCompile(`^\s*(?:([A-Za-z_.$][\w.$]*)\s*:\s*)?([A-Za-z_.$][\w.$]*)\s*(.*)$`)

func MatchInvocation(line string) (label, name, args string, ok bool) {
	m := invokeLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], strings.TrimSpace(m[3]), true
}

// Expand binds args against def's parameters and returns the substituted
// body lines, ready to be fed back through the pipeline. altmacro enables
// bare-PARAM substitution in addition to \PARAM. syms is the engine's live
// .set/.equ table, consulted (not mutated) by .altmacro's %EXPR
// substitution so it can see symbols beyond the macro's own parameters.
func (t *Table) Expand(def *Definition, args string, altmacro bool, syms *symtab.Table) ([]string, error) {
	bound, err := bindArguments(def, args)
	if err != nil {
		return nil, err
	}
	counter := t.nextCounter()
	out := make([]string, 0, len(def.Body))
	for _, line := range def.Body {
		out = append(out, substituteBody(line, def.Params, bound, counter, altmacro, syms))
	}
	return out, nil
}

// argToken is one flattened invocation-time argument together with the
// separator that preceded it at the call site: "" for the very first
// token, "," when it opens a new comma-slot, " " when it continues the
// previous slot's whitespace-separated run (spec.md §4.4). Recording this
// lets :vararg absorption reproduce the caller's own separators instead of
// forcing one fixed joiner.
type argToken struct {
	text string
	sep  string
}

// tokenizeArgs implements spec.md §4.4's invocation-time tokenization:
// split on top-level commas into slots, then further split each slot on
// whitespace.
func tokenizeArgs(args string) []argToken {
	var tokens []argToken
	for slotIdx, slot := range splitTopLevelCommas(args) {
		for wordIdx, w := range strings.Fields(slot) {
			sep := " "
			switch {
			case slotIdx == 0 && wordIdx == 0:
				sep = ""
			case wordIdx == 0:
				sep = ","
			}
			tokens = append(tokens, argToken{text: w, sep: sep})
		}
	}
	return tokens
}

// joinVararg reproduces the caller's separators (comma-slot boundary vs.
// in-slot whitespace) when absorbing trailing positional arguments into a
// :vararg parameter.
func joinVararg(tokens []argToken) string {
	var b strings.Builder
	for _, tok := range tokens {
		if b.Len() > 0 {
			if tok.sep == "," {
				b.WriteString(", ")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(tok.text)
	}
	return b.String()
}

// bindArguments implements spec.md §4.4's argument binding and the
// last-write-wins named/positional interaction documented in
// SPEC_FULL.md's Open Question 1: positional binding happens first, left to
// right; a named argument always overwrites whatever positional binding
// landed on that parameter.
func bindArguments(def *Definition, args string) (map[string]string, error) {
	tokens := tokenizeArgs(args)

	bound := make(map[string]string, len(def.Params))
	for _, p := range def.Params {
		if p.HasDefault {
			bound[p.Name] = p.Default
		}
	}

	paramIndex := make(map[string]int, len(def.Params))
	for i, p := range def.Params {
		paramIndex[p.Name] = i
	}

	var positional []argToken
	var named []struct{ name, value string }
	for _, tok := range tokens {
		if name, value, ok := splitNamedArg(tok.text, paramIndex); ok {
			named = append(named, struct{ name, value string }{name, value})
			continue
		}
		positional = append(positional, tok)
	}

	nonVarargCount := len(def.Params)
	varargIdx := -1
	if len(def.Params) > 0 && def.Params[len(def.Params)-1].Vararg {
		varargIdx = len(def.Params) - 1
		nonVarargCount = varargIdx
	}

	for i := 0; i < len(positional); i++ {
		if i < nonVarargCount {
			bound[def.Params[i].Name] = positional[i].text
			continue
		}
		if varargIdx < 0 {
			return nil, fmt.Errorf("macro %q: too many positional arguments", def.Name)
		}
		bound[def.Params[varargIdx].Name] = joinVararg(positional[i:])
		break
	}

	for _, n := range named {
		bound[n.name] = n.value
	}

	for _, p := range def.Params {
		if _, ok := bound[p.Name]; !ok {
			bound[p.Name] = ""
		}
	}
	return bound, nil
}

func splitNamedArg(field string, known map[string]int) (name, value string, ok bool) {
	idx := strings.Index(field, "=")
	if idx < 0 {
		return "", "", false
	}
	candidate := strings.TrimSpace(field[:idx])
	if _, isParam := known[candidate]; !isParam {
		return "", "", false
	}
	return candidate, strings.TrimSpace(field[idx+1:]), true
}

// splitTopLevelCommas splits on commas that are not nested inside
// parentheses, since operand expressions may themselves contain commas
// inside e.g. shift specifiers.
func splitTopLevelCommas(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// substituteBody applies \@, \(), and \PARAM / bare-PARAM (altmacro only)
// substitution to one captured body line. Parameters are substituted
// longest-name-first to avoid prefix capture (spec.md §4.4).
func substituteBody(line string, params []Param, bound map[string]string, counter int, altmacro bool, syms *symtab.Table) string {
	if altmacro {
		line = substituteAltmacroExpr(line, bound, syms)
	}

	sorted := make([]Param, len(params))
	copy(sorted, params)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i].Name) > len(sorted[j].Name) })

	line = strings.ReplaceAll(line, `\@`, fmt.Sprintf("%d", counter))
	line = strings.ReplaceAll(line, `\()`, "")

	for _, p := range sorted {
		line = strings.ReplaceAll(line, `\`+p.Name, bound[p.Name])
	}

	if altmacro {
		for _, p := range sorted {
			line = replaceWordBounded(line, p.Name, bound[p.Name])
		}
	}
	return line
}

var identBoundary = regexp.MustCompile(`[A-Za-z0-9_.$]`)

// replaceWordBounded replaces whole-word occurrences of name in s with
// value, used for altmacro's bare-parameter substitution.
func replaceWordBounded(s, name, value string) string {
	if name == "" {
		return s
	}
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(s[i:], name)
		if idx < 0 {
			b.WriteString(s[i:])
			break
		}
		start := i + idx
		end := start + len(name)
		boundedBefore := start == 0 || !identBoundary.MatchString(string(s[start-1]))
		boundedAfter := end == len(s) || !identBoundary.MatchString(string(s[end]))
		b.WriteString(s[i:start])
		if boundedBefore && boundedAfter {
			b.WriteString(value)
		} else {
			b.WriteString(s[start:end])
		}
		i = end
	}
	return b.String()
}

package rewrite

import (
	"fmt"
	"regexp"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
)

var ldrLiteral = regexp.MustCompile(`^(\s*ldr\s+)([A-Za-z0-9_]+)(\s*,\s*)=(.+?)\s*$`)

// RewriteLiteralPoolLoad implements the ARM literal pool rule (spec.md §4.5):
// "ldr Rd, =EXPR" (non-armasm) allocates or reuses a Literal_<n> label for
// EXPR and rewrites the line to reference it directly.
func (s *State) RewriteLiteralPoolLoad(line string) (string, bool) {
	m := ldrLiteral.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	label := s.literalLabel(m[4])
	return m[1] + m[2] + m[3] + label + "\n", true
}

// FlushLiteralPoolLines renders the .ltorg / end-of-stream literal pool
// flush: an alignment directive, then one "<label>:" and one word-directive
// line per pending literal, in allocation order (spec.md §4.5/§4.6).
func (s *State) FlushLiteralPoolLines() []string {
	pending := s.FlushLiteralPool()
	if len(pending) == 0 {
		return nil
	}
	align := 2
	if s.Arch == archinfo.AArch64 {
		align = 3
	}
	out := make([]string, 0, 1+2*len(pending))
	out = append(out, fmt.Sprintf(".align %d\n", align))
	for _, p := range pending {
		out = append(out, p.Label+":\n")
		out = append(out, fmt.Sprintf("\t%s %s\n", s.Arch.WordDirective(), p.Expr))
	}
	return out
}

var adrpPgHi21 = regexp.MustCompile(`^(\s*adrp\s+\S+\s*,\s*)#:pg_hi21:(\S+)\s*$`)
var addLo12 = regexp.MustCompile(`^(\s*add\s+\S+\s*,\s*\S+\s*,\s*)#:lo12:(\S+)\s*$`)

// RewriteApplePCRelative implements the apple-dialect adrp/add pc-relative
// rewrite (spec.md §4.5 / S4): "#:pg_hi21:SYM" -> "SYM@PAGE" and
// "#:lo12:SYM" -> "SYM@PAGEOFF".
func (s *State) RewriteApplePCRelative(line string) (string, bool) {
	if m := adrpPgHi21.FindStringSubmatch(line); m != nil {
		return m[1] + m[2] + "@PAGE\n", true
	}
	if m := addLo12.FindStringSubmatch(line); m != nil {
		return m[1] + m[2] + "@PAGEOFF\n", true
	}
	return line, false
}

package rewrite

import (
	"regexp"
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
)

var appleRenames = []struct {
	from *regexp.Regexp
	to   string
}{
	{regexp.MustCompile(`^(\s*)\.global\b`), "${1}.globl"},
	{regexp.MustCompile(`^(\s*)\.rodata\b`), "${1}.const_data"},
	{regexp.MustCompile(`^(\s*)\.int\b`), "${1}.long"},
	{regexp.MustCompile(`^(\s*)\.float\b`), "${1}.single"},
}

var vmrsApsr = regexp.MustCompile(`^\s*vmrs\s+APSR_nzcv\s*,.*\s*$`)

var directiveName = regexp.MustCompile(`^\s*\.([\w.-]+)`)

// RewriteAppleDirectives implements the apple-specific renames and
// unsupported-directive comment-out table (spec.md §4.5 Apple-specific).
// apple-gas only gets the vmrs->fmrx shim.
func (s *State) RewriteAppleDirectives(line string) string {
	if !s.Feat.Apple {
		return line
	}
	if s.Dialect.String() == "apple-gas" && vmrsApsr.MatchString(line) {
		return "fmrx r15\n"
	}
	for _, r := range appleRenames {
		if r.from.MatchString(line) {
			return r.from.ReplaceAllString(line, r.to)
		}
	}
	if m := directiveName.FindStringSubmatch(line); m != nil {
		if s.Feat.CommentOutUnsupported[m[1]] {
			comment := string(s.Arch.CommentChar())
			if s.Arch == archinfo.AArch64 {
				comment += comment // "//"
			}
			return comment + " " + strings.TrimLeft(line, " \t")
		}
	}
	return line
}

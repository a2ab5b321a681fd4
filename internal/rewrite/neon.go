package rewrite

import (
	"regexp"
	"strings"
)

var neonAliasDef = regexp.MustCompile(`^\s*(\w+)\s+\.(dn|qn)\s+(\w+)(?:\.(\w+))?(\[\d+\])?\s*$`)
var neonIdent = regexp.MustCompile(`\w+`)

// RecordNeonAlias implements "NAME .dn|.qn REG[.TYPE][INDEX]" alias
// recording (spec.md §4.5 ARM NEON aliases).
func (s *State) RecordNeonAlias(line string) bool {
	m := neonAliasDef.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	s.neonAliases[m[1]] = neonAlias{Reg: m[3] + m[5], Datatype: m[4]}
	return true
}

// ApplyNeonAliases implements the NEON alias substitution rule: a line
// whose first instruction begins with 'v' has every alias occurrence
// (word-bounded) replaced by its canonical register; the first replacement
// also appends the alias's datatype suffix to the mnemonic.
func (s *State) ApplyNeonAliases(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "v") {
		return line
	}
	if len(s.neonAliases) == 0 {
		return line
	}
	first := true
	mnemonicSuffix := ""
	out := neonIdent.ReplaceAllStringFunc(line, func(word string) string {
		alias, ok := s.neonAliases[word]
		if !ok {
			return word
		}
		if first {
			if alias.Datatype != "" {
				mnemonicSuffix = "." + alias.Datatype
			}
			first = false
		}
		return alias.Reg
	})
	if mnemonicSuffix != "" {
		fields := strings.SplitN(strings.TrimLeft(out, " \t"), " ", 2)
		indent := out[:len(out)-len(strings.TrimLeft(out, " \t"))]
		if len(fields) == 2 {
			out = indent + fields[0] + mnemonicSuffix + " " + fields[1]
		}
	}
	return out
}

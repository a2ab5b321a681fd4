package rewrite

import (
	"fmt"
	"regexp"
	"strings"
)

var reqDef = regexp.MustCompile(`^\s*(\w+)\s+\.req\s+(\w+)\s*$`)
var unreqDef = regexp.MustCompile(`^\s*\.unreq\s+(\w+)\s*$`)
var reqIdent = regexp.MustCompile(`\w+`)

// RecordReq implements "ALIAS .req REG" recording (spec.md §4.5 AArch64
// .req). Aliases resolve transitively: REG may itself be an alias.
func (s *State) RecordReq(line string) bool {
	m := reqDef.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	s.reqAliases[m[1]] = m[2]
	return true
}

// Unreq implements ".unreq ALIAS", returning the emitted line(s): under
// -fix-unreq, the directive is duplicated once per case of the alias name
// to work around old gas storing both cases (spec.md §4.5 ".unreq" casing
// fix).
func (s *State) Unreq(line string) []string {
	m := unreqDef.FindStringSubmatch(line)
	if m == nil {
		return []string{line}
	}
	name := m[1]
	delete(s.reqAliases, name)
	if !s.FixUnreq {
		return []string{line}
	}
	return []string{
		fmt.Sprintf(".unreq %s\n", strings.ToLower(name)),
		fmt.Sprintf(".unreq %s\n", strings.ToUpper(name)),
	}
}

// resolveReq follows the alias chain for name to its fixed point.
func (s *State) resolveReq(name string) string {
	seen := map[string]bool{}
	for {
		next, ok := s.reqAliases[name]
		if !ok || seen[name] {
			return name
		}
		seen[name] = true
		name = next
	}
}

// ApplyReqAliases resolves every .req alias occurrence in line to its fixed
// point, active in aarch64 or armasm dialect (spec.md §4.5).
func (s *State) ApplyReqAliases(line string) string {
	if len(s.reqAliases) == 0 {
		return line
	}
	return reqIdent.ReplaceAllStringFunc(line, func(word string) string {
		if _, ok := s.reqAliases[word]; !ok {
			return word
		}
		return s.resolveReq(word)
	})
}

package rewrite

import (
	"regexp"
)

var dotLLabel = regexp.MustCompile(`\.L[\w$]*`)

// StripLabelDot implements apple-dialect/armasm ".L" label-dot stripping:
// identifiers beginning with ".L" lose the leading '.' (spec.md §4.5
// Label-dot stripping).
func (s *State) StripLabelDot(line string) string {
	if !s.Feat.Apple && !s.Feat.IsArmasm {
		return line
	}
	return dotLLabel.ReplaceAllStringFunc(line, func(m string) string {
		return m[1:]
	})
}

var numericLabelDef = regexp.MustCompile(`^\s*(\d+)\s*:`)
var numericLabelRefF = regexp.MustCompile(`\b(\d+)f\b`)
var numericLabelRefB = regexp.MustCompile(`\b(\d+)b\b`)

// ObserveNumericLabelDef records a definition of numeric local label n
// (spec.md §3 Local-label state). If a forward reference to n is already
// pending (allocated by ResolveNumericLabelForward before this definition
// was reached), this definition fulfills that promise and becomes its
// backward target too; otherwise a fresh name is allocated.
func (s *State) ObserveNumericLabelDef(n string) string {
	st, ok := s.localLabels[n]
	if !ok {
		st = &localLabelState{}
		s.localLabels[n] = st
	}
	var name string
	if st.pendingForward != "" {
		name = st.pendingForward
		st.pendingForward = ""
	} else {
		name = s.nextTempLabel()
	}
	st.lastBackward = name
	return name
}

// ResolveNumericLabelForward returns the synthesized name that every "Nf"
// reference to n between this point and n's next definition resolves to
// (spec.md §8 property 5: local-label isolation).
func (s *State) ResolveNumericLabelForward(n string) string {
	st, ok := s.localLabels[n]
	if !ok {
		st = &localLabelState{}
		s.localLabels[n] = st
	}
	if st.pendingForward == "" {
		st.pendingForward = s.nextTempLabel()
	}
	return st.pendingForward
}

// ResolveNumericLabelBackward returns the synthesized name that an "Nb"
// reference to n resolves to: the most recently defined occurrence.
func (s *State) ResolveNumericLabelBackward(n string) string {
	st, ok := s.localLabels[n]
	if !ok {
		return n
	}
	return st.lastBackward
}

// RewriteNumericLabelRefs rewrites every "Nf"/"Nb" reference in line to its
// synthesized local-label name (spec.md §4.5 armasm local numeric labels,
// used for branches/cbz/cbnz/tbz/tbnz/adr/data directives).
func (s *State) RewriteNumericLabelRefs(line string) string {
	line = numericLabelRefF.ReplaceAllStringFunc(line, func(m string) string {
		n := m[:len(m)-1]
		return s.ResolveNumericLabelForward(n)
	})
	line = numericLabelRefB.ReplaceAllStringFunc(line, func(m string) string {
		n := m[:len(m)-1]
		return s.ResolveNumericLabelBackward(n)
	})
	return line
}

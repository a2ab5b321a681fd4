package rewrite

import "fmt"

// PushSection implements .text/.section NAME/.const_data: push a new entry
// onto the section stack.
func (s *State) PushSection(name string) {
	s.SectionStack = append(s.SectionStack, name)
}

// PopPrevious implements .previous: pop the current section and return the
// entry below it, which is active again. Fatal if there is no prior entry.
func (s *State) PopPrevious() (string, error) {
	if len(s.SectionStack) < 2 {
		return "", fmt.Errorf(".previous without a prior section")
	}
	s.SectionStack = s.SectionStack[:len(s.SectionStack)-1]
	return s.SectionStack[len(s.SectionStack)-1], nil
}

// Package rewrite implements the serialized-line rewriter (spec.md §4.5):
// the rule pipeline applied to each fully expanded, condition-true line,
// adapting instructions, operands, labels, sections, and pseudo-ops to the
// target architecture and dialect.
package rewrite

import (
	"fmt"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/symtab"
)

// State carries every table the rewrite rules mutate across lines
// (spec.md §3, §9 "Global mutable state": encapsulated here rather than
// left as ambient package globals).
type State struct {
	Arch    archinfo.Arch
	Dialect dialect.Dialect
	Feat    dialect.Features
	Syms    *symtab.Table

	FixUnreq   bool
	ForceThumb bool
	FixXcode5  bool

	ArmasmSkipNegOffset bool
	ArmasmSkipPrfum     bool
	ArmasmInvertScale   bool

	Thumb bool // current .code 16/.thumb vs .code 32/.arm mode

	// literal pool: expression text -> synthesized label name, insertion order preserved
	literalOrder []string
	literalNames map[string]string
	literalNext  int

	// local numeric labels: digit string -> state
	localLabels map[string]*localLabelState

	// register aliases
	reqAliases  map[string]string    // AArch64/armasm .req
	neonAliases map[string]neonAlias // ARM NEON .dn/.qn

	SectionStack []string

	ThumbLabels  map[string]bool
	CallTargets  map[string]bool
	ImportSyms   map[string]bool
	LabelsSeen   map[string]bool

	tempLabelNext int

	mov32 Mov32Collapser
}

type localLabelState struct {
	lastBackward   string
	pendingForward string
}

type neonAlias struct {
	Reg      string
	Datatype string
}

// New returns a fresh rewrite state for one translation unit.
func New(arch archinfo.Arch, d dialect.Dialect, syms *symtab.Table) *State {
	return &State{
		Arch:         arch,
		Dialect:      d,
		Feat:         dialect.Lookup(d),
		Syms:         syms,
		FixUnreq:     true,
		literalNames: make(map[string]string),
		localLabels:  make(map[string]*localLabelState),
		reqAliases:   make(map[string]string),
		neonAliases:  make(map[string]neonAlias),
		ThumbLabels:  make(map[string]bool),
		CallTargets:  make(map[string]bool),
		ImportSyms:   make(map[string]bool),
		LabelsSeen:   make(map[string]bool),
	}
}

// literalLabel returns the synthesized label for expr, allocating one if
// this is the first occurrence since the last reset (spec.md §3 Literal-pool
// map, §8 property 4: same expression resolves to the same label within an
// epoch).
func (s *State) literalLabel(expr string) string {
	if name, ok := s.literalNames[expr]; ok {
		return name
	}
	name := fmt.Sprintf("Literal_%d", s.literalNext)
	s.literalNext++
	s.literalNames[expr] = name
	s.literalOrder = append(s.literalOrder, expr)
	return name
}

// FlushLiteralPool returns the pending (expr, label) pairs in allocation
// order and clears the pool (.ltorg / end of stream, spec.md §4.5/§4.6).
func (s *State) FlushLiteralPool() []struct{ Expr, Label string } {
	out := make([]struct{ Expr, Label string }, 0, len(s.literalOrder))
	for _, e := range s.literalOrder {
		out = append(out, struct{ Expr, Label string }{e, s.literalNames[e]})
	}
	s.literalOrder = nil
	s.literalNames = make(map[string]string)
	return out
}

// nextTempLabel synthesizes a fresh local-label name (armasm numeric-label
// lowering, spec.md §4.5).
func (s *State) nextTempLabel() string {
	s.tempLabelNext++
	return fmt.Sprintf("temp_label_%d", s.tempLabelNext)
}

// Package emit implements the output emitter and end-of-stream epilogue
// (spec.md §4.6): translated lines are written verbatim as they arrive;
// at end of stream a dialect-specific epilogue flushes the literal pool,
// thumb-function markers, or armasm IMPORT/END directives.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/rewrite"
)

// Writer emits translated lines to an underlying stream.
type Writer struct {
	w *bufio.Writer
}

// New wraps w.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Line writes one already-translated line verbatim.
func (e *Writer) Line(line string) error {
	_, err := e.w.WriteString(line)
	return err
}

// Flush flushes any buffered output.
func (e *Writer) Flush() error {
	return e.w.Flush()
}

// Epilogue writes the end-of-stream epilogue (spec.md §4.6): for non-armasm
// dialects, .text + alignment + the flushed literal pool + .thumb_func tags
// for every label that is both a thumb label and a recorded call target;
// for armasm, IMPORT for every outstanding call target / import symbol not
// already declared locally, then END.
func (e *Writer) Epilogue(s *rewrite.State, arch archinfo.Arch, d dialect.Dialect) error {
	if dialect.Lookup(d).IsArmasm {
		return e.armasmEpilogue(s)
	}
	return e.gasEpilogue(s, arch)
}

func (e *Writer) gasEpilogue(s *rewrite.State, arch archinfo.Arch) error {
	if err := e.Line(".text\n"); err != nil {
		return err
	}
	align := "2"
	if arch == archinfo.AArch64 {
		align = "3"
	}
	if err := e.Line(fmt.Sprintf(".align %s\n", align)); err != nil {
		return err
	}
	for _, l := range s.FlushLiteralPoolLines() {
		if err := e.Line(l); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(s.ThumbLabels) {
		if s.CallTargets[name] {
			if err := e.Line(fmt.Sprintf(".thumb_func %s\n", name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Writer) armasmEpilogue(s *rewrite.State) error {
	for _, name := range sortedKeys(s.CallTargets) {
		if !s.LabelsSeen[name] {
			if err := e.Line(fmt.Sprintf("IMPORT %s\n", name)); err != nil {
				return err
			}
		}
	}
	for _, name := range sortedKeys(s.ImportSyms) {
		if s.CallTargets[name] || s.LabelsSeen[name] {
			continue
		}
		if err := e.Line(fmt.Sprintf("IMPORT %s\n", name)); err != nil {
			return err
		}
	}
	return e.Line("END\n")
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

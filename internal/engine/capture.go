package engine

import (
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/macro"
)

// captureKind distinguishes the two directive families whose bodies are
// captured verbatim (spec.md §4.4): .macro/.endm and the .rept/.irp/.irpc
// family, which all close on .endr.
type captureKind int

const (
	captureMacro captureKind = iota
	captureRept
)

// capture accumulates one open .macro or repetition body. depth counts
// nested openers of the SAME family so an inner .macro/.rept doesn't
// prematurely close the outer one; directives of the other family, and any
// plain instruction lines, pass through untouched until the matching
// closer is seen (spec.md §4.4: "no directive is evaluated inside a
// captured body, only counted for nesting").
type capture struct {
	kind  captureKind
	depth int
	lines []string

	macroName   string
	macroParams []macro.Param

	repKind  macro.RepKind
	repCount int
	repParam string
	repArgs  []string
}

func beginMacroCapture(rest string) (*capture, error) {
	name, params, err := macro.ParseHeader(rest)
	if err != nil {
		return nil, err
	}
	return &capture{kind: captureMacro, macroName: name, macroParams: params}, nil
}

func beginReptCapture(count int) *capture {
	return &capture{kind: captureRept, repKind: macro.RepRept, repCount: count}
}

func beginIrpCapture(param string, args []string) *capture {
	return &capture{kind: captureRept, repKind: macro.RepIrp, repParam: param, repArgs: args}
}

func beginIrpcCapture(param string, args []string) *capture {
	return &capture{kind: captureRept, repKind: macro.RepIrpc, repParam: param, repArgs: args}
}

// feed processes one line while a capture is open. done reports whether the
// capture just closed (its matching closer was consumed).
func (c *capture) feed(directive, rest string) (done bool) {
	switch c.kind {
	case captureMacro:
		switch directive {
		case ".macro":
			c.depth++
		case ".endm":
			if c.depth > 0 {
				c.depth--
			} else {
				return true
			}
		}
	case captureRept:
		switch directive {
		case ".rept", ".irp", ".irpc":
			c.depth++
		case ".endr":
			if c.depth > 0 {
				c.depth--
			} else {
				return true
			}
		}
	}
	return false
}

func (c *capture) appendLine(line string) {
	c.lines = append(c.lines, line)
}

func (c *capture) toMacroDefinition() *macro.Definition {
	return &macro.Definition{Name: c.macroName, Params: c.macroParams, Body: c.lines}
}

func (c *capture) toRepetition() *macro.Repetition {
	return &macro.Repetition{
		Kind:  c.repKind,
		Param: c.repParam,
		Args:  c.repArgs,
		Count: c.repCount,
		Body:  c.lines,
	}
}

// splitDirective extracts a leading ".directive" token (case-insensitive)
// and the remainder of the line. Lines not starting with a directive return
// an empty keyword.
func splitDirective(line string) (keyword, rest string) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, ".") {
		return "", strings.TrimRight(trimmed, "\n")
	}
	i := 0
	for i < len(trimmed) && trimmed[i] != ' ' && trimmed[i] != '\t' && trimmed[i] != '\n' {
		i++
	}
	return strings.ToLower(trimmed[:i]), strings.TrimSpace(trimmed[i:])
}

// Package engine wires the line reader, conditional stack, macro/repetition
// engine, rewriter, and emitter into the single-pass, re-entrant pipeline
// described by spec.md §9 Design Notes: expanded macro and repetition
// bodies are pushed onto a work queue and re-fed through the same
// dispatcher, rather than expanded via recursive calls.
package engine

import (
	"fmt"
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/cond"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/emit"
	"github.com/mstorsjo/gas-preprocessor/internal/expr"
	"github.com/mstorsjo/gas-preprocessor/internal/lineio"
	"github.com/mstorsjo/gas-preprocessor/internal/macro"
	"github.com/mstorsjo/gas-preprocessor/internal/rewrite"
	"github.com/mstorsjo/gas-preprocessor/internal/symtab"
)

// Engine holds all the state threaded through one pipeline run: it is the
// single mutable core the rest of the packages act on (spec.md §3 Data
// Model: "the pipeline is one struct's worth of mutable state, not several
// independently-synchronized components").
type Engine struct {
	Arch     archinfo.Arch
	Dialect  dialect.Dialect
	Syms     *symtab.Table
	Cond     *cond.Stack
	Macros   *macro.Table
	RW       *rewrite.State
	Altmacro bool

	// Tracer, if set, is notified of every cond/macro/rept frame
	// push/pop so -verbose/GASPP_DEBUG runs can render the live nesting
	// (internal/debugtree implements this without engine depending on
	// it directly).
	Tracer Tracer

	queue   []string
	capture *capture
	lineNo  int
}

// Tracer receives frame push/pop notifications for debug visualization.
type Tracer interface {
	Push(kind, label string)
	Pop()
}

// New returns an Engine ready to process input for the given architecture
// and output dialect.
func New(arch archinfo.Arch, d dialect.Dialect) *Engine {
	syms := symtab.New()
	return &Engine{
		Arch:    arch,
		Dialect: d,
		Syms:    syms,
		Cond:    cond.New(),
		Macros:  macro.New(),
		RW:      rewrite.New(arch, d, syms),
	}
}

// Run drains r, dispatching every sub-line through the pipeline, and writes
// translated output to out, finishing with the dialect epilogue.
func (e *Engine) Run(r *lineio.Reader, out *emit.Writer) error {
	for {
		line, ok, err := e.next(r)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		e.lineNo++
		if err := e.dispatch(line, out); err != nil {
			return err
		}
	}
	if e.capture != nil {
		return &SourceError{Line: e.lineNo, Message: "unexpected end of input: unterminated .macro or repetition body"}
	}
	if e.Cond.Depth() != 0 {
		return &SourceError{Line: e.lineNo, Message: "unexpected end of input: unterminated .if"}
	}
	return out.Epilogue(e.RW, e.Arch, e.Dialect)
}

// next pops a pending queued line (from macro/rept expansion) ahead of
// reading fresh input, so expanded bodies are fully drained before the
// reader advances.
func (e *Engine) next(r *lineio.Reader) (string, bool, error) {
	if len(e.queue) > 0 {
		line := e.queue[0]
		e.queue = e.queue[1:]
		return line, true, nil
	}
	return r.Next()
}

// enqueue pushes expanded lines to the front of the work queue, preserving
// their relative order, ahead of anything already queued.
func (e *Engine) enqueue(lines []string) {
	if len(lines) == 0 {
		return
	}
	e.queue = append(lines, e.queue...)
}

func (e *Engine) dispatch(line string, out *emit.Writer) error {
	directive, rest := splitDirective(line)

	if e.capture != nil {
		return e.feedCapture(directive, rest, line)
	}

	switch directive {
	case ".macro":
		c, err := beginMacroCapture(rest)
		if err != nil {
			return e.err(directive, err)
		}
		e.capture = c
		e.trace("macro", c.macroName)
		return nil

	case ".rept":
		n, err := expr.Eval(rest, e.Syms)
		if err != nil {
			return e.err(directive, err)
		}
		e.capture = beginReptCapture(int(n))
		e.trace("rept", rest)
		return nil

	case ".irp":
		param, argsText, err := splitFirstComma(rest)
		if err != nil {
			return e.err(directive, err)
		}
		e.capture = beginIrpCapture(param, macro.ParseIrpArgs(argsText))
		e.trace("irp", param)
		return nil

	case ".irpc":
		param, argsText, err := splitFirstComma(rest)
		if err != nil {
			return e.err(directive, err)
		}
		e.capture = beginIrpcCapture(param, macro.ParseIrpcArgs(argsText))
		e.trace("irpc", param)
		return nil

	case ".endm":
		return e.err(directive, fmt.Errorf(".endm without matching .macro"))

	case ".endr":
		return e.err(directive, fmt.Errorf(".endr without matching .rept/.irp/.irpc"))

	case ".purgem":
		if e.Cond.Active() {
			e.Macros.Purge(strings.TrimSpace(rest))
		}
		return nil

	case ".altmacro":
		if e.Cond.Active() {
			e.Altmacro = true
		}
		return nil
	case ".noaltmacro":
		if e.Cond.Active() {
			e.Altmacro = false
		}
		return nil

	case ".if", ".ifn", ".ifeq", ".iflt":
		v, err := expr.Eval(rest, e.Syms)
		ok := err == nil && condTrue(directive, v)
		e.Cond.Push(ok)
		e.trace("if", directive+" "+rest)
		return nil
	case ".ifb":
		e.Cond.Push(cond.IsBlank(rest))
		e.trace("if", directive)
		return nil
	case ".ifnb":
		e.Cond.Push(!cond.IsBlank(rest))
		e.trace("if", directive)
		return nil
	case ".ifc", ".ifnc":
		a, b, err := cond.SplitPair(rest)
		if err != nil {
			return e.err(directive, err)
		}
		eq := cond.TokensEqual(a, b)
		if directive == ".ifnc" {
			eq = !eq
		}
		e.Cond.Push(eq)
		e.trace("if", directive)
		return nil
	case ".elseif":
		v, err := expr.Eval(rest, e.Syms)
		return e.err(directive, e.Cond.Elseif(err == nil && v != 0))
	case ".else":
		return e.err(directive, e.Cond.Else())
	case ".endif":
		err := e.Cond.Endif()
		e.untrace()
		return e.err(directive, err)
	}

	if !e.Cond.Active() {
		return nil
	}

	switch directive {
	case ".set", ".equ":
		name, valueExpr, err := splitFirstComma(rest)
		if err != nil {
			return e.err(directive, err)
		}
		v, err := expr.Eval(valueExpr, e.Syms)
		if err != nil {
			return e.err(directive, err)
		}
		e.Syms.Set(name, v)
		return nil

	case ".text", ".data", ".rodata", ".const_data":
		e.RW.PushSection(strings.TrimPrefix(directive, "."))
		return e.emitAll([]string{line}, out)
	case ".section":
		e.RW.PushSection(rest)
		return e.emitAll([]string{line}, out)
	case ".previous":
		if _, err := e.RW.PopPrevious(); err != nil {
			return e.err(directive, err)
		}
		return e.emitAll([]string{line}, out)

	case ".unreq":
		return e.emitAll(e.RW.Unreq(line), out)

	case ".ltorg":
		if err := e.emitAll(e.RW.FlushLiteralPoolLines(), out); err != nil {
			return err
		}
		return e.emitAll(e.RW.Apply(line), out)
	}

	if label, name, args, ok := macro.MatchInvocation(strings.TrimRight(line, "\n")); ok {
		if def, found := e.Macros.Lookup(name); found {
			expanded, err := e.Macros.Expand(def, args, e.Altmacro, e.Syms)
			if err != nil {
				return e.err(name, err)
			}
			if label != "" {
				expanded = append([]string{label + ":\n"}, expanded...)
			}
			e.enqueue(expanded)
			return nil
		}
	}

	return e.emitAll(e.RW.Apply(line), out)
}

// feedCapture routes one line to the currently open .macro/.rept capture,
// closing and expanding it once the matching closer is seen.
func (e *Engine) feedCapture(directive, rest, line string) error {
	c := e.capture
	if c.feed(directive, rest) {
		e.capture = nil
		e.untrace()
		switch c.kind {
		case captureMacro:
			e.Macros.Define(c.toMacroDefinition())
		case captureRept:
			if directive == ".endr" && rest != "" {
				if err := macro.ValidateEndr(rest); err != nil {
					return e.err(directive, err)
				}
			}
			e.enqueue(c.toRepetition().Expand())
		}
		return nil
	}
	c.appendLine(line)
	return nil
}

// emitAll writes the given already-translated lines to out.
func (e *Engine) emitAll(lines []string, out *emit.Writer) error {
	for _, l := range lines {
		if err := out.Line(l); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) trace(kind, label string) {
	if e.Tracer != nil {
		e.Tracer.Push(kind, label)
	}
}

func (e *Engine) untrace() {
	if e.Tracer != nil {
		e.Tracer.Pop()
	}
}

func (e *Engine) err(directive string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceError{Line: e.lineNo, Directive: directive, Message: err.Error()}
}

// condTrue applies the comparison implied by an .if-family directive to an
// already-evaluated expression value (spec.md §4.3).
func condTrue(directive string, v int64) bool {
	switch directive {
	case ".ifn":
		return v == 0
	case ".ifeq":
		return v == 0
	case ".iflt":
		return v < 0
	default: // ".if"
		return v != 0
	}
}

// splitFirstComma splits "a, b" into its two comma-separated halves,
// trimming surrounding whitespace from each.
func splitFirstComma(s string) (first, second string, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected two comma-separated fields, got %q", s)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

package engine

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/emit"
	"github.com/mstorsjo/gas-preprocessor/internal/lineio"
)

func run(t *testing.T, arch archinfo.Arch, d dialect.Dialect, input string) string {
	t.Helper()
	e := New(arch, d)
	r := lineio.New(strings.NewReader(input), arch)
	var out bytes.Buffer
	w := emit.New(&out)
	if err := e.Run(r, w); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	return out.String()
}

func TestReptExpandsBody(t *testing.T) {
	out := run(t, archinfo.ARM, dialect.Gas, ".rept 3\n  nop\n.endr\n")
	if strings.Count(out, "nop") != 3 {
		t.Fatalf("expected 3 nop lines, got %q", out)
	}
}

func TestIrpSubstitutesEachArg(t *testing.T) {
	out := run(t, archinfo.ARM, dialect.Gas, ".irp r, r0 r1 r2\n  mov \\r, #0\n.endr\n")
	for _, want := range []string{"mov r0, #0", "mov r1, #0", "mov r2, #0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestMacroDefaultAndVararg(t *testing.T) {
	const src = ".macro op, name, args:vararg=r0\n" +
		"  \\name \\args\n" +
		".endm\n" +
		"  op mov\n" +
		"  op mov, r1, r2\n"
	out := run(t, archinfo.ARM, dialect.Gas, src)
	if !strings.Contains(out, "mov r0") {
		t.Fatalf("expected default-bound vararg expansion, got %q", out)
	}
	if !strings.Contains(out, "mov r1, r2") {
		t.Fatalf("expected positional vararg expansion, got %q", out)
	}
}

func TestLtorgFlushesLiteralPoolMidStream(t *testing.T) {
	const src = "ldr r0, =0x12345678\n ldr r1, =0x12345678\n .ltorg\n"
	out := run(t, archinfo.ARM, dialect.Gas, src)
	if strings.Count(out, "Literal_0") < 3 {
		t.Fatalf("expected both loads and the flushed label to share Literal_0, got %q", out)
	}
	if !strings.Contains(out, ".word 0x12345678") {
		t.Fatalf("expected flushed word directive, got %q", out)
	}
	if strings.Count(out, ".word 0x12345678") != 1 {
		t.Fatalf("expected the pool to be empty after .ltorg (no duplicate flush at epilogue), got %q", out)
	}
}

func TestSectionStackPrevious(t *testing.T) {
	e := New(archinfo.ARM, dialect.Gas)
	r := lineio.New(strings.NewReader(".section A\n.section B\n.previous\n"), archinfo.ARM)
	var out bytes.Buffer
	w := emit.New(&out)
	if err := e.Run(r, w); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(e.RW.SectionStack) == 0 || e.RW.SectionStack[len(e.RW.SectionStack)-1] != "A" {
		t.Fatalf("expected active section A after .previous, got %v", e.RW.SectionStack)
	}
}

func TestConditionalSelectsOneBranch(t *testing.T) {
	out := run(t, archinfo.ARM, dialect.Gas, ".if 1\n  mov r0, #1\n.else\n  mov r0, #2\n.endif\n")
	if !strings.Contains(out, "mov r0, #1") || strings.Contains(out, "mov r0, #2") {
		t.Fatalf("expected only the true branch, got %q", out)
	}
}

func TestElseifSelectsFirstTrueBranch(t *testing.T) {
	const src = ".if 0\n  mov r0, #1\n.elseif 1\n  mov r0, #2\n.elseif 1\n  mov r0, #3\n.endif\n"
	out := run(t, archinfo.ARM, dialect.Gas, src)
	if strings.Contains(out, "#1") || !strings.Contains(out, "#2") || strings.Contains(out, "#3") {
		t.Fatalf("expected only the first true elseif branch, got %q", out)
	}
}

func TestUnmatchedEndifIsFatal(t *testing.T) {
	e := New(archinfo.ARM, dialect.Gas)
	r := lineio.New(strings.NewReader(".endif\n"), archinfo.ARM)
	var out bytes.Buffer
	w := emit.New(&out)
	if err := e.Run(r, w); err == nil {
		t.Fatal("expected an error for unmatched .endif")
	}
}

func TestUnterminatedMacroIsFatal(t *testing.T) {
	e := New(archinfo.ARM, dialect.Gas)
	r := lineio.New(strings.NewReader(".macro foo\n  nop\n"), archinfo.ARM)
	var out bytes.Buffer
	w := emit.New(&out)
	if err := e.Run(r, w); err == nil {
		t.Fatal("expected an error for an unterminated macro body")
	}
}

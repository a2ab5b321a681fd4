package rewrite

import (
	"strings"
	"testing"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/symtab"
)

func TestLiteralPoolReuse(t *testing.T) {
	s := New(archinfo.ARM, dialect.Gas, symtab.New())
	out1, ok := s.RewriteLiteralPoolLoad("ldr r0, =0x12345678\n")
	if !ok {
		t.Fatal("expected rewrite")
	}
	out2, ok := s.RewriteLiteralPoolLoad("ldr r1, =0x12345678\n")
	if !ok {
		t.Fatal("expected rewrite")
	}
	label1 := strings.TrimSpace(strings.Split(out1, ",")[1])
	label2 := strings.TrimSpace(strings.Split(out2, ",")[1])
	if label1 != label2 {
		t.Fatalf("expected same literal label, got %q and %q", label1, label2)
	}

	flushed := s.FlushLiteralPoolLines()
	if len(flushed) != 3 {
		t.Fatalf("expected align + label + word = 3 lines, got %d: %v", len(flushed), flushed)
	}
	if !strings.Contains(flushed[0], ".align") {
		t.Fatalf("expected alignment first, got %q", flushed[0])
	}

	again := s.FlushLiteralPoolLines()
	if len(again) != 0 {
		t.Fatalf("expected empty pool after flush, got %v", again)
	}
}

func TestLiteralPoolDistinctExpressions(t *testing.T) {
	s := New(archinfo.ARM, dialect.Gas, symtab.New())
	out1, _ := s.RewriteLiteralPoolLoad("ldr r0, =1\n")
	out2, _ := s.RewriteLiteralPoolLoad("ldr r0, =2\n")
	if out1 == out2 {
		t.Fatal("expected distinct labels for distinct expressions")
	}
}

func TestAppleAdrpPcRelative(t *testing.T) {
	s := New(archinfo.AArch64, dialect.AppleClang, symtab.New())
	out, ok := s.RewriteApplePCRelative("adrp x0, #:pg_hi21:foo\n")
	if !ok || strings.TrimSpace(out) != "adrp x0, foo@PAGE" {
		t.Fatalf("got %q", out)
	}
	out, ok = s.RewriteApplePCRelative("add x0, x0, #:lo12:foo\n")
	if !ok || strings.TrimSpace(out) != "add x0, x0, foo@PAGEOFF" {
		t.Fatalf("got %q", out)
	}
}

func TestNumericLabelForwardBackward(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Armasm, symtab.New())
	fwd := s.ResolveNumericLabelForward("1")
	fwd2 := s.ResolveNumericLabelForward("1")
	if fwd != fwd2 {
		t.Fatal("expected same name for repeated forward refs before definition")
	}
	def := s.ObserveNumericLabelDef("1")
	if def != fwd {
		t.Fatalf("expected definition to fulfill forward promise: %q != %q", def, fwd)
	}
	back := s.ResolveNumericLabelBackward("1")
	if back != def {
		t.Fatalf("expected backward ref to resolve to most recent def")
	}
	fwd3 := s.ResolveNumericLabelForward("1")
	if fwd3 == def {
		t.Fatal("expected a new forward promise distinct from the previous definition")
	}
}

func TestReqAliasResolution(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Gas, symtab.New())
	s.RecordReq("foo .req x0\n")
	s.RecordReq("bar .req foo\n")
	out := s.ApplyReqAliases("mov bar, #0\n")
	if !strings.Contains(out, "x0") {
		t.Fatalf("expected transitive resolution to x0, got %q", out)
	}
}

func TestUnreqDualCase(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Gas, symtab.New())
	s.FixUnreq = true
	out := s.Unreq(".unreq Foo\n")
	if len(out) != 2 {
		t.Fatalf("expected 2 lines, got %v", out)
	}
}

func TestNeonAliasRecordAndApply(t *testing.T) {
	s := New(archinfo.ARM, dialect.Gas, symtab.New())
	if !s.RecordNeonAlias("myvec .dn d0.s16\n") {
		t.Fatal("expected alias definition to be recognized")
	}
	out := s.ApplyNeonAliases("vadd myvec, d1, d2\n")
	if !strings.Contains(out, "vadd.s16") || !strings.Contains(out, "d0") {
		t.Fatalf("got %q", out)
	}
}

func TestArmasmDataDirectiveRenames(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Armasm, symtab.New())
	out, ok := s.RewriteArmasmDataDirectives(".word 42\n")
	if !ok || strings.TrimSpace(out) != "dcd 42" {
		t.Fatalf("got %q", out)
	}
}

func TestArmasmBCondMnemonic(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Armasm, symtab.New())
	out, ok := s.RewriteBCondMnemonic("b.eq foo\n")
	if !ok || strings.TrimSpace(out) != "beq foo" {
		t.Fatalf("got %q", out)
	}
	_ = s
}

func TestThumbLargeImmediate(t *testing.T) {
	s := New(archinfo.ARM, dialect.Gas, symtab.New())
	s.Thumb = true
	out, ok := s.RewriteThumbLargeImmediate("add r0, r1, #256\n")
	if !ok || !strings.Contains(out, "add.w") {
		t.Fatalf("got %q", out)
	}
	_, ok = s.RewriteThumbLargeImmediate("add r0, r1, #4\n")
	if ok {
		t.Fatal("expected no rewrite for small immediate")
	}
}

func TestPowerPCSpr(t *testing.T) {
	s := New(archinfo.PowerPC, dialect.Gas, symtab.New())
	out, ok := s.RewritePowerPCSpr("mtctr r3\n")
	if !ok || !strings.Contains(out, "mtspr") || !strings.Contains(out, "9") {
		t.Fatalf("got %q", out)
	}
}

func TestAppleCommentOutPrefixIsArchAware(t *testing.T) {
	arm := New(archinfo.ARM, dialect.AppleGas, symtab.New())
	out := arm.RewriteAppleDirectives(".fpu neon\n")
	if !strings.HasPrefix(out, "@ ") {
		t.Fatalf("expected @ comment for arm apple-gas, got %q", out)
	}

	a64 := New(archinfo.AArch64, dialect.AppleClang, symtab.New())
	out = a64.RewriteAppleDirectives(".fpu neon\n")
	if !strings.HasPrefix(out, "// ") {
		t.Fatalf("expected // comment for aarch64 apple-clang, got %q", out)
	}
}

func TestXcode5MovWideShimGatedOnFlag(t *testing.T) {
	s := New(archinfo.AArch64, dialect.AppleClang, symtab.New())
	if _, ok := s.RewriteXcode5Shims("movz x0, #4\n"); ok {
		t.Fatal("expected no rewrite when FixXcode5 is unset")
	}
	s.FixXcode5 = true
	out, ok := s.RewriteXcode5Shims("movz x0, #4\n")
	if !ok || strings.TrimSpace(out) != "movz x0, #4, lsl #0" {
		t.Fatalf("got %q", out)
	}
	if _, ok := s.RewriteXcode5Shims("movz x0, #4, lsl #16\n"); ok {
		t.Fatal("expected no rewrite when a shift is already present")
	}
}

func TestForceThumbShims(t *testing.T) {
	s := New(archinfo.ARM, dialect.Gas, symtab.New())
	s.ForceThumb = true

	out := s.ApplyForceThumbShims("stmdb sp!, {r4}\n")
	if len(out) != 1 || !strings.Contains(out[0], "str") || !strings.Contains(out[0], "[sp, #-4]!") {
		t.Fatalf("stmdb shim: got %v", out)
	}

	out = s.ApplyForceThumbShims("ldmia sp!, {r4}\n")
	if len(out) != 1 || !strings.Contains(out[0], "ldr") || !strings.Contains(out[0], "[sp], #4") {
		t.Fatalf("ldmia shim: got %v", out)
	}

	out = s.ApplyForceThumbShims("and r0, sp, #7\n")
	if len(out) != 2 || !strings.Contains(out[0], "mov r0, sp") || !strings.Contains(out[1], "and r0, r0, #7") {
		t.Fatalf("and-sp shim: got %v", out)
	}

	out = s.ApplyForceThumbShims("ldr r0, [r0, r1, lsl #4]\n")
	if len(out) != 2 || !strings.Contains(out[0], "add r0, r0, r1, lsl #4") || !strings.Contains(out[1], "ldr r0, [r0]") {
		t.Fatalf("same-reg ldr shim: got %v", out)
	}

	out = s.ApplyForceThumbShims("ldr r0, [r0, r1, lsl #2]\n")
	if len(out) != 1 || out[0] != "ldr r0, [r0, r1, lsl #2]\n" {
		t.Fatalf("expected no rewrite for small shift, got %v", out)
	}
}

func TestArmasmNumericLabelKeepsTrailingInstruction(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Armasm, symtab.New())
	out := s.Apply("1: add x0, x0, x1\n")
	if len(out) != 2 {
		t.Fatalf("expected label and instruction on separate lines, got %q", out)
	}
	if !strings.HasSuffix(strings.TrimSpace(out[0]), ":") {
		t.Fatalf("expected first line to be the synthesized label, got %q", out[0])
	}
	if !strings.Contains(out[1], "add x0, x0, x1") {
		t.Fatalf("expected the instruction to survive the split, got %q", out[1])
	}
}

func TestArmasmOrdinaryLabelSplitAndRecorded(t *testing.T) {
	s := New(archinfo.AArch64, dialect.Armasm, symtab.New())
	out := s.Apply("foo: add x0, x0, x1\n")
	if len(out) != 2 {
		t.Fatalf("expected label and instruction on separate lines, got %q", out)
	}
	if strings.TrimSpace(out[0]) != "foo" {
		t.Fatalf("expected bare label line, got %q", out[0])
	}
	if !strings.Contains(out[1], "add x0, x0, x1") {
		t.Fatalf("expected the instruction to survive the split, got %q", out[1])
	}
	if !s.LabelsSeen["foo"] {
		t.Fatal("expected foo to be recorded in LabelsSeen")
	}
}

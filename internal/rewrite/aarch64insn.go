package rewrite

import (
	"fmt"
	"regexp"
	"strconv"
)

var movVector = regexp.MustCompile(`^(\s*)mov(\s+)(v[\w.]+)\s*,\s*(v[\w.]+)\s*$`)
var moviImm = regexp.MustCompile(`^(\s*movi\s+v[\w.]*\.(?:2h|4h|8h|2s|4s)\s*,\s*#-?\d+)\s*$`)
var uxtlSxtl = regexp.MustCompile(`^(\s*)(u|s)xtl(2)?(\s+)(.+?)\s*$`)

// RewriteAArch64Shims applies the instruction-level AArch64 shims (spec.md
// §4.5 AArch64 instruction shims): "mov vD, vS" -> "orr vD, vS, vS", movi
// immediate lsl#0, uxtl/sxtl -> ushll/sshll with explicit shift.
func (s *State) RewriteAArch64Shims(line string) (string, bool) {
	if m := movVector.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("%sorr%s%s, %s, %s\n", m[1], m[2], m[3], m[4], m[4]), true
	}
	if m := moviImm.FindStringSubmatch(line); m != nil {
		return m[1] + ", lsl #0\n", true
	}
	if m := uxtlSxtl.FindStringSubmatch(line); m != nil {
		widen := "ushll"
		if m[2] == "s" {
			widen = "sshll"
		}
		return fmt.Sprintf("%s%s%s%s%s, #0\n", m[1], widen, m[3], m[4], m[5]), true
	}
	return line, false
}

var movWideNoShift = regexp.MustCompile(`^(\s*(?:movz|movk|movn)\s+\S+\s*,\s*#-?(?:0x[0-9a-fA-F]+|\d+))\s*$`)

// RewriteXcode5Shims applies the early-Xcode-5 AArch64 syntax shims gated by
// GASPP_FIX_XCODE5 (spec.md §6): that assembler's integrated-as rejects a
// bare movz/movk/movn wide-immediate with no shift operand, the same defect
// moviImm already works around for vector immediates above.
func (s *State) RewriteXcode5Shims(line string) (string, bool) {
	if !s.FixXcode5 {
		return line, false
	}
	if m := movWideNoShift.FindStringSubmatch(line); m != nil {
		return m[1] + ", lsl #0\n", true
	}
	return line, false
}

var addSubImmSplit = regexp.MustCompile(`^(\s*)(add|adds|sub|subs)(\s+)(\S+)\s*,\s*(\S+)\s*,\s*#(\d+)\s*$`)

// RewriteAArch64LargeAddSub implements the clang/armasm shim: "add|adds|sub|
// subs Rd, Rn, #imm" where imm is a multiple of 4096 and >4095 is split as
// "#(imm>>12), lsl #12" (spec.md §4.5).
func (s *State) RewriteAArch64LargeAddSub(line string) (string, bool) {
	if s.Dialect.String() != "clang" && !s.Feat.IsArmasm {
		return line, false
	}
	m := addSubImmSplit.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	imm, err := strconv.Atoi(m[6])
	if err != nil || imm <= 4095 || imm%4096 != 0 {
		return line, false
	}
	return fmt.Sprintf("%s%s%s%s, %s, #%d, lsl #12\n", m[1], m[2], m[3], m[4], m[5], imm>>12), true
}

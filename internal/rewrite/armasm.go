package rewrite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SubstituteSymbols textually substitutes every known symbol-table value
// into line (spec.md §4.5 armasm-specific: "Substitute all known symbol-
// table values textually into the line").
func (s *State) SubstituteSymbols(line string) string {
	for _, name := range s.Syms.Names() {
		v, _ := s.Syms.Lookup(name)
		line = wordBoundaryReplace(line, name, strconv.FormatInt(v, 10))
	}
	return line
}

var identRe = regexp.MustCompile(`[A-Za-z_.$][\w.$]*`)

func wordBoundaryReplace(line, name, value string) string {
	return identRe.ReplaceAllStringFunc(line, func(w string) string {
		if w == name {
			return value
		}
		return w
	})
}

var funcProc = regexp.MustCompile(`^\s*\.func\s+(\w+)\s*$`)
var endfunc = regexp.MustCompile(`^\s*\.endfunc\s*$`)

// RewriteFuncProc implements ".func NAME" -> "NAME PROC" and ".endfunc" ->
// "ENDP" (spec.md §4.5 armasm-specific).
func (s *State) RewriteFuncProc(line string) (string, bool) {
	if m := funcProc.FindStringSubmatch(line); m != nil {
		s.LabelsSeen[m[1]] = true
		return fmt.Sprintf("%s PROC\n", m[1]), true
	}
	if endfunc.MatchString(line) {
		return "ENDP\n", true
	}
	return line, false
}

var labelWithInsn = regexp.MustCompile(`^(\s*)([A-Za-z_.$][\w.$]*)\s*:\s*(\S.*)`)

// SplitLabelFromInstruction implements "ordinary labels on the same line as
// an instruction are split onto their own line; instruction lines must
// start with whitespace" (spec.md §4.5 armasm-specific).
func (s *State) SplitLabelFromInstruction(line string) []string {
	m := labelWithInsn.FindStringSubmatch(line)
	if m == nil {
		return []string{line}
	}
	s.LabelsSeen[m[2]] = true
	return []string{m[2] + "\n", "\t" + m[3] + "\n"}
}

var tbzReg = regexp.MustCompile(`\btbz|tbnz\b.*?\bw(\d+)\b`)
var wRegInTbz = regexp.MustCompile(`\bw(\d+)\b`)

// RewriteTbzRegWidth implements "tbz/tbnz with a wN register rewrites to xN
// (armasm64 limitation)" (spec.md §4.5).
func (s *State) RewriteTbzRegWidth(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "tbz") && !strings.HasPrefix(trimmed, "tbnz") {
		return line, false
	}
	if !wRegInTbz.MatchString(line) {
		return line, false
	}
	return wRegInTbz.ReplaceAllString(line, "x$1"), true
}

var alignDirective = regexp.MustCompile(`^(\s*)\.(align|p2align)\s+(\d+)\s*$`)

// RewriteAlign implements ".align N"/".p2align N" -> "ALIGN (1<<N)"
// (spec.md §4.5 armasm-specific).
func (s *State) RewriteAlign(line string) (string, bool) {
	m := alignDirective.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return line, false
	}
	return fmt.Sprintf("%sALIGN %d\n", m[1], 1<<uint(n)), true
}

var gasAlignSpec = regexp.MustCompile(`\[(\w+)\s*,\s*:(\d+)\]`)

// RewriteGasAlignSpec implements "[Rn, :128] -> [Rn@128]" (spec.md §4.5
// armasm-specific).
func (s *State) RewriteGasAlignSpec(line string) (string, bool) {
	if !gasAlignSpec.MatchString(line) {
		return line, false
	}
	return gasAlignSpec.ReplaceAllString(line, "[$1@$2]"), true
}

var notExpr = regexp.MustCompile(`!(\d+)`)
var ltGtLiteral = regexp.MustCompile(`\((\d+)\s*([<>])\s*(\d+)\)`)

// EvaluateLiteralComparisons implements "evaluate !<num> -> {0,1} and
// (a<b)/(a>b) with literal numbers -> {0,1}; leave more complex expressions
// to the assembler" (spec.md §4.5 armasm-specific).
func (s *State) EvaluateLiteralComparisons(line string) string {
	line = notExpr.ReplaceAllStringFunc(line, func(m string) string {
		n, _ := strconv.Atoi(m[1:])
		if n == 0 {
			return "1"
		}
		return "0"
	})
	line = ltGtLiteral.ReplaceAllStringFunc(line, func(m string) string {
		sub := ltGtLiteral.FindStringSubmatch(m)
		a, _ := strconv.Atoi(sub[1])
		b, _ := strconv.Atoi(sub[3])
		var result bool
		if sub[2] == "<" {
			result = a < b
		} else {
			result = a > b
		}
		if result {
			return "1"
		}
		return "0"
	})
	return line
}

var movw = regexp.MustCompile(`^\s*movw\s+(\w+)\s*,\s*#:lower16:(\S+)\s*$`)
var movt = regexp.MustCompile(`^\s*movt\s+(\w+)\s*,\s*#:upper16:(\S+)\s*$`)

// Mov32Collapser folds a movw/movt pair targeting the same register and
// symbol into a single "mov32 Rd, SYM" (spec.md §4.5 armasm-specific ARM
// rule), recording SYM as an import. Because the pair spans two lines, the
// caller holds the pending movw until the following line is seen.
type Mov32Collapser struct {
	pendingReg string
	pendingSym string
}

// Feed returns (emit, continueCurrent). emit is zero or more fully-formed
// output lines to emit immediately. continueCurrent reports whether the
// caller must still run the original `line` through the rest of the
// pipeline (true), or whether it has been fully absorbed already (false).
func (c *Mov32Collapser) Feed(s *State, line string) (emit []string, continueCurrent bool) {
	if c.pendingReg != "" {
		if m := movt.FindStringSubmatch(line); m != nil && m[1] == c.pendingReg && m[2] == c.pendingSym {
			reg, sym := c.pendingReg, c.pendingSym
			c.pendingReg, c.pendingSym = "", ""
			s.ImportSyms[sym] = true
			return []string{fmt.Sprintf("mov32 %s, %s\n", reg, sym)}, false
		}
		reg, sym := c.pendingReg, c.pendingSym
		c.pendingReg, c.pendingSym = "", ""
		flushed := fmt.Sprintf("movw %s, #:lower16:%s\n", reg, sym)
		if m := movw.FindStringSubmatch(line); m != nil {
			c.pendingReg = m[1]
			c.pendingSym = m[2]
			return []string{flushed}, false
		}
		return []string{flushed}, true
	}
	if m := movw.FindStringSubmatch(line); m != nil {
		c.pendingReg = m[1]
		c.pendingSym = m[2]
		return nil, false
	}
	return nil, true
}

var extInsn = regexp.MustCompile(`^(\s*)ext(\s)`)

// RewriteExt implements "ext -> ext8" (spec.md §4.5 armasm-specific AArch64).
func (s *State) RewriteExt(line string) (string, bool) {
	if !extInsn.MatchString(line) {
		return line, false
	}
	return extInsn.ReplaceAllString(line, "${1}ext8${2}"), true
}

var ldrEqualsSym = regexp.MustCompile(`^(\s*ldr\s+)(x\w+)\s*,\s*=(\w+)(?:\+(-?\d+))?\s*$`)

// RewriteArmasmLdrEquals implements "ldr Xd, =SYM[+off]" (spec.md §4.5
// armasm-specific AArch64): records SYM; if a negative offset is present
// and GASPP_ARMASM64_SKIP_NEG_OFFSET is set, splits into ldr + sub.
func (s *State) RewriteArmasmLdrEquals(line string) ([]string, bool) {
	m := ldrEqualsSym.FindStringSubmatch(line)
	if m == nil {
		return []string{line}, false
	}
	prefix, reg, sym, offText := m[1], m[2], m[3], m[4]
	s.ImportSyms[sym] = true
	if offText == "" {
		return []string{fmt.Sprintf("%s%s, =%s\n", prefix, reg, sym)}, true
	}
	off, _ := strconv.Atoi(offText)
	if off < 0 && s.ArmasmSkipNegOffset {
		return []string{
			fmt.Sprintf("%s%s, =%s\n", prefix, reg, sym),
			fmt.Sprintf("\tsub %s, %s, #%d\n", reg, reg, -off),
		}, true
	}
	return []string{fmt.Sprintf("%s%s, =%s+%d\n", prefix, reg, sym, off)}, true
}

var adrpOff = regexp.MustCompile(`^(\s*adrp\s+\S+\s*,\s*)(\w+)\+(-?\d+)\s*$`)
var addLo12Off = regexp.MustCompile(`^(\s*add\s+\S+\s*,\s*\S+\s*,\s*):lo12:(\w+)\+(-?\d+)\s*$`)
var addLo12Plain = regexp.MustCompile(`^(\s*add\s+\S+\s*,\s*\S+\s*,\s*):lo12:(\w+)\s*$`)

// RewriteArmasmAdrpLo12 implements the armasm-specific "adrp Rd, SYM+off"
// stripping and matching "add Rd, Rn, :lo12:SYM+off" handling (spec.md
// §4.5 armasm-specific AArch64).
func (s *State) RewriteArmasmAdrpLo12(line string) (string, bool) {
	if m := adrpOff.FindStringSubmatch(line); m != nil {
		return m[1] + m[2] + "\n", true
	}
	if m := addLo12Off.FindStringSubmatch(line); m != nil {
		sym, off := m[2], m[3]
		s.ImportSyms[sym] = true
		n, _ := strconv.Atoi(off)
		if n > 0 {
			return fmt.Sprintf("%s%s\n\tadd %s, #%s\n", m[1], sym, sym, off), true
		}
		return m[1] + sym + "\n", true
	}
	if m := addLo12Plain.FindStringSubmatch(line); m != nil {
		s.ImportSyms[m[2]] = true
		return m[1] + m[2] + "\n", true
	}
	return line, false
}

var uxtSxtTrailing = regexp.MustCompile(`^(.*\b(?:uxt[whb]|sxt[whb])\s+\S+)\s*$`)

// RewriteUxtSxtTrailingShift implements "uxt[whb]/sxt[whb] at end of
// operand -> append #0" (spec.md §4.5 armasm-specific AArch64).
func (s *State) RewriteUxtSxtTrailingShift(line string) (string, bool) {
	m := uxtSxtTrailing.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return m[1] + ", #0\n", true
}

var movVectorLane = regexp.MustCompile(`^(\s*)mov(\s+)(\w+)\s*,\s*(v[\w.]+\[\d+\])\s*$`)

// RewriteMovVectorLane implements "mov Xd, Vn.D[i] -> umov ..." (spec.md
// §4.5 armasm-specific AArch64).
func (s *State) RewriteMovVectorLane(line string) (string, bool) {
	m := movVectorLane.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return fmt.Sprintf("%sumov%s%s, %s\n", m[1], m[2], m[3], m[4]), true
}

var condFuse = regexp.MustCompile(`^(\s*)(ccmp|ccmn|csel|csinc|csinv|csneg|cinc|cinv|cneg|cset|csetm)(\s+)(.+),\s*(eq|ne|cs|cc|mi|pl|vs|vc|hi|ls|ge|lt|gt|le|al|hs|lo)\s*$`)

// RewriteConditionFuse implements "ccmp/csel/cinc/cset ..., cc -> fuse
// condition into mnemonic" (spec.md §4.5 armasm-specific AArch64).
func (s *State) RewriteConditionFuse(line string) (string, bool) {
	m := condFuse.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return fmt.Sprintf("%s%s%s%s%s\n", m[1], m[2], strings.ToUpper(m[5]), m[3], m[4]), true
}

var prfumInsn = regexp.MustCompile(`^\s*prfum\b.*\s*$`)

// StripPrfum implements optional "strip prfum" under
// GASPP_ARMASM64_SKIP_PRFUM (spec.md §4.5 armasm-specific AArch64).
func (s *State) StripPrfum(line string) (string, bool) {
	if !s.ArmasmSkipPrfum {
		return line, false
	}
	if !prfumInsn.MatchString(line) {
		return line, false
	}
	return "", true
}

var byteHalfNegOffset = regexp.MustCompile(`^(\s*)(ldr|str)(b|h)(\s+)(\w+)\s*,\s*\[(\w+)\s*,\s*#(-\d+)\]\s*$`)

// RewriteNegativeOffsetToUnscaled implements "ldr[bh]/str[bh] Rt, [Rn,
// #neg] (no writeback) -> ldur.../stur..." (spec.md §4.5 armasm-specific
// AArch64).
func (s *State) RewriteNegativeOffsetToUnscaled(line string) (string, bool) {
	m := byteHalfNegOffset.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return fmt.Sprintf("%s%sur%s%s%s, [%s, #%s]\n", m[1], strings.TrimSuffix(m[2], "r"), m[3], m[4], m[5], m[6], m[7]), true
}

var scaleInsn = regexp.MustCompile(`^(\s*)(fcvtzs|scvtf)(\s+.+?,\s*#)(\d+)\s*$`)

// InvertScale implements "invert fcvtzs/scvtf scale to 64-scale" under
// GASPP_ARMASM64_INVERT_SCALE (spec.md §4.5 armasm-specific AArch64).
func (s *State) InvertScale(line string) (string, bool) {
	if !s.ArmasmInvertScale {
		return line, false
	}
	m := scaleInsn.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	scale, err := strconv.Atoi(m[4])
	if err != nil {
		return line, false
	}
	return fmt.Sprintf("%s%s%s%d\n", m[1], m[2], m[3], 64-scale), true
}

var rangeRegSpec = regexp.MustCompile(`\{(v\d+)\.(\w+)-v(\d+)\.\w+\}`)

// ExpandRangeRegisterSpec implements "{v1.4h-v3.4h} -> explicit list
// {v1.4h,v2.4h,v3.4h}" (spec.md §4.5 armasm-specific AArch64).
func (s *State) ExpandRangeRegisterSpec(line string) (string, bool) {
	m := rangeRegSpec.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	startNum, _ := strconv.Atoi(strings.TrimPrefix(m[1], "v"))
	endNum, _ := strconv.Atoi(m[3])
	dt := m[2]
	var regs []string
	for i := startNum; i <= endNum; i++ {
		regs = append(regs, fmt.Sprintf("v%d.%s", i, dt))
	}
	return rangeRegSpec.ReplaceAllString(line, "{"+strings.Join(regs, ",")+"}"), true
}

var bCondInsn = regexp.MustCompile(`^(\s*)b\.(eq|ne|cs|cc|mi|pl|vs|vc|hi|ls|ge|lt|gt|le|al|hs|lo)(\s+.*?)\s*$`)

// RewriteBCondMnemonic implements "b.cc -> bcc" (spec.md §4.5 armasm-
// specific AArch64).
func (s *State) RewriteBCondMnemonic(line string) (string, bool) {
	m := bCondInsn.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return fmt.Sprintf("%sb%s%s\n", m[1], m[2], m[3]), true
}

var ampHex = regexp.MustCompile(`&(0[xX][0-9a-fA-F]+)`)

// InsertSpaceBeforeAmpHex implements "insert space in &0x..." (spec.md
// §4.5 armasm-specific AArch64).
func (s *State) InsertSpaceBeforeAmpHex(line string) (string, bool) {
	if !ampHex.MatchString(line) {
		return line, false
	}
	return ampHex.ReplaceAllString(line, "& $1"), true
}

var dataDirectiveRenames = map[string]string{
	".int": "dcd", ".long": "dcd", ".word": "dcd",
	".short": "dcw", ".hword": "dcw",
	".byte": "dcb", ".ascii": "dcb",
	".quad": "dcq", ".xword": "dcq", ".dword": "dcq",
	".float": "dcfs",
}

var dataDirectiveLine = regexp.MustCompile(`^(\s*)(\.\w+)(\s+.*?)\s*$`)
var asciz = regexp.MustCompile(`^(\s*)\.asciz\s+("(?:[^"\\]|\\.)*")\s*$`)

// RewriteArmasmDataDirectives implements the armasm data-directive renaming
// table (spec.md §4.5 armasm-specific: ".int/.long/.word -> dcd", etc., and
// ".asciz \"s\" -> dcb \"s\",0").
func (s *State) RewriteArmasmDataDirectives(line string) (string, bool) {
	if m := asciz.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("%sdcb %s,0\n", m[1], m[2]), true
	}
	m := dataDirectiveLine.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	newName, ok := dataDirectiveRenames[m[2]]
	if !ok {
		return line, false
	}
	return m[1] + newName + m[3] + "\n", true
}

var sectionDirectiveLine = regexp.MustCompile(`^\s*\.(text|data|rodata)\s*$`)

// RewriteArmasmSectionDirectives implements the armasm AREA/EXPORT/IMPORT/
// THUMB/ARM directive vocabulary (spec.md §4.5 armasm-specific).
func (s *State) RewriteArmasmSectionDirectives(line string) (string, bool) {
	if m := sectionDirectiveLine.FindStringSubmatch(line); m != nil {
		switch m[1] {
		case "text":
			return "AREA |.text|, CODE, READONLY, ALIGN=4, CODEALIGN\n", true
		case "data":
			return "AREA |.data|, DATA\n", true
		case "rodata":
			return "AREA |.rodata|, DATA, READONLY\n", true
		}
	}
	if m := globalDirective.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("EXPORT %s\n", m[1]), true
	}
	if m := externDirective.FindStringSubmatch(line); m != nil {
		return fmt.Sprintf("IMPORT %s\n", m[1]), true
	}
	if thumbDirective.MatchString(line) {
		return "THUMB\n", true
	}
	if armDirective.MatchString(line) {
		return "ARM\n", true
	}
	return line, false
}

var externDirective = regexp.MustCompile(`^\s*\.extern\s+(\S+)\s*$`)

var itBlockInsn = regexp.MustCompile(`^\s*it[te]*\s`)

// FilterItBlocks implements "filter out it/ite/itt/... lines (armasm
// inserts them implicitly)" (spec.md §4.5 armasm-specific ARM).
func (s *State) FilterItBlocks(line string) (string, bool) {
	if itBlockInsn.MatchString(line) {
		return "", true
	}
	return line, false
}

var bareVmovVadd = regexp.MustCompile(`^(\s*)(vmov|vadd)(\s+)(s\d+.*?)\s*$`)

// InjectScalarFloatType implements "inject .f32 type to bare vmov/vadd on
// single-precision scalars (armasm cannot parse untyped forms)" (spec.md
// §4.5 armasm-specific ARM).
func (s *State) InjectScalarFloatType(line string) (string, bool) {
	m := bareVmovVadd.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	return fmt.Sprintf("%s%s.f32%s%s\n", m[1], m[2], m[3], m[4]), true
}

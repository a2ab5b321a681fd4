package rewrite

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var codeDirective = regexp.MustCompile(`^\s*\.code\s+(\d+)\s*$`)
var thumbDirective = regexp.MustCompile(`^\s*\.thumb\s*$`)
var armDirective = regexp.MustCompile(`^\s*\.arm\s*$`)

// UpdateMode tracks .code 16/.thumb vs .code 32/.arm (spec.md §4.5 Mode
// tracking). Returns true if the line was a mode directive; only the Thumb
// flag changes here, and the caller decides how the line itself is emitted.
func (s *State) UpdateMode(line string) bool {
	if m := codeDirective.FindStringSubmatch(line); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			s.Thumb = n == 16
		}
		return true
	}
	if thumbDirective.MatchString(line) {
		s.Thumb = true
		return true
	}
	if armDirective.MatchString(line) {
		s.Thumb = false
		return true
	}
	return false
}

var addImmediate = regexp.MustCompile(`^(\s*add(?:\.w)?\s+\S+\s*,\s*\S+\s*,\s*)#(-?\d+)\s*$`)

// RewriteThumbLargeImmediate implements "in thumb mode, add ..., #IMM with
// IMM>255 -> add.w ..." (spec.md §4.5 Thumb large immediates).
func (s *State) RewriteThumbLargeImmediate(line string) (string, bool) {
	if !s.Thumb {
		return line, false
	}
	m := addImmediate.FindStringSubmatch(line)
	if m == nil {
		return line, false
	}
	if strings.Contains(m[0], ".w") {
		return line, false
	}
	imm, err := strconv.Atoi(m[2])
	if err != nil || imm <= 255 {
		return line, false
	}
	prefix := strings.Replace(m[1], "add ", "add.w ", 1)
	return fmt.Sprintf("%s#%d\n", prefix, imm), true
}

var condCodes = map[string]bool{
	"eq": true, "ne": true, "cs": true, "cc": true, "mi": true, "pl": true,
	"vs": true, "vc": true, "hi": true, "ls": true, "ge": true, "lt": true,
	"gt": true, "le": true, "al": true, "hs": true, "lo": true,
}

var branchInsn = regexp.MustCompile(`^\s*(b|bl|bx)([a-z]{2})?(\.w)?\s+(\S+)\s*$`)
var globalDirective = regexp.MustCompile(`^\s*\.global\s+(\S+)\s*$`)
var funcDirective = regexp.MustCompile(`^\s*\.func\s*$`)

// RewriteThumbFuncTagging implements apple-dialect thumb-func tracking
// (spec.md §4.5 Thumb func tagging): rewrite .func to .thumb_func, and for
// each branch/call or .global referring to a known thumb label, emit a
// .thumb_func declaration; otherwise remember it as a call target.
func (s *State) RewriteThumbFuncTagging(label string, line string) []string {
	if label != "" && s.Thumb {
		s.ThumbLabels[label] = true
	}
	if funcDirective.MatchString(line) {
		return []string{".thumb_func\n"}
	}
	var target string
	if m := branchInsn.FindStringSubmatch(line); m != nil {
		// bic must not be parsed as b + condition ic.
		if m[1] == "b" && m[2] == "ic" {
			return []string{line}
		}
		if m[2] == "" || condCodes[m[2]] {
			target = m[4]
		}
	} else if m := globalDirective.FindStringSubmatch(line); m != nil {
		target = m[1]
	}
	if target == "" {
		return []string{line}
	}
	if s.ThumbLabels[target] {
		return []string{fmt.Sprintf(".thumb_func %s\n", target), line}
	}
	s.CallTargets[target] = true
	return []string{line}
}

var postIndexedLdrStr = regexp.MustCompile(`^(\s*)(ldr|str)(\s+)(\w+)\s*,\s*\[(\w+)\]\s*,\s*(\w+)\s*$`)
var movPcLr = regexp.MustCompile(`^\s*mov\s+pc\s*,\s*lr\s*$`)
var mulsInsn = regexp.MustCompile(`^(\s*)muls(\s+)(\w+)\s*,\s*(\w+)\s*,\s*(\w+)\s*$`)
var stmdbSpSingle = regexp.MustCompile(`^(\s*)stmdb(\s+)sp!\s*,\s*\{(\w+)\}\s*$`)
var ldmiaSpSingle = regexp.MustCompile(`^(\s*)ldmia(\s+)sp!\s*,\s*\{(\w+)\}\s*$`)
var andSpImm = regexp.MustCompile(`^(\s*)and(\s+)(\w+)\s*,\s*sp\s*,\s*#(\S+)\s*$`)
var ldrSameRegShift = regexp.MustCompile(`^(\s*)ldr(\s+)(\w+)\s*,\s*\[\s*(\w+)\s*,\s*(\w+)\s*,\s*lsl\s*#(\d+)\s*\]\s*$`)

// ApplyForceThumbShims implements the handful of force-thumb rewrites
// (spec.md §4.5 Force-thumb shim), applied only when -force-thumb is set:
// thumb1 has no encoding for these forms, so each is split into an
// equivalent instruction pair.
func (s *State) ApplyForceThumbShims(line string) []string {
	if !s.ForceThumb {
		return []string{line}
	}
	if m := postIndexedLdrStr.FindStringSubmatch(line); m != nil {
		indent, op, _, rd, rn, rm := m[1], m[2], m[3], m[4], m[5], m[6]
		return []string{
			fmt.Sprintf("%s%s %s, [%s]\n", indent, op, rd, rn),
			fmt.Sprintf("%sadd %s, %s\n", indent, rn, rm),
		}
	}
	if movPcLr.MatchString(line) {
		return []string{strings.Replace(line, "mov pc, lr", "bx lr", 1)}
	}
	if m := mulsInsn.FindStringSubmatch(line); m != nil {
		indent, rd, rn, rm := m[1], m[3], m[4], m[5]
		return []string{
			fmt.Sprintf("%smul %s, %s, %s\n", indent, rd, rn, rm),
			fmt.Sprintf("%scmp %s, #0\n", indent, rd),
		}
	}
	// thumb1 stmdb/ldmia require a register list of two or more; a
	// single-register form is rewritten to a pre/post-adjusted str/ldr.
	if m := stmdbSpSingle.FindStringSubmatch(line); m != nil {
		indent, reg := m[1], m[3]
		return []string{fmt.Sprintf("%sstr %s, [sp, #-4]!\n", indent, reg)}
	}
	if m := ldmiaSpSingle.FindStringSubmatch(line); m != nil {
		indent, reg := m[1], m[3]
		return []string{fmt.Sprintf("%sldr %s, [sp], #4\n", indent, reg)}
	}
	// thumb1's "and" has no sp operand form; materialize sp into Rd first.
	if m := andSpImm.FindStringSubmatch(line); m != nil {
		indent, rd, imm := m[1], m[3], m[4]
		return []string{
			fmt.Sprintf("%smov %s, sp\n", indent, rd),
			fmt.Sprintf("%sand %s, %s, #%s\n", indent, rd, rd, imm),
		}
	}
	// thumb1's register-offset ldr can't share Rd with the base register;
	// fold the shifted index into the base with an add first.
	if m := ldrSameRegShift.FindStringSubmatch(line); m != nil {
		indent, rd, rn, rm, shift := m[1], m[3], m[4], m[5], m[6]
		if rd == rn {
			if n, err := strconv.Atoi(shift); err == nil && n > 3 {
				return []string{
					fmt.Sprintf("%sadd %s, %s, %s, lsl #%s\n", indent, rd, rn, rm, shift),
					fmt.Sprintf("%sldr %s, [%s]\n", indent, rd, rd),
				}
			}
		}
	}
	if strings.TrimSpace(line) == ".arm" {
		return []string{".thumb\n"}
	}
	return []string{line}
}

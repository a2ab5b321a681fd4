package rewrite

import (
	"fmt"
	"regexp"
)

var sprNames = map[string]int{
	"ctr":    9,
	"vrsave": 256,
	"lr":     8,
	"xer":    1,
}

var mtSpr = regexp.MustCompile(`^(\s*)mt(\w+)(\s+)(\w+)\s*$`)
var mfSpr = regexp.MustCompile(`^(\s*)mf(\w+)(\s+)(\w+)\s*$`)

// RewritePowerPCOperandSuffix implements "@l"/"@ha" -> "lo16(...)"/"ha16(...)"
// (spec.md §4.5 PowerPC). It wraps the whole operand token the suffix was
// attached to.
var powerpcOperand = regexp.MustCompile(`([\w.$]+)@(l|ha)\b`)

func (s *State) RewritePowerPCOperandSuffix(line string) (string, bool) {
	matched := false
	out := powerpcOperand.ReplaceAllStringFunc(line, func(m string) string {
		sub := powerpcOperand.FindStringSubmatch(m)
		matched = true
		fn := "lo16"
		if sub[2] == "ha" {
			fn = "ha16"
		}
		return fmt.Sprintf("%s(%s)", fn, sub[1])
	})
	return out, matched
}

// RewritePowerPCSpr implements "mt<spr>"/"mf<spr>" with known SPR names ->
// "mtspr NUM, Rs" / "mfspr Rd, NUM" (spec.md §4.5 PowerPC).
func (s *State) RewritePowerPCSpr(line string) (string, bool) {
	if m := mtSpr.FindStringSubmatch(line); m != nil {
		if num, ok := sprNames[m[2]]; ok {
			return fmt.Sprintf("%smtspr%s%d, %s\n", m[1], m[3], num, m[4]), true
		}
	}
	if m := mfSpr.FindStringSubmatch(line); m != nil {
		if num, ok := sprNames[m[2]]; ok {
			return fmt.Sprintf("%smfspr%s%s, %d\n", m[1], m[3], m[4], num), true
		}
	}
	return line, false
}

package rewrite

import (
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/macro"
)

// Apply runs the full serialized-line rewrite pipeline (spec.md §4.5) over
// one fully expanded, condition-true line, in the order the component
// design lists: mode tracking, sections, literal pool, pc-relative
// shims, thumb handling, label-dot stripping, register-alias resolution,
// per-architecture instruction shims, then dialect-specific translation.
func (s *State) Apply(line string) []string {
	label, _, _, _ := macro.MatchInvocation(strings.TrimRight(line, "\n"))

	if s.UpdateMode(line) {
		if s.Feat.IsArmasm {
			if rewritten, ok := s.RewriteArmasmSectionDirectives(line); ok {
				return []string{rewritten}
			}
		} else if s.ForceThumb {
			return s.finishLines(s.ApplyForceThumbShims(line))
		}
		return []string{line}
	}

	if !s.Feat.IsArmasm {
		if rewritten, ok := s.RewriteLiteralPoolLoad(line); ok {
			line = rewritten
		}
	}

	if s.Feat.Apple && s.Arch == archinfo.AArch64 {
		if rewritten, ok := s.RewriteApplePCRelative(line); ok {
			line = rewritten
		}
	}

	if rewritten, ok := s.RewriteThumbLargeImmediate(line); ok {
		line = rewritten
	}

	line = s.StripLabelDot(line)

	if s.Feat.Apple {
		out := s.RewriteThumbFuncTagging(label, line)
		if len(out) > 1 || out[0] != line {
			return s.finishLines(out)
		}
	}

	if s.Arch == archinfo.PowerPC {
		if rewritten, ok := s.RewritePowerPCSpr(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.RewritePowerPCOperandSuffix(line); ok {
			line = rewritten
		}
	}

	if s.Arch.IsARMFamily() {
		if s.RecordNeonAlias(line) {
			return []string{line}
		}
		line = s.ApplyNeonAliases(line)
	}

	if s.Arch == archinfo.AArch64 || s.Feat.IsArmasm {
		if s.RecordReq(line) {
			return []string{line}
		}
		line = s.ApplyReqAliases(line)
	}

	if s.Arch == archinfo.AArch64 {
		if rewritten, ok := s.RewriteAArch64Shims(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.RewriteAArch64LargeAddSub(line); ok {
			line = rewritten
		}
		if s.Feat.SupportsXcode5Shims {
			if rewritten, ok := s.RewriteXcode5Shims(line); ok {
				line = rewritten
			}
		}
	}

	if s.Feat.IsArmasm {
		return s.finishLines(s.applyArmasm(line))
	}

	line = s.RewriteAppleDirectives(line)

	if s.ForceThumb {
		return s.finishLines(s.ApplyForceThumbShims(line))
	}

	return []string{line}
}

func (s *State) finishLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// applyArmasm runs the armasm-specific rule set (spec.md §4.5 armasm-
// specific). Rules are applied in sequence; most are mutually exclusive on
// any given line, so later rules simply see the output of earlier ones.
func (s *State) applyArmasm(line string) []string {
	line = s.SubstituteSymbols(line)

	if rewritten, handled := s.RewriteFuncProc(line); handled {
		line = rewritten
	}

	// A label sharing a line with an instruction (numeric or ordinary) is
	// split onto its own line; armasm instruction lines must start with
	// whitespace (spec.md §4.5 armasm-specific). Whatever remains after the
	// split still has to run through the rest of this function, so it is
	// prepended to every return path below instead of returned directly.
	var prefix []string
	if loc := numericLabelDef.FindStringSubmatchIndex(line); loc != nil {
		name := s.ObserveNumericLabelDef(line[loc[2]:loc[3]])
		prefix = append(prefix, name+":\n")
		if rest := strings.TrimSpace(line[loc[1]:]); rest != "" {
			line = "\t" + rest + "\n"
		} else {
			return prefix
		}
	} else if split := s.SplitLabelFromInstruction(line); len(split) > 1 {
		prefix = append(prefix, split[0])
		line = split[1]
	}
	finish := func(lines []string) []string { return append(prefix, lines...) }

	line = s.RewriteNumericLabelRefs(line)

	if rewritten, ok := s.RewriteTbzRegWidth(line); ok {
		line = rewritten
	}
	if rewritten, ok := s.RewriteAlign(line); ok {
		line = rewritten
	}
	if rewritten, ok := s.RewriteGasAlignSpec(line); ok {
		line = rewritten
	}
	line = s.EvaluateLiteralComparisons(line)

	emit, continueCurrent := s.Mov32(line)
	if !continueCurrent {
		return finish(emit)
	}

	if s.Arch == archinfo.AArch64 {
		if rewritten, ok := s.RewriteExt(line); ok {
			line = rewritten
		}
		if lines, ok := s.RewriteArmasmLdrEquals(line); ok {
			if len(lines) > 1 {
				return finish(lines)
			}
			line = lines[0]
		}
		if rewritten, ok := s.RewriteArmasmAdrpLo12(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.RewriteUxtSxtTrailingShift(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.RewriteMovVectorLane(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.RewriteConditionFuse(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.StripPrfum(line); ok {
			if rewritten == "" {
				return finish(nil)
			}
			line = rewritten
		}
		if rewritten, ok := s.RewriteNegativeOffsetToUnscaled(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.InvertScale(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.ExpandRangeRegisterSpec(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.RewriteBCondMnemonic(line); ok {
			line = rewritten
		}
		if rewritten, ok := s.InsertSpaceBeforeAmpHex(line); ok {
			line = rewritten
		}
	} else {
		if rewritten, ok := s.FilterItBlocks(line); ok {
			if rewritten == "" {
				return finish(nil)
			}
			line = rewritten
		}
		if rewritten, ok := s.InjectScalarFloatType(line); ok {
			line = rewritten
		}
	}

	if rewritten, ok := s.RewriteArmasmDataDirectives(line); ok {
		line = rewritten
	}
	if rewritten, ok := s.RewriteArmasmSectionDirectives(line); ok {
		line = rewritten
	}

	return finish(append(emit, line))
}

// Mov32 feeds line through the pending movw/movt collapser.
func (s *State) Mov32(line string) ([]string, bool) {
	return s.mov32.Feed(s, line)
}

package rewrite

import (
	"strings"
	"testing"

	"golang.org/x/arch/arm64/arm64asm"
)

// TestCondCodesCoverArm64Conditions cross-checks the thumb branch-suffix
// condition-code set (condCodes in thumb.go) against arm64asm's own
// condition encoding, so the two tables cannot silently drift apart as new
// mnemonics are added. The armasm condFuse and bCondInsn regexes in
// armasm.go list their condition codes inline and are not covered here.
func TestCondCodesCoverArm64Conditions(t *testing.T) {
	for value := uint8(0); value < 16; value++ {
		name := strings.ToLower(arm64asm.Cond{Value: value}.String())
		if name == "" || name == "al" {
			continue
		}
		if !condCodes[name] {
			t.Errorf("condCodes missing arm64 condition %q (encoding %d)", name, value)
		}
	}
	if !condCodes["al"] {
		t.Fatal("condCodes missing the always-true condition al")
	}
	// hs/lo are gas's mnemonic aliases for cs/cc; arm64asm's own String()
	// never produces them, so they are asserted directly.
	if !condCodes["hs"] || !condCodes["lo"] {
		t.Fatal("condCodes missing gas's hs/lo aliases for cs/cc")
	}
}

// Package dialect canonicalizes the output-dialect tag and carries the
// per-dialect feature-flag table that the rewriter and emitter consult.
// Most behavioral switches live in the Features table below. Two rewrite
// rules still compare the dialect name directly: the apple-gas vmrs shim
// (rewrite/apple.go) and the clang large add/sub split (rewrite/aarch64insn.go).
package dialect

import "fmt"

type Dialect int

const (
	Gas Dialect = iota
	AppleGas
	Clang
	AppleClang
	LLVMGcc
	Armasm
)

var names = map[string]Dialect{
	"gas":         Gas,
	"apple-gas":   AppleGas,
	"clang":       Clang,
	"apple-clang": AppleClang,
	"llvm_gcc":    LLVMGcc,
	"armasm":      Armasm,
}

func (d Dialect) String() string {
	for s, v := range names {
		if v == d {
			return s
		}
	}
	return "unknown"
}

// Parse resolves a -as-type argument to its canonical Dialect.
func Parse(name string) (Dialect, error) {
	d, ok := names[name]
	if !ok {
		return 0, fmt.Errorf("unrecognized dialect %q", name)
	}
	return d, nil
}

// Features is the per-dialect behavior table (spec.md Design Notes:
// "Dialect switches: encode as a table of feature flags").
type Features struct {
	// Apple is true for apple-gas and apple-clang: strips the leading dot
	// from .L-prefixed labels, emits .thumb_func tags, renames a handful of
	// directives (.global -> .globl, .rodata -> .const_data, ...).
	Apple bool
	// IsArmasm routes the line through the armasm-specific rewrite family
	// instead of the gas-family one.
	IsArmasm bool
	// CommentOutUnsupported lists directives this dialect's assembler
	// rejects; the rewriter comments them out instead of passing them
	// through (spec.md §4.5 Apple-specific).
	CommentOutUnsupported map[string]bool
	// SupportsXcode5Shims allows the early-Xcode-5 AArch64 syntax shims
	// for this dialect; they run only when GASPP_FIX_XCODE5 is also set
	// (rewrite.State.FixXcode5).
	SupportsXcode5Shims bool
}

var table = map[Dialect]Features{
	Gas: {},
	AppleGas: {
		Apple: true,
		CommentOutUnsupported: map[string]bool{
			"type": true, "func": true, "endfunc": true, "ltorg": true,
			"size": true, "fpu": true, "arch": true, "object_arch": true,
			"note.GNU-stack": true,
		},
		SupportsXcode5Shims: true,
	},
	Clang: {},
	AppleClang: {
		Apple: true,
		CommentOutUnsupported: map[string]bool{
			"type": true, "size": true, "fpu": true, "arch": true,
			"object_arch": true, "note.GNU-stack": true,
		},
		SupportsXcode5Shims: true,
	},
	LLVMGcc: {
		Apple: true,
		CommentOutUnsupported: map[string]bool{
			"type": true, "func": true, "endfunc": true, "ltorg": true,
			"size": true, "fpu": true, "arch": true, "object_arch": true,
			"note.GNU-stack": true,
		},
	},
	Armasm: {
		IsArmasm: true,
	},
}

// Lookup returns the feature table for d.
func Lookup(d Dialect) Features {
	return table[d]
}

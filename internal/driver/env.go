// Package driver builds the child-process command line and manages the
// armasm temp-file lifecycle (spec.md §5, §6), keeping the ambient
// configuration surface in one place instead of probing the environment
// ad hoc throughout the codebase.
package driver

import "os"

// EnvConfig holds the boolean-via-presence environment variables spec.md §6
// defines. Call ParseEnv once at startup.
type EnvConfig struct {
	// Debug writes output to stdout instead of the downstream assembler,
	// for testing (GASPP_DEBUG).
	Debug bool
	// FixXcode5 enables AArch64 syntax shims for early Xcode 5
	// (GASPP_FIX_XCODE5).
	FixXcode5 bool
	// ArmasmSkipNegOffset, ArmasmSkipPrfum, ArmasmInvertScale are
	// bug-compatibility shims for specific armasm64 versions (spec.md §4.5).
	ArmasmSkipNegOffset bool
	ArmasmSkipPrfum     bool
	ArmasmInvertScale   bool
}

// ParseEnv reads the GASPP_* environment variables. Each is true if it is
// set at all, even to an empty value, per spec.md §6 ("interpreted as
// booleans via presence").
func ParseEnv() EnvConfig {
	return EnvConfig{
		Debug:               present("GASPP_DEBUG"),
		FixXcode5:           present("GASPP_FIX_XCODE5"),
		ArmasmSkipNegOffset: present("GASPP_ARMASM64_SKIP_NEG_OFFSET"),
		ArmasmSkipPrfum:     present("GASPP_ARMASM64_SKIP_PRFUM"),
		ArmasmInvertScale:   present("GASPP_ARMASM64_INVERT_SCALE"),
	}
}

func present(name string) bool {
	_, ok := os.LookupEnv(name)
	return ok
}

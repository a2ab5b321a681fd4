// Package debug is the package-level logging toggle for -verbose and
// GASPP_DEBUG (spec.md §6): child-process command lines and other
// diagnostics are only printed when Enabled is true.
package debug

import (
	"fmt"
	"os"
)

var Enabled bool = false

// Init sets Enabled from the -verbose flag and the GASPP_DEBUG environment
// variable, either of which turns logging on.
func Init(verbose, envDebug bool) {
	Enabled = verbose || envDebug
}

func Printf(format string, args ...interface{}) {
	if Enabled {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func Println(args ...interface{}) {
	if Enabled {
		fmt.Fprintln(os.Stderr, args...)
	}
}

func Print(args ...interface{}) {
	if Enabled {
		fmt.Fprint(os.Stderr, args...)
	}
}

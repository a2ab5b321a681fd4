package macro

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/expr"
	"github.com/mstorsjo/gas-preprocessor/internal/symtab"
)

// altmacroExpr matches a '%' immediately followed by an expression token:
// a run of identifier/number/operator characters and spaces, stopping at a
// comma or any other character outside that set. A bare '%' not followed by
// such a token is left untouched (SPEC_FULL.md Open Question 4).
var altmacroExpr = regexp.MustCompile(`%[A-Za-z0-9_.$()+\-*/<>=!&|^~ ]+`)

// substituteAltmacroExpr applies .altmacro's %EXPR substitution to line,
// left to right, strictly before \PARAM/bare-PARAM substitution. syms
// (the engine's real .set/.equ table, may be nil) seeds a scratch table so
// %EXPR can see outer symbols; bound macro parameters are layered on top
// and take precedence, since they shadow outer symbols of the same name
// for the duration of this expansion (spec.md §4.1/§4.4).
func substituteAltmacroExpr(line string, bound map[string]string, syms *symtab.Table) string {
	scratch := symtab.New()
	if syms != nil {
		for _, name := range syms.Names() {
			if v, ok := syms.Lookup(name); ok {
				scratch.Set(name, v)
			}
		}
	}
	for name, value := range bound {
		if name == "" {
			continue
		}
		if v, err := expr.Eval(value, scratch); err == nil {
			scratch.Set(name, v)
		}
	}
	return altmacroExpr.ReplaceAllStringFunc(line, func(m string) string {
		candidate := strings.TrimSpace(m[1:])
		v, err := expr.Eval(candidate, scratch)
		if err != nil {
			return m
		}
		return fmt.Sprintf("%d", v)
	})
}

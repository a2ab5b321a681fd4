package engine

import "fmt"

// SourceError reports a fatal error tied to a specific input line, in the
// style gas itself reports assembler errors (spec.md AMBIENT STACK: error
// handling).
type SourceError struct {
	Line      int
	Directive string
	Message   string
}

func (e *SourceError) Error() string {
	if e.Directive != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Directive, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Package debugtree renders the live nesting of conditional, macro, and
// repetition frames as an ASCII tree, for -verbose / GASPP_DEBUG output
// (SPEC_FULL.md AMBIENT STACK: diagnostics). It has no effect on
// translation; engine calls into it only to report frame transitions.
package debugtree

import (
	"fmt"

	"github.com/m1gwings/treedrawer/tree"
)

// Tracer tracks the currently open cond/macro/rept frames and can render
// them as a tree at any point, e.g. when an error aborts the pipeline.
type Tracer struct {
	root  *tree.Tree
	stack []*tree.Tree
}

// New returns a Tracer rooted at a synthetic "stream" node.
func New() *Tracer {
	root := tree.NewTree(tree.NodeString("stream"))
	return &Tracer{root: root, stack: []*tree.Tree{root}}
}

// Push opens a new frame (kind is e.g. "if", "macro", "rept") under the
// current top of stack.
func (t *Tracer) Push(kind, label string) {
	top := t.stack[len(t.stack)-1]
	text := kind
	if label != "" {
		text = fmt.Sprintf("%s %s", kind, label)
	}
	child := top.AddChild(tree.NodeString(text))
	t.stack = append(t.stack, child)
}

// Pop closes the innermost open frame. It is a no-op if only the root
// remains, since mismatched closers are reported as SourceErrors elsewhere
// and should not panic the tracer.
func (t *Tracer) Pop() {
	if len(t.stack) <= 1 {
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
}

// Depth reports how many frames are currently open.
func (t *Tracer) Depth() int {
	return len(t.stack) - 1
}

// Render draws the full tree as it stands right now.
func (t *Tracer) Render() string {
	return t.root.String()
}

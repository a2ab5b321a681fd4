package engine

import (
	"bytes"
	_ "embed"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/emit"
	"github.com/mstorsjo/gas-preprocessor/internal/lineio"
)

//go:embed testdata/golden.txtar
var goldenArchive []byte

// TestGoldenScenarios runs every {arch,input,want} triple in
// testdata/golden.txtar through the full Engine.Run pipeline and checks
// every non-blank line of the "want" file appears in the translated output,
// in order. These are the end-to-end scenarios spec.md calls out by name
// (S1, S2, S4, S5, S6); the txtar format keeps the fixtures diffable and
// separate from the table-driven unit tests in engine_test.go.
func TestGoldenScenarios(t *testing.T) {
	archive := txtar.Parse(goldenArchive)
	scenarios := map[string]struct {
		arch  string
		input string
		want  string
	}{}
	for _, f := range archive.Files {
		name, kind, ok := strings.Cut(f.Name, "/")
		if !ok {
			t.Fatalf("malformed txtar entry name %q", f.Name)
		}
		s := scenarios[name]
		switch kind {
		case "arch":
			s.arch = strings.TrimSpace(string(f.Data))
		case "input":
			s.input = string(f.Data)
		case "want":
			s.want = string(f.Data)
		default:
			t.Fatalf("unknown txtar section %q in scenario %q", kind, name)
		}
		scenarios[name] = s
	}

	for name, s := range scenarios {
		t.Run(name, func(t *testing.T) {
			fields := strings.Fields(s.arch)
			if len(fields) != 2 {
				t.Fatalf("expected \"<arch> <dialect>\", got %q", s.arch)
			}
			arch, err := archinfo.Canonicalize(fields[0])
			if err != nil {
				t.Fatalf("archinfo.Canonicalize(%q): %v", fields[0], err)
			}
			d, err := dialect.Parse(fields[1])
			if err != nil {
				t.Fatalf("dialect.Parse(%q): %v", fields[1], err)
			}

			e := New(arch, d)
			r := lineio.New(strings.NewReader(s.input), arch)
			var out bytes.Buffer
			w := emit.New(&out)
			if err := e.Run(r, w); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}
			got := out.String()

			cursor := 0
			for _, line := range strings.Split(s.want, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				idx := strings.Index(got[cursor:], line)
				if idx < 0 {
					t.Errorf("expected output to contain %q after position %d, got:\n%s", line, cursor, got)
					continue
				}
				cursor += idx + len(line)
			}
		})
	}
}

package lineio

import (
	"strings"
	"testing"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
)

func readAll(t *testing.T, input string, arch archinfo.Arch) []string {
	t.Helper()
	r := New(strings.NewReader(input), arch)
	var lines []string
	for {
		l, ok, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		lines = append(lines, l)
	}
	return lines
}

func TestStripsLinemarkers(t *testing.T) {
	got := readAll(t, "# 1 \"foo.s\"\nnop\n", archinfo.ARM)
	want := []string{"nop\n"}
	if strings.Join(got, "") != strings.Join(want, "") {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStripsTrailingComment(t *testing.T) {
	got := readAll(t, "mov r0, #0 @ set zero\n", archinfo.ARM)
	if got[0] != "mov r0, #0 \n" {
		t.Fatalf("got %q", got[0])
	}
}

func TestEscapedCommentCharKept(t *testing.T) {
	got := readAll(t, "foo \\@ bar\n", archinfo.ARM)
	if got[0] != "foo \\@ bar\n" {
		t.Fatalf("got %q", got[0])
	}
}

func TestAArch64DoubledCommentChar(t *testing.T) {
	got := readAll(t, "nop // comment\n", archinfo.AArch64)
	if got[0] != "nop \n" {
		t.Fatalf("got %q", got[0])
	}
}

func TestSplitsOnSemicolon(t *testing.T) {
	got := readAll(t, "nop; nop\n", archinfo.ARM)
	if len(got) != 2 || got[0] != "nop\n" || got[1] != " nop\n" {
		t.Fatalf("got %q", got)
	}
}

func TestJoinsContinuationLines(t *testing.T) {
	got := readAll(t, ".macro foo \\\nbar\n", archinfo.ARM)
	if len(got) != 1 || got[0] != ".macro foo bar\n" {
		t.Fatalf("got %q", got)
	}
}

// Package lineio implements the line reader (spec.md §4.2): it consumes the
// already-C-preprocessed input stream, strips comments and linemarkers,
// joins backslash-continued lines, and splits on ';' into sub-lines, each
// handed to the rest of the pipeline with a single trailing newline.
package lineio

import (
	"bufio"
	"io"
	"strings"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
)

// Reader yields one pipeline-ready sub-line at a time.
type Reader struct {
	scanner *bufio.Scanner
	arch    archinfo.Arch
	queue   []string
	eof     bool
}

// New wraps r for the given architecture's comment conventions.
func New(r io.Reader, arch archinfo.Arch) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{scanner: sc, arch: arch}
}

// Next returns the next sub-line, with its trailing newline included, and
// true. It returns false once the stream is exhausted.
func (r *Reader) Next() (string, bool, error) {
	for len(r.queue) == 0 {
		raw, ok, err := r.readJoinedLine()
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		r.queue = splitLine(raw, r.arch)
	}
	line := r.queue[0]
	r.queue = r.queue[1:]
	return line, true, nil
}

// readJoinedLine reads one logical line, joining physical lines whose raw
// tail is '\' immediately before the newline into the following line.
func (r *Reader) readJoinedLine() (string, bool, error) {
	if r.eof {
		return "", false, nil
	}
	var b strings.Builder
	any := false
	for r.scanner.Scan() {
		any = true
		line := r.scanner.Text()
		if strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") {
			b.WriteString(strings.TrimSuffix(line, "\\"))
			continue
		}
		b.WriteString(line)
		return b.String(), true, nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", false, err
	}
	r.eof = true
	if any {
		return b.String(), true, nil
	}
	return "", false, nil
}

// splitLine applies linemarker-stripping, comment-stripping, and ';'
// splitting to one joined logical line, producing zero or more sub-lines.
func splitLine(raw string, arch archinfo.Arch) []string {
	raw = strings.TrimSuffix(raw, "\r")

	trimmed := strings.TrimLeft(raw, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return nil
	}

	raw = stripTrailingComment(raw, arch)

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, p+"\n")
	}
	return out
}

// stripTrailingComment removes everything from the architecture's comment
// marker to end of line, unless the marker is escaped with a preceding '\'.
func stripTrailingComment(line string, arch archinfo.Arch) string {
	c := arch.CommentChar()
	doubled := arch == archinfo.AArch64
	for i := 0; i < len(line); i++ {
		if line[i] != c {
			continue
		}
		if doubled {
			if i+1 >= len(line) || line[i+1] != c {
				continue
			}
		}
		if i > 0 && line[i-1] == '\\' {
			continue
		}
		return line[:i]
	}
	return line
}

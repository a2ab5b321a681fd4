package driver

import (
	"fmt"
	"os"
	"path/filepath"
)

// ArmasmTempFile creates the ".asm" temp file armasm reads as its sole
// input, placed next to objPath (spec.md §5, §6), and returns a cleanup
// func the caller must defer immediately so the file is removed on every
// exit path, including a panic recovered in main.
func ArmasmTempFile(objPath string) (path string, cleanup func(), err error) {
	dir := filepath.Dir(objPath)
	base := filepath.Base(objPath)
	f, err := os.CreateTemp(dir, base+"-*.asm")
	if err != nil {
		return "", nil, fmt.Errorf("creating armasm temp file next to %s: %w", objPath, err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", nil, fmt.Errorf("closing armasm temp file %s: %w", name, err)
	}
	return name, func() { os.Remove(name) }, nil
}

// Command gas-preprocessor bridges GNU-as syntax assembly to the dialect a
// target assembler expects (spec.md §6): it sits between a C compiler (or a
// raw assembly file) and the downstream assembler, invoked as
// `gas-preprocessor [options] -- <assembler> [assembler-args]`.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/mstorsjo/gas-preprocessor/internal/archinfo"
	"github.com/mstorsjo/gas-preprocessor/internal/debug"
	"github.com/mstorsjo/gas-preprocessor/internal/debugtree"
	"github.com/mstorsjo/gas-preprocessor/internal/dialect"
	"github.com/mstorsjo/gas-preprocessor/internal/driver"
	"github.com/mstorsjo/gas-preprocessor/internal/emit"
	"github.com/mstorsjo/gas-preprocessor/internal/engine"
	"github.com/mstorsjo/gas-preprocessor/internal/lineio"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "gas-preprocessor: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	toolArgs, childArgs := splitOnDoubleDash(args)

	fs := flag.NewFlagSet("gas-preprocessor", flag.ContinueOnError)
	archFlag := fs.String("arch", "", "force architecture (one of the canonical aliases)")
	asType := fs.String("as-type", "apple-gas", "target dialect: gas, apple-gas, clang, apple-clang, llvm_gcc, armasm")
	fixUnreq := fs.Bool("fix-unreq", runtime.GOOS == "darwin", "enable dual-case .unreq emission")
	noFixUnreq := fs.Bool("no-fix-unreq", false, "disable dual-case .unreq emission")
	forceThumb := fs.Bool("force-thumb", false, "apply the thumb-forcing rewrites")
	verbose := fs.Bool("verbose", false, "log child-process command lines")
	help := fs.Bool("help", false, "print usage and exit")
	fs.Usage = func() { printUsage(fs) }
	if err := fs.Parse(toolArgs); err != nil {
		return err
	}
	if *help {
		printUsage(fs)
		return nil
	}

	env := driver.ParseEnv()
	debug.Init(*verbose, env.Debug)

	if driver.IsProbeInvocation(childArgs) {
		return runChild(childArgs, nil, os.Stdout)
	}
	if len(childArgs) == 0 {
		return fmt.Errorf("missing assembler invocation after --")
	}

	arch, err := resolveArch(*archFlag)
	if err != nil {
		return err
	}
	d, err := dialect.Parse(*asType)
	if err != nil {
		return err
	}

	mode, inputFile, err := driver.ClassifyInput(childArgs)
	if err != nil {
		return err
	}

	assembly, err := preprocess(childArgs, mode, dialect.Lookup(d).IsArmasm)
	if err != nil {
		return err
	}

	eng := engine.New(arch, d)
	eng.RW.FixUnreq = *fixUnreq && !*noFixUnreq
	eng.RW.ForceThumb = *forceThumb
	eng.RW.FixXcode5 = env.FixXcode5
	eng.RW.ArmasmSkipNegOffset = env.ArmasmSkipNegOffset
	eng.RW.ArmasmSkipPrfum = env.ArmasmSkipPrfum
	eng.RW.ArmasmInvertScale = env.ArmasmInvertScale

	var tracer *debugtree.Tracer
	if debug.Enabled {
		tracer = debugtree.New()
		eng.Tracer = tracer
	}

	var translated bytes.Buffer
	r := lineio.New(bytes.NewReader(assembly), arch)
	w := emit.New(&translated)
	if runErr := eng.Run(r, w); runErr != nil {
		if tracer != nil {
			fmt.Fprintln(os.Stderr, tracer.Render())
		}
		return runErr
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if env.Debug {
		_, err := os.Stdout.Write(translated.Bytes())
		return err
	}

	if dialect.Lookup(d).IsArmasm {
		return assembleArmasm(childArgs, inputFile, translated.Bytes())
	}
	return assembleViaStdin(childArgs, inputFile, translated.Bytes())
}

// resolveArch honors an explicit -arch flag, falling back to a best-effort
// mapping from the host's own GOARCH when none is given.
func resolveArch(flagValue string) (archinfo.Arch, error) {
	if flagValue != "" {
		return archinfo.Canonicalize(flagValue)
	}
	switch runtime.GOARCH {
	case "arm":
		return archinfo.Canonicalize("arm")
	case "arm64":
		return archinfo.Canonicalize("aarch64")
	case "ppc64", "ppc64le":
		return archinfo.Canonicalize("powerpc")
	default:
		return 0, fmt.Errorf("cannot infer architecture from GOARCH %q, pass -arch explicitly", runtime.GOARCH)
	}
}

// preprocess invokes the downstream compiler to obtain preprocessed, not-
// yet-translated assembly text: -S for a .c/.cc/.cpp input, -E (or, for
// armasm's MM-dep mode, a bare "cpp -undef -D_WIN32") for a .s/.S input
// (spec.md §6).
func preprocess(childArgs []string, mode driver.InputMode, isArmasm bool) ([]byte, error) {
	if mode == driver.ModeCompile {
		return captureChild(append(append([]string{}, childArgs...), "-S"))
	}
	if isArmasm {
		args := append([]string{"-undef", "-D_WIN32"}, inputFilesOnly(childArgs)...)
		return captureChild(append([]string{"cpp"}, args...))
	}
	return captureChild(append(append([]string{}, childArgs...), "-E"))
}

func inputFilesOnly(args []string) []string {
	var out []string
	for _, a := range args {
		if len(a) > 0 && a[0] != '-' {
			out = append(out, a)
		}
	}
	return out
}

// assembleViaStdin re-invokes the assembler, piping the translated assembly
// to its standard input in place of the original source file.
func assembleViaStdin(childArgs []string, inputFile string, translated []byte) error {
	args := []string{childArgs[0]}
	for _, a := range childArgs[1:] {
		if a != inputFile {
			args = append(args, a)
		}
	}
	args = append(args, "-x", "assembler", "-")
	return runChild(args, translated, os.Stdout)
}

// assembleArmasm writes the translated output to a temp .asm file next to
// the eventual object, then re-invokes the assembler on that file (spec.md
// §5: the temp file is removed on every exit path).
func assembleArmasm(childArgs []string, inputFile string, translated []byte) error {
	objPath := findObjectOutput(childArgs)
	if objPath == "" {
		objPath = inputFile
	}
	path, cleanup, err := driver.ArmasmTempFile(objPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := os.WriteFile(path, translated, 0o644); err != nil {
		return fmt.Errorf("writing armasm temp file: %w", err)
	}
	args := replaceInputFile(childArgs, inputFile, path)
	return runChild(args, nil, os.Stdout)
}

func findObjectOutput(args []string) string {
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func replaceInputFile(args []string, oldFile, newFile string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == oldFile {
			out[i] = newFile
		} else {
			out[i] = a
		}
	}
	return out
}

func captureChild(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command to run")
	}
	debug.Printf("+ %v\n", args)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %v: %w", args, err)
	}
	return out, nil
}

func runChild(args []string, stdin []byte, stdout *os.File) error {
	if len(args) == 0 {
		return fmt.Errorf("no command to run")
	}
	debug.Printf("+ %v\n", args)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	cmd.Stdout = stdout
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	} else {
		cmd.Stdin = os.Stdin
	}
	return cmd.Run()
}

func splitOnDoubleDash(args []string) (before, after []string) {
	for i, a := range args {
		if a == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gas-preprocessor - translate GNU-as assembly syntax for another assembler

USAGE:
    gas-preprocessor [options] -- <assembler> [assembler-args]

OPTIONS:
`)
	fs.PrintDefaults()
}

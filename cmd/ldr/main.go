// Command ldr is the COS relocatable linker: it reads object and library
// files, resolves external references, and emits a loadable absolute image
// as a PDT+TXT pair in COS blocked-dataset format.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/linker"
	"github.com/xyproto/coslink/internal/object"
)

// VerboseMode gates trace output via a package-level flag rather than a
// logging library.
var VerboseMode bool

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ldr", flag.ContinueOnError)
	mapFlag := fs.String("m", "", "write the load map to this file, or - for stdout")
	outFlag := fs.String("o", "", "output absolute image filename (default: first input's stem + .abs)")
	verbose := fs.Bool("v", false, "verbose mode (trace layout and relocation to stderr)")
	verboseLong := fs.Bool("verbose", false, "verbose mode (trace layout and relocation to stderr)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	VerboseMode = *verbose || *verboseLong || env.Bool("COSLD_VERBOSE")

	inputPaths := fs.Args()
	if len(inputPaths) == 0 {
		fmt.Fprintln(os.Stderr, (&linker.UsageError{Msg: "ldr: no input files"}).Error())
		return 2
	}

	libPath := env.Str("COSLD_LIBPATH")

	outPath := *outFlag
	if outPath == "" {
		stem := strings.TrimSuffix(inputPaths[0], filepath.Ext(inputPaths[0]))
		outPath = stem + ".abs"
	}

	var inputs []linker.Input
	var readers []*dataset.Reader
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	for _, p := range resolveInputs(inputPaths, libPath) {
		r, err := dataset.Open(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, (&linker.IOError{Path: p, Err: err}).Error())
			return 1
		}
		readers = append(readers, r)
		inputs = append(inputs, linker.Input{Path: p, Reader: r})
	}

	img, eng, err := linker.Link(inputs, linker.Options{Verbose: VerboseMode})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	for _, d := range eng.Diagnostics().Entries() {
		fmt.Fprintln(os.Stderr, d.Error())
	}

	comment := "ldr " + strings.Join(inputPaths, " ")
	if err := emitImage(outPath, img, eng, comment); err != nil {
		fmt.Fprintln(os.Stderr, (&linker.IOError{Path: outPath, Err: err}).Error())
		os.Remove(outPath)
		return 1
	}

	if *mapFlag != "" {
		if err := writeMap(*mapFlag, eng); err != nil {
			fmt.Fprintln(os.Stderr, (&linker.IOError{Path: *mapFlag, Err: err}).Error())
			return 1
		}
	}

	return eng.Diagnostics().ExitStatus()
}

// resolveInputs prefixes bare input names (no directory component) with
// each COSLD_LIBPATH entry in turn, the same search-path convention
// COSLD_LIBPATH documents; inputs that already name a path, or that exist
// as given, are left untouched.
func resolveInputs(paths []string, libPath string) []string {
	if libPath == "" {
		return paths
	}
	dirs := strings.Split(libPath, ":")
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p
		if filepath.Dir(p) != "." {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			continue
		}
		for _, dir := range dirs {
			candidate := filepath.Join(dir, p)
			if _, err := os.Stat(candidate); err == nil {
				out[i] = candidate
				break
			}
		}
	}
	return out
}

func emitImage(path string, img *object.Image, eng *linker.Engine, comment string) error {
	pdt, txt := eng.Emit(img, comment)
	w, err := dataset.Create(path)
	if err != nil {
		return err
	}
	if err := writeRecord(w, pdt.Encode()); err != nil {
		w.Close()
		return err
	}
	if err := writeRecord(w, txt.Encode()); err != nil {
		w.Close()
		return err
	}
	w.WriteEOF()
	w.WriteEOD()
	return w.Close()
}

// writeRecord writes one big-endian word record followed by an EOR, the
// same record framing writeObjectFile uses in the linker's own tests.
func writeRecord(w *dataset.Writer, words []uint64) error {
	buf := make([]byte, len(words)*8)
	for i, word := range words {
		for j := 0; j < 8; j++ {
			buf[i*8+j] = byte(word >> (8 * (7 - j)))
		}
	}
	if _, err := w.Write(buf); err != nil {
		return err
	}
	w.WriteEOR()
	return nil
}

func writeMap(path string, eng *linker.Engine) error {
	if path == "-" {
		return eng.WriteMap(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := eng.WriteMap(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Command lib builds or merges a COS library dataset: a sequence of
// PDT/TXT/BRT/XRT/DFT module units, optionally omitting named modules.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/ident"
	"github.com/xyproto/coslink/internal/library"
	"github.com/xyproto/coslink/internal/loadertable"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lib", flag.ContinueOnError)
	listFlag := fs.String("l", "", "write the list of included module names to this file, or - for stdout")
	outFlag := fs.String("o", "", "output library filename (default: first input's stem + .lib)")
	// -r takes every bare argument up to the next flag, wherever it
	// appears: omitted names may be listed anywhere after -r until the
	// next flag. They are taken out before the flag set parses the rest.
	omit, flagArgs := collectOmitNames(args)
	if err := fs.Parse(flagArgs); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "lib: no input files")
		return 2
	}

	outPath := *outFlag
	if outPath == "" {
		stem := strings.TrimSuffix(rest[0], filepath.Ext(rest[0]))
		outPath = stem + ".lib"
	}

	var units []*library.ModuleUnit
	for _, path := range rest {
		u, err := loadUnits(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "lib: "+path+": "+err.Error())
			return 1
		}
		units = append(units, u...)
	}

	var kept []*library.ModuleUnit
	for _, u := range units {
		if _, skip := omit[u.Name()]; skip {
			continue
		}
		kept = append(kept, u)
	}

	if err := writeLibraryAtomic(outPath, kept); err != nil {
		fmt.Fprintln(os.Stderr, "lib: "+outPath+": "+err.Error())
		return 1
	}

	if *listFlag != "" {
		if err := writeList(*listFlag, kept); err != nil {
			fmt.Fprintln(os.Stderr, "lib: "+*listFlag+": "+err.Error())
			return 1
		}
	}

	return 0
}

func collectOmitNames(args []string) (map[ident.Ident]struct{}, []string) {
	omit := map[ident.Ident]struct{}{}
	var rest []string
	inOmit := false
	for _, a := range args {
		if a == "-r" {
			inOmit = true
			continue
		}
		if strings.HasPrefix(a, "-") {
			inOmit = false
			rest = append(rest, a)
			continue
		}
		if inOmit {
			omit[ident.New(a)] = struct{}{}
			continue
		}
		rest = append(rest, a)
	}
	return omit, rest
}

// loadUnits reads one input file's module units, detecting library-vs-object
// by the same DFT-header peek the link engine uses. A bare object file
// carries no DFT of its own, so one is synthesized from its PDT so the
// merged library's units are all in the same DFT-terminated shape.
func loadUnits(path string) ([]*library.ModuleUnit, error) {
	r, err := dataset.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	isLib, err := library.IsLibrary(r)
	if err != nil {
		return nil, err
	}
	if isLib {
		lib, err := library.Scan(path, r)
		if err != nil {
			return nil, err
		}
		return lib.Units, nil
	}
	u, err := loadObjectUnit(path, r)
	if err != nil {
		return nil, err
	}
	return []*library.ModuleUnit{u}, nil
}

// loadObjectUnit reads a single-module object file's PDT followed by its
// TXT/BRT/XRT records, synthesizing the DFT a library unit otherwise
// carries on disk from the PDT's own blocks, entries and externals.
func loadObjectUnit(path string, r *dataset.Reader) (*library.ModuleUnit, error) {
	words, err := readWords(r)
	if err != nil {
		return nil, err
	}
	if words == nil || loadertable.HeaderType(words[0]) != loadertable.TypePDT {
		return nil, fmt.Errorf("object file does not begin with a PDT")
	}
	pdt, err := loadertable.DecodePDT(words)
	if err != nil {
		return nil, err
	}
	u := &library.ModuleUnit{PDT: pdt}

	for {
		words, err := readWords(r)
		if err != nil {
			return nil, err
		}
		if words == nil {
			cw := r.ReadCW()
			if cw.Class == dataset.ClassEOF || cw.Class == dataset.ClassEOD {
				break
			}
			continue
		}
		switch loadertable.HeaderType(words[0]) {
		case loadertable.TypeTXT:
			txt, err := loadertable.DecodeTXT(words)
			if err != nil {
				return nil, err
			}
			u.TXT = append(u.TXT, txt)
		case loadertable.TypeBRT:
			brt, err := loadertable.DecodeBRT(words)
			if err != nil {
				return nil, err
			}
			u.BRT = append(u.BRT, brt)
		case loadertable.TypeXRT:
			xrt, err := loadertable.DecodeXRT(words)
			if err != nil {
				return nil, err
			}
			u.XRT = append(u.XRT, xrt)
		}
	}

	var blocks, entries []ident.Ident
	for _, b := range pdt.Blocks {
		blocks = append(blocks, b.Name)
	}
	for _, e := range pdt.Entries {
		entries = append(entries, e.Name)
	}
	name := ident.Ident{}
	if len(entries) > 0 {
		name = entries[0]
	} else if len(blocks) > 0 {
		name = blocks[0]
	}
	u.DFT = &loadertable.DFT{
		Name:      name,
		Blocks:    blocks,
		Entries:   entries,
		Externals: pdt.Externals,
	}
	return u, nil
}

func readWords(r *dataset.Reader) ([]uint64, error) {
	var raw []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
		raw = append(raw, buf[:n]...)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	words := make([]uint64, len(raw)/8)
	for i := range words {
		var w uint64
		for j := 0; j < 8; j++ {
			w = (w << 8) | uint64(raw[i*8+j])
		}
		words[i] = w
	}
	return words, nil
}

func writeList(path string, units []*library.ModuleUnit) error {
	var buf strings.Builder
	for _, u := range units {
		buf.WriteString(u.Name().String())
		buf.WriteByte('\n')
	}
	if path == "-" {
		_, err := fmt.Print(buf.String())
		return err
	}
	return os.WriteFile(path, []byte(buf.String()), 0o644)
}

// writeLibraryAtomic writes the merged library to a temp file and renames
// it over path on success. The flock is held on path+".lock" — a stable
// name every concurrent lib invocation targeting the same output agrees
// on — not on the temp file itself, whose randomised name two racing
// invocations would never share.
func writeLibraryAtomic(path string, units []*library.ModuleUnit) error {
	lockPath := path + ".lock"
	lock, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer lock.Close()
	if err := lockFile(lock); err != nil {
		return err
	}
	defer unlockFile(lock)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".lib-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := encodeLibrary(tmpPath, units); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, path)
}

func encodeLibrary(path string, units []*library.ModuleUnit) error {
	w, err := dataset.Create(path)
	if err != nil {
		return err
	}
	for _, u := range units {
		if err := writeRecord(w, u.PDT.Encode()); err != nil {
			w.Close()
			return err
		}
		for _, txt := range u.TXT {
			if err := writeRecord(w, txt.Encode()); err != nil {
				w.Close()
				return err
			}
		}
		for _, brt := range u.BRT {
			if err := writeRecord(w, brt.Encode()); err != nil {
				w.Close()
				return err
			}
		}
		for _, xrt := range u.XRT {
			if err := writeRecord(w, xrt.Encode()); err != nil {
				w.Close()
				return err
			}
		}
		if err := writeRecord(w, u.DFT.Encode()); err != nil {
			w.Close()
			return err
		}
	}
	w.WriteEOF()
	w.WriteEOD()
	return w.Close()
}

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

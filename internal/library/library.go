// Package library implements the DFT-based index and PDT-based ingest a
// library file supports. A library is a sequence of PDTs (one per
// module), each followed by that module's own TXT/BRT/XRT, terminated by
// a DFT naming the same module's blocks, entries and externals.
//
// A real COS linker treats this as two physical passes over the file: a
// cheap DFT-only index pass, then a full PDT ingest pass gated by doLoad.
// Since internal/dataset already buffers an entire input (mmap or fully
// buffered read — see internal/dataset.Open), re-reading the file from
// disk a second time buys nothing that pass separation was for: here,
// Scan reads every module unit once and keeps the parsed result in
// memory; internal/linker treats a unit's DFT as the cheap name index and
// only walks its PDT/TXT/BRT/XRT into the object graph once doLoad flips,
// matching the two-pass spirit without a second disk read.
package library

import (
	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/ident"
	"github.com/xyproto/coslink/internal/loadertable"
)

// ModuleUnit is one module's worth of records inside a library file.
type ModuleUnit struct {
	PDT *loadertable.PDT
	TXT []*loadertable.TXT
	BRT []*loadertable.BRT
	XRT []*loadertable.XRT
	DFT *loadertable.DFT
}

// Name returns the module's identifier: the DFT's module name when the unit
// has a DFT, otherwise the name of the PDT's first entry, otherwise the
// zero Ident.
func (u *ModuleUnit) Name() ident.Ident {
	if u.DFT != nil {
		return u.DFT.Name
	}
	if len(u.PDT.Entries) > 0 {
		return u.PDT.Entries[0].Name
	}
	return ident.Ident{}
}

// Library is a fully-scanned library file: its module units in on-disk
// order. Find looks a unit up by name with a linear walk.
type Library struct {
	Path  string
	Units []*ModuleUnit
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

// Scan reads a whole library dataset into memory, grouping its records
// into per-module units. A PDT record starts a new unit; a DFT record
// closes the current one.
func Scan(path string, r *dataset.Reader) (*Library, error) {
	lib := &Library{Path: path}
	var cur *ModuleUnit

	for {
		words, err := readWords(r)
		if err != nil {
			return nil, &FormatError{Path: path, Msg: err.Error()}
		}
		if words == nil {
			cw := r.ReadCW()
			if cw.Class == dataset.ClassEOF || cw.Class == dataset.ClassEOD {
				break
			}
			continue
		}
		header := words[0]
		switch loadertable.HeaderType(header) {
		case loadertable.TypePDT:
			pdt, err := loadertable.DecodePDT(words)
			if err != nil {
				return nil, &FormatError{Path: path, Msg: err.Error()}
			}
			cur = &ModuleUnit{PDT: pdt}
			lib.Units = append(lib.Units, cur)
		case loadertable.TypeTXT:
			txt, err := loadertable.DecodeTXT(words)
			if err != nil {
				return nil, &FormatError{Path: path, Msg: err.Error()}
			}
			if cur != nil {
				cur.TXT = append(cur.TXT, txt)
			}
		case loadertable.TypeBRT:
			brt, err := loadertable.DecodeBRT(words)
			if err != nil {
				return nil, &FormatError{Path: path, Msg: err.Error()}
			}
			if cur != nil {
				cur.BRT = append(cur.BRT, brt)
			}
		case loadertable.TypeXRT:
			xrt, err := loadertable.DecodeXRT(words)
			if err != nil {
				return nil, &FormatError{Path: path, Msg: err.Error()}
			}
			if cur != nil {
				cur.XRT = append(cur.XRT, xrt)
			}
		case loadertable.TypeDFT:
			dft, err := loadertable.DecodeDFT(words)
			if err != nil {
				return nil, &FormatError{Path: path, Msg: err.Error()}
			}
			if cur != nil {
				cur.DFT = dft
				cur = nil
			}
		default:
			// PWT/DMT/SMT/DPT: the whole record has already been read;
			// nothing to ingest for library scanning purposes.
		}
	}
	return lib, nil
}

// Find returns the module unit named name, or nil if this library doesn't
// have it.
func (lib *Library) Find(name ident.Ident) *ModuleUnit {
	for _, u := range lib.Units {
		if u.Name() == name {
			return u
		}
	}
	return nil
}

// IsLibrary peeks a dataset's first record and reports whether its first
// word is a DFT header, the file-kind detection rule an input's first
// record settles.
func IsLibrary(r *dataset.Reader) (bool, error) {
	words, err := readWords(r)
	if err != nil {
		return false, err
	}
	r.Rewind()
	if len(words) == 0 {
		return false, nil
	}
	return loadertable.HeaderType(words[0]) == loadertable.TypeDFT, nil
}

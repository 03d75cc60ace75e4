// Command dasm is a thin consumer of the dataset and loader-table codecs:
// it prints a PDT/TXT/BRT/XRT summary of an object, library or linked
// image file and, given a parcel address range, a raw parcel dump. It does
// not decode Cray mnemonics — that table is out of scope.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xyproto/coslink/internal/dataset"
	"github.com/xyproto/coslink/internal/loadertable"
	"github.com/xyproto/coslink/internal/object"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: dasm path [start] [limit]")
		return 2
	}
	path := args[0]

	r, err := dataset.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dasm: "+path+": "+err.Error())
		return 1
	}
	defer r.Close()

	units, err := readAllUnits(r)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dasm: "+path+": "+err.Error())
		return 1
	}

	for _, u := range units {
		printSummary(os.Stdout, u)
	}

	if len(args) >= 3 {
		startWord, startParcel, err := parseParcelAddr(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "dasm: start: "+err.Error())
			return 2
		}
		limitWord, limitParcel, err := parseParcelAddr(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "dasm: limit: "+err.Error())
			return 2
		}
		img := buildImage(units)
		dumpParcels(os.Stdout, img, startWord, startParcel, limitWord, limitParcel)
	}

	return 0
}

// unit is one module's worth of decoded records, read without the
// library/linker packages' doLoad bookkeeping — dasm only ever reads, never
// resolves or relocates.
type unit struct {
	pdt *loadertable.PDT
	txt []*loadertable.TXT
	brt []*loadertable.BRT
	xrt []*loadertable.XRT
	dft *loadertable.DFT
}

func readAllUnits(r *dataset.Reader) ([]*unit, error) {
	var units []*unit
	var cur *unit
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
		case loadertable.TypePDT:
			pdt, err := loadertable.DecodePDT(words)
			if err != nil {
				return nil, err
			}
			cur = &unit{pdt: pdt}
			units = append(units, cur)
		case loadertable.TypeTXT:
			txt, err := loadertable.DecodeTXT(words)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				cur.txt = append(cur.txt, txt)
			}
		case loadertable.TypeBRT:
			brt, err := loadertable.DecodeBRT(words)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				cur.brt = append(cur.brt, brt)
			}
		case loadertable.TypeXRT:
			xrt, err := loadertable.DecodeXRT(words)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				cur.xrt = append(cur.xrt, xrt)
			}
		case loadertable.TypeDFT:
			dft, err := loadertable.DecodeDFT(words)
			if err != nil {
				return nil, err
			}
			if cur != nil {
				cur.dft = dft
				cur = nil
			}
		}
	}
	return units, nil
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

func printSummary(w *os.File, u *unit) {
	name := "(object)"
	if u.dft != nil {
		name = u.dft.Name.String()
	} else if len(u.pdt.Entries) > 0 {
		name = u.pdt.Entries[0].Name.String()
	}
	fmt.Fprintf(w, "module %s\n", name)
	for _, b := range u.pdt.Blocks {
		kind := "relocatable"
		if b.Absolute {
			kind = fmt.Sprintf("absolute origin %o", b.Origin)
		}
		fmt.Fprintf(w, "  block %-8s %-8s length %o (%s)\n", b.Name.String(), b.Kind.String(), b.Length, kind)
	}
	for _, e := range u.pdt.Entries {
		fmt.Fprintf(w, "  entry %-8s value %o\n", e.Name.String(), e.Value)
	}
	for _, ext := range u.pdt.Externals {
		fmt.Fprintf(w, "  external %s\n", ext.String())
	}
	for _, txt := range u.txt {
		fmt.Fprintf(w, "  txt block %d load %o words %d\n", txt.BlockIndex, txt.LoadAddr, len(txt.Payload))
	}
	fmt.Fprintf(w, "  %d BRT entries, %d XRT entries\n", countBRT(u.brt), len(flattenXRT(u.xrt)))
}

func countBRT(brts []*loadertable.BRT) int {
	n := 0
	for _, b := range brts {
		n += len(b.Entries)
	}
	return n
}

func flattenXRT(xrts []*loadertable.XRT) []loadertable.XRTEntry {
	var out []loadertable.XRTEntry
	for _, x := range xrts {
		out = append(out, x.Entries...)
	}
	return out
}

// buildImage lays out every unit's absolute blocks into a single byte
// buffer sized to the highest origin+length seen, so a parcel address
// range can be read directly — dasm only makes sense to point at already-
// linked (absolute) output, so relocatable blocks are skipped.
func buildImage(units []*unit) *object.Image {
	var hlm uint64
	for _, u := range units {
		for _, b := range u.pdt.Blocks {
			if b.Absolute && b.Origin+b.Length > hlm {
				hlm = b.Origin + b.Length
			}
		}
	}
	img := object.NewImage(hlm)
	for _, u := range units {
		for _, txt := range u.txt {
			if int(txt.BlockIndex) >= len(u.pdt.Blocks) {
				continue
			}
			blk := u.pdt.Blocks[txt.BlockIndex]
			if !blk.Absolute {
				continue
			}
			dst := object.WordByteOffset(blk.Origin + txt.LoadAddr)
			img.Put(dst, wordsToBytes(txt.Payload))
		}
	}
	return img
}

func wordsToBytes(words []uint64) []byte {
	out := make([]byte, len(words)*8)
	for i, w := range words {
		for j := 0; j < 8; j++ {
			out[i*8+j] = byte(w >> (8 * (7 - j)))
		}
	}
	return out
}

// parseParcelAddr reads "200a" as word 0o200, parcel 0.
// A string with no a/b/c/d suffix is read as a whole octal word address.
func parseParcelAddr(s string) (word uint64, parcel int, err error) {
	if s == "" {
		return 0, 0, fmt.Errorf("empty address")
	}
	last := s[len(s)-1]
	digits := s
	parcel = 0
	if idx := strings.IndexByte("abcd", last); idx >= 0 {
		parcel = idx
		digits = s[:len(s)-1]
	}
	word, err = strconv.ParseUint(digits, 8, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad parcel address %q: %v", s, err)
	}
	return word, parcel, nil
}

func dumpParcels(w *os.File, img *object.Image, startWord uint64, startParcel int, limitWord uint64, limitParcel int) {
	startParcelAddr := startWord*4 + uint64(startParcel)
	limitParcelAddr := limitWord*4 + uint64(limitParcel)
	for p := startParcelAddr; p < limitParcelAddr; p++ {
		byteOff := p * 2
		if byteOff+2 > uint64(len(img.Bytes)) {
			break
		}
		parcelBytes := img.Bytes[byteOff : byteOff+2]
		wordAddr := p / 4
		letter := "abcd"[p%4]
		fmt.Fprintf(w, "%o%c  %04x\n", wordAddr, letter, uint16(parcelBytes[0])<<8|uint16(parcelBytes[1]))
	}
}

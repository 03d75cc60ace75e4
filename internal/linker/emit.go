package linker

import (
	"github.com/xyproto/coslink/internal/ident"
	"github.com/xyproto/coslink/internal/loadertable"
	"github.com/xyproto/coslink/internal/object"
)

// pdtMagic is the output-side PDT header-entry magic constant for
// "machine type extensions, calling sequence, PDT type". The source this
// was derived from carries this value with no documented derivation;
// it's preserved bit-exact here too.
const pdtMagic = 0x0980000000000000

// Emit synthesises the output PDT+TXT pair describing the linked
// program: one absolute block covering the whole image from
// object.StartOfProgram through HLM-1, at most one primary entry (the
// first entry symbol recorded), and a single TXT payload of the entire
// image body.
func (e *Engine) Emit(img *object.Image, comment string) (*loadertable.PDT, *loadertable.TXT) {
	hlm := e.blockLimit

	pdt := &loadertable.PDT{
		Trailer: loadertable.NewTrailer(e.opts.Clock),
		Comment: comment,
	}
	pdt.HeaderEntry[0] = pdtMagic
	pdt.Blocks = append(pdt.Blocks, loadertable.BlockDescriptor{
		Name:     ident.New("PROGRAM"),
		Absolute: true,
		Origin:   object.StartOfProgram,
		Length:   hlm - object.StartOfProgram,
	})

	if len(e.symbolOrder) > 0 {
		name := e.symbolOrder[0]
		sym, _ := e.symbols.Get(name)
		pdt.Entries = append(pdt.Entries, loadertable.EntryDescriptor{
			Name:          sym.Name,
			Primary:       true,
			ParcelAddress: sym.ParcelAddress,
			Value:         sym.Value,
		})
	} else {
		e.diag.Record(&Warning{Msg: "no start symbol"})
	}

	txt := &loadertable.TXT{
		BlockIndex: 0,
		LoadAddr:   0,
	}
	body := img.Bytes[object.WordByteOffset(object.StartOfProgram):object.WordByteOffset(hlm)]
	txt.Payload = bytesToWords(body)

	return pdt, txt
}

func bytesToWords(b []byte) []uint64 {
	out := make([]uint64, len(b)/8)
	for i := range out {
		var w uint64
		for j := 0; j < 8; j++ {
			w = (w << 8) | uint64(b[i*8+j])
		}
		out[i] = w
	}
	return out
}

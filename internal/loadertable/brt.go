package loadertable

// BRTEntry is one relocation entry in a Block Relocation Table, in either
// its standard (two packed per word) or extended (one per word) format.
type BRTEntry struct {
	BlockIndex    int
	ParcelFlag    bool
	ParcelAddress uint64 // standard format only
	FieldWidth    int    // extended format only; 0 means 64
	Negative      bool   // extended format only
	BitAddress    uint64 // extended format only
}

// brtFillerBlockIndex and brtFillerParcelAddress mark an unused entry slot
// when a standard table has an odd entry count and must pad its final word.
const (
	brtFillerBlockIndex    = 0x7F
	brtFillerParcelAddress = 0xFFFFFF
)

func (e BRTEntry) isFiller() bool {
	return e.BlockIndex == brtFillerBlockIndex && e.ParcelAddress == brtFillerParcelAddress
}

// BRT is a decoded Block Relocation Table.
type BRT struct {
	Extended bool
	Entries  []BRTEntry
}

// DecodeBRT parses a BRT table, words[0] being its header word. Bit 28 of
// the header selects standard (0) or extended (1) entry format.
func DecodeBRT(words []uint64) (*BRT, error) {
	if len(words) == 0 {
		return nil, &FormatError{Msg: "BRT: empty table"}
	}
	header := words[0]
	if HeaderType(header) != TypeBRT {
		return nil, &FormatError{Msg: "BRT: header type mismatch"}
	}
	total := HeaderWordCount(header)
	if int(total) > len(words) {
		return nil, &ShortTableError{Want: int(total), Have: len(words)}
	}
	extended := field(header, 28, 28) != 0
	b := &BRT{Extended: extended}

	payload := words[1:total]
	if extended {
		for _, w := range payload {
			width := int(field(w, 7, 12))
			if width == 0 {
				width = 64
			}
			entry := BRTEntry{
				BlockIndex: int(field(w, 0, 6)),
				FieldWidth: width,
				ParcelFlag: field(w, 13, 13) != 0,
				Negative:   field(w, 14, 14) != 0,
				BitAddress: field(w, 15, 44),
			}
			b.Entries = append(b.Entries, entry)
		}
		return b, nil
	}

	for _, w := range payload {
		hi := decodeStandardHalf(w, 0)
		lo := decodeStandardHalf(w, 32)
		if !hi.isFiller() {
			b.Entries = append(b.Entries, hi)
		}
		if !lo.isFiller() {
			b.Entries = append(b.Entries, lo)
		}
	}
	return b, nil
}

func decodeStandardHalf(w uint64, base int) BRTEntry {
	return BRTEntry{
		BlockIndex:    int(field(w, base, base+6)),
		ParcelFlag:    field(w, base+7, base+7) != 0,
		ParcelAddress: field(w, base+8, base+31),
	}
}

func encodeStandardHalf(e BRTEntry) uint64 {
	var w uint64
	w = setField(w, 0, 6, uint64(e.BlockIndex))
	if e.ParcelFlag {
		w = setField(w, 7, 7, 1)
	}
	w = setField(w, 8, 31, e.ParcelAddress)
	return w
}

var brtFiller = BRTEntry{BlockIndex: brtFillerBlockIndex, ParcelAddress: brtFillerParcelAddress}

// Encode serialises the BRT back into its word sequence.
func (b *BRT) Encode() []uint64 {
	var payload []uint64
	if b.Extended {
		for _, e := range b.Entries {
			var w uint64
			w = setField(w, 0, 6, uint64(e.BlockIndex))
			width := e.FieldWidth
			if width == 64 {
				width = 0
			}
			w = setField(w, 7, 12, uint64(width))
			if e.ParcelFlag {
				w = setField(w, 13, 13, 1)
			}
			if e.Negative {
				w = setField(w, 14, 14, 1)
			}
			w = setField(w, 15, 44, e.BitAddress)
			payload = append(payload, w)
		}
	} else {
		entries := b.Entries
		for i := 0; i < len(entries); i += 2 {
			hi := entries[i]
			lo := brtFiller
			if i+1 < len(entries) {
				lo = entries[i+1]
			}
			w := encodeStandardHalf(hi) | (encodeStandardHalf(lo) >> 32)
			payload = append(payload, w)
		}
	}

	total := uint64(1 + len(payload))
	header := uint64(0)
	header = setField(header, 0, 3, uint64(TypeBRT))
	header = setField(header, 4, 27, total)
	if b.Extended {
		header = setField(header, 28, 28, 1)
	}
	out := make([]uint64, 0, total)
	out = append(out, header)
	out = append(out, payload...)
	return out
}

package loadertable

// XRTEntry is one external relocation entry: a patch into blockIndex at
// bitAddress, sized fieldWidth bits, whose value comes from the external
// named by externalIndex (an index into the owning PDT's external list).
type XRTEntry struct {
	BlockIndex    int
	ParcelFlag    bool
	ExternalIndex int
	FieldWidth    int // 0 means 64
	BitAddress    uint64
}

// XRT is a decoded External Relocation Table.
type XRT struct {
	Entries []XRTEntry
}

// DecodeXRT parses an XRT table, words[0] being its header word.
func DecodeXRT(words []uint64) (*XRT, error) {
	if len(words) == 0 {
		return nil, &FormatError{Msg: "XRT: empty table"}
	}
	header := words[0]
	if HeaderType(header) != TypeXRT {
		return nil, &FormatError{Msg: "XRT: header type mismatch"}
	}
	total := HeaderWordCount(header)
	if int(total) > len(words) {
		return nil, &ShortTableError{Want: int(total), Have: len(words)}
	}
	x := &XRT{}
	for _, w := range words[1:total] {
		width := int(field(w, 22, 27))
		if width == 0 {
			width = 64
		}
		x.Entries = append(x.Entries, XRTEntry{
			BlockIndex:    int(field(w, 0, 6)),
			ParcelFlag:    field(w, 7, 7) != 0,
			ExternalIndex: int(field(w, 8, 21)),
			FieldWidth:    width,
			BitAddress:    field(w, 28, 57),
		})
	}
	return x, nil
}

// Encode serialises the XRT back into its word sequence.
func (x *XRT) Encode() []uint64 {
	payload := make([]uint64, 0, len(x.Entries))
	for _, e := range x.Entries {
		var w uint64
		w = setField(w, 0, 6, uint64(e.BlockIndex))
		if e.ParcelFlag {
			w = setField(w, 7, 7, 1)
		}
		w = setField(w, 8, 21, uint64(e.ExternalIndex))
		width := e.FieldWidth
		if width == 64 {
			width = 0
		}
		w = setField(w, 22, 27, uint64(width))
		w = setField(w, 28, 57, e.BitAddress)
		payload = append(payload, w)
	}
	total := uint64(1 + len(payload))
	header := uint64(0)
	header = setField(header, 0, 3, uint64(TypeXRT))
	header = setField(header, 4, 27, total)
	out := make([]uint64, 0, total)
	out = append(out, header)
	out = append(out, payload...)
	return out
}

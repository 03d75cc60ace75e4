package loadertable

// TXT is a decoded Text Table: a verbatim run of code/data words destined
// for one block at a load-relative word address.
type TXT struct {
	BlockIndex int    // which of the module's blocks (by ordinal) this payload targets
	LoadAddr   uint64 // word address within that block
	Payload    []uint64
}

// DecodeTXT parses a TXT table, words[0] being its header word.
func DecodeTXT(words []uint64) (*TXT, error) {
	if len(words) == 0 {
		return nil, &FormatError{Msg: "TXT: empty table"}
	}
	header := words[0]
	if HeaderType(header) != TypeTXT {
		return nil, &FormatError{Msg: "TXT: header type mismatch"}
	}
	total := HeaderWordCount(header)
	if int(total) > len(words) {
		return nil, &ShortTableError{Want: int(total), Have: len(words)}
	}
	t := &TXT{
		BlockIndex: int(field(header, 32, 38)),
		LoadAddr:   field(header, 40, 63),
	}
	t.Payload = append(t.Payload, words[1:total]...)
	return t, nil
}

// Encode serialises the TXT table back into its word sequence.
func (t *TXT) Encode() []uint64 {
	total := uint64(1 + len(t.Payload))
	header := uint64(0)
	header = setField(header, 0, 3, uint64(TypeTXT))
	header = setField(header, 4, 27, total)
	header = setField(header, 32, 38, uint64(t.BlockIndex))
	// bit 39 (relocation mode) is always 0 for this format.
	header = setField(header, 40, 63, t.LoadAddr)

	out := make([]uint64, 0, total)
	out = append(out, header)
	out = append(out, t.Payload...)
	return out
}
